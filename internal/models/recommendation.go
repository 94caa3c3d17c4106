package models

import "time"

// Recommendation is one ledger entry: UserID has recommended BoardID.
// The unique index keeps at most one live entry per pair.
type Recommendation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BoardID   uint      `json:"board_id" gorm:"not null;index;uniqueIndex:idx_recommend_board_user"`
	UserID    string    `json:"user_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_recommend_board_user"`
	CreatedAt time.Time `json:"created_at"`
}
