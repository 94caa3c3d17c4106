package models

import "time"

// Comment represents a comment on a board
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BoardID   uint      `json:"board_id" gorm:"not null;index"`
	Author    string    `json:"author" gorm:"type:varchar(255);not null;index"` // member email
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	BoardID uint   `json:"board_id" validate:"required"`
	Content string `json:"content" validate:"required,min=1,max=500"`
}
