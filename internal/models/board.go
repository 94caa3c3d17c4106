package models

import "time"

// Category classifies a board post.
type Category string

const (
	CategoryWalk      Category = "WALK"      // walking routes
	CategoryHealth    Category = "HEALTH"    // illness and health topics
	CategoryCommunity Category = "COMMUNITY" // free chat
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryWalk, CategoryHealth, CategoryCommunity}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Board is a community post. RecommendCount mirrors the number of
// Recommendation rows for the board and is only changed together with them.
type Board struct {
	ID              uint             `json:"id" gorm:"primaryKey"`
	Title           string           `json:"title" gorm:"type:varchar(200);not null;index"`
	Content         string           `json:"content" gorm:"type:text;not null"`
	Category        Category         `json:"category" gorm:"type:varchar(16);not null;index"`
	RecommendCount  int              `json:"recommend_count" gorm:"not null;default:0"`
	Image           string           `json:"image,omitempty"`
	Writer          string           `json:"writer" gorm:"type:varchar(255);not null;index"` // member email
	Recommendations []Recommendation `json:"-" gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
	Comments        []Comment        `json:"-" gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CreateBoardRequest defines the metadata part of a new board submission
type CreateBoardRequest struct {
	Title    string   `json:"title" validate:"required,min=1,max=200"`
	Content  string   `json:"content" validate:"required,min=1,max=10000"`
	Category Category `json:"category" validate:"required,category"`
}

// UpdateBoardRequest defines the metadata part of a board edit
type UpdateBoardRequest struct {
	Title    string   `json:"title" validate:"required,min=1,max=200"`
	Content  string   `json:"content" validate:"required,min=1,max=10000"`
	Category Category `json:"category" validate:"required,category"`
}

// RecommendStatus compares the denormalized counter with the ledger.
type RecommendStatus struct {
	BoardID        uint  `json:"board_id"`
	RecommendCount int   `json:"recommend_count"`
	LedgerCount    int64 `json:"ledger_count"`
	InSync         bool  `json:"in_sync"`
}
