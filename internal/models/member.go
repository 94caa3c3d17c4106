package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Member is a registered account. Email is the stable identity used as
// board writer, comment author and recommendation user id.
type Member struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Nickname    string    `json:"nickname"`
	Password    string    `json:"-"`                                         // bcrypt hash, empty for firebase-only accounts
	FirebaseUID *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // nil for local accounts
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Nickname string `json:"nickname" validate:"required,min=2,max=30"`
	Password string `json:"password" validate:"required,min=8"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateMemberRequest struct {
	Nickname string `json:"nickname" validate:"required,min=2,max=30"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	MemberID uint   `json:"member_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}
