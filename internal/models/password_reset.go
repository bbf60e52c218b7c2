package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken stores a hashed, expiring password-reset link token.
type PasswordResetToken struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}
