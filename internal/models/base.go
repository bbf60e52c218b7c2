package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is embedded by every table: users, registrations, workshop
// flags, payment transactions, payment aggregates and reset tokens.
// Natural keys (txn_id, user_id + workshop_id) carry their own unique
// indexes; ID is only the row identity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a random ID to rows inserted without one, including
// rows built inline for ON CONFLICT upserts.
func (b *BaseModel) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
