package models

import "github.com/google/uuid"

// EventRegistration records that a user signed up for an event.
type EventRegistration struct {
	BaseModel
	UserID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_event_registration" json:"user_id"`
	EventID string    `gorm:"uniqueIndex:idx_event_registration" json:"event_id"`
}

// WorkshopRegistration records that a user signed up for a workshop.
type WorkshopRegistration struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_workshop_registration" json:"user_id"`
	WorkshopID string    `gorm:"uniqueIndex:idx_workshop_registration" json:"workshop_id"`
}

// UserWorkshopStatus is the per-workshop PAID/NOT_PAID flag kept on the user.
type UserWorkshopStatus struct {
	BaseModel
	UserID        uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_workshop_status" json:"user_id"`
	WorkshopID    string    `gorm:"uniqueIndex:idx_user_workshop_status" json:"workshop_id"`
	PaymentStatus string    `json:"payment_status"`
}
