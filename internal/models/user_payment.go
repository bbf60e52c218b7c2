package models

import "github.com/google/uuid"

// UserPayment is the per-user rollup of successfully paid fees.
type UserPayment struct {
	BaseModel
	UserID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	EventFeePaid   bool      `gorm:"default:false" json:"event_fee_paid"`
	EventFeeAmount int64     `json:"event_fee_amount"`
}

// UserPaymentWorkshop is one member of a user's paid-workshops set.
type UserPaymentWorkshop struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_payment_workshop" json:"user_id"`
	WorkshopID string    `gorm:"uniqueIndex:idx_user_payment_workshop" json:"workshop_id"`
}
