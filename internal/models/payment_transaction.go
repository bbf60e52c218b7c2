package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment purposes.
const (
	PaymentTypeEvent    = "EVENT"
	PaymentTypeWorkshop = "WORKSHOP"
)

// Payment transaction states. PENDING moves to exactly one terminal state.
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"
)

// PaymentTransaction stores one attempted PayApp payment. Rows are never deleted.
type PaymentTransaction struct {
	BaseModel
	TxnID          string     `gorm:"column:txn_id;size:15;uniqueIndex;not null" json:"txn_id"`
	RegID          string     `gorm:"size:10" json:"reg_id"`
	Type           string     `gorm:"index;not null" json:"type"`
	WorkshopID     *string    `json:"workshop_id,omitempty"`
	UserID         uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	Amount         int64      `json:"amount"`
	Status         string     `gorm:"index;not null;default:PENDING" json:"status"`
	Category       string     `json:"category"`
	Provider       string     `json:"provider"`
	ProviderStatus string     `json:"provider_status"`
	SettledAt      *time.Time `json:"settled_at,omitempty"`
}

// IsTerminal reports whether no further status transition is permitted.
func (t *PaymentTransaction) IsTerminal() bool {
	return t.Status == PaymentStatusSuccess || t.Status == PaymentStatusFailed
}
