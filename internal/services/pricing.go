package services

import (
	"strings"

	"github.com/technotronz/symposium/internal/config"
)

// payAppCategory is the PayApp collection id every purpose is booked under.
const payAppCategory = "20"

// Pricing decides what a user owes. It is the only place the institutional
// email domain is consulted.
type Pricing struct {
	InstitutionDomain string
	InternalEventFee  int64
	ExternalEventFee  int64
}

// NewPricing reads the fee settings from configuration.
func NewPricing(cfg *config.Config) Pricing {
	return Pricing{
		InstitutionDomain: cfg.InstitutionDomain,
		InternalEventFee:  cfg.EventFeeInternal,
		ExternalEventFee:  cfg.EventFeeExternal,
	}
}

// EventFee returns the event access fee for a user with the given email.
func (p Pricing) EventFee(email string) int64 {
	if p.InstitutionDomain != "" && strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), p.InstitutionDomain) {
		return p.InternalEventFee
	}
	return p.ExternalEventFee
}

// WorkshopFee returns the fee for a catalog workshop.
func (p Pricing) WorkshopFee(workshopID string) (int64, error) {
	w, ok := FindWorkshop(workshopID)
	if !ok {
		return 0, ErrUnknownWorkshop
	}
	return w.Fee, nil
}

// Category returns the PayApp category code for a payment purpose.
func (p Pricing) Category(paymentType string) string {
	// PayApp currently books events and workshops under one collection.
	_ = paymentType
	return payAppCategory
}
