package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/technotronz/symposium/internal/models"
)

// RegistrationService associates users with events and workshops.
// It never marks anything as paid.
type RegistrationService struct {
	users    *UserStore
	payments *PaymentStore
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(users *UserStore, payments *PaymentStore) *RegistrationService {
	return &RegistrationService{users: users, payments: payments}
}

// RegisterEvent adds an event to the user's registrations. The event fee must be paid.
func (s *RegistrationService) RegisterEvent(ctx context.Context, userID uuid.UUID, eventID string) ([]string, error) {
	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.RegistrationCompleted {
		return nil, ErrProfileIncomplete
	}
	if _, ok := FindEvent(eventID); !ok {
		return nil, ErrUnknownEvent
	}

	agg, err := s.payments.FindPaymentAggregate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if agg == nil || !agg.EventFeePaid {
		return nil, ErrEventFeeUnpaid
	}

	added, err := s.users.AddEventRegistration(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, ErrAlreadyRegistered
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "event_id": eventID}).Info("event registration added")
	return s.users.EventIDs(ctx, userID)
}

// WorkshopRegistrationResult is the user's workshop list after a registration.
type WorkshopRegistrationResult struct {
	WorkshopsRegistered []string          `json:"workshopsRegistered"`
	WorkshopPayments    map[string]string `json:"workshopPayments"`
}

// RegisterWorkshop adds a workshop to the user's registrations and sets its
// payment flag to NOT_PAID unless a flag already exists.
func (s *RegistrationService) RegisterWorkshop(ctx context.Context, userID uuid.UUID, workshopID string) (*WorkshopRegistrationResult, error) {
	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.RegistrationCompleted {
		return nil, ErrProfileIncomplete
	}
	if _, ok := FindWorkshop(workshopID); !ok {
		return nil, ErrUnknownWorkshop
	}

	added, err := s.users.AddWorkshopRegistration(ctx, userID, workshopID)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, ErrAlreadyRegistered
	}
	if err := s.payments.SetWorkshopFlag(ctx, userID, workshopID, models.WorkshopNotPaid, false); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "workshop_id": workshopID}).Info("workshop registration added")

	ids, err := s.users.WorkshopIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	flags, err := s.users.WorkshopFlags(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &WorkshopRegistrationResult{WorkshopsRegistered: ids, WorkshopPayments: flags}, nil
}
