package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/technotronz/symposium/internal/models"
	"github.com/technotronz/symposium/internal/utils"
)

// Encrypter turns a payment request into a PayApp payment page.
type Encrypter interface {
	Encrypt(ctx context.Context, req EncryptRequest) (*EncryptResult, error)
	PaymentURL(res *EncryptResult) string
}

// InitiatePaymentRequest names what the user wants to pay for.
type InitiatePaymentRequest struct {
	Type       string `json:"type" validate:"required,oneof=EVENT WORKSHOP"`
	WorkshopID string `json:"workshopId" validate:"required_if=Type WORKSHOP"`
}

// InitiatePaymentResult is where the browser goes next.
type InitiatePaymentResult struct {
	PaymentURL string `json:"paymentUrl"`
	TxnID      string `json:"txnId"`
}

// PaymentService starts payments and answers payment-status reads.
type PaymentService struct {
	encrypter Encrypter
	payments  *PaymentStore
	users     *UserStore
	pricing   Pricing
	cache     PaymentStatusCache
	returnURL string
	provider  string
}

// NewPaymentService constructs a PaymentService. PayApp sends the browser
// back to baseURL + /api/payment/verify.
func NewPaymentService(encrypter Encrypter, payments *PaymentStore, users *UserStore, pricing Pricing, cache PaymentStatusCache, baseURL, provider string) *PaymentService {
	if cache == nil {
		cache = NoopStatusCache{}
	}
	return &PaymentService{
		encrypter: encrypter,
		payments:  payments,
		users:     users,
		pricing:   pricing,
		cache:     cache,
		returnURL: baseURL + "/api/payment/verify",
		provider:  provider,
	}
}

// Status returns the user's payment aggregate, creating a default one with
// the user's event fee on first read.
func (s *PaymentService) Status(ctx context.Context, userID uuid.UUID) (*PaymentAggregate, error) {
	if agg, ok := s.cache.Get(ctx, userID); ok {
		return agg, nil
	}

	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	agg, err := s.payments.FindOrCreatePaymentAggregate(ctx, userID, func() int64 {
		return s.pricing.EventFee(user.Email)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, agg)
	return agg, nil
}

// Initiate records a PENDING transaction and asks PayApp for its payment page.
func (s *PaymentService) Initiate(ctx context.Context, userID uuid.UUID, req InitiatePaymentRequest) (*InitiatePaymentResult, error) {
	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.RegistrationCompleted {
		return nil, ErrProfileIncomplete
	}

	agg, err := s.payments.FindPaymentAggregate(ctx, userID)
	if err != nil {
		return nil, err
	}

	txn := &models.PaymentTransaction{
		TxnID:    utils.GenerateTxnID(),
		RegID:    utils.GenerateRegID(),
		Type:     req.Type,
		UserID:   userID,
		Status:   models.PaymentStatusPending,
		Category: s.pricing.Category(req.Type),
		Provider: s.provider,
	}

	switch req.Type {
	case models.PaymentTypeEvent:
		if agg != nil && agg.EventFeePaid {
			return nil, ErrAlreadyPaid
		}
		txn.Amount = s.pricing.EventFee(user.Email)
	case models.PaymentTypeWorkshop:
		fee, err := s.pricing.WorkshopFee(req.WorkshopID)
		if err != nil {
			return nil, err
		}
		if agg != nil && agg.HasWorkshop(req.WorkshopID) {
			return nil, ErrAlreadyPaid
		}
		workshopID := req.WorkshopID
		txn.WorkshopID = &workshopID
		txn.Amount = fee
	default:
		return nil, ErrInvalidPayment
	}

	if err := s.payments.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"txn_id":  txn.TxnID,
		"user_id": userID,
		"type":    txn.Type,
		"amount":  txn.Amount,
	})

	res, err := s.encrypter.Encrypt(ctx, EncryptRequest{
		RegID:     txn.RegID,
		Name:      user.Name,
		Email:     user.Email,
		Category:  txn.Category,
		TxnID:     txn.TxnID,
		Amount:    txn.Amount,
		ReturnURL: s.returnURL,
		Provider:  s.provider,
	})
	if err != nil {
		// The PayApp side never produced a payable order, so the record cannot settle.
		if _, markErr := s.payments.UpdateTransactionStatus(ctx, txn.TxnID, models.PaymentStatusPending, models.PaymentStatusFailed, ""); markErr != nil {
			log.WithError(markErr).Error("failed to mark unpayable transaction as FAILED")
		}
		if errors.Is(err, ErrDuplicateTransaction) {
			log.Warn("payapp reported a duplicate transaction id")
		} else {
			log.WithError(err).Error("payapp encryption failed")
		}
		return nil, err
	}

	log.Info("payment initiated")
	return &InitiatePaymentResult{
		PaymentURL: s.encrypter.PaymentURL(res),
		TxnID:      txn.TxnID,
	}, nil
}

// PaymentGateway is the full PayApp surface the application uses.
type PaymentGateway interface {
	Encrypter
	Decrypter
}
