package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/technotronz/symposium/internal/metrics"
	"github.com/technotronz/symposium/internal/models"
)

// Failure reason codes carried on the failure redirect.
const (
	ReasonNoData          = "no_data"
	ReasonInvalidResponse = "invalid_response"
	ReasonParseError      = "parse_error"
	ReasonTxnNotFound     = "txn_not_found"
	ReasonError           = "error"
)

const (
	notifyTimeout = 10 * time.Second
	// A status read that raced the settlement may re-cache the old aggregate
	// after the first invalidation; the second one clears it.
	defaultReinvalidateAfter = 2 * time.Second
)

// errSettlementLost rolls back a settlement whose conditional update found
// the transaction no longer PENDING.
var errSettlementLost = errors.New("transaction already settled")

// Decrypter turns an encrypted callback payload into a payment result.
type Decrypter interface {
	Decrypt(ctx context.Context, encrypted string) (*DecryptedPayment, error)
}

// VerificationResult says where the callback should redirect.
// Success results carry TxnID; failures carry Reason, TxnID or both.
type VerificationResult struct {
	Success bool
	Reason  string
	TxnID   string
}

func failed(reason string) VerificationResult {
	return VerificationResult{Reason: reason}
}

// ReasonFor maps an error to its failure reason code.
func ReasonFor(err error) string {
	var decErr *DecryptionError
	switch {
	case errors.Is(err, ErrNoData):
		return ReasonNoData
	case errors.Is(err, ErrTransactionNotFound):
		return ReasonTxnNotFound
	case errors.As(err, &decErr):
		return ReasonInvalidResponse
	default:
		return ReasonError
	}
}

// VerificationService settles transactions from PayApp callbacks.
type VerificationService struct {
	decrypter Decrypter
	payments  *PaymentStore
	users     *UserStore
	pricing   Pricing
	cache     PaymentStatusCache
	notifier  PaymentNotifier

	reinvalidateAfter time.Duration
}

// NewVerificationService wires the verification flow. cache and notifier may be nil.
func NewVerificationService(decrypter Decrypter, payments *PaymentStore, users *UserStore, pricing Pricing, cache PaymentStatusCache, notifier PaymentNotifier) *VerificationService {
	if cache == nil {
		cache = NoopStatusCache{}
	}
	return &VerificationService{
		decrypter: decrypter,
		payments:  payments,
		users:     users,
		pricing:   pricing,
		cache:     cache,
		notifier:  notifier,

		reinvalidateAfter: defaultReinvalidateAfter,
	}
}

// Verify decrypts a callback payload and applies it to its transaction at most once.
// It never returns an error and never panics: every failure becomes a reason code.
func (s *VerificationService) Verify(ctx context.Context, encrypted string) (result VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Error("payment verification panicked")
			result = failed(ReasonError)
		}
		metrics.ObserveVerification(outcomeLabel(result))
	}()

	if strings.TrimSpace(encrypted) == "" {
		return failed(ReasonNoData)
	}

	payment, err := s.decrypter.Decrypt(ctx, encrypted)
	if err != nil {
		logrus.WithError(err).Warn("payment verification: decrypt failed")
		return failed(ReasonFor(err))
	}
	if payment == nil || payment.TxnID == "" {
		logrus.Warn("payment verification: decrypted payload has no txn_id")
		return failed(ReasonInvalidResponse)
	}

	log := logrus.WithFields(logrus.Fields{
		"txn_id":     payment.TxnID,
		"txn_status": payment.TxnStatus,
	})

	txn, err := s.payments.FindTransactionByID(ctx, payment.TxnID)
	if err != nil {
		log.WithError(err).Warn("payment verification: lookup failed")
		return failed(ReasonFor(err))
	}
	if payment.RegID != "" && txn.RegID != "" && payment.RegID != txn.RegID {
		log.WithField("stored_reg_id", txn.RegID).Warn("payment verification: reg_id differs from stored transaction")
	}

	if txn.IsTerminal() {
		log.WithField("status", txn.Status).Info("payment verification: transaction already settled")
		return resultFor(txn)
	}

	if payment.Succeeded() {
		err = s.settleSuccess(ctx, txn, payment.TxnStatus)
	} else {
		err = s.settleFailure(ctx, txn, payment.TxnStatus)
	}

	if errors.Is(err, errSettlementLost) {
		stored, findErr := s.payments.FindTransactionByID(ctx, txn.TxnID)
		if findErr != nil || !stored.IsTerminal() {
			return failed(ReasonError)
		}
		log.WithField("status", stored.Status).Info("payment verification: settled concurrently")
		return resultFor(stored)
	}
	if err != nil {
		log.WithError(err).Error("payment verification: settlement failed")
		return failed(ReasonError)
	}

	log.WithField("status", txn.Status).Info("payment verification: transaction settled")
	return resultFor(txn)
}

func (s *VerificationService) settleSuccess(ctx context.Context, txn *models.PaymentTransaction, providerStatus string) error {
	user, err := s.users.FindUser(ctx, txn.UserID)
	if err != nil {
		return fmt.Errorf("load transaction owner: %w", err)
	}
	defaultFee := s.pricing.EventFee(user.Email)

	err = s.payments.Transaction(ctx, func(store *PaymentStore) error {
		applied, err := store.UpdateTransactionStatus(ctx, txn.TxnID, models.PaymentStatusPending, models.PaymentStatusSuccess, providerStatus)
		if err != nil {
			return err
		}
		if !applied {
			return errSettlementLost
		}

		switch txn.Type {
		case models.PaymentTypeEvent:
			return store.MarkEventPaid(ctx, txn.UserID, txn.Amount)
		case models.PaymentTypeWorkshop:
			if txn.WorkshopID == nil || *txn.WorkshopID == "" {
				return fmt.Errorf("workshop transaction %s has no workshop id", txn.TxnID)
			}
			if err := store.AddWorkshopPaid(ctx, txn.UserID, *txn.WorkshopID, defaultFee); err != nil {
				return err
			}
			return store.SetWorkshopFlag(ctx, txn.UserID, *txn.WorkshopID, models.WorkshopPaid, true)
		default:
			return fmt.Errorf("unknown payment type %q", txn.Type)
		}
	})
	if err != nil {
		return err
	}

	txn.Status = models.PaymentStatusSuccess
	s.invalidateStatus(txn.UserID)
	s.notify(txn, user)
	return nil
}

// invalidateStatus drops the cached aggregate now and once more after
// reinvalidateAfter.
func (s *VerificationService) invalidateStatus(userID uuid.UUID) {
	s.cache.Invalidate(context.Background(), userID)
	time.AfterFunc(s.reinvalidateAfter, func() {
		s.cache.Invalidate(context.Background(), userID)
	})
}

func (s *VerificationService) settleFailure(ctx context.Context, txn *models.PaymentTransaction, providerStatus string) error {
	applied, err := s.payments.UpdateTransactionStatus(ctx, txn.TxnID, models.PaymentStatusPending, models.PaymentStatusFailed, providerStatus)
	if err != nil {
		return err
	}
	if !applied {
		return errSettlementLost
	}
	txn.Status = models.PaymentStatusFailed
	return nil
}

func (s *VerificationService) notify(txn *models.PaymentTransaction, user *models.User) {
	if s.notifier == nil {
		return
	}

	n := PaymentSuccessNotification{
		TxnID:       txn.TxnID,
		Type:        txn.Type,
		Amount:      txn.Amount,
		Participant: user.Name,
		TzID:        user.TzID,
		Email:       user.Email,
	}
	if txn.WorkshopID != nil {
		n.WorkshopID = *txn.WorkshopID
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyPaymentSuccess(ctx, n); err != nil {
			logrus.WithError(err).WithField("txn_id", n.TxnID).Warn("payment notification failed")
		}
	}()
}

func resultFor(txn *models.PaymentTransaction) VerificationResult {
	if txn.Status == models.PaymentStatusSuccess {
		return VerificationResult{Success: true, TxnID: txn.TxnID}
	}
	return VerificationResult{TxnID: txn.TxnID}
}

func outcomeLabel(r VerificationResult) string {
	switch {
	case r.Success:
		return "success"
	case r.Reason != "":
		return r.Reason
	default:
		return "failed"
	}
}
