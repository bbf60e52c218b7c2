package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/technotronz/symposium/internal/models"
)

// PaymentAggregate is what a user has paid for so far.
type PaymentAggregate struct {
	UserID         uuid.UUID `json:"user_id"`
	EventFeePaid   bool      `json:"eventFeePaid"`
	EventFeeAmount int64     `json:"eventFeeAmount"`
	WorkshopsPaid  []string  `json:"workshopsPaid"`
}

// HasWorkshop reports whether the workshop is in the paid set.
func (a *PaymentAggregate) HasWorkshop(workshopID string) bool {
	for _, id := range a.WorkshopsPaid {
		if id == workshopID {
			return true
		}
	}
	return false
}

// PaymentStore persists transactions and per-user payment aggregates.
// Every aggregate write is a field-level upsert, never a document overwrite.
type PaymentStore struct {
	db *gorm.DB
}

// NewPaymentStore constructs a PaymentStore.
func NewPaymentStore(db *gorm.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

// WithTx returns a store bound to an open gorm transaction.
func (s *PaymentStore) WithTx(tx *gorm.DB) *PaymentStore {
	return &PaymentStore{db: tx}
}

// Transaction runs fn inside a database transaction.
func (s *PaymentStore) Transaction(ctx context.Context, fn func(store *PaymentStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.WithTx(tx))
	})
}

// CreateTransaction inserts a new PENDING transaction.
func (s *PaymentStore) CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	if txn.Status == "" {
		txn.Status = models.PaymentStatusPending
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "txn_id"}}, DoNothing: true}).
		Create(txn)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateTransaction
	}
	return nil
}

// FindTransactionByID loads a transaction by its PayApp txn_id.
func (s *PaymentStore) FindTransactionByID(ctx context.Context, txnID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := s.db.WithContext(ctx).Where("txn_id = ?", txnID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// UpdateTransactionStatus moves a transaction from one status to another.
// It reports false when the stored status was no longer from, which makes
// concurrent callers for the same txn_id race safely: exactly one wins.
func (s *PaymentStore) UpdateTransactionStatus(ctx context.Context, txnID, from, to, providerStatus string) (bool, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("txn_id = ? AND status = ?", txnID, from).
		Updates(map[string]any{
			"status":          to,
			"provider_status": providerStatus,
			"settled_at":      &now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindPaymentAggregate returns the user's aggregate, or nil when none exists yet.
func (s *PaymentStore) FindPaymentAggregate(ctx context.Context, userID uuid.UUID) (*PaymentAggregate, error) {
	var row models.UserPayment
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.loadAggregate(ctx, &row)
}

// FindOrCreatePaymentAggregate returns the user's aggregate, creating it with
// the amount from defaultAmount when it does not exist yet.
func (s *PaymentStore) FindOrCreatePaymentAggregate(ctx context.Context, userID uuid.UUID, defaultAmount func() int64) (*PaymentAggregate, error) {
	agg, err := s.FindPaymentAggregate(ctx, userID)
	if err != nil || agg != nil {
		return agg, err
	}

	if err := s.ensureAggregate(ctx, userID, defaultAmount()); err != nil {
		return nil, err
	}

	var row models.UserPayment
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, err
	}
	return s.loadAggregate(ctx, &row)
}

// MarkEventPaid sets the event fee as paid with the given amount.
func (s *PaymentStore) MarkEventPaid(ctx context.Context, userID uuid.UUID, amount int64) error {
	row := models.UserPayment{UserID: userID, EventFeePaid: true, EventFeeAmount: amount}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"event_fee_paid", "event_fee_amount", "updated_at"}),
		}).
		Create(&row).Error
}

// AddWorkshopPaid adds a workshop to the user's paid set. Adding twice is a no-op.
func (s *PaymentStore) AddWorkshopPaid(ctx context.Context, userID uuid.UUID, workshopID string, defaultAmount int64) error {
	if err := s.ensureAggregate(ctx, userID, defaultAmount); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserPaymentWorkshop{UserID: userID, WorkshopID: workshopID}).Error
}

// SetWorkshopFlag writes the user's PAID/NOT_PAID flag for a workshop.
// With overwrite false an existing flag is left untouched.
func (s *PaymentStore) SetWorkshopFlag(ctx context.Context, userID uuid.UUID, workshopID, status string, overwrite bool) error {
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "workshop_id"}},
	}
	if overwrite {
		onConflict.DoUpdates = clause.AssignmentColumns([]string{"payment_status", "updated_at"})
	} else {
		onConflict.DoNothing = true
	}

	return s.db.WithContext(ctx).
		Clauses(onConflict).
		Create(&models.UserWorkshopStatus{UserID: userID, WorkshopID: workshopID, PaymentStatus: status}).Error
}

// ListSuccessfulTransactions returns every SUCCESS transaction, oldest first.
func (s *PaymentStore) ListSuccessfulTransactions(ctx context.Context) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("status = ?", models.PaymentStatusSuccess).
		Order("created_at asc").
		Find(&txns).Error
	return txns, err
}

func (s *PaymentStore) ensureAggregate(ctx context.Context, userID uuid.UUID, amount int64) error {
	row := models.UserPayment{UserID: userID, EventFeeAmount: amount}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&row).Error; err != nil {
		return fmt.Errorf("ensure payment aggregate: %w", err)
	}
	return nil
}

func (s *PaymentStore) loadAggregate(ctx context.Context, row *models.UserPayment) (*PaymentAggregate, error) {
	var paid []string
	if err := s.db.WithContext(ctx).
		Model(&models.UserPaymentWorkshop{}).
		Where("user_id = ?", row.UserID).
		Order("workshop_id asc").
		Pluck("workshop_id", &paid).Error; err != nil {
		return nil, err
	}
	if paid == nil {
		paid = []string{}
	}

	return &PaymentAggregate{
		UserID:         row.UserID,
		EventFeePaid:   row.EventFeePaid,
		EventFeeAmount: row.EventFeeAmount,
		WorkshopsPaid:  paid,
	}, nil
}
