package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/technotronz/symposium/internal/models"
)

// ReconcileReport counts what a reconciliation pass found out of step.
type ReconcileReport struct {
	Transactions  int `json:"transactions"`
	EventFixes    int `json:"event_fixes"`
	WorkshopFixes int `json:"workshop_fixes"`
	FlagFixes     int `json:"flag_fixes"`
	SkippedUsers  int `json:"skipped_users"`
}

func (r *ReconcileReport) fixes() int {
	return r.EventFixes + r.WorkshopFixes + r.FlagFixes
}

// Reconciler re-derives payment aggregates and workshop flags from SUCCESS
// transactions. It only adds what is missing and never revokes a payment.
type Reconciler struct {
	payments *PaymentStore
	users    *UserStore
	pricing  Pricing
	cache    PaymentStatusCache
}

// NewReconciler constructs a Reconciler. Cached payment status of every
// repaired user is dropped; cache may be nil.
func NewReconciler(payments *PaymentStore, users *UserStore, pricing Pricing, cache PaymentStatusCache) *Reconciler {
	if cache == nil {
		cache = NoopStatusCache{}
	}
	return &Reconciler{payments: payments, users: users, pricing: pricing, cache: cache}
}

// Run walks every SUCCESS transaction. With dryRun nothing is written.
func (r *Reconciler) Run(ctx context.Context, dryRun bool) (*ReconcileReport, error) {
	txns, err := r.payments.ListSuccessfulTransactions(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Transactions: len(txns)}
	skipped := make(map[uuid.UUID]bool)

	for i := range txns {
		txn := &txns[i]
		if skipped[txn.UserID] {
			continue
		}

		user, err := r.users.FindUser(ctx, txn.UserID)
		if errors.Is(err, ErrUserNotFound) {
			logrus.WithFields(logrus.Fields{"txn_id": txn.TxnID, "user_id": txn.UserID}).Warn("reconcile: transaction owner missing")
			skipped[txn.UserID] = true
			report.SkippedUsers++
			continue
		}
		if err != nil {
			return nil, err
		}

		fixes := report.fixes()
		if err := r.reconcileTxn(ctx, txn, user, report, dryRun); err != nil {
			return nil, err
		}
		if !dryRun && report.fixes() != fixes {
			r.cache.Invalidate(ctx, txn.UserID)
		}
	}

	return report, nil
}

func (r *Reconciler) reconcileTxn(ctx context.Context, txn *models.PaymentTransaction, user *models.User, report *ReconcileReport, dryRun bool) error {
	agg, err := r.payments.FindPaymentAggregate(ctx, txn.UserID)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"txn_id": txn.TxnID, "user_id": txn.UserID, "dry_run": dryRun})

	switch txn.Type {
	case models.PaymentTypeEvent:
		if agg != nil && agg.EventFeePaid {
			return nil
		}
		report.EventFixes++
		log.Info("reconcile: marking event fee paid")
		if dryRun {
			return nil
		}
		return r.payments.MarkEventPaid(ctx, txn.UserID, txn.Amount)

	case models.PaymentTypeWorkshop:
		if txn.WorkshopID == nil || *txn.WorkshopID == "" {
			log.Warn("reconcile: workshop transaction without workshop id")
			return nil
		}
		workshopID := *txn.WorkshopID

		if agg == nil || !agg.HasWorkshop(workshopID) {
			report.WorkshopFixes++
			log.WithField("workshop_id", workshopID).Info("reconcile: adding paid workshop")
			if !dryRun {
				if err := r.payments.AddWorkshopPaid(ctx, txn.UserID, workshopID, r.pricing.EventFee(user.Email)); err != nil {
					return err
				}
			}
		}

		flags, err := r.users.WorkshopFlags(ctx, txn.UserID)
		if err != nil {
			return err
		}
		if flags[workshopID] == models.WorkshopPaid {
			return nil
		}
		report.FlagFixes++
		log.WithField("workshop_id", workshopID).Info("reconcile: setting workshop flag to PAID")
		if dryRun {
			return nil
		}
		return r.payments.SetWorkshopFlag(ctx, txn.UserID, workshopID, models.WorkshopPaid, true)
	}
	return nil
}
