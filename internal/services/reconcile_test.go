package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technotronz/symposium/internal/models"
	"github.com/technotronz/symposium/internal/testutil"
)

func TestReconcileRestoresAggregates(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewPaymentStore(db)
	users := NewUserStore(db)
	user := testutil.CreateUser(t, db, "recon@example.com")
	ctx := context.Background()

	workshop := "W-01"
	for _, txn := range []*models.PaymentTransaction{
		{TxnID: "TXNE", Type: models.PaymentTypeEvent, UserID: user.ID, Amount: 200, Status: models.PaymentStatusSuccess},
		{TxnID: "TXNW", Type: models.PaymentTypeWorkshop, WorkshopID: &workshop, UserID: user.ID, Amount: 500, Status: models.PaymentStatusSuccess},
		{TxnID: "TXNF", Type: models.PaymentTypeEvent, UserID: user.ID, Amount: 200, Status: models.PaymentStatusFailed},
	} {
		require.NoError(t, store.CreateTransaction(ctx, txn))
	}

	cache := &recordingCache{}
	reconciler := NewReconciler(store, users, testPricing, cache)

	report, err := reconciler.Run(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, &ReconcileReport{Transactions: 2, EventFixes: 1, WorkshopFixes: 1, FlagFixes: 1}, report)
	agg, err := store.FindPaymentAggregate(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, agg, "dry run writes nothing")
	assert.Zero(t, cache.count())

	report, err = reconciler.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.EventFixes)
	assert.Equal(t, []uuid.UUID{user.ID, user.ID}, cache.invalidated)

	agg, err = store.FindPaymentAggregate(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, agg.EventFeePaid)
	assert.Equal(t, int64(200), agg.EventFeeAmount)
	assert.Equal(t, []string{"W-01"}, agg.WorkshopsPaid)

	flags, err := users.WorkshopFlags(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkshopPaid, flags["W-01"])

	report, err = reconciler.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, &ReconcileReport{Transactions: 2}, report)
	assert.Equal(t, 2, cache.count(), "nothing repaired, nothing invalidated")
}
