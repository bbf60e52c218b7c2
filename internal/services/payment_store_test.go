package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technotronz/symposium/internal/models"
	"github.com/technotronz/symposium/internal/testutil"
)

func TestCreateTransactionRejectsDuplicateID(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewPaymentStore(db)
	user := testutil.CreateUser(t, db, "dup@example.com")
	ctx := context.Background()

	txn := &models.PaymentTransaction{TxnID: "TXN001", Type: models.PaymentTypeEvent, UserID: user.ID, Amount: 200}
	require.NoError(t, store.CreateTransaction(ctx, txn))
	assert.Equal(t, models.PaymentStatusPending, txn.Status)

	again := &models.PaymentTransaction{TxnID: "TXN001", Type: models.PaymentTypeEvent, UserID: user.ID, Amount: 150}
	assert.ErrorIs(t, store.CreateTransaction(ctx, again), ErrDuplicateTransaction)

	stored, err := store.FindTransactionByID(ctx, "TXN001")
	require.NoError(t, err)
	assert.Equal(t, int64(200), stored.Amount)
}

func TestFindTransactionByIDNotFound(t *testing.T) {
	store := NewPaymentStore(testutil.NewDB(t))
	_, err := store.FindTransactionByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestUpdateTransactionStatusIsConditional(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewPaymentStore(db)
	user := testutil.CreateUser(t, db, "cas@example.com")
	ctx := context.Background()
	require.NoError(t, store.CreateTransaction(ctx, &models.PaymentTransaction{TxnID: "TXN001", Type: models.PaymentTypeEvent, UserID: user.ID}))

	applied, err := store.UpdateTransactionStatus(ctx, "TXN001", models.PaymentStatusPending, models.PaymentStatusSuccess, "1")
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = store.UpdateTransactionStatus(ctx, "TXN001", models.PaymentStatusPending, models.PaymentStatusFailed, "0")
	require.NoError(t, err)
	assert.False(t, applied)

	txn, err := store.FindTransactionByID(ctx, "TXN001")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, txn.Status)
	assert.Equal(t, "1", txn.ProviderStatus)
	assert.NotNil(t, txn.SettledAt)
}

func TestFindOrCreatePaymentAggregate(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewPaymentStore(db)
	user := testutil.CreateUser(t, db, "agg@example.com")
	ctx := context.Background()

	agg, err := store.FindPaymentAggregate(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, agg)

	calls := 0
	fee := func() int64 { calls++; return 150 }

	agg, err = store.FindOrCreatePaymentAggregate(ctx, user.ID, fee)
	require.NoError(t, err)
	assert.Equal(t, &PaymentAggregate{UserID: user.ID, EventFeeAmount: 150, WorkshopsPaid: []string{}}, agg)

	require.NoError(t, store.MarkEventPaid(ctx, user.ID, 200))
	agg, err = store.FindOrCreatePaymentAggregate(ctx, user.ID, func() int64 { return 999 })
	require.NoError(t, err)
	assert.True(t, agg.EventFeePaid)
	assert.Equal(t, int64(200), agg.EventFeeAmount)
	assert.Equal(t, 1, calls)
}

func TestAggregateFieldUpdatesDoNotClobber(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewPaymentStore(db)
	user := testutil.CreateUser(t, db, "fields@example.com")
	ctx := context.Background()

	require.NoError(t, store.AddWorkshopPaid(ctx, user.ID, "W-02", 200))
	require.NoError(t, store.AddWorkshopPaid(ctx, user.ID, "W-01", 200))
	require.NoError(t, store.AddWorkshopPaid(ctx, user.ID, "W-02", 200))
	require.NoError(t, store.MarkEventPaid(ctx, user.ID, 200))

	agg, err := store.FindPaymentAggregate(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, agg.EventFeePaid)
	assert.Equal(t, []string{"W-01", "W-02"}, agg.WorkshopsPaid)
	assert.True(t, agg.HasWorkshop("W-01"))
	assert.False(t, agg.HasWorkshop("W-03"))
}

func TestSetWorkshopFlag(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewPaymentStore(db)
	users := NewUserStore(db)
	user := testutil.CreateUser(t, db, "flags@example.com")
	ctx := context.Background()

	require.NoError(t, store.SetWorkshopFlag(ctx, user.ID, "W-01", models.WorkshopPaid, true))
	require.NoError(t, store.SetWorkshopFlag(ctx, user.ID, "W-01", models.WorkshopNotPaid, false))

	flags, err := users.WorkshopFlags(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"W-01": models.WorkshopPaid}, flags)
}

func TestTransactionRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewPaymentStore(db)
	user := testutil.CreateUser(t, db, "rollback@example.com")
	ctx := context.Background()
	require.NoError(t, store.CreateTransaction(ctx, &models.PaymentTransaction{TxnID: "TXN001", Type: models.PaymentTypeEvent, UserID: user.ID}))

	err := store.Transaction(ctx, func(tx *PaymentStore) error {
		if _, err := tx.UpdateTransactionStatus(ctx, "TXN001", models.PaymentStatusPending, models.PaymentStatusSuccess, "1"); err != nil {
			return err
		}
		return errSettlementLost
	})
	assert.ErrorIs(t, err, errSettlementLost)

	txn, err := store.FindTransactionByID(ctx, "TXN001")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, txn.Status)
}
