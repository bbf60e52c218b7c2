package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technotronz/symposium/internal/models"
	"github.com/technotronz/symposium/internal/testutil"
)

type fakeEncrypter struct {
	requests []EncryptRequest
	result   *EncryptResult
	err      error
}

func (f *fakeEncrypter) Encrypt(_ context.Context, req EncryptRequest) (*EncryptResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeEncrypter) PaymentURL(res *EncryptResult) string {
	if res.RedirectURL != "" {
		return res.RedirectURL
	}
	return "https://pay.example/Pay?data=" + res.Encrypted
}

type memoryCache struct {
	entries map[uuid.UUID]*PaymentAggregate
}

func (c *memoryCache) Get(_ context.Context, userID uuid.UUID) (*PaymentAggregate, bool) {
	agg, ok := c.entries[userID]
	return agg, ok
}

func (c *memoryCache) Set(_ context.Context, agg *PaymentAggregate) {
	c.entries[agg.UserID] = agg
}

func (c *memoryCache) Invalidate(_ context.Context, userID uuid.UUID) {
	delete(c.entries, userID)
}

type paymentFixture struct {
	service   *PaymentService
	store     *PaymentStore
	encrypter *fakeEncrypter
	cache     *memoryCache
	user      *models.User
}

func newPaymentFixture(t *testing.T, email string) *paymentFixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &paymentFixture{
		store:     NewPaymentStore(db),
		encrypter: &fakeEncrypter{result: &EncryptResult{Encrypted: "cipher"}},
		cache:     &memoryCache{entries: map[uuid.UUID]*PaymentAggregate{}},
		user:      testutil.CreateUser(t, db, email),
	}
	f.service = NewPaymentService(f.encrypter, f.store, NewUserStore(db), testPricing, f.cache, "https://technotronz.in", "1")
	return f
}

func TestInitiateEventPayment(t *testing.T) {
	f := newPaymentFixture(t, "student@PSGTECH.ac.in")
	ctx := context.Background()

	res, err := f.service.Initiate(ctx, f.user.ID, InitiatePaymentRequest{Type: models.PaymentTypeEvent})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/Pay?data=cipher", res.PaymentURL)
	assert.True(t, strings.HasPrefix(res.TxnID, "TXN"))

	require.Len(t, f.encrypter.requests, 1)
	req := f.encrypter.requests[0]
	assert.Equal(t, int64(150), req.Amount)
	assert.Equal(t, res.TxnID, req.TxnID)
	assert.Equal(t, "20", req.Category)
	assert.Equal(t, "https://technotronz.in/api/payment/verify", req.ReturnURL)

	txn, err := f.store.FindTransactionByID(ctx, res.TxnID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, txn.Status)
	assert.Equal(t, int64(150), txn.Amount)
	assert.Equal(t, req.RegID, txn.RegID)
}

func TestInitiateWorkshopPayment(t *testing.T) {
	f := newPaymentFixture(t, "guest@example.com")
	f.encrypter.result = &EncryptResult{RedirectURL: "https://pay.example/redirect"}

	res, err := f.service.Initiate(context.Background(), f.user.ID, InitiatePaymentRequest{Type: models.PaymentTypeWorkshop, WorkshopID: "W-03"})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/redirect", res.PaymentURL)

	txn, err := f.store.FindTransactionByID(context.Background(), res.TxnID)
	require.NoError(t, err)
	require.NotNil(t, txn.WorkshopID)
	assert.Equal(t, "W-03", *txn.WorkshopID)
	assert.Equal(t, int64(1000), txn.Amount)
}

func TestInitiateRejectsPaidPurposes(t *testing.T) {
	f := newPaymentFixture(t, "guest@example.com")
	ctx := context.Background()
	require.NoError(t, f.store.MarkEventPaid(ctx, f.user.ID, 200))
	require.NoError(t, f.store.AddWorkshopPaid(ctx, f.user.ID, "W-01", 200))

	_, err := f.service.Initiate(ctx, f.user.ID, InitiatePaymentRequest{Type: models.PaymentTypeEvent})
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	_, err = f.service.Initiate(ctx, f.user.ID, InitiatePaymentRequest{Type: models.PaymentTypeWorkshop, WorkshopID: "W-01"})
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	_, err = f.service.Initiate(ctx, f.user.ID, InitiatePaymentRequest{Type: models.PaymentTypeWorkshop, WorkshopID: "W-42"})
	assert.ErrorIs(t, err, ErrUnknownWorkshop)

	_, err = f.service.Initiate(ctx, f.user.ID, InitiatePaymentRequest{Type: "MERCH"})
	assert.ErrorIs(t, err, ErrInvalidPayment)

	assert.Empty(t, f.encrypter.requests)
}

func TestInitiateMarksTransactionFailedOnAdapterError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "duplicate", err: ErrDuplicateTransaction},
		{name: "adapter", err: &AdapterError{Op: "encrypt", Err: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t, "guest@example.com")
			f.encrypter.err = tt.err
			ctx := context.Background()

			_, err := f.service.Initiate(ctx, f.user.ID, InitiatePaymentRequest{Type: models.PaymentTypeEvent})
			assert.ErrorIs(t, err, tt.err)

			require.Len(t, f.encrypter.requests, 1)
			txn, err := f.store.FindTransactionByID(ctx, f.encrypter.requests[0].TxnID)
			require.NoError(t, err)
			assert.Equal(t, models.PaymentStatusFailed, txn.Status)
		})
	}
}

func TestStatusCreatesDefaultAndCaches(t *testing.T) {
	f := newPaymentFixture(t, "student@psgtech.ac.in")
	ctx := context.Background()

	agg, err := f.service.Status(ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, agg.EventFeePaid)
	assert.Equal(t, int64(150), agg.EventFeeAmount)
	assert.Equal(t, []string{}, agg.WorkshopsPaid)
	assert.Contains(t, f.cache.entries, f.user.ID)

	// Cached reads do not see writes until invalidated.
	require.NoError(t, f.store.MarkEventPaid(ctx, f.user.ID, 150))
	agg, err = f.service.Status(ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, agg.EventFeePaid)

	f.cache.Invalidate(ctx, f.user.ID)
	agg, err = f.service.Status(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, agg.EventFeePaid)
}

func TestStatusUnknownUser(t *testing.T) {
	f := newPaymentFixture(t, "guest@example.com")
	_, err := f.service.Status(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
