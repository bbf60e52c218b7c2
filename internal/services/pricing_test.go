package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technotronz/symposium/internal/config"
	"github.com/technotronz/symposium/internal/models"
)

func TestEventFee(t *testing.T) {
	p := NewPricing(&config.Config{InstitutionDomain: "@psgtech.ac.in", EventFeeInternal: 150, EventFeeExternal: 200})

	assert.Equal(t, int64(150), p.EventFee("22z201@psgtech.ac.in"))
	assert.Equal(t, int64(150), p.EventFee(" 22Z201@PSGTech.AC.IN "))
	assert.Equal(t, int64(200), p.EventFee("someone@gmail.com"))
	assert.Equal(t, int64(200), p.EventFee("psgtech.ac.in@evil.com"))
	assert.Equal(t, int64(200), p.EventFee(""))
}

func TestWorkshopFee(t *testing.T) {
	fee, err := testPricing.WorkshopFee("W-02")
	require.NoError(t, err)
	assert.Equal(t, int64(750), fee)

	_, err = testPricing.WorkshopFee("W-00")
	assert.ErrorIs(t, err, ErrUnknownWorkshop)

	assert.Equal(t, "20", testPricing.Category(models.PaymentTypeWorkshop))
}
