package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cab-backend/internal/apperrors"
	"cab-backend/internal/models"
	"cab-backend/internal/services"
)

func refundableBooking() *models.Booking {
	return &models.Booking{
		ID:            42,
		BookingID:     "CB280826AB12",
		UserID:        7,
		Status:        models.BookingStatusConfirmed,
		PaymentStatus: models.PaymentStatusCompleted,
		PaymentMethod: "online",
		PaymentID:     "pay_123",
		BaseAmount:    1100,
		TotalAmount:   1100,
	}
}

func TestApplyRefundOutcomeGatewayFailure(t *testing.T) {
	b := refundableBooking()

	outcome := applyRefundOutcome(b, nil, errors.New("timeout"), "", time.Now())

	require.NotNil(t, outcome)
	assert.Equal(t, apperrors.KindDependency, outcome.Kind)
	// Отметка о неуспехе остается на бронировании, само оно не отменяется
	assert.Equal(t, models.RefundStatusFailed, b.RefundStatus)
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)
	assert.Empty(t, b.RefundID)
	assert.Nil(t, b.RefundProcessedAt)
}

func TestApplyRefundOutcomeFailureAllowsRetry(t *testing.T) {
	b := refundableBooking()

	require.NotNil(t, applyRefundOutcome(b, nil, errors.New("timeout"), "", time.Now()))
	// После неуспеха возврат можно повторить
	assert.Nil(t, b.CanRefund(b.UserID, models.RoleUser))

	result := &services.RefundResult{RefundID: "rfnd_1", Status: "processed", Amount: 1100}
	require.Nil(t, applyRefundOutcome(b, result, nil, "не смогли подать машину", time.Now()))

	assert.Equal(t, models.BookingStatusCancelled, b.Status)
	assert.Equal(t, models.RefundStatusProcessed, b.RefundStatus)
	assert.Equal(t, "rfnd_1", b.RefundID)
	assert.Equal(t, 1100.0, b.RefundAmount)
}

func TestApplyRefundOutcomeSuccess(t *testing.T) {
	b := refundableBooking()
	result := &services.RefundResult{RefundID: "rfnd_9", Status: "processed", Amount: 1100}

	require.Nil(t, applyRefundOutcome(b, result, nil, "", time.Now()))

	assert.Equal(t, models.BookingStatusCancelled, b.Status)
	assert.Equal(t, models.RefundStatusProcessed, b.RefundStatus)
	require.NotNil(t, b.RefundProcessedAt)
}
