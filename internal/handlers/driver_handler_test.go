package handlers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cab-backend/internal/apperrors"
	"cab-backend/internal/models"
)

func TestStaleDriverLinkMissingBooking(t *testing.T) {
	stale, err := staleDriverLink(nil, apperrors.NotFound("Бронирование не найдено"))
	require.Nil(t, err)
	assert.True(t, stale)
}

func TestStaleDriverLinkTerminalBooking(t *testing.T) {
	for _, status := range []models.BookingStatus{
		models.BookingStatusCompleted, models.BookingStatusCancelled,
	} {
		b := &models.Booking{Status: status}
		stale, err := staleDriverLink(b, nil)
		require.Nil(t, err, "статус %s", status)
		assert.True(t, stale, "статус %s", status)
	}
}

func TestStaleDriverLinkActiveBooking(t *testing.T) {
	for _, status := range []models.BookingStatus{
		models.BookingStatusConfirmed, models.BookingStatusAssigned,
		models.BookingStatusInProgress,
	} {
		b := &models.Booking{Status: status}
		stale, err := staleDriverLink(b, nil)
		require.Nil(t, err, "статус %s", status)
		assert.False(t, stale, "статус %s", status)
	}
}

func TestStaleDriverLinkTransientErrorIsNotStale(t *testing.T) {
	// Временная ошибка БД не повод освобождать водителя
	dep := apperrors.Dependency("Ошибка при получении бронирования", errors.New("connection refused"))

	stale, err := staleDriverLink(nil, dep)
	assert.False(t, stale)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindDependency, err.Kind)
}
