package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cab-backend/internal/apperrors"
)

func newConfirmedBooking() *Booking {
	return &Booking{
		ID:            42,
		BookingID:     "CB280826AB12",
		UserID:        7,
		Status:        BookingStatusConfirmed,
		PaymentStatus: PaymentStatusCompleted,
		PaymentMethod: "online",
		PaymentID:     "pay_123",
		BaseAmount:    1000,
		NightCharges:  100,
		TotalAmount:   1100,
	}
}

func newDriver() *Driver {
	return &Driver{
		ID:          3,
		Name:        "Иван",
		IsApproved:  true,
		IsAvailable: true,
	}
}

func TestValidateAmounts(t *testing.T) {
	b := newConfirmedBooking()
	assert.Nil(t, b.ValidateAmounts())

	b.TotalAmount = 1200
	err := b.ValidateAmounts()
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindValidation, err.Kind)

	b = newConfirmedBooking()
	b.TaxAmount = -1
	err = b.ValidateAmounts()
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindValidation, err.Kind)
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	b := &Booking{Status: BookingStatusPending, PaymentStatus: PaymentStatusPending}

	changed := b.ConfirmPayment("pay_1")
	assert.True(t, changed)
	assert.Equal(t, BookingStatusConfirmed, b.Status)
	assert.Equal(t, PaymentStatusCompleted, b.PaymentStatus)
	assert.Equal(t, "pay_1", b.PaymentID)

	// Повторная верификация того же платежа ничего не меняет
	changed = b.ConfirmPayment("pay_2")
	assert.False(t, changed)
	assert.Equal(t, "pay_1", b.PaymentID)
}

func TestMarkPaymentFailed(t *testing.T) {
	b := &Booking{Status: BookingStatusPending, PaymentStatus: PaymentStatusPending}

	b.MarkPaymentFailed()
	assert.Equal(t, PaymentStatusFailed, b.PaymentStatus)
	// Статус поездки не меняется
	assert.Equal(t, BookingStatusPending, b.Status)

	// После неуспеха оплату можно провести повторно
	changed := b.ConfirmPayment("pay_retry")
	assert.True(t, changed)
	assert.Equal(t, PaymentStatusCompleted, b.PaymentStatus)
}

func TestMarkPaymentFailedDoesNotDowngradeCompleted(t *testing.T) {
	b := &Booking{Status: BookingStatusPending, PaymentStatus: PaymentStatusPending}
	require.True(t, b.ConfirmPayment("pay_1"))

	// Поздний колбэк с плохой подписью не портит оплаченное бронирование
	b.MarkPaymentFailed()
	assert.Equal(t, PaymentStatusCompleted, b.PaymentStatus)
	assert.Equal(t, "pay_1", b.PaymentID)
}

func TestConfirmCODKeepsPaymentPending(t *testing.T) {
	b := &Booking{Status: BookingStatusPending, PaymentStatus: PaymentStatusPending}
	b.ConfirmCOD()

	assert.Equal(t, BookingStatusConfirmed, b.Status)
	assert.Equal(t, PaymentStatusPending, b.PaymentStatus)
	assert.Equal(t, "cod", b.PaymentMethod)
}

func TestAssignCouplesDriver(t *testing.T) {
	b := newConfirmedBooking()
	d := newDriver()
	now := time.Now()

	require.Nil(t, b.Assign(d, now))

	assert.Equal(t, BookingStatusAssigned, b.Status)
	require.NotNil(t, b.DriverID)
	assert.Equal(t, d.ID, *b.DriverID)
	require.NotNil(t, b.AssignedAt)

	assert.False(t, d.IsAvailable)
	require.NotNil(t, d.CurrentBookingID)
	assert.Equal(t, b.ID, *d.CurrentBookingID)
}

func TestAssignRequiresConfirmed(t *testing.T) {
	for _, status := range []BookingStatus{
		BookingStatusPending, BookingStatusAssigned,
		BookingStatusInProgress, BookingStatusCompleted, BookingStatusCancelled,
	} {
		b := newConfirmedBooking()
		b.Status = status
		d := newDriver()

		err := b.Assign(d, time.Now())
		require.NotNil(t, err, "статус %s", status)
		assert.Equal(t, apperrors.KindConflict, err.Kind)
		assert.Equal(t, string(status), err.CurrentStatus)
		// Водитель остается свободным
		assert.True(t, d.IsAvailable)
	}
}

func TestStartTripOnlyFromAssigned(t *testing.T) {
	for _, status := range []BookingStatus{
		BookingStatusPending, BookingStatusConfirmed,
		BookingStatusCompleted, BookingStatusCancelled,
	} {
		b := newConfirmedBooking()
		driverID := uint(3)
		b.DriverID = &driverID
		b.Status = status

		err := b.StartTrip(driverID, time.Now())
		require.NotNil(t, err, "статус %s", status)
		assert.Equal(t, apperrors.KindConflict, err.Kind)
		assert.Equal(t, string(status), err.CurrentStatus)
	}
}

func TestStartTripOnlyByAssignedDriver(t *testing.T) {
	b := newConfirmedBooking()
	driverID := uint(3)
	b.DriverID = &driverID
	b.Status = BookingStatusAssigned

	err := b.StartTrip(99, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindForbidden, err.Kind)

	require.Nil(t, b.StartTrip(driverID, time.Now()))
	assert.Equal(t, BookingStatusInProgress, b.Status)
	require.NotNil(t, b.StartedAt)
}

func TestCompleteTripReleasesDriver(t *testing.T) {
	b := newConfirmedBooking()
	d := newDriver()
	d.TotalRides = 5
	require.Nil(t, b.Assign(d, time.Now()))
	require.Nil(t, b.StartTrip(d.ID, time.Now()))

	require.Nil(t, b.CompleteTrip(d.ID, d, time.Now()))

	assert.Equal(t, BookingStatusCompleted, b.Status)
	require.NotNil(t, b.CompletedAt)
	// Историческая ссылка на водителя сохраняется
	require.NotNil(t, b.DriverID)
	assert.Equal(t, d.ID, *b.DriverID)

	assert.True(t, d.IsAvailable)
	assert.Nil(t, d.CurrentBookingID)
	assert.Equal(t, 6, d.TotalRides)
}

func TestCompleteTripGuards(t *testing.T) {
	b := newConfirmedBooking()
	d := newDriver()
	require.Nil(t, b.Assign(d, time.Now()))

	// Поездка еще не началась
	err := b.CompleteTrip(d.ID, d, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindConflict, err.Kind)

	require.Nil(t, b.StartTrip(d.ID, time.Now()))

	// Чужой водитель
	err = b.CompleteTrip(99, d, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindForbidden, err.Kind)
}

func TestCancelFromEveryNonTerminalStatus(t *testing.T) {
	for _, status := range []BookingStatus{
		BookingStatusPending, BookingStatusConfirmed,
		BookingStatusAssigned, BookingStatusInProgress,
	} {
		b := newConfirmedBooking()
		b.Status = status

		require.Nil(t, b.Cancel("передумал", nil), "статус %s", status)
		assert.Equal(t, BookingStatusCancelled, b.Status)
		assert.Equal(t, "передумал", b.CancellationReason)
	}
}

func TestCancelRejectsTerminalStatuses(t *testing.T) {
	b := newConfirmedBooking()
	b.Status = BookingStatusCompleted
	err := b.Cancel("", nil)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindConflict, err.Kind)
	assert.Equal(t, string(BookingStatusCompleted), err.CurrentStatus)

	b.Status = BookingStatusCancelled
	err = b.Cancel("", nil)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindConflict, err.Kind)
}

func TestCancelFreesDriverOnlyWhenEngaged(t *testing.T) {
	// Назначенный водитель освобождается
	b := newConfirmedBooking()
	d := newDriver()
	require.Nil(t, b.Assign(d, time.Now()))
	require.Nil(t, b.Cancel("", d))
	assert.True(t, d.IsAvailable)
	assert.Nil(t, d.CurrentBookingID)

	// При отмене до назначения водитель не трогается
	b2 := newConfirmedBooking()
	d2 := newDriver()
	d2.AttachBooking(777) // занят другой поездкой
	require.Nil(t, b2.Cancel("", d2))
	assert.False(t, d2.IsAvailable)
	require.NotNil(t, d2.CurrentBookingID)
	assert.Equal(t, uint(777), *d2.CurrentBookingID)
}

func TestForceStatusSkipsGuards(t *testing.T) {
	b := newConfirmedBooking()
	b.Status = BookingStatusCompleted

	b.ForceStatus(BookingStatusPending)
	assert.Equal(t, BookingStatusPending, b.Status)
}

func completedBookingWithDriver() (*Booking, *Driver) {
	b := newConfirmedBooking()
	d := newDriver()
	b.Assign(d, time.Now())
	b.StartTrip(d.ID, time.Now())
	b.CompleteTrip(d.ID, d, time.Now())
	return b, d
}

func TestRateByUser(t *testing.T) {
	b, d := completedBookingWithDriver()
	d.Ratings = 4.0
	d.TotalRides = 10

	require.Nil(t, b.RateByUser(b.UserID, d.ID, 5, "отлично", d, time.Now()))

	require.NotNil(t, b.UserRatingScore)
	assert.Equal(t, 5, *b.UserRatingScore)
	assert.Equal(t, "отлично", b.UserRatingComment)
	require.NotNil(t, b.UserRatingAt)
	// (4.0*10 + 5) / 11
	assert.InDelta(t, 45.0/11.0, d.Ratings, 1e-9)
	assert.Equal(t, 11, d.TotalRides)
}

func TestRateByUserGuardOrder(t *testing.T) {
	b, d := completedBookingWithDriver()

	// Оценка вне диапазона проверяется первой
	err := b.RateByUser(999, d.ID, 6, "", d, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindValidation, err.Kind)

	// Чужой пассажир
	err = b.RateByUser(999, d.ID, 5, "", d, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindForbidden, err.Kind)

	// Незавершенная поездка
	b2 := newConfirmedBooking()
	d2 := newDriver()
	b2.Assign(d2, time.Now())
	err = b2.RateByUser(b2.UserID, d2.ID, 5, "", d2, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindConflict, err.Kind)

	// Чужой водитель
	err = b.RateByUser(b.UserID, 99, 5, "", d, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindValidation, err.Kind)
}

func TestRateByUserOnlyOnce(t *testing.T) {
	b, d := completedBookingWithDriver()
	ridesBefore := d.TotalRides

	require.Nil(t, b.RateByUser(b.UserID, d.ID, 4, "", d, time.Now()))
	err := b.RateByUser(b.UserID, d.ID, 5, "", d, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindConflict, err.Kind)

	// Повторная попытка не искажает рейтинг
	assert.Equal(t, ridesBefore+1, d.TotalRides)
	require.NotNil(t, b.UserRatingScore)
	assert.Equal(t, 4, *b.UserRatingScore)
}

func TestRateByDriver(t *testing.T) {
	b, d := completedBookingWithDriver()

	require.Nil(t, b.RateByDriver(d.ID, 4, "вежливый пассажир", time.Now()))
	require.NotNil(t, b.DriverRatingScore)
	assert.Equal(t, 4, *b.DriverRatingScore)

	err := b.RateByDriver(d.ID, 5, "", time.Now())
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindConflict, err.Kind)
}

func TestRateByDriverGuards(t *testing.T) {
	b, d := completedBookingWithDriver()

	err := b.RateByDriver(99, 5, "", time.Now())
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindForbidden, err.Kind)

	b2 := newConfirmedBooking()
	d2 := newDriver()
	b2.Assign(d2, time.Now())
	err = b2.RateByDriver(d2.ID, 5, "", time.Now())
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindConflict, err.Kind)

	err = b.RateByDriver(d.ID, 0, "", time.Now())
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindValidation, err.Kind)
}

func TestCanRefundGuardOrder(t *testing.T) {
	// Чужой вызывающий
	b := newConfirmedBooking()
	err := b.CanRefund(999, RoleUser)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindForbidden, err.Kind)

	// Водитель уже задействован
	for _, status := range []BookingStatus{
		BookingStatusAssigned, BookingStatusInProgress, BookingStatusCompleted,
	} {
		b := newConfirmedBooking()
		b.Status = status
		err := b.CanRefund(b.UserID, RoleUser)
		require.NotNil(t, err, "статус %s", status)
		assert.Equal(t, apperrors.KindConflict, err.Kind)
		assert.Equal(t, string(status), err.CurrentStatus)
	}

	// Повторный возврат
	b = newConfirmedBooking()
	b.RefundStatus = RefundStatusProcessed
	err = b.CanRefund(b.UserID, RoleUser)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindConflict, err.Kind)

	// Оплата не получена (в том числе наличные)
	b = newConfirmedBooking()
	b.PaymentStatus = PaymentStatusPending
	b.PaymentMethod = "cod"
	err = b.CanRefund(b.UserID, RoleUser)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindConflict, err.Kind)
}

func TestCanRefundAllowed(t *testing.T) {
	// Владелец, оплаченное подтвержденное бронирование
	b := newConfirmedBooking()
	assert.Nil(t, b.CanRefund(b.UserID, RoleUser))

	// Администратор может инициировать возврат по любому бронированию
	assert.Nil(t, b.CanRefund(0, RoleAdmin))

	// Отмененное, но оплаченное тоже возвращается
	b.Status = BookingStatusCancelled
	assert.Nil(t, b.CanRefund(b.UserID, RoleUser))
}

func TestApplyRefundCancelsBooking(t *testing.T) {
	b := newConfirmedBooking()
	now := time.Now()

	b.ApplyRefund("rfnd_1", 1100, "не смогли подать машину", now)

	assert.Equal(t, BookingStatusCancelled, b.Status)
	assert.Equal(t, RefundStatusProcessed, b.RefundStatus)
	assert.Equal(t, "rfnd_1", b.RefundID)
	assert.Equal(t, 1100.0, b.RefundAmount)
	require.NotNil(t, b.RefundProcessedAt)
	assert.Equal(t, "не смогли подать машину", b.CancellationReason)
}

func TestMarkRefundFailedKeepsBookingAlive(t *testing.T) {
	b := newConfirmedBooking()
	b.MarkRefundFailed()

	assert.Equal(t, RefundStatusFailed, b.RefundStatus)
	assert.Equal(t, BookingStatusConfirmed, b.Status)
	// Неуспешный возврат можно повторить
	assert.Nil(t, b.CanRefund(b.UserID, RoleUser))
}

func TestIsTerminal(t *testing.T) {
	b := &Booking{Status: BookingStatusCompleted}
	assert.True(t, b.IsTerminal())
	b.Status = BookingStatusCancelled
	assert.True(t, b.IsTerminal())
	b.Status = BookingStatusInProgress
	assert.False(t, b.IsTerminal())
}

func TestBookingLookup(t *testing.T) {
	byID := LookupByID(5)
	assert.False(t, byID.ByCode())
	assert.Equal(t, uint(5), byID.ID)

	byCode := LookupByCode("CB280826AB12")
	assert.True(t, byCode.ByCode())
}
