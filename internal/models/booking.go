package models

import (
	"time"

	"cab-backend/internal/apperrors"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"    // Ожидает оплаты
	BookingStatusConfirmed  BookingStatus = "confirmed"  // Оплата подтверждена, ждет назначения
	BookingStatusAssigned   BookingStatus = "assigned"   // Водитель назначен
	BookingStatusInProgress BookingStatus = "inProgress" // Поездка началась
	BookingStatusCompleted  BookingStatus = "completed"  // Поездка завершена
	BookingStatusCancelled  BookingStatus = "cancelled"  // Бронирование отменено
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type JourneyType string

const (
	JourneyOneWay    JourneyType = "oneWay"
	JourneyRoundTrip JourneyType = "roundTrip"
)

// Статусы возврата средств
const (
	RefundStatusProcessed = "processed"
	RefundStatusFailed    = "failed"
)

// Booking представляет бронирование междугородней поездки.
// Инвариант: driver_id заполнен тогда и только тогда, когда статус
// assigned, inProgress или completed (completed хранит историческую
// ссылку, хотя водитель уже освобожден).
type Booking struct {
	ID        uint   `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	BookingID string `json:"booking_id" gorm:"column:booking_id;unique;not null;type:varchar(20)"`
	UserID    uint   `json:"user_id" gorm:"column:user_id;not null"`
	DriverID  *uint  `json:"driver_id,omitempty" gorm:"column:driver_id"`

	PickupCityID   *uint       `json:"pickup_city_id,omitempty" gorm:"column:pickup_city_id"`
	DropCityID     *uint       `json:"drop_city_id,omitempty" gorm:"column:drop_city_id"`
	PickupAddress  string      `json:"pickup_address" gorm:"column:pickup_address;default:''"`
	DropAddress    string      `json:"drop_address" gorm:"column:drop_address;default:''"`
	JourneyType    JourneyType `json:"journey_type" gorm:"column:journey_type;default:'oneWay';type:varchar(20)"`
	PickupDate     time.Time   `json:"pickup_date" gorm:"column:pickup_date;not null"`
	PickupTime     string      `json:"pickup_time" gorm:"column:pickup_time;default:'';type:varchar(10)"`
	ReturnDate     *time.Time  `json:"return_date,omitempty" gorm:"column:return_date"`
	DistanceKm     float64     `json:"distance_km" gorm:"column:distance_km;default:0"`
	Duration       string      `json:"duration" gorm:"column:duration;default:''"`
	IsNightJourney bool        `json:"is_night_journey" gorm:"column:is_night_journey;default:false"`

	PassengerName  string `json:"passenger_name" gorm:"column:passenger_name;not null;type:varchar(255)"`
	PassengerEmail string `json:"passenger_email" gorm:"column:passenger_email;not null;type:varchar(255)"`
	PassengerPhone string `json:"passenger_phone" gorm:"column:passenger_phone;not null;type:varchar(20)"`

	CabTypeID *uint `json:"cab_type_id,omitempty" gorm:"column:cab_type_id"`

	BaseAmount      float64 `json:"base_amount" gorm:"column:base_amount;default:0"`
	TaxAmount       float64 `json:"tax_amount" gorm:"column:tax_amount;default:0"`
	TollCharges     float64 `json:"toll_charges" gorm:"column:toll_charges;default:0"`
	DriverAllowance float64 `json:"driver_allowance" gorm:"column:driver_allowance;default:0"`
	NightCharges    float64 `json:"night_charges" gorm:"column:night_charges;default:0"`
	TotalAmount     float64 `json:"total_amount" gorm:"column:total_amount;default:0"`

	Status        BookingStatus `json:"status" gorm:"column:status;type:varchar(20);default:'pending'"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"column:payment_status;type:varchar(20);default:'pending'"`
	PaymentMethod string        `json:"payment_method" gorm:"column:payment_method;default:'';type:varchar(20)"`
	PaymentID     string        `json:"payment_id,omitempty" gorm:"column:payment_id;default:'';type:varchar(100)"`

	AssignedAt  *time.Time `json:"assigned_at,omitempty" gorm:"column:assigned_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" gorm:"column:started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"column:completed_at"`

	UserRatingScore     *int       `json:"user_rating_score,omitempty" gorm:"column:user_rating_score"`
	UserRatingComment   string     `json:"user_rating_comment,omitempty" gorm:"column:user_rating_comment;default:''"`
	UserRatingAt        *time.Time `json:"user_rating_at,omitempty" gorm:"column:user_rating_at"`
	DriverRatingScore   *int       `json:"driver_rating_score,omitempty" gorm:"column:driver_rating_score"`
	DriverRatingComment string     `json:"driver_rating_comment,omitempty" gorm:"column:driver_rating_comment;default:''"`
	DriverRatingAt      *time.Time `json:"driver_rating_at,omitempty" gorm:"column:driver_rating_at"`

	RefundStatus       string     `json:"refund_status,omitempty" gorm:"column:refund_status;default:'';type:varchar(20)"`
	RefundID           string     `json:"refund_id,omitempty" gorm:"column:refund_id;default:'';type:varchar(100)"`
	RefundAmount       float64    `json:"refund_amount,omitempty" gorm:"column:refund_amount;default:0"`
	RefundProcessedAt  *time.Time `json:"refund_processed_at,omitempty" gorm:"column:refund_processed_at"`
	CancellationReason string     `json:"cancellation_reason,omitempty" gorm:"column:cancellation_reason;default:''"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;type:timestamp with time zone"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime;type:timestamp with time zone"`

	User   User    `json:"-" gorm:"foreignKey:UserID"`
	Driver *Driver `json:"-" gorm:"foreignKey:DriverID"`
}

// BookingLookup позволяет искать бронирование либо по внутреннему id,
// либо по человекочитаемому коду. Разбирается один раз на границе API.
type BookingLookup struct {
	ID   uint
	Code string
}

func LookupByID(id uint) BookingLookup {
	return BookingLookup{ID: id}
}

func LookupByCode(code string) BookingLookup {
	return BookingLookup{Code: code}
}

// ByCode сообщает, что поиск идет по человекочитаемому коду
func (l BookingLookup) ByCode() bool {
	return l.Code != ""
}

// IsTerminal сообщает, достигло ли бронирование конечного состояния
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCompleted || b.Status == BookingStatusCancelled
}

// ValidateAmounts проверяет денежные инварианты бронирования
func (b *Booking) ValidateAmounts() *apperrors.Error {
	for _, v := range []float64{b.BaseAmount, b.TaxAmount, b.TollCharges, b.DriverAllowance, b.NightCharges} {
		if v < 0 {
			return apperrors.Validation("Суммы бронирования не могут быть отрицательными")
		}
	}
	sum := b.BaseAmount + b.TaxAmount + b.TollCharges + b.DriverAllowance + b.NightCharges
	if b.TotalAmount != sum {
		return apperrors.Validation("Итоговая сумма не равна сумме составляющих")
	}
	return nil
}

// ConfirmPayment отмечает успешную онлайн-оплату и переводит бронирование
// в confirmed. Повторная верификация того же платежа не меняет состояние,
// возвращается changed=false и вызывающая сторона пропускает side effects.
func (b *Booking) ConfirmPayment(paymentID string) (changed bool) {
	if b.PaymentStatus == PaymentStatusCompleted {
		return false
	}
	b.PaymentStatus = PaymentStatusCompleted
	b.PaymentID = paymentID
	b.Status = BookingStatusConfirmed
	return true
}

// ConfirmCOD подтверждает бронирование с оплатой наличными:
// статус сразу confirmed, оплата остается pending до расчета на месте
func (b *Booking) ConfirmCOD() {
	b.PaymentMethod = "cod"
	b.Status = BookingStatusConfirmed
}

// MarkPaymentFailed отмечает неуспешную оплату, статус поездки не меняется.
// Подтвержденная оплата не понижается: поздний или поддельный колбэк
// не должен портить уже оплаченное бронирование.
func (b *Booking) MarkPaymentFailed() {
	if b.PaymentStatus == PaymentStatusCompleted {
		return
	}
	b.PaymentStatus = PaymentStatusFailed
}

// Assign назначает водителя на подтвержденное бронирование
// и занимает его под эту поездку
func (b *Booking) Assign(d *Driver, now time.Time) *apperrors.Error {
	if b.Status != BookingStatusConfirmed {
		return apperrors.ConflictStatus("Назначить водителя можно только на подтвержденное бронирование", string(b.Status))
	}
	id := d.ID
	b.DriverID = &id
	b.Status = BookingStatusAssigned
	b.AssignedAt = &now
	d.AttachBooking(b.ID)
	return nil
}

// StartTrip переводит бронирование в inProgress.
// Начать поездку может только назначенный водитель.
func (b *Booking) StartTrip(driverID uint, now time.Time) *apperrors.Error {
	if b.DriverID == nil || *b.DriverID != driverID {
		return apperrors.Forbidden("Начать поездку может только назначенный водитель")
	}
	if b.Status != BookingStatusAssigned {
		return apperrors.ConflictStatus("Поездку можно начать только из статуса assigned", string(b.Status))
	}
	b.Status = BookingStatusInProgress
	b.StartedAt = &now
	return nil
}

// CompleteTrip завершает поездку и освобождает водителя.
// Ссылка на водителя в бронировании сохраняется как историческая.
func (b *Booking) CompleteTrip(driverID uint, d *Driver, now time.Time) *apperrors.Error {
	if b.DriverID == nil || *b.DriverID != driverID {
		return apperrors.Forbidden("Завершить поездку может только назначенный водитель")
	}
	if b.Status != BookingStatusInProgress {
		return apperrors.ConflictStatus("Завершить можно только начатую поездку", string(b.Status))
	}
	b.Status = BookingStatusCompleted
	b.CompletedAt = &now
	if d != nil {
		d.Release()
		d.TotalRides++
	}
	return nil
}

// Cancel отменяет бронирование из любого незавершенного состояния.
// Если водитель был назначен и поездка не завершена, он освобождается.
func (b *Booking) Cancel(reason string, d *Driver) *apperrors.Error {
	if b.Status == BookingStatusCompleted {
		return apperrors.ConflictStatus("Завершенную поездку нельзя отменить", string(b.Status))
	}
	if b.Status == BookingStatusCancelled {
		return apperrors.ConflictStatus("Бронирование уже отменено", string(b.Status))
	}
	freedDriver := b.Status == BookingStatusAssigned || b.Status == BookingStatusInProgress
	b.Status = BookingStatusCancelled
	b.CancellationReason = reason
	if freedDriver && d != nil {
		d.Release()
	}
	return nil
}

// ForceStatus принудительно выставляет статус без проверок переходов.
// Админский аварийный механизм: побочные эффекты по водителю не выполняются,
// согласованность остается на вызывающей стороне.
func (b *Booking) ForceStatus(status BookingStatus) {
	b.Status = status
}

// RateByUser сохраняет оценку водителя пассажиром и пересчитывает
// средний рейтинг водителя. Оценка ставится не более одного раза.
func (b *Booking) RateByUser(callerID, driverID uint, score int, comment string, d *Driver, now time.Time) *apperrors.Error {
	if score < 1 || score > 5 {
		return apperrors.Validation("Оценка должна быть от 1 до 5")
	}
	if b.UserID != callerID {
		return apperrors.Forbidden("Оценить поездку может только ее пассажир")
	}
	if b.Status != BookingStatusCompleted {
		return apperrors.ConflictStatus("Оценить можно только завершенную поездку", string(b.Status))
	}
	if b.DriverID == nil || *b.DriverID != driverID {
		return apperrors.Validation("Указанный водитель не назначен на это бронирование")
	}
	if b.UserRatingScore != nil {
		return apperrors.Conflict("Оценка по этому бронированию уже выставлена")
	}
	b.UserRatingScore = &score
	b.UserRatingComment = comment
	b.UserRatingAt = &now
	if d != nil {
		d.ApplyRating(score)
	}
	return nil
}

// RateByDriver сохраняет оценку пассажира водителем, зеркально RateByUser
func (b *Booking) RateByDriver(callerID uint, score int, comment string, now time.Time) *apperrors.Error {
	if score < 1 || score > 5 {
		return apperrors.Validation("Оценка должна быть от 1 до 5")
	}
	if b.DriverID == nil || *b.DriverID != callerID {
		return apperrors.Forbidden("Оценить пассажира может только назначенный водитель")
	}
	if b.Status != BookingStatusCompleted {
		return apperrors.ConflictStatus("Оценить можно только завершенную поездку", string(b.Status))
	}
	if b.DriverRatingScore != nil {
		return apperrors.Conflict("Оценка по этому бронированию уже выставлена")
	}
	b.DriverRatingScore = &score
	b.DriverRatingComment = comment
	b.DriverRatingAt = &now
	return nil
}

// CanRefund проверяет право и возможность возврата средств.
// Порядок проверок фиксирован: доступ, статус, повторный возврат, оплата.
func (b *Booking) CanRefund(callerID uint, role string) *apperrors.Error {
	if role != RoleAdmin && b.UserID != callerID {
		return apperrors.Forbidden("Возврат доступен только владельцу бронирования или администратору")
	}
	switch b.Status {
	case BookingStatusAssigned, BookingStatusInProgress, BookingStatusCompleted:
		return apperrors.ConflictStatus("Возврат невозможен: водитель уже задействован в поездке", string(b.Status))
	}
	if b.RefundStatus == RefundStatusProcessed {
		return apperrors.Conflict("Возврат по этому бронированию уже обработан")
	}
	if b.PaymentStatus != PaymentStatusCompleted {
		return apperrors.Conflict("Оплата не была получена, возвращать нечего")
	}
	return nil
}

// ApplyRefund фиксирует успешный возврат: бронирование отменяется,
// сохраняются реквизиты возврата и причина отмены
func (b *Booking) ApplyRefund(refundID string, amount float64, reason string, now time.Time) {
	b.Status = BookingStatusCancelled
	b.RefundStatus = RefundStatusProcessed
	b.RefundID = refundID
	b.RefundAmount = amount
	b.RefundProcessedAt = &now
	if reason != "" {
		b.CancellationReason = reason
	}
}

// MarkRefundFailed отмечает неуспешный возврат, бронирование не отменяется
func (b *Booking) MarkRefundFailed() {
	b.RefundStatus = RefundStatusFailed
}
