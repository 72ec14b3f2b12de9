package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cab-backend/internal/apperrors"
	"cab-backend/internal/models"
	"cab-backend/internal/services"
	"cab-backend/internal/websocket"
)

// PaymentCreateOrder создает заказ в платежном шлюзе для бронирования
func PaymentCreateOrder(db *gorm.DB, gateway services.PaymentGateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BookingID string `json:"bookingId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		lookup, appErr := parseBookingLookup(req.BookingID)
		if appErr != nil {
			respondError(c, appErr)
			return
		}
		booking, appErr := findBooking(db, lookup)
		if appErr != nil {
			respondError(c, appErr)
			return
		}

		callerID, role := identity(c)
		if role != models.RoleAdmin && booking.UserID != callerID {
			respondError(c, apperrors.Forbidden("Оплатить бронирование может только его владелец"))
			return
		}
		if booking.Status != models.BookingStatusPending {
			respondError(c, apperrors.ConflictStatus("Оплата доступна только для бронирования в ожидании", string(booking.Status)))
			return
		}
		if booking.PaymentStatus == models.PaymentStatusCompleted {
			respondError(c, apperrors.Conflict("Бронирование уже оплачено"))
			return
		}

		order, err := gateway.CreateOrder(booking.TotalAmount, "INR", services.NewReceiptRef())
		if err != nil {
			log.Printf("Ошибка создания заказа в шлюзе для %s: %v", booking.BookingID, err)
			respondError(c, apperrors.Dependency("Платежный шлюз недоступен", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"order_id": order.ID,
			"amount":   order.Amount,
			"currency": order.Currency,
			"booking":  booking.BookingID,
		})
	}
}

// PaymentVerify проверяет подпись платежного колбэка и подтверждает
// бронирование. Повторная верификация того же платежа идемпотентна:
// состояние не меняется и уведомления не рассылаются повторно.
func PaymentVerify(db *gorm.DB, gateway services.PaymentGateway, email *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BookingID string `json:"bookingId" binding:"required"`
			OrderID   string `json:"orderId" binding:"required"`
			PaymentID string `json:"paymentId" binding:"required"`
			Signature string `json:"signature" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		lookup, appErr := parseBookingLookup(req.BookingID)
		if appErr != nil {
			respondError(c, appErr)
			return
		}

		if !gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
			// Неуспешная верификация фиксируется на бронировании.
			// Уже подтвержденную оплату MarkPaymentFailed не понижает.
			err := db.Transaction(func(tx *gorm.DB) error {
				booking, appErr := lockBooking(tx, lookup)
				if appErr != nil {
					return appErr
				}
				booking.MarkPaymentFailed()
				if err := tx.Save(booking).Error; err != nil {
					return apperrors.Dependency("Ошибка при сохранении статуса оплаты", err)
				}
				return nil
			})
			if err != nil {
				respondError(c, err)
				return
			}
			respondError(c, apperrors.Validation("Подпись платежа недействительна"))
			return
		}

		var booking *models.Booking
		var changed bool

		err := db.Transaction(func(tx *gorm.DB) error {
			var appErr *apperrors.Error
			booking, appErr = lockBooking(tx, lookup)
			if appErr != nil {
				return appErr
			}

			changed = booking.ConfirmPayment(req.PaymentID)
			if !changed {
				return nil
			}
			booking.PaymentMethod = "online"

			if err := tx.Save(booking).Error; err != nil {
				return apperrors.Dependency("Ошибка при подтверждении оплаты", err)
			}
			return nil
		})

		if err != nil {
			respondError(c, err)
			return
		}

		if changed {
			services.BestEffort("письмо о подтверждении оплаты", func() error {
				return email.Send(booking.PassengerEmail,
					fmt.Sprintf("Бронирование %s подтверждено", booking.BookingID),
					fmt.Sprintf("Оплата получена, бронирование %s подтверждено. Ожидайте назначения водителя.", booking.BookingID))
			})
			services.EmitBookingEvent(websocket.EventBookingStatusChanged, booking, nil)
		}

		c.JSON(http.StatusOK, booking)
	}
}

// PaymentSelectCOD подтверждает бронирование с оплатой наличными.
// Денег при этом не захвачено: payment_status остается pending,
// поэтому возврат по такому бронированию невозможен.
func PaymentSelectCOD(db *gorm.DB, email *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BookingID string `json:"bookingId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		lookup, appErr := parseBookingLookup(req.BookingID)
		if appErr != nil {
			respondError(c, appErr)
			return
		}

		callerID, role := identity(c)

		var booking *models.Booking
		err := db.Transaction(func(tx *gorm.DB) error {
			var appErr *apperrors.Error
			booking, appErr = lockBooking(tx, lookup)
			if appErr != nil {
				return appErr
			}

			if role != models.RoleAdmin && booking.UserID != callerID {
				return apperrors.Forbidden("Подтвердить бронирование может только его владелец")
			}
			if booking.Status != models.BookingStatusPending {
				return apperrors.ConflictStatus("Оплата наличными доступна только для бронирования в ожидании", string(booking.Status))
			}

			booking.ConfirmCOD()

			if err := tx.Save(booking).Error; err != nil {
				return apperrors.Dependency("Ошибка при подтверждении бронирования", err)
			}
			return nil
		})

		if err != nil {
			respondError(c, err)
			return
		}

		services.BestEffort("письмо о подтверждении брони с оплатой наличными", func() error {
			return email.Send(booking.PassengerEmail,
				fmt.Sprintf("Бронирование %s подтверждено", booking.BookingID),
				fmt.Sprintf("Бронирование %s подтверждено. Оплата наличными водителю. Сумма: %.0f.", booking.BookingID, booking.TotalAmount))
		})
		services.EmitBookingEvent(websocket.EventBookingStatusChanged, booking, nil)

		c.JSON(http.StatusOK, booking)
	}
}
