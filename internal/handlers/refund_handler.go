package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cab-backend/internal/apperrors"
	"cab-backend/internal/models"
	"cab-backend/internal/services"
	"cab-backend/internal/websocket"
)

// applyRefundOutcome фиксирует исход обращения к шлюзу на бронировании.
// При отказе шлюза бронирование НЕ отменяется: выставляется только
// refund_status=failed, чтобы возврат можно было повторить.
func applyRefundOutcome(b *models.Booking, result *services.RefundResult, gwErr error, reason string, now time.Time) *apperrors.Error {
	if gwErr != nil {
		b.MarkRefundFailed()
		return apperrors.Dependency("Платежный шлюз отклонил возврат", gwErr)
	}
	b.ApplyRefund(result.RefundID, result.Amount, reason, now)
	return nil
}

// RefundProcess выполняет возврат средств по бронированию.
// Право на возврат проверяется под блокировкой, шлюз вызывается вне
// транзакции, затем исход фиксируется: успешный возврат — под повторной
// блокировкой с перепроверкой, неуспешный — отдельной записью статуса,
// которую не может откатить транзакция.
func RefundProcess(db *gorm.DB, gateway services.PaymentGateway, email *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BookingID string `json:"bookingId" binding:"required"`
			Reason    string `json:"reason"`
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

		// Проверка права на возврат под блокировкой
		var booking *models.Booking
		err := db.Transaction(func(tx *gorm.DB) error {
			var appErr *apperrors.Error
			booking, appErr = lockBooking(tx, lookup)
			if appErr != nil {
				return appErr
			}
			if appErr := booking.CanRefund(callerID, role); appErr != nil {
				return appErr
			}
			return nil
		})
		if err != nil {
			respondError(c, err)
			return
		}

		result, gwErr := gateway.Refund(booking.PaymentID, booking.TotalAmount)

		if outcome := applyRefundOutcome(booking, result, gwErr, req.Reason, nowUTC()); outcome != nil {
			log.Printf("Ошибка возврата по бронированию %s: %v", booking.BookingID, gwErr)
			// Отметка о неуспехе пишется вне транзакции, чтобы она
			// пережила ответ с ошибкой и возврат можно было повторить
			if err := db.Model(&models.Booking{}).Where("id = ?", booking.ID).
				Update("refund_status", models.RefundStatusFailed).Error; err != nil {
				log.Printf("Ошибка при сохранении статуса возврата %s: %v", booking.BookingID, err)
			}
			respondError(c, outcome)
			return
		}

		// Фиксация успешного возврата с перепроверкой: параллельный запрос
		// мог успеть провести возврат, пока мы ходили в шлюз
		err = db.Transaction(func(tx *gorm.DB) error {
			locked, appErr := lockBooking(tx, lookup)
			if appErr != nil {
				return appErr
			}
			if locked.RefundStatus == models.RefundStatusProcessed {
				return apperrors.Conflict("Возврат по этому бронированию уже обработан")
			}
			locked.ApplyRefund(result.RefundID, result.Amount, req.Reason, nowUTC())
			if err := tx.Save(locked).Error; err != nil {
				return apperrors.Dependency("Ошибка при сохранении возврата", err)
			}
			booking = locked
			return nil
		})
		if err != nil {
			respondError(c, err)
			return
		}

		services.BestEffort("письмо о возврате средств", func() error {
			return email.Send(booking.PassengerEmail,
				fmt.Sprintf("Возврат по бронированию %s", booking.BookingID),
				fmt.Sprintf("Возврат %.0f по бронированию %s обработан. Средства поступят в течение 5-7 рабочих дней.",
					booking.RefundAmount, booking.BookingID))
		})
		services.EmitBookingEvent(websocket.EventRefundProcessed, booking, map[string]interface{}{
			"refund_id":     booking.RefundID,
			"refund_amount": booking.RefundAmount,
		})

		c.JSON(http.StatusOK, booking)
	}
}

// RefundGet возвращает состояние возврата по бронированию
func RefundGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		lookup, appErr := parseBookingLookup(c.Param("id"))
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
			respondError(c, apperrors.Forbidden("Нет доступа к этому бронированию"))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"booking_id":          booking.BookingID,
			"refund_status":       booking.RefundStatus,
			"refund_id":           booking.RefundID,
			"refund_amount":       booking.RefundAmount,
			"refund_processed_at": booking.RefundProcessedAt,
		})
	}
}
