package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cab-backend/internal/apperrors"
	"cab-backend/internal/models"
	"cab-backend/internal/services"
	"cab-backend/internal/websocket"
)

type ratingRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
	DriverID  uint   `json:"driverId"`
	Score     int    `json:"score" binding:"required"`
	Comment   string `json:"comment"`
}

// RateDriver сохраняет оценку водителя пассажиром.
// Средний рейтинг водителя пересчитывается в той же транзакции,
// что и снимок оценки в бронировании: либо применяется все, либо ничего.
func RateDriver(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ratingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		callerID, role := identity(c)
		if role != models.RoleUser {
			respondError(c, apperrors.Forbidden("Оценить водителя может только пассажир"))
			return
		}

		lookup, appErr := parseBookingLookup(req.BookingID)
		if appErr != nil {
			respondError(c, appErr)
			return
		}

		var booking *models.Booking
		var driver *models.Driver

		err := db.Transaction(func(tx *gorm.DB) error {
			var appErr *apperrors.Error
			booking, appErr = lockBooking(tx, lookup)
			if appErr != nil {
				return appErr
			}
			driver, appErr = lockDriver(tx, req.DriverID)
			if appErr != nil {
				return appErr
			}

			if appErr := booking.RateByUser(callerID, req.DriverID, req.Score, req.Comment, driver, nowUTC()); appErr != nil {
				return appErr
			}

			record := models.RatingRecord{
				BookingID: booking.ID,
				DriverID:  driver.ID,
				UserID:    booking.UserID,
				RatedBy:   models.RatingByUser,
				Score:     req.Score,
				Comment:   req.Comment,
			}

			if err := tx.Save(booking).Error; err != nil {
				return apperrors.Dependency("Ошибка при сохранении оценки", err)
			}
			if err := tx.Save(driver).Error; err != nil {
				return apperrors.Dependency("Ошибка при обновлении рейтинга водителя", err)
			}
			if err := tx.Create(&record).Error; err != nil {
				return apperrors.Dependency("Ошибка при сохранении истории оценок", err)
			}
			return nil
		})

		if err != nil {
			respondError(c, err)
			return
		}

		services.EmitBookingEvent(websocket.EventRatingSubmitted, booking, map[string]interface{}{
			"rated_by": models.RatingByUser,
			"score":    req.Score,
		})

		c.JSON(http.StatusOK, gin.H{
			"booking":       booking,
			"driver_rating": driver.Ratings,
		})
	}
}

// RateUser сохраняет оценку пассажира водителем, зеркально RateDriver.
// Средний рейтинг пассажира не ведется, оценка остается в истории.
func RateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ratingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		callerID, role := identity(c)
		if role != models.RoleDriver {
			respondError(c, apperrors.Forbidden("Оценить пассажира может только водитель"))
			return
		}

		lookup, appErr := parseBookingLookup(req.BookingID)
		if appErr != nil {
			respondError(c, appErr)
			return
		}

		var booking *models.Booking
		err := db.Transaction(func(tx *gorm.DB) error {
			var appErr *apperrors.Error
			booking, appErr = lockBooking(tx, lookup)
			if appErr != nil {
				return appErr
			}

			if appErr := booking.RateByDriver(callerID, req.Score, req.Comment, nowUTC()); appErr != nil {
				return appErr
			}

			record := models.RatingRecord{
				BookingID: booking.ID,
				DriverID:  callerID,
				UserID:    booking.UserID,
				RatedBy:   models.RatingByDriver,
				Score:     req.Score,
				Comment:   req.Comment,
			}

			if err := tx.Save(booking).Error; err != nil {
				return apperrors.Dependency("Ошибка при сохранении оценки", err)
			}
			if err := tx.Create(&record).Error; err != nil {
				return apperrors.Dependency("Ошибка при сохранении истории оценок", err)
			}
			return nil
		})

		if err != nil {
			respondError(c, err)
			return
		}

		services.EmitBookingEvent(websocket.EventRatingSubmitted, booking, map[string]interface{}{
			"rated_by": models.RatingByDriver,
			"score":    req.Score,
		})

		c.JSON(http.StatusOK, booking)
	}
}
