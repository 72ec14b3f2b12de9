package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cab-backend/internal/apperrors"
	"cab-backend/internal/models"
)

// nowUTC возвращает текущее время в UTC для меток жизненного цикла
func nowUTC() time.Time {
	return time.Now().UTC()
}

// identity извлекает разрешенную идентичность вызывающего из контекста
func identity(c *gin.Context) (uint, string) {
	userID, _ := c.Get("user_id")
	role, _ := c.Get("role")
	id, _ := userID.(uint)
	r, _ := role.(string)
	return id, r
}

// respondError отображает типизированную ошибку ядра в HTTP ответ
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body := gin.H{"error": appErr.Message}
		if appErr.CurrentStatus != "" {
			body["current_status"] = appErr.CurrentStatus
		}
		c.JSON(apperrors.HTTPStatus(appErr), body)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера"})
}

// parseBookingLookup разбирает параметр пути в поисковый запрос:
// числовое значение трактуется как внутренний id, строка с префиксом CB
// как человекочитаемый код. Неоднозначность снимается один раз здесь,
// дальше бизнес-логика работает с каноничным BookingLookup.
func parseBookingLookup(param string) (models.BookingLookup, *apperrors.Error) {
	param = strings.TrimSpace(param)
	if param == "" {
		return models.BookingLookup{}, apperrors.Validation("Идентификатор бронирования не указан")
	}
	if id, err := strconv.ParseUint(param, 10, 64); err == nil {
		return models.LookupByID(uint(id)), nil
	}
	if strings.HasPrefix(strings.ToUpper(param), "CB") {
		return models.LookupByCode(strings.ToUpper(param)), nil
	}
	return models.BookingLookup{}, apperrors.Validation("Неверный идентификатор бронирования")
}

// findBooking ищет бронирование по каноничному запросу.
// Работает и в транзакции, и вне ее.
func findBooking(tx *gorm.DB, lookup models.BookingLookup) (*models.Booking, *apperrors.Error) {
	var booking models.Booking
	var err error
	if lookup.ByCode() {
		err = tx.Where("booking_id = ?", lookup.Code).First(&booking).Error
	} else {
		err = tx.First(&booking, lookup.ID).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Бронирование не найдено")
		}
		return nil, apperrors.Dependency("Ошибка при получении бронирования", err)
	}
	return &booking, nil
}

// lockBooking ищет бронирование с блокировкой строки внутри транзакции
func lockBooking(tx *gorm.DB, lookup models.BookingLookup) (*models.Booking, *apperrors.Error) {
	return findBooking(tx.Set("gorm:query_option", "FOR UPDATE"), lookup)
}

// lockDriver ищет водителя с блокировкой строки внутри транзакции
func lockDriver(tx *gorm.DB, driverID uint) (*models.Driver, *apperrors.Error) {
	var driver models.Driver
	if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&driver, driverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Водитель не найден")
		}
		return nil, apperrors.Dependency("Ошибка при получении водителя", err)
	}
	return &driver, nil
}
