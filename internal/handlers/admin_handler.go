package handlers

import (
	"errors"
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

// AdminAssignDriver назначает водителя на подтвержденное бронирование.
// Бронирование и водитель блокируются в одной транзакции, чтобы два
// администратора не назначили одного водителя на разные поездки.
func AdminAssignDriver(db *gorm.DB, email *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BookingID string `json:"bookingId" binding:"required"`
			DriverID  uint   `json:"driverId" binding:"required"`
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

			if !driver.IsApproved {
				return apperrors.Conflict("Водитель еще не одобрен администратором")
			}
			if !driver.IsAvailable {
				// Назначение поверх занятого водителя допускается сознательно,
				// диспетчер может перераспределить поездки вручную
				log.Printf("Внимание: водитель %d занят (бронирование %v), назначаем на %s",
					driver.ID, driver.CurrentBookingID, booking.BookingID)
			}

			if appErr := booking.Assign(driver, nowUTC()); appErr != nil {
				return appErr
			}

			if err := tx.Save(booking).Error; err != nil {
				return apperrors.Dependency("Ошибка при назначении водителя", err)
			}
			if err := tx.Save(driver).Error; err != nil {
				return apperrors.Dependency("Ошибка при обновлении водителя", err)
			}
			return nil
		})

		if err != nil {
			respondError(c, err)
			return
		}

		services.BestEffort("письмо о назначении водителя", func() error {
			return email.Send(booking.PassengerEmail,
				fmt.Sprintf("Водитель назначен на бронирование %s", booking.BookingID),
				fmt.Sprintf("На ваше бронирование %s назначен водитель %s, автомобиль %s.",
					booking.BookingID, driver.Name, driver.VehicleNumber))
		})
		extra := map[string]interface{}{
			"driver_name":    driver.Name,
			"vehicle_number": driver.VehicleNumber,
		}
		services.EmitBookingEvent(websocket.EventDriverAssigned, booking, extra)

		c.JSON(http.StatusOK, booking)
	}
}

// AdminForceStatus принудительно выставляет статус бронирования.
// Переходы не проверяются и побочные эффекты по водителю не выполняются,
// это аварийный инструмент и каждое применение пишется в лог.
func AdminForceStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		status := models.BookingStatus(req.Status)
		switch status {
		case models.BookingStatusPending, models.BookingStatusConfirmed,
			models.BookingStatusAssigned, models.BookingStatusInProgress,
			models.BookingStatusCompleted, models.BookingStatusCancelled:
		default:
			respondError(c, apperrors.Validation("Неизвестный статус бронирования"))
			return
		}

		lookup, appErr := parseBookingLookup(c.Param("id"))
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

			log.Printf("Внимание: администратор принудительно меняет статус %s: %s -> %s",
				booking.BookingID, booking.Status, status)
			booking.ForceStatus(status)

			if err := tx.Save(booking).Error; err != nil {
				return apperrors.Dependency("Ошибка при смене статуса", err)
			}
			return nil
		})

		if err != nil {
			respondError(c, err)
			return
		}

		services.EmitBookingEvent(websocket.EventBookingStatusChanged, booking, nil)
		c.JSON(http.StatusOK, booking)
	}
}

// AdminListBookings возвращает все бронирования с опциональным фильтром по статусу
func AdminListBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.Booking{}).Order("created_at DESC")
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var bookings []models.Booking
		if err := query.Find(&bookings).Error; err != nil {
			respondError(c, apperrors.Dependency("Ошибка при получении бронирований", err))
			return
		}
		c.JSON(http.StatusOK, bookings)
	}
}

// AdminApproveDriver одобряет водителя, после чего он доступен для назначений
func AdminApproveDriver(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var driver models.Driver
		if err := db.First(&driver, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(c, apperrors.NotFound("Водитель не найден"))
			} else {
				respondError(c, apperrors.Dependency("Ошибка при получении водителя", err))
			}
			return
		}

		driver.IsApproved = true
		if err := db.Save(&driver).Error; err != nil {
			respondError(c, apperrors.Dependency("Ошибка при одобрении водителя", err))
			return
		}

		log.Printf("Водитель %d (%s) одобрен администратором", driver.ID, driver.Name)
		c.JSON(http.StatusOK, driver)
	}
}

// AdminListDrivers возвращает всех водителей
func AdminListDrivers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var drivers []models.Driver
		if err := db.Order("created_at DESC").Find(&drivers).Error; err != nil {
			respondError(c, apperrors.Dependency("Ошибка при получении водителей", err))
			return
		}
		c.JSON(http.StatusOK, drivers)
	}
}

// CabTypeCreate создает тарифный профиль
func CabTypeCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cabType models.CabType
		if err := c.ShouldBindJSON(&cabType); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		if cabType.Name == "" {
			respondError(c, apperrors.Validation("Название тарифа обязательно"))
			return
		}
		if cabType.BaseKmPrice < 0 || cabType.ExtraKmPrice < 0 || cabType.IncludedKm < 0 {
			respondError(c, apperrors.Validation("Параметры тарифа не могут быть отрицательными"))
			return
		}

		if err := db.Create(&cabType).Error; err != nil {
			respondError(c, apperrors.Dependency("Ошибка при создании тарифа", err))
			return
		}
		c.JSON(http.StatusCreated, cabType)
	}
}

// CabTypeUpdate обновляет тарифный профиль
func CabTypeUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cabType models.CabType
		if err := db.First(&cabType, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(c, apperrors.NotFound("Тарифный профиль не найден"))
			} else {
				respondError(c, apperrors.Dependency("Ошибка при получении тарифа", err))
			}
			return
		}

		var updates models.CabType
		if err := c.ShouldBindJSON(&updates); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		updates.ID = cabType.ID

		if err := db.Model(&cabType).Updates(updates).Error; err != nil {
			respondError(c, apperrors.Dependency("Ошибка при обновлении тарифа", err))
			return
		}
		c.JSON(http.StatusOK, cabType)
	}
}

// CabTypeList возвращает активные тарифные профили
func CabTypeList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cabTypes []models.CabType
		if err := db.Where("is_active = ?", true).Order("base_km_price ASC").Find(&cabTypes).Error; err != nil {
			respondError(c, apperrors.Dependency("Ошибка при получении тарифов", err))
			return
		}
		c.JSON(http.StatusOK, cabTypes)
	}
}

// CityCreate создает город в справочнике
func CityCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var city models.City
		if err := c.ShouldBindJSON(&city); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		if city.Name == "" {
			respondError(c, apperrors.Validation("Название города обязательно"))
			return
		}

		if err := db.Create(&city).Error; err != nil {
			respondError(c, apperrors.Dependency("Ошибка при создании города", err))
			return
		}
		c.JSON(http.StatusCreated, city)
	}
}

// CityUpdate обновляет город в справочнике
func CityUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var city models.City
		if err := db.First(&city, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(c, apperrors.NotFound("Город не найден"))
			} else {
				respondError(c, apperrors.Dependency("Ошибка при получении города", err))
			}
			return
		}

		var updates models.City
		if err := c.ShouldBindJSON(&updates); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}
		updates.ID = city.ID

		if err := db.Model(&city).Updates(updates).Error; err != nil {
			respondError(c, apperrors.Dependency("Ошибка при обновлении города", err))
			return
		}
		c.JSON(http.StatusOK, city)
	}
}

// CityList возвращает справочник городов
func CityList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cities []models.City
		if err := db.Order("name ASC").Find(&cities).Error; err != nil {
			respondError(c, apperrors.Dependency("Ошибка при получении городов", err))
			return
		}
		c.JSON(http.StatusOK, cities)
	}
}
