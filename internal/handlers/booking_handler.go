package handlers

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cab-backend/internal/apperrors"
	"cab-backend/internal/fare"
	"cab-backend/internal/geo"
	"cab-backend/internal/models"
	"cab-backend/internal/services"
	"cab-backend/internal/utils"
	"cab-backend/internal/websocket"
)

// cityRef принимает город либо по id, либо по имени.
// Разрешается в каноничную модель до запуска бизнес-логики.
type cityRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// resolveCity разрешает ссылку на город в запись справочника
func resolveCity(db *gorm.DB, ref cityRef) (*models.City, *apperrors.Error) {
	var city models.City
	var err error
	switch {
	case ref.ID != 0:
		err = db.First(&city, ref.ID).Error
	case ref.Name != "":
		err = db.Where("LOWER(name) = LOWER(?)", ref.Name).First(&city).Error
	default:
		return nil, apperrors.Validation("Город не указан")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Город не найден")
		}
		return nil, apperrors.Dependency("Ошибка при поиске города", err)
	}
	return &city, nil
}

// generateUniqueCode генерирует код бронирования с повторами при коллизии
func generateUniqueCode(db *gorm.DB) (string, *apperrors.Error) {
	for attempt := 0; attempt < 5; attempt++ {
		code := utils.GenerateBookingCode(time.Now())
		var count int64
		if err := db.Model(&models.Booking{}).Where("booking_id = ?", code).Count(&count).Error; err != nil {
			return "", apperrors.Dependency("Ошибка при проверке кода бронирования", err)
		}
		if count == 0 {
			return code, nil
		}
		log.Printf("Коллизия кода бронирования %s, генерируем новый", code)
	}
	return "", apperrors.Dependency("Не удалось сгенерировать уникальный код бронирования", nil)
}

// BookingCreate создает новое бронирование
func BookingCreate(db *gorm.DB, email *services.EmailService, cache *services.CacheService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PickupCity     cityRef    `json:"pickupCity" binding:"required"`
			DropCity       cityRef    `json:"dropCity" binding:"required"`
			PickupAddress  string     `json:"pickupAddress"`
			DropAddress    string     `json:"dropAddress"`
			JourneyType    string     `json:"journeyType"`
			PickupDate     time.Time  `json:"pickupDate" binding:"required"`
			PickupTime     string     `json:"pickupTime" binding:"required"`
			ReturnDate     *time.Time `json:"returnDate"`
			RoadType       string     `json:"roadType"`
			CabTypeID      uint       `json:"cabTypeId" binding:"required"`
			PassengerName  string     `json:"passengerName" binding:"required"`
			PassengerEmail string     `json:"passengerEmail" binding:"required"`
			PassengerPhone string     `json:"passengerPhone" binding:"required"`

			// Суммы может прислать вызывающая сторона, иначе считаем сами
			DistanceKm      *float64 `json:"distanceKm"`
			BaseAmount      *float64 `json:"baseAmount"`
			TaxAmount       *float64 `json:"taxAmount"`
			TollCharges     *float64 `json:"tollCharges"`
			DriverAllowance *float64 `json:"driverAllowance"`
			NightCharges    *float64 `json:"nightCharges"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		userID, role := identity(c)
		if userID == 0 || role != models.RoleUser {
			// Анонимные и гостевые бронирования не поддерживаются
			c.JSON(http.StatusForbidden, gin.H{"error": "Бронирование доступно только авторизованным пользователям"})
			return
		}

		journeyType := models.JourneyOneWay
		if req.JourneyType == string(models.JourneyRoundTrip) {
			journeyType = models.JourneyRoundTrip
		}

		pickupCity, appErr := resolveCity(db, req.PickupCity)
		if appErr != nil {
			respondError(c, appErr)
			return
		}
		dropCity, appErr := resolveCity(db, req.DropCity)
		if appErr != nil {
			respondError(c, appErr)
			return
		}

		var cabType models.CabType
		if err := db.First(&cabType, req.CabTypeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(c, apperrors.NotFound("Тарифный профиль не найден"))
			} else {
				respondError(c, apperrors.Dependency("Ошибка при получении тарифа", err))
			}
			return
		}

		// Расстояние: берем от клиента, иначе из кэша, иначе считаем
		var distanceKm float64
		if req.DistanceKm != nil && *req.DistanceKm > 0 {
			distanceKm = *req.DistanceKm
		} else {
			cacheKey := cache.DistanceKey(pickupCity.ID, dropCity.ID, req.RoadType)
			found, err := cache.Get(c.Request.Context(), cacheKey, &distanceKm)
			if err != nil {
				log.Printf("Ошибка чтения кэша расстояний: %v", err)
			}
			if !found {
				var calcErr *apperrors.Error
				distanceKm, calcErr = geo.DistanceBetweenCities(pickupCity, dropCity, req.RoadType)
				if calcErr != nil {
					respondError(c, calcErr)
					return
				}
				if err := cache.Set(c.Request.Context(), cacheKey, distanceKm); err != nil {
					log.Printf("Ошибка записи кэша расстояний: %v", err)
				}
			}
		}

		isNight := fare.IsNightPickup(req.PickupTime)

		booking := models.Booking{
			UserID:         userID,
			PickupCityID:   &pickupCity.ID,
			DropCityID:     &dropCity.ID,
			PickupAddress:  req.PickupAddress,
			DropAddress:    req.DropAddress,
			JourneyType:    journeyType,
			PickupDate:     req.PickupDate,
			PickupTime:     req.PickupTime,
			ReturnDate:     req.ReturnDate,
			DistanceKm:     distanceKm,
			Duration:       estimateDuration(distanceKm),
			IsNightJourney: isNight,
			PassengerName:  req.PassengerName,
			PassengerEmail: req.PassengerEmail,
			PassengerPhone: req.PassengerPhone,
			CabTypeID:      &cabType.ID,
			Status:         models.BookingStatusPending,
			PaymentStatus:  models.PaymentStatusPending,
		}

		if req.BaseAmount != nil {
			// Доверяем суммам вызывающей стороны
			booking.BaseAmount = *req.BaseAmount
			if req.TaxAmount != nil {
				booking.TaxAmount = *req.TaxAmount
			}
			if req.TollCharges != nil {
				booking.TollCharges = *req.TollCharges
			}
			if req.DriverAllowance != nil {
				booking.DriverAllowance = *req.DriverAllowance
			}
			if req.NightCharges != nil {
				booking.NightCharges = *req.NightCharges
			}
			booking.TotalAmount = booking.BaseAmount + booking.TaxAmount +
				booking.TollCharges + booking.DriverAllowance + booking.NightCharges
		} else {
			// Упрощенная формула пути создания: база по тарифу за км
			// плюс плоская ночная надбавка 10%
			booking.BaseAmount = math.Round(cabType.BaseKmPrice * distanceKm)
			nightCharge, total := fare.NightSurchargeTotal(booking.BaseAmount, isNight)
			booking.NightCharges = nightCharge
			booking.TotalAmount = total
		}

		if appErr := booking.ValidateAmounts(); appErr != nil {
			respondError(c, appErr)
			return
		}

		code, appErr := generateUniqueCode(db)
		if appErr != nil {
			respondError(c, appErr)
			return
		}
		booking.BookingID = code

		if err := db.Create(&booking).Error; err != nil {
			respondError(c, apperrors.Dependency("Ошибка при создании бронирования", err))
			return
		}

		services.BestEffort("письмо о создании бронирования", func() error {
			return email.Send(booking.PassengerEmail,
				fmt.Sprintf("Бронирование %s создано", booking.BookingID),
				fmt.Sprintf("Ваше бронирование %s создано и ожидает оплаты. Сумма к оплате: %.0f.",
					booking.BookingID, booking.TotalAmount))
		})
		services.EmitBookingEvent(websocket.EventBookingStatusChanged, &booking, nil)

		c.JSON(http.StatusCreated, booking)
	}
}

// estimateDuration оценивает длительность поездки по средней скорости 45 км/ч
func estimateDuration(distanceKm float64) string {
	minutes := int(distanceKm / 45 * 60)
	return fmt.Sprintf("%dч %02dм", minutes/60, minutes%60)
}

// BookingGetByUser возвращает бронирования текущего пользователя
func BookingGetByUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := identity(c)

		var bookings []models.Booking
		if err := db.Where("user_id = ?", userID).
			Order("created_at DESC").
			Find(&bookings).Error; err != nil {
			respondError(c, apperrors.Dependency("Ошибка при получении бронирований", err))
			return
		}

		if len(bookings) == 0 {
			c.JSON(http.StatusOK, []models.Booking{})
			return
		}

		c.JSON(http.StatusOK, bookings)
	}
}

// BookingGet возвращает бронирование по внутреннему id или коду.
// Доступно владельцу, назначенному водителю и администратору.
func BookingGet(db *gorm.DB) gin.HandlerFunc {
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
		isOwner := role == models.RoleUser && booking.UserID == callerID
		isAssignedDriver := role == models.RoleDriver && booking.DriverID != nil && *booking.DriverID == callerID
		if !isOwner && !isAssignedDriver && role != models.RoleAdmin {
			respondError(c, apperrors.Forbidden("Нет доступа к этому бронированию"))
			return
		}

		c.JSON(http.StatusOK, booking)
	}
}

// BookingCancel отменяет бронирование.
// Отменить может владелец или администратор; если водитель был назначен,
// он освобождается в той же транзакции.
func BookingCancel(db *gorm.DB, email *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Reason string `json:"reason"`
		}
		// Причина отмены необязательна
		_ = c.ShouldBindJSON(&req)

		lookup, appErr := parseBookingLookup(c.Param("id"))
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
				return apperrors.Forbidden("Отменить бронирование может только его владелец или администратор")
			}

			var driver *models.Driver
			if booking.DriverID != nil {
				driver, appErr = lockDriver(tx, *booking.DriverID)
				if appErr != nil {
					return appErr
				}
			}

			wasActive := booking.Status == models.BookingStatusAssigned ||
				booking.Status == models.BookingStatusInProgress

			if appErr := booking.Cancel(req.Reason, driver); appErr != nil {
				return appErr
			}

			if err := tx.Save(booking).Error; err != nil {
				return apperrors.Dependency("Ошибка при отмене бронирования", err)
			}
			if driver != nil && wasActive {
				if err := tx.Save(driver).Error; err != nil {
					return apperrors.Dependency("Ошибка при освобождении водителя", err)
				}
			}
			return nil
		})

		if err != nil {
			respondError(c, err)
			return
		}

		services.BestEffort("письмо об отмене бронирования", func() error {
			return email.Send(booking.PassengerEmail,
				fmt.Sprintf("Бронирование %s отменено", booking.BookingID),
				fmt.Sprintf("Ваше бронирование %s отменено. Причина: %s", booking.BookingID, booking.CancellationReason))
		})
		services.EmitBookingEvent(websocket.EventRideCancelled, booking, map[string]interface{}{
			"reason": booking.CancellationReason,
		})

		c.JSON(http.StatusOK, booking)
	}
}
