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

// DriverStartTrip начинает поездку по назначенному бронированию
func DriverStartTrip(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, role := identity(c)
		if role != models.RoleDriver {
			respondError(c, apperrors.Forbidden("Операция доступна только водителю"))
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

			if appErr := booking.StartTrip(driverID, nowUTC()); appErr != nil {
				return appErr
			}

			if err := tx.Save(booking).Error; err != nil {
				return apperrors.Dependency("Ошибка при начале поездки", err)
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

// DriverCompleteTrip завершает поездку. Водитель освобождается и его
// счетчик поездок увеличивается в той же транзакции.
func DriverCompleteTrip(db *gorm.DB, email *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, role := identity(c)
		if role != models.RoleDriver {
			respondError(c, apperrors.Forbidden("Операция доступна только водителю"))
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
			driver, appErr := lockDriver(tx, driverID)
			if appErr != nil {
				return appErr
			}

			if appErr := booking.CompleteTrip(driverID, driver, nowUTC()); appErr != nil {
				return appErr
			}

			if err := tx.Save(booking).Error; err != nil {
				return apperrors.Dependency("Ошибка при завершении поездки", err)
			}
			if err := tx.Save(driver).Error; err != nil {
				return apperrors.Dependency("Ошибка при освобождении водителя", err)
			}
			return nil
		})

		if err != nil {
			respondError(c, err)
			return
		}

		services.BestEffort("письмо о завершении поездки", func() error {
			return email.Send(booking.PassengerEmail,
				fmt.Sprintf("Поездка %s завершена", booking.BookingID),
				fmt.Sprintf("Ваша поездка %s завершена. Спасибо, что выбрали нас! Вы можете оценить водителя в приложении.", booking.BookingID))
		})
		services.EmitBookingEvent(websocket.EventRideCompleted, booking, nil)

		c.JSON(http.StatusOK, booking)
	}
}

// DriverGetCurrentBooking возвращает текущее бронирование водителя.
// Если ссылка водителя указывает на уже завершенную или отмененную
// поездку, связка лениво чинится прямо здесь.
func DriverGetCurrentBooking(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, role := identity(c)
		if role != models.RoleDriver {
			respondError(c, apperrors.Forbidden("Операция доступна только водителю"))
			return
		}

		var driver models.Driver
		if err := db.First(&driver, driverID).Error; err != nil {
			respondError(c, apperrors.Dependency("Ошибка при получении водителя", err))
			return
		}

		if driver.CurrentBookingID == nil {
			c.JSON(http.StatusOK, gin.H{"booking": nil})
			return
		}

		booking, appErr := findBooking(db, models.LookupByID(*driver.CurrentBookingID))
		stale, appErr := staleDriverLink(booking, appErr)
		if appErr != nil {
			respondError(c, appErr)
			return
		}
		if stale {
			reconcileDriverBooking(db, &driver)
			c.JSON(http.StatusOK, gin.H{"booking": nil})
			return
		}

		c.JSON(http.StatusOK, gin.H{"booking": booking})
	}
}

// staleDriverLink сообщает, устарела ли ссылка водителя на бронирование.
// Устаревшей считается ссылка на несуществующее или завершенное
// бронирование. Временная ошибка БД устареванием не является:
// освобождать водителя по ней нельзя, она возвращается вызывающему.
func staleDriverLink(b *models.Booking, appErr *apperrors.Error) (bool, *apperrors.Error) {
	if appErr != nil {
		if appErr.Kind == apperrors.KindNotFound {
			return true, nil
		}
		return false, appErr
	}
	return b.IsTerminal(), nil
}

// reconcileDriverBooking чинит устаревшую ссылку водителя на бронирование.
// Сюда попадаем после принудительной смены статуса администратором,
// когда побочные эффекты по водителю сознательно не выполнялись.
func reconcileDriverBooking(db *gorm.DB, driver *models.Driver) {
	log.Printf("Связка водителя %d с бронированием %v устарела, освобождаем",
		driver.ID, driver.CurrentBookingID)
	driver.Release()
	if err := db.Save(driver).Error; err != nil {
		log.Printf("Ошибка при освобождении водителя %d: %v", driver.ID, err)
	}
}

// DriverGetProfile возвращает профиль текущего водителя
func DriverGetProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, role := identity(c)
		if role != models.RoleDriver {
			respondError(c, apperrors.Forbidden("Операция доступна только водителю"))
			return
		}

		var driver models.Driver
		if err := db.First(&driver, driverID).Error; err != nil {
			respondError(c, apperrors.Dependency("Ошибка при получении водителя", err))
			return
		}
		c.JSON(http.StatusOK, driver)
	}
}
