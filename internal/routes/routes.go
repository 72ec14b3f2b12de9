package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cab-backend/internal/handlers"
	"cab-backend/internal/middleware"
	"cab-backend/internal/models"
	"cab-backend/internal/services"
	"cab-backend/internal/websocket"
)

// Deps собирает зависимости хендлеров в одном месте
type Deps struct {
	DB      *gorm.DB
	Gateway services.PaymentGateway
	Email   *services.EmailService
	Cache   *services.CacheService
}

func SetupRoutes(api *gin.RouterGroup, d Deps) {
	// Публичные маршруты для аутентификации
	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.RegisterUser(d.DB))
		auth.POST("/login", handlers.LoginUser(d.DB))
		auth.POST("/driver/register", handlers.RegisterDriver(d.DB))
		auth.POST("/driver/login", handlers.LoginDriver(d.DB))
	}

	// Публичные справочники и расчет стоимости
	api.GET("/cab-types", handlers.CabTypeList(d.DB))
	api.GET("/cities", handlers.CityList(d.DB))
	api.POST("/distance", handlers.DistanceQuote(d.DB, d.Cache))

	// Защищенные маршруты (требуют аутентификации)
	protected := api.Group("")
	protected.Use(middleware.JWTAuth())
	{
		// Роуты для бронирований
		protected.POST("/bookings", handlers.BookingCreate(d.DB, d.Email, d.Cache))
		protected.GET("/bookings", handlers.BookingGetByUser(d.DB))
		protected.GET("/bookings/:id", handlers.BookingGet(d.DB))
		protected.PUT("/bookings/:id/cancel", handlers.BookingCancel(d.DB, d.Email))

		// Роуты для оплаты
		protected.POST("/payments/order", handlers.PaymentCreateOrder(d.DB, d.Gateway))
		protected.POST("/payments/verify", handlers.PaymentVerify(d.DB, d.Gateway, d.Email))
		protected.POST("/payments/cod", handlers.PaymentSelectCOD(d.DB, d.Email))

		// Роуты для возвратов
		protected.POST("/refunds", handlers.RefundProcess(d.DB, d.Gateway, d.Email))
		protected.GET("/refunds/:id", handlers.RefundGet(d.DB))

		// Роуты для оценок
		protected.POST("/ratings/driver", handlers.RateDriver(d.DB))
		protected.POST("/ratings/user", handlers.RateUser(d.DB))

		// Роуты для водителей
		driver := protected.Group("/driver")
		driver.Use(middleware.RequireRole(models.RoleDriver))
		{
			driver.GET("/profile", handlers.DriverGetProfile(d.DB))
			driver.GET("/current-booking", handlers.DriverGetCurrentBooking(d.DB))
			driver.PUT("/bookings/:id/start", handlers.DriverStartTrip(d.DB))
			driver.PUT("/bookings/:id/complete", handlers.DriverCompleteTrip(d.DB, d.Email))
		}

		// Административные роуты
		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/bookings", handlers.AdminListBookings(d.DB))
			admin.POST("/bookings/assign", handlers.AdminAssignDriver(d.DB, d.Email))
			admin.PUT("/bookings/:id/status", handlers.AdminForceStatus(d.DB))
			admin.GET("/drivers", handlers.AdminListDrivers(d.DB))
			admin.PUT("/drivers/:id/approve", handlers.AdminApproveDriver(d.DB))
			admin.POST("/cab-types", handlers.CabTypeCreate(d.DB))
			admin.PUT("/cab-types/:id", handlers.CabTypeUpdate(d.DB))
			admin.POST("/cities", handlers.CityCreate(d.DB))
			admin.PUT("/cities/:id", handlers.CityUpdate(d.DB))
		}

		// WebSocket подключение для получения обновлений в реальном времени
		protected.GET("/ws", websocket.Handler())
	}
}
