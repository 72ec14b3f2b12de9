package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cab-backend/internal/apperrors"
	"cab-backend/internal/fare"
	"cab-backend/internal/geo"
	"cab-backend/internal/models"
	"cab-backend/internal/services"
)

// DistanceQuote считает расстояние между городами и, если указан тариф,
// детализацию стоимости. Результат расчета расстояния кэшируется.
func DistanceQuote(db *gorm.DB, cache *services.CacheService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PickupCity cityRef `json:"pickupCity" binding:"required"`
			DropCity   cityRef `json:"dropCity" binding:"required"`
			RoadType   string  `json:"roadType"`
			CabTypeID  uint    `json:"cabTypeId"`
			PickupTime string  `json:"pickupTime"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
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

		var distanceKm float64
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

		response := gin.H{
			"pickup_city": pickupCity.Name,
			"drop_city":   dropCity.Name,
			"distance_km": distanceKm,
		}

		if req.CabTypeID != 0 {
			var cabType models.CabType
			if err := db.First(&cabType, req.CabTypeID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					respondError(c, apperrors.NotFound("Тарифный профиль не найден"))
				} else {
					respondError(c, apperrors.Dependency("Ошибка при получении тарифа", err))
				}
				return
			}

			breakdown, appErr := fare.Calculate(distanceKm, &cabType, fare.IsNightPickup(req.PickupTime))
			if appErr != nil {
				respondError(c, appErr)
				return
			}
			response["fare"] = breakdown
		}

		c.JSON(http.StatusOK, response)
	}
}
