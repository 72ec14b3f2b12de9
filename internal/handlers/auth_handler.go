package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"cab-backend/internal/apperrors"
	"cab-backend/internal/models"
	"cab-backend/internal/utils"
)

// uniqueViolation проверяет нарушение уникальности postgres (код 23505)
func uniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// RegisterUser регистрирует пассажира
func RegisterUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string `json:"name" binding:"required"`
			Email    string `json:"email" binding:"required,email"`
			Phone    string `json:"phone" binding:"required"`
			Password string `json:"password" binding:"required,min=6"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, apperrors.Dependency("Ошибка при хешировании пароля", err))
			return
		}

		user := models.User{
			Name:         req.Name,
			Email:        strings.ToLower(req.Email),
			Phone:        req.Phone,
			PasswordHash: string(hash),
			Role:         models.RoleUser,
		}

		if err := db.Create(&user).Error; err != nil {
			if uniqueViolation(err) {
				respondError(c, apperrors.Conflict("Пользователь с таким email уже существует"))
				return
			}
			respondError(c, apperrors.Dependency("Ошибка при регистрации", err))
			return
		}

		token, err := utils.GenerateJWT(user.ID, models.RoleUser)
		if err != nil {
			respondError(c, apperrors.Dependency("Ошибка при выпуске токена", err))
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"user": models.UserResponse{
				ID:        user.ID,
				Name:      user.Name,
				Email:     user.Email,
				Phone:     user.Phone,
				Role:      user.Role,
				CreatedAt: user.CreatedAt,
			},
		})
	}
}

// LoginUser авторизует пассажира
func LoginUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		var user models.User
		if err := db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный email или пароль"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный email или пароль"})
			return
		}

		token, err := utils.GenerateJWT(user.ID, user.Role)
		if err != nil {
			respondError(c, apperrors.Dependency("Ошибка при выпуске токена", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user": models.UserResponse{
				ID:        user.ID,
				Name:      user.Name,
				Email:     user.Email,
				Phone:     user.Phone,
				Role:      user.Role,
				CreatedAt: user.CreatedAt,
			},
		})
	}
}

// RegisterDriver регистрирует водителя. До одобрения администратором
// водитель не участвует в назначениях.
func RegisterDriver(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name          string `json:"name" binding:"required"`
			Email         string `json:"email" binding:"required,email"`
			Phone         string `json:"phone" binding:"required"`
			Password      string `json:"password" binding:"required,min=6"`
			LicenseNumber string `json:"licenseNumber" binding:"required"`
			VehicleNumber string `json:"vehicleNumber" binding:"required"`
			CabTypeID     *uint  `json:"cabTypeId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, apperrors.Dependency("Ошибка при хешировании пароля", err))
			return
		}

		driver := models.Driver{
			Name:          req.Name,
			Email:         strings.ToLower(req.Email),
			Phone:         req.Phone,
			PasswordHash:  string(hash),
			LicenseNumber: strings.ToUpper(req.LicenseNumber),
			VehicleNumber: strings.ToUpper(req.VehicleNumber),
			CabTypeID:     req.CabTypeID,
			IsApproved:    false,
			IsAvailable:   true,
		}

		if err := db.Create(&driver).Error; err != nil {
			if uniqueViolation(err) {
				respondError(c, apperrors.Conflict("Водитель с таким email, лицензией или номером машины уже существует"))
				return
			}
			respondError(c, apperrors.Dependency("Ошибка при регистрации водителя", err))
			return
		}

		log.Printf("Зарегистрирован водитель %d (%s), ожидает одобрения", driver.ID, driver.Email)

		token, err := utils.GenerateJWT(driver.ID, models.RoleDriver)
		if err != nil {
			respondError(c, apperrors.Dependency("Ошибка при выпуске токена", err))
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token":  token,
			"driver": driver.ToResponse(),
		})
	}
}

// LoginDriver авторизует водителя
func LoginDriver(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат данных"})
			return
		}

		var driver models.Driver
		if err := db.Where("email = ?", strings.ToLower(req.Email)).First(&driver).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный email или пароль"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(driver.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный email или пароль"})
			return
		}

		token, err := utils.GenerateJWT(driver.ID, models.RoleDriver)
		if err != nil {
			respondError(c, apperrors.Dependency("Ошибка при выпуске токена", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":  token,
			"driver": driver.ToResponse(),
		})
	}
}
