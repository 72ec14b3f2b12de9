package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cab-backend/internal/utils"
)

// JWTAuth проверяет токен и кладет идентичность вызывающего
// (user_id и role) в контекст запроса. Само ядро учетные данные
// не проверяет, оно доверяет разрешенной идентичности.
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Отсутствует токен авторизации"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный формат токена"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Недействительный токен"})
			c.Abort()
			return
		}

		if claims.Role == "admin" {
			// Для админа user_id может отсутствовать в клеймах
			c.Set("user_id", claims.UserID)
			c.Set("role", "admin")
			c.Next()
			return
		}

		if claims.UserID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Недействительный ID пользователя"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole пропускает только вызовы с указанной ролью
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, _ := c.Get("role")
		if current != role {
			c.JSON(http.StatusForbidden, gin.H{"error": "Недостаточно прав для операции"})
			c.Abort()
			return
		}
		c.Next()
	}
}
