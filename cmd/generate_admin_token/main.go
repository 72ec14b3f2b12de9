package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"cab-backend/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Файл .env не найден, используем переменные окружения")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET не задан")
	}

	token, err := utils.GenerateAdminJWT()
	if err != nil {
		log.Fatalf("Ошибка генерации токена администратора: %v", err)
	}

	fmt.Printf("Токен администратора: %s\n", token)
}
