package utils

import (
	"fmt"
	"math/rand"
	"time"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateBookingCode генерирует человекочитаемый код бронирования
// вида CB + ддммгг + 4 случайных символа, например CB2808264K7M.
// Уникальность кода проверяет вызывающая сторона и при коллизии
// запрашивает новый код.
func GenerateBookingCode(now time.Time) string {
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return fmt.Sprintf("CB%s%s", now.Format("020106"), string(suffix))
}
