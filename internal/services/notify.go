package services

import (
	"log"

	"cab-backend/internal/models"
	"cab-backend/internal/websocket"
)

// BestEffort выполняет побочное действие, ошибка которого не должна
// влиять на результат основной операции. Ошибка только логируется.
// Все письма и realtime-события отправляются через эту обертку,
// чтобы сбой вторичного эффекта нельзя было случайно вернуть клиенту.
func BestEffort(name string, fn func() error) {
	if err := fn(); err != nil {
		log.Printf("Побочное действие %s завершилось ошибкой (игнорируется): %v", name, err)
	}
}

// bookingEventPayload собирает общий payload события по бронированию
func bookingEventPayload(b *models.Booking) map[string]interface{} {
	payload := map[string]interface{}{
		"booking_id":   b.ID,
		"booking_code": b.BookingID,
		"status":       string(b.Status),
	}
	if b.DriverID != nil {
		payload["driver_id"] = *b.DriverID
	}
	return payload
}

// bookingRooms возвращает комнаты всех заинтересованных сторон бронирования
func bookingRooms(b *models.Booking) []string {
	rooms := []string{websocket.UserRoom(b.UserID), websocket.AdminRoom}
	if b.DriverID != nil {
		rooms = append(rooms, websocket.DriverRoom(*b.DriverID))
	}
	return rooms
}

// EmitBookingEvent отправляет событие по бронированию во все комнаты
// заинтересованных сторон: пассажиру, водителю (если назначен) и админам
func EmitBookingEvent(event string, b *models.Booking, extra map[string]interface{}) {
	payload := bookingEventPayload(b)
	for k, v := range extra {
		payload[k] = v
	}
	for _, room := range bookingRooms(b) {
		websocket.Emit(room, event, payload)
	}
}
