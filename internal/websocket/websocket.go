package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cab-backend/internal/models"
)

// Канонические события реального времени
const (
	EventDriverAssigned       = "driver-assigned"
	EventBookingStatusChanged = "booking-status-changed"
	EventRideCancelled        = "ride-cancelled"
	EventRideCompleted        = "ride-completed"
	EventRefundProcessed      = "refund-processed"
	EventRatingSubmitted      = "rating-submitted"
)

// Общая комната администраторов
const AdminRoom = "admin"

// UserRoom возвращает имя персональной комнаты пассажира
func UserRoom(userID uint) string {
	return fmt.Sprintf("user_%d", userID)
}

// DriverRoom возвращает имя персональной комнаты водителя
func DriverRoom(driverID uint) string {
	return fmt.Sprintf("driver_%d", driverID)
}

// Message представляет формат сообщения WebSocket
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Manager управляет всеми подключениями WebSocket, сгруппированными
// по комнатам user_<id>, driver_<id> и admin
type Manager struct {
	rooms      map[string]map[*websocket.Conn]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

// Client представляет клиентское соединение WebSocket
type Client struct {
	conn  *websocket.Conn
	rooms []string
}

// Глобальный менеджер WebSocket
var wsManager = NewManager()

func NewManager() *Manager {
	return &Manager{
		rooms:      make(map[string]map[*websocket.Conn]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Start запускает обработку подключений WebSocket
func (m *Manager) Start() {
	log.Printf("Запуск WebSocket Manager")
	go func() {
		for {
			select {
			case client := <-m.register:
				m.mutex.Lock()
				for _, room := range client.rooms {
					if _, ok := m.rooms[room]; !ok {
						m.rooms[room] = make(map[*websocket.Conn]bool)
					}
					m.rooms[room][client.conn] = true
				}
				m.mutex.Unlock()
				log.Printf("Клиент подключен к комнатам %v", client.rooms)

			case client := <-m.unregister:
				m.mutex.Lock()
				for _, room := range client.rooms {
					if conns, ok := m.rooms[room]; ok {
						if _, exists := conns[client.conn]; exists {
							delete(conns, client.conn)
						}
						if len(conns) == 0 {
							delete(m.rooms, room)
						}
					}
				}
				m.mutex.Unlock()
				client.conn.Close()
				log.Printf("Клиент отключен от комнат %v", client.rooms)
			}
		}
	}()
}

// Emit отправляет событие всем соединениям указанной комнаты.
// Отправка не блокирует вызывающую сторону и не возвращает ошибку:
// доставка в реальном времени всегда best-effort.
func (m *Manager) Emit(room, event string, payload interface{}) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	connections, exists := m.rooms[room]
	if !exists || len(connections) == 0 {
		return
	}

	jsonMessage, err := json.Marshal(&Message{Event: event, Payload: payload})
	if err != nil {
		log.Printf("Emit: ошибка при кодировании сообщения: %v", err)
		return
	}

	for conn := range connections {
		go func(c *websocket.Conn) {
			if err := c.WriteMessage(websocket.TextMessage, jsonMessage); err != nil {
				log.Printf("Emit: ошибка при отправке в комнату %s: %v", room, err)
			}
		}(conn)
	}
}

// Emit отправляет событие через глобальный менеджер
func Emit(room, event string, payload interface{}) {
	wsManager.Emit(room, event, payload)
}

// IdentityRooms возвращает комнаты, в которые попадает подключившийся
// клиент в зависимости от его роли
func IdentityRooms(role string, id uint) []string {
	switch role {
	case models.RoleAdmin:
		return []string{AdminRoom}
	case models.RoleDriver:
		return []string{DriverRoom(id)}
	default:
		return []string{UserRoom(id)}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Разрешаем подключения с любых источников
	},
}

// Handler обрабатывает подключения WebSocket.
// Комнаты выводятся из идентичности в JWT, анонимные подключения отклоняются.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Upgrade") != "websocket" {
			c.String(http.StatusBadRequest, "Требуется WebSocket соединение")
			return
		}

		userID, exists := c.Get("user_id")
		role, _ := c.Get("role")
		if !exists {
			c.String(http.StatusUnauthorized, "Требуется авторизация")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("Ошибка обновления соединения до WebSocket: %v", err)
			return
		}

		client := &Client{
			conn:  conn,
			rooms: IdentityRooms(role.(string), userID.(uint)),
		}

		wsManager.register <- client
		go handleMessages(client)
	}
}

// handleMessages читает входящие сообщения клиента и отвечает на ping
func handleMessages(client *Client) {
	defer func() {
		wsManager.unregister <- client
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			break
		}

		var data map[string]interface{}
		if err := json.Unmarshal(message, &data); err != nil {
			continue
		}

		if msgType, ok := data["type"].(string); ok && msgType == "ping" {
			pongJSON, _ := json.Marshal(map[string]interface{}{
				"type": "pong",
				"time": time.Now().Unix(),
			})
			if err := client.conn.WriteMessage(websocket.TextMessage, pongJSON); err != nil {
				log.Printf("Ошибка при отправке pong: %v", err)
			}
		}
	}
}

// StartManager запускает глобальный менеджер WebSocket
func StartManager() {
	wsManager.Start()
}
