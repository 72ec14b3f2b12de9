package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"cab-backend/internal/middleware"
)

// PaymentService — клиент платежного шлюза. Ядру нужны ровно три
// примитива: создание заказа, проверка подписи колбэка и возврат средств.
type PaymentService struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

// PaymentGateway — контракт шлюза, который потребляют хендлеры.
// Выделен в интерфейс для подмены шлюза фейком в тестах.
type PaymentGateway interface {
	CreateOrder(amount float64, currency, receipt string) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	Refund(paymentID string, amount float64) (*RefundResult, error)
}

// Order представляет созданный заказ шлюза
type Order struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Receipt  string  `json:"receipt"`
	Status   string  `json:"status"`
}

// RefundResult представляет результат возврата средств
type RefundResult struct {
	RefundID string  `json:"refund_id"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
}

func NewPaymentService() *PaymentService {
	return &PaymentService{
		baseURL:   os.Getenv("PAYMENT_GATEWAY_URL"),
		keyID:     os.Getenv("PAYMENT_KEY_ID"),
		keySecret: os.Getenv("PAYMENT_KEY_SECRET"),
		client: &http.Client{
			// Таймаут обязателен: зависший шлюз при возврате означает
			// неуспешный возврат, а не бесконечное ожидание
			Timeout: time.Second * 30,
		},
	}
}

// NewReceiptRef генерирует уникальную ссылку заказа для шлюза
func NewReceiptRef() string {
	return "rcpt_" + uuid.NewString()
}

// CreateOrder создает заказ в платежном шлюзе.
// Сумма передается в минимальных единицах валюты.
func (s *PaymentService) CreateOrder(amount float64, currency, receipt string) (*Order, error) {
	payload := map[string]interface{}{
		"amount":   int64(amount * 100),
		"currency": currency,
		"receipt":  receipt,
	}

	var response struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
		Status   string `json:"status"`
	}

	if err := s.post("/v1/orders", payload, &response); err != nil {
		return nil, err
	}

	return &Order{
		ID:       response.ID,
		Amount:   float64(response.Amount) / 100,
		Currency: response.Currency,
		Receipt:  response.Receipt,
		Status:   response.Status,
	}, nil
}

// VerifySignature проверяет HMAC-подпись платежного колбэка.
// Подпись считается как HMAC-SHA256 от "orderID|paymentID" на секрете ключа.
func (s *PaymentService) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifyHMAC(orderID, paymentID, signature, s.keySecret)
}

// VerifyHMAC проверяет подпись по явно переданному секрету
func VerifyHMAC(orderID, paymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Refund отправляет возврат средств по платежу
func (s *PaymentService) Refund(paymentID string, amount float64) (*RefundResult, error) {
	payload := map[string]interface{}{
		"amount": int64(amount * 100),
	}

	var response struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	}

	if err := s.post(fmt.Sprintf("/v1/payments/%s/refund", paymentID), payload, &response); err != nil {
		return nil, err
	}

	return &RefundResult{
		RefundID: response.ID,
		Status:   response.Status,
		Amount:   float64(response.Amount) / 100,
	}, nil
}

// post выполняет запрос к шлюзу и разбирает ответ
func (s *PaymentService) post(path string, payload interface{}, out interface{}) error {
	if s.baseURL == "" || s.keyID == "" || s.keySecret == "" {
		return fmt.Errorf("параметры платежного шлюза не настроены")
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка при маршалинге данных: %w", err)
	}

	req, err := http.NewRequest("POST", s.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("ошибка при создании запроса: %w", err)
	}

	req.SetBasicAuth(s.keyID, s.keySecret)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		middleware.TrackGatewayRequest(path, "error", time.Since(start))
		return fmt.Errorf("ошибка при запросе к платежному шлюзу: %w", err)
	}
	defer resp.Body.Close()

	middleware.TrackGatewayRequest(path, fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка при чтении ответа шлюза: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("платежный шлюз вернул статус %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("ошибка при разборе ответа шлюза: %w", err)
	}

	return nil
}
