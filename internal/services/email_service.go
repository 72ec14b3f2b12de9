package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// EmailService отправляет транзакционные письма через HTTP API
// почтового провайдера. С точки зрения ядра отправка всегда best-effort:
// вызывающая сторона оборачивает Send в services.BestEffort.
type EmailService struct {
	apiURL    string
	apiKey    string
	fromEmail string
	client    *http.Client
}

func NewEmailService() *EmailService {
	return &EmailService{
		apiURL:    os.Getenv("MAIL_API_URL"),
		apiKey:    os.Getenv("MAIL_API_KEY"),
		fromEmail: os.Getenv("MAIL_FROM"),
		client: &http.Client{
			// Ограниченный таймаут, чтобы медленный провайдер
			// не задерживал обработку запроса
			Timeout: time.Second * 10,
		},
	}
}

// Send отправляет письмо на указанный адрес
func (s *EmailService) Send(to, subject, body string) error {
	if s.apiURL == "" || s.apiKey == "" {
		return fmt.Errorf("параметры почтового провайдера не настроены")
	}
	if to == "" {
		return fmt.Errorf("адрес получателя не указан")
	}

	payload := map[string]interface{}{
		"from":    s.fromEmail,
		"to":      to,
		"subject": subject,
		"html":    body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка при маршалинге письма: %w", err)
	}

	req, err := http.NewRequest("POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("ошибка при создании запроса: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка при отправке письма: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("почтовый провайдер вернул статус %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}
