package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Message is one outbound transactional email.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

// Mailer sends transactional email. Implementasi HTTP dipakai di produksi,
// fake di test.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// APIMailer posts to a transactional email HTTP API.
type APIMailer struct {
	BaseURL string
	APIKey  string
	From    string
	HTTP    *http.Client
}

func (m APIMailer) httpClient() *http.Client {
	if m.HTTP != nil {
		return m.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (m APIMailer) Send(ctx context.Context, msg Message) error {
	if m.APIKey == "" {
		return fmt.Errorf("mail api key belum di-set")
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("penerima kosong")
	}

	payload := struct {
		From string `json:"from"`
		Message
	}{From: m.From, Message: msg}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(m.BaseURL, "/")+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("email api status=%d body=%s", resp.StatusCode, string(raw))
	}
	return nil
}

// NoopMailer logs instead of sending; dipakai saat mail.enabled=false.
type NoopMailer struct{}

func (NoopMailer) Send(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"to":      strings.Join(msg.To, ","),
		"subject": msg.Subject,
	}).Info("mailer disabled, skip send")
	return nil
}
