package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is how old a webhook signature timestamp may be.
const DefaultTolerance = 5 * time.Minute

// WebhookEvent is the parsed gateway callback we care about.
type WebhookEvent struct {
	Type string          `json:"type"`
	Data WebhookData     `json:"data"`
	Raw  json.RawMessage `json:"-"`
}

type WebhookData struct {
	Object CheckoutObject `json:"object"`
}

// CheckoutObject mirrors the session object inside a
// "checkout.session.completed" event.
type CheckoutObject struct {
	ID                string            `json:"id"`
	PaymentIntent     string            `json:"payment_intent"`
	AmountTotal       int64             `json:"amount_total"`
	ClientReferenceID string            `json:"client_reference_id"`
	CustomerEmail     string            `json:"customer_email"`
	Metadata          map[string]string `json:"metadata"`
}

// BookingID resolves the correlation id from metadata first, then the
// client reference id. Returns 0 when absent (malformed event).
func (o CheckoutObject) BookingID() int64 {
	if v := strings.TrimSpace(o.Metadata["booking_id"]); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id
		}
	}
	if v := strings.TrimSpace(o.ClientReferenceID); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id
		}
	}
	return 0
}

func (o CheckoutObject) PaymentTypeOrDeposit() PaymentType {
	if t := PaymentType(strings.TrimSpace(o.Metadata["payment_type"])); t == PaymentTypeBalance {
		return PaymentTypeBalance
	}
	return PaymentTypeDeposit
}

// VerifySignature checks the gateway signature header against the raw body.
// Format header: "t=<unix>,v1=<hex hmac-sha256 dari '<unix>.<body>'>".
// Timestamp di luar toleransi ditolak untuk mencegah replay.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("webhook secret belum di-set")
	}
	if strings.TrimSpace(header) == "" {
		return fmt.Errorf("signature header kosong")
	}

	var ts int64
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("timestamp signature tidak valid")
			}
			ts = parsed
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return fmt.Errorf("signature header tidak lengkap")
	}

	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > tolerance || age < -tolerance {
		return fmt.Errorf("signature timestamp di luar toleransi")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range sigs {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return fmt.Errorf("signature tidak cocok")
}

// SignPayload builds a valid signature header; dipakai di test dan tooling.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

// ParseEvent decodes the raw webhook body.
func ParseEvent(payload []byte) (WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return WebhookEvent{}, fmt.Errorf("payload webhook tidak valid: %w", err)
	}
	ev.Raw = json.RawMessage(payload)
	return ev, nil
}
