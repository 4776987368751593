package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PaymentType membedakan sesi deposit dan pelunasan.
type PaymentType string

const (
	PaymentTypeDeposit PaymentType = "deposit"
	PaymentTypeBalance PaymentType = "balance"
)

// CheckoutSessionInput is what we need to open a hosted payment page.
type CheckoutSessionInput struct {
	BookingID     int64
	ReferenceCode string
	Amount        int64 // whole Rupiah, dikirim apa adanya (IDR tanpa minor unit)
	Description   string
	CustomerEmail string
	PaymentType   PaymentType
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the gateway's created session.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client talks to the payment gateway REST API. Gateway SDK sengaja tidak
// dipakai; endpoint yang dibutuhkan hanya satu dan berbentuk form POST.
type Client struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

func (c Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// CreateCheckoutSession opens a hosted checkout session carrying booking id
// and payment type in metadata so the webhook can correlate it back.
func (c Client) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (CheckoutSession, error) {
	if c.SecretKey == "" {
		return CheckoutSession{}, fmt.Errorf("payment secret key belum di-set")
	}
	if in.Amount <= 0 {
		return CheckoutSession{}, fmt.Errorf("amount harus > 0")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("client_reference_id", strconv.FormatInt(in.BookingID, 10))
	form.Set("customer_email", in.CustomerEmail)
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)
	form.Set("metadata[booking_id]", strconv.FormatInt(in.BookingID, 10))
	form.Set("metadata[reference_code]", in.ReferenceCode)
	form.Set("metadata[payment_type]", string(in.PaymentType))
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", "idr")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(in.Amount, 10))
	form.Set("line_items[0][price_data][product_data][name]", in.Description)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.BaseURL, "/")+"/v1/checkout/sessions",
		strings.NewReader(form.Encode()))
	if err != nil {
		return CheckoutSession{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return CheckoutSession{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return CheckoutSession{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CheckoutSession{}, fmt.Errorf("gateway menolak checkout session: status=%d body=%s", resp.StatusCode, truncate(string(body), 300))
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return CheckoutSession{}, fmt.Errorf("response gateway tidak valid: %w", err)
	}
	if session.ID == "" || session.URL == "" {
		return CheckoutSession{}, fmt.Errorf("response gateway tidak lengkap")
	}
	return session, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
