package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"travelbook/internal/domain"
	"travelbook/internal/domain/models"
	"travelbook/internal/mailer"
	"travelbook/internal/repositories"
	"travelbook/internal/utils"
)

// NotificationService mengirim tepat satu email per (booking, jenis event),
// atau per (booking, jenis, sub-key) untuk event yang sah berulang seperti
// pembayaran parsial. Guard-nya ledger booking_events.
type NotificationService struct {
	EventRepo    repositories.EventRepository
	SettingsRepo repositories.SettingsRepository
	Mailer       mailer.Mailer
	AdminEmail   string
	AppBaseURL   string
	RequestID    string
}

func (s NotificationService) BookingReceived(b models.Booking, items []models.BookingItem) error {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("<li>%s (%s): %s</li>", it.Title, it.ProductType, utils.FormatRupiah(it.Subtotal())))
	}
	html := fmt.Sprintf(`
		<p>Halo %s,</p>
		<p>Pesanan Anda dengan kode <b>%s</b> sudah kami terima.</p>
		<ul>%s</ul>
		<p>Total: <b>%s</b></p>
		<p>Status booking bisa dicek di <a href="%s">halaman booking Anda</a>.</p>`,
		b.CustomerName, b.ReferenceCode, strings.Join(lines, ""),
		utils.FormatRupiah(b.TotalAmount), s.bookingURL(b))
	return s.dispatch(b, models.EventBookingReceived, "",
		"Booking "+b.ReferenceCode+" diterima", html)
}

func (s NotificationService) BookingConfirmed(b models.Booking) error {
	html := fmt.Sprintf(`
		<p>Halo %s,</p>
		<p>Booking <b>%s</b> sudah dikonfirmasi. Sampai jumpa di perjalanan!</p>
		<p>Detail: <a href="%s">halaman booking Anda</a>.</p>`,
		b.CustomerName, b.ReferenceCode, s.bookingURL(b))
	return s.dispatch(b, models.EventBookingConfirmed, "",
		"Booking "+b.ReferenceCode+" dikonfirmasi", html)
}

func (s NotificationService) BookingCancelled(b models.Booking) error {
	html := fmt.Sprintf(`
		<p>Halo %s,</p>
		<p>Booking <b>%s</b> dibatalkan. Hubungi kami bila ini tidak sesuai.</p>`,
		b.CustomerName, b.ReferenceCode)
	return s.dispatch(b, models.EventBookingCancelled, "",
		"Booking "+b.ReferenceCode+" dibatalkan", html)
}

func (s NotificationService) PaymentMarkedPaid(b models.Booking) error {
	html := fmt.Sprintf(`
		<p>Halo %s,</p>
		<p>Pembayaran booking <b>%s</b> sudah lunas (%s).</p>`,
		b.CustomerName, b.ReferenceCode, utils.FormatRupiah(b.TotalAmount))
	return s.dispatch(b, models.EventPaymentMarkedPaid, "",
		"Pembayaran booking "+b.ReferenceCode+" lunas", html)
}

// PaymentReceived dedups per payment intent: beberapa pembayaran parsial
// memang boleh masing-masing dapat satu email.
func (s NotificationService) PaymentReceived(b models.Booking, paymentIntentID string, amount int64) error {
	html := fmt.Sprintf(`
		<p>Halo %s,</p>
		<p>Kami menerima pembayaran <b>%s</b> untuk booking <b>%s</b>.</p>
		<p>Sudah dibayar: %s. Sisa: %s.</p>`,
		b.CustomerName, utils.FormatRupiah(amount), b.ReferenceCode,
		utils.FormatRupiah(b.AmountPaid), utils.FormatRupiah(b.RemainingAmount))
	return s.dispatch(b, models.EventPaymentRecorded, paymentIntentID,
		"Pembayaran diterima untuk booking "+b.ReferenceCode, html)
}

func (s NotificationService) ReviewRequest(b models.Booking, token string, expiresAt time.Time) error {
	link := strings.TrimRight(s.AppBaseURL, "/") + "/review/" + token
	html := fmt.Sprintf(`
		<p>Halo %s,</p>
		<p>Terima kasih sudah jalan bersama kami! Ceritakan pengalaman Anda
		lewat <a href="%s">link review ini</a>. Link berlaku sampai %s.</p>`,
		b.CustomerName, link, utils.FormatDate(expiresAt))
	return s.dispatch(b, models.EventReviewRequested, token,
		"Bagaimana perjalanan Anda? ("+b.ReferenceCode+")", html)
}

// dispatch applies the uniform guard: cek ledger -> kirim -> catat ledger.
// Dedup key di ledger memakai "<event>/<subkey>" dalam namespace email_sent.
func (s NotificationService) dispatch(b models.Booking, kind models.EventType, subKey, subject, html string) error {
	dedup := string(kind)
	if subKey != "" {
		dedup += "/" + subKey
	}

	sent, err := s.EventRepo.HasEvent(b.ID, models.EventEmailSent, dedup)
	if err != nil {
		return err
	}
	if sent {
		utils.LogEvent(s.RequestID, "notify", string(kind), fmt.Sprintf("booking_id=%d sudah terkirim, skip", b.ID))
		return nil
	}

	recipients := s.recipients(b, kind)
	if len(recipients) == 0 {
		utils.LogEvent(s.RequestID, "notify", string(kind), fmt.Sprintf("booking_id=%d semua audience nonaktif, skip", b.ID))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	msg := mailer.Message{
		To:      recipients,
		Subject: subject,
		HTML:    html,
		Text:    stripTags(html),
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return err
	}

	payload, _ := json.Marshal(map[string]any{
		"kind":       string(kind),
		"recipients": recipients,
		"subject":    subject,
	})
	if err := s.EventRepo.Append(models.BookingEvent{
		BookingID: b.ID,
		EventType: models.EventEmailSent,
		DedupKey:  dedup,
		Payload:   payload,
	}); err != nil {
		if domain.IsConflict(err) {
			// ada pengirim lain yang menang; email kadung terkirim dua kali,
			// tapi ledger tetap satu baris
			return nil
		}
		return err
	}

	utils.LogEvent(s.RequestID, "notify", string(kind),
		fmt.Sprintf("booking_id=%d to=%s", b.ID, strings.Join(recipients, ",")))
	return nil
}

func (s NotificationService) recipients(b models.Booking, kind models.EventType) []string {
	out := []string{}
	if email := strings.TrimSpace(b.CustomerEmail); email != "" && s.SettingsRepo.IsEnabled(kind, models.AudienceCustomer) {
		out = append(out, email)
	}
	if admin := strings.TrimSpace(s.AdminEmail); admin != "" && s.SettingsRepo.IsEnabled(kind, models.AudienceAdmin) {
		out = append(out, admin)
	}
	return out
}

func (s NotificationService) bookingURL(b models.Booking) string {
	return fmt.Sprintf("%s/booking/%d?token=%s", strings.TrimRight(s.AppBaseURL, "/"), b.ID, b.PublicViewToken)
}

// stripTags is a rough plain-text fallback; cukup untuk bagian text email.
func stripTags(html string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
