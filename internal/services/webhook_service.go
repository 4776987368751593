package services

import (
	"encoding/json"
	"fmt"
	"time"

	"travelbook/internal/domain"
	"travelbook/internal/domain/models"
	"travelbook/internal/payments"
	"travelbook/internal/repositories"
	"travelbook/internal/utils"
)

// WebhookService memproses callback "checkout.session.completed" dari
// gateway pembayaran. Kontrak dengan gateway: jangan balas hard failure
// untuk kondisi yang retry tidak bisa perbaiki, supaya tidak terjadi badai
// retry; kegagalan seperti itu di-log lalu di-ack.
type WebhookService struct {
	BookingRepo repositories.BookingRepository
	EventRepo   repositories.EventRepository
	Notifier    NotificationService
	Secret      string
	Tolerance   time.Duration
	RequestID   string
	Now         func() time.Time
}

func (s WebhookService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// HandleEvent verifies, correlates, applies and records one webhook delivery.
// Hanya kegagalan autentikasi yang dikembalikan sebagai error.
func (s WebhookService) HandleEvent(payload []byte, signatureHeader string) error {
	if err := payments.VerifySignature(payload, signatureHeader, s.Secret, s.Tolerance, s.now()); err != nil {
		return domain.UnauthorizedError{Msg: "signature webhook tidak valid", Err: err}
	}

	ev, err := payments.ParseEvent(payload)
	if err != nil {
		// sudah terautentikasi tapi tidak bisa diparse; ack supaya gateway berhenti retry
		utils.LogWarn(s.RequestID, "webhook", "parse", err.Error())
		return nil
	}

	if ev.Type != "checkout.session.completed" {
		utils.LogEvent(s.RequestID, "webhook", "skip", "event type "+ev.Type)
		return nil
	}

	obj := ev.Data.Object
	bookingID := obj.BookingID()
	intentID := obj.PaymentIntent
	if bookingID <= 0 || intentID == "" {
		// event malformed: ack tanpa mutasi, catat anomalinya
		utils.LogWarn(s.RequestID, "webhook", "correlate",
			fmt.Sprintf("event tanpa korelasi lengkap: booking_id=%d intent=%q session=%s", bookingID, intentID, obj.ID))
		return nil
	}

	done, err := s.EventRepo.HasEvent(bookingID, models.EventPaymentRecorded, intentID)
	if err != nil {
		utils.LogWarn(s.RequestID, "webhook", "idempotency", err.Error())
		return nil
	}
	if done {
		utils.LogEvent(s.RequestID, "webhook", "duplicate",
			fmt.Sprintf("booking_id=%d intent=%s sudah diproses", bookingID, intentID))
		return nil
	}

	booking, err := s.BookingRepo.GetByID(bookingID)
	if err != nil {
		utils.LogWarn(s.RequestID, "webhook", "fetch",
			fmt.Sprintf("booking_id=%d: %v", bookingID, err))
		return nil
	}

	if obj.AmountTotal <= 0 {
		utils.LogWarn(s.RequestID, "webhook", "amount",
			fmt.Sprintf("booking_id=%d amount_total=%d, skip", bookingID, obj.AmountTotal))
		return nil
	}

	if err := booking.ApplyPayment(obj.AmountTotal); err != nil {
		utils.LogWarn(s.RequestID, "webhook", "apply", err.Error())
		return nil
	}

	// ledger dulu, saldo kemudian: unique key di booking_events adalah
	// penentu. Delivery kembar yang lolos pre-check bersamaan berhenti di
	// sini, sebelum sempat menyentuh saldo booking.
	ledger, _ := json.Marshal(map[string]any{
		"payment_intent": intentID,
		"session_id":     obj.ID,
		"payment_type":   string(obj.PaymentTypeOrDeposit()),
		"amount":         obj.AmountTotal,
		"amount_paid":    booking.AmountPaid,
		"remaining":      booking.RemainingAmount,
	})
	if err := s.EventRepo.Append(models.BookingEvent{
		BookingID: booking.ID,
		EventType: models.EventPaymentRecorded,
		DedupKey:  intentID,
		Payload:   ledger,
	}); err != nil {
		if domain.IsConflict(err) {
			utils.LogEvent(s.RequestID, "webhook", "duplicate",
				fmt.Sprintf("booking_id=%d intent=%s kalah race, booking tidak disentuh", bookingID, intentID))
			return nil
		}
		utils.LogWarn(s.RequestID, "webhook", "ledger", err.Error())
		return nil
	}

	if err := s.BookingRepo.ApplyPayment(booking.ID, booking.AmountPaid, booking.RemainingAmount, booking.PaymentStatus); err != nil {
		// ledger sudah tercatat, retry gateway bakal di-skip: kegagalan di
		// sini butuh rekonsiliasi manual
		utils.LogWarn(s.RequestID, "webhook", "update",
			fmt.Sprintf("booking_id=%d intent=%s: %v", bookingID, intentID, err))
		return nil
	}

	// email gagal tidak boleh menggagalkan ack webhook
	if err := s.Notifier.PaymentReceived(booking, intentID, obj.AmountTotal); err != nil {
		utils.LogWarn(s.RequestID, "webhook", "notify", err.Error())
	}

	utils.LogEvent(s.RequestID, "webhook", "recorded",
		fmt.Sprintf("booking_id=%d intent=%s amount=%d paid=%d remaining=%d status=%s",
			booking.ID, intentID, obj.AmountTotal, booking.AmountPaid, booking.RemainingAmount, booking.PaymentStatus))
	return nil
}
