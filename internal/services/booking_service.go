package services

import (
	"encoding/json"
	"fmt"

	"travelbook/internal/domain"
	"travelbook/internal/domain/models"
	"travelbook/internal/repositories"
	"travelbook/internal/utils"
)

// BookingDetail is the status-page payload: booking plus items and timeline.
type BookingDetail struct {
	Booking models.Booking
	Items   []models.BookingItem
	Events  []models.BookingEvent
}

// BookingService melayani halaman status (guest/owner) dan operasi admin.
type BookingService struct {
	BookingRepo repositories.BookingRepository
	ItemRepo    repositories.BookingItemRepository
	EventRepo   repositories.EventRepository
	Notifier    NotificationService
	RequestID   string
}

// GetDetail enforces the guest URL contract: view token must match unless the
// requester is the authenticated owner or an admin.
func (s BookingService) GetDetail(bookingID int64, viewToken string, rc domain.RequestContext) (BookingDetail, error) {
	booking, err := s.BookingRepo.GetByID(bookingID)
	if err != nil {
		return BookingDetail{}, err
	}
	if !canAccessBooking(booking, viewToken, rc) {
		return BookingDetail{}, domain.UnauthorizedError{Msg: "token tidak cocok"}
	}

	items, err := s.ItemRepo.ListByBookingID(bookingID)
	if err != nil {
		return BookingDetail{}, err
	}
	events, err := s.EventRepo.ListByBookingID(bookingID)
	if err != nil {
		return BookingDetail{}, err
	}
	return BookingDetail{Booking: booking, Items: items, Events: events}, nil
}

func (s BookingService) ListForUser(rc domain.RequestContext) ([]models.Booking, error) {
	if rc.UserID <= 0 {
		return nil, domain.UnauthorizedError{Msg: "harus login"}
	}
	return s.BookingRepo.ListByUser(int64(rc.UserID))
}

// AdminList returns one admin page plus the totals for the same filters.
func (s BookingService) AdminList(bookingStatus, paymentStatus string, p domain.Pagination) ([]models.Booking, domain.Pagination, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 || p.PageSize > 200 {
		p.PageSize = 50
	}
	total, err := s.BookingRepo.CountAdmin(bookingStatus, paymentStatus)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	p.Total = total
	bookings, err := s.BookingRepo.ListAdmin(bookingStatus, paymentStatus, p.PageSize, (p.Page-1)*p.PageSize)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return bookings, p, nil
}

// SetBookingStatus applies an admin transition. Confirmed dan cancelled
// memicu notifikasi ber-guard; transisi lain cukup tercatat di ledger.
func (s BookingService) SetBookingStatus(bookingID int64, status models.BookingStatus) (models.Booking, error) {
	if !status.Valid() {
		return models.Booking{}, domain.ValidationError{Field: "booking_status", Msg: "status tidak dikenal"}
	}
	booking, err := s.BookingRepo.GetByID(bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if booking.BookingStatus == status {
		return booking, nil
	}

	if err := s.BookingRepo.UpdateBookingStatus(bookingID, status); err != nil {
		return models.Booking{}, err
	}
	prev := booking.BookingStatus
	booking.BookingStatus = status

	payload, _ := json.Marshal(map[string]any{
		"field": "booking_status",
		"from":  string(prev),
		"to":    string(status),
	})
	if err := s.EventRepo.Append(models.BookingEvent{
		BookingID: bookingID,
		EventType: models.EventStatusChanged,
		DedupKey:  "booking_status/" + string(status),
		Payload:   payload,
	}); err != nil && !domain.IsConflict(err) {
		utils.LogWarn(s.RequestID, "booking", "ledger", err.Error())
	}

	switch status {
	case models.BookingConfirmed:
		s.recordLifecycle(bookingID, models.EventBookingConfirmed)
		if err := s.Notifier.BookingConfirmed(booking); err != nil {
			utils.LogWarn(s.RequestID, "booking", "notify", err.Error())
		}
	case models.BookingCancelled:
		s.recordLifecycle(bookingID, models.EventBookingCancelled)
		if err := s.Notifier.BookingCancelled(booking); err != nil {
			utils.LogWarn(s.RequestID, "booking", "notify", err.Error())
		}
	case models.BookingPending, models.BookingCompleted:
		// tidak ada email untuk transisi ini
	}

	utils.LogEvent(s.RequestID, "booking", "status",
		fmt.Sprintf("booking_id=%d %s -> %s", bookingID, prev, status))
	return booking, nil
}

// SetPaymentStatus is the admin override (mark paid / refund / failure).
func (s BookingService) SetPaymentStatus(bookingID int64, status models.PaymentStatus) (models.Booking, error) {
	if !status.Valid() {
		return models.Booking{}, domain.ValidationError{Field: "payment_status", Msg: "status tidak dikenal"}
	}
	booking, err := s.BookingRepo.GetByID(bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if booking.PaymentStatus == status {
		return booking, nil
	}

	if err := s.BookingRepo.UpdatePaymentStatus(bookingID, status); err != nil {
		return models.Booking{}, err
	}
	prev := booking.PaymentStatus
	booking.PaymentStatus = status
	if status == models.PaymentPaid {
		booking.AmountPaid = booking.TotalAmount
		booking.RemainingAmount = 0
	}

	payload, _ := json.Marshal(map[string]any{
		"field": "payment_status",
		"from":  string(prev),
		"to":    string(status),
	})
	if err := s.EventRepo.Append(models.BookingEvent{
		BookingID: bookingID,
		EventType: models.EventStatusChanged,
		DedupKey:  "payment_status/" + string(status),
		Payload:   payload,
	}); err != nil && !domain.IsConflict(err) {
		utils.LogWarn(s.RequestID, "booking", "ledger", err.Error())
	}

	if status == models.PaymentPaid {
		s.recordLifecycle(bookingID, models.EventPaymentMarkedPaid)
		if err := s.Notifier.PaymentMarkedPaid(booking); err != nil {
			utils.LogWarn(s.RequestID, "booking", "notify", err.Error())
		}
	}

	utils.LogEvent(s.RequestID, "booking", "payment_status",
		fmt.Sprintf("booking_id=%d %s -> %s", bookingID, prev, status))
	return booking, nil
}

func (s BookingService) recordLifecycle(bookingID int64, kind models.EventType) {
	if err := s.EventRepo.Append(models.BookingEvent{
		BookingID: bookingID,
		EventType: kind,
	}); err != nil && !domain.IsConflict(err) {
		utils.LogWarn(s.RequestID, "booking", "ledger", err.Error())
	}
}
