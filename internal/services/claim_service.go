package services

import (
	"encoding/json"
	"fmt"

	"travelbook/internal/domain"
	"travelbook/internal/domain/models"
	"travelbook/internal/ratelimit"
	"travelbook/internal/repositories"
	"travelbook/internal/utils"
)

// ClaimService attaches a guest booking to an authenticated account.
// Precondition dicek berurutan; kegagalan pertama menang dan tiap mode
// punya kode error sendiri untuk pesan di client.
type ClaimService struct {
	BookingRepo repositories.BookingRepository
	EventRepo   repositories.EventRepository
	Limiter     *ratelimit.Limiter
	RequestID   string
}

func (s ClaimService) Claim(rc domain.RequestContext, referenceCode, email string) (models.Booking, error) {
	if rc.UserID <= 0 {
		return models.Booking{}, domain.UnauthorizedError{Msg: "harus login untuk klaim booking"}
	}
	if s.Limiter != nil && !s.Limiter.Allow(int64(rc.UserID)) {
		return models.Booking{}, domain.RateLimitError{Msg: "terlalu banyak percobaan klaim, coba lagi sebentar"}
	}

	booking, err := s.BookingRepo.GetByReferenceCode(referenceCode)
	if err != nil {
		return models.Booking{}, err
	}

	if utils.NormalizeEmail(email) != utils.NormalizeEmail(booking.CustomerEmail) {
		// pesan sengaja tidak menjelaskan bagian mana yang salah
		return models.Booking{}, domain.ConflictError{Resource: "booking", Code: "email_mismatch", Msg: "kombinasi kode dan email tidak cocok"}
	}

	if booking.UserID != nil {
		return models.Booking{}, domain.ConflictError{Resource: "booking", Code: "already_claimed", Msg: "booking sudah diklaim"}
	}

	if err := s.BookingRepo.Claim(booking.ID, int64(rc.UserID)); err != nil {
		return models.Booking{}, err
	}

	payload, _ := json.Marshal(map[string]any{"user_id": rc.UserID})
	if err := s.EventRepo.Append(models.BookingEvent{
		BookingID: booking.ID,
		EventType: models.EventBookingClaimed,
		Payload:   payload,
	}); err != nil && !domain.IsConflict(err) {
		utils.LogWarn(s.RequestID, "claim", "ledger", err.Error())
	}

	utils.LogEvent(s.RequestID, "claim", "claimed",
		fmt.Sprintf("booking_id=%d user_id=%d", booking.ID, rc.UserID))

	uid := int64(rc.UserID)
	booking.UserID = &uid
	return booking, nil
}
