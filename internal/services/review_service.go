package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	intconfig "travelbook/internal/config"
	"travelbook/internal/domain"
	"travelbook/internal/domain/models"
	"travelbook/internal/repositories"
	"travelbook/internal/utils"

	"github.com/google/uuid"
)

// ReviewEntry is one submitted review line.
type ReviewEntry struct {
	BookingItemID int64  `json:"booking_item_id"`
	Rating        int    `json:"rating"`
	Title         string `json:"title"`
	Body          string `json:"body"`
}

// ReviewService mengelola token review sekali pakai dan submit review.
type ReviewService struct {
	BookingRepo repositories.BookingRepository
	ItemRepo    repositories.BookingItemRepository
	ReviewRepo  repositories.ReviewRepository
	EventRepo   repositories.EventRepository
	Notifier    NotificationService
	DB          *sql.DB
	RequestID   string
	Now         func() time.Time
}

func (s ReviewService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s ReviewService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

// IssueRequest creates (or reuses) a review token for a booking and sends the
// guarded review-request email. Token lama yang masih valid dipakai ulang
// supaya link yang beredar tidak berlipat.
func (s ReviewService) IssueRequest(bookingID int64) (models.ReviewRequest, error) {
	booking, err := s.BookingRepo.GetByID(bookingID)
	if err != nil {
		return models.ReviewRequest{}, err
	}

	req, err := s.ReviewRepo.FindActiveByBookingID(bookingID, s.now())
	if err != nil {
		if !domain.IsNotFound(err) {
			return models.ReviewRequest{}, err
		}
		req = models.ReviewRequest{
			BookingID: bookingID,
			Token:     uuid.NewString(),
			ExpiresAt: s.now().Add(models.ReviewRequestTTL),
		}
		id, err := s.ReviewRepo.Insert(req)
		if err != nil {
			return models.ReviewRequest{}, err
		}
		req.ID = id
	}

	if err := s.Notifier.ReviewRequest(booking, req.Token, req.ExpiresAt); err != nil {
		utils.LogWarn(s.RequestID, "review", "notify", err.Error())
	}
	return req, nil
}

// Validate resolves a token to its booking and reviewable items.
// Expiry dicek lazy di sini, tidak ada background sweep.
func (s ReviewService) Validate(token string) (models.ReviewRequest, models.Booking, []models.BookingItem, error) {
	req, err := s.ReviewRepo.FindByToken(utils.TrimOrEmpty(token))
	if err != nil {
		return models.ReviewRequest{}, models.Booking{}, nil, err
	}
	if req.Used() {
		return models.ReviewRequest{}, models.Booking{}, nil,
			domain.ConflictError{Resource: "review request", Code: "review_already_used", Msg: "link review sudah digunakan"}
	}
	if req.Expired(s.now()) {
		return models.ReviewRequest{}, models.Booking{}, nil,
			domain.ConflictError{Resource: "review request", Code: "review_expired", Msg: "link review sudah kedaluwarsa"}
	}

	booking, err := s.BookingRepo.GetByID(req.BookingID)
	if err != nil {
		return models.ReviewRequest{}, models.Booking{}, nil, err
	}
	items, err := s.ItemRepo.ListByBookingID(req.BookingID)
	if err != nil {
		return models.ReviewRequest{}, models.Booking{}, nil, err
	}
	return req, booking, items, nil
}

// Submit validates the token and entries, then writes reviews and consumes
// the token in one transaction. Review selalu masuk unapproved.
func (s ReviewService) Submit(token string, entries []ReviewEntry) error {
	req, booking, items, err := s.Validate(token)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return domain.ValidationError{Field: "reviews", Msg: "tidak ada review yang dikirim"}
	}

	owned := make(map[int64]bool, len(items))
	for _, it := range items {
		owned[it.ID] = true
	}
	for i, e := range entries {
		if !owned[e.BookingItemID] {
			// tolak injeksi item milik booking lain
			return domain.ValidationError{Field: fmt.Sprintf("reviews[%d]", i), Msg: "item bukan bagian dari booking ini"}
		}
		if e.Rating < 1 || e.Rating > 5 {
			return domain.ValidationError{Field: fmt.Sprintf("reviews[%d].rating", i), Msg: "rating harus 1 sampai 5"}
		}
	}

	tx, err := s.db().Begin()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	for _, e := range entries {
		rv := models.Review{
			BookingItemID: e.BookingItemID,
			Rating:        e.Rating,
			Title:         utils.TrimOrEmpty(e.Title),
			Body:          utils.TrimOrEmpty(e.Body),
			ReviewerName:  booking.CustomerName,
		}
		if err := s.ReviewRepo.InsertReviewTx(tx, rv); err != nil {
			return err
		}
	}
	if err := s.ReviewRepo.MarkUsedTx(tx, req.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.InternalError{Err: err}
	}

	payload, _ := json.Marshal(map[string]any{
		"token":        req.Token,
		"review_count": len(entries),
	})
	if err := s.EventRepo.Append(models.BookingEvent{
		BookingID: booking.ID,
		EventType: models.EventReviewSubmitted,
		DedupKey:  req.Token,
		Payload:   payload,
	}); err != nil && !domain.IsConflict(err) {
		utils.LogWarn(s.RequestID, "review", "ledger", err.Error())
	}

	utils.LogEvent(s.RequestID, "review", "submitted",
		fmt.Sprintf("booking_id=%d count=%d", booking.ID, len(entries)))
	return nil
}
