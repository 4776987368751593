package models

import "time"

// ReviewRequestTTL is how long a review link stays valid.
const ReviewRequestTTL = 30 * 24 * time.Hour

// ReviewRequest is a single-use, time-limited capability for submitting
// reviews on one booking's items.
type ReviewRequest struct {
	ID        int64
	BookingID int64
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

func (r ReviewRequest) Expired(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}

func (r ReviewRequest) Used() bool {
	return r.UsedAt != nil
}

// Review selalu masuk dengan IsApproved=false; tampil publik hanya setelah
// moderasi admin.
type Review struct {
	ID            int64
	BookingItemID int64
	Rating        int
	Title         string
	Body          string
	ReviewerName  string
	IsApproved    bool
	CreatedAt     time.Time
}
