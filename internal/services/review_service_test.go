package services

import (
	"testing"
	"time"

	"travelbook/internal/domain"
	"travelbook/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
)

func expectReviewTables(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("information_schema\\.tables").WithArgs("review_requests").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("review_requests"))
	mock.ExpectQuery("information_schema\\.tables").WithArgs("reviews").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("reviews"))
}

func reviewRequestRow(token string, expiresAt time.Time, usedAt any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "booking_id", "token", "expires_at", "used_at", "created_at"}).
		AddRow(int64(3), int64(21), token, expiresAt, usedAt, time.Now())
}

func itemRowColumns() []string {
	return []string{
		"id", "booking_id", "product_type", "title", "trip_date", "passenger_count",
		"luggage_count", "pickup_location", "dropoff_location", "unit_price", "quantity",
	}
}

func TestReviewSubmitHappyPath(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	now := time.Unix(1_700_000_000, 0)
	token := "tok-review-1"

	expectReviewTables(mock)
	mock.ExpectQuery("SELECT (.+) FROM review_requests").WithArgs(token).
		WillReturnRows(reviewRequestRow(token, now.Add(24*time.Hour), nil))

	mock.ExpectQuery("SELECT (.+) FROM bookings").WithArgs(int64(21)).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()).AddRow(
			int64(21), "RR55TT66", "Sari", "sari@example.com", "",
			300000, 300000, 0,
			"completed", "paid", "tok-21",
			nil, nil, time.Now(),
		))

	mock.ExpectQuery("SELECT (.+) FROM booking_items").WithArgs(int64(21)).
		WillReturnRows(sqlmock.NewRows(itemRowColumns()).
			AddRow(int64(101), int64(21), "tour", "Bromo Sunrise", "2026-08-01", 2, 0, "", "", 150000, 2))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(int64(101), 5, "Mantap", "Pemandangan luar biasa", "Sari").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE review_requests SET used_at").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expectLedgerTable(mock)
	mock.ExpectExec("INSERT INTO booking_events").
		WillReturnResult(sqlmock.NewResult(1, 1))

	svc := ReviewService{
		BookingRepo: repositories.BookingRepository{DB: db},
		ItemRepo:    repositories.BookingItemRepository{DB: db},
		ReviewRepo:  repositories.ReviewRepository{DB: db},
		EventRepo:   repositories.EventRepository{DB: db},
		DB:          db,
		Now:         func() time.Time { return now },
	}

	err = svc.Submit(token, []ReviewEntry{
		{BookingItemID: 101, Rating: 5, Title: "Mantap", Body: "Pemandangan luar biasa"},
	})
	if err != nil {
		t.Fatalf("submit error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewUsedTokenRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	now := time.Unix(1_700_000_000, 0)
	token := "tok-used"

	expectReviewTables(mock)
	mock.ExpectQuery("SELECT (.+) FROM review_requests").WithArgs(token).
		WillReturnRows(reviewRequestRow(token, now.Add(24*time.Hour), now.Add(-time.Hour)))

	svc := ReviewService{
		ReviewRepo: repositories.ReviewRepository{DB: db},
		DB:         db,
		Now:        func() time.Time { return now },
	}

	_, _, _, err = svc.Validate(token)
	if domain.ErrCode(err) != "review_already_used" {
		t.Fatalf("expected review_already_used, got %v", err)
	}
}

func TestReviewExpiredTokenRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	now := time.Unix(1_700_000_000, 0)
	token := "tok-old"

	expectReviewTables(mock)
	mock.ExpectQuery("SELECT (.+) FROM review_requests").WithArgs(token).
		WillReturnRows(reviewRequestRow(token, now.Add(-time.Minute), nil))

	svc := ReviewService{
		ReviewRepo: repositories.ReviewRepository{DB: db},
		DB:         db,
		Now:        func() time.Time { return now },
	}

	_, _, _, err = svc.Validate(token)
	if domain.ErrCode(err) != "review_expired" {
		t.Fatalf("expected review_expired, got %v", err)
	}
}

// Ratings outside 1..5 are rejected as validation errors before the
// transaction opens.
func TestReviewRatingBoundsRejected(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	token := "tok-review-3"

	for _, rating := range []int{0, 6} {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock init error: %v", err)
		}
		mock.MatchExpectationsInOrder(false)

		expectReviewTables(mock)
		mock.ExpectQuery("SELECT (.+) FROM review_requests").WithArgs(token).
			WillReturnRows(reviewRequestRow(token, now.Add(24*time.Hour), nil))
		mock.ExpectQuery("SELECT (.+) FROM bookings").WithArgs(int64(21)).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns()).AddRow(
				int64(21), "RR55TT66", "Sari", "sari@example.com", "",
				300000, 300000, 0,
				"completed", "paid", "tok-21",
				nil, nil, time.Now(),
			))
		mock.ExpectQuery("SELECT (.+) FROM booking_items").WithArgs(int64(21)).
			WillReturnRows(sqlmock.NewRows(itemRowColumns()).
				AddRow(int64(101), int64(21), "tour", "Bromo Sunrise", "2026-08-01", 2, 0, "", "", 150000, 2))

		svc := ReviewService{
			BookingRepo: repositories.BookingRepository{DB: db},
			ItemRepo:    repositories.BookingItemRepository{DB: db},
			ReviewRepo:  repositories.ReviewRepository{DB: db},
			DB:          db,
			Now:         func() time.Time { return now },
		}

		err = svc.Submit(token, []ReviewEntry{{BookingItemID: 101, Rating: rating}})
		if !domain.IsValidation(err) {
			t.Fatalf("rating %d: expected validation error, got %v", rating, err)
		}
		db.Close()
	}
}

// An item id outside the booking is rejected before anything is written.
func TestReviewForeignItemRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	now := time.Unix(1_700_000_000, 0)
	token := "tok-review-2"

	expectReviewTables(mock)
	mock.ExpectQuery("SELECT (.+) FROM review_requests").WithArgs(token).
		WillReturnRows(reviewRequestRow(token, now.Add(24*time.Hour), nil))
	mock.ExpectQuery("SELECT (.+) FROM bookings").WithArgs(int64(21)).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()).AddRow(
			int64(21), "RR55TT66", "Sari", "sari@example.com", "",
			300000, 300000, 0,
			"completed", "paid", "tok-21",
			nil, nil, time.Now(),
		))
	mock.ExpectQuery("SELECT (.+) FROM booking_items").WithArgs(int64(21)).
		WillReturnRows(sqlmock.NewRows(itemRowColumns()).
			AddRow(int64(101), int64(21), "tour", "Bromo Sunrise", "2026-08-01", 2, 0, "", "", 150000, 2))

	svc := ReviewService{
		BookingRepo: repositories.BookingRepository{DB: db},
		ItemRepo:    repositories.BookingItemRepository{DB: db},
		ReviewRepo:  repositories.ReviewRepository{DB: db},
		DB:          db,
		Now:         func() time.Time { return now },
	}

	err = svc.Submit(token, []ReviewEntry{{BookingItemID: 999, Rating: 4}})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
