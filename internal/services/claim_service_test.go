package services

import (
	"testing"
	"time"

	"travelbook/internal/domain"
	"travelbook/internal/ratelimit"
	"travelbook/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
)

func claimBookingRow(mock sqlmock.Sqlmock, code, email string, userID any) {
	mock.ExpectQuery("SELECT (.+) FROM bookings").WithArgs(code).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()).AddRow(
			int64(12), code, "Budi", email, "0812",
			200000, 0, 200000,
			"pending", "unpaid", "tok-12",
			userID, nil, time.Now(),
		))
}

func TestClaimHappyPath(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	claimBookingRow(mock, "AB12CD34", "budi@example.com", nil)
	mock.ExpectExec("UPDATE bookings SET user_id").
		WithArgs(int64(5), int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectLedgerTable(mock)
	mock.ExpectExec("INSERT INTO booking_events").
		WillReturnResult(sqlmock.NewResult(1, 1))

	svc := ClaimService{
		BookingRepo: repositories.BookingRepository{DB: db},
		EventRepo:   repositories.EventRepository{DB: db},
	}

	booking, err := svc.Claim(domain.RequestContext{UserID: 5}, "AB12CD34", "Budi@Example.com")
	if err != nil {
		t.Fatalf("claim error: %v", err)
	}
	if booking.UserID == nil || *booking.UserID != 5 {
		t.Fatalf("booking not attached to user, got %v", booking.UserID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClaimEmailMismatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	claimBookingRow(mock, "AB12CD34", "budi@example.com", nil)

	svc := ClaimService{BookingRepo: repositories.BookingRepository{DB: db}}

	_, err = svc.Claim(domain.RequestContext{UserID: 5}, "AB12CD34", "lain@example.com")
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if domain.ErrCode(err) != "email_mismatch" {
		t.Fatalf("expected email_mismatch code, got %q", domain.ErrCode(err))
	}
}

func TestClaimAlreadyClaimed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	claimBookingRow(mock, "AB12CD34", "budi@example.com", int64(77))

	svc := ClaimService{BookingRepo: repositories.BookingRepository{DB: db}}

	_, err = svc.Claim(domain.RequestContext{UserID: 5}, "AB12CD34", "budi@example.com")
	if domain.ErrCode(err) != "already_claimed" {
		t.Fatalf("expected already_claimed, got %v", err)
	}
}

func TestClaimRequiresLogin(t *testing.T) {
	svc := ClaimService{}
	_, err := svc.Claim(domain.RequestContext{}, "AB12CD34", "budi@example.com")
	if !domain.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestClaimRateLimited(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	limiter := ratelimit.New(5, time.Minute)
	base := time.Unix(1_700_000_000, 0)
	limiter.SetClock(func() time.Time { return base })

	// five lookups fail on the wrong email, the sixth attempt never reaches the db
	for i := 0; i < 5; i++ {
		claimBookingRow(mock, "AB12CD34", "budi@example.com", nil)
	}

	svc := ClaimService{
		BookingRepo: repositories.BookingRepository{DB: db},
		Limiter:     limiter,
	}

	for i := 0; i < 5; i++ {
		if _, err := svc.Claim(domain.RequestContext{UserID: 5}, "AB12CD34", "salah@example.com"); !domain.IsConflict(err) {
			t.Fatalf("attempt %d: expected conflict, got %v", i+1, err)
		}
	}
	_, err = svc.Claim(domain.RequestContext{UserID: 5}, "AB12CD34", "budi@example.com")
	if !domain.IsRateLimit(err) {
		t.Fatalf("expected rate limit, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
