package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"travelbook/internal/domain"
	"travelbook/internal/payments"
	"travelbook/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
)

var errTestDown = errors.New("db down")

func fakeGateway(t *testing.T, capture *map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("gateway form parse: %v", err)
		}
		if capture != nil {
			m := map[string]string{}
			for k := range r.PostForm {
				m[k] = r.PostForm.Get(k)
			}
			*capture = m
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_ok","url":"https://pay.example/cs_test_ok"}`))
	}))
}

func expectBookingsTable(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("information_schema\\.tables").WithArgs("bookings").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("bookings"))
	mock.ExpectQuery("information_schema\\.columns").WithArgs("bookings", "public_view_token").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("public_view_token"))
}

func expectItemsTable(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("information_schema\\.tables").WithArgs("booking_items").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("booking_items"))
}

func TestCheckoutCreatesBookingAndSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	var form map[string]string
	gw := fakeGateway(t, &form)
	defer gw.Close()

	expectBookingsTable(mock)
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(31, 1))

	expectItemsTable(mock)
	mock.ExpectExec("INSERT INTO booking_items").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO booking_items").
		WillReturnResult(sqlmock.NewResult(2, 1))

	expectLedgerTable(mock)
	mock.ExpectExec("INSERT INTO booking_events").
		WillReturnResult(sqlmock.NewResult(1, 1))

	// notification guard lookup + its ledger row
	expectLedgerTable(mock)
	mock.ExpectQuery("SELECT 1 FROM booking_events").
		WithArgs(int64(31), "email_sent", "booking_received").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	expectLedgerTable(mock)
	mock.ExpectExec("INSERT INTO booking_events").
		WillReturnResult(sqlmock.NewResult(2, 1))

	svc := CheckoutService{
		BookingRepo: repositories.BookingRepository{DB: db},
		ItemRepo:    repositories.BookingItemRepository{DB: db},
		EventRepo:   repositories.EventRepository{DB: db},
		Notifier: NotificationService{
			EventRepo:    repositories.EventRepository{DB: db},
			SettingsRepo: repositories.SettingsRepository{DB: db},
			Mailer:       &fakeMailer{},
			AppBaseURL:   "https://travel.example",
		},
		Payments:   payments.Client{BaseURL: gw.URL, SecretKey: "sk_test"},
		SuccessURL: "https://travel.example/sukses",
		CancelURL:  "https://travel.example/batal",
	}

	res, err := svc.CreateBooking(context.Background(), CheckoutInput{
		CustomerName:  "Budi",
		CustomerEmail: "Budi@Example.com",
		DepositChoice: 25,
		Items: []CheckoutItemInput{
			{ProductType: "tour", Title: "Bromo Sunrise", TripDate: "2026-09-10", PassengerCount: 2, UnitPrice: 150000, Quantity: 2},
			{ProductType: "transfer", Title: "Antar Bandara", UnitPrice: 100000},
		},
	}, nil)
	if err != nil {
		t.Fatalf("checkout error: %v", err)
	}

	// 2x150000 + 100000 = 400000 total, 25% deposit = 100000
	if res.Booking.TotalAmount != 400000 {
		t.Fatalf("total = %d, want 400000", res.Booking.TotalAmount)
	}
	if res.Charge != 100000 {
		t.Fatalf("charge = %d, want 100000", res.Charge)
	}
	if res.CheckoutURL != "https://pay.example/cs_test_ok" {
		t.Fatalf("unexpected checkout url %q", res.CheckoutURL)
	}
	if len(res.Booking.ReferenceCode) != 8 {
		t.Fatalf("reference code %q should be 8 chars", res.Booking.ReferenceCode)
	}
	if form["metadata[payment_type]"] != "deposit" {
		t.Fatalf("session payment_type = %q", form["metadata[payment_type]"])
	}
	if form["metadata[booking_id]"] != "31" {
		t.Fatalf("session booking_id = %q", form["metadata[booking_id]"])
	}
	if form["line_items[0][price_data][unit_amount]"] != "100000" {
		t.Fatalf("session amount = %q", form["line_items[0][price_data][unit_amount]"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCheckoutValidation(t *testing.T) {
	svc := CheckoutService{}
	cases := []CheckoutInput{
		{CustomerEmail: "a@b.c", DepositChoice: 25, Items: []CheckoutItemInput{{ProductType: "tour", Title: "X", UnitPrice: 100}}},
		{CustomerName: "Budi", CustomerEmail: "bukan-email", DepositChoice: 25, Items: []CheckoutItemInput{{ProductType: "tour", Title: "X", UnitPrice: 100}}},
		{CustomerName: "Budi", CustomerEmail: "a@b.c", DepositChoice: 30, Items: []CheckoutItemInput{{ProductType: "tour", Title: "X", UnitPrice: 100}}},
		{CustomerName: "Budi", CustomerEmail: "a@b.c", DepositChoice: 25},
		{CustomerName: "Budi", CustomerEmail: "a@b.c", DepositChoice: 25, Items: []CheckoutItemInput{{ProductType: "hotel", Title: "X", UnitPrice: 100}}},
		{CustomerName: "Budi", CustomerEmail: "a@b.c", DepositChoice: 25, Items: []CheckoutItemInput{{ProductType: "tour", Title: "X", UnitPrice: 0}}},
	}
	for i, in := range cases {
		if _, err := svc.CreateBooking(context.Background(), in, nil); !domain.IsValidation(err) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

// Item insert failure deletes the fresh booking so no empty shell survives.
func TestCheckoutCompensatesOnItemFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	expectBookingsTable(mock)
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(44, 1))

	expectItemsTable(mock)
	mock.ExpectExec("INSERT INTO booking_items").
		WillReturnError(errTestDown)

	mock.ExpectExec("DELETE FROM bookings").
		WithArgs(int64(44)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := CheckoutService{
		BookingRepo: repositories.BookingRepository{DB: db},
		ItemRepo:    repositories.BookingItemRepository{DB: db},
		EventRepo:   repositories.EventRepository{DB: db},
	}

	_, err = svc.CreateBooking(context.Background(), CheckoutInput{
		CustomerName:  "Budi",
		CustomerEmail: "budi@example.com",
		DepositChoice: 50,
		Items:         []CheckoutItemInput{{ProductType: "tour", Title: "Bromo", UnitPrice: 100000}},
	}, nil)
	if err == nil {
		t.Fatalf("expected error from item insert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("compensating delete not executed: %v", err)
	}
}

func TestBalanceSessionRequiresAccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery("SELECT (.+) FROM bookings").WithArgs(int64(8)).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns()).AddRow(
				int64(8), "KK77LL88", "Sari", "sari@example.com", "",
				200000, 50000, 150000,
				"confirmed", "partial", "tok-8",
				nil, nil, time.Now(),
			))
	}

	var form map[string]string
	gw := fakeGateway(t, &form)
	defer gw.Close()

	svc := CheckoutService{
		BookingRepo: repositories.BookingRepository{DB: db},
		Payments:    payments.Client{BaseURL: gw.URL, SecretKey: "sk_test"},
	}

	if _, err := svc.CreateBalanceSession(context.Background(), 8, "token-salah", domain.RequestContext{}); !domain.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	res, err := svc.CreateBalanceSession(context.Background(), 8, "tok-8", domain.RequestContext{})
	if err != nil {
		t.Fatalf("balance session error: %v", err)
	}
	if res.Charge != 150000 {
		t.Fatalf("charge = %d, want 150000", res.Charge)
	}
	if form["metadata[payment_type]"] != "balance" {
		t.Fatalf("session payment_type = %q", form["metadata[payment_type]"])
	}
}
