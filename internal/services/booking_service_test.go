package services

import (
	"testing"
	"time"

	"travelbook/internal/domain"
	"travelbook/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
)

// Page 2 of size 2 over 7 confirmed bookings: the count feeds the totals and
// the list query gets LIMIT/OFFSET derived from the page.
func TestAdminListPaginates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WithArgs("confirmed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("confirmed", 2, 2).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()).
			AddRow(int64(3), "CC11DD22", "Budi", "budi@example.com", "",
				100000, 100000, 0, "confirmed", "paid", "tok-3",
				nil, nil, time.Now()).
			AddRow(int64(4), "EE33FF44", "Sari", "sari@example.com", "",
				200000, 50000, 150000, "confirmed", "partial", "tok-4",
				nil, nil, time.Now()))

	svc := BookingService{BookingRepo: repositories.BookingRepository{DB: db}}

	bookings, p, err := svc.AdminList("confirmed", "", domain.Pagination{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("admin list error: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("expected 2 bookings on the page, got %d", len(bookings))
	}
	if p.Total != 7 || p.Page != 2 || p.PageSize != 2 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// Out-of-range paging params collapse to the defaults before hitting the
// database.
func TestAdminListDefaultsPaging(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()))

	svc := BookingService{BookingRepo: repositories.BookingRepository{DB: db}}

	_, p, err := svc.AdminList("", "", domain.Pagination{Page: -3, PageSize: 9999})
	if err != nil {
		t.Fatalf("admin list error: %v", err)
	}
	if p.Page != 1 || p.PageSize != 50 {
		t.Fatalf("expected defaults page=1 pageSize=50, got %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
