package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	intconfig "travelbook/internal/config"
	intdb "travelbook/internal/db"
	"travelbook/internal/domain"
	"travelbook/internal/domain/models"
)

type BookingRepository struct {
	DB *sql.DB
}

func (r BookingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// EnsureSchema creates the bookings table when missing. Reference code and
// public token both carry unique keys; kode tidak lagi dipercaya dari client.
func (r BookingRepository) EnsureSchema() error {
	db := r.db()
	if db == nil {
		return fmt.Errorf("db tidak tersedia")
	}
	if intdb.HasTable(db, "bookings") {
		// tabel dari versi lama belum punya public token; tambahkan tanpa
		// migrasi penuh
		if !intdb.HasColumn(db, "bookings", "public_view_token") {
			_, err := db.Exec(`
				ALTER TABLE bookings
				ADD COLUMN public_view_token VARCHAR(64) NOT NULL DEFAULT '',
				ADD UNIQUE KEY uniq_public_token (public_view_token)`)
			return err
		}
		return nil
	}
	ddl := `
CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	reference_code VARCHAR(16) NOT NULL,
	customer_name VARCHAR(255) NOT NULL,
	customer_email VARCHAR(255) NOT NULL,
	customer_phone VARCHAR(100) NOT NULL DEFAULT '',
	total_amount BIGINT NOT NULL DEFAULT 0,
	amount_paid BIGINT NOT NULL DEFAULT 0,
	remaining_amount BIGINT NOT NULL DEFAULT 0,
	booking_status VARCHAR(20) NOT NULL DEFAULT 'pending',
	payment_status VARCHAR(20) NOT NULL DEFAULT 'unpaid',
	public_view_token VARCHAR(64) NOT NULL,
	user_id BIGINT NULL,
	last_action_at TIMESTAMP NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_reference_code (reference_code),
	UNIQUE KEY uniq_public_token (public_view_token),
	KEY idx_user (user_id),
	KEY idx_status (booking_status, payment_status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`
	_, err := db.Exec(ddl)
	return err
}

// Create inserts a new pending/unpaid booking and returns its id.
func (r BookingRepository) Create(b models.Booking) (int64, error) {
	if err := r.EnsureSchema(); err != nil {
		return 0, domain.InternalError{Err: err}
	}
	res, err := r.db().Exec(`
		INSERT INTO bookings
			(reference_code, customer_name, customer_email, customer_phone,
			 total_amount, amount_paid, remaining_amount,
			 booking_status, payment_status, public_view_token, user_id, last_action_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, NOW())
	`,
		b.ReferenceCode, b.CustomerName, b.CustomerEmail, b.CustomerPhone,
		b.TotalAmount, b.TotalAmount,
		string(models.BookingPending), string(models.PaymentUnpaid),
		b.PublicViewToken, nullableID(b.UserID),
	)
	if err != nil {
		if IsDuplicateKey(err) {
			return 0, domain.ConflictError{Resource: "booking", Code: "reference_collision", Msg: "kode referensi bentrok", Err: err}
		}
		return 0, domain.InternalError{Err: err}
	}
	return res.LastInsertId()
}

func (r BookingRepository) GetByID(id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "id", Msg: "id tidak valid"}
	}
	return r.getOne(`WHERE id=?`, id)
}

func (r BookingRepository) GetByReferenceCode(code string) (models.Booking, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return models.Booking{}, domain.ValidationError{Field: "reference_code", Msg: "kode kosong"}
	}
	return r.getOne(`WHERE reference_code=?`, code)
}

func (r BookingRepository) getOne(where string, args ...any) (models.Booking, error) {
	var (
		b      models.Booking
		userID sql.NullInt64
		lastAt sql.NullTime
		bs, ps string
	)
	err := r.db().QueryRow(`
		SELECT id, reference_code, customer_name, customer_email, customer_phone,
		       total_amount, amount_paid, remaining_amount,
		       booking_status, payment_status, public_view_token,
		       user_id, last_action_at, created_at
		FROM bookings `+where+` LIMIT 1`, args...).Scan(
		&b.ID, &b.ReferenceCode, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.TotalAmount, &b.AmountPaid, &b.RemainingAmount,
		&bs, &ps, &b.PublicViewToken,
		&userID, &lastAt, &b.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return models.Booking{}, domain.InternalError{Err: err}
	}
	b.BookingStatus = models.BookingStatus(bs)
	b.PaymentStatus = models.PaymentStatus(ps)
	if userID.Valid {
		v := userID.Int64
		b.UserID = &v
	}
	if lastAt.Valid {
		b.LastActionAt = lastAt.Time
	}
	return b, nil
}

// ApplyPayment persists the three monetary fields, derived payment status and
// last_action_at in one UPDATE.
func (r BookingRepository) ApplyPayment(id, paid, remaining int64, status models.PaymentStatus) error {
	if id <= 0 {
		return domain.ValidationError{Field: "id", Msg: "id tidak valid"}
	}
	_, err := r.db().Exec(`
		UPDATE bookings
		SET amount_paid=?, remaining_amount=?, payment_status=?, last_action_at=NOW()
		WHERE id=?`,
		paid, remaining, string(status), id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// UpdateBookingStatus sets booking_status after an exhaustiveness check.
func (r BookingRepository) UpdateBookingStatus(id int64, status models.BookingStatus) error {
	if !status.Valid() {
		return domain.ValidationError{Field: "booking_status", Msg: "status tidak dikenal"}
	}
	res, err := r.db().Exec(`
		UPDATE bookings SET booking_status=?, last_action_at=NOW() WHERE id=?`,
		string(status), id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(id); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePaymentStatus is the admin override path (refund, failure, mark paid).
func (r BookingRepository) UpdatePaymentStatus(id int64, status models.PaymentStatus) error {
	if !status.Valid() {
		return domain.ValidationError{Field: "payment_status", Msg: "status tidak dikenal"}
	}
	sets := []string{"payment_status=?", "last_action_at=NOW()"}
	args := []any{string(status)}
	if status == models.PaymentPaid {
		// invariant: paid iff remaining == 0
		sets = append(sets, "amount_paid=total_amount", "remaining_amount=0")
	}
	args = append(args, id)
	_, err := r.db().Exec(`UPDATE bookings SET `+strings.Join(sets, ",")+` WHERE id=?`, args...)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// Claim attaches a guest booking to a user. The user_id IS NULL guard makes
// the claim atomic; zero rows affected means someone else got there first.
func (r BookingRepository) Claim(id, userID int64) error {
	res, err := r.db().Exec(`
		UPDATE bookings SET user_id=?, last_action_at=NOW()
		WHERE id=? AND user_id IS NULL`, userID, id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ConflictError{Resource: "booking", Code: "already_claimed", Msg: "booking sudah diklaim"}
	}
	return nil
}

// Delete is the compensating path when item inserts fail after booking create.
func (r BookingRepository) Delete(id int64) error {
	_, err := r.db().Exec(`DELETE FROM bookings WHERE id=?`, id)
	return err
}

func (r BookingRepository) ListByUser(userID int64) ([]models.Booking, error) {
	return r.list(`WHERE user_id=? ORDER BY created_at DESC`, userID)
}

// CountAdmin returns the total row count for the admin filters.
func (r BookingRepository) CountAdmin(bookingStatus, paymentStatus string) (int, error) {
	where, args := adminFilters(bookingStatus, paymentStatus)
	var total int
	err := r.db().QueryRow(`SELECT COUNT(*) FROM bookings WHERE `+where, args...).Scan(&total)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	return total, nil
}

// ListAdmin filters by either status when provided and returns one page.
func (r BookingRepository) ListAdmin(bookingStatus, paymentStatus string, limit, offset int) ([]models.Booking, error) {
	where, args := adminFilters(bookingStatus, paymentStatus)
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	return r.list(`WHERE `+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`, args...)
}

func adminFilters(bookingStatus, paymentStatus string) (string, []any) {
	where := []string{"1=1"}
	args := []any{}
	if s := strings.TrimSpace(bookingStatus); s != "" {
		where = append(where, "booking_status=?")
		args = append(args, s)
	}
	if s := strings.TrimSpace(paymentStatus); s != "" {
		where = append(where, "payment_status=?")
		args = append(args, s)
	}
	return strings.Join(where, " AND "), args
}

func (r BookingRepository) list(tail string, args ...any) ([]models.Booking, error) {
	rows, err := r.db().Query(`
		SELECT id, reference_code, customer_name, customer_email, customer_phone,
		       total_amount, amount_paid, remaining_amount,
		       booking_status, payment_status, public_view_token,
		       user_id, last_action_at, created_at
		FROM bookings `+tail, args...)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		var (
			b      models.Booking
			userID sql.NullInt64
			lastAt sql.NullTime
			bs, ps string
		)
		if err := rows.Scan(
			&b.ID, &b.ReferenceCode, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
			&b.TotalAmount, &b.AmountPaid, &b.RemainingAmount,
			&bs, &ps, &b.PublicViewToken,
			&userID, &lastAt, &b.CreatedAt,
		); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		b.BookingStatus = models.BookingStatus(bs)
		b.PaymentStatus = models.PaymentStatus(ps)
		if userID.Valid {
			v := userID.Int64
			b.UserID = &v
		}
		if lastAt.Valid {
			b.LastActionAt = lastAt.Time
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func nullableID(id *int64) any {
	if id == nil || *id <= 0 {
		return nil
	}
	return *id
}
