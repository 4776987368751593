package repositories

import (
	"database/sql"
	"fmt"
	"time"

	intconfig "travelbook/internal/config"
	intdb "travelbook/internal/db"
	"travelbook/internal/domain"
	"travelbook/internal/domain/models"
)

type ReviewRepository struct {
	DB *sql.DB
}

func (r ReviewRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r ReviewRepository) EnsureSchema() error {
	db := r.db()
	if db == nil {
		return fmt.Errorf("db tidak tersedia")
	}
	if !intdb.HasTable(db, "review_requests") {
		ddl := `
CREATE TABLE IF NOT EXISTS review_requests (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT NOT NULL,
	token VARCHAR(64) NOT NULL,
	expires_at TIMESTAMP NOT NULL,
	used_at TIMESTAMP NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_token (token),
	KEY idx_booking (booking_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}
	if !intdb.HasTable(db, "reviews") {
		ddl := `
CREATE TABLE IF NOT EXISTS reviews (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_item_id BIGINT NOT NULL,
	rating INT NOT NULL,
	title VARCHAR(255) NOT NULL DEFAULT '',
	body TEXT,
	reviewer_name VARCHAR(255) NOT NULL DEFAULT '',
	is_approved TINYINT(1) NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_item (booking_item_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}
	return nil
}

// FindActiveByBookingID returns an unused, unexpired request when one exists,
// supaya link yang beredar tidak berlipat.
func (r ReviewRepository) FindActiveByBookingID(bookingID int64, now time.Time) (models.ReviewRequest, error) {
	if err := r.EnsureSchema(); err != nil {
		return models.ReviewRequest{}, domain.InternalError{Err: err}
	}
	return r.scanOne(`WHERE booking_id=? AND used_at IS NULL AND expires_at > ? ORDER BY id DESC`, bookingID, now)
}

func (r ReviewRepository) FindByToken(token string) (models.ReviewRequest, error) {
	if err := r.EnsureSchema(); err != nil {
		return models.ReviewRequest{}, domain.InternalError{Err: err}
	}
	return r.scanOne(`WHERE token=?`, token)
}

func (r ReviewRepository) scanOne(where string, args ...any) (models.ReviewRequest, error) {
	var (
		req    models.ReviewRequest
		usedAt sql.NullTime
	)
	err := r.db().QueryRow(`
		SELECT id, booking_id, token, expires_at, used_at, created_at
		FROM review_requests `+where+` LIMIT 1`, args...).Scan(
		&req.ID, &req.BookingID, &req.Token, &req.ExpiresAt, &usedAt, &req.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.ReviewRequest{}, domain.NotFoundError{Resource: "review request", Err: err}
		}
		return models.ReviewRequest{}, domain.InternalError{Err: err}
	}
	if usedAt.Valid {
		t := usedAt.Time
		req.UsedAt = &t
	}
	return req, nil
}

func (r ReviewRepository) Insert(req models.ReviewRequest) (int64, error) {
	if err := r.EnsureSchema(); err != nil {
		return 0, domain.InternalError{Err: err}
	}
	res, err := r.db().Exec(`
		INSERT INTO review_requests (booking_id, token, expires_at)
		VALUES (?, ?, ?)`,
		req.BookingID, req.Token, req.ExpiresAt)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	return res.LastInsertId()
}

// InsertReviewTx writes one review inside the caller's transaction.
func (r ReviewRepository) InsertReviewTx(tx *sql.Tx, rv models.Review) error {
	_, err := tx.Exec(`
		INSERT INTO reviews (booking_item_id, rating, title, body, reviewer_name, is_approved)
		VALUES (?, ?, ?, ?, ?, 0)`,
		rv.BookingItemID, rv.Rating, rv.Title, rv.Body, rv.ReviewerName)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// MarkUsedTx consumes the token inside the caller's transaction. The
// used_at IS NULL guard makes a concurrent submit lose cleanly.
func (r ReviewRepository) MarkUsedTx(tx *sql.Tx, requestID int64) error {
	res, err := tx.Exec(`
		UPDATE review_requests SET used_at=NOW()
		WHERE id=? AND used_at IS NULL`, requestID)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ConflictError{Resource: "review request", Code: "review_already_used", Msg: "link review sudah digunakan"}
	}
	return nil
}

func (r ReviewRepository) Approve(reviewID int64) error {
	res, err := r.db().Exec(`UPDATE reviews SET is_approved=1 WHERE id=?`, reviewID)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "review"}
	}
	return nil
}
