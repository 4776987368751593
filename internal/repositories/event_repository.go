package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	intconfig "travelbook/internal/config"
	intdb "travelbook/internal/db"
	"travelbook/internal/domain"
	"travelbook/internal/domain/models"
)

// EventRepository owns the booking_events ledger. Unique key
// (booking_id, event_type, dedup_key) membuat insert jadi penentu akhir
// idempotensi; pre-check HasEvent hanya jalur cepat.
type EventRepository struct {
	DB *sql.DB
}

func (r EventRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r EventRepository) EnsureSchema() error {
	db := r.db()
	if db == nil {
		return fmt.Errorf("db tidak tersedia")
	}
	if intdb.HasTable(db, "booking_events") {
		return nil
	}
	ddl := `
CREATE TABLE IF NOT EXISTS booking_events (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT NOT NULL,
	event_type VARCHAR(40) NOT NULL,
	dedup_key VARCHAR(128) NOT NULL DEFAULT '',
	payload JSON NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_event (booking_id, event_type, dedup_key),
	KEY idx_booking (booking_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`
	_, err := db.Exec(ddl)
	return err
}

// Append inserts a ledger row. Duplicate natural key berarti side effect
// sudah terjadi; dikembalikan sebagai ConflictError dengan code "duplicate_event".
func (r EventRepository) Append(ev models.BookingEvent) error {
	if ev.BookingID <= 0 {
		return domain.ValidationError{Field: "booking_id", Msg: "id tidak valid"}
	}
	if err := r.EnsureSchema(); err != nil {
		return domain.InternalError{Err: err}
	}

	var payload any
	if len(ev.Payload) > 0 {
		payload = []byte(ev.Payload)
	}
	_, err := r.db().Exec(`
		INSERT INTO booking_events (booking_id, event_type, dedup_key, payload)
		VALUES (?, ?, ?, ?)`,
		ev.BookingID, string(ev.EventType), ev.DedupKey, payload)
	if err != nil {
		if IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "booking_event", Code: "duplicate_event", Msg: "event sudah tercatat", Err: err}
		}
		return domain.InternalError{Err: err}
	}
	return nil
}

// HasEvent checks the ledger for a prior (event_type, dedup_key) row.
func (r EventRepository) HasEvent(bookingID int64, eventType models.EventType, dedupKey string) (bool, error) {
	if err := r.EnsureSchema(); err != nil {
		return false, domain.InternalError{Err: err}
	}
	var one int
	err := r.db().QueryRow(`
		SELECT 1 FROM booking_events
		WHERE booking_id=? AND event_type=? AND dedup_key=?
		LIMIT 1`,
		bookingID, string(eventType), dedupKey).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, domain.InternalError{Err: err}
	}
	return true, nil
}

// ListByBookingID returns the human-readable timeline, oldest first.
func (r EventRepository) ListByBookingID(bookingID int64) ([]models.BookingEvent, error) {
	rows, err := r.db().Query(`
		SELECT id, booking_id, event_type, dedup_key, payload, created_at
		FROM booking_events WHERE booking_id=? ORDER BY id`, bookingID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	out := []models.BookingEvent{}
	for rows.Next() {
		var (
			ev      models.BookingEvent
			et      string
			payload sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.BookingID, &et, &ev.DedupKey, &payload, &ev.CreatedAt); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		ev.EventType = models.EventType(et)
		if payload.Valid {
			ev.Payload = json.RawMessage(payload.String)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
