package repositories

import (
	"database/sql"
	"fmt"

	intconfig "travelbook/internal/config"
	intdb "travelbook/internal/db"
	"travelbook/internal/domain"
	"travelbook/internal/domain/models"
)

type BookingItemRepository struct {
	DB *sql.DB
}

func (r BookingItemRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r BookingItemRepository) EnsureSchema() error {
	db := r.db()
	if db == nil {
		return fmt.Errorf("db tidak tersedia")
	}
	if intdb.HasTable(db, "booking_items") {
		return nil
	}
	ddl := `
CREATE TABLE IF NOT EXISTS booking_items (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT NOT NULL,
	product_type VARCHAR(20) NOT NULL,
	title VARCHAR(255) NOT NULL,
	trip_date VARCHAR(20) NOT NULL DEFAULT '',
	passenger_count INT NOT NULL DEFAULT 1,
	luggage_count INT NOT NULL DEFAULT 0,
	pickup_location VARCHAR(255) NOT NULL DEFAULT '',
	dropoff_location VARCHAR(255) NOT NULL DEFAULT '',
	unit_price BIGINT NOT NULL DEFAULT 0,
	quantity INT NOT NULL DEFAULT 1,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_booking (booking_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`
	_, err := db.Exec(ddl)
	return err
}

// InsertAll writes the item snapshot rows for a booking.
func (r BookingItemRepository) InsertAll(bookingID int64, items []models.BookingItem) error {
	if err := r.EnsureSchema(); err != nil {
		return domain.InternalError{Err: err}
	}
	for _, it := range items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		_, err := r.db().Exec(`
			INSERT INTO booking_items
				(booking_id, product_type, title, trip_date, passenger_count,
				 luggage_count, pickup_location, dropoff_location, unit_price, quantity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			bookingID, string(it.ProductType), it.Title, it.TripDate, it.PassengerCount,
			it.LuggageCount, it.PickupLocation, it.DropoffLocation, it.UnitPrice, qty,
		)
		if err != nil {
			return domain.InternalError{Err: err}
		}
	}
	return nil
}

func (r BookingItemRepository) ListByBookingID(bookingID int64) ([]models.BookingItem, error) {
	rows, err := r.db().Query(`
		SELECT id, booking_id, product_type, title, trip_date, passenger_count,
		       luggage_count, pickup_location, dropoff_location, unit_price, quantity
		FROM booking_items WHERE booking_id=? ORDER BY id`, bookingID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	out := []models.BookingItem{}
	for rows.Next() {
		var it models.BookingItem
		var pt string
		if err := rows.Scan(
			&it.ID, &it.BookingID, &pt, &it.Title, &it.TripDate, &it.PassengerCount,
			&it.LuggageCount, &it.PickupLocation, &it.DropoffLocation, &it.UnitPrice, &it.Quantity,
		); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		it.ProductType = models.ProductType(pt)
		out = append(out, it)
	}
	return out, rows.Err()
}
