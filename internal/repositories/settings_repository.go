package repositories

import (
	"database/sql"
	"fmt"

	intconfig "travelbook/internal/config"
	intdb "travelbook/internal/db"
	"travelbook/internal/domain"
	"travelbook/internal/domain/models"
)

type SettingsRepository struct {
	DB *sql.DB
}

func (r SettingsRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r SettingsRepository) EnsureSchema() error {
	db := r.db()
	if db == nil {
		return fmt.Errorf("db tidak tersedia")
	}
	if intdb.HasTable(db, "notification_settings") {
		return nil
	}
	ddl := `
CREATE TABLE IF NOT EXISTS notification_settings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	event_type VARCHAR(40) NOT NULL,
	audience VARCHAR(20) NOT NULL,
	enabled TINYINT(1) NOT NULL DEFAULT 1,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_setting (event_type, audience)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`
	_, err := db.Exec(ddl)
	return err
}

// IsEnabled defaults to true: hanya baris eksplisit enabled=0 yang mematikan.
func (r SettingsRepository) IsEnabled(eventType models.EventType, audience models.Audience) bool {
	if err := r.EnsureSchema(); err != nil {
		return true
	}
	var enabled bool
	err := r.db().QueryRow(`
		SELECT enabled FROM notification_settings
		WHERE event_type=? AND audience=? LIMIT 1`,
		string(eventType), string(audience)).Scan(&enabled)
	if err != nil {
		return true
	}
	return enabled
}

func (r SettingsRepository) Upsert(s models.NotificationSetting) error {
	if err := r.EnsureSchema(); err != nil {
		return domain.InternalError{Err: err}
	}
	_, err := r.db().Exec(`
		INSERT INTO notification_settings (event_type, audience, enabled)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE enabled=VALUES(enabled)`,
		string(s.EventType), string(s.Audience), s.Enabled)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

func (r SettingsRepository) List() ([]models.NotificationSetting, error) {
	if err := r.EnsureSchema(); err != nil {
		return nil, domain.InternalError{Err: err}
	}
	rows, err := r.db().Query(`
		SELECT id, event_type, audience, enabled
		FROM notification_settings ORDER BY event_type, audience`)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	out := []models.NotificationSetting{}
	for rows.Next() {
		var (
			s        models.NotificationSetting
			et, aud  string
		)
		if err := rows.Scan(&s.ID, &et, &aud, &s.Enabled); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		s.EventType = models.EventType(et)
		s.Audience = models.Audience(aud)
		out = append(out, s)
	}
	return out, rows.Err()
}
