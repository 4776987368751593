package handlers

import (
	"time"

	intconfig "travelbook/internal/config"
	"travelbook/internal/mailer"
	"travelbook/internal/payments"
	"travelbook/internal/ratelimit"
	"travelbook/internal/services"
)

var (
	cfg *intconfig.Config

	// klaim booking dibatasi 5 percobaan per user per menit
	claimLimiter = ratelimit.New(5, time.Minute)
)

// Configure stores the loaded config for the handler package. Dipanggil
// sekali dari router sebelum route didaftarkan.
func Configure(c *intconfig.Config) {
	cfg = c
}

func jwtSecret() []byte {
	return []byte(cfg.JWT.Secret)
}

func paymentsClient() payments.Client {
	return payments.Client{
		BaseURL:   cfg.Payment.BaseURL,
		SecretKey: cfg.Payment.SecretKey,
	}
}

func appMailer() mailer.Mailer {
	if !cfg.Mail.Enabled {
		return mailer.NoopMailer{}
	}
	return mailer.APIMailer{
		BaseURL: cfg.Mail.BaseURL,
		APIKey:  cfg.Mail.APIKey,
		From:    cfg.Mail.From,
	}
}

func notifier(requestID string) services.NotificationService {
	return services.NotificationService{
		Mailer:     appMailer(),
		AdminEmail: cfg.Mail.AdminEmail,
		AppBaseURL: cfg.App.BaseURL,
		RequestID:  requestID,
	}
}
