package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "travel_app", cfg.Database.Name)
	require.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	require.Equal(t, "https://api.stripe.com", cfg.Payment.BaseURL)
	require.True(t, cfg.Mail.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TRAVELBOOK_SERVER_ADDR", ":9090")
	t.Setenv("TRAVELBOOK_DATABASE_PASSWORD", "rahasia")
	t.Setenv("TRAVELBOOK_PAYMENT_WEBHOOK_SECRET", "whsec_x")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, "rahasia", cfg.Database.Password)
	require.Equal(t, "whsec_x", cfg.Payment.WebhookSecret)
}
