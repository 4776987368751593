package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config adalah konfigurasi aplikasi yang dibaca sekali saat startup.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Mail     MailConfig     `mapstructure:"mail"`
	App      AppConfig      `mapstructure:"app"`
}

type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	GinMode     string        `mapstructure:"gin_mode"`
	CORSOrigins string        `mapstructure:"cors_origins"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// PaymentConfig memegang kredensial gateway pembayaran.
type PaymentConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	SuccessURL    string `mapstructure:"success_url"`
	CancelURL     string `mapstructure:"cancel_url"`
}

type MailConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	From       string `mapstructure:"from"`
	AdminEmail string `mapstructure:"admin_email"`
	Enabled    bool   `mapstructure:"enabled"`
}

type AppConfig struct {
	BaseURL string `mapstructure:"base_url"` // storefront, dipakai untuk link di email
	Env     string `mapstructure:"env"`
}

// Load reads config.yaml (optional) with env override, WB-style:
// TRAVELBOOK_DATABASE_PASSWORD overrides database.password, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TRAVELBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// config file is optional; env + defaults must be enough
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.gin_mode", "")
	v.SetDefault("server.cors_origins", "")
	v.SetDefault("server.read_timeout", 20*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "travel_app")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 10*time.Minute)

	v.SetDefault("jwt.secret", "super-secret-key-change-me")
	v.SetDefault("jwt.expiration", 24*time.Hour)

	v.SetDefault("payment.base_url", "https://api.stripe.com")
	v.SetDefault("payment.secret_key", "")
	v.SetDefault("payment.webhook_secret", "")
	v.SetDefault("payment.success_url", "http://localhost:3000/booking/success")
	v.SetDefault("payment.cancel_url", "http://localhost:3000/booking/cancelled")

	v.SetDefault("mail.base_url", "https://api.resend.com")
	v.SetDefault("mail.api_key", "")
	v.SetDefault("mail.from", "booking@travelbook.id")
	v.SetDefault("mail.admin_email", "")
	v.SetDefault("mail.enabled", true)

	v.SetDefault("app.base_url", "http://localhost:3000")
	v.SetDefault("app.env", "development")
}
