package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Pix      PixConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Name          string
	Port          string
	Debug         bool
	LogPath       string
	StorageDriver string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type PixConfig struct {
	ExpiryMinutes      int
	MerchantCity       string
	StrictMerchantInfo bool
	QRDir              string
	QRBaseURL          string
	QRSize             int
	QRTimeout          time.Duration
	SweepSchedule      string
}

// Expiry is the validity window of a generated code.
func (c PixConfig) Expiry() time.Duration {
	if c.ExpiryMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.ExpiryMinutes) * time.Minute
}

type AuthConfig struct {
	// ConfirmKeyHash is the bcrypt hash of the key required to confirm
	// payments manually. Empty disables confirmation over HTTP.
	ConfirmKeyHash string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "lesson-pix")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("STORAGE_DRIVER", "postgres")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("PIX_EXPIRY_MINUTES", 30)
	viper.SetDefault("PIX_MERCHANT_CITY", "SAO PAULO")
	viper.SetDefault("PIX_STRICT_MERCHANT_INFO", false)
	viper.SetDefault("PIX_QR_DIR", "qr/")
	viper.SetDefault("PIX_QR_BASE_URL", "/qr/")
	viper.SetDefault("PIX_QR_SIZE", 256)
	viper.SetDefault("PIX_QR_TIMEOUT_MS", 2000)
	viper.SetDefault("PIX_SWEEP_SCHEDULE", "@every 1m")

	// .env is optional; the environment alone is enough in containers
	if err := viper.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:          viper.GetString("APP_NAME"),
			Port:          viper.GetString("PORT"),
			Debug:         viper.GetBool("DEBUG"),
			LogPath:       viper.GetString("LOG_PATH"),
			StorageDriver: viper.GetString("STORAGE_DRIVER"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Pix: PixConfig{
			ExpiryMinutes:      viper.GetInt("PIX_EXPIRY_MINUTES"),
			MerchantCity:       viper.GetString("PIX_MERCHANT_CITY"),
			StrictMerchantInfo: viper.GetBool("PIX_STRICT_MERCHANT_INFO"),
			QRDir:              viper.GetString("PIX_QR_DIR"),
			QRBaseURL:          viper.GetString("PIX_QR_BASE_URL"),
			QRSize:             viper.GetInt("PIX_QR_SIZE"),
			QRTimeout:          time.Duration(viper.GetInt("PIX_QR_TIMEOUT_MS")) * time.Millisecond,
			SweepSchedule:      viper.GetString("PIX_SWEEP_SCHEDULE"),
		},
		Auth: AuthConfig{
			ConfirmKeyHash: viper.GetString("CONFIRM_KEY_HASH"),
		},
	}

	return config, nil
}
