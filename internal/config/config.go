package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	QR        QRConfig
	Geo       GeoConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port string
	// BaseURL is the externally visible address of this service.
	// Scan URLs and public image URLs are derived from it.
	BaseURL string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host string
	Port string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type QRConfig struct {
	OutputDir string
	ImageSize int
	// LogoScale is the maximum fraction of the image's shorter
	// dimension that an overlaid logo may occupy.
	LogoScale float64
}

type GeoConfig struct {
	APIURL  string
	Timeout time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	cfg.App.Port = viper.GetString("APP_PORT")
	cfg.App.BaseURL = viper.GetString("BASE_URL")
	cfg.DB.Host = viper.GetString("DB_HOST")
	cfg.DB.Port = viper.GetString("DB_PORT")
	cfg.DB.User = viper.GetString("DB_USER")
	cfg.DB.Password = viper.GetString("DB_PASSWORD")
	cfg.DB.Name = viper.GetString("DB_NAME")
	cfg.Redis.Host = viper.GetString("REDIS_HOST")
	cfg.Redis.Port = viper.GetString("REDIS_PORT")

	cfg.Auth.JWTSecret = viper.GetString("JWT_SECRET")
	cfg.Auth.TokenTTL = viper.GetDuration("TOKEN_TTL")
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 5 * time.Hour
	}

	cfg.QR.OutputDir = viper.GetString("QR_OUTPUT_DIR")
	if cfg.QR.OutputDir == "" {
		cfg.QR.OutputDir = "static/qrcodes"
	}
	cfg.QR.ImageSize = viper.GetInt("QR_IMAGE_SIZE")
	if cfg.QR.ImageSize == 0 {
		cfg.QR.ImageSize = 512
	}
	cfg.QR.LogoScale = viper.GetFloat64("QR_LOGO_SCALE")
	if cfg.QR.LogoScale == 0 {
		cfg.QR.LogoScale = 0.2
	}

	cfg.Geo.APIURL = viper.GetString("GEO_API_URL")
	if cfg.Geo.APIURL == "" {
		cfg.Geo.APIURL = "http://ip-api.com/json"
	}
	cfg.Geo.Timeout = viper.GetDuration("GEO_TIMEOUT")
	if cfg.Geo.Timeout == 0 {
		cfg.Geo.Timeout = time.Second
	}

	cfg.RateLimit.RequestsPerSecond = viper.GetFloat64("RATE_LIMIT_RPS")
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 10
	}
	cfg.RateLimit.BurstSize = viper.GetInt("RATE_LIMIT_BURST")
	if cfg.RateLimit.BurstSize == 0 {
		cfg.RateLimit.BurstSize = 20
	}

	return &cfg, nil
}
