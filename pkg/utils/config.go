package utils

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	RabbitMQ RabbitMQConfig
	Admin    AdminConfig
}

type AppConfig struct {
	Name           string
	Port           string
	Debug          bool
	LogPath        string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	TxEnabled   bool
	TxAttempts  int
	TxTimeout   time.Duration
	AutoMigrate bool
}

type RedisConfig struct {
	Addr     string
	PoolSize int
}

type JWTConfig struct {
	Secret            string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	AccessCookieName  string
	RefreshCookieName string
	CookieSecure      bool
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// AdminConfig describes the account created on first boot when no user owns the email yet.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "clothing-store")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 15)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_TX_ENABLED", true)
	viper.SetDefault("DB_TX_ATTEMPTS", 3)
	viper.SetDefault("DB_TX_TIMEOUT_SECONDS", 10)
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	viper.SetDefault("REDIS_POOL_SIZE", 10)
	viper.SetDefault("JWT_ACCESS_TTL_SECONDS", 900)
	viper.SetDefault("JWT_REFRESH_TTL_SECONDS", 604800)
	viper.SetDefault("JWT_ACCESS_COOKIE_NAME", "access_token")
	viper.SetDefault("JWT_REFRESH_COOKIE_NAME", "refresh_token")
	viper.SetDefault("COOKIE_SECURE", false)
	viper.SetDefault("RABBITMQ_EXCHANGE", "orders")
	viper.SetDefault("ADMIN_NAME", "Initial Admin")
	viper.SetDefault("ADMIN_EMAIL", "admin@mail.com")
	viper.SetDefault("ADMIN_PASSWORD", "adminpass")

	// .env is optional in containers where everything comes from the environment
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:           viper.GetString("APP_NAME"),
			Port:           viper.GetString("PORT"),
			Debug:          viper.GetBool("DEBUG"),
			LogPath:        viper.GetString("LOG_PATH"),
			RequestTimeout: seconds(viper.GetInt("REQUEST_TIMEOUT_SECONDS")),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			Name:        viper.GetString("DB_NAME"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASS"),
			MaxConns:    viper.GetInt32("DB_MAX_CONNS"),
			TxEnabled:   viper.GetBool("DB_TX_ENABLED"),
			TxAttempts:  viper.GetInt("DB_TX_ATTEMPTS"),
			TxTimeout:   seconds(viper.GetInt("DB_TX_TIMEOUT_SECONDS")),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
		},
		JWT: JWTConfig{
			Secret:            viper.GetString("JWT_SECRET"),
			AccessTTL:         seconds(viper.GetInt("JWT_ACCESS_TTL_SECONDS")),
			RefreshTTL:        seconds(viper.GetInt("JWT_REFRESH_TTL_SECONDS")),
			AccessCookieName:  viper.GetString("JWT_ACCESS_COOKIE_NAME"),
			RefreshCookieName: viper.GetString("JWT_REFRESH_COOKIE_NAME"),
			CookieSecure:      viper.GetBool("COOKIE_SECURE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      viper.GetString("RABBITMQ_URL"),
			Exchange: viper.GetString("RABBITMQ_EXCHANGE"),
		},
		Admin: AdminConfig{
			Name:     viper.GetString("ADMIN_NAME"),
			Email:    viper.GetString("ADMIN_EMAIL"),
			Password: viper.GetString("ADMIN_PASSWORD"),
		},
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return config, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
