package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Broker   BrokerConfig
	Address  AddressConfig
	Customer CustomerConfig
}

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Driver string // memory, sqlite or postgres
	DSN    string `masked:"true"`
}

type AuthConfig struct {
	JWTSecret   string `masked:"true"`
	TokenTTL    time.Duration
	AllowSignup bool
}

type BrokerConfig struct {
	RabbitMQURL string `masked:"true"`
}

type AddressConfig struct {
	ViaCEPBaseURL string
	Timeout       time.Duration
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string `masked:"true"`
}

type CustomerConfig struct {
	// IDFromTaxID keys records by the unformatted CPF instead of a generated id.
	IDFromTaxID bool
	// AllowOwnEmailOnEdit skips the duplicate e-mail check when an edited
	// record keeps its own e-mail.
	AllowOwnEmailOnEdit bool
}

// IsDevelopment reports whether the service runs outside production.
func (c *Config) IsDevelopment() bool {
	return c.App.Env != "production"
}

// Load reads an optional .env file at envPath, then the environment, into a Config.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		// A missing .env is normal outside local development.
		_ = godotenv.Load(envPath)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Port:     v.GetString("APP_PORT"),
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Auth: AuthConfig{
			JWTSecret:   v.GetString("JWT_SECRET"),
			TokenTTL:    v.GetDuration("JWT_TTL"),
			AllowSignup: v.GetBool("AUTH_ALLOW_SIGNUP"),
		},
		Broker: BrokerConfig{
			RabbitMQURL: v.GetString("RABBITMQ_URL"),
		},
		Address: AddressConfig{
			ViaCEPBaseURL: v.GetString("VIACEP_BASE_URL"),
			Timeout:       v.GetDuration("VIACEP_TIMEOUT"),
			CacheTTL:      v.GetDuration("ADDRESS_CACHE_TTL"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
		},
		Customer: CustomerConfig{
			IDFromTaxID:         v.GetBool("CUSTOMER_ID_FROM_TAX_ID"),
			AllowOwnEmailOnEdit: v.GetBool("ALLOW_OWN_EMAIL_ON_EDIT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "clientes.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("AUTH_ALLOW_SIGNUP", true)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("VIACEP_BASE_URL", "https://viacep.com.br/ws")
	v.SetDefault("VIACEP_TIMEOUT", 5*time.Second)
	v.SetDefault("ADDRESS_CACHE_TTL", 24*time.Hour)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("CUSTOMER_ID_FROM_TAX_ID", false)
	v.SetDefault("ALLOW_OWN_EMAIL_ON_EDIT", true)
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "memory", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	if c.Database.Driver != "memory" && c.Database.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	return errors.Join(errs...)
}
