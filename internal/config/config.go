package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/exportdesk/debt-ledger/internal/domain"
)

type Config struct {
	DatabaseDSN   string `env:"DATABASE_DSN" envDefault:"host=localhost port=5432 dbname=debt_ledger user=postgres password=postgres sslmode=disable"`
	ListenAddr    string `env:"LISTEN_ADDR" envDefault:":8080"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	// ChannelKey may be a bcrypt hash (preferred) or a plain secret; the auth
	// middleware detects which.
	ChannelID  string `env:"CHANNEL_ID" envDefault:"ExportDesk"`
	ChannelKey string `env:"CHANNEL_KEY" envDefault:"ExportDeskKey001"`

	ExportCodePrefix  string `env:"EXPORT_CODE_PREFIX" envDefault:"EXP"`
	PaymentCodePrefix string `env:"PAYMENT_CODE_PREFIX" envDefault:"PAY"`

	MaxAgencies            int `env:"MAX_AGENCIES" envDefault:"0"`
	MaxAgenciesPerDistrict int `env:"MAX_AGENCIES_PER_DISTRICT" envDefault:"0"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Regulation().Validate(); err != nil {
		return Config{}, fmt.Errorf("validate system regulation: %w", err)
	}

	return cfg, nil
}

// Regulation exposes the capacity ceilings as injected state for the agency
// management collaborator.
func (c Config) Regulation() domain.SystemRegulation {
	return domain.SystemRegulation{
		MaxAgencies:            c.MaxAgencies,
		MaxAgenciesPerDistrict: c.MaxAgenciesPerDistrict,
	}
}
