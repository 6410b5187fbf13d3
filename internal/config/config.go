package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL      string `env:"DATABASE_URL,required"`
	JWTSecret        string `env:"JWT_SECRET,required"`
	KycWebhookSecret string `env:"KYC_WEBHOOK_SECRET"`
	KycProviderURL   string `env:"KYC_PROVIDER_URL" envDefault:"http://mock-kyc:8081"`

	TickerURL     string  `env:"TICKER_URL" envDefault:"https://api.bitget.com/api/v2/spot/market/tickers"`
	TickerSymbol  string  `env:"TICKER_SYMBOL" envDefault:"USDTBRL"`
	FXMarkupFixed float64 `env:"FX_MARKUP_FIXED" envDefault:"0.10"`
	FXMarkupPct   float64 `env:"FX_MARKUP_PCT" envDefault:"0.03"`

	RedisURL      string `env:"REDIS_URL"`
	RateCacheTTLS int    `env:"RATE_CACHE_TTL_S" envDefault:"30"`

	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	MinDepositBRL float64 `env:"MIN_DEPOSIT_BRL" envDefault:"50"`
	MaxDepositBRL float64 `env:"MAX_DEPOSIT_BRL" envDefault:"50000"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
