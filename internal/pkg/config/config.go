// Package config loads the gateway configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string   `env:"ENV" env-default:"local"`
	HTTP     HTTP     `env-prefix:"HTTP_"`
	Remote   Remote   `env-prefix:"REMOTE_"`
	Redis    Redis    `env-prefix:"REDIS_"`
	Checkout Checkout `env-prefix:"CHECKOUT_"`
}

type HTTP struct {
	Addr string `env:"ADDR" env-default:":8080"`
}

type Remote struct {
	// BaseURL of the remote cart/order store REST API.
	BaseURL string `env:"BASE_URL" env-default:"http://localhost:5000/api"`
	// Timeout bounds every remote round trip so a hung request cannot leave
	// a per-item busy indicator stuck.
	Timeout time.Duration `env:"TIMEOUT" env-default:"5s"`
}

type Redis struct {
	Addr string `env:"ADDR" env-default:"localhost:6379"`
}

type Checkout struct {
	// AttemptLogPath is the SQLite file holding the checkout attempt log.
	AttemptLogPath string `env:"ATTEMPT_LOG_PATH" env-default:"./data/checkout.db"`
	// ClearBudget bounds the best-effort cart clear after a successful order.
	ClearBudget time.Duration `env:"CLEAR_BUDGET" env-default:"1s"`
	// IdempotencyTTL is how long a checkout idempotency key is remembered.
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" env-default:"24h"`
}

// MustLoad reads configuration from the environment and exits on error.
// A .env file in the working directory is loaded first if present.
func MustLoad() *Config {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}
