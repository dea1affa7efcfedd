package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Env        string     `env:"APP_ENV" envDefault:"local"`
	HTTPServer HTTPServer `envPrefix:"HTTP_"`
	WSServer   WSServer   `envPrefix:"WS_"`
	Chain      Chain      `envPrefix:"CHAIN_"`
	Payment    Payment    `envPrefix:"PAYMENT_"`
	Oracle     Oracle     `envPrefix:"ORACLE_"`
	Database   Database   `envPrefix:"DB_"`
}

type HTTPServer struct {
	Address     string        `env:"ADDRESS" envDefault:"localhost:8080"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"120s"`
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
}

type WSServer struct {
	Address     string        `env:"ADDRESS" envDefault:"localhost:8081"`
	URL         string        `env:"URL" envDefault:"ws://localhost:8081/ws?room=settlement-channel"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"10s"`
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
}

type Chain struct {
	RPCEndpoint     string        `env:"RPC_ENDPOINT" envDefault:"https://api.devnet.solana.com"`
	Network         string        `env:"NETWORK" envDefault:"solana-devnet"`
	ProgramID       string        `env:"PROGRAM_ID"`
	OracleProgramID string        `env:"ORACLE_PROGRAM_ID"`
	Queue           string        `env:"QUEUE"`
	OperatorKey     string        `env:"OPERATOR_KEY"`
	ConfirmInterval time.Duration `env:"CONFIRM_INTERVAL" envDefault:"2s"`
	ConfirmTimeout  time.Duration `env:"CONFIRM_TIMEOUT" envDefault:"60s"`
}

type Payment struct {
	PayTo               string `env:"PAY_TO"`
	PriceLamports       uint64 `env:"PRICE_LAMPORTS" envDefault:"10000"`
	Description         string `env:"DESCRIPTION" envDefault:"one settled casino game"`
	ReplayCacheCapacity int    `env:"REPLAY_CACHE_CAPACITY" envDefault:"4096"`
}

type Oracle struct {
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"3s"`
	MaxAttempts    int           `env:"MAX_ATTEMPTS" envDefault:"16"`
	AttemptTimeout time.Duration `env:"ATTEMPT_TIMEOUT" envDefault:"10s"`
}

type Database struct {
	DSN string `env:"DSN" envDefault:"root:123@tcp(localhost:3309)/api?charset=utf8mb4,utf8&parseTime=True&loc=Local"`
}

func MustLoad() *Config {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}
