package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// Server
	ServerHost string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`

	// Postgres
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"password"`
	DBName     string `env:"DB_NAME" envDefault:"routie"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	DBTimezone string `env:"DB_TIMEZONE" envDefault:"UTC"`

	// Directions service
	DirectionsAPIKey  string `env:"DIRECTIONS_API_KEY"`
	DirectionsBaseURL string `env:"DIRECTIONS_BASE_URL" envDefault:"https://routes.googleapis.com"`

	// Auth
	JWTSecret string `env:"JWT_SECRET" envDefault:"supersecret"`
}

// Load reads .env (if present) and parses the environment into Cfg.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("failed to parse environment config: %v", err)
	}
}
