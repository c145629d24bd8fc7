package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPort                    = "8080"
	DefaultAccessTokenExpiryMin    = 60
	DefaultRefreshTokenExpiryMin   = 43200
	DefaultBcryptCost              = 10
	DefaultVerificationCodeTTLMin  = 10
	DefaultVerificationCooldownSec = 60
	DefaultReportBlockThreshold    = 10
	DefaultSMTPPort                = 587
)

// requiredKeys must be present either in the environment or in the env file.
var requiredKeys = []string{"DB_URL", "JWT_SECRET"}

type Config struct {
	Env   string `env:"ENV" envDefault:"development"`
	Port  string `env:"PORT" envDefault:"8080"`
	DBURL string `env:"DB_URL"`

	JWTSecret        string `env:"JWT_SECRET"`
	AccessExpiryMin  int    `env:"ACCESS_TOKEN_EXPIRY" envDefault:"60"`
	RefreshExpiryMin int    `env:"REFRESH_TOKEN_EXPIRY" envDefault:"43200"`
	BcryptCost       int    `env:"BCRYPT_COST" envDefault:"10"`

	VerificationCodeTTLMin  int `env:"VERIFICATION_CODE_TTL" envDefault:"10"`
	VerificationCooldownSec int `env:"VERIFICATION_RESEND_COOLDOWN" envDefault:"60"`
	ReportBlockThreshold    int `env:"REPORT_BLOCK_THRESHOLD" envDefault:"10"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`
}

// Load reads config/.env.dev (or config/.env.prod when ENV=production) and
// then the process environment, which takes precedence. A missing required
// key terminates the process.
func Load() *Config {
	loadEnvFile()

	for _, key := range requiredKeys {
		if os.Getenv(key) == "" {
			log.Fatal().Msgf("Missing required config: %s", key)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	return &cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessExpiryMin) * time.Minute
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshExpiryMin) * time.Minute
}

func (c *Config) VerificationCodeTTL() time.Duration {
	return time.Duration(c.VerificationCodeTTLMin) * time.Minute
}

func (c *Config) VerificationCooldown() time.Duration {
	return time.Duration(c.VerificationCooldownSec) * time.Second
}

func loadEnvFile() {
	name := ".env.dev"
	if getEnv("ENV", "development") == "production" {
		name = ".env.prod"
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(filepath.Join("config", name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("file", name).Msg("failed to read env file")
	}
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}
