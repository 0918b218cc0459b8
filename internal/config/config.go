package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Crypto   CryptoConfig
	Log      LogConfig
	Engine   EngineConfig

	// Timezone that defines "today" for every user.
	Timezone string `env:"APP_TIMEZONE" env-default:"UTC"`
}

type ServerConfig struct {
	Port            string        `env:"PORT" env-default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

type DatabaseConfig struct {
	// Empty URL runs the API on the in-memory store.
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"2h"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `env:"JWT_TTL" env-default:"24h"`
}

// CryptoConfig keys are 64 hex characters (32 bytes).
type CryptoConfig struct {
	EncryptionKeyHex string `env:"ENCRYPTION_KEY" env-required:"true"`
	BlindIndexKeyHex string `env:"BLIND_INDEX_KEY" env-required:"true"`

	EncryptionKey []byte
	BlindIndexKey []byte
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
	File   string `env:"LOG_FILE"`
}

type EngineConfig struct {
	BaseExperiencePoints      int     `env:"BASE_EXPERIENCE_POINTS" env-default:"10"`
	StreakMultiplier          float64 `env:"STREAK_MULTIPLIER" env-default:"0.1"`
	MaxLevel                  int     `env:"MAX_LEVEL_CAP" env-default:"100"`
	LevelExperienceBase       int     `env:"LEVEL_EXPERIENCE_BASE" env-default:"10"`
	LevelExperienceMultiplier float64 `env:"LEVEL_EXPERIENCE_MULTIPLIER" env-default:"1.05"`
	MaxExperiencePerLevel     int     `env:"MAX_EXP_PER_LEVEL" env-default:"250"`
}

// Load reads .env (if present) and the process environment, then validates.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks business rules and fills the derived fields.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}

	var err error
	if c.Crypto.EncryptionKey, err = decodeKey("ENCRYPTION_KEY", c.Crypto.EncryptionKeyHex); err != nil {
		return err
	}
	if c.Crypto.BlindIndexKey, err = decodeKey("BLIND_INDEX_KEY", c.Crypto.BlindIndexKeyHex); err != nil {
		return err
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.Log.Format)
	}

	if err := c.Engine.validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// Location is the validated APP_TIMEZONE, UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (e *EngineConfig) validate() error {
	if e.BaseExperiencePoints <= 0 {
		return fmt.Errorf("BASE_EXPERIENCE_POINTS must be > 0 (got %d)", e.BaseExperiencePoints)
	}
	if e.StreakMultiplier < 0 {
		return fmt.Errorf("STREAK_MULTIPLIER must be >= 0 (got %v)", e.StreakMultiplier)
	}
	if e.MaxLevel < 1 {
		return fmt.Errorf("MAX_LEVEL_CAP must be >= 1 (got %d)", e.MaxLevel)
	}
	if e.LevelExperienceBase <= 0 {
		return fmt.Errorf("LEVEL_EXPERIENCE_BASE must be > 0 (got %d)", e.LevelExperienceBase)
	}
	if e.LevelExperienceMultiplier < 1 {
		return fmt.Errorf("LEVEL_EXPERIENCE_MULTIPLIER must be >= 1 (got %v)", e.LevelExperienceMultiplier)
	}
	if e.MaxExperiencePerLevel < e.LevelExperienceBase {
		return fmt.Errorf("MAX_EXP_PER_LEVEL must be >= LEVEL_EXPERIENCE_BASE")
	}
	return nil
}

func decodeKey(name, raw string) ([]byte, error) {
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be hex encoded: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s must decode to 32 bytes (got %d)", name, len(key))
	}
	return key, nil
}
