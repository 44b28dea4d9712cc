package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the StudyTrack API service.
type Config struct {
	Addr                   string        `env:"ADDR,default=:8080"`
	DBDSN                  string        `env:"DB_DSN,required"`
	JWTSigningKey          string        `env:"JWT_SIGNING_KEY,required"`
	JWTRefreshKey          string        `env:"JWT_REFRESH_KEY,required"`
	AccessTokenTTL         time.Duration `env:"ACCESS_TOKEN_TTL,default=15m"`
	RefreshTokenTTL        time.Duration `env:"REFRESH_TOKEN_TTL,default=336h"`
	CacheTTL               time.Duration `env:"CACHE_TTL,default=5m"`
	CacheCapacity          int           `env:"CACHE_CAPACITY,default=10000"`
	NATSURL                string        `env:"NATS_URL"`
	OTLPEndpoint           string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins         []string      `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	RateLimitPerMinute     int           `env:"RATE_LIMIT_PER_MINUTE,default=100"`
	AuthRateLimitPerMinute int           `env:"AUTH_RATE_LIMIT_PER_MINUTE,default=10"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
