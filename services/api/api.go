package api

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"studytrack/pkg/bus"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 14 * 24 * time.Hour
	defaultRateLimit       = 100
	defaultAuthRateLimit   = 10

	subjectEventsTopic = "studytrack.subjects.events"
	sessionEventsTopic = "studytrack.sessions.events"
)

// Store holds external dependencies required by the API layer.
type Store struct {
	DB  *pgxpool.Pool
	ORM *gorm.DB
	Bus *bus.Bus
}

// Config controls runtime behaviour for the API handlers.
type Config struct {
	SigningKey             []byte
	RefreshKey             []byte
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	CacheTTL               time.Duration
	CacheCapacity          int
	RateLimitPerMinute     int
	AuthRateLimitPerMinute int
	AllowedOrigins         []string
}

// API wires dependencies and configuration for HTTP handlers.
type API struct {
	store  *Store
	config Config
	cache  *pageCache
	log    zerolog.Logger
	now    func() time.Time
}

// New initialises the API layer with sane defaults applied to the provided configuration.
func New(store *Store, cfg Config, log zerolog.Logger) (*API, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if store.ORM == nil {
		return nil, errors.New("store ORM is required")
	}
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("signing key is required")
	}
	if len(cfg.RefreshKey) == 0 {
		return nil, errors.New("refresh key is required")
	}

	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = defaultAccessTokenTTL
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = defaultRateLimit
	}
	if cfg.AuthRateLimitPerMinute <= 0 {
		cfg.AuthRateLimitPerMinute = defaultAuthRateLimit
	}

	return &API{
		store:  store,
		config: cfg,
		cache:  newPageCache(cfg.CacheCapacity, cfg.CacheTTL),
		log:    log,
		now:    time.Now,
	}, nil
}
