package authkit

import (
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authkit/internal/stores"
	"github.com/MrEthical07/authkit/jwt"
	"github.com/MrEthical07/authkit/password"
)

// Builder assembles an Engine. It is single-use: Build may be called once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	users  UserStore
	mailer Mailer
	hasher PasswordHasher
	logger *slog.Logger
	built  bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the cache that holds one-time codes.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithUserStore(users UserStore) *Builder {
	b.users = users
	return b
}

func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithPasswordHasher replaces the Argon2id hasher derived from Config.Password.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens, err := jwt.NewManager(cfg.jwtConfig())
	if err != nil {
		return nil, err
	}

	hasher := b.hasher
	if hasher == nil {
		ph, err := password.NewArgon2(password.Config{
			Memory:           cfg.Password.Memory,
			Time:             cfg.Password.Time,
			Parallelism:      cfg.Password.Parallelism,
			SaltLength:       cfg.Password.SaltLength,
			KeyLength:        cfg.Password.KeyLength,
			MaxPasswordBytes: cfg.Password.MaxBytes,
		})
		if err != nil {
			return nil, err
		}
		hasher = ph
	}

	// Login against an unknown email still pays for one hash verification.
	dummy, err := hasher.Hash("authkit-timing-equalizer")
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		config:    cfg,
		users:     b.users,
		codes:     stores.NewCodeStore(b.redis, cfg.Codes.RedisPrefix),
		tokens:    tokens,
		hasher:    hasher,
		mailer:    b.mailer,
		logger:    logger,
		metrics:   NewMetrics(cfg.Metrics),
		dummyHash: dummy,
	}

	b.built = true

	return engine, nil
}
