package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisKeyPrefix = "supplyline:session:"
	defaultRedisTTL       = 24 * time.Hour
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string        `envconfig:"ADDR" split_words:"true" required:"true"`
	Password string        `envconfig:"PASSWORD" split_words:"true"`
	DB       int           `envconfig:"DB" split_words:"true" default:"0"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
	TTL      time.Duration `envconfig:"TTL" split_words:"true" default:"24h"`
}

// RedisStore persists sessions in Redis with TTL-based retention. The
// per-session lock is process-local: one store instance owns its sessions.
type RedisStore struct {
	client     *redis.Client
	keyPrefix  string
	ttl        time.Duration
	maxHistory int
	locks      keyedMutex
	now        func() time.Time
}

type RedisOption func(*RedisStore)

func WithRedisKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithRedisMaxHistory(n int) RedisOption {
	return func(s *RedisStore) {
		s.maxHistory = n
	}
}

func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewRedisStore(cfg RedisConfig, opts ...RedisOption) (*RedisStore, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	store := &RedisStore{
		client:     client,
		keyPrefix:  defaultRedisKeyPrefix,
		ttl:        ttl,
		maxHistory: DefaultMaxHistory,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// NewRedisStoreWithClient wraps an existing client; used by tests.
func NewRedisStoreWithClient(client *redis.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client:     client,
		keyPrefix:  defaultRedisKeyPrefix,
		ttl:        defaultRedisTTL,
		maxHistory: DefaultMaxHistory,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) GetOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = NewSession(sessionID, s.now())
	}
	sess.Touch(s.now())
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, m Message) error {
	return s.mutate(ctx, sessionID, func(sess *Session) {
		sess.AppendMessage(m, s.maxHistory)
	})
}

func (s *RedisStore) SetDecision(ctx context.Context, sessionID string, d RoutingDecision) error {
	return s.mutate(ctx, sessionID, func(sess *Session) {
		sess.LastDecision = &d
	})
}

func (s *RedisStore) Lock(sessionID string) func() {
	return s.locks.lock(sessionID)
}

func (s *RedisStore) mutate(ctx context.Context, sessionID string, fn func(*Session)) error {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		sess = NewSession(sessionID, s.now())
	}
	fn(sess)
	sess.Touch(s.now())
	return s.save(ctx, sess)
}

func (s *RedisStore) load(ctx context.Context, sessionID string) (*Session, error) {
	key, err := s.key(sessionID)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) save(ctx context.Context, sess *Session) error {
	key, err := s.key(sess.ID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) key(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	return s.keyPrefix + sessionID, nil
}
