package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/redis/go-redis/v9"

	"svcrunner/internal/config"
	"svcrunner/internal/logger"
)

// RedisSink pushes events onto a Redis list, trimming it to a bounded
// length so an unattended service cannot grow the key forever.
type RedisSink struct {
	client *redis.Client
	key    string
	maxLen int64
	mu     sync.Mutex
	closed bool
}

// NewRedisSink creates a Redis sink.
// dialFunc is optional - if non-nil, used as custom dialer (e.g., SOCKS proxy).
func NewRedisSink(cfg config.RedisConfig, dialFunc func(network, addr string) (net.Conn, error)) (*RedisSink, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis sink requires an Addr")
	}

	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	if dialFunc != nil {
		opts.Dialer = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialFunc(network, addr)
		}
	}

	key := cfg.Key
	if key == "" {
		key = "svcrunner:events"
	}

	log := logger.WithComponent("redis-sink")
	log.Info().
		Str("addr", cfg.Addr).
		Str("key", key).
		Int64("max_len", cfg.MaxLen).
		Msg("RedisSink initialized")

	return &RedisSink{
		client: redis.NewClient(opts),
		key:    key,
		maxLen: cfg.MaxLen,
	}, nil
}

// Send pushes one event onto the list, newest first.
func (s *RedisSink) Send(ctx context.Context, ev Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("sink is closed")
	}
	s.mu.Unlock()

	jsonData, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := s.client.LPush(ctx, s.key, jsonData).Err(); err != nil {
		return fmt.Errorf("redis LPUSH %s failed: %w", s.key, err)
	}

	if s.maxLen > 0 {
		if err := s.client.LTrim(ctx, s.key, 0, s.maxLen-1).Err(); err != nil {
			return fmt.Errorf("redis LTRIM %s failed: %w", s.key, err)
		}
	}

	return nil
}

// Close closes the Redis client.
func (s *RedisSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.client.Close()
}
