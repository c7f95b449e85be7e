// Package telemetry publishes tunnel stats snapshots and connection
// lifecycle events to external sinks: Redis for dashboards, Postgres for
// audit, VictoriaMetrics for scraping, zerolog for structured logs.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shadowmesh/l2tun/internal/stats"
)

// RedisSink publishes periodic stats snapshots to Redis, keyed by tunnel
// label, so an external dashboard can read the tunnel's recent throughput
// without scraping logs.
type RedisSink struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

// RedisSinkConfig configures the connection to the Redis instance backing
// stats publication.
type RedisSinkConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // how long a published snapshot stays readable
}

// NewRedisSink dials addr and verifies connectivity with a PING before
// returning.
func NewRedisSink(cfg RedisSinkConfig) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("telemetry: connecting to redis at %s: %w", cfg.Addr, err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	return &RedisSink{client: client, ctx: ctx, ttl: ttl}, nil
}

// PublishSnapshot writes snap under "l2tun:stats:<label>", replacing
// whatever was there before.
func (s *RedisSink) PublishSnapshot(label string, snap stats.Snapshot) error {
	key := fmt.Sprintf("l2tun:stats:%s", label)
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("telemetry: marshalling snapshot: %w", err)
	}
	return s.client.Set(s.ctx, key, data, s.ttl).Err()
}

// LatestSnapshot retrieves the most recently published snapshot for label,
// mainly for tests and operator tooling.
func (s *RedisSink) LatestSnapshot(label string) (stats.Snapshot, error) {
	key := fmt.Sprintf("l2tun:stats:%s", label)
	data, err := s.client.Get(s.ctx, key).Result()
	if err != nil {
		return stats.Snapshot{}, err
	}
	var snap stats.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return stats.Snapshot{}, fmt.Errorf("telemetry: unmarshalling snapshot: %w", err)
	}
	return snap, nil
}

// Close releases the underlying Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
