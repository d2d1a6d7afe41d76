package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-knowledge/internal/compress"
	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const defaultRedisTTL = time.Hour

// RedisConfig configures the shared redis-backed published cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL bounds how long a published version may be served without a
	// storage read. Defaults to one hour.
	TTL time.Duration
	// Codec compresses payloads on the wire. Defaults to brotli; markdown
	// bodies are highly repetitive and shrink well under it.
	Codec compress.Codec
}

// Redis caches the published current version of each resource in a shared
// redis instance so every replica serves reads from the same snapshot.
type Redis struct {
	client *redis.Client
	codec  compress.Codec
	ttl    time.Duration
}

// NewRedis dials a redis client from the config and wraps it.
func NewRedis(cfg RedisConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Protocol: 2,
	})
	return NewRedisWithClient(client, cfg)
}

// NewRedisWithClient wraps an existing client. The DI container uses this
// to share one connection pool across caches.
func NewRedisWithClient(client *redis.Client, cfg RedisConfig) *Redis {
	codec := cfg.Codec
	if codec == nil {
		codec = compress.NewBrotli()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &Redis{
		client: client,
		codec:  codec,
		ttl:    ttl,
	}
}

var _ document.PublishedCache = (*Redis)(nil)

// GetCurrent returns the cached current version, or (nil, nil) on a miss.
func (r *Redis) GetCurrent(ctx context.Context, resourceID uuid.UUID) (*document.Version, error) {
	res := r.client.Get(ctx, currentKey(resourceID))
	if err := res.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache: redis get: %w", err)
	}

	payload, err := res.Bytes()
	if err != nil {
		return nil, fmt.Errorf("cache: redis payload: %w", err)
	}
	return r.decodeVersion(payload)
}

// SetCurrent stores the version under its resource key with the cache TTL.
func (r *Redis) SetCurrent(ctx context.Context, version *document.Version) error {
	if version == nil || version.ResourceID == uuid.Nil {
		return nil
	}

	payload, err := r.encodeVersion(version)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, currentKey(version.ResourceID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry for a resource.
func (r *Redis) Invalidate(ctx context.Context, resourceID uuid.UUID) error {
	if err := r.client.Del(ctx, currentKey(resourceID)).Err(); err != nil {
		return fmt.Errorf("cache: redis del: %w", err)
	}
	return nil
}

// Close releases the underlying client connections.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) encodeVersion(version *document.Version) ([]byte, error) {
	raw, err := json.Marshal(version)
	if err != nil {
		return nil, fmt.Errorf("cache: encode version: %w", err)
	}
	encoded, err := r.codec.Encode(raw)
	if err != nil {
		return nil, fmt.Errorf("cache: compress version: %w", err)
	}
	return encoded, nil
}

func (r *Redis) decodeVersion(payload []byte) (*document.Version, error) {
	raw, err := r.codec.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("cache: decompress version: %w", err)
	}
	version := &document.Version{}
	if err := json.Unmarshal(raw, version); err != nil {
		return nil, fmt.Errorf("cache: decode version: %w", err)
	}
	return version, nil
}

func currentKey(resourceID uuid.UUID) string {
	return "knowledge:document:current:" + resourceID.String()
}
