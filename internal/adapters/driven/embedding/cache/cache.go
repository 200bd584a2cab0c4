// Package cache wraps an EmbeddingService with a Redis-backed vector cache.
//
// Keys are derived from the model name and a SHA-256 of the text, so changing
// the model never serves stale vectors. Cache failures are logged and fall
// through to the wrapped service.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/rueidis"

	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/logger"
	"github.com/custodia-labs/docshelf/internal/metrics"
)

// DefaultTTL is how long cached vectors live.
const DefaultTTL = 30 * 24 * time.Hour

const keyPrefix = "docshelf:emb:"

// errMiss reports a key that is not cached.
var errMiss = errors.New("cache miss")

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// kv is the subset of Redis the cache needs.
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close()
}

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	TTL      time.Duration
}

// EmbeddingService is a caching decorator over another EmbeddingService.
type EmbeddingService struct {
	next  driven.EmbeddingService
	cache kv
	ttl   time.Duration
}

// New connects to Redis and wraps next.
func New(next driven.EmbeddingService, cfg Config) (*EmbeddingService, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("cache: redis address is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{cfg.Addr},
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: connecting to redis: %w", err)
	}
	return newWithStore(next, &redisKV{client: client}, cfg.TTL), nil
}

func newWithStore(next driven.EmbeddingService, store kv, ttl time.Duration) *EmbeddingService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EmbeddingService{next: next, cache: store, ttl: ttl}
}

// Embed returns the cached vector or computes and stores it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := s.key(text)
	if vec, ok := s.lookup(ctx, key); ok {
		return vec, nil
	}

	vec, err := s.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.save(ctx, key, vec)
	return vec, nil
}

// EmbedBatch serves cached texts and embeds the rest in one wrapped call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if vec, ok := s.lookup(ctx, s.key(text)); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := s.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("cache: wrapped service returned %d vectors for %d texts", len(vecs), len(missing))
	}
	for j, vec := range vecs {
		out[missingIdx[j]] = vec
		s.save(ctx, s.key(missing[j]), vec)
	}
	return out, nil
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.next.Dimensions()
}

// ModelName returns the wrapped model name.
func (s *EmbeddingService) ModelName() string {
	return s.next.ModelName()
}

// Ping checks the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the Redis client and the wrapped service.
func (s *EmbeddingService) Close() error {
	s.cache.Close()
	return s.next.Close()
}

func (s *EmbeddingService) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + s.next.ModelName() + ":" + hex.EncodeToString(sum[:])
}

func (s *EmbeddingService) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, errMiss) {
			logger.Warn("embedding cache read: %v", err)
		}
		metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	vec := decode(data)
	if len(vec) == 0 || len(vec) != s.next.Dimensions() {
		metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
	return vec, true
}

func (s *EmbeddingService) save(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	if err := s.cache.Set(ctx, key, encode(vec), s.ttl); err != nil {
		logger.Warn("embedding cache write: %v", err)
	}
}

func encode(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decode(data []byte) []float32 {
	if len(data)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec
}

// redisKV implements kv with rueidis.
type redisKV struct {
	client rueidis.Client
}

func (r *redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Do(ctx, r.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, errMiss
		}
		return nil, err
	}
	return data, nil
}

func (r *redisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := r.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	return r.client.Do(ctx, cmd).Error()
}

func (r *redisKV) Close() {
	r.client.Close()
}
