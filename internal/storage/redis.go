package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ats-evaluator/internal/config"
	"ats-evaluator/internal/constants"
	"ats-evaluator/internal/tracing"
	"ats-evaluator/internal/types"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound is returned when a key is not found in Redis.
var ErrNotFound = redis.Nil

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(redisOptions(cfg))

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return NewRedisFromClient(client, cfg), nil
}

// NewRedisFromClient 包装已有客户端，便于测试
func NewRedisFromClient(client *redis.Client, cfg *config.RedisConfig) *Redis {
	return &Redis{Client: client, config: cfg}
}

func redisOptions(cfg *config.RedisConfig) *redis.Options {
	opt := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
	}
	if cfg.DialTimeoutSeconds > 0 {
		opt.DialTimeout = time.Duration(cfg.DialTimeoutSeconds) * time.Second
	}
	if cfg.ReadTimeoutSeconds > 0 {
		opt.ReadTimeout = time.Duration(cfg.ReadTimeoutSeconds) * time.Second
	}
	if cfg.WriteTimeoutSeconds > 0 {
		opt.WriteTimeout = time.Duration(cfg.WriteTimeoutSeconds) * time.Second
	}
	return opt
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// startSpan 为缓存操作创建 span，key 会被截断
func (r *Redis) startSpan(ctx context.Context, name, operation, key string) (context.Context, trace.Span) {
	return tracing.StartSpan(ctx, name,
		semconv.DBSystemRedis,
		attribute.String("db.operation", operation),
		attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
	)
}

// finishSpan redis.Nil 不算作错误
func finishSpan(span trace.Span, err error) {
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, redis.Nil):
		span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
		span.SetStatus(codes.Ok, "key not found")
	default:
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
	}
}

// SetJDVector 将 JD 向量存入 Redis HASH
func (r *Redis) SetJDVector(ctx context.Context, key string, vector []float64, ttl time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	cacheKey := fmt.Sprintf(constants.KeyJDVector, key)
	ctx, span := r.startSpan(ctx, "Redis.SetJDVector", "HSET", cacheKey)
	defer span.End()

	vectorJSON, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("序列化向量失败: %w", err)
	}

	pipe := r.Client.TxPipeline()
	pipe.HSet(ctx, cacheKey, "vector", vectorJSON, "dimensions", len(vector))
	pipe.Expire(ctx, cacheKey, ttl)
	_, err = pipe.Exec(ctx)
	finishSpan(span, err)
	if err != nil {
		return fmt.Errorf("设置 JD 向量缓存失败: %w", err)
	}
	return nil
}

// GetJDVector 从 Redis HASH 中获取 JD 向量，不存在时 found 为 false
func (r *Redis) GetJDVector(ctx context.Context, key string) ([]float64, bool, error) {
	if r.Client == nil {
		return nil, false, fmt.Errorf("redis client is not initialized")
	}
	cacheKey := fmt.Sprintf(constants.KeyJDVector, key)
	ctx, span := r.startSpan(ctx, "Redis.GetJDVector", "HGET", cacheKey)
	defer span.End()

	vectorJSON, err := r.Client.HGet(ctx, cacheKey, "vector").Result()
	finishSpan(span, err)
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var vector []float64
	if err := json.Unmarshal([]byte(vectorJSON), &vector); err != nil {
		return nil, false, fmt.Errorf("反序列化向量失败: %w", err)
	}
	return vector, true, nil
}

// SetKeywordGroups 缓存关键词分组(JSON)
func (r *Redis) SetKeywordGroups(ctx context.Context, key string, groups types.KeywordGroups, ttl time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	cacheKey := fmt.Sprintf(constants.KeyJDKeywords, key)
	ctx, span := r.startSpan(ctx, "Redis.SetKeywordGroups", "SET", cacheKey)
	defer span.End()

	data, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("序列化关键词失败: %w", err)
	}
	err = r.Client.Set(ctx, cacheKey, data, ttl).Err()
	finishSpan(span, err)
	return err
}

// GetKeywordGroups 读取缓存的关键词分组
func (r *Redis) GetKeywordGroups(ctx context.Context, key string) (types.KeywordGroups, bool, error) {
	if r.Client == nil {
		return types.KeywordGroups{}, false, fmt.Errorf("redis client is not initialized")
	}
	cacheKey := fmt.Sprintf(constants.KeyJDKeywords, key)
	ctx, span := r.startSpan(ctx, "Redis.GetKeywordGroups", "GET", cacheKey)
	defer span.End()

	val, err := r.Client.Get(ctx, cacheKey).Result()
	finishSpan(span, err)
	if errors.Is(err, redis.Nil) {
		return types.KeywordGroups{}, false, nil
	}
	if err != nil {
		return types.KeywordGroups{}, false, err
	}

	var groups types.KeywordGroups
	if err := json.Unmarshal([]byte(val), &groups); err != nil {
		return types.KeywordGroups{}, false, fmt.Errorf("反序列化关键词失败: %w", err)
	}
	return groups, true, nil
}
