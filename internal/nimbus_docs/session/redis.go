package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "nimbus:session:"

// RedisStore 将工作区以 JSON 存入 Redis，每次保存刷新 TTL
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
	Log    *zap.Logger
}

// NewRedisStore 连接 Redis 并检查可用性
func NewRedisStore(ctx context.Context, log *zap.Logger, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	log.Info("redis connection established", zap.String("addr", addr))
	return &RedisStore{Client: client, TTL: ttl, Log: log}, nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Workspace, error) {
	data, err := s.Client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var ws Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &ws, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, ws *Workspace) error {
	data, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.Client.Set(ctx, redisKeyPrefix+id, data, s.TTL).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Close 关闭 Redis 连接
func (s *RedisStore) Close() error {
	if s.Client == nil {
		return nil
	}
	if err := s.Client.Close(); err != nil {
		s.Log.Error("failed to close redis connection", zap.Error(err))
		return err
	}
	s.Log.Info("redis connection closed successfully")
	return nil
}
