package helper

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nimbus-docs/internal/nimbus_docs/model"
	"nimbus-docs/pkg/config"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

type Stores struct {
	Client *mongo.Client
	DB     *mongo.Database
	Runs   *mongo.Collection // 调用记录
}

// ConnectMongo 连接 MongoDB 并确保索引存在
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*Stores, error) {
	clientOpts := options.Client().ApplyURI("mongodb://" + cfg.Host)
	if cfg.Username != "" {
		clientOpts.SetAuth(options.Credential{
			Username:   cfg.Username,
			Password:   cfg.Password,
			AuthSource: cfg.AuthSource,
		})
	}

	cli, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err = cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := cli.Database(cfg.DBName)
	s := &Stores{
		Client: cli,
		DB:     db,
		Runs:   db.Collection(cfg.HistoryCollection),
	}
	ensureIndexes(ctx, s)
	return s, nil
}

func ensureIndexes(ctx context.Context, s *Stores) {
	_, _ = s.Runs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "method", Value: 1}}},
	})
}

// SaveRun 写入一条调用记录
func (s *Stores) SaveRun(ctx context.Context, rec *model.RunRecord) error {
	_, err := s.Runs.InsertOne(ctx, rec)
	return err
}

// RecentRuns 按时间倒序取最近的调用记录
func (s *Stores) RecentRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	limit = ClampLimit(limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.Runs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer func(cur *mongo.Cursor, ctx context.Context) {
		_ = cur.Close(ctx)
	}(cur, ctx)

	out := make([]model.RunRecord, 0, limit)
	for cur.Next(ctx) {
		var r model.RunRecord
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, cur.Err()
}

// ClampLimit limit <= 0 或超过上限时回退到默认值
func ClampLimit(limit int) int {
	if limit <= 0 || limit > maxHistoryLimit {
		return defaultHistoryLimit
	}
	return limit
}

// Close 断开连接
func (s *Stores) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
