package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nimbus-docs/internal/middleware/logger"
	"nimbus-docs/internal/nimbus_docs/api"
	"nimbus-docs/internal/nimbus_docs/helper"
	"nimbus-docs/internal/nimbus_docs/processor"
	"nimbus-docs/internal/nimbus_docs/scheduler"
	"nimbus-docs/internal/nimbus_docs/session"
	"nimbus-docs/pkg/config"
)

func newServeCmd() *cobra.Command {
	var configPath, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and the proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	switch cfg.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		return fmt.Errorf("unknown server mode %q", cfg.Server.Mode)
	}

	log, err := logger.NewLogger(cfg.Log.Development, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	log.Info("Starting NimbusDocs...")

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &api.Server{
		Log:        log,
		SessionTTL: cfg.Session.TTL,
	}

	// 1) 调用记录（可选）
	var recorder processor.Recorder
	if cfg.Mongo.Enabled() {
		stores, err := helper.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer func() {
			if err := stores.Close(context.Background()); err != nil {
				log.Warn("Failed to disconnect mongo", zap.Error(err))
			}
		}()
		recorder = stores
		srv.History = stores
		log.Info("Run history enabled", zap.String("collection", cfg.Mongo.HistoryCollection))
	}
	srv.Proxy = processor.NewProcessor(log, nil, recorder)

	// 2) 会话存储
	if cfg.Redis.Enabled() {
		store, err := session.NewRedisStore(ctx, log, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Session.TTL)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		srv.Sessions = store
	} else {
		srv.Sessions = session.NewMemoryStore(cfg.Session.TTL)
	}

	// 3) 预加载描述文件
	if cfg.Preload.File != "" {
		worker := &scheduler.Worker{Log: log, Path: cfg.Preload.File, OnLoad: srv.SetPreload}
		if err := worker.LoadOnce(); err != nil {
			return fmt.Errorf("preload %s: %w", cfg.Preload.File, err)
		}
		if cfg.Preload.Watch {
			go func() {
				if err := worker.Run(ctx); err != nil {
					log.Error("Preload watcher stopped", zap.Error(err))
				}
			}()
		}
	}

	// 4) 起 HTTP 服务
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
