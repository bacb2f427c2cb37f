// Package main はマイグレーション状況APIサーバーのエントリポイント。
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"data-migration-tool/config"
	"data-migration-tool/internal/handler"
	"data-migration-tool/internal/infra"
	"data-migration-tool/internal/repository"
	"data-migration-tool/internal/usecase"
)

const version = "1.0.0"

func main() {
	ctx := context.Background()

	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	// 設定読み込み
	cfg := config.Load()

	// トレーサー初期化（ロガー設定の前に実行）
	shutdown, err := infra.InitTracer(ctx, cfg, version)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			slog.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// トレース情報付きロガーを設定
	infra.SetupLogger(cfg, os.Stdout)

	// データソース解決
	resolver := usecase.NewDatasourceResolver(infra.NewFileConfigLoader(cfg.ExternalConfigPath))
	ds, err := resolver.ResolveFile(cfg.SchemaPath)
	if err != nil {
		slog.Error("failed to resolve datasource", "schema_path", cfg.SchemaPath, "error", err)
		os.Exit(1)
	}

	registry, err := repository.NewMigrationDirectory(cfg.MigrationsDir, cfg.SchemaFileName, cfg.PostScriptFileName)
	if err != nil {
		slog.Error("failed to resolve migrations directory", "error", err)
		os.Exit(1)
	}

	runner, err := infra.NewPostScriptRunner(cfg.PostScriptCommand, cfg.PostScriptFileName, "DATABASE_URL="+ds.URL)
	if err != nil {
		slog.Error("failed to init post script runner", "error", err)
		os.Exit(1)
	}

	// DI
	service := usecase.NewMigrationService(
		registry,
		infra.NewConnector(cfg),
		infra.NewSQLEngine(registry, cfg.MigrationSQLFile),
		func(db *gorm.DB) usecase.HistoryStore { return repository.NewHistoryRepository(db) },
		runner,
		ds,
	)
	h := handler.NewMigrationHandler(service)
	router := handler.NewRouter(h, cfg)

	// サーバー起動
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port, "provider", string(ds.Provider))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
