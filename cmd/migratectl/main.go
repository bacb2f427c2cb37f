// Package main はマイグレーションCLIのエントリポイント。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"data-migration-tool/config"
	"data-migration-tool/internal/domain"
	"data-migration-tool/internal/infra"
	"data-migration-tool/internal/repository"
	"data-migration-tool/internal/usecase"
)

const version = "1.0.0"

var (
	cfg            *config.Config
	shutdownTracer infra.ShutdownFunc
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "migratectl",
		Short:         "Schema migrations with per-migration post scripts and clients",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .envファイルを読み込む（存在しない場合は無視）
			// 既存の環境変数は上書きしない
			_ = godotenv.Load()

			cfg = config.Load()
			infra.SetupLogger(cfg, os.Stderr)

			shutdown, err := infra.InitTracer(cmd.Context(), cfg, version)
			if err != nil {
				return fmt.Errorf("failed to init tracer: %w", err)
			}
			shutdownTracer = shutdown
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if shutdownTracer == nil {
				return nil
			}
			return shutdownTracer(context.Background())
		},
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(executeCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("migratectl version %s\n", version)
		},
	}
}

func newRegistry() (*repository.MigrationDirectory, error) {
	registry, err := repository.NewMigrationDirectory(cfg.MigrationsDir, cfg.SchemaFileName, cfg.PostScriptFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve migrations directory: %w", err)
	}
	return registry, nil
}

func resolveDatasource() (domain.DatasourceConfig, error) {
	resolver := usecase.NewDatasourceResolver(infra.NewFileConfigLoader(cfg.ExternalConfigPath))
	ds, err := resolver.ResolveFile(cfg.SchemaPath)
	if err != nil {
		return domain.DatasourceConfig{}, fmt.Errorf("failed to resolve datasource from %s: %w", cfg.SchemaPath, err)
	}
	slog.Debug("datasource resolved",
		"operation", "resolve_datasource",
		"provider", string(ds.Provider),
	)
	return ds, nil
}

func historyStore(db *gorm.DB) usecase.HistoryStore {
	return repository.NewHistoryRepository(db)
}

// newMigrationService は設定からMigrationServiceを組み立てる。
func newMigrationService() (*usecase.MigrationService, error) {
	registry, err := newRegistry()
	if err != nil {
		return nil, err
	}
	ds, err := resolveDatasource()
	if err != nil {
		return nil, err
	}
	runner, err := infra.NewPostScriptRunner(cfg.PostScriptCommand, cfg.PostScriptFileName, "DATABASE_URL="+ds.URL)
	if err != nil {
		return nil, err
	}
	engine := infra.NewSQLEngine(registry, cfg.MigrationSQLFile)
	return usecase.NewMigrationService(registry, infra.NewConnector(cfg), engine, historyStore, runner, ds), nil
}
