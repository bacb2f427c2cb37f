package infra

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"data-migration-tool/internal/domain"
	"data-migration-tool/internal/repository"
)

// MigrationSource は適用対象のマイグレーション一覧を提供する。
type MigrationSource interface {
	List(ctx context.Context) ([]*domain.MigrationUnit, error)
}

// SQLEngine は各マイグレーションディレクトリのSQLファイルを適用するマイグレーションエンジン。
// 適用結果は_prisma_migrationsテーブルに記録する。
type SQLEngine struct {
	source      MigrationSource
	sqlFileName string
	tracer      trace.Tracer
}

// NewSQLEngine は新しいSQLEngineを生成する。
func NewSQLEngine(source MigrationSource, sqlFileName string) *SQLEngine {
	return &SQLEngine{
		source:      source,
		sqlFileName: sqlFileName,
		tracer:      otel.Tracer("data-migration-tool/engine"),
	}
}

// AdvanceTo は指定されたマイグレーションまで（それを含む）未適用のマイグレーションを順に適用する。
// 適用済みの場合は何もしない。
func (e *SQLEngine) AdvanceTo(ctx context.Context, db *gorm.DB, target string) error {
	ctx, span := e.tracer.Start(ctx, "engine.advance_to",
		trace.WithAttributes(attribute.String("migration.target", target)),
	)
	defer span.End()

	units, err := e.source.List(ctx)
	if err != nil {
		return err
	}

	end := -1
	for i, u := range units {
		if u.Name == target {
			end = i
			break
		}
	}
	if end < 0 {
		return fmt.Errorf("%w: %s", domain.ErrMigrationNotFound, target)
	}

	history := repository.NewHistoryRepository(db)
	if err := history.EnsureTable(ctx); err != nil {
		return fmt.Errorf("failed to prepare migration history table: %w", err)
	}

	for _, unit := range units[:end+1] {
		record, err := history.GetByName(ctx, unit.Name)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if record != nil {
			if record.FinishedAt == nil {
				return fmt.Errorf("%w: %s was started but never finished; resolve it before continuing", domain.ErrMigrationFailed, unit.Name)
			}
			continue
		}

		if err := e.apply(ctx, db, unit); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "migration failed")
			slog.ErrorContext(ctx, "failed to apply migration",
				"operation", "advance_to",
				"migration", unit.Name,
				"error", err,
			)
			return fmt.Errorf("%w: %s: %w", domain.ErrMigrationFailed, unit.Name, err)
		}
		slog.InfoContext(ctx, "migration applied",
			"operation", "advance_to",
			"migration", unit.Name,
		)
	}

	return nil
}

// apply は単一のマイグレーションを実行する。
func (e *SQLEngine) apply(ctx context.Context, db *gorm.DB, unit *domain.MigrationUnit) error {
	sqlBytes, err := os.ReadFile(filepath.Join(unit.Dir, e.sqlFileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	sum := sha256.Sum256(sqlBytes)
	checksum := hex.EncodeToString(sum[:])
	startedAt := time.Now()

	// トランザクション内で実行
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(sqlBytes) > 0 {
			if err := tx.Exec(string(sqlBytes)).Error; err != nil {
				return fmt.Errorf("failed to execute migration SQL: %w", err)
			}
		}

		// 履歴を記録（トランザクション内で実行するため、同じtxを使用）
		if err := repository.NewHistoryRepository(tx).RecordMigration(ctx, unit.Name, checksum, startedAt); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}
