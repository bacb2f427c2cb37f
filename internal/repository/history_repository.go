// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"data-migration-tool/internal/domain"
)

// MigrationHistoryModel は_prisma_migrationsテーブルのモデル。
type MigrationHistoryModel struct {
	ID                string     `gorm:"column:id;type:varchar(36);primaryKey"`
	Checksum          string     `gorm:"column:checksum;type:varchar(64);not null"`
	FinishedAt        *time.Time `gorm:"column:finished_at"`
	MigrationName     string     `gorm:"column:migration_name;type:varchar(255);not null"`
	Logs              *string    `gorm:"column:logs;type:text"`
	RolledBackAt      *time.Time `gorm:"column:rolled_back_at"`
	StartedAt         time.Time  `gorm:"column:started_at;not null"`
	AppliedStepsCount int        `gorm:"column:applied_steps_count;not null;default:0"`
}

// TableName はテーブル名を指定。
func (MigrationHistoryModel) TableName() string {
	return "_prisma_migrations"
}

// BeforeCreate はレコード作成前にUUIDを生成する。
func (m *MigrationHistoryModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

func (m *MigrationHistoryModel) toDomain() *domain.MigrationHistoryRecord {
	return &domain.MigrationHistoryRecord{
		Name:              m.MigrationName,
		AppliedStepsCount: m.AppliedStepsCount,
		FinishedAt:        m.FinishedAt,
	}
}

// HistoryRepository はマイグレーション履歴を管理するリポジトリ。
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository は新しいHistoryRepositoryを生成する。
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// TableExists は履歴テーブルが存在するか確認する。
// 新規データベースではテーブルが存在しないのが正常な状態。
// 問い合わせに失敗した場合は「存在しない」とは扱わずエラーを返す。
func (r *HistoryRepository) TableExists(ctx context.Context) (bool, error) {
	query, err := tableExistsQuery(r.db.Dialector.Name())
	if err != nil {
		return false, err
	}

	var count int64
	if err := r.db.WithContext(ctx).Raw(query, MigrationHistoryModel{}.TableName()).Scan(&count).Error; err != nil {
		slog.ErrorContext(ctx, "failed to check migration history table",
			"operation", "table_exists",
			"error", err,
		)
		return false, err
	}
	return count > 0, nil
}

func tableExistsQuery(dialect string) (string, error) {
	switch dialect {
	case "sqlite":
		return "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", nil
	case "mysql":
		return "SELECT count(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ? AND table_type = 'BASE TABLE'", nil
	case "postgres":
		return "SELECT count(*) FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA() AND table_name = ? AND table_type = 'BASE TABLE'", nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, dialect)
	}
}

// EnsureTable は履歴テーブルが存在しない場合に作成する。
func (r *HistoryRepository) EnsureTable(ctx context.Context) error {
	exists, err := r.TableExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := r.db.WithContext(ctx).Migrator().CreateTable(&MigrationHistoryModel{}); err != nil {
		slog.ErrorContext(ctx, "failed to create migration history table",
			"operation", "ensure_table",
			"error", err,
		)
		return err
	}
	return nil
}

// GetByName は指定されたマイグレーションの最新の履歴を取得する。
// ロールバック済みの行は対象外。存在しない場合はnilを返す。
func (r *HistoryRepository) GetByName(ctx context.Context, name string) (*domain.MigrationHistoryRecord, error) {
	var model MigrationHistoryModel
	err := r.db.WithContext(ctx).
		Where("migration_name = ? AND rolled_back_at IS NULL", name).
		Order("started_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find migration history",
			"operation", "get_by_name",
			"migration", name,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// FindAllApplied は適用済みマイグレーション一覧を取得する。
func (r *HistoryRepository) FindAllApplied(ctx context.Context) ([]*domain.MigrationHistoryRecord, error) {
	var models []MigrationHistoryModel
	err := r.db.WithContext(ctx).
		Where("finished_at IS NOT NULL AND rolled_back_at IS NULL").
		Order("migration_name ASC").
		Find(&models).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to find all applied migrations",
			"operation", "find_all_applied",
			"error", err,
		)
		return nil, err
	}

	records := make([]*domain.MigrationHistoryRecord, len(models))
	for i := range models {
		records[i] = models[i].toDomain()
	}
	return records, nil
}

// RecordMigration はマイグレーション適用履歴を記録する。
func (r *HistoryRepository) RecordMigration(ctx context.Context, name, checksum string, startedAt time.Time) error {
	finishedAt := time.Now().UTC()
	model := &MigrationHistoryModel{
		Checksum:          checksum,
		MigrationName:     name,
		StartedAt:         startedAt.UTC(),
		FinishedAt:        &finishedAt,
		AppliedStepsCount: 1,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		slog.ErrorContext(ctx, "failed to record migration",
			"operation", "record_migration",
			"migration", name,
			"error", err,
		)
		return err
	}
	return nil
}
