// Package usecase はマイグレーション実行とクライアントコード生成のユースケースを実装する。
package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"data-migration-tool/internal/domain"
)

// MigrationRegistry はマイグレーションディレクトリの一覧を提供するインターフェース。
type MigrationRegistry interface {
	List(ctx context.Context) ([]*domain.MigrationUnit, error)
	Find(ctx context.Context, name string) (*domain.MigrationUnit, error)
}

// HistoryStore はマイグレーション履歴を読み取るインターフェース。
type HistoryStore interface {
	TableExists(ctx context.Context) (bool, error)
	GetByName(ctx context.Context, name string) (*domain.MigrationHistoryRecord, error)
	FindAllApplied(ctx context.Context) ([]*domain.MigrationHistoryRecord, error)
}

// HistoryStoreFactory は接続からHistoryStoreを生成する。
type HistoryStoreFactory func(db *gorm.DB) HistoryStore

// Connector はデータソースへの接続を管理するインターフェース。
type Connector interface {
	Connect(ctx context.Context, ds domain.DatasourceConfig) (*gorm.DB, error)
	Disconnect(db *gorm.DB) error
}

// MigrationEngine は指定されたマイグレーションまでスキーマを進めるインターフェース。
type MigrationEngine interface {
	AdvanceTo(ctx context.Context, db *gorm.DB, name string) error
}

// PostScriptRunner はマイグレーションディレクトリのポストスクリプトを実行するインターフェース。
type PostScriptRunner interface {
	Run(ctx context.Context, migrationDir string) error
}

// StateObserver は実行状態の遷移を受け取る。
type StateObserver func(state domain.RunState, migration string)

// MigrateOptions はマイグレーション実行のオプション。
type MigrateOptions struct {
	Target        string // 空の場合は全マイグレーションを対象にする
	IncludeTarget bool
}

// SkippedPostScript は実行されなかったポストスクリプト。
type SkippedPostScript struct {
	Migration string
	Decision  domain.PostScriptDecision
	Delta     int
}

// MigrateResult はマイグレーション実行の結果。
type MigrateResult struct {
	Advanced    []string // エンジンを進めた先のマイグレーション名
	PostScripts []string // 実行したポストスクリプトのマイグレーション名
	Skipped     []SkippedPostScript
}

// MigrationService はマイグレーションとポストスクリプトの実行を制御する。
type MigrationService struct {
	registry   MigrationRegistry
	connector  Connector
	engine     MigrationEngine
	history    HistoryStoreFactory
	runner     PostScriptRunner
	datasource domain.DatasourceConfig
	observer   StateObserver
	tracer     trace.Tracer
}

// NewMigrationService は新しいMigrationServiceを生成する。
func NewMigrationService(
	registry MigrationRegistry,
	connector Connector,
	engine MigrationEngine,
	history HistoryStoreFactory,
	runner PostScriptRunner,
	datasource domain.DatasourceConfig,
) *MigrationService {
	return &MigrationService{
		registry:   registry,
		connector:  connector,
		engine:     engine,
		history:    history,
		runner:     runner,
		datasource: datasource,
		tracer:     otel.Tracer("data-migration-tool/usecase"),
	}
}

// SetStateObserver は状態遷移の通知先を設定する。
func (s *MigrationService) SetStateObserver(observer StateObserver) {
	s.observer = observer
}

func (s *MigrationService) transition(ctx context.Context, state domain.RunState, migration string) {
	slog.DebugContext(ctx, "run state changed",
		"operation", "migrate",
		"state", state.String(),
		"migration", migration,
	)
	if s.observer != nil {
		s.observer(state, migration)
	}
}

// SelectRange は target までのマイグレーションを返す。
// target が空の場合は全件、includeTarget が false の場合は target を含まない。
func SelectRange(units []*domain.MigrationUnit, target string, includeTarget bool) ([]*domain.MigrationUnit, error) {
	if target == "" {
		return units, nil
	}
	for i, u := range units {
		if u.Name != target {
			continue
		}
		if includeTarget {
			return units[:i+1], nil
		}
		return units[:i], nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrMigrationNotFound, target)
}

// Migrate は対象範囲のマイグレーションを順に適用する。
// ポストスクリプトを持つマイグレーションごとにエンジンを進め、
// 適用済みステップ数がちょうど1増えた場合のみポストスクリプトを実行する。
func (s *MigrationService) Migrate(ctx context.Context, opts MigrateOptions) (result *MigrateResult, err error) {
	ctx, span := s.tracer.Start(ctx, "migration.migrate",
		trace.WithAttributes(
			attribute.String("migration.target", opts.Target),
			attribute.Bool("migration.include_target", opts.IncludeTarget),
		),
	)
	defer span.End()

	s.transition(ctx, domain.RunStateIdle, "")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "migrate failed")
			s.transition(ctx, domain.RunStateFailed, "")
		}
	}()

	if opts.Target != "" {
		if err := domain.ValidateMigrationName(opts.Target); err != nil {
			return nil, err
		}
	}

	units, err := s.registry.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list migrations",
			"operation", "migrate",
			"error", err,
		)
		return nil, err
	}

	targets, err := SelectRange(units, opts.Target, opts.IncludeTarget)
	if err != nil {
		return nil, err
	}

	result = &MigrateResult{}
	if len(targets) == 0 {
		slog.InfoContext(ctx, "no migrations in range",
			"operation", "migrate",
			"target", opts.Target,
		)
		s.transition(ctx, domain.RunStateDone, "")
		return result, nil
	}

	db, err := s.connector.Connect(ctx, s.datasource)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.connector.Disconnect(db); cerr != nil {
			slog.WarnContext(ctx, "failed to close database connection",
				"operation", "migrate",
				"error", cerr,
			)
		}
	}()

	tracker := NewStepTracker(s.history(db))
	last := ""
	for _, unit := range targets {
		if !unit.HasPostScript {
			continue
		}

		s.transition(ctx, domain.RunStateSampling, unit.Name)
		before, err := tracker.Sample(ctx, unit.Name)
		if err != nil {
			return nil, err
		}

		s.transition(ctx, domain.RunStateAdvancing, unit.Name)
		if err := s.engine.AdvanceTo(ctx, db, unit.Name); err != nil {
			return nil, err
		}
		result.Advanced = append(result.Advanced, unit.Name)
		last = unit.Name

		s.transition(ctx, domain.RunStateSampling, unit.Name)
		after, err := tracker.Sample(ctx, unit.Name)
		if err != nil {
			return nil, err
		}
		delta, err := StepDelta(before, after)
		if err != nil {
			slog.ErrorContext(ctx, "migration history is inconsistent",
				"operation", "migrate",
				"migration", unit.Name,
				"error", err,
			)
			return nil, fmt.Errorf("%s: %w", unit.Name, err)
		}

		s.transition(ctx, domain.RunStateDecidingScript, unit.Name)
		if err := s.applyDecision(ctx, unit, delta, result); err != nil {
			return nil, err
		}
	}

	end := targets[len(targets)-1].Name
	if last != end {
		s.transition(ctx, domain.RunStateAdvancing, end)
		if err := s.engine.AdvanceTo(ctx, db, end); err != nil {
			return nil, err
		}
		result.Advanced = append(result.Advanced, end)
	}

	s.transition(ctx, domain.RunStateDone, "")
	return result, nil
}

func (s *MigrationService) applyDecision(ctx context.Context, unit *domain.MigrationUnit, delta int, result *MigrateResult) error {
	decision := domain.DecidePostScript(delta)
	switch decision {
	case domain.PostScriptRun:
		slog.InfoContext(ctx, "running post script",
			"operation", "migrate",
			"migration", unit.Name,
		)
		if err := s.runner.Run(ctx, unit.Dir); err != nil {
			slog.ErrorContext(ctx, "post script failed",
				"operation", "migrate",
				"migration", unit.Name,
				"error", err,
			)
			return fmt.Errorf("post script for %s: %w", unit.Name, err)
		}
		result.PostScripts = append(result.PostScripts, unit.Name)
	case domain.PostScriptSkipAlreadyApplied:
		slog.InfoContext(ctx, "post script skipped: migration was already applied",
			"operation", "migrate",
			"migration", unit.Name,
		)
		result.Skipped = append(result.Skipped, SkippedPostScript{Migration: unit.Name, Decision: decision, Delta: delta})
	default:
		slog.WarnContext(ctx, "post script skipped: several steps were applied at once",
			"operation", "migrate",
			"migration", unit.Name,
			"applied_steps", delta,
			"manual_command", "migratectl execute "+unit.Name,
		)
		result.Skipped = append(result.Skipped, SkippedPostScript{Migration: unit.Name, Decision: decision, Delta: delta})
	}
	return nil
}

// ExecutePostScript は指定されたマイグレーションのポストスクリプトを直接実行する。
// ステップ差分による判定は行わない。
func (s *MigrationService) ExecutePostScript(ctx context.Context, name string) error {
	unit, err := s.registry.Find(ctx, name)
	if err != nil {
		return err
	}
	if !unit.HasPostScript {
		return fmt.Errorf("%w: %s", domain.ErrNoPostScript, name)
	}

	slog.InfoContext(ctx, "executing post script",
		"operation", "execute_post_script",
		"migration", name,
	)
	if err := s.runner.Run(ctx, unit.Dir); err != nil {
		slog.ErrorContext(ctx, "post script failed",
			"operation", "execute_post_script",
			"migration", name,
			"error", err,
		)
		return fmt.Errorf("post script for %s: %w", name, err)
	}
	return nil
}

// Status は各マイグレーションの適用状況を返す。
// 履歴テーブルが存在しない場合は全て未適用とする。
func (s *MigrationService) Status(ctx context.Context) ([]*domain.Migration, error) {
	units, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}

	db, err := s.connector.Connect(ctx, s.datasource)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.connector.Disconnect(db); cerr != nil {
			slog.WarnContext(ctx, "failed to close database connection",
				"operation", "status",
				"error", cerr,
			)
		}
	}()

	history := s.history(db)
	exists, err := history.TableExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking migration history table: %w", err)
	}

	applied := make(map[string]*domain.MigrationHistoryRecord)
	if exists {
		records, err := history.FindAllApplied(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to fetch applied migrations",
				"operation", "status",
				"error", err,
			)
			return nil, fmt.Errorf("failed to fetch applied migrations: %w", err)
		}
		for _, r := range records {
			applied[r.Name] = r
		}
	}

	migrations := make([]*domain.Migration, 0, len(units))
	for _, u := range units {
		m := &domain.Migration{
			Name:          u.Name,
			HasSchema:     u.HasSchemaDocument,
			HasPostScript: u.HasPostScript,
			Status:        domain.MigrationStatusPending,
		}
		if r, ok := applied[u.Name]; ok {
			m.Status = domain.MigrationStatusApplied
			m.AppliedAt = r.FinishedAt
		}
		migrations = append(migrations, m)
	}
	return migrations, nil
}
