package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"data-migration-tool/internal/domain"
	"data-migration-tool/pkg/fsutil"
)

// ClientGenerator は外部のクライアントコード生成を実行するインターフェース。
type ClientGenerator interface {
	Generate(ctx context.Context, schemaPath string) error
}

// SchemaRegistry はスキーマ定義ファイルの場所も解決できるマイグレーションレジストリ。
type SchemaRegistry interface {
	MigrationRegistry
	SchemaPath(unit *domain.MigrationUnit) string
}

// CodegenOptions はクライアントコード生成の設定。
type CodegenOptions struct {
	OutputDir   string // 生成先のルート。マイグレーション名のサブディレクトリに出力する
	TempDir     string // 一時スキーマファイルの置き場所
	Concurrency int
}

// CodegenService はスキーマ定義を持つマイグレーションごとにクライアントコードを生成する。
type CodegenService struct {
	registry  SchemaRegistry
	generator ClientGenerator
	opts      CodegenOptions
}

// NewCodegenService は新しいCodegenServiceを生成する。
func NewCodegenService(registry SchemaRegistry, generator ClientGenerator, opts CodegenOptions) (*CodegenService, error) {
	outputDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving client output dir: %w", err)
	}
	opts.OutputDir = outputDir
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &CodegenService{
		registry:  registry,
		generator: generator,
		opts:      opts,
	}, nil
}

// GenerateAll はスキーマ定義を持つ全マイグレーションのクライアントコードを並行して生成する。
// 最初のエラーを返す。他のタスクの一時ファイルもそれぞれ削除される。
func (s *CodegenService) GenerateAll(ctx context.Context) ([]string, error) {
	units, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}

	var targets []*domain.MigrationUnit
	for _, u := range units {
		if u.HasSchemaDocument {
			targets = append(targets, u)
		}
	}
	if len(targets) == 0 {
		slog.InfoContext(ctx, "no migrations with schema document",
			"operation", "generate_all",
		)
		return nil, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, u := range targets {
		g.Go(func() error {
			return s.generate(gctx, u)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make([]string, len(targets))
	for i, u := range targets {
		names[i] = u.Name
	}
	return names, nil
}

// Generate は1つのマイグレーションのクライアントコードを生成する。
func (s *CodegenService) Generate(ctx context.Context, name string) error {
	unit, err := s.registry.Find(ctx, name)
	if err != nil {
		return err
	}
	if !unit.HasSchemaDocument {
		return fmt.Errorf("%w: %s", domain.ErrNoSchemaDocument, name)
	}
	return s.generate(ctx, unit)
}

// OutputPath はマイグレーションのクライアントコードの出力先を返す。
func (s *CodegenService) OutputPath(name string) string {
	return filepath.Join(s.opts.OutputDir, name)
}

func (s *CodegenService) generate(ctx context.Context, unit *domain.MigrationUnit) error {
	source := s.registry.SchemaPath(unit)
	output := s.OutputPath(unit.Name)

	err := fsutil.WithTempFile(TempSchemaPath(s.opts.TempDir, unit.Name), func(tmp string) error {
		if err := GenerateTempSchema(source, output, tmp); err != nil {
			return err
		}
		return s.generator.Generate(ctx, tmp)
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate client",
			"operation", "generate",
			"migration", unit.Name,
			"error", err,
		)
		return fmt.Errorf("generating client for %s: %w", unit.Name, err)
	}

	slog.InfoContext(ctx, "client generated",
		"operation", "generate",
		"migration", unit.Name,
		"output", output,
	)
	return nil
}
