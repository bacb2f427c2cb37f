package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"data-migration-tool/internal/domain"
)

// MigrationDirectory はマイグレーションルートディレクトリを走査するリポジトリ。
// 読み取りのみで副作用はない。
type MigrationDirectory struct {
	root           string
	schemaFileName string
	postScriptName string
}

// NewMigrationDirectory は新しいMigrationDirectoryを生成する。
// root は絶対パスに変換して保持する。
func NewMigrationDirectory(root, schemaFileName, postScriptName string) (*MigrationDirectory, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve migrations directory: %w", err)
	}
	return &MigrationDirectory{
		root:           absRoot,
		schemaFileName: schemaFileName,
		postScriptName: postScriptName,
	}, nil
}

// SchemaPath はマイグレーションのスキーマ定義ファイルのパスを返す。
func (d *MigrationDirectory) SchemaPath(unit *domain.MigrationUnit) string {
	return filepath.Join(unit.Dir, d.schemaFileName)
}

// List は命名規約に従うマイグレーションをディレクトリ名順に返す。
func (d *MigrationDirectory) List(ctx context.Context) ([]*domain.MigrationUnit, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var units []*domain.MigrationUnit
	for _, entry := range entries {
		if !entry.IsDir() || !domain.IsMigrationName(entry.Name()) {
			continue
		}
		unit, err := d.load(entry.Name())
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}

	// タイムスタンプ接頭辞のため辞書順が作成順と一致する
	sort.Slice(units, func(i, j int) bool {
		return units[i].Name < units[j].Name
	})

	return units, nil
}

// Find は指定された名前のマイグレーションを返す。
func (d *MigrationDirectory) Find(ctx context.Context, name string) (*domain.MigrationUnit, error) {
	if err := domain.ValidateMigrationName(name); err != nil {
		return nil, err
	}
	info, err := os.Stat(filepath.Join(d.root, name))
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrMigrationNotFound, name)
	}
	return d.load(name)
}

func (d *MigrationDirectory) load(name string) (*domain.MigrationUnit, error) {
	dir := filepath.Join(d.root, name)
	hasSchema, err := fileExists(filepath.Join(dir, d.schemaFileName))
	if err != nil {
		return nil, err
	}
	hasPostScript, err := fileExists(filepath.Join(dir, d.postScriptName))
	if err != nil {
		return nil, err
	}
	return &domain.MigrationUnit{
		Name:              name,
		Dir:               dir,
		HasSchemaDocument: hasSchema,
		HasPostScript:     hasPostScript,
	}, nil
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return !info.IsDir(), nil
}
