package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"data-migration-tool/internal/domain"
)

// mockGenerator は渡された一時スキーマファイルの存在を確認して記録する。
type mockGenerator struct {
	mu      sync.Mutex
	paths   []string
	failFor string
	err     error
}

func (m *mockGenerator) Generate(ctx context.Context, schemaPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := os.Stat(schemaPath); err != nil {
		return err
	}
	m.paths = append(m.paths, schemaPath)
	if m.failFor != "" && strings.HasPrefix(filepath.Base(schemaPath), m.failFor) {
		return m.err
	}
	return nil
}

func (m *mockRegistry) SchemaPath(unit *domain.MigrationUnit) string {
	return filepath.Join(unit.Dir, "schema.prisma")
}

func setupCodegen(t *testing.T, withSchema ...string) (*mockRegistry, string) {
	t.Helper()
	root := t.TempDir()
	registry := &mockRegistry{}
	for _, name := range []string{"001_init", "002_add_col", "003_seed"} {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
		u := &domain.MigrationUnit{Name: name, Dir: dir}
		for _, s := range withSchema {
			if s == name {
				if err := os.WriteFile(filepath.Join(dir, "schema.prisma"), []byte(sourceSchema), 0o644); err != nil {
					t.Fatalf("failed to write schema: %v", err)
				}
				u.HasSchemaDocument = true
			}
		}
		registry.units = append(registry.units, u)
	}
	return registry, filepath.Join(root, ".tmp")
}

func newTestCodegen(t *testing.T, registry SchemaRegistry, generator ClientGenerator, tempDir string) *CodegenService {
	t.Helper()
	svc, err := NewCodegenService(registry, generator, CodegenOptions{
		OutputDir:   filepath.Join(t.TempDir(), "clients"),
		TempDir:     tempDir,
		Concurrency: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("failed to read temp dir: %v", err)
	}
	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func TestCodegenService_GenerateAll(t *testing.T) {
	registry, tempDir := setupCodegen(t, "001_init", "003_seed")
	generator := &mockGenerator{}
	svc := newTestCodegen(t, registry, generator, tempDir)

	generated, err := svc.GenerateAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sort.Strings(generated)
	if len(generated) != 2 || generated[0] != "001_init" || generated[1] != "003_seed" {
		t.Errorf("want [001_init 003_seed], got %v", generated)
	}
	if len(generator.paths) != 2 {
		t.Errorf("want 2 generator calls, got %d", len(generator.paths))
	}
	if left := tempFiles(t, tempDir); len(left) != 0 {
		t.Errorf("want temp files removed, got %v", left)
	}
}

func TestCodegenService_GenerateAll_CleansUpOnFailure(t *testing.T) {
	registry, tempDir := setupCodegen(t, "001_init", "002_add_col", "003_seed")
	genErr := errors.New("generator failed")
	generator := &mockGenerator{failFor: "002_add_col", err: genErr}
	svc := newTestCodegen(t, registry, generator, tempDir)

	_, err := svc.GenerateAll(context.Background())
	if !errors.Is(err, genErr) {
		t.Fatalf("want generator error, got %v", err)
	}
	if left := tempFiles(t, tempDir); len(left) != 0 {
		t.Errorf("want temp files removed, got %v", left)
	}
}

func TestCodegenService_Generate(t *testing.T) {
	registry, tempDir := setupCodegen(t, "001_init")
	generator := &mockGenerator{}
	svc := newTestCodegen(t, registry, generator, tempDir)

	if err := svc.Generate(context.Background(), "001_init"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(generator.paths) != 1 {
		t.Fatalf("want 1 generator call, got %d", len(generator.paths))
	}
	if !filepath.IsAbs(svc.OutputPath("001_init")) {
		t.Errorf("want absolute output path, got %s", svc.OutputPath("001_init"))
	}

	tests := []struct {
		name    string
		target  string
		wantErr error
	}{
		{"no schema document", "002_add_col", domain.ErrNoSchemaDocument},
		{"not found", "009_missing", domain.ErrMigrationNotFound},
		{"invalid name", "seed", domain.ErrInvalidMigrationName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Generate(context.Background(), tt.target); !errors.Is(err, tt.wantErr) {
				t.Errorf("want %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCodegenService_Generate_InvalidSchema(t *testing.T) {
	registry, tempDir := setupCodegen(t)
	dir := registry.units[0].Dir
	if err := os.WriteFile(filepath.Join(dir, "schema.prisma"), []byte("datasource db {\n  provider = \"sqlite\"\n}\n"), 0o644); err != nil {
		t.Fatalf("failed to write schema: %v", err)
	}
	registry.units[0].HasSchemaDocument = true
	generator := &mockGenerator{}
	svc := newTestCodegen(t, registry, generator, tempDir)

	err := svc.Generate(context.Background(), "001_init")
	if !errors.Is(err, domain.ErrGeneratorBlockCount) {
		t.Errorf("want ErrGeneratorBlockCount, got %v", err)
	}
	if len(generator.paths) != 0 {
		t.Errorf("want generator not called, got %v", generator.paths)
	}
	if left := tempFiles(t, tempDir); len(left) != 0 {
		t.Errorf("want temp files removed, got %v", left)
	}
}
