package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"MIGRATIONS_DIR", "POST_SCRIPT_FILE", "CODEGEN_CONCURRENCY", "OTEL_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.MigrationsDir != "./prisma/migrations" {
		t.Errorf("expected default migrations dir, got %s", cfg.MigrationsDir)
	}
	if cfg.PostScriptFileName != "post.ts" {
		t.Errorf("expected default post script file, got %s", cfg.PostScriptFileName)
	}
	if cfg.CodegenConcurrency != 4 {
		t.Errorf("expected default concurrency 4, got %d", cfg.CodegenConcurrency)
	}
	if cfg.OtelEnabled {
		t.Error("expected otel to be disabled by default")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "/srv/migrations")
	t.Setenv("CODEGEN_CONCURRENCY", "8")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLING_RATE", "0.25")

	cfg := Load()

	if cfg.MigrationsDir != "/srv/migrations" {
		t.Errorf("expected /srv/migrations, got %s", cfg.MigrationsDir)
	}
	if cfg.CodegenConcurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", cfg.CodegenConcurrency)
	}
	if !cfg.OtelEnabled {
		t.Error("expected otel to be enabled")
	}
	if cfg.OtelSamplingRate != 0.25 {
		t.Errorf("expected sampling rate 0.25, got %f", cfg.OtelSamplingRate)
	}
}

func TestLoad_InvalidConcurrencyFallsBack(t *testing.T) {
	t.Setenv("CODEGEN_CONCURRENCY", "-1")

	if got := Load().CodegenConcurrency; got != 4 {
		t.Errorf("expected fallback concurrency 4, got %d", got)
	}
}
