// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"os"
	"strconv"
)

// Config はアプリケーション設定を表す。
type Config struct {
	Port     string
	LogLevel string

	// マイグレーションディレクトリの構成
	MigrationsDir      string
	MigrationSQLFile   string
	SchemaFileName     string
	PostScriptFileName string

	// スキーマとデータソース
	SchemaPath         string
	ExternalConfigPath string

	// 外部コマンド
	PostScriptCommand string
	GenerateCommand   string

	// コード生成
	ClientOutputDir    string
	TempSchemaDir      string
	CodegenConcurrency int

	OtelEnabled      bool
	OtelEndpoint     string
	OtelServiceName  string
	OtelSamplingRate float64
}

// Load は環境変数から設定を読み込む。
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		MigrationsDir:      getEnv("MIGRATIONS_DIR", "./prisma/migrations"),
		MigrationSQLFile:   getEnv("MIGRATION_SQL_FILE", "migration.sql"),
		SchemaFileName:     getEnv("MIGRATION_SCHEMA_FILE", "schema.prisma"),
		PostScriptFileName: getEnv("POST_SCRIPT_FILE", "post.ts"),

		SchemaPath:         getEnv("SCHEMA_PATH", "./prisma/schema.prisma"),
		ExternalConfigPath: getEnv("EXTERNAL_CONFIG_PATH", "migrate.config.yaml"),

		PostScriptCommand: getEnv("POST_SCRIPT_COMMAND", "npx tsx"),
		GenerateCommand:   getEnv("GENERATE_COMMAND", "npx prisma generate --schema"),

		ClientOutputDir:    getEnv("CLIENT_OUTPUT_DIR", "./node_modules/.prisma/migrations"),
		TempSchemaDir:      getEnv("TEMP_SCHEMA_DIR", "./prisma/.tmp"),
		CodegenConcurrency: getEnvInt("CODEGEN_CONCURRENCY", 4),

		OtelEnabled:      getEnvBool("OTEL_ENABLED", false),
		OtelEndpoint:     getEnv("OTEL_ENDPOINT", "localhost:4317"),
		OtelServiceName:  getEnv("OTEL_SERVICE_NAME", "data-migration-tool"),
		OtelSamplingRate: getEnvFloat("OTEL_SAMPLING_RATE", 1.0),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultVal
}
