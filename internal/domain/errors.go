package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMigrationName はマイグレーション名が命名規約に従っていない場合のエラー。
	ErrInvalidMigrationName = errors.New("invalid migration name")

	// ErrMigrationNotFound は指定されたマイグレーションが存在しない場合のエラー。
	ErrMigrationNotFound = errors.New("migration not found")

	// ErrMigrationFailed はマイグレーション実行時のエラー。
	ErrMigrationFailed = errors.New("migration failed")

	// ErrMissingEnvVar は env() で参照された環境変数が未設定の場合のエラー。
	ErrMissingEnvVar = errors.New("environment variable not set")

	// ErrUnsupportedExpression は文字列リテラルでも env() でもない式の場合のエラー。
	ErrUnsupportedExpression = errors.New("unsupported expression")

	// ErrInvalidExternalConfig は外部設定ファイルの内容が不正な場合のエラー。
	ErrInvalidExternalConfig = errors.New("invalid external config")

	// ErrUnsupportedProvider はデータソースのプロバイダがサポート外の場合のエラー。
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrMissingProvider はデータソースにproviderが定義されていない場合のエラー。
	ErrMissingProvider = errors.New("datasource provider is required")

	// ErrInvalidDatasourceURL はデータソースのURLが空、または不正な形式の場合のエラー。
	ErrInvalidDatasourceURL = errors.New("invalid datasource url")

	// ErrDatasourceNotFound はスキーマにdatasourceブロックがちょうど1つ存在しない場合のエラー。
	ErrDatasourceNotFound = errors.New("schema must contain exactly one datasource block")

	// ErrGeneratorBlockCount はクライアント生成ブロックがちょうど1つでない場合のエラー。
	ErrGeneratorBlockCount = errors.New("schema must contain exactly one client generator block")

	// ErrNoPostScript はマイグレーションにポストスクリプトが存在しない場合のエラー。
	ErrNoPostScript = errors.New("migration has no post script")

	// ErrNoSchemaDocument はマイグレーションにスキーマ定義ファイルが存在しない場合のエラー。
	ErrNoSchemaDocument = errors.New("migration has no schema document")

	// ErrHistoryIntegrityFault は履歴の適用ステップ数が減少した場合のエラー。
	ErrHistoryIntegrityFault = errors.New("migration history integrity fault")

	// ErrSchemaSyntax はスキーマ定義の構文エラー。
	ErrSchemaSyntax = errors.New("schema syntax error")
)

// InvalidMigrationName は命名規約違反のエラーを生成する。
func InvalidMigrationName(name string) error {
	return fmt.Errorf("%w: %q (expected format: {version}_{name})", ErrInvalidMigrationName, name)
}

// UnsupportedProvider はサポート対象のプロバイダ一覧を含むエラーを生成する。
func UnsupportedProvider(provider string) error {
	names := make([]string, len(SupportedProviders))
	for i, p := range SupportedProviders {
		names[i] = string(p)
	}
	return fmt.Errorf("%w: %q (supported providers: %s)", ErrUnsupportedProvider, provider, strings.Join(names, ", "))
}
