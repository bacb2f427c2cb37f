// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import (
	"regexp"
	"time"
)

// MigrationStatus はマイグレーションの適用状態を表す
type MigrationStatus string

const (
	MigrationStatusPending MigrationStatus = "pending"
	MigrationStatusApplied MigrationStatus = "applied"
)

// migrationNameRegex はマイグレーションディレクトリ名の形式。
// フォーマット: {version}_{name} (例: 20240101000000_init, 001_add_col)
var migrationNameRegex = regexp.MustCompile(`^[0-9]+_[A-Za-z0-9_-]+$`)

// MigrationUnit はマイグレーションディレクトリ1つ分を表すドメインモデル。
// 実行中は不変として扱う。
type MigrationUnit struct {
	Name              string // ディレクトリ名（一意、並び順のキー）
	Dir               string // ディレクトリの絶対パス
	HasSchemaDocument bool   // スキーマ定義ファイルを持つか
	HasPostScript     bool   // ポストスクリプトを持つか
}

// MigrationHistoryRecord はマイグレーション履歴テーブルの1行を表す。
type MigrationHistoryRecord struct {
	Name              string
	AppliedStepsCount int
	FinishedAt        *time.Time
}

// Migration はマイグレーションの適用状況を表す
type Migration struct {
	Name          string          // マイグレーション名（ディレクトリ名）
	AppliedAt     *time.Time      // 適用日時（未適用の場合はnil）
	HasSchema     bool            // スキーマ定義ファイルの有無
	HasPostScript bool            // ポストスクリプトの有無
	Status        MigrationStatus // 適用状態
}

// ValidateMigrationName はマイグレーション名が命名規約に従っているか検証する。
func ValidateMigrationName(name string) error {
	if !migrationNameRegex.MatchString(name) {
		return InvalidMigrationName(name)
	}
	return nil
}

// IsMigrationName は名前が命名規約に従っている場合にtrueを返す。
func IsMigrationName(name string) bool {
	return migrationNameRegex.MatchString(name)
}
