package usecase

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"data-migration-tool/internal/schema"
)

// GenerateTempSchema はスキーマ定義のクライアント生成ブロックの output を
// outputPath に書き換えたコピーを destPath に書き出す。
// 書き出したファイルは呼び出し側が必ず削除すること（fsutil.WithTempFile を使う）。
func GenerateTempSchema(sourcePath, outputPath, destPath string) error {
	source, err := schema.ParseFile(sourcePath)
	if err != nil {
		return err
	}

	rewritten, err := schema.WithClientOutput(source, outputPath)
	if err != nil {
		return fmt.Errorf("%s: %w", sourcePath, err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating temp schema dir: %w", err)
	}
	if err := os.WriteFile(destPath, []byte(schema.Format(rewritten)), 0o644); err != nil {
		return fmt.Errorf("writing temp schema: %w", err)
	}
	return nil
}

// TempSchemaPath はマイグレーションごとに一意な一時スキーマファイルのパスを返す。
func TempSchemaPath(dir, migrationName string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", migrationName, uuid.NewString(), schema.FileExtension))
}
