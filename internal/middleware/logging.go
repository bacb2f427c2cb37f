// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"time"
)

// WriteAuditLog は手動操作の監査ログを出力する。
func WriteAuditLog(ctx context.Context, operation, migration, result string) {
	slog.InfoContext(ctx, "manual operation completed",
		"operation", operation,
		"migration", migration,
		"result", result,
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	)
}
