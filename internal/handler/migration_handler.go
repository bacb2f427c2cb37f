// Package handler はHTTPハンドラを提供する。
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"data-migration-tool/internal/domain"
	"data-migration-tool/internal/middleware"
	"data-migration-tool/internal/usecase"
	"data-migration-tool/pkg/httputil"
)

// MigrationHandler はマイグレーション状況のHTTPハンドラを提供する。
type MigrationHandler struct {
	service *usecase.MigrationService
}

// NewMigrationHandler は新しいMigrationHandlerを生成する。
func NewMigrationHandler(service *usecase.MigrationService) *MigrationHandler {
	return &MigrationHandler{service: service}
}

// MigrationResponse はマイグレーションのレスポンス形式。
type MigrationResponse struct {
	Name          string  `json:"name"`
	Status        string  `json:"status"`
	HasSchema     bool    `json:"has_schema"`
	HasPostScript bool    `json:"has_post_script"`
	AppliedAt     *string `json:"applied_at"`
}

// MigrationListResponse はマイグレーション一覧のレスポンス形式。
type MigrationListResponse struct {
	Migrations []MigrationResponse `json:"migrations"`
	Pending    int                 `json:"pending"`
}

func toResponse(m *domain.Migration) MigrationResponse {
	resp := MigrationResponse{
		Name:          m.Name,
		Status:        string(m.Status),
		HasSchema:     m.HasSchema,
		HasPostScript: m.HasPostScript,
	}
	if m.AppliedAt != nil {
		s := m.AppliedAt.UTC().Format(time.RFC3339)
		resp.AppliedAt = &s
	}
	return resp
}

// ListMigrations は全マイグレーションの適用状況を返す。
func (h *MigrationHandler) ListMigrations(w http.ResponseWriter, r *http.Request) {
	migrations, err := h.service.Status(r.Context())
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	resp := MigrationListResponse{Migrations: make([]MigrationResponse, 0, len(migrations))}
	for _, m := range migrations {
		if m.Status == domain.MigrationStatusPending {
			resp.Pending++
		}
		resp.Migrations = append(resp.Migrations, toResponse(m))
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// GetMigration は指定されたマイグレーションの適用状況を返す。
func (h *MigrationHandler) GetMigration(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := domain.ValidateMigrationName(name); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_MIGRATION_NAME", "invalid migration name format")
		return
	}

	migrations, err := h.service.Status(r.Context())
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	for _, m := range migrations {
		if m.Name == name {
			httputil.JSON(w, http.StatusOK, toResponse(m))
			return
		}
	}
	httputil.Error(w, http.StatusNotFound, "MIGRATION_NOT_FOUND", "migration not found")
}

// ExecutePostScript は指定されたマイグレーションのポストスクリプトを手動で実行する。
func (h *MigrationHandler) ExecutePostScript(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := h.service.ExecutePostScript(r.Context(), name)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "EXECUTE_POST_SCRIPT", name, "FAILED")
		switch {
		case errors.Is(err, domain.ErrInvalidMigrationName):
			httputil.Error(w, http.StatusBadRequest, "INVALID_MIGRATION_NAME", "invalid migration name format")
		case errors.Is(err, domain.ErrMigrationNotFound):
			httputil.Error(w, http.StatusNotFound, "MIGRATION_NOT_FOUND", "migration not found")
		case errors.Is(err, domain.ErrNoPostScript):
			httputil.Error(w, http.StatusConflict, "NO_POST_SCRIPT", "migration has no post script")
		default:
			httputil.Error(w, http.StatusInternalServerError, "POST_SCRIPT_FAILED", "post script failed")
		}
		return
	}

	middleware.WriteAuditLog(r.Context(), "EXECUTE_POST_SCRIPT", name, "SUCCESS")
	w.WriteHeader(http.StatusAccepted)
}

// Healthz は死活監視用のエンドポイント。
func Healthz(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
