package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"data-migration-tool/config"
)

// NewRouter はルーターを生成する。
func NewRouter(h *MigrationHandler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", Healthz)

	r.Route("/v1/migrations", func(r chi.Router) {
		r.Get("/", h.ListMigrations)
		r.Get("/{name}", h.GetMigration)
		r.Post("/{name}/post-script", h.ExecutePostScript)
	})

	if cfg != nil && cfg.OtelEnabled {
		return otelhttp.NewHandler(r, "migration-status")
	}
	return r
}
