package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/chittoor-drda/chds-app/chds/service"
	chdsmiddleware "github.com/chittoor-drda/chds-app/middleware"
)

// NewAPIRouter builds the registry HTTP surface. The db handle is only used
// by the health check; all domain operations go through the service.
func NewAPIRouter(svc service.Service, db *sql.DB) http.Handler {
	h := &Handler{Svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, chdsmiddleware.NewTransactionID, NewStructuredLogger(), middleware.Recoverer, ConnectionClose)

	r.Route("/api", func(r chi.Router) {
		r.Get("/residents/{residentID}", h.GetResident)
		r.Patch("/residents/{residentID}", h.UpdateResident)
		r.Get("/locking", h.GetLocking)
		r.Put("/locking", h.SetLocking)
		r.Get("/stats/completion", h.GetCompletionStats)
		r.Get("/imports", h.GetImportHistory)
	})
	r.Get("/_version", h.GetVersion)
	r.Get("/_health", healthCheck(db))
	return r
}

func ConnectionClose(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Connection", "close")
		next.ServeHTTP(w, r)
	})
}

func healthCheck(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil || db.PingContext(r.Context()) != nil {
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, map[string]string{"database": "error"})
			return
		}
		render.JSON(w, r, map[string]string{"database": "ok"})
	}
}
