package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/contactos", func(r chi.Router) {
			r.Get("/", h.ListContacts)
			r.Post("/import", h.ImportContacts)
			r.Route("/{pasID}", func(r chi.Router) {
				r.Get("/", h.GetContact)
				r.Post("/historial", h.RecordOutreach)
				r.Post("/derivador", h.ToggleReferrer)
				r.Get("/walink", h.WhatsAppLink)
			})
		})

		r.Get("/imports/{sessionID}", h.GetImportProgress)

		r.Route("/clientes", func(r chi.Router) {
			r.Get("/", h.ListReferrers)
			r.Post("/{pasID}/casos", h.SaveCase)
			r.Delete("/{pasID}/casos/{casoID}", h.DeleteCase)
		})

		r.Get("/dashboard", h.GetDashboard)
		r.Get("/export", h.ExportCases)

		r.Route("/backup", func(r chi.Router) {
			r.Get("/", h.DownloadBackup)
			r.Post("/restore", h.RestoreBackup)
		})
	})

	return r
}
