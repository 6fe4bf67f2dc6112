package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/tberg/doorbell/internal/handlers"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	contactHandler *handlers.ContactHandler,
	visitHandler *handlers.VisitHandler,
) {
	router.Route("/api", func(r chi.Router) {
		r.Post("/contact", contactHandler.SubmitContact)

		// Deliberately disabled; see VisitHandler.TrackVisit.
		r.Post("/track", visitHandler.TrackVisit)
	})
}
