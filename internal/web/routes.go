package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/whereabouts/internal/web/handlers"
	"github.com/kozaktomas/whereabouts/internal/web/static"
)

func (s *Server) setupRoutes() {
	identitiesHandler := handlers.NewIdentitiesHandler(s.deps.Store, s.logger)
	whereHandler := handlers.NewWhereHandler(s.deps.Inferencer, s.deps.Tracker, s.deps.Now)
	framesHandler := handlers.NewFramesHandler(s.deps.Hub, s.logger)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Roster
		r.Get("/identities", identitiesHandler.List)
		r.Get("/identities/audit", identitiesHandler.Audit)

		// Locations
		r.Get("/where/{identity}", whereHandler.Get)
		r.Get("/locations", whereHandler.Locations)

		// Live frames
		r.Get("/frames/latest", framesHandler.Latest)
		r.Get("/frames/latest.jpg", framesHandler.LatestImage)
		r.Get("/frames/events", framesHandler.Events)
	})

	s.router.Get("/", s.serveIndex)
}

// serveIndex serves the embedded viewer page.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(static.Index())
}
