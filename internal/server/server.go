package server

import (
	"log/slog"
	"net/http"

	"superstore-map/internal/handlers"
	"superstore-map/internal/services"
)

type Server struct {
	session     *services.Session
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(session *services.Session, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		session:     session,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(session, logger),
		sseHandlers: handlers.NewSSEHandlers(session, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes; /{$} keeps unknown paths out of the dashboard handler
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// Map data endpoints
	s.mux.HandleFunc("GET /api/circles", s.apiHandlers.HandleCircles)
	s.mux.HandleFunc("GET /api/heatmap", s.apiHandlers.HandleHeatmap)
	s.mux.HandleFunc("GET /api/compare", s.apiHandlers.HandleCompare)
	s.mux.HandleFunc("GET /api/countries", s.apiHandlers.HandleCountries)

	// Window and animation control
	s.mux.HandleFunc("GET /api/window", s.apiHandlers.HandleGetWindow)
	s.mux.HandleFunc("POST /api/window", s.apiHandlers.HandleSetWindow)
	s.mux.HandleFunc("POST /api/timeline/start", s.apiHandlers.HandleTimelineStart)
	s.mux.HandleFunc("POST /api/timeline/pause", s.apiHandlers.HandleTimelinePause)
	s.mux.HandleFunc("POST /api/timeline/stop", s.apiHandlers.HandleTimelineStop)
	s.mux.HandleFunc("POST /api/timeline/delay", s.apiHandlers.HandleTimelineDelay)
	s.mux.HandleFunc("POST /api/timeline/granularity", s.apiHandlers.HandleTimelineGranularity)
	s.mux.HandleFunc("POST /api/rotate", s.apiHandlers.HandleRotate)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/timeline", s.sseHandlers.HandleTimelineStream)
	s.mux.HandleFunc("GET /sse/compare", s.sseHandlers.HandleComparePanel)
	s.mux.HandleFunc("GET /sse/map-refresh", s.sseHandlers.HandleMapRefresh)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
