package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/config"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/handler/chat"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/handler/session"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/handler/stream"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/metrics"
	middlewarePkg "github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/middleware"
	chatService "github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/chat"
	tutorService "github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/tutor"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/pkg/utils"
)

const (
	serviceName    = "Education Bot API"
	serviceVersion = "1.0.0"
)

var endpoints = map[string]string{
	"POST /session/new":             "Buat session baru",
	"POST /api/chat":                "Kirim pesan (body: sessionId, message) atau conversation array",
	"POST /api/chat-with-image":     "Kirim pesan dengan gambar (multipart: sessionId, message, image)",
	"GET /session/:sessionId":       "Lihat riwayat chat",
	"GET /session/:sessionId/stats": "Statistik session",
	"DELETE /session/:sessionId":    "Hapus session",
	"GET /sessions":                 "List semua session aktif",
	"GET /ws/session/:sessionId":    "Chat lewat WebSocket",
}

// NewRouter wires HTTP routes to core services. A nil metrics disables the
// /metrics endpoint.
func NewRouter(sessions *chatService.Service, tutorSvc *tutorService.Service, m *metrics.Metrics, upload config.UploadConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middlewarePkg.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"name":           serviceName,
			"version":        serviceVersion,
			"endpoints":      endpoints,
			"activeSessions": sessions.Count(),
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
	})

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	session.New(sessions).RegisterRoutes(r)
	stream.New(sessions, tutorSvc).RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		chat.New(tutorSvc, upload).RegisterRoutes(api)
	})

	return r
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusNotFound, map[string]any{
		"success":            false,
		"error":              "Endpoint tidak ditemukan",
		"availableEndpoints": endpoints,
	})
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	utils.RespondError(w, http.StatusMethodNotAllowed, "Method "+r.Method+" tidak diizinkan untuk "+r.URL.Path)
}
