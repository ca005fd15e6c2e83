package session

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/handler/apierror"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/model/chat"
	chatService "github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/chat"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/pkg/utils"
)

// Handler 会话管理的HTTP处理器
type Handler struct {
	sessions *chatService.Service
}

// New 创建会话处理器
func New(sessions *chatService.Service) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session/new", h.handleCreate)
	r.Get("/session/{sessionID}", h.handleHistory)
	r.Get("/session/{sessionID}/stats", h.handleStats)
	r.Delete("/session/{sessionID}", h.handleDelete)
	r.Get("/sessions", h.handleList)
}

type createResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	ExpiresIn string `json:"expiresIn"`
}

type historyResponse struct {
	Success       bool                `json:"success"`
	SessionID     string              `json:"sessionId"`
	History       []chat.HistoryEntry `json:"history"`
	TotalMessages int                 `json:"totalMessages"`
	CreatedAt     time.Time           `json:"createdAt"`
	LastActivity  time.Time           `json:"lastActivity"`
}

type stats struct {
	TotalMessages   int       `json:"totalMessages"`
	CreatedAt       time.Time `json:"createdAt"`
	LastActivity    time.Time `json:"lastActivity"`
	DurationMinutes int       `json:"durationMinutes"`
	IsActive        bool      `json:"isActive"`
}

type statsResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Stats     stats  `json:"stats"`
}

type listResponse struct {
	Success       bool           `json:"success"`
	TotalSessions int            `json:"totalSessions"`
	Sessions      []chat.Summary `json:"sessions"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.CreateSession(r.Context())

	utils.RespondJSON(w, http.StatusOK, createResponse{
		Success:   true,
		SessionID: session.ID,
		Message:   "Session baru berhasil dibuat. Gunakan sessionId ini untuk semua request chat.",
		ExpiresIn: HumanizeTTL(h.sessions.TTL()) + " sejak aktivitas terakhir",
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		apierror.Write(w, err)
		return
	}

	history := slices.Collect(session.History())
	if history == nil {
		history = []chat.HistoryEntry{}
	}

	utils.RespondJSON(w, http.StatusOK, historyResponse{
		Success:       true,
		SessionID:     session.ID,
		History:       history,
		TotalMessages: session.MessageCount,
		CreatedAt:     session.CreatedAt,
		LastActivity:  session.LastActivity,
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		apierror.Write(w, err)
		return
	}

	// The lookup just stamped LastActivity with the current time.
	duration := session.LastActivity.Sub(session.CreatedAt)

	utils.RespondJSON(w, http.StatusOK, statsResponse{
		Success:   true,
		SessionID: session.ID,
		Stats: stats{
			TotalMessages:   session.MessageCount,
			CreatedAt:       session.CreatedAt,
			LastActivity:    session.LastActivity,
			DurationMinutes: int(duration / time.Minute),
			IsActive:        true,
		},
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.sessions.DeleteSession(r.Context(), sessionID); err != nil {
		apierror.Write(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Session berhasil dihapus",
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	summaries := h.sessions.ListSessions(r.Context())
	if summaries == nil {
		summaries = []chat.Summary{}
	}

	utils.RespondJSON(w, http.StatusOK, listResponse{
		Success:       true,
		TotalSessions: len(summaries),
		Sessions:      summaries,
	})
}

// HumanizeTTL renders d in Indonesian, e.g. "1 jam" or "1 jam 30 menit".
func HumanizeTTL(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d detik", int(d/time.Second))
	}

	var parts []string
	if hours := int(d / time.Hour); hours > 0 {
		parts = append(parts, fmt.Sprintf("%d jam", hours))
	}
	if minutes := int(d%time.Hour) / int(time.Minute); minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d menit", minutes))
	}
	return strings.Join(parts, " ")
}
