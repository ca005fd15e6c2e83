package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/handler/apierror"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/model/chat"
	chatservice "github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/chat"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/tutor"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second

	// maxFrameBytes caps one inbound frame.
	maxFrameBytes = 1 << 20
)

// Handler serves chat over a websocket bound to one session.
type Handler struct {
	sessions *chatservice.Service
	tutor    *tutor.Service
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器
func New(sessions *chatservice.Service, tutorSvc *tutor.Service) *Handler {
	return &Handler{
		sessions: sessions,
		tutor:    tutorSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/session/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type outgoingMessage struct {
	Type         string `json:"type"`
	SessionID    string `json:"sessionId,omitempty"`
	Result       string `json:"result,omitempty"`
	MessageCount int    `json:"messageCount,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if _, err := h.sessions.GetSession(r.Context(), sessionID); err != nil {
		apierror.Write(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "websocket").Msg("upgrade failed")
		return
	}
	defer conn.Close()

	logger := log.With().Str("component", "websocket").Str("session_id", sessionID).Logger()
	logger.Info().Msg("connection opened")
	defer logger.Info().Msg("connection closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go pingLoop(ctx, conn)

	h.send(conn, outgoingMessage{Type: "connected", SessionID: sessionID})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("read error")
			}
			return
		}

		switch msg.Type {
		case "message":
			h.handleMessage(ctx, conn, sessionID, msg.Message)
		default:
			h.send(conn, outgoingMessage{Type: "error", Error: "unsupported message type: " + msg.Type})
		}

		// A slow model call may outlive the previous deadline.
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID, text string) {
	reply, err := h.tutor.Exchange(ctx, sessionID, chat.Content{Text: text})
	if err != nil {
		_, message := apierror.Status(err)
		h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Error: message})
		return
	}

	h.send(conn, outgoingMessage{
		Type:         "reply",
		SessionID:    reply.SessionID,
		Result:       reply.Result,
		MessageCount: reply.MessageCount,
	})
}

func (h *Handler) send(conn *websocket.Conn, msg outgoingMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Warn().Err(err).Str("component", "websocket").Str("type", msg.Type).Msg("write failed")
	}
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
