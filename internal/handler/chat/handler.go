package chat

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/config"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/handler/apierror"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/model/chat"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/tutor"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/pkg/utils"
)

const (
	// maxJSONBody caps /chat request bodies.
	maxJSONBody = 10 << 20

	// multipartOverhead leaves room for the text fields and part headers on
	// top of the image itself.
	multipartOverhead = 1 << 20
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	tutor  *tutor.Service
	upload config.UploadConfig
}

// New 创建聊天处理器
func New(tutorSvc *tutor.Service, upload config.UploadConfig) *Handler {
	return &Handler{
		tutor:  tutorSvc,
		upload: upload,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/chat-with-image", h.handleChatWithImage)
}

type replyResponse struct {
	Success      bool   `json:"success"`
	SessionID    string `json:"sessionId"`
	Result       string `json:"result"`
	MessageCount int    `json:"messageCount"`
	HasImage     bool   `json:"hasImage,omitempty"`
}

// handleChat 处理会话消息或无状态的 conversation 请求
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	req, err := decodeChatRequest(r.Body)
	if err != nil {
		apierror.Write(w, err)
		return
	}

	switch req.kind {
	case kindLegacy:
		result, err := h.tutor.Converse(r.Context(), req.conversation)
		if err != nil {
			apierror.Write(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  result,
		})

	default:
		reply, err := h.tutor.Exchange(r.Context(), req.sessionID, chat.Content{Text: req.message})
		if err != nil {
			apierror.Write(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, replyResponse{
			Success:      true,
			SessionID:    reply.SessionID,
			Result:       reply.Result,
			MessageCount: reply.MessageCount,
		})
	}
}

// handleChatWithImage 处理带图片的会话消息
func (h *Handler) handleChatWithImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.upload.MaxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			utils.RespondError(w, http.StatusBadRequest, h.tooLargeMessage())
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "request harus berupa multipart/form-data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	sessionID := strings.TrimSpace(r.FormValue("sessionId"))
	message := r.FormValue("message")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId wajib diisi")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			utils.RespondError(w, http.StatusBadRequest, "Gambar tidak ditemukan")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "gagal membaca gambar")
		return
	}
	defer file.Close()

	mimeType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil || !h.upload.Allows(mimeType) {
		utils.RespondError(w, http.StatusBadRequest, "Hanya file gambar yang diperbolehkan!")
		return
	}

	if header.Size > h.upload.MaxImageBytes {
		utils.RespondError(w, http.StatusBadRequest, h.tooLargeMessage())
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.upload.MaxImageBytes+1))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "gagal membaca gambar")
		return
	}
	if int64(len(data)) > h.upload.MaxImageBytes {
		utils.RespondError(w, http.StatusBadRequest, h.tooLargeMessage())
		return
	}
	if len(data) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "Gambar tidak ditemukan")
		return
	}

	reply, err := h.tutor.Exchange(r.Context(), sessionID, chat.Content{
		Text:  message,
		Image: &chat.Image{Data: data, MIMEType: normalizeMIME(mimeType)},
	})
	if err != nil {
		apierror.Write(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, replyResponse{
		Success:      true,
		SessionID:    reply.SessionID,
		Result:       reply.Result,
		MessageCount: reply.MessageCount,
		HasImage:     true,
	})
}

func (h *Handler) tooLargeMessage() string {
	return "Ukuran gambar maksimal " + formatBytes(h.upload.MaxImageBytes)
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%d byte", n)
	}
}

// normalizeMIME maps the non-standard image/jpg onto image/jpeg.
func normalizeMIME(mimeType string) string {
	mimeType = strings.ToLower(mimeType)
	if mimeType == "image/jpg" {
		return "image/jpeg"
	}
	return mimeType
}
