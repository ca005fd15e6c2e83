package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Str("component", "http").Msg("failed to encode response")
	}
}

// RespondError 发送错误响应, body 形如 {"success": false, "error": "..."}
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
