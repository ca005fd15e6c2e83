package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	chatService "github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/chat"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/tutor"
)

// requestKind tells which shape a /api/chat body was sent in.
type requestKind int

const (
	kindSession requestKind = iota + 1
	kindLegacy
)

// chatRequest is a decoded /api/chat body. Exactly one variant is set,
// selected by kind.
type chatRequest struct {
	kind         requestKind
	sessionID    string
	message      string
	conversation []tutor.LegacyTurn
}

type rawChatRequest struct {
	SessionID    *string         `json:"sessionId"`
	Message      *string         `json:"message"`
	Conversation json.RawMessage `json:"conversation"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{chatService.ErrInvalidInput}, args...)...)
}

// decodeChatRequest resolves the body into the session form
// {sessionId, message} or the stateless form {conversation: [...]}.
func decodeChatRequest(body io.Reader) (chatRequest, error) {
	var raw rawChatRequest
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return chatRequest{}, invalid("request body terlalu besar, maksimal %s", formatBytes(tooLarge.Limit))
		}
		return chatRequest{}, invalid("invalid request body")
	}

	sessionID := deref(raw.SessionID)
	message := deref(raw.Message)

	switch {
	case sessionID != "" && message != "":
		return chatRequest{kind: kindSession, sessionID: sessionID, message: message}, nil

	case hasValue(raw.Conversation):
		if trimmed := bytes.TrimSpace(raw.Conversation); trimmed[0] != '[' {
			return chatRequest{}, invalid("conversation harus berupa array")
		}
		var turns []tutor.LegacyTurn
		if err := json.Unmarshal(raw.Conversation, &turns); err != nil {
			return chatRequest{}, invalid("conversation tidak valid: setiap item harus berbentuk {role, text}")
		}
		return chatRequest{kind: kindLegacy, conversation: turns}, nil

	case raw.SessionID != nil || raw.Message != nil:
		return chatRequest{}, invalid("sessionId dan message wajib diisi")

	default:
		return chatRequest{}, invalid("Kirim dengan format: { sessionId, message } atau { conversation: [...] }")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func hasValue(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
