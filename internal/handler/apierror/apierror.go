// Package apierror maps service errors to HTTP responses.
package apierror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	chatservice "github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/chat"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/tutor"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/pkg/utils"
)

const internalMessage = "internal server error"

// Status returns the HTTP status and client message for err.
func Status(err error) (int, string) {
	var callErr *tutor.ExternalCallError
	switch {
	case errors.Is(err, chatservice.ErrInvalidInput):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), chatservice.ErrInvalidInput.Error()+": ")
	case errors.Is(err, chatservice.ErrSessionNotFound):
		return http.StatusNotFound, "Session tidak ditemukan"
	case errors.As(err, &callErr):
		return http.StatusInternalServerError, callErr.Error()
	default:
		return http.StatusInternalServerError, internalMessage
	}
}

// Write responds with the JSON error body for err.
func Write(w http.ResponseWriter, err error) {
	status, message := Status(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("component", "http").Msg("request failed")
	}
	utils.RespondError(w, status, message)
}
