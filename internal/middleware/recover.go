package middleware

import (
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/pkg/utils"
)

// Recover turns a panic in a handler into a JSON 500 so one bad request
// never takes the process down.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				// 交给 net/http 处理连接中断。
				panic(rvr)
			}

			log.Error().
				Str("component", "http").
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Interface("panic", rvr).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")

			if r.Header.Get("Connection") != "Upgrade" {
				utils.RespondError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
