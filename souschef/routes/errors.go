package routes

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"souschef/services/cooking"
	"souschef/services/llm"
	"souschef/sources/psql/dao"
	"souschef/utils/logging"
)

// errorKind maps an engine error onto its taxonomy name. This is the only
// detail a client ever sees; raw upstream errors stay in the server log.
func errorKind(err error) string {
	switch {
	case errors.Is(err, cooking.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, cooking.ErrSessionBusy):
		return "session_busy"
	case errors.Is(err, cooking.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, cooking.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, dao.ErrRecipeNotFound):
		return "recipe_not_found"
	case errors.Is(err, llm.ErrRateLimited):
		return "provider_rate_limited"
	case errors.Is(err, llm.ErrTimeout):
		return "provider_timeout"
	case errors.Is(err, llm.ErrUnavailable):
		return "provider_unavailable"
	default:
		return "internal_error"
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cooking.ErrSessionNotFound), errors.Is(err, dao.ErrRecipeNotFound):
		return http.StatusNotFound
	case errors.Is(err, cooking.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, cooking.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, cooking.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, llm.ErrRateLimited), errors.Is(err, llm.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logging.ErrorLogger.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	http.Error(w, errorKind(err), statusFor(err))
}
