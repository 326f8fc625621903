package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/linemk/campuskart/internal/service"
)

// MessageResponse используется для текстовых ответов и ошибок
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", slog.Any("error", err))
	}
}

func writeMessage(w http.ResponseWriter, log *slog.Logger, status int, msg string) {
	writeJSON(w, log, status, MessageResponse{Message: msg})
}

// writeError переводит ошибку сервиса в HTTP-статус и {"message": ...}
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", slog.Any("error", err))
	} else {
		log.Warn("request rejected", slog.Int("status", status), slog.Any("error", err))
	}
	writeMessage(w, log, status, msg)
}

func errorStatus(err error) (int, string) {
	var (
		ve *service.ValidationError
		nf *service.NotFoundError
		pe *service.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		if len(ve.Fields) > 0 {
			return http.StatusBadRequest, "missing or invalid fields: " + strings.Join(ve.Fields, ", ")
		}
		return http.StatusBadRequest, ve.Err.Error()
	case errors.As(err, &nf):
		return http.StatusNotFound, fmt.Sprintf("%s not found", nf.Entity)
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.As(err, &pe):
		return http.StatusInternalServerError, "database error, please retry"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
