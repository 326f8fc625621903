package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/campuskart/internal/service"
)

// ContactBuyerHandler обрабатывает POST /api/contact-buyer
func ContactBuyerHandler(log *slog.Logger, contactService service.ContactServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ContactBuyerHandler"
		logger := log.With(slog.String("op", op))

		var req service.ContactInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeMessage(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		if err := contactService.ContactBuyer(r.Context(), req); err != nil {
			if service.IsValidation(err) {
				writeError(w, logger, err)
				return
			}
			logger.Error("failed to contact buyer", slog.Any("error", err))
			writeMessage(w, logger, http.StatusInternalServerError, "Failed to send email")
			return
		}
		writeMessage(w, logger, http.StatusOK, "Email sent successfully")
	}
}
