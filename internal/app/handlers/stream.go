package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/campuskart/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/campuskart/internal/metrics"
	"github.com/linemk/campuskart/internal/notify"
)

// StreamOptions настраивают поток уведомлений
type StreamOptions struct {
	// Keepalive задаёт период комментариев ": ping", 0 отключает
	Keepalive time.Duration
	// BindIdentity требует JWT, subject которого совпадает с userId из пути
	BindIdentity bool
	JWTSecret    string
}

// StreamHandler обрабатывает GET /api/notifications/stream/{userId}.
// Соединение держится, пока клиент не отключится или сервер не начнёт остановку.
func StreamHandler(log *slog.Logger, registry *notify.Registry, m *metrics.Registry, opts StreamOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.StreamHandler"
		userID := chi.URLParam(r, "userId")
		logger := log.With(slog.String("op", op), slog.String("userID", userID))

		if userID == "" {
			writeMessage(w, logger, http.StatusBadRequest, "userId is required")
			return
		}

		if opts.BindIdentity {
			if status, msg := checkStreamIdentity(r, userID, opts.JWTSecret); status != http.StatusOK {
				logger.Warn("stream identity check failed", slog.Int("status", status))
				writeMessage(w, logger, status, msg)
				return
			}
		}

		ch := notify.NewSSEChannel(w)
		if err := ch.Open(); err != nil {
			logger.Error("failed to open stream", slog.Any("error", err))
			return
		}

		if replaced := registry.Register(userID, ch); replaced {
			logger.Info("stream replaced previous connection")
		}
		m.StreamsActive.Inc()
		logger.Info("stream opened")

		defer func() {
			ch.Close()
			registry.Release(userID, ch)
			m.StreamsActive.Dec()
			logger.Info("stream closed")
		}()

		var tick <-chan time.Time
		if opts.Keepalive > 0 {
			ticker := time.NewTicker(opts.Keepalive)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-r.Context().Done():
				return
			case <-tick:
				if err := ch.Ping(); err != nil {
					logger.Debug("keepalive failed", slog.Any("error", err))
					return
				}
			}
		}
	}
}

// checkStreamIdentity сверяет токен (заголовок или ?token=) с владельцем потока.
// EventSource в браузере не умеет ставить заголовки, поэтому есть вариант через query.
func checkStreamIdentity(r *http.Request, userID, secret string) (int, string) {
	token, err := jwtmiddleware.BearerToken(r)
	if err != nil {
		if !errors.Is(err, jwtmiddleware.ErrMissingToken) {
			return http.StatusUnauthorized, err.Error()
		}
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return http.StatusUnauthorized, jwtmiddleware.ErrMissingToken.Error()
	}

	sub, err := jwtmiddleware.ParseUserID(token, secret)
	if err != nil {
		return http.StatusUnauthorized, err.Error()
	}
	if sub != userID {
		return http.StatusForbidden, "stream belongs to another user"
	}
	return http.StatusOK, ""
}
