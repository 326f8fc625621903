package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/campuskart/internal/domain/models"
	"github.com/linemk/campuskart/internal/service"
)

// LoginRequest представляет структуру запроса для входа с тегами валидации
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse отдаёт пользователя без хэша пароля
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginResponse представляет структуру ответа с JWT-токеном
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type SignupResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

var validate = validator.New()

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// SignupHandler – POST /api/auth/signup
func SignupHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SignupHandler"
		logger := log.With(slog.String("op", op))

		var req service.SignupInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeMessage(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		user, err := authService.Signup(r.Context(), req)
		if err != nil {
			if errors.Is(err, service.ErrConflict) {
				logger.Warn("signup conflict", slog.Any("error", err))
				writeMessage(w, logger, http.StatusConflict, "user already exists")
				return
			}
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, SignupResponse{
			Message: "User created successfully",
			User:    toUserResponse(user),
		})
	}
}

// LoginHandler – POST /api/auth/login, принимает логгер и экземпляр AuthService
func LoginHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeMessage(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		// Валидация структуры запроса с использованием validator
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeMessage(w, logger, http.StatusBadRequest, "email and password are required")
			return
		}

		// Вызов бизнес-логики для аутентификации
		token, user, err := authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, LoginResponse{Token: token, User: toUserResponse(user)})
	}
}
