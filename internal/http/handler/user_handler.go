package handler

import (
	"log/slog"
	"net/http"

	"github.com/kiwy37/careerconnect/internal/http/middleware"
	"github.com/kiwy37/careerconnect/internal/http/response"
	"github.com/kiwy37/careerconnect/internal/service"
)

type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// Me returns the account behind the bearer token.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
		return
	}
	id, err := claims.UserID()
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token subject", nil)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "load current user", "error", err, "user_id", id)
		response.Error(w, r, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "account no longer exists", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}
