// auth.go — обработчик аутентификации администратора.
// POST /api/v1/auth/login — проверка email/пароля, выдача JWT.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goresultboard/internal/api/errors"
	"github.com/bigkaa/goresultboard/internal/service"
)

// loginRequest — тело запроса входа.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse — ответ с токеном.
type loginResponse struct {
	Token string `json:"token"`
}

// Login — POST /api/v1/auth/login.
// Для неизвестного email и неверного пароля ответ одинаковый: 401.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Невалидное тело запроса: ожидается JSON {email, password}")
		return
	}

	if req.Email == "" || req.Password == "" {
		apierrors.ValidationError(w, "Поля email и password обязательны")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apierrors.Unauthorized(w, "Неверный email или пароль")
			return
		}
		h.logger.Error("Ошибка входа администратора", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}
