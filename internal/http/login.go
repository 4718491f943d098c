package http

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/sun1tar/task-planner/internal/auth"
	"github.com/sun1tar/task-planner/internal/models"
	"github.com/sun1tar/task-planner/internal/repository"
	"github.com/sun1tar/task-planner/shared/middleware"
)

type AuthHandler struct {
	client    *repository.Client
	sessions  *auth.Manager
	logger    *logrus.Logger
	cookieTTL int // секунды жизни cookie, совпадает с TTL сессии
}

func NewAuthHandler(client *repository.Client, sessions *auth.Manager, cookieTTLSeconds int, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		client:    client,
		sessions:  sessions,
		logger:    logger,
		cookieTTL: cookieTTLSeconds,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// Login обрабатывает POST /v1/auth/login и устанавливает cookies.
// Пользователь создаётся при первом логине; проверка пароля упрощённая -
// в реальном проекте здесь была бы проверка хеша в БД.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	logEntry := h.logger.WithFields(logrus.Fields{
		"component":  "http_handler",
		"handler":    "Login",
		"request_id": requestID,
	})

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		logEntry.Warn("empty credentials")
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	// Пользователь ищется удалённо с локальным fallback - логин работает
	// и без доступной БД
	user := h.client.GetOrCreateUser(r.Context(), req.Username)
	session := h.sessions.Create(user)

	// Session cookie (HttpOnly, Secure, SameSite=Lax)
	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   h.cookieTTL,
	})

	// CSRF cookie (НЕ HttpOnly, чтобы JS мог прочитать и отправить
	// заголовком)
	http.SetCookie(w, &http.Cookie{
		Name:     "csrf_token",
		Value:    session.CSRFToken,
		Path:     "/",
		HttpOnly: false,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   h.cookieTTL,
	})

	logEntry.WithField("user_id", user.ID).Info("login successful, cookies set")
	writeJSON(w, http.StatusOK, loginResponse{
		Message: "login successful, cookies set",
		User:    user,
	})
}

// Logout обрабатывает POST /v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("session_id"); err == nil {
		h.sessions.Revoke(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: "session_id", Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: "csrf_token", Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
