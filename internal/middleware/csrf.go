package middleware

import (
	"net/http"
	"strings"
)

// CSRFMiddleware проверяет CSRF-токен для state-changing методов.
// Логин исключён: именно он выдаёт csrf cookie.
func CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/auth/") {
			next.ServeHTTP(w, r)
			return
		}

		// Только для POST, PATCH, PUT, DELETE
		switch r.Method {
		case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
			// Получаем CSRF токен из cookie
			csrfCookie, err := r.Cookie("csrf_token")
			if err != nil {
				http.Error(w, `{"error":"CSRF token missing in cookies"}`, http.StatusForbidden)
				return
			}

			// Получаем CSRF токен из заголовка
			csrfHeader := r.Header.Get("X-CSRF-Token")
			if csrfHeader == "" {
				http.Error(w, `{"error":"X-CSRF-Token header missing"}`, http.StatusForbidden)
				return
			}

			// Сравниваем
			if csrfCookie.Value != csrfHeader {
				http.Error(w, `{"error":"CSRF token mismatch"}`, http.StatusForbidden)
				return
			}
		}

		// Если проверка пройдена или метод безопасный, передаём дальше
		next.ServeHTTP(w, r)
	})
}
