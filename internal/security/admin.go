package security

import (
	"crypto/subtle"
	"net/http"
	"social-canvas-auth/internal/logger"
	"social-canvas-auth/internal/util"
	"strings"

	"go.uber.org/zap"
)

// AdminMiddleware пропускает только запросы с заголовком Authorization: Bearer <admin_token>
func AdminMiddleware(adminToken string) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authorizationHeader := request.Header.Get("Authorization")
			if !strings.HasPrefix(authorizationHeader, "Bearer ") {
				util.HandleError(writer, "unauthorized", http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(authorizationHeader, "Bearer ")
			if adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
				logger.From(request.Context()).Warn("неверный токен администратора", zap.String("remote_addr", request.RemoteAddr))
				util.HandleError(writer, "неверный токен администратора", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
