package util

import (
	"encoding/json"
	"fmt"
	"net/http"
	"social-canvas-auth/internal/logger"

	"go.uber.org/zap"
)

// LogError пишет ошибку в лог и возвращает её обёрнутой в message
func LogError(message string, err error) error {
	logger.L().Error(message, zap.Error(err))
	return fmt.Errorf("%s: %w", message, err)
}

func HandleError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	}{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		logger.L().Warn("не удалось записать ответ с ошибкой", zap.Error(err))
	}
}

func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.L().Warn("не удалось записать ответ", zap.Error(err))
	}
}
