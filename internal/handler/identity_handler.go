package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"social-canvas-auth/internal/logger"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/model/requestresponse"
	"social-canvas-auth/internal/ports"
	"social-canvas-auth/internal/security"
	"social-canvas-auth/internal/service"
	"social-canvas-auth/internal/util"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type IdentityHandler struct {
	identities    ports.IdentityService
	notifications ports.NotificationService
}

func NewIdentityHandler(identities ports.IdentityService, notifications ports.NotificationService) *IdentityHandler {
	return &IdentityHandler{identities: identities, notifications: notifications}
}

// GetIdentity : GET /api/identities/{provider}/{socialId}, только для администратора
func (h *IdentityHandler) GetIdentity(w http.ResponseWriter, r *http.Request) {
	provider, socialID, ok := identityParams(w, r)
	if !ok {
		return
	}

	identity, err := h.identities.Find(r.Context(), provider, socialID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			util.HandleError(w, "пользователь не найден", http.StatusNotFound)
			return
		}
		logger.From(r.Context()).Error("ошибка поиска пользователя", zap.Error(err))
		util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.IdentityResponseFromModel(identity, false))
}

// SendNotification : POST /api/identities/{provider}/{socialId}/notifications
func (h *IdentityHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	provider, socialID, ok := identityParams(w, r)
	if !ok {
		return
	}

	var req requestresponse.NotificationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		util.HandleError(w, "некорректный JSON", http.StatusBadRequest)
		return
	}

	err := h.notifications.Notify(r.Context(), provider, socialID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrUnknownProvider):
			util.HandleError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, model.ErrNotFound):
			util.HandleError(w, "пользователь не найден", http.StatusNotFound)
		case errors.Is(err, service.ErrApplicationDeauthorized):
			util.HandleError(w, "пользователь удалил приложение", http.StatusConflict)
		default:
			util.HandleError(w, "уведомление не отправлено", http.StatusBadGateway)
		}
		return
	}

	resp := requestresponse.NotificationResponse{}
	resp.Response.Sent = true
	util.WriteJSON(w, http.StatusOK, resp)
}

// Me : текущий пользователь сессии
func (h *IdentityHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := security.IdentityFromContext(r.Context())
	if !ok {
		util.HandleError(w, "не авторизован", http.StatusUnauthorized)
		return
	}
	resp := requestresponse.IdentityResponseFromModel(identity, security.CreatedFromContext(r.Context()))
	if vars, ok := security.StartupVarsFromContext(r.Context()); ok {
		resp.Data.ViewerID = vars.ViewerID()
		resp.Data.StartupVars = vars.Public()
	}
	util.WriteJSON(w, http.StatusOK, resp)
}

func identityParams(w http.ResponseWriter, r *http.Request) (model.Provider, int64, bool) {
	provider, err := model.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		util.HandleError(w, err.Error(), http.StatusBadRequest)
		return "", 0, false
	}

	socialID, err := strconv.ParseInt(chi.URLParam(r, "socialId"), 10, 64)
	if err != nil || socialID <= 0 {
		util.HandleError(w, "некорректный идентификатор пользователя", http.StatusBadRequest)
		return "", 0, false
	}
	return provider, socialID, true
}
