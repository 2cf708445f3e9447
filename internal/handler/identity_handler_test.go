package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"social-canvas-auth/internal/handler"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/model/requestresponse"
	"social-canvas-auth/internal/security"
	"social-canvas-auth/internal/service"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newIdentityRouter(identities *MockIdentityService, notifications *MockNotificationService) http.Handler {
	h := handler.NewIdentityHandler(identities, notifications)
	router := chi.NewRouter()
	router.Route("/api/identities/{provider}/{socialId}", func(r chi.Router) {
		r.Get("/", h.GetIdentity)
		r.Post("/notifications", h.SendNotification)
	})
	router.Get("/api/me", h.Me)
	return router
}

func TestIdentityHandler_GetIdentity(t *testing.T) {
	name := "Иван"
	identity := &model.SocialIdentity{ID: "identity-1", SocialID: 42, Provider: model.ProviderFacebook, FirstName: &name, Authorized: true}

	tests := []struct {
		name       string
		target     string
		setupMocks func(m *MockIdentityService)
		wantStatus int
	}{
		{
			name:   "found",
			target: "/api/identities/facebook/42",
			setupMocks: func(m *MockIdentityService) {
				m.On("Find", mock.Anything, model.ProviderFacebook, int64(42)).Return(identity, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "not found",
			target: "/api/identities/vkontakte/7",
			setupMocks: func(m *MockIdentityService) {
				m.On("Find", mock.Anything, model.ProviderVkontakte, int64(7)).Return(nil, model.ErrNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "storage failure",
			target: "/api/identities/facebook/42",
			setupMocks: func(m *MockIdentityService) {
				m.On("Find", mock.Anything, model.ProviderFacebook, int64(42)).Return(nil, errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
		{name: "unknown provider", target: "/api/identities/odnoklassniki/42", wantStatus: http.StatusBadRequest},
		{name: "bad social id", target: "/api/identities/facebook/abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identities := new(MockIdentityService)
			if tt.setupMocks != nil {
				tt.setupMocks(identities)
			}

			recorder := httptest.NewRecorder()
			newIdentityRouter(identities, new(MockNotificationService)).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantStatus == http.StatusOK {
				var resp requestresponse.IdentityResponse
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
				assert.Equal(t, "identity-1", resp.Data.ID)
				assert.Equal(t, "Иван", resp.Data.FirstName)
				assert.True(t, resp.Data.Authorized)
			}
			identities.AssertExpectations(t)
		})
	}
}

func TestIdentityHandler_SendNotification(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		notifyErr  error
		callsMock  bool
		wantStatus int
	}{
		{name: "sent", body: `{"message":"Вам подарок!"}`, callsMock: true, wantStatus: http.StatusOK},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "empty message", body: `{"message":""}`, callsMock: true, notifyErr: service.ErrEmptyMessage, wantStatus: http.StatusBadRequest},
		{name: "unknown identity", body: `{"message":"hi"}`, callsMock: true, notifyErr: model.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "deauthorized", body: `{"message":"hi"}`, callsMock: true, notifyErr: service.ErrApplicationDeauthorized, wantStatus: http.StatusConflict},
		{name: "platform failure", body: `{"message":"hi"}`, callsMock: true, notifyErr: errors.New("graph down"), wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifications := new(MockNotificationService)
			if tt.callsMock {
				notifications.On("Notify", mock.Anything, model.ProviderFacebook, int64(42), mock.AnythingOfType("string")).Return(tt.notifyErr).Once()
			}

			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodPost, "/api/identities/facebook/42/notifications", strings.NewReader(tt.body))
			newIdentityRouter(new(MockIdentityService), notifications).ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantStatus == http.StatusOK {
				var resp requestresponse.NotificationResponse
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
				assert.True(t, resp.Response.Sent)
			}
			notifications.AssertExpectations(t)
		})
	}
}

func TestIdentityHandler_Me(t *testing.T) {
	router := newIdentityRouter(new(MockIdentityService), new(MockNotificationService))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	identity := &model.SocialIdentity{ID: "identity-1", SocialID: 42, Provider: model.ProviderVkontakte}
	request := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	ctx := security.WithCreated(security.WithIdentity(request.Context(), identity), true)
	ctx = security.WithStartupVars(ctx, model.StartupVars{"viewer_id": "42", "access_token": "vk-token", "is_app_user": "1"})
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request.WithContext(ctx))

	require.Equal(t, http.StatusOK, recorder.Code)
	var resp requestresponse.IdentityResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "vkontakte", resp.Data.Provider)
	assert.True(t, resp.Data.RegisteredByThis)
	assert.Equal(t, "42", resp.Data.ViewerID)
	assert.Equal(t, "1", resp.Data.StartupVars["is_app_user"])
	assert.NotContains(t, resp.Data.StartupVars, "access_token")
}
