package handler_test

import (
	"context"
	"net/http"
	"social-canvas-auth/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Provider() model.Provider {
	return model.ProviderFacebook
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*model.Outcome, error) {
	args := m.Called(ctx, r)
	if outcome := args.Get(0); outcome != nil {
		return outcome.(*model.Outcome), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockDeauthorizer struct {
	mock.Mock
}

func (m *MockDeauthorizer) Deauthorize(ctx context.Context, r *http.Request) (*model.Outcome, error) {
	args := m.Called(ctx, r)
	if outcome := args.Get(0); outcome != nil {
		return outcome.(*model.Outcome), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) Find(ctx context.Context, provider model.Provider, socialID int64) (*model.SocialIdentity, error) {
	args := m.Called(ctx, provider, socialID)
	if identity := args.Get(0); identity != nil {
		return identity.(*model.SocialIdentity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityService) FindByID(ctx context.Context, id string) (*model.SocialIdentity, error) {
	args := m.Called(ctx, id)
	if identity := args.Get(0); identity != nil {
		return identity.(*model.SocialIdentity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityService) Register(ctx context.Context, identity *model.SocialIdentity) (*model.SocialIdentity, bool, error) {
	args := m.Called(ctx, identity)
	if registered := args.Get(0); registered != nil {
		return registered.(*model.SocialIdentity), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *MockIdentityService) Save(ctx context.Context, identity *model.SocialIdentity) error {
	return m.Called(ctx, identity).Error(0)
}

func (m *MockIdentityService) SetAuthorized(ctx context.Context, identity *model.SocialIdentity, authorized bool) error {
	return m.Called(ctx, identity, authorized).Error(0)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Notify(ctx context.Context, provider model.Provider, socialID int64, message string) error {
	return m.Called(ctx, provider, socialID, message).Error(0)
}

// stubAuthorizationURLs запоминает последний запрос адреса авторизации
type stubAuthorizationURLs struct {
	redirectURI string
	permissions []string
}

func (s *stubAuthorizationURLs) AuthorizationURL(redirectURI string, permissions []string) string {
	s.redirectURI = redirectURI
	s.permissions = permissions
	return "https://auth.example/dialog"
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) SaveStartupVars(ctx context.Context, sessionID string, vars model.StartupVars) error {
	return m.Called(ctx, sessionID, vars).Error(0)
}

func (m *MockSessionRepository) GetStartupVars(ctx context.Context, sessionID string) (model.StartupVars, error) {
	args := m.Called(ctx, sessionID)
	if vars := args.Get(0); vars != nil {
		return vars.(model.StartupVars), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) DeleteStartupVars(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}
