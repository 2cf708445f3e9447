package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"social-canvas-auth/config"
	"social-canvas-auth/internal/model"
	srv "social-canvas-auth/internal/service"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthenticator struct {
	mock.Mock
	provider model.Provider
}

func (m *MockAuthenticator) Provider() model.Provider {
	return m.provider
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*model.Outcome, error) {
	args := m.Called(ctx, r)
	if outcome := args.Get(0); outcome != nil {
		return outcome.(*model.Outcome), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestDispatcher_Resolve(t *testing.T) {
	fb := &MockAuthenticator{provider: model.ProviderFacebook}
	vk := &MockAuthenticator{provider: model.ProviderVkontakte}

	tests := []struct {
		name string
		cfg  config.ProvidersConfig
		host string
		want *MockAuthenticator
	}{
		{name: "mapped host", cfg: config.ProvidersConfig{Default: "facebook", Hosts: map[string]string{"vk.example.com": "vkontakte"}}, host: "vk.example.com", want: vk},
		{name: "mapped host with port", cfg: config.ProvidersConfig{Hosts: map[string]string{"vk.example.com": "vkontakte"}}, host: "VK.example.com:8443", want: vk},
		{name: "default provider", cfg: config.ProvidersConfig{Default: "facebook", Hosts: map[string]string{"vk.example.com": "vkontakte"}}, host: "fb.example.com", want: fb},
		{name: "unknown host without default", cfg: config.ProvidersConfig{Hosts: map[string]string{"vk.example.com": "vkontakte"}}, host: "fb.example.com", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher, err := srv.NewDispatcher(tt.cfg, fb, vk)
			require.NoError(t, err)

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.Host = tt.host

			resolved := dispatcher.Resolve(request)
			if tt.want == nil {
				assert.Nil(t, resolved)
				return
			}
			assert.Same(t, tt.want, resolved)
		})
	}
}

func TestDispatcher_UnknownProvider(t *testing.T) {
	_, err := srv.NewDispatcher(config.ProvidersConfig{Default: "odnoklassniki"}, &MockAuthenticator{provider: model.ProviderFacebook})
	assert.True(t, errors.Is(err, srv.ErrUnknownProvider))
}

func TestDispatcher_Authenticate(t *testing.T) {
	vk := &MockAuthenticator{provider: model.ProviderVkontakte}
	dispatcher, err := srv.NewDispatcher(config.ProvidersConfig{Hosts: map[string]string{"vk.example.com": "vkontakte"}}, vk)
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Host = "vk.example.com"
	vk.On("Authenticate", mock.Anything, request).Return(model.NoOp(model.ProviderVkontakte), nil).Once()

	outcome, err := dispatcher.Authenticate(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeNoOp, outcome.Kind)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.Host = "unknown.example.com"
	outcome, err = dispatcher.Authenticate(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeNoOp, outcome.Kind)

	vk.AssertExpectations(t)
}
