package ports

import (
	"context"
	"social-canvas-auth/internal/model"
)

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (*model.Profile, error)
}

type TokenExchanger interface {
	ExchangeToken(ctx context.Context, accessToken string) (*model.ExchangedToken, error)
}

type Notifier interface {
	SendNotification(ctx context.Context, socialID int64, message string) error
}

// AuthorizationURLBuilder : строит адрес диалога авторизации приложения
type AuthorizationURLBuilder interface {
	AuthorizationURL(redirectURI string, permissions []string) string
}
