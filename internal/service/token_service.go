package service

import (
	"context"
	"fmt"
	"social-canvas-auth/internal/logger"
	"social-canvas-auth/internal/metrics"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/ports"
	"time"

	"go.uber.org/zap"
)

// TokenService : жизненный цикл OAuth токена пользователя
type TokenService struct {
	exchanger   ports.TokenExchanger
	credentials ports.CredentialRepository
	tx          ports.Transactor
	now         func() time.Time
}

func NewTokenService(exchanger ports.TokenExchanger, credentials ports.CredentialRepository, tx ports.Transactor) *TokenService {
	return &TokenService{
		exchanger:   exchanger,
		credentials: credentials,
		tx:          tx,
		now:         time.Now,
	}
}

// WithClock подменяет источник времени
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) IsExpired(credential *model.OAuthCredential) bool {
	return credential.Expired(s.now())
}

func (s *TokenService) IsExtended(credential *model.OAuthCredential) bool {
	return credential.Extended()
}

// Extend : обменивает токен на долгоживущий. Сохранённый токен (с ID) обновляется в БД.
// При ошибке обмена токен не меняется.
func (s *TokenService) Extend(ctx context.Context, credential *model.OAuthCredential) error {
	exchanged, err := s.exchanger.ExchangeToken(ctx, credential.Token)
	if err != nil {
		metrics.TokenExtensions.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}

	now := s.now()
	expiresAt := now.Add(exchanged.ExpiresIn)
	updated := *credential
	updated.Token = exchanged.AccessToken
	updated.IssuedAt = now
	updated.ExpiresAt = &expiresAt

	if updated.ID != "" {
		if err := s.credentials.Update(ctx, s.tx.Executor(), &updated); err != nil {
			metrics.TokenExtensions.WithLabelValues("persist_failed").Inc()
			return fmt.Errorf("[TokenService] не удалось сохранить продлённый токен: %w", err)
		}
	}

	*credential = updated
	metrics.TokenExtensions.WithLabelValues("extended").Inc()
	logger.From(ctx).Debug("токен продлён", zap.String("credential_id", credential.ID), zap.Time("expires_at", expiresAt))
	return nil
}

// ExtendIfNeeded : продлевает токен, если он ещё не продлён. Возвращает true, если обмен выполнен.
func (s *TokenService) ExtendIfNeeded(ctx context.Context, credential *model.OAuthCredential) (bool, error) {
	if credential == nil || s.IsExtended(credential) {
		return false, nil
	}
	if err := s.Extend(ctx, credential); err != nil {
		return false, err
	}
	return true, nil
}
