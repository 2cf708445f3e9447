package service

import (
	"context"
	"fmt"
	"social-canvas-auth/internal/logger"
	"social-canvas-auth/internal/metrics"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/ports"
	"strings"

	"go.uber.org/zap"
)

// NotificationService : уведомления пользователям через API их социальной сети
type NotificationService struct {
	identities ports.IdentityService
	notifiers  map[model.Provider]ports.Notifier
}

func NewNotificationService(identities ports.IdentityService, notifiers map[model.Provider]ports.Notifier) *NotificationService {
	return &NotificationService{identities: identities, notifiers: notifiers}
}

func (s *NotificationService) Notify(ctx context.Context, provider model.Provider, socialID int64, message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}

	notifier, ok := s.notifiers[provider]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	identity, err := s.identities.Find(ctx, provider, socialID)
	if err != nil {
		return err
	}
	if !identity.Authorized {
		return ErrApplicationDeauthorized
	}

	if err := notifier.SendNotification(ctx, identity.SocialID, message); err != nil {
		metrics.NotificationsSent.WithLabelValues(string(provider), "failed").Inc()
		logger.From(ctx).Warn("уведомление не отправлено", zap.String("identity", identity.String()), zap.Error(err))
		return fmt.Errorf("[NotificationService] не удалось отправить уведомление: %w", err)
	}

	metrics.NotificationsSent.WithLabelValues(string(provider), "sent").Inc()
	return nil
}
