package service

import (
	"context"
	"errors"
	"net/http"
	"social-canvas-auth/config"
	"social-canvas-auth/internal/logger"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/platform/vkontakte"
	"social-canvas-auth/internal/ports"
	"social-canvas-auth/internal/security"

	"go.uber.org/zap"
)

type VkontakteAuthService struct {
	cfg        config.VkontakteConfig
	paths      *PathFilter
	identities ports.IdentityService
	sessions   ports.SessionRepository
}

func NewVkontakteAuthService(
	cfg config.VkontakteConfig,
	paths config.PathsConfig,
	identities ports.IdentityService,
	sessions ports.SessionRepository,
) (*VkontakteAuthService, error) {
	filter, err := NewPathFilter(paths)
	if err != nil {
		return nil, err
	}

	return &VkontakteAuthService{
		cfg:        cfg,
		paths:      filter,
		identities: identities,
		sessions:   sessions,
	}, nil
}

func (s *VkontakteAuthService) Provider() model.Provider {
	return model.ProviderVkontakte
}

// Authenticate : проверяет параметры запуска iframe-приложения и находит или регистрирует пользователя
func (s *VkontakteAuthService) Authenticate(ctx context.Context, r *http.Request) (*model.Outcome, error) {
	if !s.paths.Allows(r.URL.Path) {
		return model.NoOp(model.ProviderVkontakte), nil
	}

	query := r.URL.Query()
	sessionID := security.SessionIDFromContext(ctx)

	if query.Get("viewer_id") == "" {
		if sessionID != "" {
			vars, err := s.sessions.GetStartupVars(ctx, sessionID)
			if err != nil {
				return nil, err
			}
			if vars != nil {
				return model.NoOp(model.ProviderVkontakte), nil
			}
		}
		return model.Denied(model.ProviderVkontakte, ErrMissingStartupForm), nil
	}

	form, fieldErrors := vkontakte.ParseStartupForm(query, s.cfg.AppID, s.cfg.AppSecret)
	if fieldErrors != nil {
		logger.From(ctx).Info("параметры запуска отклонены", zap.Error(fieldErrors))
		s.forgetStartupVars(ctx, sessionID)
		return deniedWithFields(ErrInvalidStartupForm, fieldErrors), nil
	}

	identity, err := s.identities.Find(ctx, model.ProviderVkontakte, form.ViewerID)
	created := false
	switch {
	case errors.Is(err, model.ErrNotFound):
		profile, profileErrors := form.Profile()
		if profileErrors != nil {
			return deniedWithFields(ErrInvalidStartupForm, profileErrors), nil
		}

		newIdentity := &model.SocialIdentity{
			SocialID:   form.ViewerID,
			Provider:   model.ProviderVkontakte,
			Authorized: true,
		}
		newIdentity.SetName(profile.FirstName, profile.LastName)

		identity, created, err = s.identities.Register(ctx, newIdentity)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if !identity.Authorized {
		if err := s.identities.SetAuthorized(ctx, identity, true); err != nil {
			return nil, err
		}
	}

	vars := form.StartupVars()
	if sessionID != "" {
		if err := s.sessions.SaveStartupVars(ctx, sessionID, vars); err != nil {
			logger.From(ctx).Warn("не удалось сохранить параметры запуска", zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	outcome := model.Authorized(model.ProviderVkontakte, identity, created)
	outcome.StartupVars = vars
	return outcome, nil
}

// forgetStartupVars : параметры прежнего запуска больше не подтверждают сессию
func (s *VkontakteAuthService) forgetStartupVars(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.sessions.DeleteStartupVars(ctx, sessionID); err != nil {
		logger.From(ctx).Warn("не удалось удалить параметры запуска", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func deniedWithFields(reason error, fields vkontakte.FieldErrors) *model.Outcome {
	outcome := model.Denied(model.ProviderVkontakte, reason)
	outcome.FieldErrors = fields
	return outcome
}
