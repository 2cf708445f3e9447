package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"social-canvas-auth/config"
	"social-canvas-auth/internal/logger"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/platform/facebook"
	"social-canvas-auth/internal/ports"
	"social-canvas-auth/internal/signedrequest"

	"go.uber.org/zap"
)

// SignedRequestCookie : cookie, в которой кэшируется signed_request
const SignedRequestCookie = "signed_request"

type FacebookAuthService struct {
	cfg        config.FacebookConfig
	paths      *PathFilter
	identities ports.IdentityService
	tokens     ports.TokenService
	profiles   ports.ProfileFetcher
}

func NewFacebookAuthService(
	cfg config.FacebookConfig,
	paths config.PathsConfig,
	identities ports.IdentityService,
	tokens ports.TokenService,
	profiles ports.ProfileFetcher,
) (*FacebookAuthService, error) {
	filter, err := NewPathFilter(paths)
	if err != nil {
		return nil, err
	}

	return &FacebookAuthService{
		cfg:        cfg,
		paths:      filter,
		identities: identities,
		tokens:     tokens,
		profiles:   profiles,
	}, nil
}

func (s *FacebookAuthService) Provider() model.Provider {
	return model.ProviderFacebook
}

// SignedRequestFrom : signed_request из query, формы или cookie. Второе значение true,
// если токен пришёл в самом запросе, а не из cookie.
func SignedRequestFrom(r *http.Request) (string, bool) {
	if token := r.FormValue("signed_request"); token != "" {
		return token, true
	}
	if cookie, err := r.Cookie(SignedRequestCookie); err == nil && cookie.Value != "" {
		return cookie.Value, false
	}
	return "", false
}

// Authenticate : проверяет signed_request и находит или регистрирует пользователя
func (s *FacebookAuthService) Authenticate(ctx context.Context, r *http.Request) (*model.Outcome, error) {
	if !s.paths.Allows(r.URL.Path) {
		return model.NoOp(model.ProviderFacebook), nil
	}

	if r.URL.Query().Get("error") == "access_denied" {
		return model.Denied(model.ProviderFacebook, ErrUserDeniedAuthorization), nil
	}

	raw, fromRequest := SignedRequestFrom(r)
	if raw == "" {
		return model.NoOp(model.ProviderFacebook), nil
	}

	log := logger.From(ctx)
	payload, err := signedrequest.Parse(raw, []byte(s.cfg.ApplicationSecretKey))
	if err != nil {
		log.Info("signed_request отклонён", zap.Error(err))
		return model.Denied(model.ProviderFacebook, fmt.Errorf("%w: %w", ErrInvalidSignedRequest, err)), nil
	}

	redirectURI := facebook.PostAuthorizationRedirectURI(s.cfg, r.URL.RequestURI())

	if !payload.HasAuthorizedApplication() {
		if err := s.markDeauthorized(ctx, payload.UserID); err != nil {
			return nil, err
		}
		return model.ChallengeRequired(model.ProviderFacebook, ErrApplicationNotAuthorized, s.cfg.InitialPermissions, redirectURI), nil
	}

	credential := &model.OAuthCredential{
		Token:     payload.OAuthToken.Token,
		IssuedAt:  payload.OAuthToken.IssuedAt,
		ExpiresAt: payload.OAuthToken.ExpiresAt,
	}
	if s.tokens.IsExpired(credential) {
		return model.ChallengeRequired(model.ProviderFacebook, ErrCredentialExpired, s.cfg.InitialPermissions, redirectURI), nil
	}

	identity, err := s.identities.Find(ctx, model.ProviderFacebook, payload.UserID)
	created := false
	switch {
	case errors.Is(err, model.ErrNotFound):
		identity, created, err = s.register(ctx, payload.UserID, credential)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	// токен из cookie не подтверждает, что пользователь вернул приложение после деавторизации
	if !fromRequest && !identity.Authorized {
		return model.ChallengeRequired(model.ProviderFacebook, ErrApplicationNotAuthorized, s.cfg.InitialPermissions, redirectURI), nil
	}

	if !created && fromRequest {
		identity.Authorized = true
		if identity.Credential == nil {
			identity.Credential = credential
		} else {
			identity.Credential.Token = credential.Token
			identity.Credential.IssuedAt = credential.IssuedAt
			identity.Credential.ExpiresAt = credential.ExpiresAt
		}
		if err := s.identities.Save(ctx, identity); err != nil {
			return nil, err
		}
	}

	if _, err := s.tokens.ExtendIfNeeded(ctx, identity.Credential); err != nil {
		if errors.Is(err, ErrTokenExchangeFailed) {
			log.Warn("не удалось продлить токен, работаем с текущим", zap.String("identity", identity.String()), zap.Error(err))
		} else {
			log.Error("ошибка продления токена", zap.String("identity", identity.String()), zap.Error(err))
		}
	}

	return model.Authorized(model.ProviderFacebook, identity, created), nil
}

// register : новый пользователь; имя берётся из профиля уже после фиксации транзакции
func (s *FacebookAuthService) register(ctx context.Context, socialID int64, credential *model.OAuthCredential) (*model.SocialIdentity, bool, error) {
	identity, created, err := s.identities.Register(ctx, &model.SocialIdentity{
		SocialID:   socialID,
		Provider:   model.ProviderFacebook,
		Authorized: true,
		Credential: credential,
	})
	if err != nil || !created {
		return identity, created, err
	}

	profile, err := s.profiles.FetchProfile(ctx, credential.Token)
	if err != nil {
		logger.From(ctx).Warn("не удалось получить профиль пользователя", zap.String("identity", identity.String()), zap.Error(err))
		return identity, true, nil
	}

	identity.SetName(profile.FirstName, profile.LastName)
	if err := s.identities.Save(ctx, identity); err != nil {
		return nil, false, err
	}
	return identity, true, nil
}

func (s *FacebookAuthService) markDeauthorized(ctx context.Context, socialID int64) error {
	identity, err := s.identities.Find(ctx, model.ProviderFacebook, socialID)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !identity.Authorized {
		return nil
	}
	return s.identities.SetAuthorized(ctx, identity, false)
}

// Deauthorize : обработчик deauthorize callback. Платформа присылает signed_request без oauth_token.
func (s *FacebookAuthService) Deauthorize(ctx context.Context, r *http.Request) (*model.Outcome, error) {
	raw := r.FormValue("signed_request")
	if raw == "" {
		return model.Denied(model.ProviderFacebook, ErrInvalidSignedRequest), nil
	}

	payload, err := signedrequest.Parse(raw, []byte(s.cfg.ApplicationSecretKey))
	if err != nil {
		return model.Denied(model.ProviderFacebook, fmt.Errorf("%w: %w", ErrInvalidSignedRequest, err)), nil
	}

	identity, err := s.identities.Find(ctx, model.ProviderFacebook, payload.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return model.NoOp(model.ProviderFacebook), nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.identities.SetAuthorized(ctx, identity, false); err != nil {
		return nil, err
	}
	logger.From(ctx).Info("приложение деавторизовано", zap.String("identity", identity.String()))

	outcome := model.Denied(model.ProviderFacebook, ErrApplicationDeauthorized)
	outcome.Identity = identity
	return outcome, nil
}
