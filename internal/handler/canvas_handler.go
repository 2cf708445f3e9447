package handler

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"social-canvas-auth/config"
	"social-canvas-auth/internal/logger"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/model/requestresponse"
	"social-canvas-auth/internal/platform/facebook"
	"social-canvas-auth/internal/ports"
	"social-canvas-auth/internal/security"
	"social-canvas-auth/internal/service"
	"social-canvas-auth/internal/util"
	"time"

	"go.uber.org/zap"
)

// challengeTemplate : страница внутри iframe, уводящая верхнее окно на диалог авторизации
var challengeTemplate = template.Must(template.New("challenge").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body>
<script type="text/javascript">top.location.href = {{.}};</script>
<noscript><a href="{{.}}" target="_top">Авторизовать приложение</a></noscript>
</body>
</html>
`))

// CanvasHandler : аутентификация запросов canvas-приложений и служебные страницы авторизации
type CanvasHandler struct {
	authenticator ports.Authenticator
	identities    ports.IdentityService
	deauthorizer  ports.Deauthorizer
	authURLs      ports.AuthorizationURLBuilder
	sessions      *security.SessionService
	startupVars   ports.SessionRepository
	facebook      config.FacebookConfig
}

func NewCanvasHandler(
	authenticator ports.Authenticator,
	identities ports.IdentityService,
	deauthorizer ports.Deauthorizer,
	authURLs ports.AuthorizationURLBuilder,
	sessions *security.SessionService,
	startupVars ports.SessionRepository,
	facebookConfig config.FacebookConfig,
) *CanvasHandler {
	return &CanvasHandler{
		authenticator: authenticator,
		identities:    identities,
		deauthorizer:  deauthorizer,
		authURLs:      authURLs,
		sessions:      sessions,
		startupVars:   startupVars,
		facebook:      facebookConfig,
	}
}

// Middleware : находит пользователя по данным платформы или по cookie сессии и кладёт его в контекст
func (h *CanvasHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.From(ctx)

		claims, sessionErr := h.sessions.FromRequest(r)
		sessionID := security.NewSessionID()
		if sessionErr == nil {
			sessionID = claims.SessionID
		}
		ctx = security.WithSessionID(ctx, sessionID)

		signedRequest := r.FormValue("signed_request")
		if claims != nil && !hasFreshCredentials(r) {
			restored, ok, err := h.restoreSession(ctx, w, claims)
			if err != nil {
				util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
				return
			}
			if ok {
				next.ServeHTTP(w, r.WithContext(restored))
				return
			}
		}

		// canvas-страницы Facebook приходят POST-запросом с signed_request в форме
		if r.Method == http.MethodPost && signedRequest != "" {
			r = r.Clone(ctx)
			r.Method = http.MethodGet
		}
		r = r.WithContext(ctx)

		outcome, err := h.authenticator.Authenticate(ctx, r)
		if err != nil {
			log.Error("ошибка аутентификации", zap.Error(err))
			util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		switch outcome.Kind {
		case model.OutcomeAuthorized:
			ctx = security.WithIdentity(ctx, outcome.Identity)
			ctx = security.WithCreated(ctx, outcome.Created)
			if outcome.StartupVars != nil {
				ctx = security.WithStartupVars(ctx, outcome.StartupVars)
			}
			if err := h.issueSession(w, outcome.Identity, sessionID); err != nil {
				util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
				return
			}
			if outcome.Provider == model.ProviderFacebook && h.facebook.CacheSignedRequest && signedRequest != "" {
				setSignedRequestCookie(w, signedRequest)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		case model.OutcomeChallengeRequired:
			log.Info("требуется авторизация приложения", zap.Error(outcome.Reason))
			h.writeChallenge(w, outcome.RedirectURI, outcome.Permissions)
		case model.OutcomeDenied:
			log.Info("доступ запрещён", zap.String("provider", string(outcome.Provider)), zap.Error(outcome.Reason))
			h.sessions.ClearCookie(w)
			clearSignedRequestCookie(w)
			h.writeDenied(w, r, outcome)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// SessionMiddleware : только восстанавливает пользователя из cookie сессии, без обращения к платформе
func (h *CanvasHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.sessions.FromRequest(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := security.WithSessionID(r.Context(), claims.SessionID)
		restored, ok, err := h.restoreSession(ctx, w, claims)
		if err != nil {
			util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}
		if ok {
			ctx = restored
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// restoreSession : пользователь из cookie сессии. false, если пользователь удалён или
// удалил приложение; cookie сессии в этом случае сбрасывается.
func (h *CanvasHandler) restoreSession(ctx context.Context, w http.ResponseWriter, claims *security.SessionClaims) (context.Context, bool, error) {
	log := logger.From(ctx)

	identity, err := h.identities.FindByID(ctx, claims.IdentityID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		log.Info("пользователь сессии не найден", zap.String("identity_id", claims.IdentityID))
		h.sessions.ClearCookie(w)
		return ctx, false, nil
	case err != nil:
		log.Error("не удалось загрузить пользователя сессии", zap.Error(err))
		return ctx, false, err
	}

	if !identity.Authorized {
		log.Info("пользователь сессии удалил приложение", zap.String("identity", identity.String()))
		h.sessions.ClearCookie(w)
		return ctx, false, nil
	}

	ctx = security.WithIdentity(ctx, identity)
	if identity.Provider == model.ProviderVkontakte {
		vars, err := h.startupVars.GetStartupVars(ctx, claims.SessionID)
		if err != nil {
			log.Warn("не удалось загрузить параметры запуска", zap.String("session_id", claims.SessionID), zap.Error(err))
		} else if vars != nil {
			ctx = security.WithStartupVars(ctx, vars)
		}
	}
	return ctx, true, nil
}

// RequireIdentity : без пользователя в контексте отправляет на авторизацию с начальными и дополнительными правами
func (h *CanvasHandler) RequireIdentity(permissions ...string) func(http.Handler) http.Handler {
	scope := append(append([]string{}, h.facebook.InitialPermissions...), permissions...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := security.IdentityFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			h.writeChallenge(w, facebook.PostAuthorizationRedirectURI(h.facebook, r.URL.RequestURI()), scope)
		})
	}
}

// AuthorizeApplication : страница, отправляющая пользователя в диалог авторизации приложения
func (h *CanvasHandler) AuthorizeApplication(w http.ResponseWriter, r *http.Request) {
	h.writeChallenge(w, facebook.PostAuthorizationRedirectURI(h.facebook, "/"), h.facebook.InitialPermissions)
}

// DeauthorizeApplication : callback платформы после удаления приложения пользователем
func (h *CanvasHandler) DeauthorizeApplication(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.deauthorizer.Deauthorize(r.Context(), r)
	if err != nil {
		logger.From(r.Context()).Error("ошибка обработки деавторизации", zap.Error(err))
		util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	if errors.Is(outcome.Reason, service.ErrInvalidSignedRequest) {
		util.HandleError(w, "невалидный signed_request", http.StatusBadRequest)
		return
	}

	resp := requestresponse.DeauthorizeResponse{}
	if outcome.Identity != nil {
		resp.Response.SocialID = outcome.Identity.SocialID
		resp.Response.Authorized = outcome.Identity.Authorized
	}
	util.WriteJSON(w, http.StatusOK, resp)
}

func (h *CanvasHandler) issueSession(w http.ResponseWriter, identity *model.SocialIdentity, sessionID string) error {
	token, expiresAt, err := h.sessions.Issue(identity, sessionID)
	if err != nil {
		return err
	}
	h.sessions.SetCookie(w, token, expiresAt)
	return nil
}

func (h *CanvasHandler) writeChallenge(w http.ResponseWriter, redirectURI string, permissions []string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	if err := challengeTemplate.Execute(w, h.authURLs.AuthorizationURL(redirectURI, permissions)); err != nil {
		logger.L().Warn("не удалось записать страницу авторизации", zap.Error(err))
	}
}

func (h *CanvasHandler) writeDenied(w http.ResponseWriter, r *http.Request, outcome *model.Outcome) {
	if outcome.Provider == model.ProviderFacebook && h.facebook.AuthorizationDeniedURL != "" {
		http.Redirect(w, r, h.facebook.AuthorizationDeniedURL, http.StatusFound)
		return
	}

	text := "доступ запрещён"
	if outcome.Reason != nil {
		text = outcome.Reason.Error()
	}
	util.WriteJSON(w, http.StatusForbidden, requestresponse.ErrorResponse{
		Error: requestresponse.ErrorDetail{
			Code:   http.StatusForbidden,
			Text:   text,
			Fields: outcome.FieldErrors,
		},
	})
}

// hasFreshCredentials : запрос несёт данные платформы, которые надо проверить заново
func hasFreshCredentials(r *http.Request) bool {
	return r.FormValue("signed_request") != "" ||
		r.FormValue("viewer_id") != "" ||
		r.FormValue("error") != ""
}

func clearSignedRequestCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     service.SignedRequestCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func setSignedRequestCookie(w http.ResponseWriter, signedRequest string) {
	http.SetCookie(w, &http.Cookie{
		Name:     service.SignedRequestCookie,
		Value:    signedRequest,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
