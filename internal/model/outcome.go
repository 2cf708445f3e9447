package model

type OutcomeKind int

const (
	// OutcomeNoOp : запрос не содержит данных авторизации, пропускаем дальше
	OutcomeNoOp OutcomeKind = iota
	OutcomeAuthorized
	// OutcomeChallengeRequired : нужно отправить пользователя на авторизацию приложения
	OutcomeChallengeRequired
	OutcomeDenied
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNoOp:
		return "noop"
	case OutcomeAuthorized:
		return "authorized"
	case OutcomeChallengeRequired:
		return "challenge_required"
	case OutcomeDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Outcome : итог аутентификации одного запроса
type Outcome struct {
	Kind     OutcomeKind
	Provider Provider
	Identity *SocialIdentity
	// Created : пользователь создан этим запросом
	Created bool
	Reason  error
	// Permissions запрашиваются у пользователя при OutcomeChallengeRequired
	Permissions []string
	RedirectURI string
	FieldErrors map[string]string
	// StartupVars : параметры запуска iframe-приложения ВКонтакте
	StartupVars StartupVars
}

func NoOp(provider Provider) *Outcome {
	return &Outcome{Kind: OutcomeNoOp, Provider: provider}
}

func Authorized(provider Provider, identity *SocialIdentity, created bool) *Outcome {
	return &Outcome{Kind: OutcomeAuthorized, Provider: provider, Identity: identity, Created: created}
}

func Denied(provider Provider, reason error) *Outcome {
	return &Outcome{Kind: OutcomeDenied, Provider: provider, Reason: reason}
}

func ChallengeRequired(provider Provider, reason error, permissions []string, redirectURI string) *Outcome {
	return &Outcome{
		Kind:        OutcomeChallengeRequired,
		Provider:    provider,
		Reason:      reason,
		Permissions: permissions,
		RedirectURI: redirectURI,
	}
}

// StartupVars : проверенные параметры запуска приложения ВКонтакте без api_result
type StartupVars map[string]string

func (v StartupVars) ViewerID() string {
	return v["viewer_id"]
}

// Public : параметры запуска без access_token пользователя
func (v StartupVars) Public() map[string]string {
	public := make(map[string]string, len(v))
	for key, value := range v {
		if key == "access_token" {
			continue
		}
		public[key] = value
	}
	return public
}
