package requestresponse

import (
	"social-canvas-auth/internal/model"
	"time"
)

// ErrorDetail : детальная информация об ошибке
type ErrorDetail struct {
	Code   int               `json:"code" example:"403"`
	Text   string            `json:"text" example:"доступ запрещён"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ErrorResponse : стандартная структура ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// IdentityData : пользователь социальной сети для JSON-ответа
type IdentityData struct {
	ID               string     `json:"id"`
	SocialID         int64      `json:"social_id"`
	Provider         string     `json:"provider"`
	FirstName        string     `json:"first_name,omitempty"`
	LastName         string     `json:"last_name,omitempty"`
	Authorized       bool       `json:"authorized"`
	TokenExpiresAt   *time.Time `json:"token_expires_at,omitempty"`
	TokenExtended    bool       `json:"token_extended"`
	CreatedAt        time.Time  `json:"created_at"`
	RegisteredByThis bool       `json:"created,omitempty"`
	// ViewerID и StartupVars заполняются для сессий ВКонтакте
	ViewerID    string            `json:"viewer_id,omitempty"`
	StartupVars map[string]string `json:"startup_vars,omitempty"`
}

type IdentityResponse struct {
	Data IdentityData `json:"data"`
}

// IdentityResponseFromModel : конвертирует model.SocialIdentity в IdentityResponse
func IdentityResponseFromModel(identity *model.SocialIdentity, created bool) IdentityResponse {
	data := IdentityData{
		ID:               identity.ID,
		SocialID:         identity.SocialID,
		Provider:         string(identity.Provider),
		Authorized:       identity.Authorized,
		CreatedAt:        identity.CreatedAt,
		RegisteredByThis: created,
	}
	if identity.FirstName != nil {
		data.FirstName = *identity.FirstName
	}
	if identity.LastName != nil {
		data.LastName = *identity.LastName
	}
	if identity.Credential != nil {
		data.TokenExpiresAt = identity.Credential.ExpiresAt
		data.TokenExtended = identity.Credential.Extended()
	}
	return IdentityResponse{Data: data}
}

// NotificationRequest : тело запроса на отправку уведомления
type NotificationRequest struct {
	Message string `json:"message" example:"Вам подарок!"`
}

type NotificationResponse struct {
	Response struct {
		Sent bool `json:"sent"`
	} `json:"response"`
}

// DeauthorizeResponse : ответ на вебхук отзыва авторизации
type DeauthorizeResponse struct {
	Response struct {
		SocialID   int64 `json:"social_id,omitempty"`
		Authorized bool  `json:"authorized"`
	} `json:"response"`
}
