package model

import (
	"fmt"
	"time"
)

type Provider string

const (
	ProviderFacebook  Provider = "facebook"
	ProviderVkontakte Provider = "vkontakte"
)

func ParseProvider(value string) (Provider, error) {
	switch Provider(value) {
	case ProviderFacebook, ProviderVkontakte:
		return Provider(value), nil
	default:
		return "", fmt.Errorf("неизвестная социальная сеть %q", value)
	}
}

// SocialIdentity : пользователь социальной сети. Пара (SocialID, Provider) уникальна.
type SocialIdentity struct {
	ID           string           `db:"id" json:"id"`
	SocialID     int64            `db:"social_id" json:"social_id"`
	Provider     Provider         `db:"provider" json:"provider"`
	FirstName    *string          `db:"first_name" json:"first_name,omitempty"`
	LastName     *string          `db:"last_name" json:"last_name,omitempty"`
	Authorized   bool             `db:"authorized" json:"authorized"`
	CredentialID *string          `db:"credential_id" json:"-"`
	Credential   *OAuthCredential `db:"-" json:"credential,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

func (i *SocialIdentity) String() string {
	return fmt.Sprintf("%d, %s", i.SocialID, i.Provider)
}

// SetName заполняет имя из профиля, пустые значения не сохраняются
func (i *SocialIdentity) SetName(firstName, lastName string) {
	i.FirstName = optional(firstName)
	i.LastName = optional(lastName)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// Profile : имя пользователя, полученное из API социальной сети
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
