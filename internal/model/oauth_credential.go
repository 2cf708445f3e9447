package model

import "time"

// ExtendedTokenLifetime : токен считается продлённым, если живёт дольше 30 дней
const ExtendedTokenLifetime = 30 * 24 * time.Hour

// OAuthCredential : OAuth токен, которым сервис ходит в API социальной сети от имени пользователя
type OAuthCredential struct {
	ID        string     `db:"id" json:"id"`
	Token     string     `db:"token" json:"-"`
	IssuedAt  time.Time  `db:"issued_at" json:"issued_at"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
}

// Expired : токен с истёкшим сроком. Токен без срока действия не истекает.
func (c *OAuthCredential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// Extended : токен уже обменян на долгоживущий
func (c *OAuthCredential) Extended() bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Sub(c.IssuedAt) > ExtendedTokenLifetime
}

// ExchangedToken : результат обмена короткоживущего токена на долгоживущий
type ExchangedToken struct {
	AccessToken string
	ExpiresIn   time.Duration
}
