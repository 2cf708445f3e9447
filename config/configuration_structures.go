package config

import "time"

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LoggingConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// FacebookConfig : настройки canvas-приложения Facebook
type FacebookConfig struct {
	ApplicationID          string   `yaml:"application_id"`
	ApplicationSecretKey   string   `yaml:"application_secret_key"`
	CanvasURL              string   `yaml:"canvas_url"`
	ApplicationDomain      string   `yaml:"application_domain"`
	ApplicationNamespace   string   `yaml:"application_namespace"`
	InitialPermissions     []string `yaml:"initial_permissions"`
	ExtendedPermissions    []string `yaml:"extended_permissions"`
	AuthorizationDeniedURL string   `yaml:"authorization_denied_url"`
	CacheSignedRequest     bool     `yaml:"cache_signed_request"`
	GraphURL               string   `yaml:"graph_url"`
	HTTPTimeout            string   `yaml:"http_timeout"`
}

// VkontakteConfig : настройки iframe-приложения ВКонтакте
type VkontakteConfig struct {
	AppID       string `yaml:"app_id"`
	AppSecret   string `yaml:"app_secret"`
	APIURL      string `yaml:"api_url"`
	HTTPTimeout string `yaml:"http_timeout"`
}

// PathsConfig : регулярные выражения путей, на которых работает авторизация.
// Можно задать либо Enabled, либо Disabled, но не оба списка сразу.
type PathsConfig struct {
	Enabled  []string `yaml:"enabled"`
	Disabled []string `yaml:"disabled"`
}

// ProvidersConfig : соответствие хоста запроса социальной сети
type ProvidersConfig struct {
	Default string            `yaml:"default"`
	Hosts   map[string]string `yaml:"hosts"`
}

type SessionConfig struct {
	SecretKey  string `yaml:"secret_key"`
	TTL        string `yaml:"ttl"`
	CookieName string `yaml:"cookie_name"`
}

type AdminConfig struct {
	AdminToken string `yaml:"admin_token"`
}

// Timeout разбирает HTTPTimeout, по умолчанию 5 секунд
func (c FacebookConfig) Timeout() time.Duration {
	return parseDurationOr(c.HTTPTimeout, 5*time.Second)
}

func (c VkontakteConfig) Timeout() time.Duration {
	return parseDurationOr(c.HTTPTimeout, 5*time.Second)
}

func (c SessionConfig) SessionTTL() time.Duration {
	return parseDurationOr(c.TTL, 24*time.Hour)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
