package config

import (
	"fmt"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
	"net/http"
	"os"
	"regexp"
	"time"
)

type AppConfig struct {
	DatabaseConfig DatabaseConfig  `yaml:"databaseConfig"`
	RedisConfig    RedisConfig     `yaml:"redisConfig"`
	ServerAddr     string          `yaml:"serverAddr"`
	Logging        LoggingConfig   `yaml:"logging"`
	Facebook       FacebookConfig  `yaml:"facebook"`
	Vkontakte      VkontakteConfig `yaml:"vkontakte"`
	Paths          PathsConfig     `yaml:"paths"`
	Providers      ProvidersConfig `yaml:"providers"`
	Session        SessionConfig   `yaml:"session"`
	Admin          AdminConfig     `yaml:"admin"`
}

// LoadConfig читает yaml, накладывает переменные окружения и проверяет результат
func LoadConfig(path string) (*AppConfig, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) applyEnv() {
	overrides := map[string]*string{
		"FACEBOOK_APPLICATION_ID":         &c.Facebook.ApplicationID,
		"FACEBOOK_APPLICATION_SECRET_KEY": &c.Facebook.ApplicationSecretKey,
		"VK_APP_ID":                       &c.Vkontakte.AppID,
		"VK_APP_SECRET":                   &c.Vkontakte.AppSecret,
		"DATABASE_DSN":                    &c.DatabaseConfig.DSN,
		"SESSION_SECRET_KEY":              &c.Session.SecretKey,
		"ADMIN_TOKEN":                     &c.Admin.AdminToken,
	}
	for name, target := range overrides {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			*target = value
		}
	}
}

func (c *AppConfig) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.Facebook.GraphURL == "" {
		c.Facebook.GraphURL = "https://graph.facebook.com"
	}
	if c.Vkontakte.APIURL == "" {
		c.Vkontakte.APIURL = "https://api.vk.com/api.php"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "social_session"
	}
}

// Validate проверяет настройки, без которых сервис не может обрабатывать запросы
func (c *AppConfig) Validate() error {
	if err := c.Paths.Validate(); err != nil {
		return err
	}

	if c.Providers.Default != "" && !isKnownProvider(c.Providers.Default) {
		return &ConfigurationError{Option: "providers.default", Reason: fmt.Sprintf("неизвестная социальная сеть %q", c.Providers.Default)}
	}
	for host, provider := range c.Providers.Hosts {
		if !isKnownProvider(provider) {
			return &ConfigurationError{Option: "providers.hosts." + host, Reason: fmt.Sprintf("неизвестная социальная сеть %q", provider)}
		}
	}

	if c.Session.SecretKey == "" {
		return &ConfigurationError{Option: "session.secret_key", Reason: "ключ подписи сессии не задан"}
	}
	if c.Session.TTL != "" {
		if _, err := time.ParseDuration(c.Session.TTL); err != nil {
			return &ConfigurationError{Option: "session.ttl", Reason: err.Error()}
		}
	}

	return nil
}

// Validate : enabled и disabled пути взаимоисключающие
func (p PathsConfig) Validate() error {
	if len(p.Enabled) > 0 && len(p.Disabled) > 0 {
		return &ConfigurationError{
			Option: "paths",
			Reason: "можно задать либо paths.enabled, либо paths.disabled, но не оба списка",
		}
	}
	for _, pattern := range append(append([]string{}, p.Enabled...), p.Disabled...) {
		if _, err := regexp.Compile(pattern); err != nil {
			return &ConfigurationError{Option: "paths", Reason: fmt.Sprintf("некорректное выражение %q: %v", pattern, err)}
		}
	}
	return nil
}

func isKnownProvider(name string) bool {
	return name == "facebook" || name == "vkontakte"
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:              serverAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, router
}

func SetupDatabase(dsn string) (*Database, error) {
	return NewDatabaseConnection("postgres", dsn)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
