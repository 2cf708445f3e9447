package config

import "fmt"

// ConfigurationError : фатальная ошибка настройки, обнаруживается до обработки запросов
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("ошибка конфигурации %s: %s", e.Option, e.Reason)
}
