package service

import (
	"regexp"
	"social-canvas-auth/config"
	"strings"
)

// PathFilter : пути, на которых работает авторизация. Выражения ищутся в пути без ведущего "/".
type PathFilter struct {
	enabled  []*regexp.Regexp
	disabled []*regexp.Regexp
}

func NewPathFilter(cfg config.PathsConfig) (*PathFilter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	filter := &PathFilter{}
	for _, pattern := range cfg.Enabled {
		filter.enabled = append(filter.enabled, regexp.MustCompile(pattern))
	}
	for _, pattern := range cfg.Disabled {
		filter.disabled = append(filter.disabled, regexp.MustCompile(pattern))
	}
	return filter, nil
}

func (f *PathFilter) Allows(path string) bool {
	path = strings.TrimPrefix(path, "/")

	if len(f.disabled) > 0 {
		return !matchAny(f.disabled, path)
	}
	if len(f.enabled) > 0 {
		return matchAny(f.enabled, path)
	}
	return true
}

func matchAny(patterns []*regexp.Regexp, path string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(path) {
			return true
		}
	}
	return false
}
