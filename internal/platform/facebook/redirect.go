package facebook

import (
	"fmt"
	"net/url"
	"social-canvas-auth/config"
	"strings"
)

// PostAuthorizationRedirectURI : куда Facebook вернёт пользователя после авторизации приложения.
// requestURI: путь с query текущего запроса, путь canvas URL из него вырезается.
func PostAuthorizationRedirectURI(cfg config.FacebookConfig, requestURI string) string {
	path := requestURI
	if cfg.CanvasURL != "" {
		if canvas, err := url.Parse(cfg.CanvasURL); err == nil && canvas.Path != "" && canvas.Path != "/" {
			path = strings.Replace(path, canvas.Path, "", 1)
		}
	}
	if path != "" && !strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "?") {
		path = "/" + path
	}

	return fmt.Sprintf("https://%s/%s%s", cfg.ApplicationDomain, cfg.ApplicationNamespace, path)
}
