// Package facebook : исходящие вызовы Graph API от имени canvas-приложения.
package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"social-canvas-auth/config"
	"social-canvas-auth/internal/model"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	facebookOAuth2 "golang.org/x/oauth2/facebook"
)

const (
	appTokenCacheKey = "app_access_token"
	appTokenTTL      = time.Hour
	maxResponseSize  = 1 << 20
)

var ErrUnexpectedResponse = errors.New("неожиданный ответ Graph API")

type Client struct {
	applicationID string
	secretKey     string
	graphURL      string
	httpClient    *http.Client
	appTokens     *gocache.Cache
}

func NewClient(cfg config.FacebookConfig) *Client {
	return &Client{
		applicationID: cfg.ApplicationID,
		secretKey:     cfg.ApplicationSecretKey,
		graphURL:      strings.TrimRight(cfg.GraphURL, "/"),
		httpClient:    &http.Client{Timeout: cfg.Timeout()},
		appTokens:     gocache.New(appTokenTTL, 10*time.Minute),
	}
}

// AuthorizationURL : адрес диалога авторизации приложения с запрошенными правами
func (c *Client) AuthorizationURL(redirectURI string, permissions []string) string {
	conf := &oauth2.Config{
		ClientID:    c.applicationID,
		RedirectURL: redirectURI,
		Scopes:      permissions,
		Endpoint:    facebookOAuth2.Endpoint,
	}
	return conf.AuthCodeURL("")
}

// FetchProfile : имя пользователя из /me, токен передаётся заголовком Authorization
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*model.Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	client.Timeout = c.httpClient.Timeout

	endpoint := c.graphURL + "/me?" + url.Values{"fields": {"first_name,last_name,name"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(client, req)
	if err != nil {
		return nil, fmt.Errorf("facebook: не удалось получить профиль: %w", err)
	}

	var raw struct {
		Name      string `json:"name"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("facebook: не удалось разобрать профиль: %w", err)
	}

	profile := &model.Profile{FirstName: raw.FirstName, LastName: raw.LastName}
	if profile.FirstName == "" && profile.LastName == "" && raw.Name != "" {
		parts := strings.SplitN(raw.Name, " ", 2)
		profile.FirstName = parts[0]
		if len(parts) > 1 {
			profile.LastName = parts[1]
		}
	}
	return profile, nil
}

// ExchangeToken : обменивает токен пользователя на долгоживущий (fb_exchange_token)
func (c *Client) ExchangeToken(ctx context.Context, accessToken string) (*model.ExchangedToken, error) {
	params := url.Values{
		"client_id":         {c.applicationID},
		"client_secret":     {c.secretKey},
		"grant_type":        {"fb_exchange_token"},
		"fb_exchange_token": {accessToken},
	}

	values, err := c.accessTokenRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	token := &model.ExchangedToken{AccessToken: values.token}
	if values.expires == "" {
		return nil, fmt.Errorf("%w: нет срока действия токена", ErrUnexpectedResponse)
	}
	seconds, err := strconv.ParseInt(values.expires, 10, 64)
	if err != nil || seconds <= 0 {
		return nil, fmt.Errorf("%w: некорректный срок действия %q", ErrUnexpectedResponse, values.expires)
	}
	token.ExpiresIn = time.Duration(seconds) * time.Second
	return token, nil
}

// AppAccessToken : токен приложения (client_credentials), кэшируется на час
func (c *Client) AppAccessToken(ctx context.Context) (string, error) {
	if cached, ok := c.appTokens.Get(appTokenCacheKey); ok {
		return cached.(string), nil
	}

	values, err := c.accessTokenRequest(ctx, url.Values{
		"client_id":     {c.applicationID},
		"client_secret": {c.secretKey},
		"grant_type":    {"client_credentials"},
	})
	if err != nil {
		return "", err
	}

	c.appTokens.SetDefault(appTokenCacheKey, values.token)
	return values.token, nil
}

// SendNotification : POST /{socialId}/notifications от имени приложения
func (c *Client) SendNotification(ctx context.Context, socialID int64, message string) error {
	token, err := c.AppAccessToken(ctx)
	if err != nil {
		return err
	}

	query := url.Values{"access_token": {token}, "template": {message}}
	endpoint := fmt.Sprintf("%s/%d/notifications?%s", c.graphURL, socialID, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}

	if _, err := c.do(c.httpClient, req); err != nil {
		return fmt.Errorf("facebook: не удалось отправить уведомление: %w", err)
	}
	return nil
}

type accessTokenValues struct {
	token   string
	expires string
}

// accessTokenRequest : GET /oauth/access_token. Graph API отвечает либо
// application/x-www-form-urlencoded (access_token, expires), либо JSON (access_token, expires_in).
func (c *Client) accessTokenRequest(ctx context.Context, params url.Values) (*accessTokenValues, error) {
	endpoint := c.graphURL + "/oauth/access_token?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("facebook: запрос access_token не выполнен: %w", err)
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var raw struct {
			AccessToken string      `json:"access_token"`
			ExpiresIn   json.Number `json:"expires_in"`
		}
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		if raw.AccessToken == "" {
			return nil, fmt.Errorf("%w: нет access_token", ErrUnexpectedResponse)
		}
		return &accessTokenValues{token: raw.AccessToken, expires: raw.ExpiresIn.String()}, nil
	}

	values, err := url.ParseQuery(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if values.Get("access_token") == "" {
		return nil, fmt.Errorf("%w: нет access_token", ErrUnexpectedResponse)
	}
	return &accessTokenValues{token: values.Get("access_token"), expires: values.Get("expires")}, nil
}

func (c *Client) do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: статус %d: %s", ErrUnexpectedResponse, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
