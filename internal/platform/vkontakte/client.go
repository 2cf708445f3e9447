package vkontakte

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"social-canvas-auth/config"
	"sort"
	"strconv"
	"strings"
	"time"
)

const apiVersion = "3.0"

// APIError : ошибка, которую вернул API ВКонтакте
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vkontakte: ошибка API %d: %s", e.Code, e.Message)
}

type Client struct {
	appID      string
	appSecret  string
	apiURL     string
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(cfg config.VkontakteConfig) *Client {
	return &Client{
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		apiURL:     cfg.APIURL,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		now:        time.Now,
	}
}

// Sign : md5 от отсортированных по ключу пар key=value и секрета приложения
func Sign(params url.Values, appSecret string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == "sig" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(params.Get(key))
	}
	b.WriteString(appSecret)

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Call : подписанный серверный вызов метода API, возвращает содержимое поля response
func (c *Client) Call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	form := url.Values{}
	for key, values := range params {
		form[key] = append([]string(nil), values...)
	}
	form.Set("api_id", c.appID)
	form.Set("method", method)
	form.Set("v", apiVersion)
	form.Set("format", "json")
	form.Set("timestamp", strconv.FormatInt(c.now().Unix(), 10))
	form.Set("random", strconv.FormatInt(rand.Int63n(1<<31), 10))
	form.Set("sig", Sign(form, c.appSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vkontakte: вызов %s не выполнен: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("vkontakte: не удалось прочитать ответ %s: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vkontakte: вызов %s вернул статус %d", method, resp.StatusCode)
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
		Error    *APIError       `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("vkontakte: некорректный ответ %s: %w", method, err)
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}
	return envelope.Response, nil
}

// SendNotification : secure.sendNotification от имени приложения
func (c *Client) SendNotification(ctx context.Context, socialID int64, message string) error {
	_, err := c.Call(ctx, "secure.sendNotification", url.Values{
		"uid":           {strconv.FormatInt(socialID, 10)},
		"message":       {message},
		"client_secret": {c.appSecret},
	})
	return err
}
