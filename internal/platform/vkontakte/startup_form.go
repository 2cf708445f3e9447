// Package vkontakte : параметры запуска iframe-приложения и подписанные вызовы API ВКонтакте.
package vkontakte

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"social-canvas-auth/internal/model"
	"sort"
	"strconv"
	"strings"
)

// FieldErrors : ошибки проверки параметров запуска по именам полей
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "некорректные параметры запуска: " + strings.Join(parts, "; ")
}

// StartupForm : проверенные параметры, с которыми ВКонтакте открывает приложение
type StartupForm struct {
	APIID       string
	ViewerID    int64
	AuthKey     string
	AccessToken string
	APIResult   string

	values url.Values
}

// AuthKey : md5(api_id + "_" + viewer_id + "_" + app_secret) в hex
func AuthKey(appID, viewerID, appSecret string) string {
	sum := md5.Sum([]byte(appID + "_" + viewerID + "_" + appSecret))
	return hex.EncodeToString(sum[:])
}

// ParseStartupForm проверяет api_id, viewer_id и auth_key. При ошибке форма не возвращается.
func ParseStartupForm(query url.Values, appID, appSecret string) (*StartupForm, FieldErrors) {
	errs := FieldErrors{}

	apiID := query.Get("api_id")
	switch {
	case apiID == "":
		errs["api_id"] = "обязательное поле"
	case apiID != appID:
		errs["api_id"] = "чужое приложение"
	}

	rawViewerID := query.Get("viewer_id")
	viewerID, err := strconv.ParseInt(rawViewerID, 10, 64)
	switch {
	case rawViewerID == "":
		errs["viewer_id"] = "обязательное поле"
	case err != nil || viewerID <= 0:
		errs["viewer_id"] = "ожидается положительное число"
	}

	authKey := strings.ToLower(query.Get("auth_key"))
	if authKey == "" {
		errs["auth_key"] = "обязательное поле"
	} else if len(errs) == 0 {
		expected := AuthKey(apiID, rawViewerID, appSecret)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(authKey)) != 1 {
			errs["auth_key"] = "подпись не совпадает"
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &StartupForm{
		APIID:       apiID,
		ViewerID:    viewerID,
		AuthKey:     authKey,
		AccessToken: query.Get("access_token"),
		APIResult:   query.Get("api_result"),
		values:      query,
	}, nil
}

// Profile : имя пользователя из api_result вида {"response":[{"uid","first_name","last_name"}]}
func (f *StartupForm) Profile() (*model.Profile, FieldErrors) {
	if f.APIResult == "" {
		return nil, FieldErrors{"api_result": "нет данных профиля"}
	}

	var result struct {
		Response []struct {
			UID       json.Number `json:"uid"`
			FirstName string      `json:"first_name"`
			LastName  string      `json:"last_name"`
		} `json:"response"`
	}
	if err := json.Unmarshal([]byte(f.APIResult), &result); err != nil {
		return nil, FieldErrors{"api_result": fmt.Sprintf("некорректный JSON: %v", err)}
	}
	if len(result.Response) == 0 {
		return nil, FieldErrors{"api_result": "пустой ответ"}
	}

	entry := result.Response[0]
	if entry.UID != "" && entry.UID.String() != strconv.FormatInt(f.ViewerID, 10) {
		return nil, FieldErrors{"api_result": "профиль другого пользователя"}
	}
	return &model.Profile{FirstName: entry.FirstName, LastName: entry.LastName}, nil
}

// StartupVars : все параметры запуска кроме api_result
func (f *StartupForm) StartupVars() model.StartupVars {
	vars := make(model.StartupVars, len(f.values))
	for key := range f.values {
		if key == "api_result" {
			continue
		}
		vars[key] = f.values.Get(key)
	}
	return vars
}
