// Package signedrequest разбирает и формирует signed_request canvas-приложений Facebook.
//
// Формат: <base64url(HMAC-SHA256(payload))>.<base64url(JSON)>, подпись считается
// по закодированному сегменту payload секретным ключом приложения.
package signedrequest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const AlgorithmHMACSHA256 = "HMAC-SHA256"

var (
	ErrMalformedToken       = errors.New("некорректный signed_request")
	ErrInvalidSignature     = errors.New("неверная подпись signed_request")
	ErrUnsupportedAlgorithm = errors.New("неподдерживаемый алгоритм signed_request")
)

// segmentParser декодирует base64url-сегменты, допуская отсутствие или наличие паддинга
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// OAuthToken : снимок токена, вложенного в signed_request
type OAuthToken struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt *time.Time
}

type AgeRange struct {
	Min int `json:"min,omitempty"`
	Max int `json:"max,omitempty"`
}

type User struct {
	Locale  string   `json:"locale,omitempty"`
	Country string   `json:"country,omitempty"`
	Age     AgeRange `json:"age"`
}

// Payload : проверенное содержимое signed_request. Не изменяется после Parse.
type Payload struct {
	Algorithm  string
	IssuedAt   time.Time
	ExpiresAt  *time.Time
	UserID     int64
	OAuthToken *OAuthToken
	User       *User
	Raw        map[string]any
}

// HasAuthorizedApplication : пользователь разрешил приложению доступ, если в запросе есть токен
func (p *Payload) HasAuthorizedApplication() bool {
	return p.OAuthToken != nil
}

// Parse проверяет подпись и разбирает signed_request
func Parse(token string, secret []byte) (*Payload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: ожидается два сегмента", ErrMalformedToken)
	}

	signature, err := segmentParser.DecodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: подпись: %v", ErrMalformedToken, err)
	}
	body, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformedToken, err)
	}

	// hmac.Equal внутри Verify сравнивает за постоянное время
	if err := jwt.SigningMethodHS256.Verify(parts[1], signature, secret); err != nil {
		return nil, ErrInvalidSignature
	}

	return decodePayload(body)
}

func decodePayload(body []byte) (*Payload, error) {
	var raw map[string]any
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	algorithm, ok := raw["algorithm"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: нет поля algorithm", ErrMalformedToken)
	}
	if _, ok := raw["issued_at"]; !ok {
		return nil, fmt.Errorf("%w: нет поля issued_at", ErrMalformedToken)
	}
	if _, ok := raw["user_id"]; !ok {
		return nil, fmt.Errorf("%w: нет поля user_id", ErrMalformedToken)
	}
	if algorithm != AlgorithmHMACSHA256 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}

	issuedAt, err := int64Field(raw, "issued_at")
	if err != nil {
		return nil, err
	}
	userID, err := int64Field(raw, "user_id")
	if err != nil {
		return nil, err
	}

	payload := &Payload{
		Algorithm: AlgorithmHMACSHA256,
		IssuedAt:  time.Unix(issuedAt, 0),
		UserID:    userID,
		Raw:       raw,
	}

	if _, ok := raw["expires"]; ok {
		expires, err := int64Field(raw, "expires")
		if err != nil {
			return nil, err
		}
		if expires != 0 {
			expiresAt := time.Unix(expires, 0)
			payload.ExpiresAt = &expiresAt
		}
	}

	if token, ok := raw["oauth_token"].(string); ok && token != "" {
		payload.OAuthToken = &OAuthToken{
			Token:     token,
			IssuedAt:  payload.IssuedAt,
			ExpiresAt: payload.ExpiresAt,
		}
	}

	if userRaw, ok := raw["user"]; ok {
		encoded, err := json.Marshal(userRaw)
		if err == nil {
			var user User
			if json.Unmarshal(encoded, &user) == nil {
				payload.User = &user
			}
		}
	}

	return payload, nil
}

// int64Field принимает значение как числом, так и строкой: user_id приходит строкой
func int64Field(raw map[string]any, name string) (int64, error) {
	switch v := raw[name].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: поле %s: %v", ErrMalformedToken, name, err)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: поле %s: %v", ErrMalformedToken, name, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: поле %s имеет тип %T", ErrMalformedToken, name, v)
	}
}

// Generate кодирует payload обратно в signed_request, подписывая его secret.
// Неизвестные поля из Raw сохраняются.
func Generate(payload *Payload, secret []byte) (string, error) {
	data := make(map[string]any, len(payload.Raw)+5)
	for k, v := range payload.Raw {
		data[k] = v
	}

	data["algorithm"] = AlgorithmHMACSHA256
	data["issued_at"] = payload.IssuedAt.Unix()
	data["user_id"] = strconv.FormatInt(payload.UserID, 10)

	expiresAt := payload.ExpiresAt
	if payload.OAuthToken != nil {
		data["oauth_token"] = payload.OAuthToken.Token
		expiresAt = payload.OAuthToken.ExpiresAt
	} else {
		delete(data, "oauth_token")
	}
	if expiresAt != nil {
		data["expires"] = expiresAt.Unix()
	} else {
		data["expires"] = 0
	}

	if payload.User != nil {
		data["user"] = payload.User
	}

	body, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("не удалось сериализовать payload: %w", err)
	}

	encodedPayload := base64.RawURLEncoding.EncodeToString(body)
	signature, err := jwt.SigningMethodHS256.Sign(encodedPayload, secret)
	if err != nil {
		return "", fmt.Errorf("не удалось подписать payload: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(signature) + "." + encodedPayload, nil
}
