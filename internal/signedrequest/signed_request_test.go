package signedrequest_test

import (
	"encoding/base64"
	"errors"
	"social-canvas-auth/internal/signedrequest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testApplicationSecret = "ca52168c97e17814113fbd686e576621"
	testSignedRequest     = "2q8YtcUJnzYt-82sBA6qDQx2olLWByUGxCGFUsztrYY.eyJhbGdvcml0aG0iOiJITUFDLVNIQTI1NiIsImV4cGlyZXMiOjEzNTU0ODY0MDAsImlzc3VlZF9hdCI6MTM1NTQ4MDc1OCwib2F1dGhfdG9rZW4iOiJBQUFIT29XdUhqRnNCQUJla1FHeTkxSXY5d2taQjVSajA5MjFaQmZ6bml3em9QOHB0RXRCZmpvRE5lS1pDZkRHMFJORmRhZWhtRUhBcVBJT29oVTlpM2tyTUZPR0x3M3dGOWRKTUhmY25yQW5oWkM5bFpBejFvIiwidXNlciI6eyJjb3VudHJ5IjoicnUiLCJsb2NhbGUiOiJydV9SVSIsImFnZSI6eyJtaW4iOjIxfX0sInVzZXJfaWQiOiIxMDAwMDE4NDIxNzA3MDkifQ"
)

// signRaw подписывает произвольный JSON так же, как это делает платформа
func signRaw(t *testing.T, body string) string {
	t.Helper()
	payload := base64.RawURLEncoding.EncodeToString([]byte(body))
	sig, err := jwt.SigningMethodHS256.Sign(payload, []byte(testApplicationSecret))
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(sig) + "." + payload
}

func TestParse_PlatformFixture(t *testing.T) {
	payload, err := signedrequest.Parse(testSignedRequest, []byte(testApplicationSecret))
	require.NoError(t, err)

	assert.Equal(t, signedrequest.AlgorithmHMACSHA256, payload.Algorithm)
	assert.Equal(t, int64(100001842170709), payload.UserID)
	assert.Equal(t, time.Unix(1355480758, 0), payload.IssuedAt)
	require.NotNil(t, payload.ExpiresAt)
	assert.Equal(t, time.Unix(1355486400, 0), *payload.ExpiresAt)

	assert.True(t, payload.HasAuthorizedApplication())
	require.NotNil(t, payload.OAuthToken)
	assert.True(t, strings.HasPrefix(payload.OAuthToken.Token, "AAAHOoWuHjFs"))
	assert.Equal(t, payload.IssuedAt, payload.OAuthToken.IssuedAt)

	require.NotNil(t, payload.User)
	assert.Equal(t, "ru_RU", payload.User.Locale)
	assert.Equal(t, "ru", payload.User.Country)
	assert.Equal(t, 21, payload.User.Age.Min)
	assert.Contains(t, payload.Raw, "user")
}

func TestParse_TamperedSignature(t *testing.T) {
	parts := strings.Split(testSignedRequest, ".")
	signature, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)

	for i := range signature {
		tampered := append([]byte(nil), signature...)
		tampered[i] ^= 0x01
		token := base64.RawURLEncoding.EncodeToString(tampered) + "." + parts[1]

		_, err := signedrequest.Parse(token, []byte(testApplicationSecret))
		assert.ErrorIs(t, err, signedrequest.ErrInvalidSignature, "байт подписи %d", i)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	_, err := signedrequest.Parse(testSignedRequest, []byte("another-secret"))
	assert.ErrorIs(t, err, signedrequest.ErrInvalidSignature)
}

func TestParse_TamperedPayload(t *testing.T) {
	parts := strings.Split(testSignedRequest, ".")
	body := `{"algorithm":"HMAC-SHA256","issued_at":1355480758,"user_id":"1"}`
	token := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(body))

	_, err := signedrequest.Parse(token, []byte(testApplicationSecret))
	assert.ErrorIs(t, err, signedrequest.ErrInvalidSignature)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "one segment", token: "abc"},
		{name: "three segments", token: "a.b.c"},
		{name: "empty signature", token: ".eyJhIjoxfQ"},
		{name: "bad base64", token: "@@@.eyJhIjoxfQ"},
		{name: "not json", token: signRaw(t, "not json")},
		{name: "no algorithm", token: signRaw(t, `{"issued_at":1,"user_id":"1"}`)},
		{name: "no issued_at", token: signRaw(t, `{"algorithm":"HMAC-SHA256","user_id":"1"}`)},
		{name: "no user_id", token: signRaw(t, `{"algorithm":"HMAC-SHA256","issued_at":1}`)},
		{name: "non numeric user_id", token: signRaw(t, `{"algorithm":"HMAC-SHA256","issued_at":1,"user_id":"abc"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signedrequest.Parse(tt.token, []byte(testApplicationSecret))
			assert.ErrorIs(t, err, signedrequest.ErrMalformedToken)
		})
	}
}

func TestParse_UnsupportedAlgorithm(t *testing.T) {
	token := signRaw(t, `{"algorithm":"HMAC-SHA1","issued_at":1,"user_id":"1"}`)

	_, err := signedrequest.Parse(token, []byte(testApplicationSecret))
	assert.ErrorIs(t, err, signedrequest.ErrUnsupportedAlgorithm)
	assert.False(t, errors.Is(err, signedrequest.ErrInvalidSignature))
}

func TestParse_PaddedSegments(t *testing.T) {
	body := `{"algorithm":"HMAC-SHA256","issued_at":10,"user_id":42}`
	payload := base64.URLEncoding.EncodeToString([]byte(body))
	sig, err := jwt.SigningMethodHS256.Sign(payload, []byte(testApplicationSecret))
	require.NoError(t, err)
	token := base64.URLEncoding.EncodeToString(sig) + "." + payload

	parsed, err := signedrequest.Parse(token, []byte(testApplicationSecret))
	require.NoError(t, err)
	assert.Equal(t, int64(42), parsed.UserID)
}

func TestParse_NoExpiryAndNoToken(t *testing.T) {
	token := signRaw(t, `{"algorithm":"HMAC-SHA256","issued_at":10,"expires":0,"user_id":"7"}`)

	payload, err := signedrequest.Parse(token, []byte(testApplicationSecret))
	require.NoError(t, err)
	assert.Nil(t, payload.ExpiresAt)
	assert.Nil(t, payload.OAuthToken)
	assert.False(t, payload.HasAuthorizedApplication())
}

func TestGenerate_RoundTrip(t *testing.T) {
	userIDs := []int64{1, 42, 100001842170709, 9007199254740993}
	expiresAt := time.Unix(2000000000, 0)

	for _, id := range userIDs {
		original := &signedrequest.Payload{
			IssuedAt: time.Unix(1700000000, 0),
			UserID:   id,
			OAuthToken: &signedrequest.OAuthToken{
				Token:     "token",
				IssuedAt:  time.Unix(1700000000, 0),
				ExpiresAt: &expiresAt,
			},
		}

		token, err := signedrequest.Generate(original, []byte(testApplicationSecret))
		require.NoError(t, err)

		parsed, err := signedrequest.Parse(token, []byte(testApplicationSecret))
		require.NoError(t, err)
		assert.Equal(t, id, parsed.UserID)
		assert.Equal(t, "token", parsed.OAuthToken.Token)
		assert.Equal(t, expiresAt, *parsed.ExpiresAt)
	}
}

func TestGenerate_KeepsUnknownFields(t *testing.T) {
	payload, err := signedrequest.Parse(testSignedRequest, []byte(testApplicationSecret))
	require.NoError(t, err)

	payload.Raw["app_data"] = "promo"
	token, err := signedrequest.Generate(payload, []byte(testApplicationSecret))
	require.NoError(t, err)

	parsed, err := signedrequest.Parse(token, []byte(testApplicationSecret))
	require.NoError(t, err)
	assert.Equal(t, "promo", parsed.Raw["app_data"])
	assert.Equal(t, payload.UserID, parsed.UserID)
}
