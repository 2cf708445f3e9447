package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthorizationDenied : пользователь или платформа отказали в доступе, показываем страницу отказа
	ErrAuthorizationDenied     = errors.New("доступ запрещён")
	ErrUserDeniedAuthorization = fmt.Errorf("%w: пользователь отказался авторизовать приложение", ErrAuthorizationDenied)
	ErrInvalidSignedRequest    = fmt.Errorf("%w: некорректный signed_request", ErrAuthorizationDenied)
	ErrApplicationDeauthorized = fmt.Errorf("%w: пользователь отозвал авторизацию приложения", ErrAuthorizationDenied)
	ErrMissingStartupForm      = fmt.Errorf("%w: нет параметров запуска приложения", ErrAuthorizationDenied)
	ErrInvalidStartupForm      = fmt.Errorf("%w: некорректные параметры запуска приложения", ErrAuthorizationDenied)

	// ErrAuthorizationRequired : нужно отправить пользователя на авторизацию приложения
	ErrAuthorizationRequired    = errors.New("требуется авторизация приложения")
	ErrApplicationNotAuthorized = fmt.Errorf("%w: пользователь не авторизовал приложение", ErrAuthorizationRequired)
	ErrCredentialExpired        = fmt.Errorf("%w: срок действия токена истёк", ErrAuthorizationRequired)

	ErrTokenExchangeFailed = errors.New("не удалось продлить токен")
	ErrUnknownProvider     = errors.New("неизвестная социальная сеть")
	ErrEmptyMessage        = errors.New("пустое сообщение")
)
