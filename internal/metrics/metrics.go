package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuthOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "social_auth_outcomes_total",
		Help: "Результаты аутентификации по социальной сети и исходу",
	}, []string{"provider", "outcome"})

	TokenExtensions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "social_token_extensions_total",
		Help: "Попытки продления OAuth токена",
	}, []string{"result"})

	IdentitiesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "social_identities_created_total",
		Help: "Созданные пользователи социальных сетей",
	}, []string{"provider"})

	NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "social_notifications_total",
		Help: "Отправленные уведомления",
	}, []string{"provider", "result"})
)

// Register регистрирует метрики в reg (или в реестре по умолчанию, если nil)
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{AuthOutcomes, TokenExtensions, IdentitiesCreated, NotificationsSent} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	return nil
}
