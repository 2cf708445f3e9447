package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"social-canvas-auth/config"
	"social-canvas-auth/internal/metrics"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/ports"
	"strings"
)

// Dispatcher : выбирает социальную сеть по хосту запроса
type Dispatcher struct {
	byHost   map[string]ports.Authenticator
	fallback ports.Authenticator
}

func NewDispatcher(cfg config.ProvidersConfig, authenticators ...ports.Authenticator) (*Dispatcher, error) {
	byProvider := make(map[model.Provider]ports.Authenticator, len(authenticators))
	for _, authenticator := range authenticators {
		byProvider[authenticator.Provider()] = authenticator
	}

	lookup := func(name string) (ports.Authenticator, error) {
		authenticator, ok := byProvider[model.Provider(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
		}
		return authenticator, nil
	}

	dispatcher := &Dispatcher{byHost: make(map[string]ports.Authenticator, len(cfg.Hosts))}
	for host, provider := range cfg.Hosts {
		authenticator, err := lookup(provider)
		if err != nil {
			return nil, err
		}
		dispatcher.byHost[strings.ToLower(host)] = authenticator
	}

	if cfg.Default != "" {
		authenticator, err := lookup(cfg.Default)
		if err != nil {
			return nil, err
		}
		dispatcher.fallback = authenticator
	}

	return dispatcher, nil
}

// Resolve : nil, если хост неизвестен и сеть по умолчанию не задана
func (d *Dispatcher) Resolve(r *http.Request) ports.Authenticator {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	if authenticator, ok := d.byHost[strings.ToLower(host)]; ok {
		return authenticator
	}
	return d.fallback
}

func (d *Dispatcher) Provider() model.Provider {
	if d.fallback == nil {
		return ""
	}
	return d.fallback.Provider()
}

func (d *Dispatcher) Authenticate(ctx context.Context, r *http.Request) (*model.Outcome, error) {
	authenticator := d.Resolve(r)
	if authenticator == nil {
		return model.NoOp(""), nil
	}

	outcome, err := authenticator.Authenticate(ctx, r)
	if err != nil {
		metrics.AuthOutcomes.WithLabelValues(string(authenticator.Provider()), "error").Inc()
		return nil, err
	}
	metrics.AuthOutcomes.WithLabelValues(string(authenticator.Provider()), outcome.Kind.String()).Inc()
	return outcome, nil
}
