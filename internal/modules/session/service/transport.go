package service

import (
	"net/http"
	"strings"
	"time"

	"rate_monitor/pkg/tracing"
)

type TokenSource interface {
	Token() string
}

// BearerTransport добавляет authorization: Bearer <token> ко всем запросам,
// кроме identity-эндпоинтов.
type BearerTransport struct {
	Base   http.RoundTripper
	Tokens TokenSource
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if strings.Contains(req.URL.String(), "/identity") {
		return base.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.Tokens.Token())
	return base.RoundTrip(req)
}

// NewAuthorizedClient собирает http-клиент для ресурсов вендора, bearer поверх трассировки.
func NewAuthorizedClient(tokens TokenSource, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &BearerTransport{
			Base:   tracing.NewTransport(nil),
			Tokens: tokens,
		},
	}
}
