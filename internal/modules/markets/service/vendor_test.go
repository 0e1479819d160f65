package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"rate_monitor/internal/models"
	"rate_monitor/internal/modules/config"
	session "rate_monitor/internal/modules/session/service"
)

// fakeVendor: identity + instruments + bars на одном httptest-сервере.
// Логин выдаёт tok-1, tok-2, ...; ресурсы принимают токены с номером >= acceptFrom.
type fakeVendor struct {
	srv *httptest.Server

	mu          sync.Mutex
	logins      int
	loginStatus int
	acceptFrom  int
	requests    map[string]int
	queries     []url.Values
	authHeaders []string

	instruments func(page int) (int, any)
	bars        func(q url.Values) (int, any)
}

func newFakeVendor(t *testing.T) *fakeVendor {
	t.Helper()
	v := &fakeVendor{acceptFrom: 1, requests: map[string]int{}}
	v.srv = httptest.NewServer(http.HandlerFunc(v.serve))
	t.Cleanup(v.srv.Close)
	return v
}

func (v *fakeVendor) serve(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/identity/") {
		v.mu.Lock()
		v.logins++
		n, status := v.logins, v.loginStatus
		v.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		_, _ = fmt.Fprintf(w, `{"access_token":"tok-%d","refresh_token":"r"}`, n)
		return
	}

	v.mu.Lock()
	v.requests[r.URL.Path]++
	v.queries = append(v.queries, r.URL.Query())
	v.authHeaders = append(v.authHeaders, r.Header.Get("Authorization"))
	accept := v.acceptFrom
	instruments, bars := v.instruments, v.bars
	v.mu.Unlock()

	n, _ := strconv.Atoi(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer tok-"))
	if n < accept {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var (
		status int
		body   any
	)
	switch r.URL.Path {
	case "/api/instruments/v1/instruments":
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		status, body = instruments(page)
	case "/api/bars/v1/bars/date-range":
		status, body = bars(r.URL.Query())
	default:
		status = http.StatusNotFound
	}
	w.WriteHeader(status)
	if body != nil {
		b, _ := sonic.Marshal(body)
		_, _ = w.Write(b)
	}
}

func (v *fakeVendor) set(fn func(v *fakeVendor)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v)
}

func (v *fakeVendor) loginCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.logins
}

func (v *fakeVendor) requestCount(path string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.requests[path]
}

func (v *fakeVendor) config() *config.Config {
	cfg := &config.Config{}
	cfg.API.BaseURL = v.srv.URL
	cfg.API.Realm = "fintatech"
	cfg.API.ClientID = "app-cli"
	cfg.API.Provider = "simulation"
	cfg.API.HTTPTimeout = 2 * time.Second
	return cfg
}

// loggedInClient: клиент поверх настоящего менеджера сессии, уже залогиненного (tok-1).
func loggedInClient(t *testing.T, v *fakeVendor) (*Client, *session.Manager) {
	t.Helper()
	cfg := v.config()
	m := session.NewManager(cfg, nil)
	require.NoError(t, m.Login(context.Background()))
	return NewClient(cfg, m), m
}

func instrumentDto(id, symbol, kind string, markets ...string) models.InstrumentDto {
	d := models.InstrumentDto{ID: id, Symbol: symbol, Kind: kind, Currency: "USD", BaseCurrency: "EUR"}
	d.Mappings = map[string]models.MarketSourceDto{}
	for _, m := range markets {
		d.Mappings[m] = models.MarketSourceDto{Symbol: symbol, Exchange: "X"}
	}
	d.Profile.Name = symbol + " Inc"
	return d
}
