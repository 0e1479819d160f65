package service

import (
	"net/http"
	"sync"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestBearerTransport(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		seen[r.URL.Path] = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := NewAuthorizedClient(staticToken("abc"), time.Second)

	for _, path := range []string{
		"/api/instruments/v1/instruments",
		"/identity/realms/fintatech/protocol/openid-connect/token",
	} {
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "Bearer abc", seen["/api/instruments/v1/instruments"])
	require.Equal(t, "", seen["/identity/realms/fintatech/protocol/openid-connect/token"])
}

func TestBearerTransportDoesNotMutateRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/x", nil)
	require.NoError(t, err)

	resp, err := NewAuthorizedClient(staticToken("abc"), time.Second).Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Empty(t, req.Header.Get("Authorization"))
}
