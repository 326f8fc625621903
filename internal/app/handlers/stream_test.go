package handlers_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/campuskart/internal/app/handlers"
	"github.com/linemk/campuskart/internal/domain/models"
	"github.com/linemk/campuskart/internal/metrics"
	"github.com/linemk/campuskart/internal/notify"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type streamFixture struct {
	registry *notify.Registry
	metrics  *metrics.Registry
	server   *httptest.Server
}

func newStreamFixture(t *testing.T, opts handlers.StreamOptions) *streamFixture {
	t.Helper()
	f := &streamFixture{registry: notify.NewRegistry(), metrics: metrics.NewRegistry()}

	router := chi.NewRouter()
	router.Get("/api/notifications/stream/{userId}", handlers.StreamHandler(newTestLogger(), f.registry, f.metrics, opts))
	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)
	return f
}

// open подключается к потоку и возвращает reader и функцию отключения
func (f *streamFixture) open(t *testing.T, path string, header http.Header) (*http.Response, *bufio.Reader, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp, bufio.NewReader(resp.Body), cancel
}

func TestStreamHandler_DeliversNotification(t *testing.T) {
	f := newStreamFixture(t, handlers.StreamOptions{})
	dispatcher := notify.NewDispatcher(newTestLogger(), f.registry, f.metrics)

	resp, reader, cancel := f.open(t, "/api/notifications/stream/S", nil)
	defer cancel()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "\n", line, "stream starts with a blank line")

	require.Eventually(t, func() bool {
		_, ok := f.registry.Lookup("S")
		return ok
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.StreamsActive))

	err = dispatcher.Notify(context.Background(), "S", models.ClearDirective{Clear: true})
	require.NoError(t, err)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: {\"clear\":true}\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "\n", line)

	// отключение клиента снимает регистрацию
	cancel()
	assert.Eventually(t, func() bool {
		return f.registry.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.StreamsActive) == 0
	}, 2*time.Second, 10*time.Millisecond)

	// после отключения уведомление просто теряется
	assert.NoError(t, dispatcher.Notify(context.Background(), "S", models.ClearDirective{Clear: true}))
}

func TestStreamHandler_NewerTabSurvivesOlderDisconnect(t *testing.T) {
	f := newStreamFixture(t, handlers.StreamOptions{})

	_, oldReader, cancelOld := f.open(t, "/api/notifications/stream/S", nil)
	_, err := oldReader.ReadString('\n')
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.registry.Len() == 1 }, time.Second, 10*time.Millisecond)
	oldCh, _ := f.registry.Lookup("S")

	_, newReader, cancelNew := f.open(t, "/api/notifications/stream/S", nil)
	defer cancelNew()
	_, err = newReader.ReadString('\n')
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		ch, ok := f.registry.Lookup("S")
		return ok && ch != oldCh
	}, time.Second, 10*time.Millisecond)

	cancelOld()
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.StreamsActive) == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := f.registry.Lookup("S")
	assert.True(t, ok, "the newer tab must stay registered")
}

func TestStreamHandler_Keepalive(t *testing.T) {
	f := newStreamFixture(t, handlers.StreamOptions{Keepalive: 20 * time.Millisecond})

	_, reader, cancel := f.open(t, "/api/notifications/stream/S", nil)
	defer cancel()

	_, err := reader.ReadString('\n')
	require.NoError(t, err)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": ping\n", line)
}

func signedToken(t *testing.T, sub, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestStreamHandler_BindIdentity_Rejects(t *testing.T) {
	registry := notify.NewRegistry()
	handler := handlers.StreamHandler(newTestLogger(), registry, metrics.NewRegistry(), handlers.StreamOptions{
		BindIdentity: true,
		JWTSecret:    "testsecret",
	})

	cases := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"missing token", "/api/notifications/stream/S", "", http.StatusUnauthorized},
		{"bad token", "/api/notifications/stream/S?token=garbage", "", http.StatusUnauthorized},
		{"bad header format", "/api/notifications/stream/S", "Token abc", http.StatusUnauthorized},
		{"foreign stream", "/api/notifications/stream/S?token=" + signedToken(t, "B", "testsecret"), "", http.StatusForbidden},
		{"wrong secret", "/api/notifications/stream/S", "Bearer " + signedToken(t, "S", "other"), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := withURLParams(httptest.NewRequest("GET", tc.target, nil), map[string]string{"userId": "S"})
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, 0, registry.Len())
		})
	}
}

func TestStreamHandler_BindIdentity_Accepts(t *testing.T) {
	f := newStreamFixture(t, handlers.StreamOptions{BindIdentity: true, JWTSecret: "testsecret"})

	token := signedToken(t, "S", "testsecret")
	resp, reader, cancel := f.open(t, "/api/notifications/stream/S?token="+token, nil)
	defer cancel()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := reader.ReadString('\n')
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+signedToken(t, "B", "testsecret"))
	resp2, _, cancel2 := f.open(t, "/api/notifications/stream/B", header)
	defer cancel2()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.True(t, strings.HasPrefix(resp2.Header.Get("Content-Type"), "text/event-stream"))
}
