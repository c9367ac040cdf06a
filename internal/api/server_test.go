package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/marketing-site/internal/clock/system"
	"github.com/JakeFAU/marketing-site/internal/config"
	"github.com/JakeFAU/marketing-site/internal/preview"
	queueMemory "github.com/JakeFAU/marketing-site/internal/queue/memory"
	"github.com/JakeFAU/marketing-site/internal/revalidate"
	"github.com/JakeFAU/marketing-site/internal/site"
	storageMemory "github.com/JakeFAU/marketing-site/internal/storage/memory"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	server   *Server
	store    *storageMemory.Store
	queue    *queueMemory.Queue
	recorder *revalidate.Recorder
}

func testConfig() config.Config {
	return config.Config{
		Server:     config.ServerConfig{Port: 3000, Environment: "development", RequestTimeoutSeconds: 5},
		Revalidate: config.RevalidateConfig{Secret: "hook-secret"},
		CORS:       config.CORSConfig{AllowedOrigins: []string{"https://www.example.com"}},
	}
}

func newTestEnv(t *testing.T, mutate func(*Deps, *config.Config)) testEnv {
	t.Helper()
	env := testEnv{
		store:    storageMemory.NewStore(),
		queue:    queueMemory.NewQueue(16),
		recorder: revalidate.NewRecorder(),
	}
	deps := Deps{
		Contacts:    env.store,
		Subscribers: env.store,
		Health:      env.store,
		Events:      env.queue,
		Invalidator: env.recorder,
		Preview:     preview.New(preview.Config{Secret: "draft-secret"}),
		Clock:       system.Fixed(fixedNow),
		IDs:         &fakeIDGen{ids: []string{"req-1"}},
	}
	cfg := testConfig()
	if mutate != nil {
		mutate(&deps, &cfg)
	}
	env.server = NewServer(deps, cfg, zap.NewNop())
	return env
}

func (e testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthzAndMetrics(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestHealthReportsStorageState(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, fixedNow.Format(time.RFC3339), body["timestamp"])

	down := newTestEnv(t, func(d *Deps, _ *config.Config) {
		d.Health = pingFunc(func(context.Context) error { return errors.New("connection refused") })
	})
	rec = down.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body = decodeBody(t, rec)
	require.Equal(t, false, body["success"])
	require.Equal(t, "unhealthy", body["status"])
	require.Equal(t, "connection refused", body["error"])
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))

	// Falls back to a random UUID once the generator is exhausted.
	rec = env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestCORSPreflightAllowsConfiguredOrigin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/contacts", nil)
	req.Header.Set("Origin", "https://www.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := env.do(req)

	require.Equal(t, "https://www.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverMiddlewareReturnsJSON(t *testing.T) {
	t.Parallel()

	h := recoverMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Internal server error")
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	require.Equal(t, "192.0.2.10", clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	require.Equal(t, "198.51.100.2", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.1")
	require.Equal(t, "203.0.113.5", clientIP(req))
}

func TestResponseWriterHijackBehavior(t *testing.T) {
	t.Parallel()

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rw.Hijack()
	require.Error(t, err)

	server, client := net.Pipe()
	defer client.Close()
	hijackable := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder(), conn: server}
	rw = &responseWriter{ResponseWriter: hijackable}
	conn, _, err := rw.Hijack()
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

// --- helpers/fakes ---

type fakeIDGen struct {
	ids []string
	idx int
}

func (f *fakeIDGen) NewID() (string, error) {
	if f.idx >= len(f.ids) {
		return "", errors.New("no ids left")
	}
	id := f.ids[f.idx]
	f.idx++
	return id, nil
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type failingContacts struct{ err error }

func (f failingContacts) CreateContact(context.Context, site.Contact) (site.Contact, error) {
	return site.Contact{}, f.err
}

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	conn net.Conn
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return h.conn, bufio.NewReadWriter(bufio.NewReader(h.conn), bufio.NewWriter(h.conn)), nil
}

func httptestGet(path, ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	return req
}
