package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordVitalsSingleAndBatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	rec := env.do(postJSON("/api/vitals", `{"name":"LCP","value":1200,"rating":"good","page":"/"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.EqualValues(t, 1, decodeBody(t, rec)["recorded"])

	rec = env.do(postJSON("/api/vitals", `[{"name":"LCP","value":1800},{"name":"CLS","value":0.02}]`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.EqualValues(t, 2, decodeBody(t, rec)["recorded"])

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/vitals", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	summary, ok := body["metrics"].(map[string]any)
	require.True(t, ok)
	lcp, ok := summary["LCP"].(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, 2, lcp["count"])
	require.EqualValues(t, 1500, lcp["mean"])
	require.Contains(t, summary, "CLS")
}

func TestRecordVitalsRejectsWholeBatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	rec := env.do(postJSON("/api/vitals", `[{"name":"LCP","value":1800},{"name":"BOGUS","value":1}]`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(postJSON("/api/vitals", `{"name":"LCP","value":-1}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(postJSON("/api/vitals", `{`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/vitals", nil))
	summary, _ := decodeBody(t, rec)["metrics"].(map[string]any)
	require.NotContains(t, summary, "LCP")
}
