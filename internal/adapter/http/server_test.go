package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/precip-chart/internal/adapter/http"
	"github.com/couchcryptid/precip-chart/internal/chart"
	"github.com/couchcryptid/precip-chart/internal/domain"
	"github.com/couchcryptid/precip-chart/internal/observability"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(readyErr error) (*httpadapter.Server, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, m, 16, discardLogger()), m
}

func day(d int) time.Time {
	return time.Date(2014, time.July, d, 0, 0, 0, 0, time.UTC)
}

func newTestChart(t *testing.T) *chart.Controller {
	t.Helper()
	ds := domain.NewDataset([]domain.Observation{
		{Location: "CLT", Date: day(1), Actual: 0.1, Average: 0.2, Record: math.NaN()},
		{Location: "CLT", Date: day(2), Actual: 0.5, Average: 0.3, Record: math.NaN()},
		{Location: "CLT", Date: day(3), Actual: 0.0, Average: 0.1, Record: math.NaN()},
		{Location: "PHX", Date: day(1), Actual: 0.0, Average: 0.05, Record: math.NaN()},
		{Location: "PHX", Date: day(2), Actual: 0.2, Average: 0.4, Record: math.NaN()},
		{Location: "PHX", Date: day(3), Actual: 0.0, Average: 0.15, Record: math.NaN()},
	})
	locations := []domain.Location{
		{Code: "CLT", Name: "Charlotte, North Carolina", File: "CLT.csv"},
		{Code: "PHX", Name: "Phoenix, Arizona", File: "PHX.csv"},
	}
	c, err := chart.New(ds, locations, discardLogger(), observability.NewMetricsForTesting(),
		chart.WithClock(clockwork.NewFakeClock()), chart.WithTransition(0))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func newReadyServer(t *testing.T) (*httpadapter.Server, *chart.Controller, *observability.Metrics) {
	t.Helper()
	srv, m := newTestServer(nil)
	c := newTestChart(t)
	srv.SetChart(c)
	return srv, c, m
}

func do(srv http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := do(srv, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := do(srv, http.MethodGet, "/readyz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _ := newTestServer(fmt.Errorf("not ready yet"))
	rec := do(srv, http.MethodGet, "/readyz", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := do(srv, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestChartRoutesReturn503BeforeLoad(t *testing.T) {
	srv, _ := newTestServer(nil)

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/chart.svg"},
		{http.MethodGet, "/chart.png"},
		{http.MethodPost, "/variable"},
		{http.MethodPost, "/brush"},
		{http.MethodGet, "/tooltip?x=1&y=1&pageX=1&pageY=1"},
		{http.MethodGet, "/api/view"},
	} {
		rec := do(srv, tc.method, tc.target, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, tc.target)
	}

	rec := do(srv, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Loading data")
}

func TestPage(t *testing.T) {
	srv, _, _ := newReadyServer(t)
	rec := do(srv, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="my_dataviz"`)
	assert.Contains(t, body, `id="variableSelector"`)
	assert.Contains(t, body, `<option value="actual_precipitation" selected>actual precipitation</option>`)
	assert.Contains(t, body, `<option value="record_precipitation">record precipitation</option>`)
	assert.NotContains(t, body, "Loading data")

	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodGet, "/nope", nil).Code)
}

func TestChartSVG_CachedPerVersion(t *testing.T) {
	srv, _, m := newReadyServer(t)

	rec := do(srv, http.MethodGet, "/chart.svg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
	first := rec.Body.String()

	rec = do(srv, http.MethodGet, "/chart.svg", nil)
	assert.Equal(t, first, rec.Body.String())
	assert.InDelta(t, 1, testutil.ToFloat64(m.RenderRequests.WithLabelValues("svg", "miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RenderRequests.WithLabelValues("svg", "hit")), 0)

	rec = do(srv, http.MethodPost, "/variable", url.Values{"variable": {"average_precipitation"}})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(srv, http.MethodGet, "/chart.svg", nil)
	assert.Contains(t, rec.Body.String(), "average precipitation")
	assert.InDelta(t, 2, testutil.ToFloat64(m.RenderRequests.WithLabelValues("svg", "miss")), 0)
}

func TestChartSVG_Highlight(t *testing.T) {
	srv, _, _ := newReadyServer(t)

	rec := do(srv, http.MethodGet, "/chart.svg?highlight=PHX", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `stroke-opacity="0.10"`)
}

func TestChartPNG(t *testing.T) {
	srv, _, _ := newReadyServer(t)

	rec := do(srv, http.MethodGet, "/chart.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(rec.Body)
	require.NoError(t, err)
}

func TestChartPNG_NoData(t *testing.T) {
	srv, _, _ := newReadyServer(t)
	require.Equal(t, http.StatusNoContent, do(srv, http.MethodPost, "/variable", url.Values{"variable": {"record_precipitation"}}).Code)

	rec := do(srv, http.MethodGet, "/chart.png", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "no data")

	rec = do(srv, http.MethodGet, "/chart.svg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data for record precipitation")
}

func TestVariable_UnknownField(t *testing.T) {
	srv, c, _ := newReadyServer(t)

	rec := do(srv, http.MethodPost, "/variable", url.Values{"variable": {"snowfall"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown field")
	assert.Equal(t, domain.ActualPrecipitation, c.View().Variable)
}

func TestBrush(t *testing.T) {
	srv, c, _ := newReadyServer(t)
	pre := c.TimeScale()

	rec := do(srv, http.MethodPost, "/brush", url.Values{"x0": {"200"}, "x1": {"900"}})
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Outcome string           `json:"outcome"`
		View    domain.ViewState `json:"view"`
		Version uint64           `json:"version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "zoomed", res.Outcome)
	assert.Equal(t, pre.Invert(200), res.View.Start)
	assert.Equal(t, pre.Invert(900), res.View.End)
	assert.Equal(t, uint64(2), res.Version)

	rec = do(srv, http.MethodPost, "/brush", url.Values{})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "reset_armed", res.Outcome)
}

func TestBrush_BadInput(t *testing.T) {
	srv, _, _ := newReadyServer(t)

	assert.Equal(t, http.StatusBadRequest, do(srv, http.MethodPost, "/brush", url.Values{"x0": {"10"}}).Code)
	assert.Equal(t, http.StatusBadRequest, do(srv, http.MethodPost, "/brush", url.Values{"x0": {"a"}, "x1": {"10"}}).Code)
}

func TestBrush_NonFiniteCoordinatesRejected(t *testing.T) {
	srv, c, _ := newReadyServer(t)
	before := c.View()

	for _, v := range []string{"NaN", "nan", "Inf", "-Inf", "+Infinity"} {
		rec := do(srv, http.MethodPost, "/brush", url.Values{"x0": {v}, "x1": {"700"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code, v)
		assert.Contains(t, rec.Body.String(), "not a finite number", v)
	}
	assert.Equal(t, before, c.View())
	assert.Equal(t, uint64(1), c.Version())

	rec := do(srv, http.MethodGet, "/tooltip?x=NaN&y=1&pageX=0&pageY=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTooltip(t *testing.T) {
	srv, c, _ := newReadyServer(t)
	f, _ := c.Frame("")
	p := f.Paths[0].Segments[0][1]

	target := fmt.Sprintf("/tooltip?x=%f&y=%f&pageX=100&pageY=200", p.X, p.Y)
	rec := do(srv, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "left: 105px")
	assert.Contains(t, body, "top: 172px")
	assert.Contains(t, body, "opacity: 0.9")
	assert.Contains(t, body, "transition: opacity 200ms")
	assert.Contains(t, body, "CLT<br/>Wed Jul 02 2014<br/>0.5")

	rec = do(srv, http.MethodGet, "/tooltip?x=-50&y=-50&pageX=0&pageY=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "opacity: 0;")
	assert.Contains(t, rec.Body.String(), "500ms")

	assert.Equal(t, http.StatusBadRequest, do(srv, http.MethodGet, "/tooltip?x=1", nil).Code)
}

func TestAPIView(t *testing.T) {
	srv, _, _ := newReadyServer(t)

	rec := do(srv, http.MethodGet, "/api/view", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		View    domain.ViewState `json:"view"`
		Version uint64           `json:"version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, domain.ActualPrecipitation, res.View.Variable)
	assert.Equal(t, day(1), res.View.Start)
	assert.Equal(t, day(3), res.View.End)
	assert.Equal(t, uint64(1), res.Version)
}
