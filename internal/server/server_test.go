package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rhinoview/internal/compute"
	"rhinoview/internal/logging"
)

type fakeEvaluator struct {
	mu    sync.Mutex
	reqs  []*compute.EvaluationRequest
	body  []byte
	err   error
	alive error
}

func (f *fakeEvaluator) EvaluateRaw(ctx context.Context, req *compute.EvaluationRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.body, f.err
}

func (f *fakeEvaluator) Healthy(ctx context.Context) error { return f.alive }

func (f *fakeEvaluator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

var spikyInputs = []Input{{Query: "frequency", Param: "Frequency"}, {Query: "size", Param: "Size"}}

const spikyBody = `{"values":[{"ParamName":"RH_OUT:mesh","InnerTree":{"{0}":[{"type":"System.String","data":"\"abc\""}]}}]}`

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestCompute_ProxiesRawJSON(t *testing.T) {
	eval := &fakeEvaluator{body: []byte(spikyBody)}
	h := New(eval, compute.PointerDefinition("spiky_thing.gh"), spikyInputs).Handler()

	rec := get(t, h, "/compute?frequency=4&size=12.5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, spikyBody, rec.Body.String())

	require.Equal(t, 1, eval.calls())
	req := eval.reqs[0]
	assert.Equal(t, "spiky_thing.gh", req.Pointer)
	require.Len(t, req.Values, 2)
	assert.Equal(t, "Frequency", req.Values[0].ParamName)
	assert.Equal(t, "4", req.Values[0].InnerTree.Branch("{0}")[0].Data)
	assert.Equal(t, "Size", req.Values[1].ParamName)
	assert.Equal(t, "12.5", req.Values[1].InnerTree.Branch("{0}")[0].Data)
}

func TestCompute_BadQuery(t *testing.T) {
	eval := &fakeEvaluator{body: []byte(spikyBody)}
	h := New(eval, nil, spikyInputs).Handler()

	rec := get(t, h, "/compute?frequency=4")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"size"`)

	rec = get(t, h, "/compute?frequency=four&size=1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, eval.calls())
}

func TestCompute_BackendErrors(t *testing.T) {
	cases := map[string]struct {
		err  error
		code int
	}{
		"unavailable": {err: compute.ErrServiceUnavailable, code: http.StatusBadGateway},
		"rejected":    {err: &compute.APIError{StatusCode: 400, Body: "bad definition"}, code: http.StatusBadGateway},
		"other":       {err: io.ErrUnexpectedEOF, code: http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := New(&fakeEvaluator{err: tc.err}, nil, spikyInputs).Handler()
			rec := get(t, h, "/compute?frequency=1&size=1")
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestCompute_RedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	cache := NewRedisCacheFromClient(client, WithTTL(time.Minute))
	defer cache.Close()
	require.NoError(t, cache.Ping(context.Background()))

	eval := &fakeEvaluator{body: []byte(spikyBody)}
	h := New(eval, nil, spikyInputs, WithCache(cache)).Handler()

	first := get(t, h, "/compute?frequency=2&size=3")
	second := get(t, h, "/compute?frequency=2&size=3")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, eval.calls())

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "rhinoview:compute:"))
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))

	get(t, h, "/compute?frequency=2&size=4")
	assert.Equal(t, 2, eval.calls())

	metrics := get(t, h, "/metrics").Body.String()
	assert.Contains(t, metrics, `rhinoview_compute_cache_total{result="hit"} 1`)
	assert.Contains(t, metrics, `rhinoview_compute_cache_total{result="miss"} 2`)
}

func TestRedisCache_Miss(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewRedisCache(mr.Addr(), "", 0, WithPrefix("t:"))
	defer cache.Close()

	_, ok, err := cache.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(context.Background(), "k", []byte("v")))
	got, ok, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.True(t, mr.Exists("t:k"))
}

func TestRequestKey_Stable(t *testing.T) {
	c := compute.NewCollector("A", "B")
	r1, err := c.BuildRequest(nil, map[string]float64{"A": 1, "B": 2})
	require.NoError(t, err)
	r2, err := c.BuildRequest(nil, map[string]float64{"B": 2, "A": 1})
	require.NoError(t, err)
	r3, err := c.BuildRequest(nil, map[string]float64{"A": 2, "B": 1})
	require.NoError(t, err)

	k1, _ := RequestKey(r1)
	k2, _ := RequestKey(r2)
	k3, _ := RequestKey(r3)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestHealthz(t *testing.T) {
	eval := &fakeEvaluator{}
	h := New(eval, nil, spikyInputs).Handler()
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)

	eval.alive = compute.ErrServiceUnavailable
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/healthz").Code)
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>sliders</h1>"), 0o644))
	h := New(&fakeEvaluator{}, nil, spikyInputs, WithStaticDir(dir)).Handler()

	rec := get(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sliders")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/missing.js").Code)
}

func TestMetrics_CountsRequests(t *testing.T) {
	h := New(&fakeEvaluator{body: []byte(spikyBody)}, nil, spikyInputs).Handler()
	get(t, h, "/compute?frequency=1&size=1")
	get(t, h, "/compute?frequency=1")

	body := get(t, h, "/metrics").Body.String()
	assert.Contains(t, body, `rhinoview_http_requests_total{code="200",route="/compute"} 1`)
	assert.Contains(t, body, `rhinoview_http_requests_total{code="400",route="/compute"} 1`)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler(), logging.NewNop())
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
