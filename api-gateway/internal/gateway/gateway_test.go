package gateway

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelKingofcodes/project-ppdm/shared/middleware"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

func newUpstream(t *testing.T, name string, got *[]recordedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*got = append(*got, recordedRequest{method: r.Method, path: r.URL.Path, body: string(b)})
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", name)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"from":"` + name + `"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(accountURL, productURL string) Config {
	return Config{
		AccountServiceURL: accountURL,
		ProductServiceURL: productURL,
		MaxBodyBytes:      64,
		UpstreamTimeout:   time.Second,
		StrictLimit:       middleware.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2},
		LenientLimit:      middleware.RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100},
	}
}

func newTestRouter(t *testing.T, cfg Config) *gin.Engine {
	t.Helper()
	router, err := NewRouter(cfg)
	require.NoError(t, err)
	return router
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProxyRoutesToServices(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var accountReqs, productReqs []recordedRequest
	account := newUpstream(t, "account", &accountReqs)
	product := newUpstream(t, "product", &productReqs)
	router := newTestRouter(t, testConfig(account.URL, product.URL))

	w := do(router, http.MethodPost, "/register", `{"name":"Ana"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "account", w.Header().Get("X-Upstream"))
	assert.JSONEq(t, `{"from":"account"}`, w.Body.String())

	w = do(router, http.MethodGet, "/products", "")
	assert.Equal(t, "product", w.Header().Get("X-Upstream"))

	require.Len(t, accountReqs, 1)
	assert.Equal(t, recordedRequest{method: http.MethodPost, path: "/register", body: `{"name":"Ana"}`}, accountReqs[0])
	require.Len(t, productReqs, 1)
	assert.Equal(t, "/products", productReqs[0].path)
}

func TestStrictRoutesAreRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var reqs []recordedRequest
	account := newUpstream(t, "account", &reqs)
	router := newTestRouter(t, testConfig(account.URL, account.URL))

	assert.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/login", `{}`).Code)
	assert.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/check-email", `{}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(router, http.MethodPost, "/reset-password", `{}`).Code)
	assert.Len(t, reqs, 2)

	assert.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/register", `{}`).Code)
}

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var reqs []recordedRequest
	account := newUpstream(t, "account", &reqs)
	router := newTestRouter(t, testConfig(account.URL, account.URL))

	w := do(router, http.MethodPost, "/upload", string(bytes.Repeat([]byte("x"), 65)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, reqs)
}

func TestUpstreamDownIsBadGateway(t *testing.T) {
	gin.SetMode(gin.TestMode)
	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()

	router := newTestRouter(t, testConfig(url, url))
	w := do(router, http.MethodGet, "/image/1", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestStrictLimitIgnoresForwardedFor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var forwarded []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded = append(forwarded, r.Header.Get("X-Forwarded-For"))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(upstream.Close)
	router := newTestRouter(t, testConfig(upstream.URL, upstream.URL))

	limited := 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			limited++
		}
	}

	assert.Equal(t, 8, limited)
	require.Len(t, forwarded, 2)
	for _, ip := range forwarded {
		assert.Equal(t, "203.0.113.7", ip)
	}
}

func TestTrustedProxyForwardedForIsHonored(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var reqs []recordedRequest
	account := newUpstream(t, "account", &reqs)
	cfg := testConfig(account.URL, account.URL)
	cfg.TrustedProxies = []string{"203.0.113.7"}
	router := newTestRouter(t, cfg)

	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}

func TestNewRouterRejectsBadProxy(t *testing.T) {
	cfg := testConfig("http://a", "http://b")
	cfg.TrustedProxies = []string{"not-an-ip"}
	_, err := NewRouter(cfg)
	assert.Error(t, err)
}
