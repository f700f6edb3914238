package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOrigins = []string{
	"https://zexario-frontend.onrender.com",
	"https://www.zexario.com",
	"https://zexario.com",
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// countingHandler counts how often the wrapped route logic actually ran.
type countingHandler struct {
	calls int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.calls++
	w.WriteHeader(http.StatusOK)
}

func testCORS() Middleware {
	return CORS(CORSConfig{
		AllowOrigins: testOrigins,
		AllowHeaders: []string{"Content-Type"},
	})
}

func TestCORS_NoOrigin(t *testing.T) {
	next := &countingHandler{}
	handler := testCORS()(next)

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, next.calls)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AllowedOrigins(t *testing.T) {
	for _, origin := range testOrigins {
		t.Run(origin, func(t *testing.T) {
			next := &countingHandler{}
			handler := testCORS()(next)

			req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
			req.Header.Set("Origin", origin)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, 1, next.calls)
			assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, w.Header().Values("Vary"), "Origin")
		})
	}
}

func TestCORS_RejectedOrigins(t *testing.T) {
	for _, origin := range []string{
		"https://evil.example.com",
		"http://zexario.com",
		"https://zexario.com/",
		"https://ZEXARIO.com",
		"https://shop.zexario.com",
		"null",
	} {
		t.Run(origin, func(t *testing.T) {
			next := &countingHandler{}
			handler := testCORS()(next)

			req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
			req.Header.Set("Origin", origin)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Equal(t, 0, next.calls, "route logic must not run")
			assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, RejectMessage, body["message"])
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	next := &countingHandler{}
	handler := testCORS()(next)

	req := httptest.NewRequest(http.MethodOptions, "/checkout", nil)
	req.Header.Set("Origin", "https://www.zexario.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, next.calls, "preflight never reaches the router")
	assert.Equal(t, "https://www.zexario.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Empty(t, w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_PreflightAnyPath(t *testing.T) {
	handler := testCORS()(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/does/not/exist", nil)
	req.Header.Set("Origin", "https://zexario.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://zexario.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightWithoutOrigin(t *testing.T) {
	next := &countingHandler{}
	handler := testCORS()(next)

	req := httptest.NewRequest(http.MethodOptions, "/checkout", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, next.calls)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORS_PreflightRejectedOrigin(t *testing.T) {
	handler := testCORS()(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/checkout", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORS_CustomConfig(t *testing.T) {
	handler := CORS(CORSConfig{
		AllowOrigins: []string{"https://zexario.com"},
		AllowMethods: []string{"POST"},
		MaxAge:       600,
		RejectStatus: http.StatusInternalServerError,
	})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/checkout", nil)
	req.Header.Set("Origin", "https://zexario.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "POST", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Headers"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://other.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
