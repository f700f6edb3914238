package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/zexario/zexario-backend/pkg/respond"
)

// CORSConfig configures the CORS middleware behaviour.
type CORSConfig struct {
	// AllowOrigins is the exact-match origin allow-list. Requests carrying an
	// Origin header outside this list are rejected; requests without an
	// Origin header are always let through.
	AllowOrigins []string

	// AllowMethods lists the HTTP methods announced on preflight responses.
	// Defaults to "GET, POST, PUT, DELETE, OPTIONS" when empty.
	AllowMethods []string

	// AllowHeaders lists the request headers announced on preflight responses.
	AllowHeaders []string

	// MaxAge indicates how long (in seconds) preflight results can be cached.
	// A zero value omits the header.
	MaxAge int

	// RejectStatus is the status written for disallowed origins.
	// Defaults to 403.
	RejectStatus int
}

// RejectMessage is the body message sent to disallowed origins.
const RejectMessage = "Not allowed by CORS"

// CORS returns a middleware enforcing an origin allow-list.
//
// Every OPTIONS request is treated as a preflight and answered here with 204
// once the origin passes; it never reaches the router. Origins are compared
// exactly, so "https://zexario.com" does not admit "https://ZEXARIO.com" or
// "https://zexario.com/".
func CORS(cfg CORSConfig) Middleware {
	allowed := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		allowed[o] = struct{}{}
	}

	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	if allowMethods == "" {
		allowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")

	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	rejectStatus := cfg.RejectStatus
	if rejectStatus == 0 {
		rejectStatus = http.StatusForbidden
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")

			if origin != "" {
				if _, ok := allowed[origin]; !ok {
					zctx.From(r.Context()).Warn("Origin rejected",
						zap.String("origin", origin),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
					)
					respond.Message(w, rejectStatus, RejectMessage)
					return
				}
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Access-Control-Request-Headers")
			w.Header().Set("Access-Control-Allow-Methods", allowMethods)
			if allowHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			}
			if maxAge != "" {
				w.Header().Set("Access-Control-Max-Age", maxAge)
			}
			w.Header().Set("Content-Length", "0")
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
