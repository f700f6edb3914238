package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zexario/zexario-backend/internal/handler"
	"github.com/zexario/zexario-backend/pkg/health"
	"github.com/zexario/zexario-backend/pkg/httpmiddleware"
)

// allowedOrigins are the only browser origins allowed to call the API.
var allowedOrigins = []string{
	"https://zexario-frontend.onrender.com",
	"https://www.zexario.com",
	"https://zexario.com",
}

// NewRouter mounts every route behind the shared middleware chain. CORS runs
// before routing, so preflights and rejected origins never reach a handler.
func NewRouter(lg *zap.Logger, h *handler.Handler, hc *health.Health) http.Handler {
	r := chi.NewRouter()
	r.Use(
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.RequestID(),
		httpmiddleware.LogRequests(),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins: allowedOrigins,
			AllowHeaders: []string{"Content-Type"},
		}),
		httpmiddleware.Labeler(),
	)

	r.Get("/", h.Root)
	r.Post("/checkout", h.Checkout)
	r.Method(http.MethodGet, "/livez", hc.Live)
	r.Method(http.MethodGet, "/readyz", hc.Ready)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
