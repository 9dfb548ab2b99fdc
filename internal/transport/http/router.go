package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"healthrisk/internal/platform/metrics"
	"healthrisk/internal/platform/middleware"
	"healthrisk/internal/profile/handler"
	"healthrisk/pkg/platform/httputil"
	"healthrisk/pkg/platform/middleware/metadata"
	"healthrisk/pkg/platform/middleware/requesttime"
	"healthrisk/web"
)

// RouterConfig carries the cross-cutting pieces of the HTTP surface.
// Nil fields disable the corresponding middleware.
type RouterConfig struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	CORS         middleware.CORSConfig
	MaxBodyBytes int64
	RateLimiter  *middleware.IPRateLimiter
}

// NewRouter wires the public endpoints. Handlers delegate to the profile service
// without embedding business logic.
func NewRouter(profile *handler.Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))
	}

	r.Get("/", handleSimulator)
	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Gatherer))

	var analyzeMiddleware []func(http.Handler) http.Handler
	if cfg.RateLimiter != nil {
		analyzeMiddleware = append(analyzeMiddleware, cfg.RateLimiter.Middleware)
	}
	profile.Register(r, analyzeMiddleware...)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleSimulator(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(web.SimulatorHTML)
}
