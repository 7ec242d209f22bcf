package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/fitcoachhq/lead-funnel-go/internal/auth"
	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/fitcoachhq/lead-funnel-go/internal/funnel"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/observability"
	"github.com/fitcoachhq/lead-funnel-go/internal/leads"
	"github.com/fitcoachhq/lead-funnel-go/internal/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Deps bundles everything the router needs.
type Deps struct {
	Chat     *funnel.ConversationService
	Leads    *leads.Service
	Profiles port.ProfileRepository
	Auth     *auth.AdminService
	Metrics  *observability.Metrics
	Logger   *zap.Logger
	// AllowedOrigins lists the sites embedding the chat widget.
	AllowedOrigins []string
}

// NewRouter creates the HTTP router with all routes and middleware.
// The widget endpoints are public; the admin dashboard sits behind JWT.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(observability.ZapLoggerMiddleware(d.Logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Profiles, d.Logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Conversation widget
		r.Route("/chat/sessions", func(r chi.Router) {
			r.Post("/", startSessionHandler(d.Chat, d.Logger))
			r.Post("/{sessionId}/messages", postMessageHandler(d.Chat, d.Logger))
			r.Post("/{sessionId}/actions", postActionHandler(d.Chat, d.Logger))
			r.Post("/{sessionId}/reset", resetSessionHandler(d.Chat, d.Logger))
			r.Delete("/{sessionId}", closeSessionHandler(d.Chat))
		})

		// Visitor profile & scoring
		r.Get("/visitors/{visitorId}/profile", getVisitorProfileHandler(d.Profiles, d.Logger))
		r.Delete("/visitors/{visitorId}/profile", resetVisitorProfileHandler(d.Profiles, d.Logger))
		r.Get("/visitors/{visitorId}/icp", getVisitorICPHandler(d.Profiles, d.Logger))

		// Lead capture
		if d.Leads != nil {
			r.Post("/leads", captureLeadHandler(d.Leads, d.Logger))
		} else {
			r.Post("/leads", func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "lead capture is not configured")
			})
		}

		// Metrics snapshot for the dashboard
		r.Get("/metrics/funnel", funnelMetricsHandler(d.Metrics))

		// Admin dashboard
		r.Route("/admin", func(r chi.Router) {
			if d.Auth == nil {
				r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusServiceUnavailable, "admin access is not configured")
				}))
				return
			}
			r.Post("/login", adminLoginHandler(d.Auth, d.Logger))

			r.Group(func(r chi.Router) {
				r.Use(AdminAuthMiddleware(d.Auth, d.Logger))
				if d.Leads != nil {
					r.Get("/leads", adminListLeadsHandler(d.Leads, d.Logger))
				}
			})
		})
	})

	return r
}

// ============================================================
// Health
// ============================================================

func healthzHandler(profiles port.ProfileRepository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "funnel-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if profiles != nil {
			start := time.Now()
			_, err := profiles.Load(ctx, "health-check")
			latency := time.Since(start).Milliseconds()

			status := "healthy"
			var notFound *domain.ErrNotFound
			// An unknown visitor is the expected answer; anything else
			// means the datastore is struggling.
			if err != nil && !errors.As(err, &notFound) {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "datastore", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overall = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func funnelMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetFunnelSnapshot())
	}
}
