package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/xavierca1/leadflow/internal/infra/http/handlers"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
)

type routes struct {
	lead         *handlers.LeadHandler
	webhook      *handlers.WebhookHandler
	auth         *handlers.AuthHandler
	checkout     *handlers.CheckoutHandler
	subscription *handlers.SubscriptionHandler
	agents       *handlers.AgentHandler
	leadLogs     *handlers.LeadLogHandler
	rules        *handlers.RulesHandler
	events       *handlers.EventsHandler
	health       *handlers.HealthHandler
	gate         *middleware.Gate
}

func newRouter(rt routes, allowedOrigins []string, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handlers.CredentialHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", rt.health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	// webhooks carry their own credentials
	r.Post("/api/incoming-lead", rt.lead.Handle)
	r.Post("/api/paymob/callback", rt.webhook.Handle)

	r.Post("/api/signup", rt.auth.HandleSignup)
	r.Post("/api/auth/login", rt.auth.HandleLogin)
	r.Post("/api/auth/logout", rt.auth.HandleLogout)

	r.Group(func(r chi.Router) {
		r.Use(rt.gate.RequireSession)
		r.Get("/billing", rt.subscription.HandleGetStatus)
		r.Post("/api/paymob/checkout", rt.checkout.Handle)
	})

	r.Group(func(r chi.Router) {
		r.Use(rt.gate.RequireSubscription)
		r.Get("/", rt.leadLogs.HandleDashboard)
		r.Get("/api/company", rt.leadLogs.HandleCompany)

		r.Get("/api/agents", rt.agents.HandleList)
		r.Post("/api/agents", rt.agents.HandleAdd)
		r.Put("/api/agents/order", rt.agents.HandleReorder)
		r.Delete("/api/agents/{id}", rt.agents.HandleRemove)

		r.Get("/api/leads", rt.leadLogs.HandleList)

		r.Get("/api/rules", rt.rules.HandleGet)
		r.Put("/api/rules", rt.rules.HandleUpdate)

		r.Get("/api/events", rt.events.Handle)
	})

	return otelhttp.NewHandler(r, "leadflow.http")
}
