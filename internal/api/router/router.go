package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/elroble/vendibot/internal/catalog"
	"github.com/elroble/vendibot/internal/channels/whatsapp"
	httpmiddleware "github.com/elroble/vendibot/internal/http/middleware"
	"github.com/elroble/vendibot/internal/orders"
	"github.com/elroble/vendibot/internal/webchat"
	"github.com/elroble/vendibot/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	CatalogHandler  *catalog.Handler
	OrdersHandler   *orders.Handler
	WhatsAppAdapter *whatsapp.Adapter
	WebchatHandler  *webchat.Handler
	MetricsHandler  http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string
	WebhookRateLimit   float64
	WebhookRateBurst   int
}

// New creates the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: webhooks, webchat, health.
	r.Group(func(public chi.Router) {
		public.Get("/health", handleHealth)

		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		if cfg.WhatsAppAdapter != nil {
			rate, burst := cfg.WebhookRateLimit, cfg.WebhookRateBurst
			if rate <= 0 {
				rate = 10
			}
			if burst <= 0 {
				burst = 30
			}
			public.Route("/webhooks/whatsapp", func(wh chi.Router) {
				wh.Use(httpmiddleware.RateLimit(rate, burst))
				wh.Get("/", cfg.WhatsAppAdapter.HandleVerification)
				wh.Post("/", cfg.WhatsAppAdapter.HandleWebhook)
			})
		}

		if cfg.WebchatHandler != nil {
			public.Route("/webchat", func(wc chi.Router) {
				wc.Get("/ws", cfg.WebchatHandler.HandleWebSocket)
				wc.Post("/message", cfg.WebchatHandler.HandleMessage)
				wc.Get("/history", cfg.WebchatHandler.HandleHistory)
			})
		}
	})

	// Admin API: catalog and order management, JWT protected.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

		if cfg.CatalogHandler != nil {
			admin.Route("/products", func(p chi.Router) {
				p.Get("/", cfg.CatalogHandler.List)
				p.Post("/", cfg.CatalogHandler.Create)
				p.Get("/{id}", cfg.CatalogHandler.Get)
				p.Delete("/{id}", cfg.CatalogHandler.Delete)
				p.Post("/{id}/variants", cfg.CatalogHandler.AddVariant)
				p.Post("/{id}/images", cfg.CatalogHandler.AddImage)
			})
		}

		if cfg.OrdersHandler != nil {
			admin.Route("/orders", func(o chi.Router) {
				o.Get("/", cfg.OrdersHandler.List)
				o.Get("/{id}", cfg.OrdersHandler.Get)
				o.Delete("/{id}", cfg.OrdersHandler.Delete)
			})
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
