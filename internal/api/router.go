package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/remember-me/care-monitor/internal/api/handlers"
	"github.com/remember-me/care-monitor/internal/auth"
	"github.com/remember-me/care-monitor/internal/monitoring"
	"github.com/remember-me/care-monitor/internal/services"
	"github.com/remember-me/care-monitor/internal/websocket"
)

// Options configures the router.
type Options struct {
	AllowedOrigins    []string
	DeviceTokenSecret string // Empty leaves POST /events open
	WebsocketURL      string // Advertised in the banner
}

// NewRouter creates and configures a new Chi router.
func NewRouter(hub *websocket.Hub, eventService services.CareEventServiceProvider, health *monitoring.HealthChecker, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(eventService)
	summaryHandler := handlers.NewSummaryHandler(eventService)
	dashboardHandler := handlers.NewDashboardHandler(opts.WebsocketURL)
	healthHandler := handlers.NewHealthHandler(health)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r.Get("/", dashboardHandler.Home)
	r.Get("/health", healthHandler.Get)
	r.Get("/ws", wsHandler.Serve)

	r.Get("/events", eventHandler.GetAll)
	r.With(auth.DeviceMiddleware(opts.DeviceTokenSecret)).Post("/events", eventHandler.Create)
	r.Post("/summary", summaryHandler.Create)

	// Mock dashboard payloads
	r.Get("/patients", dashboardHandler.Patients)
	r.Get("/care-events", dashboardHandler.CareEvents)

	return r
}
