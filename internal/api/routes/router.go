package routes

import (
	"net/http"

	"github.com/skylane/flightsearch/backend/internal/api/handlers"
	"github.com/skylane/flightsearch/backend/internal/api/middleware"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler     *handlers.SearchHandler
	indicativeHandler *handlers.IndicativeHandler
	placesHandler     *handlers.PlacesHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	searchHandler *handlers.SearchHandler,
	indicativeHandler *handlers.IndicativeHandler,
	placesHandler *handlers.PlacesHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		searchHandler:     searchHandler,
		indicativeHandler: indicativeHandler,
		placesHandler:     placesHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Search endpoints
	r.mux.HandleFunc("POST /api/search", r.searchHandler.RunSearch)
	r.mux.HandleFunc("GET /api/search/{token}/itineraries", r.searchHandler.FilterItineraries)

	// Indicative price endpoints
	r.mux.HandleFunc("GET /api/indicative", r.indicativeHandler.GetQuotes)

	// Place lookup endpoints
	r.mux.HandleFunc("GET /api/places", r.placesHandler.Lookup)
	r.mux.HandleFunc("GET /api/places/{id}", r.placesHandler.GetByID)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
