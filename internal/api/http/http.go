package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/jekabolt/grbpwr-catalog/internal/dependency"
	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	gerr "github.com/jekabolt/grbpwr-catalog/internal/errors"
	"github.com/jekabolt/grbpwr-catalog/internal/middleware"
	"github.com/jekabolt/grbpwr-catalog/internal/ratelimit"
	"github.com/jekabolt/grbpwr-catalog/internal/search"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultRequestTimeout = 30 * time.Second

// Config is the configuration for the http server
type Config struct {
	Port           string   `mapstructure:"port"`
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RequestTimeout string   `mapstructure:"request_timeout"`
}

func (c *Config) requestTimeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return defaultRequestTimeout
	}
	return d
}

// Searcher runs catalog searches and facet computations.
type Searcher interface {
	Search(ctx context.Context, req search.SearchRequest) (*search.SearchResult, error)
	Facets(ctx context.Context, req search.FacetRequest) ([]entity.FacetGroup, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the http server
type Server struct {
	hs       *http.Server
	c        *Config
	searcher Searcher
	admin    dependency.FilterAdmin
	pinger   Pinger
	auth     *jwtauth.JWTAuth
	limits   *ratelimit.MultiKeyLimiter
	perIP    int
	done     chan struct{}
}

// New creates a new server. perIPPerMinute limits every public route per client
// IP; zero disables it.
func New(c *Config,
	searcher Searcher,
	admin dependency.FilterAdmin,
	pinger Pinger,
	auth *jwtauth.JWTAuth,
	limits *ratelimit.MultiKeyLimiter,
	perIPPerMinute int,
) *Server {
	return &Server{
		c:        c,
		searcher: searcher,
		admin:    admin,
		pinger:   pinger,
		auth:     auth,
		limits:   limits,
		perIP:    perIPPerMinute,
		done:     make(chan struct{}),
	}
}

// Done returns a channel that is closed when the http server exits
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Router builds the full api handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.ClientIdentifier)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(s.c.requestTimeout()))
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return isOriginAllowed(origin, s.c.AllowedOrigins)
		},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-RateLimit-Remaining"},
		MaxAge:         300,
	}))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/frontend", func(r chi.Router) {
		if s.perIP > 0 {
			r.Use(httprate.Limit(s.perIP, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					renderErr(w, r, fmt.Errorf("%w: per ip", gerr.ErrRateLimited))
				}),
			))
		}
		searchLimit := middleware.Limit(s.limits, ratelimit.OpSearch, renderErr)
		facetLimit := middleware.Limit(s.limits, ratelimit.OpFacets, renderErr)

		r.With(searchLimit).Get("/products", s.searchProducts)
		r.With(facetLimit).Get("/filters", s.searchFilters)
		r.With(searchLimit).Get("/categories/{slug}/products", s.categoryProducts)
		r.With(facetLimit).Get("/categories/{slug}/filters", s.categoryFilters)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(jwtauth.Verifier(s.auth))
		r.Use(jwtauth.Authenticator)

		r.Get("/filters", s.listFilters)
		r.Post("/filters", s.addFilter)
		r.Get("/filters/{id}", s.getFilter)
		r.Put("/filters/{id}", s.updateFilter)
		r.Delete("/filters/{id}", s.deleteFilter)
		r.Put("/filters/{id}/options", s.setFilterOptions)

		r.Get("/filter-groups", s.listGroups)
		r.Post("/filter-groups", s.addGroup)
		r.Delete("/filter-groups/{id}", s.deleteGroup)

		r.Put("/categories/{slug}/filters", s.setCategoryFilters)
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.pinger.Ping(r.Context()); err != nil {
		slog.Default().ErrorContext(r.Context(), "health check failed", slog.String("err", err.Error()))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"status": "unavailable"})
		return
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// Start starts listening in the background.
func (s *Server) Start(ctx context.Context) error {
	listenerAddr := fmt.Sprintf("%s:%s", s.c.Address, s.c.Port)
	s.hs = &http.Server{
		Addr:              listenerAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer close(s.done)
		slog.Default().InfoContext(ctx, "catalog api listening", slog.String("addr", "http://"+listenerAddr))
		err := s.hs.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			slog.Default().InfoContext(ctx, "http server returned")
			return
		}
		slog.Default().ErrorContext(ctx, "http server exited with an error", slog.String("err", err.Error()))
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.hs == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.hs.Shutdown(ctx)
}

func isOriginAllowed(origin string, allowedOrigins []string) bool {
	// Always allow localhost origins
	if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "https://localhost:") {
		return true
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}
