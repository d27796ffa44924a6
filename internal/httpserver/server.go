// internal/httpserver/server.go
//
// HTTP server wiring for the Deal Detective backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, JSON panic recovery, timeouts, CORS).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Game endpoints: GET /api/properties, POST /api/submit.
//   - Lifecycle: serve until the context is cancelled, then shut down gracefully.
//
// Notes:
//   - CORS is open to any origin by default (CORS_ORIGINS narrows it).
//   - OPTIONS on a game endpoint answers 200 with an empty body; any other
//     unsupported method answers 405 with a JSON error.
//   - The catalog is read through a Holder; each request works on one snapshot.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/catalog"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/metrics"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/properties"
)

const shutdownTimeout = 5 * time.Second

// PropertyLister produces the public catalog view.
type PropertyLister interface {
	ListPublicFrom(ctx context.Context, c *catalog.Catalog) ([]properties.PublicProperty, error)
}

// Options tunes the middleware stack.
type Options struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
	Logger         *zerolog.Logger // nil means the global logger
}

// Server bundles the router and its dependencies.
type Server struct {
	r        *chi.Mux
	catalogs *catalog.Holder
	lister   PropertyLister
}

// New constructs a Server, installs middleware, and registers routes.
func New(catalogs *catalog.Holder, lister PropertyLister, opts Options) *Server {
	s := &Server{r: chi.NewRouter(), catalogs: catalogs, lister: lister}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)               // add X-Request-ID
	s.r.Use(chimw.RealIP)                  // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(logger))       // per-request logger
	s.r.Use(requestIDLogger)               // tag logs with the request id
	s.r.Use(hlog.AccessHandler(accessLog)) // one line per request
	s.r.Use(recoverer)                     // panics become a JSON 500
	s.r.Use(chimw.Timeout(timeout))        // bound handler time

	// open CORS for the browser client
	s.r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	// --- diagnostics ---
	s.r.Handle("/metrics", metrics.Handler())

	s.r.Group(func(r chi.Router) {
		r.Use(jsonContentType)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"deal-detective-go","endpoints":["/health","/metrics","GET /api/properties","POST /api/submit"]}`))
		})
		r.Get("/health", s.handleHealth)

		// Game endpoints
		r.Route("/api", func(r chi.Router) {
			r.Get("/properties", s.handleProperties)
			r.Options("/properties", handlePreflight)
			r.Post("/submit", s.handleSubmit)
			r.Options("/submit", handlePreflight)
		})

		// JSON 404/405 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, r, http.StatusNotFound, errorBody{Error: "Not found", Code: "not_found", RequestID: chimw.GetReqID(r.Context())})
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, r, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed", Code: "method_not_allowed", RequestID: chimw.GetReqID(r.Context())})
		})
	})

	return s
}

// Run serves HTTP on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("http server shutting down")
		return srv.Shutdown(shCtx)
	})
	return g.Wait()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// requestIDLogger copies chi's request id into the request logger.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			l := zerolog.Ctx(r.Context())
			l.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

// recoverer turns a handler panic into the standard JSON 500 and logs the
// stack on the request logger. http.ErrAbortHandler is re-raised.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			hlog.FromRequest(r).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("handler panic")
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			writeJSON(w, r, http.StatusInternalServerError, errorBody{
				Error:     "Internal server error",
				Code:      "internal",
				RequestID: chimw.GetReqID(r.Context()),
			})
		}()
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one line per request.
func accessLog(r *http.Request, status, size int, duration time.Duration) {
	ev := hlog.FromRequest(r).Info()
	if status >= http.StatusInternalServerError {
		ev = hlog.FromRequest(r).Error()
	}
	ev.Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

// handlePreflight answers OPTIONS with 200 and no body.
func handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
