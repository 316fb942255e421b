package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jaminalder/tictactoe-engine/internal/app"
)

type options struct {
	log       zerolog.Logger
	heartbeat time.Duration
}

// Option configures the HTTP server.
type Option func(*options)

// WithLogger sets the access and stream logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithHeartbeat sets the SSE and websocket keepalive interval.
func WithHeartbeat(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.heartbeat = d
		}
	}
}

// NewServer wires routes and returns an http.Handler. It installs the JSON
// state renderer on s for websocket broadcasts.
func NewServer(s *app.Service, opts ...Option) http.Handler {
	cfg := options{log: zerolog.Nop(), heartbeat: 15 * time.Second}
	for _, o := range opts {
		o(&cfg)
	}
	s.SetRenderer(renderState)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(cfg.log))
	r.Use(middleware.Recoverer)

	h := &handlers{svc: s, tpl: loadTemplates(), cfg: cfg}
	r.Get("/", h.index)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Use(requireID(http.NotFound))
		r.Get("/", h.view)
		r.Post("/join", h.join)
		r.Post("/play", h.play)
		r.Post("/reset", h.reset)
		r.Get("/events", h.events)
		r.Get("/ws", h.socket)
	})
	r.Route("/api/games", func(r chi.Router) {
		r.Post("/", h.apiCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(requireID(func(w http.ResponseWriter, r *http.Request) {
				writeAPIError(w, app.ErrNotFound, nil)
			}))
			r.Get("/", h.apiGet)
			r.Delete("/", h.apiDelete)
			r.Post("/move", h.apiMove)
			r.Post("/symbol", h.apiSymbol)
		})
	})
	return r
}

// requireID answers with notFound when the {id} route parameter is not a
// well-formed session id, before any service lookup.
func requireID(notFound http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !app.ValidID(chi.URLParam(r, "id")) {
				notFound(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog logs one line per request with the status and size written.
func accessLog(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("dur", time.Since(start)).
				Msg("http")
		})
	}
}
