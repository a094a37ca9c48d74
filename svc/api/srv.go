package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"

	"github.com/viralburst/pastebin/cfg"
	"github.com/viralburst/pastebin/svc/analytics"
	"github.com/viralburst/pastebin/svc/lim"
	"github.com/viralburst/pastebin/svc/store"
	"github.com/viralburst/pastebin/svc/svc"
	"github.com/viralburst/pastebin/svc/util"
)

type Server struct {
	router     *chi.Mux
	cfg        *cfg.Cfg
	store      store.Store
	httpServer *http.Server
}

func NewServer(c *cfg.Cfg, creator *svc.Creator, retriever *svc.Retriever, tracker analytics.Tracker, l *lim.Limiter, st store.Store) *Server {
	r := chi.NewRouter()
	mw := NewMw(l, c)
	s := &Server{
		router: r,
		cfg:    c,
		store:  st,
		httpServer: &http.Server{
			Addr:           ":" + c.Port,
			Handler:        r,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 256 * 1024,
		},
	}
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Get("/health", s.Health)
		r.Get("/ready", s.Ready)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Handle("/metrics", mw.BasicAuthMetrics(promhttp.Handler()))
	})
	r.Mount("/debug", middleware.Profiler())

	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Use(mw.RequestID)
		r.Use(hlog.NewHandler(util.GetLogger()))
		r.Use(hlog.AccessHandler(func(req *http.Request, status, size int, dur time.Duration) {
			hlog.FromRequest(req).Info().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Int("status", status).
				Int("size", size).
				Dur("duration", dur).
				Str("request_id", util.RequestID(req.Context())).
				Msg("http request")
		}))
		if len(c.TrustedProxies) > 0 {
			r.Use(middleware.RealIP)
		}
		r.Use(mw.ContextTimeout)
		r.Use(mw.SecurityHeaders)
		r.Use(mw.CORS)
		r.Use(mw.Observe)
		hdl := &Hdl{creator: creator, retriever: retriever, tracker: tracker, cfg: c}
		r.Group(func(r chi.Router) {
			r.Use(mw.JSONContentType)
			r.With(mw.RateLimitCreate).Post("/pastes", hdl.CreatePaste)
			r.With(mw.RateLimitRead).Get("/pastes/{id}", hdl.GetPaste)
			r.With(mw.RateLimitRead).Get("/pastes/{id}/meta", hdl.GetMeta)
			r.With(mw.RateLimitRead).Get("/pastes/{id}/preview", hdl.GetPreview)
			r.With(mw.RateLimitDelete).Delete("/pastes/{id}", hdl.DeletePaste)
			r.With(mw.RateLimitRead).Get("/config/expiry-options", hdl.GetExpiryOptions)
			r.With(mw.RateLimitRead).Get("/stats", hdl.GetStats)
		})
		// QR returns a PNG, so it sits outside the JSON content-type group
		r.With(mw.RateLimitRead).Get("/pastes/{id}/qr", hdl.GetQR)
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Start() error {
	util.Info().Str("port", s.cfg.Port).Msg("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		util.Error().Err(err).Str("port", s.cfg.Port).Msg("server failed to start")
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
