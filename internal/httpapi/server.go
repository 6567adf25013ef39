package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orgball2608/hashtag-discovery/internal/auth"
	"github.com/orgball2608/hashtag-discovery/internal/ingest"
	"github.com/orgball2608/hashtag-discovery/internal/ratelimit"
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	LC      fx.Lifecycle
	Config  *config.Config
	Logger  logger.Logger
	Ingest  ingest.Service
	Auth    auth.Service
	Limiter ratelimit.Limiter
}

// Server owns the HTTP listener. It starts and stops with the fx lifecycle.
type Server struct {
	srv    *http.Server
	logger logger.Logger
}

func New(opts Opts) *Server {
	if opts.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	h := &Handler{
		ingest:  opts.Ingest,
		auth:    opts.Auth,
		limiter: opts.Limiter,
		logger:  opts.Logger.WithComponent("HTTP"),
		now:     time.Now,
	}

	s := &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Config.App.Port),
			Handler:           NewRouter(h),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: h.logger,
	}

	opts.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", s.srv.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
			}
			s.logger.Info("Starting server", "addr", s.srv.Addr)
			go func() {
				if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.logger.Error("Server stopped unexpectedly", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.logger.Info("Shutting down server")
			return s.srv.Shutdown(ctx)
		},
	})

	return s
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(requestID(), h.requestLogger(), h.recovery())

	r.GET("/healthz", h.healthz)

	api := r.Group("/api")
	api.GET("/health", h.health)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.GET("/me", h.requireAuth(), h.me)
	}

	items := api.Group("/items")
	{
		items.POST("/ingest", h.requireAuth(), h.rateLimit(), h.ingestItems)
		items.GET("/search", h.searchItems)
		items.GET("/images", h.listImages)
		items.GET("/:id", h.getItem)
	}

	return r
}
