// Package server exposes the intake and introspection API over HTTP:
// enqueue a request, inspect the queue, trigger a batch run.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"socialpress/internal/queue"
	"socialpress/internal/schedule"
	logx "socialpress/pkg/logx"
)

type Config struct {
	Addr string
}

// BatchTrigger is the slice of the scheduler the API needs.
type BatchTrigger interface {
	RunNow(ctx context.Context) (schedule.Report, error)
	NextRun() (time.Time, bool)
	Running() bool
}

type Server struct {
	cfg     Config
	store   queue.Store
	trigger BatchTrigger
	log     logx.Logger
	e       *echo.Echo
}

func New(cfg Config, store queue.Store, trigger BatchTrigger, log logx.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("server needs a queue store")
	}
	if trigger == nil {
		return nil, errors.New("server needs a batch trigger")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	s := &Server{cfg: cfg, store: store, trigger: trigger, log: log}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(s.logRequests)

	e.GET("/", s.handleInfo)
	e.POST("/requests", s.handleEnqueue)
	e.GET("/queue", s.handleQueue)
	e.GET("/queue/status", s.handleQueueStatus)
	e.POST("/process/all", s.handleProcessAll)

	s.e = e
	return s, nil
}

// Start blocks serving HTTP until Shutdown. http.ErrServerClosed is
// folded into a nil return.
func (s *Server) Start() error {
	err := s.e.Start(s.cfg.Addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		s.log.Debug("http request",
			logx.String("method", c.Request().Method),
			logx.String("path", c.Request().URL.Path),
			logx.Int("status", c.Response().Status),
			logx.Duration("took", time.Since(start)))
		return err
	}
}
