package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/reportcard/core"
	"github.com/trezcool/reportcard/core/report"
)

type (
	Deps struct {
		Conf           *core.Config
		Logger         core.Logger
		ReportSvc      *report.Service
		Translator     ut.Translator
		Registry       *prometheus.Registry // a fresh one is created when nil
		DisableReqLogs bool
	}

	Server struct {
		addr     string
		app      *echo.Echo
		deps     *Deps
		metrics  *metrics
		errors   chan error
		shutdown chan os.Signal
	}
)

// NewServer wires the HTTP API. shutdown receives OS signals once started; a buffered channel is created when nil.
func NewServer(addr string, shutdown chan os.Signal, deps *Deps) *Server {
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		addr:     addr,
		app:      echo.New(),
		deps:     deps,
		metrics:  newMetrics(deps.Registry),
		errors:   make(chan error, 1),
		shutdown: shutdown,
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	var debug, testMode bool
	if conf := s.deps.Conf; conf != nil {
		debug, testMode = conf.Debug, conf.TestMode
		s.app.Server.ReadTimeout = conf.Server.ReadTimeout
		s.app.Server.WriteTimeout = conf.Server.WriteTimeout
	}

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || testMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.metrics.middleware())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = debug

	s.app.GET("/", home)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{})))

	api := s.app.Group("/api")
	registerGradeAPI(api)
	registerReportAPI(api, s.deps.ReportSvc, s.metrics)
	registerDraftAPI(api, s.deps.ReportSvc)
}

// Start blocks until the server stops; failures are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the owner of the server to shut it down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signalled
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Report Card API!")
}
