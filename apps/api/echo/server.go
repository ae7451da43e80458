package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/learntocloud/ltc-backend/core"
	"github.com/learntocloud/ltc-backend/core/badge"
	"github.com/learntocloud/ltc-backend/core/curriculum"
	"github.com/learntocloud/ltc-backend/core/handson"
	"github.com/learntocloud/ltc-backend/core/progress"
	"github.com/learntocloud/ltc-backend/core/user"
)

type (
	// Pinger reports backend connectivity; satisfied by *sqlx.DB and the
	// Redis dashboard cache.
	Pinger interface {
		Ping() error
	}

	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DB             Pinger
		Cache          Pinger
		Catalog        *curriculum.Catalog
		UserSvc        user.Service
		ProgressSvc    progress.Service
		HandsOnSvc     handson.Service
		BadgeSvc       badge.Service
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf
	appJWTConfig.SigningKey = []byte(conf.SecretKey)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.GET("/health", newHealthHandler(s.deps.DB, s.deps.Cache, conf))

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps.UserSvc, s.deps.Conf, s.deps.Validate, s.deps.Translator)
	registerCurriculumAPI(v1, jwt, s.deps.Catalog, s.deps.ProgressSvc)
	registerProgressAPI(v1, jwt, s.deps.ProgressSvc, s.deps.BadgeSvc, s.deps.UserSvc, s.deps.Validate)
	registerHandsOnAPI(v1, jwt, s.deps.HandsOnSvc, s.deps.BadgeSvc, s.deps.UserSvc, s.deps.Validate)
	registerBadgeAPI(v1, jwt, s.deps.BadgeSvc)
}

func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		s.errs <- s.app.Start(s.deps.Conf.Server.Address())
	}()
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown initiates a graceful shutdown; used on integrity issues.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Learn to Cloud API!")
}
