package cmd

import (
	"database/sql"
	"net"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/snapbooth/identity/app/controller"
	"github.com/snapbooth/identity/app/mail"
	"github.com/snapbooth/identity/app/middleware"
	"github.com/snapbooth/identity/app/repository"
	"github.com/snapbooth/identity/app/service"
	"github.com/snapbooth/identity/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server for the identity service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogging(cfg)

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	sessionStore, err := newSessionStore(cfg, db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize session store")
	}

	userRepo := repository.NewUserRepository(db)
	sessionService := service.NewSessionService(sessionStore, cfg)
	accountService := service.NewAccountService(userRepo, sessionService, newNotifier(cfg), cfg)

	startHTTPServer(cfg, accountService, sessionService)
}

func newSessionStore(cfg *config.Config, db *sql.DB) (service.SessionStore, error) {
	if cfg.SessionBackend == config.SessionBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		logrus.WithField("addr", cfg.RedisAddr).Info("Using Redis session store")
		return repository.NewRedisSessionRepository(client, cfg.SessionSweepAge), nil
	}
	return repository.NewSessionRepository(db), nil
}

func newNotifier(cfg *config.Config) service.Notifier {
	if cfg.SMTP.Enabled {
		logrus.WithField("host", cfg.SMTP.Host).Info("Using SMTP mailer")
		return mail.NewSMTPMailer(cfg.SMTP, cfg.AppURL, cfg.VerificationTTL, cfg.ResetTokenTTL)
	}
	logrus.Warn("SMTP disabled, account emails will be suppressed")
	return mail.NopMailer{}
}

func startHTTPServer(cfg *config.Config, accountService *service.AccountService, sessionService *service.SessionService) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	authController := controller.NewAuthController(accountService, sessionService, cfg)
	csrfMiddleware := middleware.NewCSRFMiddleware(sessionService, cfg.SessionCookieName)
	sessionMiddleware := middleware.NewSessionMiddleware(sessionService, cfg.SessionCookieName)

	api := e.Group("/api")
	api.Use(csrfMiddleware.Guard)

	api.POST("/register", authController.Register)
	api.POST("/verify", authController.Verify)
	api.POST("/login", authController.Login)
	api.POST("/forgot-password", authController.ForgotPassword)
	api.POST("/reset-password", authController.ResetPassword)

	apiProtected := api.Group("")
	apiProtected.Use(sessionMiddleware.RequireSession)
	apiProtected.POST("/logout", authController.Logout)
	apiProtected.GET("/me", authController.Me)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}

func configureLogging(cfg *config.Config) {
	if cfg.LogJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, falling back to info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
