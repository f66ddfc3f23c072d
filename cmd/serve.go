package cmd

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/controller"
	identitygrpc "github.com/vibast-solutions/ms-go-identity/app/grpc"
	"github.com/vibast-solutions/ms-go-identity/app/middleware"
	"github.com/vibast-solutions/ms-go-identity/app/oauth"
	"github.com/vibast-solutions/ms-go-identity/app/repository"
	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/app/types"
	"github.com/vibast-solutions/ms-go-identity/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start both HTTP (Echo) and gRPC servers for the identity service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type services struct {
	auth  service.AuthService
	users service.UserService
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := openDB(cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	signer, err := service.NewJWTSigner(cfg.JWT.Secret)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create token signer")
	}

	rdb := newRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	dispatcher, closeDispatcher := newEmailDispatcher(cfg)
	defer closeDispatcher()

	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	resetTokenRepo := repository.NewResetTokenRepository(db)

	svc := services{
		auth: service.NewAuthService(
			userRepo,
			refreshTokenRepo,
			resetTokenRepo,
			signer,
			service.NewBcryptHasher(cfg.Password.BcryptCost),
			dispatcher,
			cfg,
		),
		users: service.NewUserService(userRepo, refreshTokenRepo),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grpcServer := startGRPCServer(cfg, svc)
	defer grpcServer.GracefulStop()

	e := newHTTPServer(cfg, svc, db, rdb)
	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
}

func newHTTPServer(cfg *config.Config, svc services, db *sql.DB, rdb *redis.Client) *echo.Echo {
	e := echo.New()
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

	// A nil *redis.Client must not reach the limiter as a non-nil interface.
	var scripter redis.Scripter
	if rdb != nil {
		scripter = rdb
	}
	rateLimit := middleware.NewTokenBucket(cfg.RateLimit, scripter)

	authController := controller.NewAuthController(svc.auth)
	userController := controller.NewUserController(svc.users)
	authMiddleware := middleware.NewAuthMiddleware(svc.auth)
	roleMiddleware := middleware.NewRoleMiddleware(svc.auth)

	oauthController := controller.NewOAuthController(svc.auth, cfg.App.FrontendURL)
	for name, provider := range oauth.NewProviders(cfg.OAuth) {
		logrus.WithField("provider", name).Info("OAuth provider enabled")
		oauthController.Register(name, provider)
	}

	checks := []controller.HealthCheck{{Name: "mysql", Ping: db.PingContext}}
	if rdb != nil {
		checks = append(checks, controller.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	e.GET("/health", controller.NewHealthController(checks...).Health)

	auth := e.Group("/auth")
	auth.POST("/register", authController.Register, rateLimit)
	auth.POST("/verify-email", authController.VerifyEmail)
	auth.POST("/login", authController.Login, rateLimit)
	auth.POST("/refresh", authController.RefreshToken)
	auth.POST("/forgot-password", authController.ForgotPassword, rateLimit)
	auth.POST("/reset-password", authController.ResetPassword, rateLimit)
	auth.GET("/:provider", oauthController.Start)
	auth.GET("/:provider/callback", oauthController.Callback)

	authProtected := auth.Group("")
	authProtected.Use(authMiddleware.RequireAuth)
	authProtected.POST("/logout", authController.Logout, roleMiddleware.RequireOperation(service.OpLogout))
	authProtected.PUT("/change-password", authController.ChangePassword, roleMiddleware.RequireOperation(service.OpChangePassword))

	users := e.Group("/users")
	users.Use(authMiddleware.RequireAuth)
	users.GET("/me", userController.Me, roleMiddleware.RequireOperation(service.OpMe))
	users.GET("", userController.List, roleMiddleware.RequireOperation(service.OpListUsers))
	users.GET("/:id", userController.Get, roleMiddleware.RequireOperation(service.OpGetUser))
	users.PUT("/:id/role", userController.UpdateRole, roleMiddleware.RequireOperation(service.OpUpdateRole))
	users.DELETE("/:id", userController.Delete, roleMiddleware.RequireOperation(service.OpDeleteUser))

	return e
}

func startGRPCServer(cfg *config.Config, svc services) *grpc.Server {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(identitygrpc.AuthUnaryInterceptor(svc.auth)))
	types.RegisterAuthServiceServer(grpcServer, identitygrpc.NewAuthServer(svc.auth, svc.users))

	go func() {
		logrus.WithField("addr", grpcAddr).Info("Starting gRPC server")
		if err := grpcServer.Serve(lis); err != nil {
			logrus.WithError(err).Fatal("Failed to start gRPC server")
		}
	}()
	return grpcServer
}
