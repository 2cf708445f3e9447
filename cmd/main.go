package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"social-canvas-auth/config"
	"social-canvas-auth/internal/handler"
	"social-canvas-auth/internal/logger"
	"social-canvas-auth/internal/metrics"
	"social-canvas-auth/internal/model"
	"social-canvas-auth/internal/platform/facebook"
	"social-canvas-auth/internal/platform/vkontakte"
	"social-canvas-auth/internal/ports"
	"social-canvas-auth/internal/repository"
	"social-canvas-auth/internal/security"
	"social-canvas-auth/internal/service"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "social-canvas-auth",
		Short:        "Аутентификация canvas-приложений Facebook и ВКонтакте",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "путь к config.yaml")

	root.AddCommand(
		newServeCommand(&configPath),
		newMigrateCommand(&configPath),
		newNotifyCommand(&configPath),
	)
	return root
}

// loadConfig : .env, затем config.yaml с переопределениями из окружения, затем логгер
func loadConfig(path string) (*config.AppConfig, *zap.Logger, error) {
	_ = godotenv.Load(".env")

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}

	log := logger.Init(logger.Config{Env: cfg.Logging.Env, Level: cfg.Logging.Level})
	return cfg, log, nil
}

// application : сервисы, общие для HTTP-сервера и команд CLI
type application struct {
	identities    *service.IdentityService
	tokens        *service.TokenService
	notifications *service.NotificationService
	facebook      *facebook.Client
}

func newApplication(cfg *config.AppConfig, db *config.Database) *application {
	identityRepo := repository.NewIdentityRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	transactor := repository.NewTransactor(db)

	facebookClient := facebook.NewClient(cfg.Facebook)
	vkontakteClient := vkontakte.NewClient(cfg.Vkontakte)

	identities := service.NewIdentityService(identityRepo, credentialRepo, transactor)
	return &application{
		identities: identities,
		tokens:     service.NewTokenService(facebookClient, credentialRepo, transactor),
		notifications: service.NewNotificationService(identities, map[model.Provider]ports.Notifier{
			model.ProviderFacebook:  facebookClient,
			model.ProviderVkontakte: vkontakteClient,
		}),
		facebook: facebookClient,
	}
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP-сервер",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if err := metrics.Register(nil); err != nil {
				return err
			}

			db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					log.Warn("ошибка при закрытии БД", zap.Error(err))
				}
			}()

			redisClient, err := config.SetupRedis(&cfg.RedisConfig)
			if err != nil {
				return err
			}
			defer func() {
				if err := redisClient.Close(); err != nil {
					log.Warn("ошибка при закрытии Redis", zap.Error(err))
				}
			}()

			app := newApplication(cfg, db)
			sessionRepo := repository.NewSessionRepository(redisClient, cfg.Session.SessionTTL())

			facebookAuth, err := service.NewFacebookAuthService(cfg.Facebook, cfg.Paths, app.identities, app.tokens, app.facebook)
			if err != nil {
				return err
			}
			vkontakteAuth, err := service.NewVkontakteAuthService(cfg.Vkontakte, cfg.Paths, app.identities, sessionRepo)
			if err != nil {
				return err
			}
			dispatcher, err := service.NewDispatcher(cfg.Providers, facebookAuth, vkontakteAuth)
			if err != nil {
				return err
			}

			sessions := security.NewSessionService(&cfg.Session)
			canvasHandler := handler.NewCanvasHandler(dispatcher, app.identities, facebookAuth, app.facebook, sessions, sessionRepo, cfg.Facebook)
			identityHandler := handler.NewIdentityHandler(app.identities, app.notifications)

			srv, router := config.SetupServer(cfg.ServerAddr)
			router.Use(middleware.RequestID, middleware.RealIP, handler.RequestLogger(log), middleware.Recoverer)

			setupServiceRoutes(router)
			setupAPIRoutes(router, identityHandler, canvasHandler, cfg)
			setupCanvasRoutes(router, canvasHandler, identityHandler, cfg)

			runServer(cmd.Context(), srv, log)
			return nil
		},
	}
}

func setupServiceRoutes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
}

func setupAPIRoutes(r chi.Router, h *handler.IdentityHandler, canvas *handler.CanvasHandler, cfg *config.AppConfig) {
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(security.AdminMiddleware(cfg.Admin.AdminToken))
			r.Route("/identities/{provider}/{socialId}", func(r chi.Router) {
				r.Get("/", h.GetIdentity)
				r.Post("/notifications", h.SendNotification)
			})
		})
		r.Group(func(r chi.Router) {
			r.Use(canvas.SessionMiddleware)
			r.Get("/me", h.Me)
		})
	})
}

func setupCanvasRoutes(r chi.Router, canvas *handler.CanvasHandler, h *handler.IdentityHandler, cfg *config.AppConfig) {
	r.Get("/authorize_application.html", canvas.AuthorizeApplication)
	r.Post("/deauthorize_application.html", canvas.DeauthorizeApplication)

	r.Group(func(r chi.Router) {
		r.Use(canvas.Middleware)
		// страницы canvas-приложения Facebook открываются только авторизовавшему его пользователю
		r.With(canvas.RequireIdentity(cfg.Facebook.ExtendedPermissions...)).HandleFunc("/canvas/*", h.Me)
		r.HandleFunc("/*", h.Me)
	})
}

func runServer(ctx context.Context, server *http.Server, log *zap.Logger) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("сервер запущен", zap.String("addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ошибка работы сервера", zap.Error(err))
		}
	case sig := <-signalChannel:
		log.Info("получен сигнал остановки работы сервера", zap.String("signal", sig.String()))
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Error("ошибка при остановке сервера", zap.Error(err))
	} else {
		log.Info("сервер успешно остановлен")
	}
}
