package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linemk/campuskart/internal/app"
	"github.com/linemk/campuskart/internal/app/handlers"
	"github.com/linemk/campuskart/internal/config"
	"github.com/linemk/campuskart/internal/events"
	"github.com/linemk/campuskart/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/campuskart/internal/lib/logger"
	"github.com/linemk/campuskart/internal/mailer"
	"github.com/linemk/campuskart/internal/metrics"
	"github.com/linemk/campuskart/internal/notify"
	"github.com/linemk/campuskart/internal/service"
	"github.com/linemk/campuskart/internal/storage"
	"github.com/linemk/campuskart/internal/upload"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	images, err := upload.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxSize)
	if err != nil {
		log.Error("failed to initialize uploads", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize uploads"))
	}

	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		log.Error("failed to initialize order events", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize order events"))
	}
	if closer, ok := publisher.(io.Closer); ok {
		defer closer.Close()
	}
	log.Info("order events sink", slog.String("sink", cfg.Events.Sink))

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	// уведомления живут в памяти процесса
	m := metrics.NewRegistry()
	registry := notify.NewRegistry()
	dispatcher := notify.NewDispatcher(log, registry, m)

	smtp := mailer.NewSMTPMailer(mailer.Options{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		Support:  cfg.Mail.Support,
	})

	authService := service.NewAuthService(log, userRepo, time.Duration(cfg.JWT.TokenTTL)*time.Minute)
	productService := service.NewProductService(log, productRepo, images)
	orderService := service.NewOrderService(log, orderRepo, productRepo, userRepo, dispatcher, publisher, m)
	contactService := service.NewContactService(log, smtp)

	if !cfg.Notifications.BindIdentity {
		log.Warn("notification streams are not bound to caller identity, anyone can subscribe to any user's stream",
			slog.String("setting", "notifications.bind_identity"))
	}

	router := app.NewRouter(app.RouterDeps{
		Log:      log,
		Auth:     authService,
		Products: productService,
		Orders:   orderService,
		Contact:  contactService,
		Registry: registry,
		Metrics:  m,
		JWT:      jwtmiddleware.NewJWTMiddleware(),
		Stream: handlers.StreamOptions{
			Keepalive:    cfg.Notifications.Keepalive,
			BindIdentity: cfg.Notifications.BindIdentity,
			JWTSecret:    cfg.JWT.Secret,
		},
		UploadsDir:   images.Dir(),
		MaxImageSize: cfg.Uploads.MaxSize,
	})

	// контекст запросов отменяется при остановке, чтобы потоки SSE завершились
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	// Shutdown не прерывает активные запросы, поэтому потоки закрываем сами
	cancelBase()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped", slog.Int("streams_left", registry.Len()))
}
