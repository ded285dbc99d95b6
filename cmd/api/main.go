package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hospitalward/ward-api/internal/config"
	"github.com/hospitalward/ward-api/internal/email"
	"github.com/hospitalward/ward-api/internal/handler"
	authHandler "github.com/hospitalward/ward-api/internal/handler/auth"
	bedHandler "github.com/hospitalward/ward-api/internal/handler/bed"
	billingHandler "github.com/hospitalward/ward-api/internal/handler/billing"
	medicineHandler "github.com/hospitalward/ward-api/internal/handler/medicine"
	patientHandler "github.com/hospitalward/ward-api/internal/handler/patient"
	userHandler "github.com/hospitalward/ward-api/internal/handler/user"
	"github.com/hospitalward/ward-api/internal/middleware"
	"github.com/hospitalward/ward-api/internal/repository/postgres"
	"github.com/hospitalward/ward-api/internal/router"
	authService "github.com/hospitalward/ward-api/internal/service/auth"
	bedService "github.com/hospitalward/ward-api/internal/service/bed"
	billingService "github.com/hospitalward/ward-api/internal/service/billing"
	medicineService "github.com/hospitalward/ward-api/internal/service/medicine"
	patientService "github.com/hospitalward/ward-api/internal/service/patient"
	userService "github.com/hospitalward/ward-api/internal/service/user"
	"github.com/hospitalward/ward-api/pkg/logger"
	"github.com/hospitalward/ward-api/pkg/messaging"
	redisBroker "github.com/hospitalward/ward-api/pkg/messaging/redis"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(nil)

	loc, err := time.LoadLocation(cfg.Facility.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Facility.Timezone).Msg("unknown facility timezone")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	patientRepo := postgres.NewPatientRepository(db)
	bedRepo := postgres.NewBedRepository(db)
	medicineRepo := postgres.NewMedicineRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	userRepo := postgres.NewUserRepository(db)

	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		zl := log.Logger
		broker, err = redisBroker.NewRedisBroker(cfg.Redis.URL, &zl)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
	}

	var mailer email.Service = email.NoopService{}
	if smtpCfg, err := email.LoadSMTPConfig(); err != nil {
		log.Warn().Err(err).Msg("invalid SMTP configuration, invoice mail disabled")
	} else if smtpCfg.Username != "" {
		mailer = email.NewService(smtpCfg, appLogger)
	}

	authSvc := authService.NewService(userRepo, cfg.JWT)
	billingSvc := billingService.NewService(paymentRepo, patientRepo)
	bedSvc := bedService.NewService(bedRepo, patientRepo, db)
	prometheus.MustRegister(bedSvc.Collector())
	patientSvc := patientService.NewService(
		patientRepo,
		paymentRepo,
		bedRepo,
		userRepo,
		bedSvc,
		db,
		billingSvc,
		mailer,
		broker,
		patientService.Config{
			Location:     loc,
			BillingEmail: cfg.Facility.BillingEmail,
		},
		appLogger,
	)
	medicineSvc := medicineService.NewService(medicineRepo, patientRepo)
	userSvc := userService.NewService(userRepo)

	authMiddleware := middleware.NewAuthMiddleware(authSvc, userRepo)

	handler.RegisterValidations()

	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		patientHandler.NewHandler(patientSvc),
		bedHandler.NewHandler(bedSvc),
		billingHandler.NewHandler(billingSvc),
		medicineHandler.NewHandler(medicineSvc),
		userHandler.NewHandler(userSvc),
		handler.NewHandler(db),
		router.Config{
			RateLimiter: middleware.RateLimiterConfig{
				Rate:  rate.Limit(cfg.Server.RateLimit),
				Burst: cfg.Server.RateBurst,
			},
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "ward_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("ward API listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	if broker != nil {
		if err := broker.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close broker")
		}
	}

	log.Info().Msg("server exited properly")
}
