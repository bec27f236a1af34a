package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/config"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/db"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/events"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/handler"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/provider"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/queue"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/repository"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/service"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "server").Logger()

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer conn.Close()
	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	jobRepo := &repository.JobRepository{DB: conn}
	tenantRepo := &repository.TenantRepository{DB: conn}

	manager := queue.NewManager(jobRepo, cfg.BatchSize, cfg.MaxAttempts, cfg.BackoffInitial, cfg.BackoffMax, log)
	registry := provider.Default()
	failover := service.NewFailoverOrchestrator(registry, log)
	handlers := map[model.JobType]service.ChannelHandler{
		model.JobTypeEmail:    &service.EmailHandler{Registry: registry, BatchSize: cfg.BatchSize, SendDelay: cfg.SendDelay, Log: log},
		model.JobTypeSMS:      &service.SMSHandler{Registry: registry, BatchSize: cfg.BatchSize, Log: log},
		model.JobTypeWhatsApp: &service.WhatsAppHandler{Failover: failover, BatchSize: cfg.BatchSize, Log: log},
	}
	processor := service.NewProcessor(manager, tenantRepo, handlers, cfg.JobTimeout, log)

	var publisher *events.Publisher
	if amqpConn, err := amqp.Dial(cfg.AMQPURL); err != nil {
		log.Warn().Err(err).Msg("rabbitmq unavailable, job created events disabled")
	} else {
		defer amqpConn.Close()
		publisher, err = events.NewPublisher(amqpConn)
		if err != nil {
			log.Warn().Err(err).Msg("could not set up event publisher")
		}
	}

	jobHandler := &handler.JobHandler{
		Queue:     manager,
		Processor: processor,
		Publisher: publisher,
		Log:       log,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/jobs/email", jobHandler.CreateEmailJobHandler)
	r.Post("/api/jobs/sms", jobHandler.CreateSMSJobHandler)
	r.Post("/api/jobs/whatsapp", jobHandler.CreateWhatsAppJobHandler)
	r.Get("/api/jobs", jobHandler.ListJobsHandler)
	r.Get("/api/jobs/{id}", jobHandler.GetJobHandler)
	r.Post("/api/jobs/run", jobHandler.RunJobsHandler)

	log.Info().Str("port", cfg.HTTPPort).Msg("server running")
	if err := http.ListenAndServe(":"+cfg.HTTPPort, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
