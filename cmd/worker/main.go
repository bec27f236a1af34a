package main

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/config"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/db"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/events"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/provider"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/queue"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/repository"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/service"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/telemetry"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "worker").Logger()

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

	// One run at a time per worker instance; overlapping triggers just
	// queue up behind the mutex. Cross-instance overlap is fine, the
	// atomic claim handles it.
	var runMu sync.Mutex
	run := func(trigger string) {
		runMu.Lock()
		defer runMu.Unlock()
		result, err := processor.RunAllCampaignJobs(context.Background())
		if err != nil {
			log.Error().Str("trigger", trigger).Err(err).Msg("processor run failed")
			return
		}
		if result.JobsProcessed > 0 {
			log.Info().Str("trigger", trigger).Int("jobs_processed", result.JobsProcessed).
				Int("jobs_failed", result.JobsFailed).Msg("processor run finished")
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.CronSpec, func() { run("cron") }); err != nil {
		log.Fatal().Str("spec", cfg.CronSpec).Err(err).Msg("invalid cron spec")
	}
	c.Start()
	defer c.Stop()

	go func() {
		http.Handle("/metrics", telemetry.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	log.Info().Str("cron", cfg.CronSpec).Msg("worker running")

	// Job-created events wake the processor between ticks. When
	// RabbitMQ is down we fall back to cron-only polling.
	for {
		amqpConn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable, retrying; cron keeps polling meanwhile")
			time.Sleep(5 * time.Second)
			continue
		}
		err = events.Consume(amqpConn, func(jobID string) {
			log.Info().Str("job_id", jobID).Msg("job created event received")
			run("event")
		})
		amqpConn.Close()
		log.Warn().Err(err).Msg("event stream closed, reconnecting")
		time.Sleep(5 * time.Second)
	}
}
