// cmd/seeder/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/config"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/db"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/provider"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/queue"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/repository"
)

func main() {
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded .env")
	}
	cfg := config.Load()

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := db.Migrate(conn); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	tenants := &repository.TenantRepository{DB: conn}
	demo := &model.Tenant{
		ID:     "tenant-demo",
		Name:   "Demo Tenant",
		Status: model.TenantActive,
		Credentials: []model.ProviderCredential{
			{
				Channel:     model.JobTypeWhatsApp,
				Provider:    provider.NameWati,
				Priority:    1,
				Credentials: map[string]string{"api_key": env("WATI_API_KEY"), "endpoint": env("WATI_ENDPOINT")},
			},
			{
				Channel:     model.JobTypeWhatsApp,
				Provider:    provider.NameAiSensy,
				Priority:    2,
				Credentials: map[string]string{"api_key": env("AISENSY_API_KEY")},
			},
			{
				Channel:     model.JobTypeSMS,
				Provider:    provider.NameFast2SMS,
				Priority:    1,
				Credentials: map[string]string{"api_key": env("FAST2SMS_API_KEY"), "sender_id": env("FAST2SMS_SENDER_ID")},
			},
			{
				Channel:     model.JobTypeEmail,
				Provider:    provider.NameBrevo,
				Priority:    1,
				Credentials: map[string]string{"api_key": env("BREVO_API_KEY")},
			},
		},
	}
	if err := tenants.Create(demo); err != nil {
		log.Fatalf("failed to seed tenant: %v", err)
	}
	fmt.Printf("Seeded: %s\n", demo.ID)

	manager := queue.NewManager(&repository.JobRepository{DB: conn},
		cfg.BatchSize, cfg.MaxAttempts, cfg.BackoffInitial, cfg.BackoffMax, zerolog.Nop())
	job, err := manager.CreateWhatsAppCampaignJob(demo.ID, "seeder", model.WhatsAppData{
		TemplateName: "welcome",
		Parameters:   map[string]string{"1": "there"},
	}, []model.Recipient{
		{Phone: env("DEMO_PHONE"), Name: "Demo Recipient"},
	})
	if err != nil {
		log.Fatalf("failed to seed demo job: %v", err)
	}
	fmt.Printf("Seeded demo job: %s\n", job.ID)

	fmt.Println("Database seeding completed successfully!")
}

func env(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return "changeme"
}
