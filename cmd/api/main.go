package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	awsomics "github.com/aws/aws-sdk-go-v2/service/omics"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"omics-backend/cmd"
	"omics-backend/internal/api"
	"omics-backend/internal/metrics"
	"omics-backend/internal/omics"
	"omics-backend/internal/pricing"
	"omics-backend/internal/search"
	"omics-backend/internal/storage"
)

type APIConfig struct {
	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	PricingURL         string `env:"PRICING_URL" envDefault:"https://pricing.us-east-1.amazonaws.com"`
	InstanceCatalog    string `env:"INSTANCE_CATALOG_PATH"`
	SearchPageSize     int32  `env:"SEARCH_PAGE_SIZE" envDefault:"100"`
	APIPort            string `env:"API_PORT" envDefault:"8002"`
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	awsCfg, err := omics.LoadAWSConfig(&omics.Config{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	omicsApi := awsomics.NewFromConfig(awsCfg)
	client := omics.NewFromClients(omicsApi, sts.NewFromConfig(awsCfg), awsCfg.Region)
	engine := search.NewEngine(client, cfg.SearchPageSize)

	catalog, err := loadCatalog(cfg.InstanceCatalog)
	if err != nil {
		log.Fatalf("Failed to load instance catalog: %v", err)
	}

	analyzer := metrics.NewAnalyzer(
		omics.NewAWSRunClient(omicsApi),
		omics.NewManifestClient(cloudwatchlogs.NewFromConfig(awsCfg)),
		storage.NewPrefixSizer(s3.NewFromConfig(awsCfg)),
		catalog,
		pricing.NewClient(cfg.PricingURL),
	)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	service := api.NewBackendService(engine, analyzer, catalog)
	r.Route("/api/v1", func(r chi.Router) {
		service.AddRoutes(r)
	})

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}

func loadCatalog(path string) (*metrics.Catalog, error) {
	if path != "" {
		return metrics.LoadCatalog(path)
	}
	return metrics.DefaultCatalog()
}
