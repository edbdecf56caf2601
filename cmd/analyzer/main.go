package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	awsomics "github.com/aws/aws-sdk-go-v2/service/omics"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"omics-backend/internal/metrics"
	"omics-backend/internal/omics"
	"omics-backend/internal/pricing"
	"omics-backend/internal/storage"
)

type AnalyzerConfig struct {
	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	PricingURL         string `env:"PRICING_URL" envDefault:"https://pricing.us-east-1.amazonaws.com"`
}

func main() {
	var (
		runsFlag    = flag.String("runs", "", "comma-separated workflow run ids to analyze (required)")
		headroom    = flag.Float64("headroom", 0.1, "safety margin applied over observed peaks")
		recommend   = flag.Bool("recommend", true, "include instance sizing recommendations")
		jsonOut     = flag.Bool("json", false, "emit the report as JSON")
		catalogPath = flag.String("catalog", "", "path to an instance catalog override")
		envPath     = flag.String("env", "", "path to load env from")
	)
	flag.Parse()

	if *envPath != "" {
		if err := godotenv.Load(*envPath); err != nil {
			log.Fatalf("error loading .env file '%s': %v", *envPath, err)
		}
	}

	runIds := splitRunIds(*runsFlag)
	if len(runIds) == 0 {
		log.Fatal("at least one run id is required, see -runs")
	}

	var cfg AnalyzerConfig
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

	catalog, err := loadCatalog(*catalogPath)
	if err != nil {
		log.Fatalf("Failed to load instance catalog: %v", err)
	}

	omicsApi := awsomics.NewFromConfig(awsCfg)
	analyzer := metrics.NewAnalyzer(
		omics.NewAWSRunClient(omicsApi),
		omics.NewManifestClient(cloudwatchlogs.NewFromConfig(awsCfg)),
		storage.NewPrefixSizer(s3.NewFromConfig(awsCfg)),
		catalog,
		pricing.NewClient(cfg.PricingURL),
	)

	ctx := context.Background()

	bar := progressbar.NewOptions(len(runIds),
		progressbar.OptionSetDescription("analyzing runs"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	runs := make([]metrics.RunMetrics, 0, len(runIds))
	for _, runId := range runIds {
		rm, err := analyzer.RunMetrics(ctx, runId)
		if err != nil {
			log.Fatalf("Failed to analyze run %s: %v", runId, err)
		}
		runs = append(runs, rm)
		bar.Add(1) //nolint:errcheck
	}

	var recommender metrics.Recommender
	if *recommend {
		recommender = metrics.NewCatalogRecommender(catalog, *headroom)
	}

	groups := metrics.AggregateAcrossRuns(runs, recommender)

	if *jsonOut {
		printJSON(runs, groups)
		return
	}
	printTable(runs, groups)
}

func splitRunIds(raw string) []string {
	var runIds []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			runIds = append(runIds, id)
		}
	}
	return runIds
}

func loadCatalog(path string) (*metrics.Catalog, error) {
	if path != "" {
		return metrics.LoadCatalog(path)
	}
	return metrics.DefaultCatalog()
}

func printJSON(runs []metrics.RunMetrics, groups []metrics.AggregatedTaskGroup) {
	report := struct {
		RunCount          int
		Groups            []metrics.AggregatedTaskGroup
		TotalEstimatedUSD float64
	}{
		RunCount:          len(runs),
		Groups:            groups,
		TotalEstimatedUSD: metrics.TotalCost(groups),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}
}

func printTable(runs []metrics.RunMetrics, groups []metrics.AggregatedTaskGroup) {
	for _, rm := range runs {
		fmt.Printf("run %s (%s): %d tasks, output %s\n",
			rm.Run.Id, rm.Run.Status, len(rm.Records), formatBytes(rm.OutputSizeBytes))
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tCOUNT\tRUNS\tMEAN(s)\tMAX(s)\tCPU EFF\tMEM EFF\tCOST($)\tRECOMMENDED")
	for _, g := range groups {
		recommended := "-"
		if g.RecommendedInstanceType != "" {
			recommended = fmt.Sprintf("%s (%d vCPU, %d GiB)",
				g.RecommendedInstanceType, g.RecommendedCpus, g.RecommendedMemoryGiB)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\t%.1f\t%.2f\t%.2f\t%.4f\t%s\n",
			g.BaseTaskName, g.InstanceCount, g.RunCount,
			g.MeanRunningSeconds, g.MaximumRunningSeconds,
			g.MeanCpuEfficiencyRatio, g.MeanMemoryEfficiencyRatio,
			g.TotalEstimatedUSD, recommended)
	}
	w.Flush() //nolint:errcheck

	fmt.Printf("\ntotal estimated cost: $%.4f across %d runs\n", metrics.TotalCost(groups), len(runs))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
