package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"omics-backend/internal/omics"
)

// ManifestSource yields the manifest log lines of a completed run.
type ManifestSource interface {
	ManifestLines(ctx context.Context, runId, runUuid string) ([]string, error)
}

// OutputSizer reports the total byte size stored under a run's output URI.
type OutputSizer interface {
	TotalSize(ctx context.Context, uri string) (int64, error)
}

// Analyzer assembles per-run task metrics and aggregates them into cost and
// sizing reports.
type Analyzer struct {
	runs      omics.RunClient
	manifests ManifestSource
	sizer     OutputSizer
	catalog   *Catalog
	rates     RateSource
}

// NewAnalyzer wires an analyzer. manifests and sizer may be nil; the
// corresponding enrichment is then skipped.
func NewAnalyzer(runs omics.RunClient, manifests ManifestSource, sizer OutputSizer, catalog *Catalog, rates RateSource) *Analyzer {
	return &Analyzer{runs: runs, manifests: manifests, sizer: sizer, catalog: catalog, rates: rates}
}

// RunMetrics fetches one run's tasks and derives their metric records. Run
// and task lookups are fatal; manifest and output-size enrichment fail soft.
func (a *Analyzer) RunMetrics(ctx context.Context, runId string) (RunMetrics, error) {
	run, err := a.runs.GetRun(ctx, runId)
	if err != nil {
		return RunMetrics{}, fmt.Errorf("failed to load run %s: %w", runId, err)
	}

	tasks, err := a.runs.ListRunTasks(ctx, runId)
	if err != nil {
		return RunMetrics{}, fmt.Errorf("failed to load tasks for run %s: %w", runId, err)
	}

	var manifestLines []string
	if a.manifests != nil {
		manifestLines, err = a.manifests.ManifestLines(ctx, run.Id, run.Uuid)
		if err != nil {
			slog.Warn("manifest unavailable, falling back to task timings", "run_id", runId, "error", err)
			manifestLines = nil
		}
	}

	rm := RunMetrics{
		Run:     run,
		Records: BuildRecords(tasks, manifestLines, a.catalog, a.rates),
	}

	if a.sizer != nil && run.OutputUri != "" {
		size, err := a.sizer.TotalSize(ctx, run.OutputUri)
		if err != nil {
			slog.Warn("failed to size run output, reporting zero", "run_id", runId, "output_uri", run.OutputUri, "error", err)
		} else {
			rm.OutputSizeBytes = size
		}
	}

	return rm, nil
}

// Report aggregates a single run.
func (a *Analyzer) Report(ctx context.Context, runId string, recommender Recommender) (RunReport, error) {
	rm, err := a.RunMetrics(ctx, runId)
	if err != nil {
		return RunReport{}, err
	}

	groups := Aggregate(rm.Records, recommender)
	return RunReport{
		Run:               rm.Run,
		OutputSizeBytes:   rm.OutputSizeBytes,
		Groups:            groups,
		TotalEstimatedUSD: TotalCost(groups),
	}, nil
}

// CrossRunReport aggregates several runs into one set of task groups. A run
// that cannot be loaded fails the whole report; a partial cross-run view
// would silently skew the totals.
func (a *Analyzer) CrossRunReport(ctx context.Context, runIds []string, recommender Recommender) (CrossRunReport, error) {
	runs := make([]RunMetrics, 0, len(runIds))
	for _, runId := range runIds {
		rm, err := a.RunMetrics(ctx, runId)
		if err != nil {
			return CrossRunReport{}, err
		}
		runs = append(runs, rm)
	}

	groups := AggregateAcrossRuns(runs, recommender)
	return CrossRunReport{
		RunCount:          len(runs),
		Groups:            groups,
		TotalEstimatedUSD: TotalCost(groups),
	}, nil
}
