package api

import (
	"omics-backend/internal/metrics"
	"omics-backend/internal/search"
	"omics-backend/pkg/api"
)

func toFileResult(f search.File) api.FileResult {
	return api.FileResult{
		Path:         f.Path,
		FileType:     string(f.FileType),
		SizeBytes:    f.SizeBytes,
		StorageClass: f.StorageClass,
		LastModified: f.LastModified,
		Tags:         f.Tags,
		SourceSystem: f.SourceSystem,
		Metadata:     f.Metadata,
	}
}

func toFileResults(files []search.File) []api.FileResult {
	results := make([]api.FileResult, 0, len(files))
	for _, f := range files {
		results = append(results, toFileResult(f))
	}
	return results
}

func toTaskGroups(groups []metrics.AggregatedTaskGroup) []api.TaskGroup {
	out := make([]api.TaskGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, api.TaskGroup{
			BaseTaskName:              g.BaseTaskName,
			InstanceCount:             g.InstanceCount,
			RunCount:                  g.RunCount,
			MeanRunningSeconds:        g.MeanRunningSeconds,
			MaximumRunningSeconds:     g.MaximumRunningSeconds,
			MeanCpuEfficiencyRatio:    g.MeanCpuEfficiencyRatio,
			MeanMemoryEfficiencyRatio: g.MeanMemoryEfficiencyRatio,
			TotalEstimatedUSD:         g.TotalEstimatedUSD,
			RecommendedInstanceType:   g.RecommendedInstanceType,
			RecommendedCpus:           g.RecommendedCpus,
			RecommendedMemoryGiB:      g.RecommendedMemoryGiB,
		})
	}
	return out
}
