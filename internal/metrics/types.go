package metrics

import "omics-backend/internal/omics"

// TaskMetricRecord is the measured footprint of one task instance. Records
// are derived once and read-only thereafter.
type TaskMetricRecord struct {
	TaskName                string
	RunningSeconds          float64
	AllocatedCpus           float64
	AllocatedMemoryGiB      float64
	CpuEfficiencyRatio      float64
	MemoryEfficiencyRatio   float64
	MaxCpuUtilization       float64
	MaxMemoryUtilizationGiB float64
	EstimatedUSD            float64
	OverProvisioned         bool
	UnderProvisioned        bool
}

// AggregatedTaskGroup is the fold of every TaskMetricRecord sharing a base
// task name. The Recommended* fields are zero values when no recommender was
// supplied to the aggregation, signaling "not computed" rather than unknown.
type AggregatedTaskGroup struct {
	BaseTaskName              string
	InstanceCount             int
	RunCount                  int
	MeanRunningSeconds        float64
	MaximumRunningSeconds     float64
	MeanCpuEfficiencyRatio    float64
	MeanMemoryEfficiencyRatio float64
	TotalEstimatedUSD         float64
	RecommendedInstanceType   string
	RecommendedCpus           int
	RecommendedMemoryGiB      int
}

// RunMetrics pairs one run with the metric records derived from its tasks.
type RunMetrics struct {
	Run             omics.Run
	OutputSizeBytes int64
	Records         []TaskMetricRecord
}

// RunReport is the aggregated view of a single run.
type RunReport struct {
	Run               omics.Run
	OutputSizeBytes   int64
	Groups            []AggregatedTaskGroup
	TotalEstimatedUSD float64
}

// CrossRunReport aggregates task groups across several runs.
type CrossRunReport struct {
	RunCount          int
	Groups            []AggregatedTaskGroup
	TotalEstimatedUSD float64
}
