package metrics

import (
	"math"
	"sort"
)

type groupAccumulator struct {
	count          int
	sumRunning     float64
	maxRunning     float64
	sumCpuEff      float64
	sumMemEff      float64
	totalUSD       float64
	peakCpuUtil    float64
	peakMemUtilGiB float64
	runs           map[string]bool
}

// Aggregate folds task metric records into per-task summary groups, keyed by
// the scatter-stripped base task name. Cost is summed, never averaged: shards
// of one logical task each cost real money. A nil recommender leaves the
// Recommended* fields at their zero values. Groups come back sorted by name.
func Aggregate(records []TaskMetricRecord, recommender Recommender) []AggregatedTaskGroup {
	return aggregate(func(fold func(runId string, records []TaskMetricRecord)) {
		fold("", records)
	}, recommender)
}

// AggregateAcrossRuns folds records from several runs into one set of groups,
// additionally counting how many distinct runs contributed to each group.
func AggregateAcrossRuns(runs []RunMetrics, recommender Recommender) []AggregatedTaskGroup {
	return aggregate(func(fold func(runId string, records []TaskMetricRecord)) {
		for _, rm := range runs {
			fold(rm.Run.Id, rm.Records)
		}
	}, recommender)
}

func aggregate(visit func(fold func(runId string, records []TaskMetricRecord)), recommender Recommender) []AggregatedTaskGroup {
	accs := make(map[string]*groupAccumulator)

	visit(func(runId string, records []TaskMetricRecord) {
		for _, record := range records {
			name := BaseTaskName(record.TaskName)
			acc, ok := accs[name]
			if !ok {
				acc = &groupAccumulator{runs: make(map[string]bool)}
				accs[name] = acc
			}

			acc.count++
			acc.sumRunning += record.RunningSeconds
			acc.maxRunning = math.Max(acc.maxRunning, record.RunningSeconds)
			acc.sumCpuEff += record.CpuEfficiencyRatio
			acc.sumMemEff += record.MemoryEfficiencyRatio
			acc.totalUSD += record.EstimatedUSD
			acc.peakCpuUtil = math.Max(acc.peakCpuUtil, record.MaxCpuUtilization)
			acc.peakMemUtilGiB = math.Max(acc.peakMemUtilGiB, record.MaxMemoryUtilizationGiB)
			if runId != "" {
				acc.runs[runId] = true
			}
		}
	})

	groups := make([]AggregatedTaskGroup, 0, len(accs))
	for name, acc := range accs {
		group := AggregatedTaskGroup{
			BaseTaskName:              name,
			InstanceCount:             acc.count,
			RunCount:                  len(acc.runs),
			MeanRunningSeconds:        acc.sumRunning / float64(acc.count),
			MaximumRunningSeconds:     acc.maxRunning,
			MeanCpuEfficiencyRatio:    acc.sumCpuEff / float64(acc.count),
			MeanMemoryEfficiencyRatio: acc.sumMemEff / float64(acc.count),
			TotalEstimatedUSD:         acc.totalUSD,
		}

		if recommender != nil {
			headroom := recommender.Headroom()
			group.RecommendedCpus = int(math.Ceil(acc.peakCpuUtil * (1 + headroom)))
			group.RecommendedMemoryGiB = int(math.Ceil(acc.peakMemUtilGiB * (1 + headroom)))
			group.RecommendedInstanceType = recommender.InstanceType(group.RecommendedCpus, group.RecommendedMemoryGiB)
		}

		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].BaseTaskName < groups[j].BaseTaskName })
	return groups
}

// TotalCost sums the cost of a group list. Grouping conserves cost, so this
// equals the sum over the underlying records.
func TotalCost(groups []AggregatedTaskGroup) float64 {
	var total float64
	for _, g := range groups {
		total += g.TotalEstimatedUSD
	}
	return total
}
