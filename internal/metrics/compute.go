package metrics

import (
	"encoding/json"
	"log/slog"
	"math"

	"omics-backend/internal/omics"
)

// RateSource resolves an hourly USD rate for an instance type.
type RateSource interface {
	Lookup(instanceType string) (float64, bool)
}

const (
	overProvisionedBelow = 0.5
	underProvisionedOver = 0.9
)

// manifestEntry is one line of the post-run manifest log: the measured
// utilization and cost of a single task instance.
type manifestEntry struct {
	Name    string  `json:"name"`
	Cpus    float64 `json:"cpus"`
	Memory  float64 `json:"memory"`
	Metrics *struct {
		RunningSeconds    float64 `json:"runningSeconds"`
		CpusReserved      float64 `json:"cpusReserved"`
		CpusMaximum       float64 `json:"cpusMaximum"`
		CpusAverage       float64 `json:"cpusAverage"`
		MemoryReservedGiB float64 `json:"memoryReservedGiB"`
		MemoryMaximumGiB  float64 `json:"memoryMaximumGiB"`
		MemoryAverageGiB  float64 `json:"memoryAverageGiB"`
		EstimatedUSD      float64 `json:"estimatedUSD"`
	} `json:"metrics"`
}

// parseManifest indexes manifest lines by task name. Lines that are not
// valid JSON or carry no task metrics (the manifest also holds run-level
// entries) are skipped.
func parseManifest(lines []string) map[string]manifestEntry {
	entries := make(map[string]manifestEntry)
	for _, line := range lines {
		var entry manifestEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Name == "" || entry.Metrics == nil {
			continue
		}
		entries[entry.Name] = entry
	}
	return entries
}

// BuildRecords derives one TaskMetricRecord per task, merging the allocation
// reported by the task listing with measured utilization from the manifest.
// Tasks without manifest metrics fall back to wall-clock runtime and a cost
// estimate from the rate table; missing data degrades a record to zeros, it
// never drops the task.
func BuildRecords(tasks []omics.RunTask, manifestLines []string, catalog *Catalog, rates RateSource) []TaskMetricRecord {
	manifest := parseManifest(manifestLines)

	records := make([]TaskMetricRecord, 0, len(tasks))
	for _, task := range tasks {
		record := TaskMetricRecord{
			TaskName:           task.Name,
			AllocatedCpus:      float64(task.Cpus),
			AllocatedMemoryGiB: float64(task.MemoryGiB),
		}

		if !task.StopTime.IsZero() && task.StopTime.After(task.StartTime) {
			record.RunningSeconds = task.StopTime.Sub(task.StartTime).Seconds()
		}

		if entry, ok := manifest[task.Name]; ok {
			m := entry.Metrics
			if m.RunningSeconds > 0 {
				record.RunningSeconds = m.RunningSeconds
			}
			if m.CpusReserved > 0 {
				record.AllocatedCpus = m.CpusReserved
			}
			if m.MemoryReservedGiB > 0 {
				record.AllocatedMemoryGiB = m.MemoryReservedGiB
			}
			record.MaxCpuUtilization = m.CpusMaximum
			record.MaxMemoryUtilizationGiB = m.MemoryMaximumGiB
			record.EstimatedUSD = m.EstimatedUSD

			if record.AllocatedCpus > 0 {
				avg := m.CpusAverage
				if avg <= 0 {
					avg = m.CpusMaximum
				}
				record.CpuEfficiencyRatio = avg / record.AllocatedCpus
			}
			if record.AllocatedMemoryGiB > 0 {
				avg := m.MemoryAverageGiB
				if avg <= 0 {
					avg = m.MemoryMaximumGiB
				}
				record.MemoryEfficiencyRatio = avg / record.AllocatedMemoryGiB
			}
		}

		if record.EstimatedUSD == 0 {
			record.EstimatedUSD = estimateCost(record, catalog, rates)
		}

		// With degenerate metrics both predicates can hold at once; the
		// record reports that as-is.
		record.OverProvisioned = record.CpuEfficiencyRatio < overProvisionedBelow &&
			record.MemoryEfficiencyRatio < overProvisionedBelow
		if record.AllocatedCpus > 0 && record.AllocatedMemoryGiB > 0 {
			record.UnderProvisioned = record.MaxCpuUtilization/record.AllocatedCpus > underProvisionedOver &&
				record.MaxMemoryUtilizationGiB/record.AllocatedMemoryGiB > underProvisionedOver
		}

		records = append(records, record)
	}
	return records
}

// estimateCost prices a task by the smallest catalog instance covering its
// allocation. Tasks that fit nowhere are priced at the largest type.
func estimateCost(record TaskMetricRecord, catalog *Catalog, rates RateSource) float64 {
	if catalog == nil || rates == nil || record.RunningSeconds <= 0 {
		return 0
	}

	spec, fits := catalog.Fit(int(math.Ceil(record.AllocatedCpus)), int(math.Ceil(record.AllocatedMemoryGiB)))
	if !fits {
		slog.Warn("task allocation exceeds largest catalog instance, pricing at largest",
			"task", record.TaskName, "cpus", record.AllocatedCpus, "memory_gib", record.AllocatedMemoryGiB)
	}

	rate, ok := rates.Lookup(spec.Name)
	if !ok {
		slog.Warn("no rate for instance type, reporting zero cost", "instance_type", spec.Name)
		return 0
	}
	return rate * record.RunningSeconds / 3600
}
