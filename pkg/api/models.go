package api

import "time"

type FileResult struct {
	Path         string
	FileType     string
	SizeBytes    int64
	StorageClass string
	LastModified time.Time
	Tags         map[string]string
	SourceSystem string
	Metadata     map[string]any `json:"Metadata,omitempty"`
}

type SearchResponse struct {
	Results   []FileResult
	NextToken string `json:"NextToken,omitempty"`
	HasMore   bool
}

type TaskGroup struct {
	BaseTaskName              string
	InstanceCount             int
	RunCount                  int `json:"RunCount,omitempty"`
	MeanRunningSeconds        float64
	MaximumRunningSeconds     float64
	MeanCpuEfficiencyRatio    float64
	MeanMemoryEfficiencyRatio float64
	TotalEstimatedUSD         float64

	// Zero values mean "no recommendation computed", so these are always
	// present in the payload.
	RecommendedInstanceType string
	RecommendedCpus         int
	RecommendedMemoryGiB    int
}

type RunReportResponse struct {
	ReportId          string
	RunId             string
	RunName           string
	Status            string
	OutputSizeBytes   int64
	Groups            []TaskGroup
	TotalEstimatedUSD float64
}

type CrossRunReportRequest struct {
	RunIds    []string
	Recommend bool
	Headroom  float64
}

type CrossRunReportResponse struct {
	ReportId          string
	RunCount          int
	Groups            []TaskGroup
	TotalEstimatedUSD float64
}
