package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/omics/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"omics-backend/internal/metrics"
	"omics-backend/internal/omics"
	"omics-backend/internal/search"
	"omics-backend/pkg/api"
)

// DefaultHeadroom is the safety margin applied to observed peaks when a
// report requests sizing recommendations without an explicit headroom.
const DefaultHeadroom = 0.1

const defaultMaxResults = 100

// Searcher is the search engine surface the handlers depend on.
type Searcher interface {
	Search(ctx context.Context, kind omics.StoreKind, typeFilter search.FileType, terms []string) ([]search.File, error)
	SearchPaginated(ctx context.Context, params search.SearchParams) (search.ResultPage, error)
}

// Reporter is the run-cost analyzer surface the handlers depend on.
type Reporter interface {
	Report(ctx context.Context, runId string, recommender metrics.Recommender) (metrics.RunReport, error)
	CrossRunReport(ctx context.Context, runIds []string, recommender metrics.Recommender) (metrics.CrossRunReport, error)
}

type BackendService struct {
	searcher Searcher
	reporter Reporter
	catalog  *metrics.Catalog
}

func NewBackendService(searcher Searcher, reporter Reporter, catalog *metrics.Catalog) *BackendService {
	return &BackendService{searcher: searcher, reporter: reporter, catalog: catalog}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Route("/files", func(r chi.Router) {
		r.Get("/search", RestHandler(s.SearchFiles))
		r.Get("/search/all", RestHandler(s.SearchAllFiles))
	})
	r.Route("/runs", func(r chi.Router) {
		r.Get("/{run_id}/report", RestHandler(s.RunReport))
		r.Post("/report", RestHandler(s.CrossRunReport))
	})
}

type searchQuery struct {
	Kind       string `schema:"kind"`
	FileType   string `schema:"file_type"`
	Terms      string `schema:"terms"`
	MaxResults int    `schema:"max_results"`
	NextToken  string `schema:"next_token"`
}

type reportQuery struct {
	Recommend bool    `schema:"recommend"`
	Headroom  float64 `schema:"headroom"`
}

func (s *BackendService) SearchFiles(r *http.Request) (any, error) {
	query, err := ParseRequestQueryParams[searchQuery](r)
	if err != nil {
		return nil, err
	}

	kind, typeFilter, terms, err := parseSearchQuery(query)
	if err != nil {
		return nil, err
	}

	maxResults := query.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	page, err := s.searcher.SearchPaginated(r.Context(), search.SearchParams{
		Kind:       kind,
		TypeFilter: typeFilter,
		Terms:      terms,
		NextToken:  query.NextToken,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, upstreamError(err)
	}

	return api.SearchResponse{
		Results:   toFileResults(page.Results),
		NextToken: page.NextToken,
		HasMore:   page.HasMore,
	}, nil
}

func (s *BackendService) SearchAllFiles(r *http.Request) (any, error) {
	query, err := ParseRequestQueryParams[searchQuery](r)
	if err != nil {
		return nil, err
	}

	kind, typeFilter, terms, err := parseSearchQuery(query)
	if err != nil {
		return nil, err
	}

	files, err := s.searcher.Search(r.Context(), kind, typeFilter, terms)
	if err != nil {
		return nil, upstreamError(err)
	}

	return api.SearchResponse{Results: toFileResults(files)}, nil
}

func (s *BackendService) RunReport(r *http.Request) (any, error) {
	runId := chi.URLParam(r, "run_id")
	if runId == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "run_id is required")
	}

	query, err := ParseRequestQueryParams[reportQuery](r)
	if err != nil {
		return nil, err
	}

	report, err := s.reporter.Report(r.Context(), runId, s.recommender(query.Recommend, query.Headroom))
	if err != nil {
		return nil, upstreamError(err)
	}

	reportId := uuid.NewString()
	slog.Info("generated run report", "report_id", reportId, "run_id", runId, "groups", len(report.Groups))

	return api.RunReportResponse{
		ReportId:          reportId,
		RunId:             report.Run.Id,
		RunName:           report.Run.Name,
		Status:            report.Run.Status,
		OutputSizeBytes:   report.OutputSizeBytes,
		Groups:            toTaskGroups(report.Groups),
		TotalEstimatedUSD: report.TotalEstimatedUSD,
	}, nil
}

func (s *BackendService) CrossRunReport(r *http.Request) (any, error) {
	req, err := ParseRequest[api.CrossRunReportRequest](r)
	if err != nil {
		return nil, err
	}
	if len(req.RunIds) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "run_ids is required")
	}

	report, err := s.reporter.CrossRunReport(r.Context(), req.RunIds, s.recommender(req.Recommend, req.Headroom))
	if err != nil {
		return nil, upstreamError(err)
	}

	reportId := uuid.NewString()
	slog.Info("generated cross-run report", "report_id", reportId, "runs", report.RunCount)

	return api.CrossRunReportResponse{
		ReportId:          reportId,
		RunCount:          report.RunCount,
		Groups:            toTaskGroups(report.Groups),
		TotalEstimatedUSD: report.TotalEstimatedUSD,
	}, nil
}

func (s *BackendService) recommender(recommend bool, headroom float64) metrics.Recommender {
	if !recommend || s.catalog == nil {
		return nil
	}
	if headroom <= 0 {
		headroom = DefaultHeadroom
	}
	return metrics.NewCatalogRecommender(s.catalog, headroom)
}

func parseSearchQuery(query searchQuery) (omics.StoreKind, search.FileType, []string, error) {
	var kind omics.StoreKind
	switch query.Kind {
	case "", string(omics.SequenceStores):
		kind = omics.SequenceStores
	case string(omics.ReferenceStores):
		kind = omics.ReferenceStores
	default:
		return "", "", nil, CodedErrorf(http.StatusBadRequest, "invalid kind %q, must be %q or %q",
			query.Kind, omics.SequenceStores, omics.ReferenceStores)
	}

	var typeFilter search.FileType
	if query.FileType != "" {
		ft, ok := search.FileTypeFromString(query.FileType)
		if !ok {
			return "", "", nil, CodedErrorf(http.StatusBadRequest, "invalid file_type %q", query.FileType)
		}
		typeFilter = ft
	}

	return kind, typeFilter, splitTerms(query.Terms), nil
}

func splitTerms(raw string) []string {
	var terms []string
	for _, term := range strings.Split(raw, ",") {
		if term = strings.TrimSpace(term); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// upstreamError maps engine failures onto response codes: a missing resource
// is the caller's mistake, everything else is an upstream fault.
func upstreamError(err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return CodedError(http.StatusNotFound, err)
	}
	return CodedError(http.StatusBadGateway, err)
}
