package omics

import (
	"context"
	"time"
)

// StoreKind selects which family of HealthOmics stores a call operates on.
type StoreKind string

const (
	SequenceStores  StoreKind = "sequence"
	ReferenceStores StoreKind = "reference"
)

// Store is an immutable snapshot of one sequence or reference store.
type Store struct {
	Id           string
	Arn          string
	Name         string
	Kind         StoreKind
	CreationTime time.Time
}

// ReadSetItem is one entry from a sequence store listing.
type ReadSetItem struct {
	Id           string
	Arn          string
	Name         string
	Description  string
	Status       string
	FileType     string
	SampleId     string
	SubjectId    string
	SizeBytes    *int64
	CreationTime time.Time
}

// ReferenceItem is one entry from a reference store listing.
type ReferenceItem struct {
	Id           string
	Arn          string
	Name         string
	Description  string
	Status       string
	CreationTime time.Time
}

// RawItem is a tagged union over the per-kind listing entries. Exactly one of
// ReadSet/Reference is set, matching Kind.
type RawItem struct {
	Kind      StoreKind
	ReadSet   *ReadSetItem
	Reference *ReferenceItem
}

// Page is one page of a store listing. NextToken is empty when the listing is
// exhausted.
type Page struct {
	Items     []RawItem
	NextToken string
}

// ItemMetadata is the detail-lookup result used for size enrichment.
type ItemMetadata struct {
	// SourceContentLength is the byte length of the primary source file, or 0
	// when the upstream record does not report one.
	SourceContentLength int64
}

// Client is the upstream resource API consumed by the search engine. Errors
// returned from these calls are transport or validation failures from the
// service; the client performs no retries of its own.
type Client interface {
	// ListStores returns every store of the given kind, in service order.
	ListStores(ctx context.Context, kind StoreKind) ([]Store, error)

	// FetchPage lists one page of items from a store. A non-empty filterName
	// applies the service-side name filter; pageToken resumes a prior listing.
	FetchPage(ctx context.Context, store Store, filterName, pageToken string, pageSize int32) (Page, error)

	// GetTags returns the tags attached to a resource ARN.
	GetTags(ctx context.Context, arn string) (map[string]string, error)

	// GetMetadata returns detail metadata for one item in a store.
	GetMetadata(ctx context.Context, store Store, itemId string) (ItemMetadata, error)

	// AccountId returns the calling AWS account id.
	AccountId(ctx context.Context) (string, error)

	// Region returns the region the client is bound to.
	Region() string
}
