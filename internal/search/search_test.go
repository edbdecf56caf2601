package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"omics-backend/internal/omics"
)

// fakeClient implements omics.Client over in-memory stores. FetchPage
// honors pageSize and emulates the service-side name filter as a
// case-insensitive substring match on the item name.
type fakeClient struct {
	mu sync.Mutex

	stores  []omics.Store
	listErr error

	items    map[string][]omics.RawItem // store id -> all items
	fetchErr map[string]error           // store id -> forced fetch failure

	tags    map[string]map[string]string // arn -> tags
	tagsErr error

	meta    map[string]omics.ItemMetadata // item id -> metadata
	metaErr error

	filteredCalls   map[string]int
	unfilteredCalls map[string]int
}

var _ omics.Client = (*fakeClient)(nil)

func newFakeClient(stores ...omics.Store) *fakeClient {
	return &fakeClient{
		stores:          stores,
		items:           make(map[string][]omics.RawItem),
		fetchErr:        make(map[string]error),
		tags:            make(map[string]map[string]string),
		meta:            make(map[string]omics.ItemMetadata),
		filteredCalls:   make(map[string]int),
		unfilteredCalls: make(map[string]int),
	}
}

func (f *fakeClient) ListStores(ctx context.Context, kind omics.StoreKind) ([]omics.Store, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var stores []omics.Store
	for _, s := range f.stores {
		if s.Kind == kind {
			stores = append(stores, s)
		}
	}
	return stores, nil
}

func (f *fakeClient) FetchPage(ctx context.Context, store omics.Store, filterName, pageToken string, pageSize int32) (omics.Page, error) {
	if err := ctx.Err(); err != nil {
		return omics.Page{}, err
	}

	f.mu.Lock()
	if filterName == "" {
		f.unfilteredCalls[store.Id]++
	} else {
		f.filteredCalls[store.Id]++
	}
	err := f.fetchErr[store.Id]
	f.mu.Unlock()
	if err != nil {
		return omics.Page{}, err
	}

	var matched []omics.RawItem
	for _, item := range f.items[store.Id] {
		if filterName == "" || strings.Contains(strings.ToLower(itemName(item)), strings.ToLower(filterName)) {
			matched = append(matched, item)
		}
	}

	offset := 0
	if pageToken != "" {
		offset, _ = strconv.Atoi(pageToken)
	}
	if offset >= len(matched) {
		return omics.Page{}, nil
	}

	end := offset + int(pageSize)
	if end > len(matched) {
		end = len(matched)
	}

	page := omics.Page{Items: matched[offset:end]}
	if end < len(matched) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeClient) GetTags(ctx context.Context, arn string) (map[string]string, error) {
	if f.tagsErr != nil {
		return nil, f.tagsErr
	}
	return f.tags[arn], nil
}

func (f *fakeClient) GetMetadata(ctx context.Context, store omics.Store, itemId string) (omics.ItemMetadata, error) {
	if f.metaErr != nil {
		return omics.ItemMetadata{}, f.metaErr
	}
	return f.meta[itemId], nil
}

func (f *fakeClient) AccountId(ctx context.Context) (string, error) {
	return "123456789012", nil
}

func (f *fakeClient) Region() string {
	return "us-east-1"
}

func itemName(item omics.RawItem) string {
	switch {
	case item.ReadSet != nil:
		return item.ReadSet.Name
	case item.Reference != nil:
		return item.Reference.Name
	default:
		return ""
	}
}

func seqStore(id string) omics.Store {
	return omics.Store{Id: id, Arn: "arn:aws:omics:us-east-1:123456789012:sequenceStore/" + id, Name: "store-" + id, Kind: omics.SequenceStores, CreationTime: time.Now()}
}

func readSet(id, name string, opts ...func(*omics.ReadSetItem)) omics.RawItem {
	rs := &omics.ReadSetItem{
		Id:           id,
		Arn:          "arn:aws:omics:us-east-1:123456789012:sequenceStore/s1/readSet/" + id,
		Name:         name,
		Status:       "ACTIVE",
		FileType:     "FASTQ",
		CreationTime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(rs)
	}
	return omics.RawItem{Kind: omics.SequenceStores, ReadSet: rs}
}

func withStatus(status string) func(*omics.ReadSetItem) {
	return func(rs *omics.ReadSetItem) { rs.Status = status }
}

func withFileType(ft string) func(*omics.ReadSetItem) {
	return func(rs *omics.ReadSetItem) { rs.FileType = ft }
}

func withDescription(desc string) func(*omics.ReadSetItem) {
	return func(rs *omics.ReadSetItem) { rs.Description = desc }
}

func withSample(sampleId, subjectId string) func(*omics.ReadSetItem) {
	return func(rs *omics.ReadSetItem) { rs.SampleId = sampleId; rs.SubjectId = subjectId }
}

func withSize(n int64) func(*omics.ReadSetItem) {
	return func(rs *omics.ReadSetItem) { rs.SizeBytes = &n }
}

func nReadSets(n int) []omics.RawItem {
	items := make([]omics.RawItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, readSet(fmt.Sprintf("rs%03d", i), fmt.Sprintf("sample-%03d", i)))
	}
	return items
}
