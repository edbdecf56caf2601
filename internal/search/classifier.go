package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"omics-backend/internal/omics"
)

// Converter turns raw listing items into canonical Files. Account and region
// are resolved once per search call and only feed access-URI construction.
type Converter struct {
	client  omics.Client
	account string
	region  string
}

// Convert classifies one raw item. It returns SkipNone and a populated File
// when the item passes every predicate; any other SkipReason means the item
// is dropped. Enrichment lookups (tags, metadata) are best-effort: their
// failures degrade the record, they never reject it.
func (c *Converter) Convert(ctx context.Context, item omics.RawItem, store omics.Store, typeFilter FileType, terms []string) (File, SkipReason) {
	switch item.Kind {
	case omics.SequenceStores:
		if item.ReadSet == nil {
			return File{}, SkipMalformed
		}
		return c.convertReadSet(ctx, item.ReadSet, store, typeFilter, terms)
	case omics.ReferenceStores:
		if item.Reference == nil {
			return File{}, SkipMalformed
		}
		return c.convertReference(ctx, item.Reference, store, typeFilter, terms)
	default:
		return File{}, SkipMalformed
	}
}

func (c *Converter) convertReadSet(ctx context.Context, rs *omics.ReadSetItem, store omics.Store, typeFilter FileType, terms []string) (File, SkipReason) {
	if !activeStatus(rs.Status) {
		return File{}, SkipInactive
	}

	fileType := ParseFileType(rs.FileType)
	if typeFilter != "" && fileType != typeFilter {
		return File{}, SkipTypeMismatch
	}

	tags := c.resolveTags(ctx, rs.Arn)

	fields := append([]string{rs.Name, rs.Id, rs.Description, rs.SampleId, rs.SubjectId}, tagValues(tags)...)
	if !matchesSearchTerms(terms, fields...) {
		return File{}, SkipNoTermMatch
	}

	size := c.resolveSize(ctx, store, rs.Id, rs.SizeBytes)

	return File{
		Path:         c.accessURI(store.Id, "readSet", rs.Id, "source1"),
		FileType:     fileType,
		SizeBytes:    size,
		StorageClass: storageClass(rs.Status),
		LastModified: rs.CreationTime,
		Tags:         tags,
		SourceSystem: string(store.Kind),
		Metadata: map[string]any{
			"storeId":   store.Id,
			"storeName": store.Name,
			"itemId":    rs.Id,
			"status":    rs.Status,
			"sampleId":  rs.SampleId,
			"subjectId": rs.SubjectId,
		},
	}, SkipNone
}

func (c *Converter) convertReference(ctx context.Context, ref *omics.ReferenceItem, store omics.Store, typeFilter FileType, terms []string) (File, SkipReason) {
	if !activeStatus(ref.Status) {
		return File{}, SkipInactive
	}

	// Reference stores only hold FASTA entries.
	if typeFilter != "" && typeFilter != FileTypeFASTA {
		return File{}, SkipTypeMismatch
	}

	tags := c.resolveTags(ctx, ref.Arn)

	fields := append([]string{ref.Name, ref.Id, ref.Description}, tagValues(tags)...)
	if !matchesSearchTerms(terms, fields...) {
		return File{}, SkipNoTermMatch
	}

	size := c.resolveSize(ctx, store, ref.Id, nil)

	return File{
		Path:         c.accessURI(store.Id, "reference", ref.Id, "source"),
		FileType:     FileTypeFASTA,
		SizeBytes:    size,
		StorageClass: storageClass(ref.Status),
		LastModified: ref.CreationTime,
		Tags:         tags,
		SourceSystem: string(store.Kind),
		Metadata: map[string]any{
			"storeId":   store.Id,
			"storeName": store.Name,
			"itemId":    ref.Id,
			"status":    ref.Status,
		},
	}, SkipNone
}

// resolveTags fails soft: a tag lookup error yields empty tags, never a
// conversion failure.
func (c *Converter) resolveTags(ctx context.Context, arn string) map[string]string {
	if arn == "" {
		return map[string]string{}
	}
	tags, err := c.client.GetTags(ctx, arn)
	if err != nil {
		slog.Warn("tag lookup failed, continuing without tags", "arn", arn, "error", err)
		return map[string]string{}
	}
	if tags == nil {
		tags = map[string]string{}
	}
	return tags
}

// resolveSize prefers an explicit size on the item, then the detail lookup's
// source file content length, then zero. Lookup failures are swallowed.
func (c *Converter) resolveSize(ctx context.Context, store omics.Store, itemId string, explicit *int64) int64 {
	if explicit != nil {
		return *explicit
	}
	meta, err := c.client.GetMetadata(ctx, store, itemId)
	if err != nil {
		slog.Warn("metadata lookup failed, reporting zero size", "store_id", store.Id, "item_id", itemId, "error", err)
		return 0
	}
	return meta.SourceContentLength
}

func (c *Converter) accessURI(storeId, itemKind, itemId, file string) string {
	return fmt.Sprintf("omics://%s.storage.%s.amazonaws.com/%s/%s/%s/%s",
		c.account, c.region, storeId, itemKind, itemId, file)
}

// activeStatus decides the hard status filter. Archived items are still
// readable, only in colder storage, so they pass; an empty status (reference
// listings omit it in some regions) counts as active.
func activeStatus(status string) bool {
	return status == "" || status == "ACTIVE" || status == "ARCHIVED"
}

func storageClass(status string) string {
	if status == "ARCHIVED" {
		return "ARCHIVE"
	}
	return "STANDARD"
}

// matchesSearchTerms is the client-side term filter: with no terms everything
// matches; otherwise at least one term must appear, case-insensitively, in
// one of the candidate fields.
func matchesSearchTerms(terms []string, fields ...string) bool {
	if len(terms) == 0 {
		return true
	}
	for _, term := range terms {
		needle := strings.ToLower(term)
		if needle == "" {
			continue
		}
		for _, field := range fields {
			if field != "" && strings.Contains(strings.ToLower(field), needle) {
				return true
			}
		}
	}
	return false
}

func tagValues(tags map[string]string) []string {
	values := make([]string, 0, len(tags))
	for _, v := range tags {
		values = append(values, v)
	}
	return values
}
