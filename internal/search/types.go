package search

import (
	"strings"
	"time"

	"omics-backend/internal/omics"
)

// FileType is the canonical genomics file type of a search result.
type FileType string

const (
	FileTypeFASTQ FileType = "FASTQ"
	FileTypeBAM   FileType = "BAM"
	FileTypeCRAM  FileType = "CRAM"
	FileTypeUBAM  FileType = "UBAM"
	FileTypeFASTA FileType = "FASTA"
)

// ParseFileType maps an upstream type token to the canonical enum. Unknown
// tokens map to FASTQ, the baseline type, so a new upstream token degrades a
// result instead of dropping it.
func ParseFileType(token string) FileType {
	switch strings.ToUpper(token) {
	case "FASTQ":
		return FileTypeFASTQ
	case "BAM":
		return FileTypeBAM
	case "CRAM":
		return FileTypeCRAM
	case "UBAM":
		return FileTypeUBAM
	case "FASTA":
		return FileTypeFASTA
	default:
		return FileTypeFASTQ
	}
}

// FileTypeFromString validates a caller-supplied type filter. Unlike
// ParseFileType it rejects unknown tokens instead of defaulting them.
func FileTypeFromString(s string) (FileType, bool) {
	switch ft := FileType(strings.ToUpper(s)); ft {
	case FileTypeFASTQ, FileTypeBAM, FileTypeCRAM, FileTypeUBAM, FileTypeFASTA:
		return ft, true
	default:
		return "", false
	}
}

// File is the canonical record produced for each matching item. Immutable
// once returned.
type File struct {
	Path         string
	FileType     FileType
	SizeBytes    int64
	StorageClass string
	LastModified time.Time
	Tags         map[string]string
	SourceSystem string
	Metadata     map[string]any
}

// ResultPage is one page of paginated search results. NextToken is an opaque
// continuation token, empty when HasMore is false.
type ResultPage struct {
	Results   []File
	NextToken string
	HasMore   bool
}

// SearchParams are the inputs to a paginated search call.
type SearchParams struct {
	Kind       omics.StoreKind
	TypeFilter FileType // empty means no type filtering
	Terms      []string
	NextToken  string
	MaxResults int
}

// SkipReason explains why the classifier rejected one item. It is inspected
// only for logging; callers branch solely on keep vs skip.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipInactive
	SkipTypeMismatch
	SkipNoTermMatch
	SkipMalformed
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipInactive:
		return "inactive"
	case SkipTypeMismatch:
		return "type_mismatch"
	case SkipNoTermMatch:
		return "no_term_match"
	case SkipMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}
