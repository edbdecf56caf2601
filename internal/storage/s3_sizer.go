package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PrefixSizer totals the byte size of every object under an s3:// prefix.
// Used to report how much output a workflow run left behind.
type PrefixSizer struct {
	client s3.ListObjectsV2APIClient
}

func NewPrefixSizer(client s3.ListObjectsV2APIClient) *PrefixSizer {
	return &PrefixSizer{client: client}
}

// TotalSize sums object sizes under uri, which must be of the form
// s3://bucket/prefix.
func (s *PrefixSizer) TotalSize(ctx context.Context, uri string) (int64, error) {
	bucket, prefix, err := parseS3Uri(uri)
	if err != nil {
		return 0, err
	}

	var total int64

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list objects in bucket %s with prefix %s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			total += aws.ToInt64(obj.Size)
		}
	}

	return total, nil
}

func parseS3Uri(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %s", uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 uri missing bucket: %s", uri)
	}
	return bucket, prefix, nil
}
