package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	pages  [][]int64
	inputs []*s3.ListObjectsV2Input
	err    error

	call int
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}

	sizes := f.pages[f.call]
	f.call++

	out := &s3.ListObjectsV2Output{}
	for _, size := range sizes {
		out.Contents = append(out.Contents, types.Object{Size: aws.Int64(size)})
	}
	if f.call < len(f.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String("next")
	}
	return out, nil
}

func TestTotalSizeSumsAcrossPages(t *testing.T) {
	client := &fakeS3{pages: [][]int64{{100, 200}, {300}, {}}}
	sizer := NewPrefixSizer(client)

	total, err := sizer.TotalSize(context.Background(), "s3://bucket/out/run-1/")
	require.NoError(t, err)
	assert.Equal(t, int64(600), total)

	require.NotEmpty(t, client.inputs)
	assert.Equal(t, "bucket", aws.ToString(client.inputs[0].Bucket))
	assert.Equal(t, "out/run-1/", aws.ToString(client.inputs[0].Prefix))
	assert.Len(t, client.inputs, 3)
}

func TestTotalSizeEmptyPrefix(t *testing.T) {
	client := &fakeS3{pages: [][]int64{{}}}
	sizer := NewPrefixSizer(client)

	total, err := sizer.TotalSize(context.Background(), "s3://bucket")
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, aws.ToString(client.inputs[0].Prefix))
}

func TestTotalSizeListFailure(t *testing.T) {
	client := &fakeS3{err: errors.New("access denied")}
	sizer := NewPrefixSizer(client)

	_, err := sizer.TotalSize(context.Background(), "s3://bucket/prefix")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestTotalSizeRejectsBadUri(t *testing.T) {
	client := &fakeS3{}
	sizer := NewPrefixSizer(client)
	for _, uri := range []string{"", "https://bucket/x", "s3://"} {
		_, err := sizer.TotalSize(context.Background(), uri)
		assert.Error(t, err, "uri %q", uri)
	}
	assert.Empty(t, client.inputs, "bad uris must not reach s3")
}

func TestParseS3Uri(t *testing.T) {
	bucket, prefix, err := parseS3Uri("s3://my-bucket/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "a/b/c", prefix)

	bucket, prefix, err = parseS3Uri("s3://my-bucket")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Empty(t, prefix)
}
