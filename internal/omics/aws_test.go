package omics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsomics "github.com/aws/aws-sdk-go-v2/service/omics"
	"github.com/aws/aws-sdk-go-v2/service/omics/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOmicsApi struct {
	seqPages []*awsomics.ListSequenceStoresOutput
	refPages []*awsomics.ListReferenceStoresOutput
	seqCall  int
	refCall  int
	listErr  error

	readSetsOut   *awsomics.ListReadSetsOutput
	readSetsIn    *awsomics.ListReadSetsInput
	referencesOut *awsomics.ListReferencesOutput
	referencesIn  *awsomics.ListReferencesInput

	tags    map[string]string
	tagsErr error

	readSetMeta   *awsomics.GetReadSetMetadataOutput
	referenceMeta *awsomics.GetReferenceMetadataOutput
}

func (f *fakeOmicsApi) ListSequenceStores(ctx context.Context, params *awsomics.ListSequenceStoresInput, optFns ...func(*awsomics.Options)) (*awsomics.ListSequenceStoresOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.seqPages[f.seqCall]
	f.seqCall++
	return out, nil
}

func (f *fakeOmicsApi) ListReferenceStores(ctx context.Context, params *awsomics.ListReferenceStoresInput, optFns ...func(*awsomics.Options)) (*awsomics.ListReferenceStoresOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.refPages[f.refCall]
	f.refCall++
	return out, nil
}

func (f *fakeOmicsApi) ListReadSets(ctx context.Context, params *awsomics.ListReadSetsInput, optFns ...func(*awsomics.Options)) (*awsomics.ListReadSetsOutput, error) {
	f.readSetsIn = params
	return f.readSetsOut, nil
}

func (f *fakeOmicsApi) ListReferences(ctx context.Context, params *awsomics.ListReferencesInput, optFns ...func(*awsomics.Options)) (*awsomics.ListReferencesOutput, error) {
	f.referencesIn = params
	return f.referencesOut, nil
}

func (f *fakeOmicsApi) ListTagsForResource(ctx context.Context, params *awsomics.ListTagsForResourceInput, optFns ...func(*awsomics.Options)) (*awsomics.ListTagsForResourceOutput, error) {
	if f.tagsErr != nil {
		return nil, f.tagsErr
	}
	return &awsomics.ListTagsForResourceOutput{Tags: f.tags}, nil
}

func (f *fakeOmicsApi) GetReadSetMetadata(ctx context.Context, params *awsomics.GetReadSetMetadataInput, optFns ...func(*awsomics.Options)) (*awsomics.GetReadSetMetadataOutput, error) {
	return f.readSetMeta, nil
}

func (f *fakeOmicsApi) GetReferenceMetadata(ctx context.Context, params *awsomics.GetReferenceMetadataInput, optFns ...func(*awsomics.Options)) (*awsomics.GetReferenceMetadataOutput, error) {
	return f.referenceMeta, nil
}

type fakeStsApi struct {
	account string
	err     error
	calls   int
}

func (f *fakeStsApi) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &sts.GetCallerIdentityOutput{Account: aws.String(f.account)}, nil
}

func TestListStoresFollowsPagination(t *testing.T) {
	api := &fakeOmicsApi{seqPages: []*awsomics.ListSequenceStoresOutput{
		{
			SequenceStores: []types.SequenceStoreDetail{{Id: aws.String("s1"), Name: aws.String("first")}},
			NextToken:      aws.String("page2"),
		},
		{
			SequenceStores: []types.SequenceStoreDetail{{Id: aws.String("s2"), Name: aws.String("second")}},
		},
	}}
	client := NewFromClients(api, &fakeStsApi{}, "us-east-1")

	stores, err := client.ListStores(context.Background(), SequenceStores)
	require.NoError(t, err)

	require.Len(t, stores, 2)
	assert.Equal(t, "s1", stores[0].Id)
	assert.Equal(t, "s2", stores[1].Id)
	assert.Equal(t, SequenceStores, stores[0].Kind)
	assert.Equal(t, 2, api.seqCall)
}

func TestListStoresReferenceKind(t *testing.T) {
	api := &fakeOmicsApi{refPages: []*awsomics.ListReferenceStoresOutput{
		{ReferenceStores: []types.ReferenceStoreDetail{{Id: aws.String("r1"), Name: aws.String("refs")}}},
	}}
	client := NewFromClients(api, &fakeStsApi{}, "us-east-1")

	stores, err := client.ListStores(context.Background(), ReferenceStores)
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, ReferenceStores, stores[0].Kind)
	assert.Zero(t, api.seqCall)
}

func TestListStoresFailure(t *testing.T) {
	api := &fakeOmicsApi{listErr: errors.New("access denied")}
	client := NewFromClients(api, &fakeStsApi{}, "us-east-1")

	_, err := client.ListStores(context.Background(), SequenceStores)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestFetchReadSetPageMapsFields(t *testing.T) {
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeOmicsApi{readSetsOut: &awsomics.ListReadSetsOutput{
		ReadSets: []types.ReadSetListItem{{
			Id:           aws.String("rs1"),
			Arn:          aws.String("arn:aws:omics:rs1"),
			Name:         aws.String("NA12878"),
			Description:  aws.String("whole genome"),
			Status:       types.ReadSetStatusActive,
			FileType:     types.FileTypeBam,
			SampleId:     aws.String("SAMP-1"),
			SubjectId:    aws.String("SUBJ-1"),
			CreationTime: aws.Time(created),
		}},
		NextToken: aws.String("more"),
	}}
	client := NewFromClients(api, &fakeStsApi{}, "us-east-1")

	page, err := client.FetchPage(context.Background(), Store{Id: "s1", Kind: SequenceStores}, "NA128", "tok", 50)
	require.NoError(t, err)

	assert.Equal(t, "more", page.NextToken)
	require.Len(t, page.Items, 1)

	item := page.Items[0]
	assert.Equal(t, SequenceStores, item.Kind)
	require.NotNil(t, item.ReadSet)
	assert.Equal(t, "rs1", item.ReadSet.Id)
	assert.Equal(t, "NA12878", item.ReadSet.Name)
	assert.Equal(t, "ACTIVE", item.ReadSet.Status)
	assert.Equal(t, "BAM", item.ReadSet.FileType)
	assert.Equal(t, "SAMP-1", item.ReadSet.SampleId)
	assert.Equal(t, created, item.ReadSet.CreationTime)

	// Input must carry the store, name filter, resume token and page size.
	require.NotNil(t, api.readSetsIn)
	assert.Equal(t, "s1", aws.ToString(api.readSetsIn.SequenceStoreId))
	require.NotNil(t, api.readSetsIn.Filter)
	assert.Equal(t, "NA128", aws.ToString(api.readSetsIn.Filter.Name))
	assert.Equal(t, "tok", aws.ToString(api.readSetsIn.NextToken))
	assert.Equal(t, int32(50), aws.ToInt32(api.readSetsIn.MaxResults))
}

func TestFetchReadSetPageOmitsEmptyFilterAndToken(t *testing.T) {
	api := &fakeOmicsApi{readSetsOut: &awsomics.ListReadSetsOutput{}}
	client := NewFromClients(api, &fakeStsApi{}, "us-east-1")

	page, err := client.FetchPage(context.Background(), Store{Id: "s1", Kind: SequenceStores}, "", "", 10)
	require.NoError(t, err)
	assert.Empty(t, page.NextToken)
	assert.Nil(t, api.readSetsIn.Filter)
	assert.Nil(t, api.readSetsIn.NextToken)
}

func TestFetchReferencePage(t *testing.T) {
	api := &fakeOmicsApi{referencesOut: &awsomics.ListReferencesOutput{
		References: []types.ReferenceListItem{{
			Id:     aws.String("ref1"),
			Name:   aws.String("GRCh38"),
			Status: types.ReferenceStatusActive,
		}},
	}}
	client := NewFromClients(api, &fakeStsApi{}, "us-east-1")

	page, err := client.FetchPage(context.Background(), Store{Id: "r1", Kind: ReferenceStores}, "GRC", "", 10)
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, ReferenceStores, page.Items[0].Kind)
	require.NotNil(t, page.Items[0].Reference)
	assert.Equal(t, "GRCh38", page.Items[0].Reference.Name)

	require.NotNil(t, api.referencesIn.Filter)
	assert.Equal(t, "GRC", aws.ToString(api.referencesIn.Filter.Name))
}

func TestGetTags(t *testing.T) {
	api := &fakeOmicsApi{tags: map[string]string{"project": "wgs"}}
	client := NewFromClients(api, &fakeStsApi{}, "us-east-1")

	tags, err := client.GetTags(context.Background(), "arn:aws:omics:rs1")
	require.NoError(t, err)
	assert.Equal(t, "wgs", tags["project"])
}

func TestGetMetadataReadSet(t *testing.T) {
	api := &fakeOmicsApi{readSetMeta: &awsomics.GetReadSetMetadataOutput{
		Files: &types.ReadSetFiles{Source1: &types.FileInformation{ContentLength: aws.Int64(4096)}},
	}}
	client := NewFromClients(api, &fakeStsApi{}, "us-east-1")

	meta, err := client.GetMetadata(context.Background(), Store{Id: "s1", Kind: SequenceStores}, "rs1")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), meta.SourceContentLength)
}

func TestGetMetadataReference(t *testing.T) {
	api := &fakeOmicsApi{referenceMeta: &awsomics.GetReferenceMetadataOutput{
		Files: &types.ReferenceFiles{Source: &types.FileInformation{ContentLength: aws.Int64(1024)}},
	}}
	client := NewFromClients(api, &fakeStsApi{}, "us-east-1")

	meta, err := client.GetMetadata(context.Background(), Store{Id: "r1", Kind: ReferenceStores}, "ref1")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), meta.SourceContentLength)
}

func TestGetMetadataMissingFiles(t *testing.T) {
	api := &fakeOmicsApi{readSetMeta: &awsomics.GetReadSetMetadataOutput{}}
	client := NewFromClients(api, &fakeStsApi{}, "us-east-1")

	meta, err := client.GetMetadata(context.Background(), Store{Id: "s1", Kind: SequenceStores}, "rs1")
	require.NoError(t, err)
	assert.Zero(t, meta.SourceContentLength)
}

func TestAccountIdCachedAfterFirstCall(t *testing.T) {
	stsApi := &fakeStsApi{account: "123456789012"}
	client := NewFromClients(&fakeOmicsApi{}, stsApi, "us-east-1")

	for i := 0; i < 3; i++ {
		account, err := client.AccountId(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "123456789012", account)
	}
	assert.Equal(t, 1, stsApi.calls)
}

func TestAccountIdError(t *testing.T) {
	stsApi := &fakeStsApi{err: errors.New("no credentials")}
	client := NewFromClients(&fakeOmicsApi{}, stsApi, "us-east-1")

	_, err := client.AccountId(context.Background())
	require.Error(t, err)
}

func TestRegion(t *testing.T) {
	client := NewFromClients(&fakeOmicsApi{}, &fakeStsApi{}, "eu-west-2")
	assert.Equal(t, "eu-west-2", client.Region())
}
