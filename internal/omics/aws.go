package omics

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/omics"
	"github.com/aws/aws-sdk-go-v2/service/omics/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// OmicsApi is the subset of the HealthOmics SDK surface the client uses.
// Narrowed to an interface so tests can substitute a fake.
type OmicsApi interface {
	ListSequenceStores(ctx context.Context, params *omics.ListSequenceStoresInput, optFns ...func(*omics.Options)) (*omics.ListSequenceStoresOutput, error)
	ListReferenceStores(ctx context.Context, params *omics.ListReferenceStoresInput, optFns ...func(*omics.Options)) (*omics.ListReferenceStoresOutput, error)
	ListReadSets(ctx context.Context, params *omics.ListReadSetsInput, optFns ...func(*omics.Options)) (*omics.ListReadSetsOutput, error)
	ListReferences(ctx context.Context, params *omics.ListReferencesInput, optFns ...func(*omics.Options)) (*omics.ListReferencesOutput, error)
	ListTagsForResource(ctx context.Context, params *omics.ListTagsForResourceInput, optFns ...func(*omics.Options)) (*omics.ListTagsForResourceOutput, error)
	GetReadSetMetadata(ctx context.Context, params *omics.GetReadSetMetadataInput, optFns ...func(*omics.Options)) (*omics.GetReadSetMetadataOutput, error)
	GetReferenceMetadata(ctx context.Context, params *omics.GetReferenceMetadataInput, optFns ...func(*omics.Options)) (*omics.GetReferenceMetadataOutput, error)
}

type StsApi interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// AWSClient implements Client against the HealthOmics and STS APIs.
type AWSClient struct {
	omics  OmicsApi
	sts    StsApi
	region string

	accountOnce sync.Once
	accountId   string
	accountErr  error
}

var _ Client = (*AWSClient)(nil)

// LoadAWSConfig resolves the SDK configuration shared by every AWS-backed
// client in the process.
func LoadAWSConfig(cfg *Config) (aws.Config, error) {
	var awsCfg aws.Config
	var err error

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = aws_config.LoadDefaultConfig(context.TODO(),
			aws_config.WithRegion(cfg.Region),
			aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		)
	} else {
		awsCfg, err = aws_config.LoadDefaultConfig(context.TODO(),
			aws_config.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

func NewAWSClient(cfg *Config) (*AWSClient, error) {
	awsCfg, err := LoadAWSConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewFromClients(omics.NewFromConfig(awsCfg), sts.NewFromConfig(awsCfg), awsCfg.Region), nil
}

func NewFromClients(omicsClient OmicsApi, stsClient StsApi, region string) *AWSClient {
	return &AWSClient{omics: omicsClient, sts: stsClient, region: region}
}

func (c *AWSClient) ListStores(ctx context.Context, kind StoreKind) ([]Store, error) {
	switch kind {
	case ReferenceStores:
		return c.listReferenceStores(ctx)
	default:
		return c.listSequenceStores(ctx)
	}
}

func (c *AWSClient) listSequenceStores(ctx context.Context) ([]Store, error) {
	var stores []Store
	var nextToken *string

	for {
		out, err := c.omics.ListSequenceStores(ctx, &omics.ListSequenceStoresInput{NextToken: nextToken})
		if err != nil {
			return nil, fmt.Errorf("failed to list sequence stores: %w", err)
		}
		for _, s := range out.SequenceStores {
			stores = append(stores, Store{
				Id:           aws.ToString(s.Id),
				Arn:          aws.ToString(s.Arn),
				Name:         aws.ToString(s.Name),
				Kind:         SequenceStores,
				CreationTime: aws.ToTime(s.CreationTime),
			})
		}
		if out.NextToken == nil {
			return stores, nil
		}
		nextToken = out.NextToken
	}
}

func (c *AWSClient) listReferenceStores(ctx context.Context) ([]Store, error) {
	var stores []Store
	var nextToken *string

	for {
		out, err := c.omics.ListReferenceStores(ctx, &omics.ListReferenceStoresInput{NextToken: nextToken})
		if err != nil {
			return nil, fmt.Errorf("failed to list reference stores: %w", err)
		}
		for _, s := range out.ReferenceStores {
			stores = append(stores, Store{
				Id:           aws.ToString(s.Id),
				Arn:          aws.ToString(s.Arn),
				Name:         aws.ToString(s.Name),
				Kind:         ReferenceStores,
				CreationTime: aws.ToTime(s.CreationTime),
			})
		}
		if out.NextToken == nil {
			return stores, nil
		}
		nextToken = out.NextToken
	}
}

func (c *AWSClient) FetchPage(ctx context.Context, store Store, filterName, pageToken string, pageSize int32) (Page, error) {
	if store.Kind == ReferenceStores {
		return c.fetchReferencePage(ctx, store, filterName, pageToken, pageSize)
	}
	return c.fetchReadSetPage(ctx, store, filterName, pageToken, pageSize)
}

func (c *AWSClient) fetchReadSetPage(ctx context.Context, store Store, filterName, pageToken string, pageSize int32) (Page, error) {
	input := &omics.ListReadSetsInput{
		SequenceStoreId: aws.String(store.Id),
		MaxResults:      aws.Int32(pageSize),
	}
	if filterName != "" {
		input.Filter = &types.ReadSetFilter{Name: aws.String(filterName)}
	}
	if pageToken != "" {
		input.NextToken = aws.String(pageToken)
	}

	out, err := c.omics.ListReadSets(ctx, input)
	if err != nil {
		return Page{}, fmt.Errorf("failed to list read sets in store %s: %w", store.Id, err)
	}

	page := Page{NextToken: aws.ToString(out.NextToken)}
	for _, rs := range out.ReadSets {
		page.Items = append(page.Items, RawItem{
			Kind: SequenceStores,
			ReadSet: &ReadSetItem{
				Id:           aws.ToString(rs.Id),
				Arn:          aws.ToString(rs.Arn),
				Name:         aws.ToString(rs.Name),
				Description:  aws.ToString(rs.Description),
				Status:       string(rs.Status),
				FileType:     string(rs.FileType),
				SampleId:     aws.ToString(rs.SampleId),
				SubjectId:    aws.ToString(rs.SubjectId),
				CreationTime: aws.ToTime(rs.CreationTime),
			},
		})
	}
	return page, nil
}

func (c *AWSClient) fetchReferencePage(ctx context.Context, store Store, filterName, pageToken string, pageSize int32) (Page, error) {
	input := &omics.ListReferencesInput{
		ReferenceStoreId: aws.String(store.Id),
		MaxResults:       aws.Int32(pageSize),
	}
	if filterName != "" {
		input.Filter = &types.ReferenceFilter{Name: aws.String(filterName)}
	}
	if pageToken != "" {
		input.NextToken = aws.String(pageToken)
	}

	out, err := c.omics.ListReferences(ctx, input)
	if err != nil {
		return Page{}, fmt.Errorf("failed to list references in store %s: %w", store.Id, err)
	}

	page := Page{NextToken: aws.ToString(out.NextToken)}
	for _, ref := range out.References {
		page.Items = append(page.Items, RawItem{
			Kind: ReferenceStores,
			Reference: &ReferenceItem{
				Id:           aws.ToString(ref.Id),
				Arn:          aws.ToString(ref.Arn),
				Name:         aws.ToString(ref.Name),
				Description:  aws.ToString(ref.Description),
				Status:       string(ref.Status),
				CreationTime: aws.ToTime(ref.CreationTime),
			},
		})
	}
	return page, nil
}

func (c *AWSClient) GetTags(ctx context.Context, arn string) (map[string]string, error) {
	out, err := c.omics.ListTagsForResource(ctx, &omics.ListTagsForResourceInput{ResourceArn: aws.String(arn)})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags for %s: %w", arn, err)
	}
	return out.Tags, nil
}

func (c *AWSClient) GetMetadata(ctx context.Context, store Store, itemId string) (ItemMetadata, error) {
	if store.Kind == ReferenceStores {
		out, err := c.omics.GetReferenceMetadata(ctx, &omics.GetReferenceMetadataInput{
			Id:               aws.String(itemId),
			ReferenceStoreId: aws.String(store.Id),
		})
		if err != nil {
			return ItemMetadata{}, fmt.Errorf("failed to get reference metadata for %s: %w", itemId, err)
		}
		var meta ItemMetadata
		if out.Files != nil && out.Files.Source != nil {
			meta.SourceContentLength = aws.ToInt64(out.Files.Source.ContentLength)
		}
		return meta, nil
	}

	out, err := c.omics.GetReadSetMetadata(ctx, &omics.GetReadSetMetadataInput{
		Id:              aws.String(itemId),
		SequenceStoreId: aws.String(store.Id),
	})
	if err != nil {
		return ItemMetadata{}, fmt.Errorf("failed to get read set metadata for %s: %w", itemId, err)
	}
	var meta ItemMetadata
	if out.Files != nil && out.Files.Source1 != nil {
		meta.SourceContentLength = aws.ToInt64(out.Files.Source1.ContentLength)
	}
	return meta, nil
}

func (c *AWSClient) AccountId(ctx context.Context) (string, error) {
	c.accountOnce.Do(func() {
		out, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		if err != nil {
			c.accountErr = fmt.Errorf("failed to get caller identity: %w", err)
			return
		}
		c.accountId = aws.ToString(out.Account)
	})
	return c.accountId, c.accountErr
}

func (c *AWSClient) Region() string {
	return c.region
}
