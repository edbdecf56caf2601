package omics

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
)

const workflowLogGroup = "/aws/omics/WorkflowLog"

type LogsApi interface {
	GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

// ManifestClient reads the post-run manifest log stream, which carries one
// JSON document per line with measured per-task utilization and cost.
type ManifestClient struct {
	logs LogsApi
}

func NewManifestClient(logs LogsApi) *ManifestClient {
	return &ManifestClient{logs: logs}
}

// ManifestLines returns the raw manifest lines for a completed run. The
// stream only exists once the run has finished.
func (c *ManifestClient) ManifestLines(ctx context.Context, runId, runUuid string) ([]string, error) {
	streamName := fmt.Sprintf("manifest/run/%s/%s", runId, runUuid)

	var lines []string
	var nextToken *string

	for {
		out, err := c.logs.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
			LogGroupName:  aws.String(workflowLogGroup),
			LogStreamName: aws.String(streamName),
			StartFromHead: aws.Bool(true),
			NextToken:     nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest stream %s: %w", streamName, err)
		}

		for _, event := range out.Events {
			lines = append(lines, aws.ToString(event.Message))
		}

		// GetLogEvents signals the end of the stream by returning the same
		// forward token that was passed in.
		if out.NextForwardToken == nil || (nextToken != nil && aws.ToString(out.NextForwardToken) == aws.ToString(nextToken)) {
			return lines, nil
		}
		nextToken = out.NextForwardToken
	}
}
