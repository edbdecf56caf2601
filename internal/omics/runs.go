package omics

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/omics"
)

// Run is a snapshot of one workflow run.
type Run struct {
	Id           string
	Uuid         string
	Name         string
	Status       string
	WorkflowId   string
	OutputUri    string
	CreationTime time.Time
	StartTime    time.Time
	StopTime     time.Time
}

// RunTask is one task instance of a run, with its resource allocation.
type RunTask struct {
	TaskId       string
	Name         string
	Status       string
	Cpus         int32
	Gpus         int32
	MemoryGiB    int32
	CreationTime time.Time
	StartTime    time.Time
	StopTime     time.Time
}

// RunClient is the run/task listing surface consumed by the cost analyzer.
type RunClient interface {
	GetRun(ctx context.Context, runId string) (Run, error)
	ListRunTasks(ctx context.Context, runId string) ([]RunTask, error)
}

type RunsApi interface {
	GetRun(ctx context.Context, params *omics.GetRunInput, optFns ...func(*omics.Options)) (*omics.GetRunOutput, error)
	ListRunTasks(ctx context.Context, params *omics.ListRunTasksInput, optFns ...func(*omics.Options)) (*omics.ListRunTasksOutput, error)
}

// AWSRunClient implements RunClient against the HealthOmics run APIs.
type AWSRunClient struct {
	omics RunsApi
}

var _ RunClient = (*AWSRunClient)(nil)

func NewAWSRunClient(client RunsApi) *AWSRunClient {
	return &AWSRunClient{omics: client}
}

func (c *AWSRunClient) GetRun(ctx context.Context, runId string) (Run, error) {
	out, err := c.omics.GetRun(ctx, &omics.GetRunInput{Id: aws.String(runId)})
	if err != nil {
		return Run{}, fmt.Errorf("failed to get run %s: %w", runId, err)
	}

	return Run{
		Id:           aws.ToString(out.Id),
		Uuid:         aws.ToString(out.Uuid),
		Name:         aws.ToString(out.Name),
		Status:       string(out.Status),
		WorkflowId:   aws.ToString(out.WorkflowId),
		OutputUri:    aws.ToString(out.OutputUri),
		CreationTime: aws.ToTime(out.CreationTime),
		StartTime:    aws.ToTime(out.StartTime),
		StopTime:     aws.ToTime(out.StopTime),
	}, nil
}

func (c *AWSRunClient) ListRunTasks(ctx context.Context, runId string) ([]RunTask, error) {
	var tasks []RunTask
	var startingToken *string

	for {
		out, err := c.omics.ListRunTasks(ctx, &omics.ListRunTasksInput{
			Id:            aws.String(runId),
			StartingToken: startingToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks for run %s: %w", runId, err)
		}

		for _, item := range out.Items {
			tasks = append(tasks, RunTask{
				TaskId:       aws.ToString(item.TaskId),
				Name:         aws.ToString(item.Name),
				Status:       string(item.Status),
				Cpus:         aws.ToInt32(item.Cpus),
				Gpus:         aws.ToInt32(item.Gpus),
				MemoryGiB:    aws.ToInt32(item.Memory),
				CreationTime: aws.ToTime(item.CreationTime),
				StartTime:    aws.ToTime(item.StartTime),
				StopTime:     aws.ToTime(item.StopTime),
			})
		}

		if out.NextToken == nil {
			return tasks, nil
		}
		startingToken = out.NextToken
	}
}
