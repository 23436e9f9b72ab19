package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// CEClient implements sonar.CEClient.
type CEClient struct {
	requester *requester
}

// NewCEClient creates a new compute engine client.
func NewCEClient(r *requester) *CEClient {
	return &CEClient{requester: r}
}

// Activity implements sonar.CEClient.Activity.
func (c *CEClient) Activity() *sonar.ActivityBuilder {
	return sonar.NewActivityBuilder(c.requester)
}

// Task implements sonar.CEClient.Task.
func (c *CEClient) Task(ctx context.Context, id string) (*sonar.Task, error) {
	err := requireKey("id", id)
	if err != nil {
		return nil, err
	}

	var resp sonar.TaskResponse

	err = c.requester.GetJSON(ctx, "/api/ce/task", url.Values{"id": {id}}, &resp)
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}

	return &resp.Task, nil
}

// Component implements sonar.CEClient.Component.
func (c *CEClient) Component(ctx context.Context, component string) (*sonar.ComponentTasksResponse, error) {
	err := requireKey("component", component)
	if err != nil {
		return nil, err
	}

	var resp sonar.ComponentTasksResponse

	err = c.requester.GetJSON(ctx, "/api/ce/component", url.Values{"component": {component}}, &resp)
	if err != nil {
		return nil, fmt.Errorf("getting component tasks: %w", err)
	}

	return &resp, nil
}

// ActivityStatus implements sonar.CEClient.ActivityStatus. An empty
// component counts tasks across the instance.
func (c *CEClient) ActivityStatus(ctx context.Context, component string) (*sonar.ActivityStatusResponse, error) {
	var resp sonar.ActivityStatusResponse

	err := c.requester.GetJSON(ctx, "/api/ce/activity_status", newForm().set("component", component).values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("getting activity status: %w", err)
	}

	return &resp, nil
}

// WaitForTask implements sonar.CEClient.WaitForTask. The wait between
// polls grows exponentially from the initial to the maximum interval.
func (c *CEClient) WaitForTask(ctx context.Context, id string, opts *sonar.WaitOptions) (*sonar.Task, error) {
	policy, timeout := waitPolicy(opts)

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	task, err := c.Task(pollCtx, id)
	if err != nil {
		return nil, fmt.Errorf("getting task status: %w", err)
	}

	for !task.Done() {
		timer := time.NewTimer(policy.NextBackOff())

		select {
		case <-pollCtx.Done():
			timer.Stop()

			return task, fmt.Errorf("timeout waiting for task %s: %w", id, pollCtx.Err())
		case <-timer.C:
		}

		next, taskErr := c.Task(pollCtx, id)
		if taskErr != nil {
			if pollCtx.Err() != nil {
				return task, fmt.Errorf("timeout waiting for task %s: %w", id, pollCtx.Err())
			}

			return nil, fmt.Errorf("getting task status: %w", taskErr)
		}

		task = next
	}

	if task.Status != constants.TaskStatusSuccess {
		return task, fmt.Errorf("%w: task %s is %s%s", sonar.ErrTaskFailed, id, task.Status, taskDetail(task))
	}

	return task, nil
}

func waitPolicy(opts *sonar.WaitOptions) (*backoff.ExponentialBackOff, time.Duration) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = constants.DefaultPollInterval
	policy.MaxInterval = constants.MaxPollInterval
	policy.MaxElapsedTime = 0
	timeout := constants.DefaultTaskPollTimeout

	if opts != nil {
		if opts.InitialInterval > 0 {
			policy.InitialInterval = opts.InitialInterval
		}

		if opts.MaxInterval > 0 {
			policy.MaxInterval = opts.MaxInterval
		}

		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
	}

	policy.Reset()

	return policy, timeout
}

func taskDetail(task *sonar.Task) string {
	if task.ErrorMessage == "" {
		return ""
	}

	return ": " + strings.TrimSpace(task.ErrorMessage)
}
