package sonar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrTransactionFailed  = errors.New("transaction failed")
	ErrBatchOperationFunc = errors.New("batch operation has no run function")
)

// BatchOperation represents a single operation in a batch.
type BatchOperation struct {
	ID string
	// Run performs the operation and returns its result.
	Run func(ctx context.Context, client Client) (interface{}, error)
	// Rollback undoes a successful Run; data is what Run returned. Optional.
	Rollback func(ctx context.Context, client Client, data interface{}) error
	Callback func(result *BatchResult)
}

// BatchResult represents the result of a batch operation.
type BatchResult struct {
	ID       string
	Success  bool
	Data     interface{}
	Error    error
	Duration time.Duration
}

// BatchResults are the results of a batch in operation order.
type BatchResults []BatchResult

// Failed returns the IDs of the failed operations.
func (r BatchResults) Failed() []string {
	var failed []string

	for _, result := range r {
		if !result.Success {
			failed = append(failed, result.ID)
		}
	}

	return failed
}

// Err aggregates the failures, or returns nil when every operation succeeded.
func (r BatchResults) Err() error {
	var result *multierror.Error

	for _, res := range r {
		if res.Error != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", res.ID, res.Error))
		}
	}

	return result.ErrorOrNil()
}

// BatchExecutor executes batch operations.
type BatchExecutor struct {
	client      Client
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(client Client, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &BatchExecutor{
		client:      client,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the per-operation timeout.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs a batch of operations. Every operation runs even when others
// fail; the returned error aggregates the failures.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) (BatchResults, error) {
	results := make(BatchResults, len(operations))

	var group errgroup.Group

	group.SetLimit(b.concurrency)

	for index, operation := range operations {
		group.Go(func() error {
			opCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			start := time.Now()
			result := b.executeOperation(opCtx, operation)
			result.Duration = time.Since(start)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}

			return nil
		})
	}

	_ = group.Wait()

	return results, results.Err()
}

func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	result := &BatchResult{ID: operation.ID}

	if operation.Run == nil {
		result.Error = ErrBatchOperationFunc

		return result
	}

	data, err := operation.Run(ctx, b.client)
	result.Success = err == nil
	result.Data = data
	result.Error = err

	return result
}

// BatchBuilder helps build batch operations.
type BatchBuilder struct {
	operations []BatchOperation
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{
		operations: make([]BatchOperation, 0),
	}
}

// AddCreateProject adds a project creation; rollback deletes the project.
func (b *BatchBuilder) AddCreateProject(id string, request *ProjectCreateRequest) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID: id,
		Run: func(ctx context.Context, client Client) (interface{}, error) {
			return client.Projects().Create(ctx, request)
		},
		Rollback: func(ctx context.Context, client Client, data interface{}) error {
			project, ok := data.(*Project)
			if !ok || project == nil {
				return nil
			}

			return client.Projects().Delete(ctx, project.Key)
		},
	})

	return b
}

// AddDeleteProject adds a project deletion.
func (b *BatchBuilder) AddDeleteProject(id, project string) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID: id,
		Run: func(ctx context.Context, client Client) (interface{}, error) {
			return nil, client.Projects().Delete(ctx, project)
		},
	})

	return b
}

// AddSetProjectTags adds a tag replacement on a project.
func (b *BatchBuilder) AddSetProjectTags(id, project string, tags []string) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID: id,
		Run: func(ctx context.Context, client Client) (interface{}, error) {
			return nil, client.ProjectTags().Set(ctx, project, tags)
		},
	})

	return b
}

// AddSelectQualityGate associates a project with a quality gate.
func (b *BatchBuilder) AddSelectQualityGate(id, gateName, project string) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID: id,
		Run: func(ctx context.Context, client Client) (interface{}, error) {
			return nil, client.QualityGates().Select(ctx, gateName, project)
		},
	})

	return b
}

// AddCreateWebhook adds a webhook creation; rollback deletes the webhook.
func (b *BatchBuilder) AddCreateWebhook(id string, request *WebhookCreateRequest) *BatchBuilder {
	b.operations = append(b.operations, BatchOperation{
		ID: id,
		Run: func(ctx context.Context, client Client) (interface{}, error) {
			return client.Webhooks().Create(ctx, request)
		},
		Rollback: func(ctx context.Context, client Client, data interface{}) error {
			webhook, ok := data.(*Webhook)
			if !ok || webhook == nil {
				return nil
			}

			return client.Webhooks().Delete(ctx, webhook.Key)
		},
	})

	return b
}

// AddOperation adds a custom operation.
func (b *BatchBuilder) AddOperation(operation BatchOperation) *BatchBuilder {
	b.operations = append(b.operations, operation)

	return b
}

// Build returns the built operations.
func (b *BatchBuilder) Build() []BatchOperation {
	return b.operations
}

// BatchTransaction represents a transactional batch of operations.
type BatchTransaction struct {
	operations []BatchOperation
	executor   *BatchExecutor
	rollback   bool
}

// NewBatchTransaction creates a new batch transaction.
func NewBatchTransaction(executor *BatchExecutor) *BatchTransaction {
	return &BatchTransaction{
		executor:   executor,
		operations: make([]BatchOperation, 0),
		rollback:   true,
	}
}

// Add adds an operation to the transaction.
func (t *BatchTransaction) Add(operation BatchOperation) *BatchTransaction {
	t.operations = append(t.operations, operation)

	return t
}

// SetRollback sets whether to rollback on failure.
func (t *BatchTransaction) SetRollback(rollback bool) *BatchTransaction {
	t.rollback = rollback

	return t
}

// Execute executes the transaction. When an operation fails and rollback is
// enabled, the successful operations that define Rollback are undone.
func (t *BatchTransaction) Execute(ctx context.Context) (BatchResults, error) {
	results, err := t.executor.Execute(ctx, t.operations)
	if err == nil {
		return results, nil
	}

	failedOps := results.Failed()

	if t.rollback {
		rollbackErr := t.performRollback(ctx, results)
		if rollbackErr != nil {
			err = multierror.Append(err, rollbackErr)
		}
	}

	return results, fmt.Errorf("%w, %d operations failed: %v: %w", ErrTransactionFailed, len(failedOps), failedOps, err)
}

func (t *BatchTransaction) performRollback(ctx context.Context, results BatchResults) error {
	var rollbackOps []BatchOperation

	for i, result := range results {
		original := t.operations[i]
		if !result.Success || original.Rollback == nil {
			continue
		}

		data := result.Data
		rollbackOps = append(rollbackOps, BatchOperation{
			ID: "rollback_" + original.ID,
			Run: func(ctx context.Context, client Client) (interface{}, error) {
				return nil, original.Rollback(ctx, client, data)
			},
		})
	}

	if len(rollbackOps) == 0 {
		return nil
	}

	_, err := t.executor.Execute(ctx, rollbackOps)

	return err
}

// MapConcurrent calls fn for every input with at most limit calls in flight.
// Outputs keep input order; a failed input leaves the zero value in its slot
// and contributes to the aggregated error.
func MapConcurrent[In any, Out any](ctx context.Context, inputs []In, limit int, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	if limit <= 0 {
		limit = constants.DefaultConcurrencyLimit
	}

	outputs := make([]Out, len(inputs))
	errs := make([]error, len(inputs))

	var (
		group errgroup.Group
		mu    sync.Mutex
	)

	group.SetLimit(limit)

	for i, input := range inputs {
		group.Go(func() error {
			out, err := fn(ctx, input)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				errs[i] = err

				return nil
			}

			outputs[i] = out

			return nil
		})
	}

	_ = group.Wait()

	var result *multierror.Error

	for _, err := range errs {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	return outputs, result.ErrorOrNil()
}
