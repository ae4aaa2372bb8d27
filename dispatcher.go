package codeact

import (
	"context"
	"encoding/json"
	"sync"
)

// TaskResult is the outcome of one task in a Map call.
type TaskResult struct {
	Task  string
	Value json.RawMessage
	Err   error
}

// Map runs tasks concurrently, each on an independent clone of the
// agent, and returns results in task order. One task failing does not
// disturb the others; its slot carries the error.
func (a *Agent) Map(ctx context.Context, tasks []string) []TaskResult {
	results := make([]TaskResult, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task string) {
			defer wg.Done()
			clone := a.Clone()
			value, err := clone.Run(ctx, task)
			results[i] = TaskResult{Task: task, Value: value, Err: err}
		}(i, task)
	}
	wg.Wait()

	return results
}
