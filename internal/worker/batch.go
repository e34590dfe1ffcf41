package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/wastetrack/ticketscan/internal/model"
)

// Task extracts one ticket image. It may fail; the runner handles that.
type Task func(ctx context.Context) (*model.ExtractionResult, error)

// Runner executes extraction tasks under a fixed concurrency limit.
//
// Results come back in a slot list positionally matching the input,
// independent of completion order. A failing task never fails the batch: its
// slot gets a zero-confidence result carrying the error as a note.
type Runner struct {
	concurrency int
}

// NewRunner creates a runner with the given concurrency limit
func NewRunner(concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{concurrency: concurrency}
}

// Run executes all tasks and returns one result per task, in task order
func (r *Runner) Run(ctx context.Context, tasks []Task) []*model.ExtractionResult {
	if len(tasks) == 0 {
		return []*model.ExtractionResult{}
	}

	results := make([]*model.ExtractionResult, len(tasks))
	gate := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()

			gate <- struct{}{}
			defer func() { <-gate }()

			result, err := task(ctx)
			if err != nil {
				result = degradedResult(err)
			}
			results[i] = result
		}(i, task)
	}

	wg.Wait()
	return results
}

// degradedResult converts a per-item failure into a returnable result
func degradedResult(err error) *model.ExtractionResult {
	result := &model.ExtractionResult{
		Source:            model.SourceGeneric,
		OverallConfidence: 0.0,
	}
	result.AddNote(fmt.Sprintf("extraction failed: %v", err))
	return result
}
