package sealfile

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ParallelConfig controls batch processing
type ParallelConfig struct {
	// MaxWorkers is the maximum number of worker goroutines
	// If 0, defaults to runtime.NumCPU()
	MaxWorkers int

	// MinItemsForParallel is the minimum number of items to use parallel processing
	// Below this threshold, sequential processing is used
	// Defaults to 4
	MinItemsForParallel int
}

// Validate checks if the parallel configuration is valid
func (p *ParallelConfig) Validate() error {
	if p.MaxWorkers < 0 {
		return errors.New("parallel max workers cannot be negative")
	}
	if p.MaxWorkers > 1024 {
		return errors.New("parallel max workers must not exceed 1024")
	}
	if p.MinItemsForParallel < 0 {
		return errors.New("parallel min items threshold cannot be negative")
	}
	if p.MinItemsForParallel > 1000 {
		return errors.New("parallel min items threshold must not exceed 1000")
	}
	return nil
}

// DefaultParallelConfig returns the default parallel processing configuration
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		MaxWorkers:          runtime.NumCPU(),
		MinItemsForParallel: 4,
	}
}

// BatchItem is one input to EncryptBatch or DecryptBatch. Name is ignored by
// DecryptBatch.
type BatchItem struct {
	Name     string
	Data     []byte
	Password string
}

// BatchResult is the outcome for the BatchItem at the same index. For
// EncryptBatch Data is the container; for DecryptBatch Name and Data are the
// recovered file.
type BatchResult struct {
	Name string
	Data []byte
	Err  error
}

// EncryptBatch runs Encrypt for every item. Results are in input order.
func (p *Pipeline) EncryptBatch(ctx context.Context, items []BatchItem) []BatchResult {
	return p.runBatch(ctx, items, func(item BatchItem) BatchResult {
		out, err := p.Encrypt(item.Name, item.Data, item.Password)
		return BatchResult{Name: SealedName(item.Name), Data: out, Err: err}
	})
}

// DecryptBatch runs Decrypt for every item. Results are in input order.
func (p *Pipeline) DecryptBatch(ctx context.Context, items []BatchItem) []BatchResult {
	return p.runBatch(ctx, items, func(item BatchItem) BatchResult {
		name, out, err := p.Decrypt(item.Data, item.Password)
		return BatchResult{Name: name, Data: out, Err: err}
	})
}

// runBatch applies fn to every item on a bounded worker pool. Items not
// started before ctx is done report ctx.Err().
func (p *Pipeline) runBatch(ctx context.Context, items []BatchItem, fn func(BatchItem) BatchResult) []BatchResult {
	results := make([]BatchResult, len(items))
	if len(items) == 0 {
		return results
	}

	// Determine number of workers
	numWorkers := p.config.Parallel.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	// Limit workers to number of items
	if numWorkers > len(items) {
		numWorkers = len(items)
	}

	// Check if parallel processing is worth it
	if len(items) < p.config.Parallel.MinItemsForParallel || numWorkers == 1 {
		for i := range items {
			if err := ctx.Err(); err != nil {
				results[i] = BatchResult{Err: err}
				continue
			}
			results[i] = safeCall(fn, items[i])
		}
		return results
	}

	var wg sync.WaitGroup
	jobChan := make(chan int)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = safeCall(fn, items[idx])
			}
		}()
	}

	// Send jobs
	next := 0
dispatch:
	for ; next < len(items); next++ {
		select {
		case <-ctx.Done():
			break dispatch
		case jobChan <- next:
		}
	}
	close(jobChan)
	wg.Wait()

	for i := next; i < len(items); i++ {
		results[i] = BatchResult{Err: ctx.Err()}
	}
	return results
}

// safeCall converts a panic in fn into an error result
func safeCall(fn func(BatchItem) BatchResult, item BatchItem) (res BatchResult) {
	defer func() {
		if r := recover(); r != nil {
			res = BatchResult{Err: fmt.Errorf("panic in batch worker: %v", r)}
		}
	}()
	return fn(item)
}
