// Package fetch collects response records with bounded parallelism.
// The transport behind each fetch is a collaborator; this package only
// schedules requests into fixed-size batches with an inter-batch pause.
package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/dbsmedya/repolake/internal/logger"
	"github.com/dbsmedya/repolake/internal/response"
)

// Client fetches one entity's response record. Implementations own all
// transport concerns: authentication, retries, rate-limit headers.
type Client interface {
	Fetch(ctx context.Context, params map[string]string) (response.Record, error)
}

// Request identifies one entity to fetch.
type Request struct {
	Params map[string]string
}

// Failure records one unsuccessful fetch. Failures do not abort the
// batch; every request completes with either a record or a failure.
type Failure struct {
	Params map[string]string
	Err    error
}

// Batcher groups requests into fixed-size batches. Within a batch each
// request runs on its own goroutine; the batch fully completes before
// the next one starts, with a pause in between to respect external rate
// limits.
type Batcher struct {
	client    Client
	log       *logger.Logger
	batchSize int
	pause     time.Duration
}

// NewBatcher creates a batcher. A batch size below one is treated as one.
func NewBatcher(client Client, log *logger.Logger, batchSize int, pause time.Duration) *Batcher {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Batcher{
		client:    client,
		log:       log,
		batchSize: batchSize,
		pause:     pause,
	}
}

// FetchAll runs every request and returns the fetched records in request
// order alongside the recorded failures. Context cancellation is honored
// between batches; an in-flight batch always completes.
func (b *Batcher) FetchAll(ctx context.Context, requests []Request) ([]response.Record, []Failure, error) {
	var records []response.Record
	var failures []Failure

	batchNum := 0
	for start := 0; start < len(requests); start += b.batchSize {
		batchNum++
		end := min(start+b.batchSize, len(requests))
		batch := requests[start:end]
		log := b.log.WithBatch(batchNum)

		type outcome struct {
			record response.Record
			err    error
		}
		outcomes := make([]outcome, len(batch))

		var wg sync.WaitGroup
		for i, req := range batch {
			wg.Add(1)
			go func(i int, req Request) {
				defer wg.Done()
				record, err := b.client.Fetch(ctx, req.Params)
				outcomes[i] = outcome{record: record, err: err}
			}(i, req)
		}
		wg.Wait()

		batchFailures := 0
		for i, out := range outcomes {
			if out.err != nil {
				batchFailures++
				failures = append(failures, Failure{Params: batch[i].Params, Err: out.err})
				log.Warnw("fetch failed", "params", batch[i].Params, "error", out.err)
				continue
			}
			records = append(records, out.record)
		}
		log.Infow("batch complete", "fetched", len(batch)-batchFailures, "failed", batchFailures)

		if end < len(requests) && b.pause > 0 {
			select {
			case <-ctx.Done():
				return records, failures, ctx.Err()
			case <-time.After(b.pause):
			}
		}
	}

	return records, failures, nil
}
