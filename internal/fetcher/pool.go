package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"roparse/pkg/logger"
	"roparse/pkg/models"
)

// FetchJob asks a worker to fetch the page starting at Cursor
type FetchJob struct {
	Seq     int
	GroupID string
	Cursor  string
}

// FetchResult represents the result of a fetch job
type FetchResult struct {
	Job      FetchJob
	Page     *models.Page
	Error    error
	Duration time.Duration
	WorkerID int
}

// PageFetcher interface for fetching one page of group members
type PageFetcher interface {
	FetchGroupMembers(ctx context.Context, groupID, cursor string) (*models.Page, error)
}

// WorkerPool runs fetch jobs on a fixed set of workers. Workers never see
// more than the job they are given; choosing the next cursor is up to the
// submitter.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan FetchJob
	resultQueue chan FetchResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      PageFetcher
	logger      logger.Logger
	stopOnce    sync.Once
}

// NewWorkerPool creates a new fetch worker pool
func NewWorkerPool(numWorkers int, client PageFetcher, log logger.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan FetchJob, numWorkers),
		resultQueue: make(chan FetchResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	logger.LogComponentStart(wp.logger, "fetch_pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop shuts the pool down. Jobs already taken by a worker run to
// completion; their results stay buffered in the result queue until it is
// drained or dropped.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()

		logger.LogComponentStop(wp.logger, "fetch_pool", "stopped")
	})
}

// Submit adds a new fetch job to the queue. It must not be called after Stop.
func (wp *WorkerPool) Submit(job FetchJob) error {
	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("Fetch job submitted", map[string]interface{}{
			"seq":    job.Seq,
			"cursor": job.Cursor,
		})
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming fetch results
func (wp *WorkerPool) Results() <-chan FetchResult {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		wp.resultQueue <- wp.processJob(job, id)
	}
}

// processJob handles a single fetch job
func (wp *WorkerPool) processJob(job FetchJob, workerID int) FetchResult {
	start := time.Now()

	// Fetches run to completion even when the submitter stops listening;
	// the HTTP client timeout bounds them
	page, err := wp.client.FetchGroupMembers(wp.ctx, job.GroupID, job.Cursor)

	result := FetchResult{
		Job:      job,
		Page:     page,
		Error:    err,
		Duration: time.Since(start),
		WorkerID: workerID,
	}

	if err != nil {
		wp.logger.DebugWithFields("Worker fetch failed", map[string]interface{}{
			"worker_id": workerID,
			"seq":       job.Seq,
			"error":     err.Error(),
		})
		return result
	}

	wp.logger.DebugWithFields("Worker fetched page", map[string]interface{}{
		"worker_id": workerID,
		"seq":       job.Seq,
		"entries":   len(page.Members),
		"duration":  result.Duration,
	})

	return result
}
