package scraper

import (
	"context"
	"sync"

	"roparse/internal/fetcher"
	"roparse/pkg/config"
	roerrors "roparse/pkg/errors"
	"roparse/pkg/logger"
	"roparse/pkg/metrics"
	"roparse/pkg/models"
	"roparse/pkg/ratelimit"
	"roparse/pkg/storage"
)

// StopReason tells why a crawl ended
type StopReason string

const (
	StopReasonCompleted     StopReason = "completed"
	StopReasonCapReached    StopReason = "cap_reached"
	StopReasonFetchError    StopReason = "fetch_error"
	StopReasonStopRequested StopReason = "stop_requested"
)

// Outcome is the result of one driver run
type Outcome struct {
	Reason StopReason
	Pages  int
	// Err is the fetch error that ended the crawl, if any
	Err error
}

// DriverOptions configures a Driver
type DriverOptions struct {
	GroupID   string
	Workers   int
	MaxUsers  int
	CapPolicy string
	Throttle  ratelimit.Limiter
	Logger    logger.Logger
	Observers []Observer
}

// Driver walks the cursor chain of a group's member listing and feeds every
// page into a UserSet
type Driver struct {
	fetcher   PageFetcher
	set       *storage.UserSet
	groupID   string
	workers   int
	maxUsers  int
	capPolicy string
	throttle  ratelimit.Limiter
	logger    logger.Logger
	observers []Observer

	mu      sync.Mutex
	pages   int
	outcome *Outcome

	notifyMu sync.Mutex
}

// NewDriver creates a driver over fetcher and set
func NewDriver(f PageFetcher, set *storage.UserSet, opts DriverOptions) *Driver {
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Throttle == nil {
		opts.Throttle = ratelimit.NewThrottle(0)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.CapPolicy == "" {
		opts.CapPolicy = config.CapPolicyPage
	}

	return &Driver{
		fetcher:   f,
		set:       set,
		groupID:   opts.GroupID,
		workers:   opts.Workers,
		maxUsers:  opts.MaxUsers,
		capPolicy: opts.CapPolicy,
		throttle:  opts.Throttle,
		logger:    opts.Logger,
		observers: opts.Observers,
	}
}

// Run crawls until the listing ends, the cap is reached, a fetch fails or
// ctx is cancelled. No fetch starts after ctx is cancelled; a fetch already
// in flight finishes and its page is discarded.
func (d *Driver) Run(ctx context.Context, mode string) Outcome {
	switch mode {
	case config.ModeCoordinated:
		d.runCoordinated(ctx)
	case config.ModeSharedCursor:
		d.runSharedCursor(ctx)
	default:
		d.runSequential(ctx)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.outcome == nil {
		d.outcome = &Outcome{Reason: StopReasonStopRequested}
	}
	d.outcome.Pages = d.pages
	return *d.outcome
}

// runSequential is the single-worker loop
func (d *Driver) runSequential(ctx context.Context) {
	cursor := ""
	for {
		if !d.ready(ctx) {
			return
		}

		page, err := d.fetcher.FetchGroupMembers(context.WithoutCancel(ctx), d.groupID, cursor)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			d.fail(cursor, err)
			return
		}

		if d.apply(page) {
			return
		}
		cursor = page.NextCursor
	}
}

// runCoordinated keeps the cursor in this goroutine and hands each fetch to
// the worker pool. The next cursor is only known once the previous page is
// back, so exactly one job is in flight at a time and pages are applied in
// listing order.
func (d *Driver) runCoordinated(ctx context.Context) {
	pool := fetcher.NewWorkerPool(d.workers, d.fetcher, d.logger)
	pool.Start()
	defer pool.Stop()

	cursor := ""
	for seq := 1; ; seq++ {
		if !d.ready(ctx) {
			return
		}

		if err := pool.Submit(fetcher.FetchJob{Seq: seq, GroupID: d.groupID, Cursor: cursor}); err != nil {
			d.logger.WithError(err).Error("Failed to submit fetch job")
			d.finish(StopReasonStopRequested, nil)
			return
		}

		result := <-pool.Results()
		if ctx.Err() != nil {
			return
		}
		if result.Error != nil {
			d.fail(cursor, result.Error)
			return
		}

		if d.apply(result.Page) {
			return
		}
		cursor = result.Page.NextCursor
	}
}

// runSharedCursor starts workers that all read and advance one cursor.
// Reading the cursor, fetching and storing the next cursor is not atomic,
// so two workers can fetch the same page and a page can be skipped.
func (d *Driver) runSharedCursor(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		cursorMu sync.Mutex
		cursor   string
		more     = true
		wg       sync.WaitGroup
	)

	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			for {
				cursorMu.Lock()
				current, hasMore := cursor, more
				cursorMu.Unlock()
				if !hasMore || !d.ready(runCtx) {
					return
				}

				page, err := d.fetcher.FetchGroupMembers(context.WithoutCancel(runCtx), d.groupID, current)
				if runCtx.Err() != nil {
					return
				}
				if err != nil {
					d.fail(current, err)
					cancel()
					return
				}

				done := d.apply(page)

				cursorMu.Lock()
				if page.HasNext() {
					cursor = page.NextCursor
				} else {
					more = false
				}
				cursorMu.Unlock()

				if done {
					cancel()
					return
				}
			}
		}(i)
	}

	wg.Wait()
}

// ready reports whether another fetch may start, waiting out the throttle
func (d *Driver) ready(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if err := d.throttle.Wait(ctx); err != nil {
		return false
	}
	return ctx.Err() == nil && !d.finished()
}

// apply stores one page and reports whether the crawl is over
func (d *Driver) apply(page *models.Page) bool {
	var added, total int
	if d.capPolicy == config.CapPolicyExact && d.maxUsers > 0 {
		added, total = d.set.AddPageUpTo(page.Members, d.maxUsers)
	} else {
		added, total = d.set.AddPage(page.Members)
	}
	processed := d.set.Processed()

	d.mu.Lock()
	d.pages++
	progress := models.Progress{
		Page:       d.pages,
		Entries:    len(page.Members),
		Added:      added,
		Unique:     total,
		Processed:  processed,
		NextCursor: page.NextCursor,
	}
	d.mu.Unlock()

	metrics.ObservePage(len(page.Members), total)
	logger.LogPage(d.logger, progress.Page, progress.Entries, added, total, processed, page.NextCursor)
	d.notify(func(o Observer) { o.PageProcessed(progress) })

	if d.maxUsers > 0 && total >= d.maxUsers {
		d.finish(StopReasonCapReached, nil)
		return true
	}
	if !page.HasNext() {
		d.finish(StopReasonCompleted, nil)
		return true
	}
	return false
}

// fail ends the crawl because a fetch returned an error
func (d *Driver) fail(cursor string, err error) {
	errType := ""
	if roerrors.IsFetchError(err) {
		errType = string(roerrors.TypeOf(err))
	}
	metrics.ObserveFetchError(errType)
	logger.LogFetchFailure(d.logger, d.groupID, cursor, err)
	d.notify(func(o Observer) { o.FetchFailed(err) })
	d.finish(StopReasonFetchError, err)
}

// finish records the first terminal condition
func (d *Driver) finish(reason StopReason, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.outcome == nil {
		d.outcome = &Outcome{Reason: reason, Err: err}
	}
}

func (d *Driver) finished() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outcome != nil
}

func (d *Driver) notify(fn func(Observer)) {
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	for _, o := range d.observers {
		fn(o)
	}
}
