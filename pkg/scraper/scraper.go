package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"roparse/pkg/config"
	roerrors "roparse/pkg/errors"
	"roparse/pkg/logger"
	"roparse/pkg/metrics"
	"roparse/pkg/ratelimit"
	"roparse/pkg/roblox"
	"roparse/pkg/storage"
)

// Summary reports the outcome of a run
type Summary struct {
	RunID      string
	GroupID    string
	Unique     int
	Processed  int
	Pages      int
	OutputPath string
	StopReason StopReason
	// FetchError is the fetch failure that ended the crawl, if any
	FetchError error
	Duration   time.Duration
}

// Option customizes a Scraper
type Option func(*Scraper)

// WithFetcher replaces the groups API client
func WithFetcher(f PageFetcher) Option {
	return func(s *Scraper) { s.fetcher = f }
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(s *Scraper) { s.logger = log }
}

// WithThrottle replaces the throttle built from the config
func WithThrottle(l ratelimit.Limiter) Option {
	return func(s *Scraper) { s.throttle = l }
}

// WithObserver registers an observer
func WithObserver(o Observer) Option {
	return func(s *Scraper) { s.observers = append(s.observers, o) }
}

// WithClock sets the time source used for the output filename
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) { s.now = now }
}

// Scraper runs one collection of a group's member usernames
type Scraper struct {
	config    *config.Config
	groupID   string
	fetcher   PageFetcher
	set       *storage.UserSet
	writer    *storage.Writer
	throttle  ratelimit.Limiter
	logger    logger.Logger
	observers []Observer
	now       func() time.Time

	runID    string
	filename string

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
}

// New creates a Scraper for groupID. The output filename is fixed here,
// from the time New is called. Nothing is validated until Start.
func New(cfg *config.Config, groupID string, opts ...Option) *Scraper {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scraper{
		config:  cfg,
		groupID: groupID,
		set:     storage.NewUserSet(),
		writer:  storage.NewWriter(cfg.Output.Directory),
		now:     time.Now,
		runID:   uuid.NewString(),
		ctx:     ctx,
		cancel:  cancel,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.GetLogger()
	}
	s.logger = s.logger.WithField("run_id", s.runID)

	if s.fetcher == nil {
		client := roblox.NewClient(cfg.Roblox.RequestTimeout, s.logger)
		client.SetBaseURL(cfg.Roblox.BaseURL)
		if cfg.Roblox.UserAgent != "" {
			client.SetHeader("User-Agent", cfg.Roblox.UserAgent)
		}
		s.fetcher = client
	}
	if s.throttle == nil {
		s.throttle = ratelimit.NewThrottle(cfg.Run.ThrottleDelay)
	}

	s.filename = storage.Filename(groupID, s.now())
	return s
}

// Observe registers an observer. It must be called before Start.
func (s *Scraper) Observe(o Observer) {
	s.observers = append(s.observers, o)
}

// RunID returns the identifier attached to this run's logs
func (s *Scraper) RunID() string {
	return s.runID
}

// OutputPath returns where the result file will be written
func (s *Scraper) OutputPath() string {
	return s.writer.Path(s.filename)
}

// RequestStop asks the crawl to stop before its next fetch. It is safe to
// call from any goroutine, more than once, and before Start.
func (s *Scraper) RequestStop() {
	s.cancel()
}

// Stopped reports whether a stop was requested
func (s *Scraper) Stopped() bool {
	return s.ctx.Err() != nil
}

// Validate checks the group id and run configuration
func (s *Scraper) Validate() error {
	if !roblox.IsValidGroupID(s.groupID) {
		return roerrors.Config("group id must contain only digits, got %q", s.groupID)
	}
	if s.config.Run.MaxUsers < 0 {
		return roerrors.Config("max users must be positive when set, got %d", s.config.Run.MaxUsers)
	}
	if err := s.config.Validate(); err != nil {
		return roerrors.Wrap(roerrors.ErrorTypeConfig, err, "invalid configuration")
	}
	return nil
}

// Start validates the run, crawls the listing and writes the result file.
// A fetch failure ends the crawl but still produces a file and a nil error;
// the failure is reported in Summary.FetchError. A write failure is
// returned together with the summary.
func (s *Scraper) Start() (*Summary, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil, fmt.Errorf("scraper for group %s already started", s.groupID)
	}
	s.started = true
	s.mu.Unlock()

	mode := s.config.EffectiveMode()
	start := time.Now()

	logger.LogRunStart(s.logger, s.groupID, mode, s.config.Run.Workers, s.config.Run.MaxUsers)
	if mode == config.ModeSharedCursor && s.config.Run.Workers > 1 {
		s.logger.Warn("shared-cursor mode does not keep pages in order; pages may be fetched twice or skipped")
	}
	metrics.ResetRun()

	driver := NewDriver(s.fetcher, s.set, DriverOptions{
		GroupID:   s.groupID,
		Workers:   s.config.Run.Workers,
		MaxUsers:  s.config.Run.MaxUsers,
		CapPolicy: s.config.Run.CapPolicy,
		Throttle:  s.throttle,
		Logger:    s.logger,
		Observers: s.observers,
	})
	outcome := driver.Run(s.ctx, mode)

	summary := &Summary{
		RunID:      s.runID,
		GroupID:    s.groupID,
		Unique:     s.set.Unique(),
		Processed:  s.set.Processed(),
		Pages:      outcome.Pages,
		OutputPath: s.OutputPath(),
		StopReason: outcome.Reason,
		FetchError: outcome.Err,
	}

	writeErr := s.writer.Write(summary.OutputPath, s.set.SnapshotSorted())
	summary.Duration = time.Since(start)

	if writeErr != nil {
		s.logger.WithError(writeErr).WithField("path", summary.OutputPath).Error("Failed to write results")
		return summary, writeErr
	}

	logger.LogRunSummary(s.logger, map[string]interface{}{
		"group_id":    summary.GroupID,
		"unique":      summary.Unique,
		"processed":   summary.Processed,
		"pages":       summary.Pages,
		"output":      summary.OutputPath,
		"stop_reason": string(summary.StopReason),
		"duration":    summary.Duration,
	})

	return summary, nil
}
