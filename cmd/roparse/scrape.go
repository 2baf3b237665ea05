package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"roparse/pkg/config"
	roerrors "roparse/pkg/errors"
	"roparse/pkg/logger"
	"roparse/pkg/metrics"
	"roparse/pkg/roblox"
	"roparse/pkg/scraper"
	"roparse/pkg/ui"
	"roparse/pkg/ui/tui"
)

var (
	// Scrape command flags
	outputDir   string
	workers     int
	maxUsers    int
	mode        string
	capPolicy   string
	throttle    time.Duration
	timeout     time.Duration
	useTUI      bool
	metricsAddr string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [groupId]",
	Short: "Collect the member usernames of a Roblox group",
	Long: `Collect the usernames of every member of a Roblox group.

Pages of 100 members are requested in ascending order until the listing
ends, the --max-users cap is reached, a request fails, or Ctrl+C is pressed.
Whatever was collected is written to users_<groupId>-<timestamp>.txt in the
output directory, one username per line, sorted.

Without a group id argument you are asked for the group id, the maximum
number of users (empty for all) and the number of workers.`,
	Example: `  # Collect every member of group 12345
  roparse scrape 12345

  # Stop after 500 users and write exactly 500
  roparse scrape 12345 --max-users 500 --cap-policy exact

  # Fetch with four coordinated workers and a live UI
  roparse scrape 12345 --workers 4 --tui

  # Expose Prometheus metrics while collecting
  roparse scrape 12345 --metrics-addr :9464`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	addScrapeFlags(scrapeCmd)
	// roparse <groupId> behaves like roparse scrape <groupId>
	addScrapeFlags(rootCmd)
	rootCmd.Args = cobra.MaximumNArgs(1)
	rootCmd.RunE = runScrape
}

func addScrapeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for the result file (default: current directory)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "number of concurrent page fetchers")
	cmd.Flags().IntVarP(&maxUsers, "max-users", "m", 0, "stop once this many unique users were collected (0 = all)")
	cmd.Flags().StringVar(&mode, "mode", config.ModeAuto, "run mode: auto, sequential, coordinated, shared-cursor")
	cmd.Flags().StringVar(&capPolicy, "cap-policy", config.CapPolicyPage, "cap policy: page (keep whole pages) or exact")
	cmd.Flags().DurationVar(&throttle, "throttle", 100*time.Millisecond, "minimum delay between page requests")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "use interactive terminal UI with real-time progress")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

// collectFlags returns the flags the user set explicitly, keyed the way
// config.MergeCommandLineFlags expects
func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})

	if flagChanged(cmd, "output") {
		flags["output"] = outputDir
	}
	if flagChanged(cmd, "workers") {
		flags["workers"] = workers
	}
	if flagChanged(cmd, "max-users") {
		flags["max-users"] = maxUsers
	}
	if flagChanged(cmd, "mode") {
		flags["mode"] = mode
	}
	if flagChanged(cmd, "cap-policy") {
		flags["cap-policy"] = capPolicy
	}
	if flagChanged(cmd, "throttle") {
		flags["throttle"] = throttle
	}
	if flagChanged(cmd, "timeout") {
		flags["timeout"] = timeout
	}
	if flagChanged(cmd, "metrics-addr") {
		flags["metrics-addr"] = metricsAddr
	}
	if flagChanged(cmd, "notifications") {
		flags["notifications"] = notifications
	}
	if flagChanged(cmd, "log-level") || quiet || verbose {
		flags["log-level"] = logLevel
	}

	return flags
}

// resolveRun returns the group id from args or, when there is none and the
// session is interactive, from the prompt
func resolveRun(args []string, interactive bool, in io.Reader, out io.Writer) (string, *ui.RunAnswers, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil, nil
	}
	if !interactive {
		return "", nil, errors.New("group id argument is required when stdin is not a terminal")
	}

	answers, err := ui.NewPrompter(in, out).AskRun()
	if err != nil {
		return "", nil, err
	}
	return answers.GroupID, answers, nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	groupID, answers, err := resolveRun(args, ui.IsInteractive(os.Stdin), os.Stdin, os.Stdout)
	if err != nil {
		if errors.Is(err, ui.ErrInvalidGroupID) {
			ui.PrintError("Invalid group ID", "only digits are allowed")
		}
		return err
	}

	flags := collectFlags(cmd)
	if answers != nil {
		// Prompt answers only fill in what was not given on the command line
		if _, ok := flags["max-users"]; !ok && answers.MaxUsers > 0 {
			flags["max-users"] = answers.MaxUsers
		}
		if _, ok := flags["workers"]; !ok {
			flags["workers"] = answers.Workers
		}
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Log lines on the terminal would tear the TUI apart
	if useTUI && cfg.Logging.File == "" {
		cfg.Logging.Level = "error"
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger().WithField("version", version)

	s := scraper.New(cfg, groupID, scraper.WithLogger(log))
	if err := s.Validate(); err != nil {
		ui.PrintError("Cannot start collection", err.Error())
		return err
	}

	runMode := cfg.EffectiveMode()
	if runMode == config.ModeSharedCursor {
		ui.PrintWarning("shared-cursor mode lets workers race on the cursor; pages may be fetched twice or skipped")
	}

	if cfg.Metrics.Enabled {
		metricsCtx, stopMetrics := context.WithCancel(context.Background())
		defer stopMetrics()
		go serveMetrics(metricsCtx, cfg.Metrics.Address, log)
	}

	release := stopOnSignal(cmd.Context(), s.RequestStop)
	defer release()

	notifier := ui.NewNotifier(cfg.Notifications.Enabled)

	var summary *scraper.Summary
	if useTUI {
		summary, err = runWithTUI(s, cfg, groupID, runMode)
	} else {
		summary, err = runWithProgressLine(s, cfg, groupID, runMode)
	}

	return report(summary, err, groupID, notifier)
}

func runWithProgressLine(s *scraper.Scraper, cfg *config.Config, groupID, runMode string) (*scraper.Summary, error) {
	var out io.Writer = os.Stdout
	if quiet {
		out = io.Discard
	} else {
		ui.PrintInfo("Group", fmt.Sprintf("%s (%s)", groupID, roblox.GroupURL(groupID)))
		ui.PrintInfo("Mode", fmt.Sprintf("%s (%d workers)", runMode, cfg.Run.Workers))
		if cfg.Run.MaxUsers > 0 {
			ui.PrintInfo("Max users", fmt.Sprintf("%d (%s cap)", cfg.Run.MaxUsers, cfg.Run.CapPolicy))
		}
	}

	progress := ui.NewProgressLine(out)
	s.Observe(progress)

	summary, err := s.Start()
	if summary == nil || err != nil {
		return summary, err
	}

	if quiet {
		ui.NewProgressLine(os.Stdout).Finish(summary.OutputPath, summary.Unique)
		return summary, nil
	}
	progress.Finish(summary.OutputPath, summary.Unique)
	ui.PrintInfo("Rate", fmt.Sprintf("%.1f members/s", progress.Rate()))
	return summary, nil
}

type runResult struct {
	summary *scraper.Summary
	err     error
}

func runWithTUI(s *scraper.Scraper, cfg *config.Config, groupID, runMode string) (*scraper.Summary, error) {
	terminal := tui.NewTUI(tui.RunInfo{
		GroupID:  groupID,
		Mode:     runMode,
		Workers:  cfg.Run.Workers,
		MaxUsers: cfg.Run.MaxUsers,
		Output:   s.OutputPath(),
	}, s.RequestStop)
	s.Observe(terminal)

	done := make(chan runResult, 1)
	go func() {
		terminal.LogInfo("Collecting group %s (%s)", groupID, roblox.GroupURL(groupID))
		if runMode == config.ModeSharedCursor {
			terminal.LogWarning("shared-cursor mode may fetch pages twice or skip them")
		}

		summary, err := s.Start()
		if summary != nil {
			terminal.Finish(summary.OutputPath, summary.Unique, string(summary.StopReason), err)
		} else {
			terminal.Stop()
		}
		done <- runResult{summary: summary, err: err}
	}()

	if err := terminal.Start(); err != nil {
		logger.WithError(err).Error("TUI failed")
		s.RequestStop()
	}

	res := <-done
	if res.summary != nil && res.err == nil {
		ui.NewProgressLine(os.Stdout).Finish(res.summary.OutputPath, res.summary.Unique)
	}
	return res.summary, res.err
}

// stopOnSignal calls stop when SIGINT or SIGTERM arrives or parent is done.
// The returned release function removes the handler without calling stop.
func stopOnSignal(parent context.Context, stop func()) (release func()) {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	released := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
		case <-released:
			return
		}
		select {
		case <-released:
		default:
			stop()
		}
	}()

	return func() {
		close(released)
		cancel()
	}
}

func serveMetrics(ctx context.Context, addr string, log logger.Logger) {
	log.WithField("address", addr).Info("Serving metrics")
	if err := metrics.NewServer(addr).Serve(ctx); err != nil {
		log.WithError(err).Warn("Metrics server stopped")
	}
}

// report prints the outcome and raises the notification
func report(summary *scraper.Summary, err error, groupID string, notifier *ui.Notifier) error {
	if err != nil {
		if roerrors.IsType(err, roerrors.ErrorTypeIO) {
			ui.PrintError("Could not write results", err.Error())
		} else {
			ui.PrintError("Collection failed", err.Error())
		}
		notifier.NotifyRunFailed(groupID, err)
		return err
	}

	switch summary.StopReason {
	case scraper.StopReasonFetchError:
		if roerrors.IsType(summary.FetchError, roerrors.ErrorTypeTimeout) {
			ui.PrintWarning("Stopped early after a request timed out", summary.FetchError)
		} else {
			ui.PrintWarning("Stopped early after a request error", summary.FetchError)
		}
	case scraper.StopReasonStopRequested:
		ui.PrintWarning("Stopped on request, partial results saved")
		notifier.NotifyRunStopped(groupID, summary.Unique, summary.OutputPath)
		return nil
	case scraper.StopReasonCapReached:
		ui.PrintInfo("Stopped", "user cap reached")
	}

	notifier.NotifyRunFinished(groupID, summary.Unique, summary.OutputPath)
	return nil
}
