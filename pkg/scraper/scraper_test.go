package scraper

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roparse/pkg/config"
	roerrors "roparse/pkg/errors"
	"roparse/pkg/logger"
	"roparse/pkg/metrics"
	"roparse/pkg/models"
)

// fakeGroupAPI serves a fixed chain of pages keyed by cursor
type fakeGroupAPI struct {
	mu       sync.Mutex
	pages    map[string]fakePage
	requests []string
}

type fakePage struct {
	names  []string
	next   string
	status int
	// raw replaces the generated body when set
	raw string
}

func newFakeGroupAPI(pages map[string]fakePage) *fakeGroupAPI {
	return &fakeGroupAPI{pages: pages}
}

func (f *fakeGroupAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")

	f.mu.Lock()
	f.requests = append(f.requests, cursor)
	page, ok := f.pages[cursor]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if page.status != 0 {
		w.WriteHeader(page.status)
		return
	}
	if page.raw != "" {
		fmt.Fprint(w, page.raw)
		return
	}

	data := make([]map[string]interface{}, 0, len(page.names))
	for i, name := range page.names {
		data = append(data, map[string]interface{}{
			"user": map[string]interface{}{"userId": i + 1, "username": name, "displayName": name},
			"role": map[string]interface{}{"id": 1, "name": "Member", "rank": 1},
		})
	}
	body := map[string]interface{}{"previousPageCursor": nil, "data": data}
	if page.next != "" {
		body["nextPageCursor"] = page.next
	} else {
		body["nextPageCursor"] = nil
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeGroupAPI) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	copy(out, f.requests)
	return out
}

func names(prefix string, from, to int) []string {
	out := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, fmt.Sprintf("%s%03d", prefix, i))
	}
	return out
}

// threePages is a listing of 100, 50 and 10 entries where five entries of
// the second page repeat usernames from the first
func threePages() map[string]fakePage {
	second := append(names("user", 0, 5), names("user", 100, 145)...)
	return map[string]fakePage{
		"":   {names: names("user", 0, 100), next: "c2"},
		"c2": {names: second, next: "c3"},
		"c3": {names: names("user", 145, 155)},
	}
}

// repeatsOnLastPage is a listing of 100, 50 and 10 entries where the last
// page, which carries no cursor, repeats five usernames from the first
func repeatsOnLastPage() map[string]fakePage {
	last := append(names("user", 0, 5), names("user", 150, 155)...)
	return map[string]fakePage{
		"":   {names: names("user", 0, 100), next: "c1"},
		"c1": {names: names("user", 100, 150), next: "c2"},
		"c2": {names: last},
	}
}

var fixedTime = time.Date(2024, time.January, 2, 3, 4, 5, 0, time.Local)

func newTestScraper(t *testing.T, api http.Handler, groupID string, mutate func(*config.Config), opts ...Option) (*Scraper, *config.Config) {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.Roblox.BaseURL = server.URL
	cfg.Roblox.RequestTimeout = 5 * time.Second
	cfg.Run.ThrottleDelay = 0
	cfg.Output.Directory = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}

	opts = append([]Option{WithLogger(logger.NewTestLogger()), WithClock(func() time.Time { return fixedTime })}, opts...)
	return New(cfg, groupID, opts...), cfg
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	if len(content) == 0 {
		return nil
	}
	require.True(t, strings.HasSuffix(string(content), "\n"), "every line must end with a newline")
	return strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
}

func TestStartCollectsAllPages(t *testing.T) {
	api := newFakeGroupAPI(threePages())
	s, cfg := newTestScraper(t, api, "12345", nil)

	summary, err := s.Start()
	require.NoError(t, err)

	assert.Equal(t, 160, summary.Processed)
	assert.Equal(t, 155, summary.Unique)
	assert.Equal(t, 3, summary.Pages)
	assert.Equal(t, StopReasonCompleted, summary.StopReason)
	assert.NoError(t, summary.FetchError)
	assert.Equal(t, []string{"", "c2", "c3"}, api.Requests(), "no fetch after the last page")

	wantPath := filepath.Join(cfg.Output.Directory, "users_12345-20240102-030405.txt")
	assert.Equal(t, wantPath, summary.OutputPath)

	lines := readLines(t, wantPath)
	assert.Len(t, lines, 155)
	assert.True(t, sort.StringsAreSorted(lines))
	assert.Equal(t, "user000", lines[0])
	assert.Equal(t, "user154", lines[154])
}

func TestStartRepeatsOnLastPage(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			api := newFakeGroupAPI(repeatsOnLastPage())
			s, _ := newTestScraper(t, api, "12345", func(c *config.Config) {
				c.Run.Workers = workers
			})

			summary, err := s.Start()
			require.NoError(t, err)

			assert.Equal(t, 160, summary.Processed)
			assert.Equal(t, 155, summary.Unique)
			assert.Equal(t, 3, summary.Pages)
			assert.Equal(t, StopReasonCompleted, summary.StopReason)
			assert.Equal(t, []string{"", "c1", "c2"}, api.Requests())

			lines := readLines(t, summary.OutputPath)
			assert.Len(t, lines, 155)
			assert.True(t, sort.StringsAreSorted(lines))
			assert.Equal(t, "user154", lines[154])
		})
	}
}

func TestStartCoordinatedModeMatchesSequential(t *testing.T) {
	api := newFakeGroupAPI(threePages())
	s, _ := newTestScraper(t, api, "12345", func(c *config.Config) {
		c.Run.Workers = 4
	})

	summary, err := s.Start()
	require.NoError(t, err)

	assert.Equal(t, 160, summary.Processed)
	assert.Equal(t, 155, summary.Unique)
	assert.Equal(t, []string{"", "c2", "c3"}, api.Requests())
	assert.Len(t, readLines(t, summary.OutputPath), 155)
}

func TestStartSharedCursorMode(t *testing.T) {
	api := newFakeGroupAPI(threePages())
	s, _ := newTestScraper(t, api, "12345", func(c *config.Config) {
		c.Run.Workers = 3
		c.Run.Mode = config.ModeSharedCursor
	})

	summary, err := s.Start()
	require.NoError(t, err)

	// Pages may be fetched more than once, so only bounds hold
	assert.Equal(t, StopReasonCompleted, summary.StopReason)
	assert.LessOrEqual(t, summary.Unique, 155)
	assert.GreaterOrEqual(t, summary.Processed, summary.Unique)

	lines := readLines(t, summary.OutputPath)
	assert.Len(t, lines, summary.Unique)
	assert.True(t, sort.StringsAreSorted(lines))
}

func TestStartStopsAtCapAfterWholePage(t *testing.T) {
	api := newFakeGroupAPI(map[string]fakePage{
		"":   {names: names("a", 0, 100), next: "c2"},
		"c2": {names: names("b", 0, 100), next: "c3"},
		"c3": {names: names("c", 0, 100)},
	})
	s, _ := newTestScraper(t, api, "1", func(c *config.Config) {
		c.Run.MaxUsers = 120
	})

	summary, err := s.Start()
	require.NoError(t, err)

	assert.Equal(t, StopReasonCapReached, summary.StopReason)
	assert.Equal(t, 200, summary.Unique, "the whole second page is kept")
	assert.LessOrEqual(t, summary.Unique, 120+100-1)
	assert.Equal(t, []string{"", "c2"}, api.Requests())
}

func TestStartExactCapPolicy(t *testing.T) {
	api := newFakeGroupAPI(map[string]fakePage{
		"":   {names: names("a", 0, 100), next: "c2"},
		"c2": {names: names("b", 0, 100), next: "c3"},
	})
	s, _ := newTestScraper(t, api, "1", func(c *config.Config) {
		c.Run.MaxUsers = 120
		c.Run.CapPolicy = config.CapPolicyExact
	})

	summary, err := s.Start()
	require.NoError(t, err)

	assert.Equal(t, StopReasonCapReached, summary.StopReason)
	assert.Equal(t, 120, summary.Unique)
	assert.Equal(t, 120, summary.Processed)
	assert.Len(t, readLines(t, summary.OutputPath), 120)
	assert.Equal(t, []string{"", "c2"}, api.Requests())
}

func TestStartCapReachedOnFirstPage(t *testing.T) {
	api := newFakeGroupAPI(threePages())
	s, _ := newTestScraper(t, api, "1", func(c *config.Config) {
		c.Run.MaxUsers = 10
		c.Run.Workers = 2
	})

	summary, err := s.Start()
	require.NoError(t, err)

	assert.Equal(t, StopReasonCapReached, summary.StopReason)
	assert.Equal(t, 100, summary.Unique)
	assert.Equal(t, []string{""}, api.Requests())
}

func TestStartFetchFailureStillWritesFile(t *testing.T) {
	api := newFakeGroupAPI(map[string]fakePage{
		"":   {names: names("user", 0, 100), next: "c2"},
		"c2": {status: http.StatusServiceUnavailable},
	})
	var failures []error
	s, _ := newTestScraper(t, api, "12345", nil, WithObserver(ObserverFuncs{
		OnError: func(err error) { failures = append(failures, err) },
	}))

	summary, err := s.Start()
	require.NoError(t, err, "fetch failures end the crawl without an error")

	assert.Equal(t, StopReasonFetchError, summary.StopReason)
	require.Error(t, summary.FetchError)
	assert.Equal(t, roerrors.ErrorTypeHTTPStatus, roerrors.TypeOf(summary.FetchError))
	assert.Len(t, failures, 1)
	assert.Equal(t, []string{"", "c2"}, api.Requests(), "no retry")

	lines := readLines(t, summary.OutputPath)
	assert.Equal(t, names("user", 0, 100), lines)
}

func TestStartDecodeFailureOnFirstPage(t *testing.T) {
	api := newFakeGroupAPI(map[string]fakePage{
		"": {raw: "not json"},
	})
	s, _ := newTestScraper(t, api, "12345", nil)

	summary, err := s.Start()
	require.NoError(t, err)

	assert.Equal(t, StopReasonFetchError, summary.StopReason)
	assert.Equal(t, roerrors.ErrorTypeDecode, roerrors.TypeOf(summary.FetchError))
	assert.Zero(t, summary.Unique)
	assert.Empty(t, readLines(t, summary.OutputPath))
}

func TestStartCountsEntriesWithoutUsername(t *testing.T) {
	api := newFakeGroupAPI(map[string]fakePage{
		"": {raw: `{"nextPageCursor":null,"data":[{"user":{"username":"z"}},{"user":{"userId":5}},{"role":{"id":1}},{"user":{"username":"a"}}]}`},
	})
	s, _ := newTestScraper(t, api, "7", nil)

	summary, err := s.Start()
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Processed)
	assert.Equal(t, 2, summary.Unique)
	assert.Equal(t, []string{"a", "z"}, readLines(t, summary.OutputPath))
}

func TestRequestStopAfterFirstPage(t *testing.T) {
	for _, mode := range []string{config.ModeSequential, config.ModeCoordinated} {
		t.Run(mode, func(t *testing.T) {
			api := newFakeGroupAPI(threePages())
			var s *Scraper
			s, _ = newTestScraper(t, api, "12345", func(c *config.Config) {
				c.Run.Mode = mode
				if mode == config.ModeCoordinated {
					c.Run.Workers = 2
				}
			}, WithObserver(ObserverFuncs{
				OnPage: func(p models.Progress) {
					if p.Page == 1 {
						s.RequestStop()
					}
				},
			}))

			summary, err := s.Start()
			require.NoError(t, err)

			assert.Equal(t, StopReasonStopRequested, summary.StopReason)
			assert.True(t, s.Stopped())
			assert.Equal(t, []string{""}, api.Requests())
			assert.Equal(t, names("user", 0, 100), readLines(t, summary.OutputPath))
		})
	}
}

func TestRequestStopBeforeStart(t *testing.T) {
	api := newFakeGroupAPI(threePages())
	s, _ := newTestScraper(t, api, "12345", nil)

	s.RequestStop()
	s.RequestStop()

	summary, err := s.Start()
	require.NoError(t, err)

	assert.Equal(t, StopReasonStopRequested, summary.StopReason)
	assert.Empty(t, api.Requests())
	assert.FileExists(t, summary.OutputPath)
}

func TestRequestStopDiscardsInFlightPage(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	api := newFakeGroupAPI(threePages())
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "c2" {
			<-release
		}
		api.ServeHTTP(w, r)
	})

	var s *Scraper
	s, _ = newTestScraper(t, handler, "12345", nil, WithObserver(ObserverFuncs{
		OnPage: func(p models.Progress) {
			if p.Page == 1 {
				go func() {
					// Stop while the second page is in flight, then let it finish
					time.Sleep(50 * time.Millisecond)
					s.RequestStop()
					once.Do(func() { close(release) })
				}()
			}
		},
	}))

	summary, err := s.Start()
	require.NoError(t, err)

	assert.Equal(t, StopReasonStopRequested, summary.StopReason)
	assert.Equal(t, []string{"", "c2"}, api.Requests())
	assert.Equal(t, 100, summary.Unique, "the in-flight page is discarded")
	assert.Equal(t, 1, summary.Pages)
}

func TestStartRejectsNonDigitGroupID(t *testing.T) {
	for _, groupID := range []string{"12a45", "", "-1", "12 34"} {
		t.Run(groupID, func(t *testing.T) {
			api := newFakeGroupAPI(threePages())
			s, cfg := newTestScraper(t, api, groupID, nil)

			summary, err := s.Start()
			require.Error(t, err)
			assert.Nil(t, summary)
			assert.True(t, roerrors.IsType(err, roerrors.ErrorTypeConfig))
			assert.Empty(t, api.Requests(), "no network call before validation")

			entries, readErr := os.ReadDir(cfg.Output.Directory)
			require.NoError(t, readErr)
			assert.Empty(t, entries, "no output file")
		})
	}
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero workers", func(c *config.Config) { c.Run.Workers = 0 }},
		{"negative cap", func(c *config.Config) { c.Run.MaxUsers = -5 }},
		{"unknown mode", func(c *config.Config) { c.Run.Mode = "turbo" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeGroupAPI(threePages())
			s, _ := newTestScraper(t, api, "12345", tt.mutate)

			_, err := s.Start()
			require.Error(t, err)
			assert.True(t, roerrors.IsType(err, roerrors.ErrorTypeConfig))
			assert.Empty(t, api.Requests())
		})
	}
}

func TestStartReturnsWriteErrors(t *testing.T) {
	api := newFakeGroupAPI(threePages())
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	s, _ := newTestScraper(t, api, "12345", func(c *config.Config) {
		c.Output.Directory = blocker
	})

	summary, err := s.Start()
	require.Error(t, err)
	assert.True(t, roerrors.IsType(err, roerrors.ErrorTypeIO))
	require.NotNil(t, summary)
	assert.Equal(t, 155, summary.Unique)
}

func TestStartTwice(t *testing.T) {
	api := newFakeGroupAPI(threePages())
	s, _ := newTestScraper(t, api, "12345", nil)

	_, err := s.Start()
	require.NoError(t, err)

	_, err = s.Start()
	assert.Error(t, err)
	assert.Len(t, api.Requests(), 3)
}

func TestObserverReceivesProgress(t *testing.T) {
	api := newFakeGroupAPI(threePages())
	var progress []models.Progress
	s, _ := newTestScraper(t, api, "12345", nil)
	s.Observe(ObserverFuncs{OnPage: func(p models.Progress) { progress = append(progress, p) }})

	_, err := s.Start()
	require.NoError(t, err)

	require.Len(t, progress, 3)
	assert.Equal(t, models.Progress{Page: 1, Entries: 100, Added: 100, Unique: 100, Processed: 100, NextCursor: "c2"}, progress[0])
	assert.Equal(t, models.Progress{Page: 2, Entries: 50, Added: 45, Unique: 145, Processed: 150, NextCursor: "c3"}, progress[1])
	assert.Equal(t, models.Progress{Page: 3, Entries: 10, Added: 10, Unique: 155, Processed: 160}, progress[2])
}

func TestRunLogsCarryRunID(t *testing.T) {
	api := newFakeGroupAPI(threePages())
	log := logger.NewTestLogger()
	s, _ := newTestScraper(t, api, "12345", nil, WithLogger(log))

	_, err := s.Start()
	require.NoError(t, err)

	assert.NotEmpty(t, s.RunID())
	require.True(t, log.HasMessage("INFO", "Starting member collection"))
	for _, msg := range log.GetMessagesByLevel("INFO") {
		assert.Equal(t, s.RunID(), msg.Fields["run_id"])
	}
}

func fetchErrorCount(t *testing.T, errType string) float64 {
	t.Helper()
	families, err := metrics.Registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "roparse_fetch_errors_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "type" && label.GetValue() == errType {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestFetchFailureCountedByType(t *testing.T) {
	api := newFakeGroupAPI(map[string]fakePage{
		"": {raw: "{not json"},
	})
	s, _ := newTestScraper(t, api, "12345", nil)
	before := fetchErrorCount(t, "decode")

	summary, err := s.Start()
	require.NoError(t, err)

	assert.Equal(t, StopReasonFetchError, summary.StopReason)
	assert.Equal(t, before+1, fetchErrorCount(t, "decode"))
}
