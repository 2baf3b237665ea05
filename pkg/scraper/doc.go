// Package scraper collects the usernames of a Roblox group's members.
//
// A Scraper owns one run: it validates the group id and configuration,
// drives pagination through the member listing, and writes the sorted,
// deduplicated usernames to users_<groupId>-<YYYYMMDD-HHMMSS>.txt.
//
// Pagination modes:
//
//   - sequential: one loop follows nextPageCursor until it is absent.
//   - coordinated: the driver owns the cursor and hands each fetch to a
//     worker pool. Pages are applied in listing order.
//   - shared-cursor: every worker reads and advances a shared cursor. Pages
//     may be fetched twice or skipped; kept for compatibility only.
//
// A crawl ends when the listing has no next cursor, when max users is
// reached, when a fetch fails, or when RequestStop is called. In every case
// the result file is written.
//
// Usage:
//
//	s := scraper.New(cfg, "12345")
//	go func() {
//	    <-interrupted
//	    s.RequestStop()
//	}()
//	summary, err := s.Start()
//	if err != nil {
//	    return err
//	}
//	fmt.Println(summary.OutputPath, summary.Unique)
package scraper
