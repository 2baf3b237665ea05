// Package ratelimit paces page requests.
//
// Throttle wraps golang.org/x/time/rate with a burst of one, so the first
// request goes out immediately and each following request waits until at
// least the configured delay has passed since the previous one. Waiting
// honours context cancellation, which lets a stop request interrupt the
// pause between pages.
//
// Usage:
//
//	throttle := ratelimit.NewThrottle(100 * time.Millisecond)
//	for {
//	    if err := throttle.Wait(ctx); err != nil {
//	        return err // stop requested
//	    }
//	    // fetch next page
//	}
package ratelimit
