// Package roblox provides a client for the Roblox groups API member listing.
//
// One call to FetchGroupMembers issues exactly one GET request for one page
// of up to 100 members, sorted ascending. There are no retries: every
// failure is returned as a typed error from roparse/pkg/errors so callers
// can tell a timeout from a bad status or an undecodable body.
//
// Example usage:
//
//	client := roblox.NewClient(10*time.Second, log)
//
//	page, err := client.FetchGroupMembers(ctx, "12345", "")
//	if err != nil {
//	    switch errors.TypeOf(err) {
//	    case errors.ErrorTypeTimeout:
//	        // request exceeded the client timeout
//	    case errors.ErrorTypeHTTPStatus:
//	        // non-2xx response
//	    }
//	}
//	for page.HasNext() {
//	    page, err = client.FetchGroupMembers(ctx, "12345", page.NextCursor)
//	    // ...
//	}
package roblox
