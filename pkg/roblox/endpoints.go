package roblox

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the base URL of the Roblox groups API
	BaseURL = "https://groups.roblox.com"

	// GroupMembersEndpoint is the path pattern for a group's member listing
	GroupMembersEndpoint = "/v1/groups/%s/users"

	// PageLimit is the number of members requested per page
	PageLimit = 100

	// SortOrder is the listing order requested from the API
	SortOrder = "Asc"
)

// GroupMembersURL constructs the member listing URL for one page.
// The cursor parameter is omitted when cursor is empty.
func GroupMembersURL(baseURL, groupID, cursor string) string {
	params := url.Values{}
	params.Set("sortOrder", SortOrder)
	params.Set("limit", strconv.Itoa(PageLimit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	base := strings.TrimRight(baseURL, "/")
	return fmt.Sprintf("%s%s?%s", base, fmt.Sprintf(GroupMembersEndpoint, url.PathEscape(groupID)), params.Encode())
}

// IsValidGroupID reports whether id is a non-empty string of ASCII digits
func IsValidGroupID(id string) bool {
	if id == "" {
		return false
	}
	for _, char := range id {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}

// GroupURL returns the public web page of a group
func GroupURL(groupID string) string {
	if groupID == "" {
		return ""
	}
	return fmt.Sprintf("https://www.roblox.com/groups/%s", groupID)
}
