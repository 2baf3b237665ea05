package models

// Member is one group member as seen by the pipeline. Only Username is
// used for collection; a member without one is counted but never stored.
type Member struct {
	Username    string
	UserID      int64
	DisplayName string
}

// Page is one decoded response of the group members listing
type Page struct {
	Members []Member
	// NextCursor is empty when no further page exists
	NextCursor string
}

// HasNext reports whether another page can be requested
func (p *Page) HasNext() bool {
	return p != nil && p.NextCursor != ""
}

// Progress describes the state of a crawl right after a page was applied
type Progress struct {
	Page       int
	Entries    int
	Added      int
	Unique     int
	Processed  int
	NextCursor string
}
