package roblox

import "roparse/pkg/models"

// GroupMembersResponse is the body returned by the member listing endpoint
type GroupMembersResponse struct {
	PreviousPageCursor *string       `json:"previousPageCursor"`
	NextPageCursor     *string       `json:"nextPageCursor"`
	Data               []GroupMember `json:"data"`
}

// GroupMember is one entry of the listing
type GroupMember struct {
	User *GroupUser `json:"user"`
	Role *GroupRole `json:"role"`
}

// GroupUser is the user part of a listing entry
type GroupUser struct {
	UserID           int64   `json:"userId"`
	Username         *string `json:"username"`
	DisplayName      string  `json:"displayName"`
	HasVerifiedBadge bool    `json:"hasVerifiedBadge"`
}

// GroupRole is the member's role within the group
type GroupRole struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Rank        int    `json:"rank"`
	MemberCount int    `json:"memberCount"`
}

// ToPage converts the wire response into the pipeline's page model.
// Every entry becomes a Member so it is counted as processed; entries
// without a username keep an empty Username and are never stored.
func (r *GroupMembersResponse) ToPage() *models.Page {
	page := &models.Page{
		Members: make([]models.Member, 0, len(r.Data)),
	}
	if r.NextPageCursor != nil {
		page.NextCursor = *r.NextPageCursor
	}

	for _, entry := range r.Data {
		var member models.Member
		if entry.User != nil {
			member.UserID = entry.User.UserID
			member.DisplayName = entry.User.DisplayName
			if entry.User.Username != nil {
				member.Username = *entry.User.Username
			}
		}
		page.Members = append(page.Members, member)
	}

	return page
}
