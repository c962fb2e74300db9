package models

// Group represents a household whose members share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Flat 4B").
	Name string

	// CreatedBy is the user ID of the member who created the group.
	CreatedBy string

	// Members lists everyone splitting costs in this group.
	Members []Member

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Member is a user's membership in a group.
type Member struct {
	UserID      string
	DisplayName string
	JoinedAt    int64
}

// MemberIDs returns the user IDs of all members, in membership order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// DisplayNames maps member user IDs to display names.
func (g *Group) DisplayNames() map[string]string {
	names := make(map[string]string, len(g.Members))
	for _, m := range g.Members {
		names[m.UserID] = m.DisplayName
	}
	return names
}
