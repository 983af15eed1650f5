package model

import "slices"

// Group is a set of voters sharing a ranking scope. The owner is always a
// member and cannot be removed.
type Group struct {
	ID        string   `json:"id"`
	Label     string   `json:"name"`
	OwnerID   string   `json:"createdBy"`
	MemberIDs []string `json:"members"`
}

// HasMember reports whether userID belongs to the group.
func (g Group) HasMember(userID string) bool {
	return slices.Contains(g.MemberIDs, userID)
}

// Clone returns a copy that shares no memory with g.
func (g Group) Clone() Group {
	g.MemberIDs = slices.Clone(g.MemberIDs)
	return g
}
