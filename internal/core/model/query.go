package model

import "strings"

// Lineal is a member reached by an ancestor or descendant walk.
type Lineal struct {
	Member *Member `json:"member"`
	Depth  int     `json:"depth"`
}

// MemberFilter narrows member listings. Zero values do not filter.
type MemberFilter struct {
	Generation   int    `form:"generation"`
	Branch       string `form:"branch"`
	NameContains string `form:"name"`
	Alive        *bool  `form:"alive"`
	Floating     *bool  `form:"floating"`
	VerifiedOnly bool   `form:"verified"`
	Limit        int    `form:"limit"`
	Offset       int    `form:"offset"`
}

func (f MemberFilter) Match(m *Member) bool {
	if f.Generation > 0 && m.Generation != f.Generation {
		return false
	}
	if f.Branch != "" && m.BranchName != f.Branch {
		return false
	}
	if f.NameContains != "" && !strings.Contains(m.Name, f.NameContains) {
		return false
	}
	if f.Alive != nil && m.IsAlive != *f.Alive {
		return false
	}
	if f.Floating != nil && m.IsFloating != *f.Floating {
		return false
	}
	if f.VerifiedOnly && !m.IsVerified {
		return false
	}
	return true
}

// Page applies Offset/Limit to an already filtered and ordered slice.
func (f MemberFilter) Page(members []*Member) []*Member {
	if f.Offset > 0 {
		if f.Offset >= len(members) {
			return []*Member{}
		}
		members = members[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(members) {
		members = members[:f.Limit]
	}
	return members
}

// Relative is a neighbouring member together with the link that reached it.
type Relative struct {
	Member *Member     `json:"member"`
	Link   *FamilyLink `json:"link"`
}
