package model

import "time"

// Spouse is a lightweight partner record for someone not modelled as a full member.
type Spouse struct {
	ID           string    `json:"id"`
	MemberID     string    `json:"memberId"`
	Name         string    `json:"name"`
	MaidenName   string    `json:"maidenName,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	IsAlive      bool      `json:"isAlive"`
	MarriedDate  string    `json:"marriedDate,omitempty"`
	DivorcedDate string    `json:"divorcedDate,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type SpouseKind string

const (
	SpouseKindMember SpouseKind = "member"
	SpouseKindInline SpouseKind = "inline"
)

// SpouseRef merges both spouse representations into one shape.
type SpouseRef struct {
	Kind         SpouseKind   `json:"kind"`
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	IsAlive      bool         `json:"isAlive"`
	MarriedDate  string       `json:"marriedDate,omitempty"`
	DivorcedDate string       `json:"divorcedDate,omitempty"`
	Relationship Relationship `json:"relationship,omitempty"`
	LinkID       string       `json:"linkId,omitempty"`
}

func InlineSpouseRef(s *Spouse) SpouseRef {
	return SpouseRef{
		Kind:         SpouseKindInline,
		ID:           s.ID,
		Name:         s.Name,
		IsAlive:      s.IsAlive,
		MarriedDate:  s.MarriedDate,
		DivorcedDate: s.DivorcedDate,
	}
}

func MemberSpouseRef(m *Member, link *FamilyLink) SpouseRef {
	ref := SpouseRef{
		Kind:    SpouseKindMember,
		ID:      m.ID,
		Name:    m.Name,
		IsAlive: m.IsAlive,
	}
	if link != nil {
		ref.Relationship = link.Relationship
		ref.LinkID = link.ID
	}
	return ref
}
