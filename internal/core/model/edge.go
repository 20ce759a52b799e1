package model

import "time"

// Relationship is the kind of a family link.
type Relationship string

const (
	RelationshipBiological Relationship = "biological"
	RelationshipAdopted    Relationship = "adopted"
	RelationshipStep       Relationship = "step"
	RelationshipMarriedIn  Relationship = "married_in"
)

func (r Relationship) Valid() bool {
	switch r {
	case RelationshipBiological, RelationshipAdopted, RelationshipStep, RelationshipMarriedIn:
		return true
	}
	return false
}

// Lineal reports whether the relationship belongs in the lineage tree.
func (r Relationship) Lineal() bool {
	return r == RelationshipBiological || r == RelationshipAdopted
}

// Role is read from the source member's perspective: a link
// {Source: A, Target: B, Role: father} means "B is A's father".
type Role string

const (
	RoleFather   Role = "father"
	RoleMother   Role = "mother"
	RoleSpouse   Role = "spouse"
	RoleSon      Role = "son"
	RoleDaughter Role = "daughter"
)

func (r Role) Valid() bool {
	switch r {
	case RoleFather, RoleMother, RoleSpouse, RoleSon, RoleDaughter:
		return true
	}
	return false
}

func (r Role) IsParent() bool { return r == RoleFather || r == RoleMother }
func (r Role) IsChild() bool  { return r == RoleSon || r == RoleDaughter }

// ChildRole is the role a parent records for a child of gender g.
func ChildRole(g Gender) Role {
	if g == GenderFemale {
		return RoleDaughter
	}
	return RoleSon
}

// ParentRole is the role a child records for a parent of gender g.
func ParentRole(g Gender) Role {
	if g == GenderFemale {
		return RoleMother
	}
	return RoleFather
}

// FamilyLink is a directed, typed edge between two members.
type FamilyLink struct {
	ID           string       `json:"id"`
	SourceID     string       `json:"sourceId"`
	TargetID     string       `json:"targetId"`
	Relationship Relationship `json:"relationship"`
	Role         Role         `json:"role"`
	IsPrimary    bool         `json:"isPrimary"`
	Notes        string       `json:"notes,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (l *FamilyLink) Clone() *FamilyLink {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

// SameEdge compares the (source, target, role) identity used for uniqueness.
func (l *FamilyLink) SameEdge(source, target string, role Role) bool {
	return l.SourceID == source && l.TargetID == target && l.Role == role
}
