package model

import (
	"encoding/json"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Member is a person recorded in the registry.
type Member struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	GivenName      string     `json:"givenName,omitempty"` // courtesy name
	Nickname       string     `json:"nickname,omitempty"`
	Gender         Gender     `json:"gender"`
	Generation     int        `json:"generation"`
	GenerationWord string     `json:"generationWord"`
	Order          int        `json:"order"` // unique only within (generation, branch)
	IsAlive        bool       `json:"isAlive"`
	BirthDate      string     `json:"birthDate,omitempty"` // free-form, often imprecise
	DeathDate      string     `json:"deathDate,omitempty"`
	Bio            string     `json:"bio,omitempty"`
	BranchName     string     `json:"branchName"`
	IsFloating     bool       `json:"isFloating"`
	IsVerified     bool       `json:"isVerified"`
	Tags           []string   `json:"tags,omitempty"`
	VisitCount     int        `json:"visitCount"`
	LastVisitedAt  *time.Time `json:"lastVisitedAt,omitempty"`
	Contact        string     `json:"contact,omitempty"`
	Photo          string     `json:"photo,omitempty"`
	PublicFields   []string   `json:"publicFields,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy so store snapshots never alias caller memory.
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}
	c := *m
	if m.Tags != nil {
		c.Tags = append([]string(nil), m.Tags...)
	}
	if m.PublicFields != nil {
		c.PublicFields = append([]string(nil), m.PublicFields...)
	}
	if m.LastVisitedAt != nil {
		t := *m.LastVisitedAt
		c.LastVisitedAt = &t
	}
	return &c
}

// PublicView projects the member through its privacy allowlist. Alive members
// with a non-empty PublicFields list expose only id, name and the listed
// fields; deceased members carry no restriction.
func (m *Member) PublicView() (map[string]interface{}, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var full map[string]interface{}
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, err
	}
	if !m.IsAlive || len(m.PublicFields) == 0 {
		return full, nil
	}

	view := map[string]interface{}{
		"id":   m.ID,
		"name": m.Name,
	}
	for _, field := range m.PublicFields {
		if v, ok := full[field]; ok {
			view[field] = v
		}
	}
	return view, nil
}

// MemberUpdate is the whitelist of caller-updatable member fields. Generation
// changes go through a generation shift.
type MemberUpdate struct {
	Name           *string   `json:"name,omitempty"`
	GivenName      *string   `json:"givenName,omitempty"`
	Nickname       *string   `json:"nickname,omitempty"`
	Gender         *Gender   `json:"gender,omitempty"`
	GenerationWord *string   `json:"generationWord,omitempty"`
	Order          *int      `json:"order,omitempty"`
	IsAlive        *bool     `json:"isAlive,omitempty"`
	BirthDate      *string   `json:"birthDate,omitempty"`
	DeathDate      *string   `json:"deathDate,omitempty"`
	Bio            *string   `json:"bio,omitempty"`
	BranchName     *string   `json:"branchName,omitempty"`
	IsFloating     *bool     `json:"isFloating,omitempty"`
	IsVerified     *bool     `json:"isVerified,omitempty"`
	Tags           *[]string `json:"tags,omitempty"`
	Contact        *string   `json:"contact,omitempty"`
	Photo          *string   `json:"photo,omitempty"`
	PublicFields   *[]string `json:"publicFields,omitempty"`
}

// UpdateFromMember turns a full incoming record into an update that
// overwrites every data field of an existing member.
func UpdateFromMember(src *Member) MemberUpdate {
	tags := append([]string(nil), src.Tags...)
	public := append([]string(nil), src.PublicFields...)
	return MemberUpdate{
		Name:           &src.Name,
		GivenName:      &src.GivenName,
		Nickname:       &src.Nickname,
		Gender:         &src.Gender,
		GenerationWord: &src.GenerationWord,
		Order:          &src.Order,
		IsAlive:        &src.IsAlive,
		BirthDate:      &src.BirthDate,
		DeathDate:      &src.DeathDate,
		Bio:            &src.Bio,
		BranchName:     &src.BranchName,
		IsFloating:     &src.IsFloating,
		IsVerified:     &src.IsVerified,
		Tags:           &tags,
		Contact:        &src.Contact,
		Photo:          &src.Photo,
		PublicFields:   &public,
	}
}

func (u MemberUpdate) Apply(m *Member) {
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.GivenName != nil {
		m.GivenName = *u.GivenName
	}
	if u.Nickname != nil {
		m.Nickname = *u.Nickname
	}
	if u.Gender != nil {
		m.Gender = *u.Gender
	}
	if u.GenerationWord != nil {
		m.GenerationWord = *u.GenerationWord
	}
	if u.Order != nil {
		m.Order = *u.Order
	}
	if u.IsAlive != nil {
		m.IsAlive = *u.IsAlive
	}
	if u.BirthDate != nil {
		m.BirthDate = *u.BirthDate
	}
	if u.DeathDate != nil {
		m.DeathDate = *u.DeathDate
	}
	if u.Bio != nil {
		m.Bio = *u.Bio
	}
	if u.BranchName != nil {
		m.BranchName = *u.BranchName
	}
	if u.IsFloating != nil {
		m.IsFloating = *u.IsFloating
	}
	if u.IsVerified != nil {
		m.IsVerified = *u.IsVerified
	}
	if u.Tags != nil {
		m.Tags = append([]string(nil), (*u.Tags)...)
	}
	if u.Contact != nil {
		m.Contact = *u.Contact
	}
	if u.Photo != nil {
		m.Photo = *u.Photo
	}
	if u.PublicFields != nil {
		m.PublicFields = append([]string(nil), (*u.PublicFields)...)
	}
}

const DefaultBranch = "Main"

// ApplyDefaults fills the fields an incomplete record may leave blank.
func (m *Member) ApplyDefaults() {
	if m.Gender == "" {
		m.Gender = GenderMale
	}
	if m.Generation == 0 {
		m.Generation = 1
	}
	if m.BranchName == "" {
		m.BranchName = DefaultBranch
	}
}
