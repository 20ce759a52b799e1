package store

import (
	"time"

	"github.com/agenthands/lineage/internal/core/model"
)

type memberRecord struct {
	ID             string `gorm:"primaryKey;size:64"`
	Name           string `gorm:"size:100;not null;index"`
	GivenName      string `gorm:"size:100"`
	Nickname       string `gorm:"size:100"`
	Gender         string `gorm:"size:1;not null"`
	Generation     int    `gorm:"not null;index"`
	GenerationWord string `gorm:"size:20"`
	OrderInGen     int    `gorm:"column:order_in_generation"`
	IsAlive        bool   `gorm:"not null"`
	BirthDate      string `gorm:"size:40"`
	DeathDate      string `gorm:"size:40"`
	Bio            string
	BranchName     string   `gorm:"size:100;index"`
	IsFloating     bool     `gorm:"not null"`
	IsVerified     bool     `gorm:"not null"`
	Tags           []string `gorm:"serializer:json"`
	VisitCount     int
	LastVisitedAt  *time.Time
	Contact        string   `gorm:"size:200"`
	Photo          string   `gorm:"size:500"`
	PublicFields   []string `gorm:"serializer:json"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (memberRecord) TableName() string { return "members" }

func toMemberRecord(m *model.Member) *memberRecord {
	return &memberRecord{
		ID:             m.ID,
		Name:           m.Name,
		GivenName:      m.GivenName,
		Nickname:       m.Nickname,
		Gender:         string(m.Gender),
		Generation:     m.Generation,
		GenerationWord: m.GenerationWord,
		OrderInGen:     m.Order,
		IsAlive:        m.IsAlive,
		BirthDate:      m.BirthDate,
		DeathDate:      m.DeathDate,
		Bio:            m.Bio,
		BranchName:     m.BranchName,
		IsFloating:     m.IsFloating,
		IsVerified:     m.IsVerified,
		Tags:           m.Tags,
		VisitCount:     m.VisitCount,
		LastVisitedAt:  m.LastVisitedAt,
		Contact:        m.Contact,
		Photo:          m.Photo,
		PublicFields:   m.PublicFields,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func (r *memberRecord) toModel() *model.Member {
	return &model.Member{
		ID:             r.ID,
		Name:           r.Name,
		GivenName:      r.GivenName,
		Nickname:       r.Nickname,
		Gender:         model.Gender(r.Gender),
		Generation:     r.Generation,
		GenerationWord: r.GenerationWord,
		Order:          r.OrderInGen,
		IsAlive:        r.IsAlive,
		BirthDate:      r.BirthDate,
		DeathDate:      r.DeathDate,
		Bio:            r.Bio,
		BranchName:     r.BranchName,
		IsFloating:     r.IsFloating,
		IsVerified:     r.IsVerified,
		Tags:           r.Tags,
		VisitCount:     r.VisitCount,
		LastVisitedAt:  r.LastVisitedAt,
		Contact:        r.Contact,
		Photo:          r.Photo,
		PublicFields:   r.PublicFields,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// linkRecord mirrors the family_links table; (member_id, target_id, role) is unique.
type linkRecord struct {
	ID           string `gorm:"primaryKey;size:64"`
	MemberID     string `gorm:"size:64;not null;uniqueIndex:idx_family_links_edge;index"`
	TargetID     string `gorm:"size:64;not null;uniqueIndex:idx_family_links_edge;index"`
	Relationship string `gorm:"size:20;not null"`
	Role         string `gorm:"size:20;not null;uniqueIndex:idx_family_links_edge"`
	IsPrimary    bool
	Notes        string
	CreatedAt    time.Time
}

func (linkRecord) TableName() string { return "family_links" }

func toLinkRecord(l *model.FamilyLink) *linkRecord {
	return &linkRecord{
		ID:           l.ID,
		MemberID:     l.SourceID,
		TargetID:     l.TargetID,
		Relationship: string(l.Relationship),
		Role:         string(l.Role),
		IsPrimary:    l.IsPrimary,
		Notes:        l.Notes,
		CreatedAt:    l.CreatedAt,
	}
}

func (r *linkRecord) toModel() *model.FamilyLink {
	return &model.FamilyLink{
		ID:           r.ID,
		SourceID:     r.MemberID,
		TargetID:     r.TargetID,
		Relationship: model.Relationship(r.Relationship),
		Role:         model.Role(r.Role),
		IsPrimary:    r.IsPrimary,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt,
	}
}

type spouseRecord struct {
	ID           string `gorm:"primaryKey;size:64"`
	MemberID     string `gorm:"size:64;not null;index"`
	Name         string `gorm:"size:100;not null"`
	MaidenName   string `gorm:"size:100"`
	Bio          string
	IsAlive      bool
	MarriedDate  string `gorm:"size:40"`
	DivorcedDate string `gorm:"size:40"`
	CreatedAt    time.Time
}

func (spouseRecord) TableName() string { return "spouses" }

func (r *spouseRecord) toModel() *model.Spouse {
	return &model.Spouse{
		ID:           r.ID,
		MemberID:     r.MemberID,
		Name:         r.Name,
		MaidenName:   r.MaidenName,
		Bio:          r.Bio,
		IsAlive:      r.IsAlive,
		MarriedDate:  r.MarriedDate,
		DivorcedDate: r.DivorcedDate,
		CreatedAt:    r.CreatedAt,
	}
}

type cemeteryRecord struct {
	MemberID     string `gorm:"primaryKey;size:64"`
	Lat          float64
	Lng          float64
	Address      string
	CemeteryCode string   `gorm:"size:50"`
	Photos       []string `gorm:"serializer:json"`
	Panorama     string
	IsPublic     bool
	IsVerified   bool
	UpdatedAt    time.Time
}

func (cemeteryRecord) TableName() string { return "cemeteries" }

func (r *cemeteryRecord) toModel() *model.Cemetery {
	return &model.Cemetery{
		MemberID:     r.MemberID,
		Lat:          r.Lat,
		Lng:          r.Lng,
		Address:      r.Address,
		CemeteryCode: r.CemeteryCode,
		Photos:       r.Photos,
		Panorama:     r.Panorama,
		IsPublic:     r.IsPublic,
		IsVerified:   r.IsVerified,
		UpdatedAt:    r.UpdatedAt,
	}
}

type memorialRecord struct {
	ID          string `gorm:"primaryKey;size:64"`
	MemberID    string `gorm:"size:64;not null;index"`
	VisitorName string `gorm:"size:100"`
	Action      string `gorm:"size:20;not null"`
	Message     string
	VisitedAt   time.Time `gorm:"index"`
}

func (memorialRecord) TableName() string { return "memorial_logs" }

func (r *memorialRecord) toModel() *model.MemorialLog {
	return &model.MemorialLog{
		ID:          r.ID,
		MemberID:    r.MemberID,
		VisitorName: r.VisitorName,
		Action:      model.MemorialAction(r.Action),
		Message:     r.Message,
		VisitedAt:   r.VisitedAt,
	}
}
