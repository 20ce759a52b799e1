// Package store holds member, link, spouse and memorial records behind one
// interface with an in-memory and a gorm-backed implementation.
package store

import (
	"context"

	"github.com/agenthands/lineage/internal/core/model"
)

// MemberMutator edits a loaded member in place inside UpdateMember.
type MemberMutator func(m *model.Member) error

type Store interface {
	GetMember(ctx context.Context, id string) (*model.Member, error)
	ListMembers(ctx context.Context, filter model.MemberFilter) ([]*model.Member, error)
	CreateMember(ctx context.Context, m *model.Member) error
	UpdateMember(ctx context.Context, id string, mutate MemberMutator) (*model.Member, error)
	// DeleteMember removes the member and every link, spouse, cemetery and
	// memorial record attached to it.
	DeleteMember(ctx context.Context, id string) error

	GetLink(ctx context.Context, id string) (*model.FamilyLink, error)
	FindLink(ctx context.Context, sourceID, targetID string, role model.Role) (*model.FamilyLink, error)
	LinksFrom(ctx context.Context, sourceID string) ([]*model.FamilyLink, error)
	LinksTo(ctx context.Context, targetID string) ([]*model.FamilyLink, error)
	AllLinks(ctx context.Context) ([]*model.FamilyLink, error)
	// InsertLinks commits all links or none. A (source, target, role) clash
	// fails with model.ErrDuplicateEdge.
	InsertLinks(ctx context.Context, links ...*model.FamilyLink) error
	// DeleteLinks removes all given links or none.
	DeleteLinks(ctx context.Context, ids ...string) error

	ListSpouses(ctx context.Context, memberID string) ([]*model.Spouse, error)
	AllSpouses(ctx context.Context) ([]*model.Spouse, error)
	AddSpouse(ctx context.Context, s *model.Spouse) error

	GetCemetery(ctx context.Context, memberID string) (*model.Cemetery, error)
	PutCemetery(ctx context.Context, c *model.Cemetery) error
	ListMemorialLogs(ctx context.Context, memberID string, limit int) ([]*model.MemorialLog, error)
	AddMemorialLog(ctx context.Context, l *model.MemorialLog) error
}

// LineageQuerier is implemented by backends that can walk lineage natively
// (recursive SQL). Results follow the same ordering as the in-memory walk.
type LineageQuerier interface {
	AncestorIDs(ctx context.Context, id string, maxDepth int) (map[string]int, error)
	DescendantIDs(ctx context.Context, id string, maxDepth int) (map[string]int, error)
}

var (
	_ Store          = (*MemoryStore)(nil)
	_ Store          = (*GormStore)(nil)
	_ LineageQuerier = (*GormStore)(nil)
)
