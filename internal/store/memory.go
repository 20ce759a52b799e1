package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agenthands/lineage/internal/core/model"
)

// MemoryStore keeps everything in maps guarded by a single RWMutex. Returned
// records are copies.
type MemoryStore struct {
	mu        sync.RWMutex
	members   map[string]*model.Member
	links     map[string]*model.FamilyLink
	spouses   map[string]*model.Spouse
	cemetery  map[string]*model.Cemetery
	memorials map[string][]*model.MemorialLog
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members:   make(map[string]*model.Member),
		links:     make(map[string]*model.FamilyLink),
		spouses:   make(map[string]*model.Spouse),
		cemetery:  make(map[string]*model.Cemetery),
		memorials: make(map[string][]*model.MemorialLog),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) GetMember(ctx context.Context, id string) (*model.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, model.ErrNotFound)
	}
	return m.Clone(), nil
}

func (s *MemoryStore) ListMembers(ctx context.Context, filter model.MemberFilter) ([]*model.Member, error) {
	s.mu.RLock()
	out := make([]*model.Member, 0, len(s.members))
	for _, m := range s.members {
		if filter.Match(m) {
			out = append(out, m.Clone())
		}
	}
	s.mu.RUnlock()

	SortMembers(out)
	return filter.Page(out), nil
}

// SortMembers orders by generation, then order within generation, then name and id.
func SortMembers(members []*model.Member) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.Generation != b.Generation {
			return a.Generation < b.Generation
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

func (s *MemoryStore) CreateMember(ctx context.Context, m *model.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		return fmt.Errorf("member id is required")
	}
	if _, exists := s.members[m.ID]; exists {
		return fmt.Errorf("member %s already exists", m.ID)
	}
	now := s.now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	s.members[m.ID] = m.Clone()
	return nil
}

func (s *MemoryStore) UpdateMember(ctx context.Context, id string, mutate MemberMutator) (*model.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, model.ErrNotFound)
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = id
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now()
	s.members[id] = next
	return next.Clone(), nil
}

func (s *MemoryStore) DeleteMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return fmt.Errorf("member %s: %w", id, model.ErrNotFound)
	}
	delete(s.members, id)
	for lid, l := range s.links {
		if l.SourceID == id || l.TargetID == id {
			delete(s.links, lid)
		}
	}
	for sid, sp := range s.spouses {
		if sp.MemberID == id {
			delete(s.spouses, sid)
		}
	}
	delete(s.cemetery, id)
	delete(s.memorials, id)
	return nil
}

func (s *MemoryStore) GetLink(ctx context.Context, id string) (*model.FamilyLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.links[id]
	if !ok {
		return nil, fmt.Errorf("link %s: %w", id, model.ErrNotFound)
	}
	return l.Clone(), nil
}

func (s *MemoryStore) FindLink(ctx context.Context, sourceID, targetID string, role model.Role) (*model.FamilyLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.links {
		if l.SameEdge(sourceID, targetID, role) {
			return l.Clone(), nil
		}
	}
	return nil, fmt.Errorf("link %s-%s->%s: %w", sourceID, role, targetID, model.ErrNotFound)
}

func (s *MemoryStore) LinksFrom(ctx context.Context, sourceID string) ([]*model.FamilyLink, error) {
	return s.collectLinks(func(l *model.FamilyLink) bool { return l.SourceID == sourceID }), nil
}

func (s *MemoryStore) LinksTo(ctx context.Context, targetID string) ([]*model.FamilyLink, error) {
	return s.collectLinks(func(l *model.FamilyLink) bool { return l.TargetID == targetID }), nil
}

func (s *MemoryStore) AllLinks(ctx context.Context) ([]*model.FamilyLink, error) {
	return s.collectLinks(func(*model.FamilyLink) bool { return true }), nil
}

func (s *MemoryStore) collectLinks(keep func(*model.FamilyLink) bool) []*model.FamilyLink {
	s.mu.RLock()
	out := make([]*model.FamilyLink, 0)
	for _, l := range s.links {
		if keep(l) {
			out = append(out, l.Clone())
		}
	}
	s.mu.RUnlock()
	SortLinks(out)
	return out
}

// SortLinks gives links a stable order: creation time, then id.
func SortLinks(links []*model.FamilyLink) {
	sort.SliceStable(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.Before(links[j].CreatedAt)
		}
		return links[i].ID < links[j].ID
	})
}

func (s *MemoryStore) InsertLinks(ctx context.Context, links ...*model.FamilyLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check the whole batch before touching the map so a failure leaves nothing behind.
	for i, l := range links {
		if l.ID == "" {
			return fmt.Errorf("link id is required")
		}
		if _, exists := s.links[l.ID]; exists {
			return fmt.Errorf("link %s already exists", l.ID)
		}
		if _, ok := s.members[l.SourceID]; !ok {
			return fmt.Errorf("member %s: %w", l.SourceID, model.ErrNotFound)
		}
		if _, ok := s.members[l.TargetID]; !ok {
			return fmt.Errorf("member %s: %w", l.TargetID, model.ErrNotFound)
		}
		for _, existing := range s.links {
			if existing.SameEdge(l.SourceID, l.TargetID, l.Role) {
				return fmt.Errorf("link %s-%s->%s: %w", l.SourceID, l.Role, l.TargetID, model.ErrDuplicateEdge)
			}
		}
		for _, other := range links[:i] {
			if other.SameEdge(l.SourceID, l.TargetID, l.Role) {
				return fmt.Errorf("link %s-%s->%s: %w", l.SourceID, l.Role, l.TargetID, model.ErrDuplicateEdge)
			}
		}
	}

	now := s.now()
	for _, l := range links {
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		s.links[l.ID] = l.Clone()
	}
	return nil
}

func (s *MemoryStore) DeleteLinks(ctx context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.links[id]; !ok {
			return fmt.Errorf("link %s: %w", id, model.ErrNotFound)
		}
	}
	for _, id := range ids {
		delete(s.links, id)
	}
	return nil
}

func (s *MemoryStore) ListSpouses(ctx context.Context, memberID string) ([]*model.Spouse, error) {
	return s.collectSpouses(memberID), nil
}

func (s *MemoryStore) AllSpouses(ctx context.Context) ([]*model.Spouse, error) {
	return s.collectSpouses(""), nil
}

func (s *MemoryStore) collectSpouses(memberID string) []*model.Spouse {
	s.mu.RLock()
	out := make([]*model.Spouse, 0)
	for _, sp := range s.spouses {
		if memberID == "" || sp.MemberID == memberID {
			c := *sp
			out = append(out, &c)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *MemoryStore) AddSpouse(ctx context.Context, sp *model.Spouse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[sp.MemberID]; !ok {
		return fmt.Errorf("member %s: %w", sp.MemberID, model.ErrNotFound)
	}
	if sp.CreatedAt.IsZero() {
		sp.CreatedAt = s.now()
	}
	c := *sp
	s.spouses[sp.ID] = &c
	return nil
}

func (s *MemoryStore) GetCemetery(ctx context.Context, memberID string) (*model.Cemetery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cemetery[memberID]
	if !ok {
		return nil, fmt.Errorf("cemetery of %s: %w", memberID, model.ErrNotFound)
	}
	cp := *c
	cp.Photos = append([]string(nil), c.Photos...)
	return &cp, nil
}

func (s *MemoryStore) PutCemetery(ctx context.Context, c *model.Cemetery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[c.MemberID]; !ok {
		return fmt.Errorf("member %s: %w", c.MemberID, model.ErrNotFound)
	}
	c.UpdatedAt = s.now()
	cp := *c
	cp.Photos = append([]string(nil), c.Photos...)
	s.cemetery[c.MemberID] = &cp
	return nil
}

func (s *MemoryStore) ListMemorialLogs(ctx context.Context, memberID string, limit int) ([]*model.MemorialLog, error) {
	s.mu.RLock()
	logs := s.memorials[memberID]
	out := make([]*model.MemorialLog, 0, len(logs))
	// newest first
	for i := len(logs) - 1; i >= 0; i-- {
		c := *logs[i]
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *MemoryStore) AddMemorialLog(ctx context.Context, l *model.MemorialLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[l.MemberID]; !ok {
		return fmt.Errorf("member %s: %w", l.MemberID, model.ErrNotFound)
	}
	if l.VisitedAt.IsZero() {
		l.VisitedAt = s.now()
	}
	c := *l
	s.memorials[l.MemberID] = append(s.memorials[l.MemberID], &c)
	return nil
}
