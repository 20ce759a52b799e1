package core

import (
	"context"
	"fmt"
	"time"

	"github.com/agenthands/lineage/internal/core/model"
)

// PublicMember returns the privacy-filtered view of a verified member.
// Unverified members read as not found.
func (r *Registry) PublicMember(ctx context.Context, id string) (map[string]interface{}, error) {
	m, err := r.Store.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsVerified {
		return nil, fmt.Errorf("member %s: %w", id, model.ErrNotFound)
	}
	return m.PublicView()
}

func (r *Registry) PublicMembers(ctx context.Context, filter model.MemberFilter) ([]map[string]interface{}, error) {
	filter.VerifiedOnly = true
	members, err := r.Store.ListMembers(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(members))
	for _, m := range members {
		view, err := m.PublicView()
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (r *Registry) deceased(ctx context.Context, id, what string) (*model.Member, error) {
	m, err := r.Store.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.IsAlive {
		res := model.NewValidationResult()
		res.Add(model.FailureAliveWithMemorial, fmt.Sprintf("%s is alive and cannot have %s", m.Name, what))
		return nil, res.Err()
	}
	return m, nil
}

func (r *Registry) SetCemetery(ctx context.Context, memberID string, c *model.Cemetery) (*model.Cemetery, error) {
	if _, err := r.deceased(ctx, memberID, "a cemetery record"); err != nil {
		return nil, err
	}
	rec := *c
	rec.MemberID = memberID
	if err := r.Store.PutCemetery(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Registry) Cemetery(ctx context.Context, memberID string) (*model.Cemetery, error) {
	return r.Store.GetCemetery(ctx, memberID)
}

// RecordTribute logs a tribute and bumps the member's visit counter.
func (r *Registry) RecordTribute(ctx context.Context, memberID string, entry *model.MemorialLog) (*model.MemorialLog, error) {
	if !entry.Action.Valid() {
		res := model.NewValidationResult()
		res.Add(model.FailureInvalidAction, fmt.Sprintf("unknown tribute action %q", entry.Action))
		return nil, res.Err()
	}
	if _, err := r.deceased(ctx, memberID, "tributes"); err != nil {
		return nil, err
	}

	rec := *entry
	rec.MemberID = memberID
	if rec.ID == "" {
		rec.ID = r.UUIDGenerator()
	}
	if rec.VisitedAt.IsZero() {
		rec.VisitedAt = time.Now().UTC()
	}
	if err := r.Store.AddMemorialLog(ctx, &rec); err != nil {
		return nil, err
	}

	visitedAt := rec.VisitedAt
	updated, err := r.Store.UpdateMember(ctx, memberID, func(m *model.Member) error {
		m.VisitCount++
		m.LastVisitedAt = &visitedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.changed(ctx)
	r.Projector.SaveMembers(ctx, updated)
	return &rec, nil
}

// Tributes lists the newest tributes first. limit <= 0 returns all of them.
func (r *Registry) Tributes(ctx context.Context, memberID string, limit int) ([]*model.MemorialLog, error) {
	if _, err := r.Store.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	return r.Store.ListMemorialLogs(ctx, memberID, limit)
}

// RebuildMirror replaces the graph mirror with the current store contents.
func (r *Registry) RebuildMirror(ctx context.Context) error {
	if !r.Projector.enabled() {
		return nil
	}
	members, err := r.Store.ListMembers(ctx, model.MemberFilter{})
	if err != nil {
		return err
	}
	links, err := r.Store.AllLinks(ctx)
	if err != nil {
		return err
	}
	return r.Projector.Rebuild(ctx, members, links)
}
