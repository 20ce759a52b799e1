package core

import (
	"context"
	"fmt"

	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/driver"
	"github.com/agenthands/lineage/internal/logger"
)

// Projector mirrors members and family links into a Memgraph/Neo4j graph.
// Writes are best effort: failures are logged and never reach the caller.
// A nil Projector does nothing.
type Projector struct {
	Driver driver.GraphDriver
	log    *logger.Logger
}

func NewProjector(d driver.GraphDriver, log *logger.Logger) *Projector {
	if log == nil {
		log = logger.Nop()
	}
	return &Projector{Driver: d, log: log.With("component", "projector")}
}

func (p *Projector) enabled() bool { return p != nil && p.Driver != nil }

func memberParams(m *model.Member) map[string]interface{} {
	return map[string]interface{}{
		"id":              m.ID,
		"name":            m.Name,
		"gender":          string(m.Gender),
		"generation":      m.Generation,
		"generation_word": m.GenerationWord,
		"branch_name":     m.BranchName,
		"is_alive":        m.IsAlive,
		"is_floating":     m.IsFloating,
		"birth_date":      m.BirthDate,
		"death_date":      m.DeathDate,
		"updated_at":      m.UpdatedAt,
	}
}

func linkParams(l *model.FamilyLink) map[string]interface{} {
	return map[string]interface{}{
		"id":           l.ID,
		"source_id":    l.SourceID,
		"target_id":    l.TargetID,
		"role":         string(l.Role),
		"relationship": string(l.Relationship),
		"created_at":   l.CreatedAt,
	}
}

func (p *Projector) SaveMembers(ctx context.Context, members ...*model.Member) {
	if !p.enabled() {
		return
	}
	for _, m := range members {
		if _, err := p.Driver.ExecuteQuery(ctx, driver.SaveMemberQuery, memberParams(m)); err != nil {
			p.log.Warn("failed to project member", "member_id", m.ID, "error", err)
		}
	}
}

func (p *Projector) DeleteMember(ctx context.Context, id string) {
	if !p.enabled() {
		return
	}
	if _, err := p.Driver.ExecuteQuery(ctx, driver.DeleteMemberQuery, map[string]interface{}{"id": id}); err != nil {
		p.log.Warn("failed to remove projected member", "member_id", id, "error", err)
	}
}

func (p *Projector) SaveLinks(ctx context.Context, links ...*model.FamilyLink) {
	if !p.enabled() {
		return
	}
	for _, l := range links {
		if _, err := p.Driver.ExecuteQuery(ctx, driver.SaveLinkQuery, linkParams(l)); err != nil {
			p.log.Warn("failed to project link", "link_id", l.ID, "error", err)
		}
	}
}

func (p *Projector) DeleteLinks(ctx context.Context, ids ...string) {
	if !p.enabled() {
		return
	}
	for _, id := range ids {
		if _, err := p.Driver.ExecuteQuery(ctx, driver.DeleteLinkQuery, map[string]interface{}{"id": id}); err != nil {
			p.log.Warn("failed to remove projected link", "link_id", id, "error", err)
		}
	}
}

// Rebuild wipes the mirror and writes every member and link again.
func (p *Projector) Rebuild(ctx context.Context, members []*model.Member, links []*model.FamilyLink) error {
	if !p.enabled() {
		return nil
	}
	if _, err := p.Driver.ExecuteQuery(ctx, driver.ClearGraphQuery, nil); err != nil {
		return fmt.Errorf("failed to clear graph: %w", err)
	}
	for _, m := range members {
		if _, err := p.Driver.ExecuteQuery(ctx, driver.SaveMemberQuery, memberParams(m)); err != nil {
			return fmt.Errorf("failed to project member %s: %w", m.ID, err)
		}
	}
	for _, l := range links {
		if _, err := p.Driver.ExecuteQuery(ctx, driver.SaveLinkQuery, linkParams(l)); err != nil {
			return fmt.Errorf("failed to project link %s: %w", l.ID, err)
		}
	}
	p.log.Info("graph mirror rebuilt", "members", len(members), "links", len(links))
	return nil
}

// AncestorIDs asks the mirror for ancestors within maxDepth, keyed by distance.
func (p *Projector) AncestorIDs(ctx context.Context, id string, maxDepth int) (map[string]int, error) {
	return p.lineage(ctx, id, maxDepth, driver.AncestorRoles)
}

// DescendantIDs asks the mirror for descendants within maxDepth, keyed by distance.
func (p *Projector) DescendantIDs(ctx context.Context, id string, maxDepth int) (map[string]int, error) {
	return p.lineage(ctx, id, maxDepth, driver.DescendantRoles)
}

func (p *Projector) lineage(ctx context.Context, id string, maxDepth int, roles []string) (map[string]int, error) {
	if !p.enabled() {
		return nil, fmt.Errorf("graph mirror is not configured")
	}
	out := make(map[string]int)
	if maxDepth <= 0 {
		return out, nil
	}
	res, err := p.Driver.ExecuteQuery(ctx, driver.LineageQuery(maxDepth), map[string]interface{}{
		"id":    id,
		"roles": roles,
	})
	if err != nil {
		return nil, err
	}
	for _, rec := range res.Records {
		rawID, _ := rec.Get("id")
		rawDepth, _ := rec.Get("depth")
		otherID, ok := rawID.(string)
		if !ok {
			continue
		}
		depth, ok := rawDepth.(int64)
		if !ok {
			continue
		}
		out[otherID] = int(depth)
	}
	return out, nil
}
