package store

import (
	"context"
	"fmt"
)

// Both walks are bounded by depth, so a malformed cyclic edge set still terminates.
const ancestorsCTE = `
WITH RECURSIVE ancestors(id, depth) AS (
	SELECT target_id, 1 FROM family_links
	WHERE member_id = ? AND role IN ('father', 'mother')
	UNION
	SELECT fl.target_id, a.depth + 1 FROM family_links fl
	JOIN ancestors a ON fl.member_id = a.id
	WHERE fl.role IN ('father', 'mother') AND a.depth < ?
)
SELECT id, MIN(depth) AS depth FROM ancestors WHERE id <> ? GROUP BY id`

const descendantsCTE = `
WITH RECURSIVE descendants(id, depth) AS (
	SELECT target_id, 1 FROM family_links
	WHERE member_id = ? AND role IN ('son', 'daughter')
	UNION
	SELECT fl.target_id, d.depth + 1 FROM family_links fl
	JOIN descendants d ON fl.member_id = d.id
	WHERE fl.role IN ('son', 'daughter') AND d.depth < ?
)
SELECT id, MIN(depth) AS depth FROM descendants WHERE id <> ? GROUP BY id`

type lineageRow struct {
	ID    string
	Depth int
}

// AncestorIDs returns every ancestor id within maxDepth mapped to its
// shortest distance from id.
func (s *GormStore) AncestorIDs(ctx context.Context, id string, maxDepth int) (map[string]int, error) {
	return s.walk(ctx, ancestorsCTE, id, maxDepth)
}

// DescendantIDs returns every descendant id within maxDepth mapped to its
// shortest distance from id.
func (s *GormStore) DescendantIDs(ctx context.Context, id string, maxDepth int) (map[string]int, error) {
	return s.walk(ctx, descendantsCTE, id, maxDepth)
}

func (s *GormStore) walk(ctx context.Context, query, id string, maxDepth int) (map[string]int, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative: %d", maxDepth)
	}
	out := make(map[string]int)
	if maxDepth == 0 {
		return out, nil
	}
	var rows []lineageRow
	if err := s.db.WithContext(ctx).Raw(query, id, maxDepth, id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r.Depth
	}
	return out, nil
}
