// Package branches finds groups of members that are disconnected from the
// main tree.
package branches

import (
	"sort"

	"github.com/agenthands/lineage/internal/core/model"
)

// Branch is one connected group of members. Head is its earliest-generation member.
type Branch struct {
	Head    *model.Member   `json:"head"`
	Members []*model.Member `json:"members"`
}

func (b Branch) Contains(id string) bool {
	for _, m := range b.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Components groups members into connected components over family links,
// ignoring direction and links that leave the member set.
func Components(members []*model.Member, links []*model.FamilyLink) []Branch {
	byID := make(map[string]*model.Member, len(members))
	adj := make(map[string][]string)
	for _, m := range members {
		byID[m.ID] = m
	}
	for _, l := range links {
		if _, ok := byID[l.SourceID]; !ok {
			continue
		}
		if _, ok := byID[l.TargetID]; !ok {
			continue
		}
		adj[l.SourceID] = append(adj[l.SourceID], l.TargetID)
		adj[l.TargetID] = append(adj[l.TargetID], l.SourceID)
	}

	visited := make(map[string]bool)
	var out []Branch
	for _, m := range members {
		if visited[m.ID] {
			continue
		}
		var ids []string
		dfs(m.ID, adj, visited, &ids)

		b := Branch{Members: make([]*model.Member, 0, len(ids))}
		for _, id := range ids {
			b.Members = append(b.Members, byID[id])
		}
		sort.SliceStable(b.Members, func(i, j int) bool {
			x, y := b.Members[i], b.Members[j]
			if x.Generation != y.Generation {
				return x.Generation < y.Generation
			}
			if x.Order != y.Order {
				return x.Order < y.Order
			}
			return x.ID < y.ID
		})
		b.Head = b.Members[0]
		out = append(out, b)
	}
	return out
}

func dfs(u string, adj map[string][]string, visited map[string]bool, component *[]string) {
	visited[u] = true
	*component = append(*component, u)
	for _, v := range adj[u] {
		if !visited[v] {
			dfs(v, adj, visited, component)
		}
	}
}

// Floating returns every component that does not contain anchorID. When the
// anchor is unknown every component is floating.
func Floating(members []*model.Member, links []*model.FamilyLink, anchorID string) []Branch {
	var out []Branch
	for _, b := range Components(members, links) {
		if !b.Contains(anchorID) {
			out = append(out, b)
		}
	}
	return out
}

// FloatingIDs flattens Floating into a set of member ids.
func FloatingIDs(members []*model.Member, links []*model.FamilyLink, anchorID string) map[string]bool {
	ids := make(map[string]bool)
	for _, b := range Floating(members, links, anchorID) {
		for _, m := range b.Members {
			ids[m.ID] = true
		}
	}
	return ids
}
