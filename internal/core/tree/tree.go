// Package tree assembles the nested lineage view used by visualisation
// clients from a flat snapshot of members, links and spouses.
package tree

import (
	"github.com/agenthands/lineage/internal/core/model"
)

// Snapshot is the flat input to Build. It may be a partial window of the
// registry; links pointing outside it are ignored.
type Snapshot struct {
	Members []*model.Member
	Links   []*model.FamilyLink
	Spouses []*model.Spouse
}

type index struct {
	members  map[string]*model.Member
	children map[string][]*model.FamilyLink
	parents  map[string][]*model.FamilyLink
	spouses  map[string][]model.SpouseRef
}

func newIndex(s Snapshot) *index {
	idx := &index{
		members:  make(map[string]*model.Member, len(s.Members)),
		children: make(map[string][]*model.FamilyLink),
		parents:  make(map[string][]*model.FamilyLink),
		spouses:  make(map[string][]model.SpouseRef),
	}
	for _, m := range s.Members {
		idx.members[m.ID] = m
	}

	seenSpouse := make(map[[2]string]bool)
	for _, l := range s.Links {
		switch {
		case l.Role.IsChild():
			idx.children[l.SourceID] = append(idx.children[l.SourceID], l)
		case l.Role.IsParent():
			idx.parents[l.SourceID] = append(idx.parents[l.SourceID], l)
		case l.Role == model.RoleSpouse:
			idx.addMemberSpouse(seenSpouse, l.SourceID, l.TargetID, l)
			idx.addMemberSpouse(seenSpouse, l.TargetID, l.SourceID, l)
		}
	}
	for _, sp := range s.Spouses {
		idx.spouses[sp.MemberID] = append(idx.spouses[sp.MemberID], model.InlineSpouseRef(sp))
	}
	return idx
}

func (idx *index) addMemberSpouse(seen map[[2]string]bool, owner, other string, l *model.FamilyLink) {
	key := [2]string{owner, other}
	if seen[key] {
		return
	}
	m, ok := idx.members[other]
	if !ok {
		return
	}
	seen[key] = true
	idx.spouses[owner] = append(idx.spouses[owner], model.MemberSpouseRef(m, l))
}

// Build returns the lineage tree rooted at rootID, or nil when the root is
// not in the snapshot. Only biological and adopted child links are followed.
// maxDepth <= 0 means no depth limit. Each member is attached at most once.
func Build(s Snapshot, rootID string, maxDepth int) *model.TreeNode {
	idx := newIndex(s)
	root, ok := idx.members[rootID]
	if !ok {
		return nil
	}
	visited := map[string]bool{rootID: true}
	return idx.build(root, 0, maxDepth, visited)
}

func (idx *index) build(m *model.Member, depth, maxDepth int, visited map[string]bool) *model.TreeNode {
	node := &model.TreeNode{
		Member:      m,
		Spouses:     idx.spouses[m.ID],
		ChildLinks:  idx.children[m.ID],
		ParentLinks: idx.parents[m.ID],
	}
	if node.Spouses == nil {
		node.Spouses = []model.SpouseRef{}
	}
	if node.ChildLinks == nil {
		node.ChildLinks = []*model.FamilyLink{}
	}
	if node.ParentLinks == nil {
		node.ParentLinks = []*model.FamilyLink{}
	}
	if maxDepth > 0 && depth >= maxDepth {
		return node
	}

	for _, l := range idx.children[m.ID] {
		if !l.Relationship.Lineal() {
			continue
		}
		child, ok := idx.members[l.TargetID]
		if !ok || visited[child.ID] {
			continue
		}
		visited[child.ID] = true
		node.Children = append(node.Children, idx.build(child, depth+1, maxDepth, visited))
	}
	return node
}
