package model

// TreeNode is one member in the nested lineage view. Children is nil, and
// therefore absent from JSON, when the member has no qualifying child links.
type TreeNode struct {
	*Member
	Spouses     []SpouseRef   `json:"spouses"`
	ChildLinks  []*FamilyLink `json:"childLinks"`
	ParentLinks []*FamilyLink `json:"parentLinks"`
	Children    []*TreeNode   `json:"children,omitempty"`
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *TreeNode) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}
