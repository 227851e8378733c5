// Package categories builds the category forest from the flat list of
// category definitions and provides an id-keyed lookup index over it.
//
// The forest is rebuilt from scratch after every category mutation. Category
// counts are small (tens to low hundreds of nodes), so a full rebuild is
// cheaper than keeping an incrementally patched structure correct.
package categories

import (
	"sort"

	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/shopspring/decimal"
)

// Node is a category definition resolved into its place in the tree.
type Node struct {
	models.CategoryDefinition
	Children []*Node `json:"children"`

	// Display is the name in the language the client accepts, see Localize.
	Display string `json:"displayName"`

	// Aggregates over the transactions assigned to this category.
	// Supplied by the storage layer, see LoadAggregates.
	TransactionCount int64           `json:"transactionCount"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
}

// Forest holds one category tree per kind.
type Forest struct {
	Expense    []*Node `json:"expense"`
	Investment []*Node `json:"investment"`
	Income     []*Node `json:"income"`
}

// BuildForest converts a flat list of category definitions into three trees,
// one per kind. The input order is irrelevant.
//
// A definition whose parent ID does not resolve to a known definition is
// treated as a root of its own kind. This keeps categories visible when a
// parent was deleted by another session instead of silently dropping them.
func BuildForest(definitions []models.CategoryDefinition) *Forest {
	nodes := make(map[uint64]*Node, len(definitions))
	for _, definition := range definitions {
		nodes[definition.ID] = &Node{
			CategoryDefinition: definition,
			Children:           []*Node{},
		}
	}

	forest := &Forest{
		Expense:    []*Node{},
		Investment: []*Node{},
		Income:     []*Node{},
	}

	for _, definition := range definitions {
		node := nodes[definition.ID]

		if definition.ParentID != nil {
			parent, ok := nodes[*definition.ParentID]
			if ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}

		forest.appendRoot(node)
	}

	sortRoots(forest.Expense)
	sortRoots(forest.Investment)
	sortRoots(forest.Income)

	return forest
}

// Roots returns the root nodes for the requested kind.
func (f *Forest) Roots(kind models.CategoryKind) []*Node {
	switch kind {
	case models.KindExpense:
		return f.Expense
	case models.KindInvestment:
		return f.Investment
	case models.KindIncome:
		return f.Income
	}

	return nil
}

func (f *Forest) appendRoot(node *Node) {
	switch node.Kind {
	case models.KindInvestment:
		f.Investment = append(f.Investment, node)
	case models.KindIncome:
		f.Income = append(f.Income, node)
	default:
		// Definitions with an unknown kind are grouped with expenses so
		// they stay visible for cleanup
		f.Expense = append(f.Expense, node)
	}
}

// sortRoots orders the roots and, recursively, all children sequences by
// display order. The sort is stable so definitions with the same display
// order keep their storage order.
func sortRoots(roots []*Node) {
	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].DisplayOrder < roots[j].DisplayOrder
	})

	for _, root := range roots {
		sortRoots(root.Children)
	}
}
