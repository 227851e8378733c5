// Package assignment implements the manual categorization workflow: one
// draft per transaction under review, a cascading category path selector,
// and the commit and auto-assign operations.
package assignment

import (
	"errors"

	"github.com/AvnerAdda/shekelsync-sub000/internal/categories"
	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNotUnderReview   = errors.New("this transaction is not under review")
	ErrPathEmpty        = errors.New("no category has been selected")
	ErrDepthInvalid     = errors.New("the selection depth is outside the current category path")
	ErrSelectionInvalid = errors.New("the selected category is not valid at this depth")
	ErrCommitInFlight   = errors.New("a commit for this transaction is already in progress")
)

// Draft is the in-progress categorization of one transaction under review.
type Draft struct {
	Kind         models.CategoryKind `json:"kind"`
	CategoryPath []uint64            `json:"categoryPath"` // IDs from a root-level category down to the node the user drilled into
}

// NewDraft returns the initial draft for a transaction: income for inflows,
// expense for outflows, no category chosen yet.
func NewDraft(amount decimal.Decimal) *Draft {
	kind := models.KindIncome
	if amount.IsNegative() {
		kind = models.KindExpense
	}

	return &Draft{
		Kind:         kind,
		CategoryPath: []uint64{},
	}
}

// SetKind switches the draft to another kind. The category path is cleared
// since a path is never valid across kinds.
func (d *Draft) SetKind(kind models.CategoryKind) error {
	if !kind.Valid() {
		return models.ErrKindInvalid
	}

	if kind != d.Kind {
		d.Kind = kind
		d.CategoryPath = []uint64{}
	}

	return nil
}

// SelectAt replaces the selection at the given depth.
//
// A category ID of zero clears the level and everything deeper. A non-zero
// ID replaces the level and truncates all deeper levels, since those
// belonged to the branch that was just left.
func (d *Draft) SelectAt(index *categories.Index, depth int, categoryID uint64) error {
	if depth < 0 || depth > len(d.CategoryPath) {
		return ErrDepthInvalid
	}

	if categoryID == 0 {
		d.CategoryPath = d.CategoryPath[:depth]
		return nil
	}

	node, ok := index.ByID(categoryID)
	if !ok {
		return ErrSelectionInvalid
	}

	if depth == 0 {
		// Level zero takes root-level categories of the draft's kind.
		// Nodes with a dangling parent act as roots by construction.
		if node.Kind != d.Kind || len(index.Path(categoryID)) != 1 {
			return ErrSelectionInvalid
		}
	} else if !index.IsChildOf(categoryID, d.CategoryPath[depth-1]) {
		return ErrSelectionInvalid
	}

	d.CategoryPath = append(d.CategoryPath[:depth], categoryID)
	return nil
}

// Leaf returns the deepest selected category ID, or zero for an empty path.
func (d *Draft) Leaf() uint64 {
	if len(d.CategoryPath) == 0 {
		return 0
	}

	return d.CategoryPath[len(d.CategoryPath)-1]
}

// Complete reports whether the path ends in a leaf of the current tree. Only
// a complete path can be committed.
func (d *Draft) Complete(index *categories.Index) bool {
	leaf := d.Leaf()
	if leaf == 0 || !index.Contains(leaf) {
		return false
	}

	return len(index.ChildrenOf(leaf)) == 0
}
