package categories

import (
	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Index is a flat id → node lookup over a forest.
//
// It is rebuilt together with the forest and never patched in place, so a
// node retrieved from it is always part of the current tree.
type Index struct {
	forest *Forest
	nodes  map[uint64]*Node
}

// NewIndex builds the lookup index with a pre-order traversal of the forest.
func NewIndex(forest *Forest) *Index {
	index := &Index{
		forest: forest,
		nodes:  make(map[uint64]*Node),
	}

	for _, kind := range models.Kinds {
		for _, root := range forest.Roots(kind) {
			index.add(root)
		}
	}

	return index
}

func (i *Index) add(node *Node) {
	i.nodes[node.ID] = node
	for _, child := range node.Children {
		i.add(child)
	}
}

// ByID returns the node for the ID.
func (i *Index) ByID(id uint64) (*Node, bool) {
	node, ok := i.nodes[id]
	return node, ok
}

// Contains reports whether the ID resolves to a node in the current tree.
func (i *Index) Contains(id uint64) bool {
	_, ok := i.nodes[id]
	return ok
}

// ChildrenOf returns the children of the node with the ID. A missing ID
// returns an empty list, callers treat it the same as a leaf.
func (i *Index) ChildrenOf(id uint64) []*Node {
	node, ok := i.nodes[id]
	if !ok {
		return []*Node{}
	}

	return node.Children
}

// IsChildOf reports whether childID references a direct child of parentID.
func (i *Index) IsChildOf(childID, parentID uint64) bool {
	child, ok := i.nodes[childID]
	if !ok || child.ParentID == nil {
		return false
	}

	return *child.ParentID == parentID
}

// Path returns the IDs from the root of the node's tree down to the node.
// It returns nil when the ID does not resolve.
func (i *Index) Path(id uint64) []uint64 {
	node, ok := i.nodes[id]
	if !ok {
		return nil
	}

	var path []uint64
	for {
		path = append([]uint64{node.ID}, path...)

		if node.ParentID == nil {
			return path
		}

		parent, ok := i.nodes[*node.ParentID]
		if !ok {
			// Dangling parents are roots by construction
			return path
		}
		node = parent
	}
}

// LoadForest reads all category definitions and returns the rebuilt forest
// with its lookup index.
func LoadForest(db *gorm.DB) (*Forest, *Index, error) {
	var definitions []models.CategoryDefinition
	err := db.Order("display_order ASC, id ASC").Find(&definitions).Error
	if err != nil {
		return nil, nil, err
	}

	forest := BuildForest(definitions)
	return forest, NewIndex(forest), nil
}

// LoadAggregates fills in the per-category transaction count and total
// amount. The aggregates are read-only, they are never written back.
func LoadAggregates(db *gorm.DB, index *Index) error {
	var rows []struct {
		CategoryDefinitionID uint64
		TransactionCount     int64
		TotalAmount          decimal.NullDecimal
	}

	err := db.Table("transactions").
		Select("category_definition_id, COUNT(*) AS transaction_count, SUM(amount) AS total_amount").
		Where("category_definition_id IS NOT NULL").
		Where("deleted_at IS NULL").
		Group("category_definition_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	for _, row := range rows {
		node, ok := index.ByID(row.CategoryDefinitionID)
		if !ok {
			continue
		}

		node.TransactionCount = row.TransactionCount
		node.TotalAmount = row.TotalAmount.Decimal
	}

	return nil
}
