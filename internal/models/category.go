package models

import (
	"encoding/json"
	"strings"

	"gorm.io/gorm"
)

// CategoryKind partitions the category forest into three independent trees.
type CategoryKind string

const (
	KindExpense    CategoryKind = "expense"
	KindInvestment CategoryKind = "investment"
	KindIncome     CategoryKind = "income"
)

// Kinds lists all valid category kinds.
var Kinds = []CategoryKind{KindExpense, KindInvestment, KindIncome}

// Valid reports whether the kind is one of the three known kinds.
func (k CategoryKind) Valid() bool {
	return k == KindExpense || k == KindInvestment || k == KindIncome
}

// CategoryDefinition is a node of the category taxonomy.
//
// The kind of a category always equals the kind of its root ancestor. It is
// fixed when a root is created and inherited by every descendant.
type CategoryDefinition struct {
	DefaultModel
	Name         string       `json:"name" gorm:"uniqueIndex:category_parent_name" example:"מסעדות"` // Localized display name
	NameEn       string       `json:"nameEn" example:"Restaurants"`                                  // English display name
	ParentID     *uint64      `json:"parentId" gorm:"uniqueIndex:category_parent_name"`              // ID of the parent category, null for roots
	Kind         CategoryKind `json:"kind" example:"expense"`
	DisplayOrder int          `json:"displayOrder" example:"3"` // Ascending sibling ordering
	Active       bool         `json:"active" gorm:"default:true"`
	Icon         string       `json:"icon" example:"restaurant"`
	Color        string       `json:"color" example:"#e57373"`
	Description  string       `json:"description"`
}

func (c *CategoryDefinition) BeforeSave(_ *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	c.NameEn = strings.TrimSpace(c.NameEn)
	c.Description = strings.TrimSpace(c.Description)

	return nil
}

func (c *CategoryDefinition) BeforeCreate(tx *gorm.DB) error {
	return c.checkIntegrity(tx, *c)
}

func (c *CategoryDefinition) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("ParentID", "Kind") {
		toSave := tx.Statement.Dest.(CategoryDefinition)

		// Carry over unchanged fields for the check
		if !tx.Statement.Changed("ParentID") {
			toSave.ParentID = c.ParentID
		}
		if !tx.Statement.Changed("Kind") {
			toSave.Kind = c.Kind
		}

		return c.checkIntegrity(tx, toSave)
	}

	return nil
}

// checkIntegrity verifies that the kind is valid and matches the parent's
// kind. The parent must exist.
func (c *CategoryDefinition) checkIntegrity(tx *gorm.DB, toSave CategoryDefinition) error {
	if !toSave.Kind.Valid() {
		return ErrKindInvalid
	}

	if toSave.ParentID == nil {
		return nil
	}

	var parent CategoryDefinition
	err := tx.First(&parent, *toSave.ParentID).Error
	if err != nil {
		return err
	}

	if parent.Kind != toSave.Kind {
		return ErrKindMismatch
	}

	return nil
}

// Children returns the direct children of the category.
func (c CategoryDefinition) Children(db *gorm.DB) ([]CategoryDefinition, error) {
	var children []CategoryDefinition
	err := db.
		Where(&CategoryDefinition{ParentID: &c.ID}).
		Order("display_order ASC, id ASC").
		Find(&children).Error

	return children, err
}

// Returns all category definitions on this instance for export
func (CategoryDefinition) Export() (json.RawMessage, error) {
	var categories []CategoryDefinition
	err := DB.Where(&CategoryDefinition{}).Find(&categories).Error
	if err != nil {
		return nil, err
	}

	j, err := json.Marshal(&categories)
	if err != nil {
		return json.RawMessage{}, err
	}
	return json.RawMessage(j), nil
}
