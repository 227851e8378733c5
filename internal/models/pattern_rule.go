package models

import (
	"encoding/json"
	"strings"

	"gorm.io/gorm"
)

// PatternRule automatically assigns transactions whose name contains
// NamePattern (case-insensitive) to the target category.
//
// Rules are evaluated in ascending priority order, ties broken by ascending
// ID, so the first matching rule claims a transaction.
type PatternRule struct {
	DefaultModel
	NamePattern          string       `json:"namePattern" gorm:"uniqueIndex" example:"STARBUCKS"` // Case-insensitive substring to match against transaction names
	CategoryDefinitionID uint64       `json:"categoryDefinitionId" example:"7"`                   // ID of the target category
	Kind                 CategoryKind `json:"kind" example:"expense"`                             // Kind of the target category, denormalized for filtering
	Active               bool         `json:"active" gorm:"default:true"`
	Priority             int          `json:"priority" example:"1"` // Lower values are evaluated first
}

func (r *PatternRule) BeforeSave(_ *gorm.DB) error {
	r.NamePattern = strings.TrimSpace(r.NamePattern)
	if r.NamePattern == "" {
		return ErrPatternEmpty
	}

	return nil
}

func (r *PatternRule) BeforeCreate(tx *gorm.DB) error {
	return r.checkIntegrity(tx)
}

func (r *PatternRule) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("CategoryDefinitionID") {
		toSave := tx.Statement.Dest.(PatternRule)

		var target CategoryDefinition
		err := tx.First(&target, toSave.CategoryDefinitionID).Error
		if err != nil {
			return err
		}

		// Keep the denormalized kind in sync with the new target
		tx.Statement.SetColumn("Kind", target.Kind)
	}

	return nil
}

// checkIntegrity verifies that the target category exists and keeps the
// denormalized kind in sync with it.
func (r *PatternRule) checkIntegrity(tx *gorm.DB) error {
	var target CategoryDefinition
	err := tx.First(&target, r.CategoryDefinitionID).Error
	if err != nil {
		return err
	}

	r.Kind = target.Kind
	return nil
}

// Returns all pattern rules on this instance for export
func (PatternRule) Export() (json.RawMessage, error) {
	var rules []PatternRule
	err := DB.Where(&PatternRule{}).Find(&rules).Error
	if err != nil {
		return nil, err
	}

	j, err := json.Marshal(&rules)
	if err != nil {
		return json.RawMessage{}, err
	}
	return json.RawMessage(j), nil
}
