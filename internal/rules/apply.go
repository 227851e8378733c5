package rules

import (
	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ApplyOptions configures a rule application pass.
type ApplyOptions struct {
	// OverwriteManual lets rule application reassign transactions that were
	// categorized by hand. The default leaves manual assignments alone, so
	// a rule never undoes an explicit user decision.
	OverwriteManual bool
}

// Result reports what a rule application pass did.
type Result struct {
	RulesApplied        int `json:"rulesApplied"`        // Rules that matched at least one transaction
	TransactionsUpdated int `json:"transactionsUpdated"` // Total reassignments performed
}

// ApplyAllActiveRules applies every active rule to the transaction set.
//
// Rules are evaluated in ascending priority order, ties broken by ascending
// ID (insertion order). The first rule to match a transaction claims it for
// the whole pass, a lower-priority rule cannot reassign it afterwards.
// Transactions already bound to the claiming rule's target are counted as
// matches but not rewritten, so a pass over an unchanged data set performs
// zero updates.
//
// The pass is not atomic: when a reassignment fails, the counts of what
// succeeded so far are returned alongside the error. Each individual
// reassignment is a single UPDATE and therefore all-or-nothing.
func ApplyAllActiveRules(db *gorm.DB, opts ApplyOptions) (Result, error) {
	var result Result

	var activeRules []models.PatternRule
	err := db.
		Where("active = ?", true).
		Order("priority ASC, id ASC").
		Find(&activeRules).Error
	if err != nil {
		return result, err
	}

	// Transaction keys already claimed by a higher-priority rule in this pass
	claimed := make(map[string]bool)

	for _, rule := range activeRules {
		var target models.CategoryDefinition
		err := db.First(&target, rule.CategoryDefinitionID).Error
		if err != nil {
			// The target was deleted by another session. Skip the rule, it
			// will surface as stale when the rule list is next displayed.
			log.Warn().
				Uint64("rule-id", rule.ID).
				Uint64("category-definition-id", rule.CategoryDefinitionID).
				Msg("skipping rule with unresolvable target category")
			continue
		}

		candidates, err := matchingTransactions(db, rule, opts)
		if err != nil {
			return result, err
		}

		matched := 0
		for _, transaction := range candidates {
			if claimed[transaction.Key()] {
				continue
			}

			if !Matches(rule.NamePattern, transaction.Name) {
				continue
			}

			// The transaction now belongs to this rule for the rest of the
			// pass, whether or not it needs an update
			claimed[transaction.Key()] = true
			matched++

			if transaction.CategoryDefinitionID != nil && *transaction.CategoryDefinitionID == rule.CategoryDefinitionID {
				continue
			}

			err = db.Model(&models.Transaction{}).
				Where("identifier = ? AND vendor = ?", transaction.Identifier, transaction.Vendor).
				Updates(map[string]any{
					"category_definition_id": rule.CategoryDefinitionID,
					"category_type":          rule.Kind,
					"category_name":          target.Name,
					"auto_categorized":       true,
					"confidence":             1.0,
				}).Error
			if err != nil {
				return result, err
			}

			result.TransactionsUpdated++
		}

		if matched > 0 {
			result.RulesApplied++
		}
	}

	return result, nil
}

// matchingTransactions returns the candidate transactions for a rule.
//
// The LIKE filter narrows the scan on the database side, Matches makes the
// final call in memory so the semantics do not depend on the collation of
// the storage layer.
func matchingTransactions(db *gorm.DB, rule models.PatternRule, opts ApplyOptions) ([]models.Transaction, error) {
	q := db.Where(`name LIKE ? ESCAPE '\'`, likeContains(rule.NamePattern))

	if !opts.OverwriteManual {
		// Manually categorized transactions are pinned
		q = q.Where("category_definition_id IS NULL OR auto_categorized = ?", true)
	}

	var transactions []models.Transaction
	err := q.Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	return transactions, nil
}
