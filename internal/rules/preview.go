package rules

import (
	"strings"

	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"gorm.io/gorm"
)

// DefaultPreviewLimit is the number of sample matches returned when the
// caller does not set a limit.
const DefaultPreviewLimit = 50

// Preview is the result of matching a pattern against all transactions.
// Computing it never mutates any data.
type Preview struct {
	Pattern             string               `json:"pattern"`
	TotalCount          int64                `json:"totalCount"`          // Number of transactions matching the pattern
	MatchedTransactions []models.Transaction `json:"matchedTransactions"` // Up to limit sample matches, most recent first
}

// PreviewByPattern matches an as-yet-uncreated rule's pattern against all
// transactions.
//
// Samples are ordered most recent first. Identical dates are broken by
// descending identifier so the ordering is deterministic.
func PreviewByPattern(db *gorm.DB, pattern string, limit int) (Preview, error) {
	if pattern == "" {
		return Preview{}, models.ErrPatternEmpty
	}

	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	q := db.Model(&models.Transaction{}).
		Where(`name LIKE ? ESCAPE '\'`, likeContains(pattern))

	var count int64
	err := q.Count(&count).Error
	if err != nil {
		return Preview{}, err
	}

	var matches []models.Transaction
	err = q.
		Order("date DESC, identifier DESC").
		Limit(limit).
		Find(&matches).Error
	if err != nil {
		return Preview{}, err
	}

	return Preview{
		Pattern:             pattern,
		TotalCount:          count,
		MatchedTransactions: matches,
	}, nil
}

// likeEscaper escapes the characters LIKE treats as wildcards, so a pattern
// is always matched literally. The patterns come from transaction names,
// which do contain % ("SALE 50% OFF").
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeContains builds the LIKE argument matching names that contain the
// pattern as a literal substring.
func likeContains(pattern string) string {
	return "%" + likeEscaper.Replace(pattern) + "%"
}

// PreviewByRuleID matches the stored rule's pattern against all
// transactions, used to inspect an existing rule.
func PreviewByRuleID(db *gorm.DB, ruleID uint64, limit int) (Preview, error) {
	var rule models.PatternRule
	err := db.First(&rule, ruleID).Error
	if err != nil {
		return Preview{}, err
	}

	return PreviewByPattern(db, rule.NamePattern, limit)
}
