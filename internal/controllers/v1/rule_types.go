package v1

import (
	"fmt"

	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/AvnerAdda/shekelsync-sub000/internal/rules"
	"github.com/gin-gonic/gin"
)

// PatternRuleEditable represents all user configurable parameters
type PatternRuleEditable struct {
	NamePattern          string `json:"namePattern" example:"STARBUCKS"`  // Case-insensitive substring matched against transaction names
	CategoryDefinitionID uint64 `json:"categoryDefinitionId" example:"7"` // ID of the target category
	Active               bool   `json:"active" default:"true"`
	Priority             int    `json:"priority" example:"1"` // Lower values are evaluated first
}

func (editable PatternRuleEditable) model() models.PatternRule {
	return models.PatternRule{
		NamePattern:          editable.NamePattern,
		CategoryDefinitionID: editable.CategoryDefinitionID,
		Active:               editable.Active,
		Priority:             editable.Priority,
	}
}

type PatternRuleLinks struct {
	Self    string `json:"self" example:"https://example.com/api/v1/rules/4"`                   // The rule itself
	Preview string `json:"preview" example:"https://example.com/api/v1/rules/preview?ruleId=4"` // Transactions the rule matches
}

type PatternRule struct {
	models.DefaultModel
	PatternRuleEditable
	Kind  models.CategoryKind `json:"kind" example:"expense"` // Kind of the target category
	Links PatternRuleLinks    `json:"links"`
}

func newPatternRule(c *gin.Context, model models.PatternRule) PatternRule {
	url := c.GetString(string(models.DBContextURL))

	return PatternRule{
		DefaultModel: model.DefaultModel,
		PatternRuleEditable: PatternRuleEditable{
			NamePattern:          model.NamePattern,
			CategoryDefinitionID: model.CategoryDefinitionID,
			Active:               model.Active,
			Priority:             model.Priority,
		},
		Kind: model.Kind,
		Links: PatternRuleLinks{
			Self:    fmt.Sprintf("%s/v1/rules/%d", url, model.ID),
			Preview: fmt.Sprintf("%s/v1/rules/preview?ruleId=%d", url, model.ID),
		},
	}
}

type PatternRuleListResponse struct {
	Data       []PatternRule `json:"data"`       // List of pattern rules
	Error      *string       `json:"error"`      // The error, if any occurred
	Pagination *Pagination   `json:"pagination"` // Pagination information
}

type PatternRuleCreateResponse struct {
	Data  []PatternRuleResponse `json:"data"`  // List of the created rules or their respective error
	Error *string               `json:"error"` // The error, if any occurred
}

func (r *PatternRuleCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, PatternRuleResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type PatternRuleResponse struct {
	Data  *PatternRule `json:"data"`  // Data for the rule
	Error *string      `json:"error"` // The error, if any occurred
}

type PatternRuleQueryFilter struct {
	Kind                 models.CategoryKind `form:"kind"`                        // By kind of the target category
	CategoryDefinitionID uint64              `form:"category"`                    // By ID of the target category
	Active               bool                `form:"active"`                      // Is the rule active?
	NamePattern          string              `form:"pattern" filterField:"false"` // By pattern, fuzzy
	Offset               uint                `form:"offset" filterField:"false"`  // The offset of the first rule returned. Defaults to 0.
	Limit                int                 `form:"limit" filterField:"false"`   // Maximum number of rules to return. Defaults to 50.
}

func (f PatternRuleQueryFilter) model() models.PatternRule {
	return models.PatternRule{
		Kind:                 f.Kind,
		CategoryDefinitionID: f.CategoryDefinitionID,
		Active:               f.Active,
	}
}

type RulePreviewQuery struct {
	RuleID  uint64 `form:"ruleId"`  // ID of an existing rule to preview
	Pattern string `form:"pattern"` // Pattern of an as-yet-uncreated rule to preview
	Limit   int    `form:"limit"`   // Maximum number of sample matches. Defaults to 50.
}

type RulePreviewResponse struct {
	Data  *rules.Preview `json:"data"`  // Matching transactions for the pattern
	Error *string        `json:"error"` // The error, if any occurred
}

type RuleApplyResponse struct {
	Data  *rules.Result `json:"data"`  // Counts of the application pass
	Error *string       `json:"error"` // The error, if any occurred
}

// RuleAutoCreate is the request to create an exact-name rule from a single
// categorization decision.
type RuleAutoCreate struct {
	Name                 string `json:"name" binding:"required" example:"STARBUCKS TLV"` // Exact transaction display name
	CategoryDefinitionID uint64 `json:"categoryDefinitionId" binding:"required"`         // ID of the target category
}
