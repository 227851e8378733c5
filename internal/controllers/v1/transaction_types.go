package v1

import (
	"github.com/AvnerAdda/shekelsync-sub000/internal/assignment"
	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
)

type TransactionListResponse struct {
	Data       []models.Transaction `json:"data"`       // List of transactions
	Error      *string              `json:"error"`      // The error, if any occurred
	Pagination *Pagination          `json:"pagination"` // Pagination information
}

type TransactionResponse struct {
	Data  *models.Transaction `json:"data"`  // Data for the transaction
	Error *string             `json:"error"` // The error, if any occurred
}

type TransactionQueryFilter struct {
	Name                 string `form:"name" filterField:"false"`          // By name, fuzzy
	AccountNumber        string `form:"accountNumber"`                     // By account number
	CategoryDefinitionID uint64 `form:"category"`                          // By assigned category ID
	AutoCategorized      bool   `form:"autoCategorized"`                   // Was the category assigned by a rule?
	Uncategorized        bool   `form:"uncategorized" filterField:"false"` // Only transactions without a category
	Offset               uint   `form:"offset" filterField:"false"`        // The offset of the first transaction returned. Defaults to 0.
	Limit                int    `form:"limit" filterField:"false"`         // Maximum number of transactions to return. Defaults to 50.
}

func (f TransactionQueryFilter) model() models.Transaction {
	return models.Transaction{
		AccountNumber:   f.AccountNumber,
		AutoCategorized: f.AutoCategorized,
	}
}

// TransactionCategorization is the request body for setting or clearing a
// transaction's category directly. A null categoryDefinitionId clears the
// categorization.
type TransactionCategorization struct {
	CategoryDefinitionID *uint64 `json:"categoryDefinitionId"`
}

type DraftResponse struct {
	Data  *AssignmentDraft `json:"data"`  // The assignment draft
	Error *string          `json:"error"` // The error, if any occurred
}

// AssignmentDraft is the API representation of an in-progress assignment.
type AssignmentDraft struct {
	Key string `json:"key" example:"8837164|leumi"` // Composite key of the transaction under review
	assignment.Draft
	Complete bool `json:"complete"` // Does the path end at a leaf category?
}

// DraftSelectRequest selects a category at a depth of the draft's path.
// A categoryId of 0 clears the selection at the depth.
type DraftSelectRequest struct {
	Depth      int    `json:"depth"`
	CategoryID uint64 `json:"categoryId"`
}

// DraftKindRequest switches the draft to another top-level kind.
type DraftKindRequest struct {
	Kind models.CategoryKind `json:"kind" binding:"required" example:"investment"`
}

type AutoAssignResponse struct {
	Data  *assignment.AutoAssignResult `json:"data"`  // What happened during auto assignment
	Error *string                      `json:"error"` // The error, if any occurred
}
