package v1

import (
	"fmt"

	"github.com/AvnerAdda/shekelsync-sub000/internal/categories"
	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CategoryEditable represents all user configurable parameters
type CategoryEditable struct {
	Name         string              `json:"name" example:"מסעדות"`        // Localized name of the category
	NameEn       string              `json:"nameEn" example:"Restaurants"` // English name of the category
	ParentID     *uint64             `json:"parentId"`                     // ID of the parent category, null for roots
	Kind         models.CategoryKind `json:"kind" example:"expense"`       // Kind of the category tree, fixed at root level
	DisplayOrder int                 `json:"displayOrder" example:"3"`     // Ascending sibling ordering
	Active       bool                `json:"active" default:"true"`
	Icon         string              `json:"icon" example:"restaurant"`
	Color        string              `json:"color" example:"#e57373"`
	Description  string              `json:"description"`
}

func (editable CategoryEditable) model() models.CategoryDefinition {
	return models.CategoryDefinition{
		Name:         editable.Name,
		NameEn:       editable.NameEn,
		ParentID:     editable.ParentID,
		Kind:         editable.Kind,
		DisplayOrder: editable.DisplayOrder,
		Active:       editable.Active,
		Icon:         editable.Icon,
		Color:        editable.Color,
		Description:  editable.Description,
	}
}

type CategoryLinks struct {
	Self         string `json:"self" example:"https://example.com/api/v1/categories/7"`                      // The category itself
	Transactions string `json:"transactions" example:"https://example.com/api/v1/categories/7/transactions"` // Transactions assigned to this category
}

type Category struct {
	models.DefaultModel
	CategoryEditable
	Links CategoryLinks `json:"links"`
}

func newCategory(c *gin.Context, model models.CategoryDefinition) Category {
	url := c.GetString(string(models.DBContextURL))

	return Category{
		DefaultModel: model.DefaultModel,
		CategoryEditable: CategoryEditable{
			Name:         model.Name,
			NameEn:       model.NameEn,
			ParentID:     model.ParentID,
			Kind:         model.Kind,
			DisplayOrder: model.DisplayOrder,
			Active:       model.Active,
			Icon:         model.Icon,
			Color:        model.Color,
			Description:  model.Description,
		},
		Links: CategoryLinks{
			Self:         fmt.Sprintf("%s/v1/categories/%d", url, model.ID),
			Transactions: fmt.Sprintf("%s/v1/categories/%d/transactions", url, model.ID),
		},
	}
}

type CategoryListResponse struct {
	Data       []Category  `json:"data"`       // List of categories
	Error      *string     `json:"error"`      // The error, if any occurred
	Pagination *Pagination `json:"pagination"` // Pagination information
}

type CategoryCreateResponse struct {
	Data  []CategoryResponse `json:"data"`  // List of the created categories or their respective error
	Error *string            `json:"error"` // The error, if any occurred
}

func (r *CategoryCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, CategoryResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type CategoryResponse struct {
	Data  *Category `json:"data"`  // Data for the category
	Error *string   `json:"error"` // The error, if any occurred
}

type CategoryQueryFilter struct {
	Kind     models.CategoryKind `form:"kind"`                       // By kind
	ParentID uint64              `form:"parent"`                     // By ID of the parent category
	Name     string              `form:"name" filterField:"false"`   // By name, fuzzy
	Active   bool                `form:"active"`                     // Is the category active?
	Offset   uint                `form:"offset" filterField:"false"` // The offset of the first category returned. Defaults to 0.
	Limit    int                 `form:"limit" filterField:"false"`  // Maximum number of categories to return. Defaults to 50.
}

func (f CategoryQueryFilter) model() models.CategoryDefinition {
	var parentID *uint64
	if f.ParentID != 0 {
		parentID = &f.ParentID
	}

	return models.CategoryDefinition{
		Kind:     f.Kind,
		ParentID: parentID,
		Active:   f.Active,
	}
}

// TransactionSummary describes a set of transactions waiting for
// categorization: how many there are, what they sum to, and a few recent
// samples.
type TransactionSummary struct {
	Count        int64                `json:"count"`
	TotalAmount  decimal.Decimal      `json:"totalAmount"`
	Transactions []models.Transaction `json:"transactions"` // Recent samples, most recent first
}

// CategoryTree is the full category forest with the summaries the review
// screen needs.
type CategoryTree struct {
	Tree          *categories.Forest  `json:"tree"`
	Uncategorized *TransactionSummary `json:"uncategorized"` // Transactions without any category
	PendingBank   *TransactionSummary `json:"pendingBank"`   // Bank transactions waiting for review
}

type CategoryTreeResponse struct {
	Data  *CategoryTree `json:"data"`  // The category forest
	Error *string       `json:"error"` // The error, if any occurred
}
