package v1_test

import (
	"fmt"
	"net/http"
	"testing"

	v1 "github.com/AvnerAdda/shekelsync-sub000/internal/controllers/v1"
	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/AvnerAdda/shekelsync-sub000/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) createTestCategories(t *testing.T, editables []v1.CategoryEditable, expectedStatus ...int) v1.CategoryCreateResponse {
	if len(expectedStatus) == 0 {
		expectedStatus = []int{http.StatusCreated}
	}

	r := test.Request(t, http.MethodPost, "http://example.com/v1/categories", editables)
	test.AssertHTTPStatus(t, &r, expectedStatus...)

	var response v1.CategoryCreateResponse
	test.DecodeResponse(t, &r, &response)

	return response
}

func (suite *TestSuiteStandard) TestCategoryOptions() {
	category := suite.createTestCategory(models.CategoryDefinition{})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"list", "http://example.com/v1/categories", http.StatusNoContent},
		{"tree", "http://example.com/v1/categories/tree", http.StatusNoContent},
		{"existing", fmt.Sprintf("http://example.com/v1/categories/%d", category.ID), http.StatusNoContent},
		{"missing", "http://example.com/v1/categories/4912", http.StatusNotFound},
		{"invalid id", "http://example.com/v1/categories/word", http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodOptions, tt.path, "")
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestCategoryCreate() {
	response := suite.createTestCategories(suite.T(), []v1.CategoryEditable{
		{Name: "אוכל", NameEn: "Food", Kind: models.KindExpense, Active: true},
	})

	suite.Require().Len(response.Data, 1)
	suite.Require().Nil(response.Data[0].Error)

	category := response.Data[0].Data
	suite.Assert().Equal("אוכל", category.Name)
	suite.Assert().Equal("Food", category.NameEn)
	suite.Assert().Contains(category.Links.Self, fmt.Sprintf("/v1/categories/%d", category.ID))
}

func (suite *TestSuiteStandard) TestCategoryCreateInvalidKind() {
	response := suite.createTestCategories(suite.T(), []v1.CategoryEditable{
		{Name: "Weird", Kind: "weird"},
	}, http.StatusBadRequest)

	suite.Require().Len(response.Data, 1)
	suite.Require().NotNil(response.Data[0].Error)
	suite.Assert().Equal(models.ErrKindInvalid.Error(), *response.Data[0].Error)
}

func (suite *TestSuiteStandard) TestCategoryCreateDuplicateName() {
	parent := suite.createTestCategory(models.CategoryDefinition{Name: "Food"})

	_ = suite.createTestCategory(models.CategoryDefinition{Name: "Restaurants", ParentID: &parent.ID})

	response := suite.createTestCategories(suite.T(), []v1.CategoryEditable{
		{Name: "Restaurants", Kind: models.KindExpense, ParentID: &parent.ID},
	}, http.StatusConflict)

	suite.Require().Len(response.Data, 1)
	suite.Require().NotNil(response.Data[0].Error)
	suite.Assert().Equal(models.ErrCategoryNameNotUnique.Error(), *response.Data[0].Error)
}

func (suite *TestSuiteStandard) TestCategoriesGetFilter() {
	food := suite.createTestCategory(models.CategoryDefinition{Name: "Food", Kind: models.KindExpense})
	_ = suite.createTestCategory(models.CategoryDefinition{Name: "Restaurants", Kind: models.KindExpense, ParentID: &food.ID})
	_ = suite.createTestCategory(models.CategoryDefinition{Name: "Salary", Kind: models.KindIncome})

	tests := []struct {
		name  string
		query string
		count int
	}{
		{"all", "", 3},
		{"by kind", "kind=expense", 2},
		{"by parent", fmt.Sprintf("parent=%d", food.ID), 1},
		{"by name", "name=Sala", 1},
		{"no match", "name=nothing", 0},
		{"limit", "limit=2", 2},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, "http://example.com/v1/categories?"+tt.query, "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response v1.CategoryListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.count)
		})
	}
}

func (suite *TestSuiteStandard) TestCategoryGetSingle() {
	category := suite.createTestCategory(models.CategoryDefinition{Name: "Food"})

	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/categories/%d", category.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.CategoryResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Equal("Food", response.Data.Name)

	r = test.Request(suite.T(), http.MethodGet, "http://example.com/v1/categories/4912", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestCategoryUpdate() {
	category := suite.createTestCategory(models.CategoryDefinition{Name: "Food"})

	r := test.Request(suite.T(), http.MethodPatch, fmt.Sprintf("http://example.com/v1/categories/%d", category.ID), map[string]any{
		"nameEn": "Food & Drink",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.CategoryResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Equal("Food & Drink", response.Data.NameEn)
	suite.Assert().Equal("Food", response.Data.Name, "name must not change on a partial update")
}

func (suite *TestSuiteStandard) TestCategoryUpdateKindMismatch() {
	income := suite.createTestCategory(models.CategoryDefinition{Name: "Salary", Kind: models.KindIncome})
	category := suite.createTestCategory(models.CategoryDefinition{Name: "Food", Kind: models.KindExpense})

	r := test.Request(suite.T(), http.MethodPatch, fmt.Sprintf("http://example.com/v1/categories/%d", category.ID), map[string]any{
		"parentId": income.ID,
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestCategoryDelete() {
	category := suite.createTestCategory(models.CategoryDefinition{Name: "Food"})

	transaction := suite.createTestTransaction(models.Transaction{
		Name:                 "STARBUCKS TLV",
		CategoryDefinitionID: &category.ID,
		CategoryType:         category.Kind,
		CategoryName:         category.Name,
	})

	r := test.Request(suite.T(), http.MethodDelete, fmt.Sprintf("http://example.com/v1/categories/%d", category.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	// The binding on the transaction was cleared
	var reloaded models.Transaction
	suite.Require().Nil(models.DB.Where("identifier = ? AND vendor = ?", transaction.Identifier, transaction.Vendor).First(&reloaded).Error)
	suite.Assert().Nil(reloaded.CategoryDefinitionID)
	suite.Assert().Empty(reloaded.CategoryName)

	r = test.Request(suite.T(), http.MethodDelete, "http://example.com/v1/categories/4912", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestCategoryTree() {
	food := suite.createTestCategory(models.CategoryDefinition{Name: "אוכל", NameEn: "Food", Kind: models.KindExpense})
	_ = suite.createTestCategory(models.CategoryDefinition{Name: "מסעדות", NameEn: "Restaurants", Kind: models.KindExpense, ParentID: &food.ID})

	_ = suite.createTestTransaction(models.Transaction{
		Name:   "STARBUCKS TLV",
		Amount: decimal.NewFromFloat(-32),
	})

	_ = suite.createTestTransaction(models.Transaction{
		Name:          "CHECK DEPOSIT",
		Amount:        decimal.NewFromFloat(-100),
		AccountNumber: "12-345-678901",
	})

	r := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/categories/tree", "", map[string]string{"Accept-Language": "en"})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.CategoryTreeResponse
	test.DecodeResponse(suite.T(), &r, &response)

	suite.Require().NotNil(response.Data)
	suite.Require().Len(response.Data.Tree.Expense, 1)

	root := response.Data.Tree.Expense[0]
	suite.Assert().Equal("Food", root.Display, "English display name was not used")
	suite.Require().Len(root.Children, 1)
	suite.Assert().Equal("Restaurants", root.Children[0].Display)

	suite.Require().NotNil(response.Data.Uncategorized)
	suite.Assert().Equal(int64(2), response.Data.Uncategorized.Count)

	suite.Require().NotNil(response.Data.PendingBank)
	suite.Assert().Equal(int64(1), response.Data.PendingBank.Count)
}

func (suite *TestSuiteStandard) TestCategoryTransactions() {
	category := suite.createTestCategory(models.CategoryDefinition{Name: "Food"})

	for i := 0; i < 2; i++ {
		_ = suite.createTestTransaction(models.Transaction{
			Name:                 "STARBUCKS TLV",
			CategoryDefinitionID: &category.ID,
			CategoryType:         category.Kind,
			CategoryName:         category.Name,
		})
	}

	_ = suite.createTestTransaction(models.Transaction{Name: "ATM"})

	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/categories/%d/transactions", category.ID), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.TransactionListResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Len(response.Data, 2)
}
