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

func (suite *TestSuiteStandard) TestTransactionsGetFilter() {
	coffee := suite.createTestCategory(models.CategoryDefinition{Name: "Coffee"})

	_ = suite.createTestTransaction(models.Transaction{
		Name:                 "STARBUCKS TLV",
		CategoryDefinitionID: &coffee.ID,
		CategoryType:         coffee.Kind,
		CategoryName:         coffee.Name,
		AutoCategorized:      true,
	})

	_ = suite.createTestTransaction(models.Transaction{Name: "ATM WITHDRAWAL"})
	_ = suite.createTestTransaction(models.Transaction{Name: "CHECK DEPOSIT", AccountNumber: "12-345-678901"})

	tests := []struct {
		name  string
		query string
		count int
	}{
		{"all", "", 3},
		{"by name", "name=STARBUCKS", 1},
		{"by category", fmt.Sprintf("category=%d", coffee.ID), 1},
		{"by account number", "accountNumber=12-345-678901", 1},
		{"auto categorized", "autoCategorized=true", 1},
		{"uncategorized", "uncategorized=true", 2},
		{"limit", "limit=2", 2},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, "http://example.com/v1/transactions?"+tt.query, "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response v1.TransactionListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.count)
		})
	}
}

func (suite *TestSuiteStandard) TestTransactionGetSingle() {
	transaction := suite.createTestTransaction(models.Transaction{Name: "STARBUCKS TLV"})

	r := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/transactions/"+transaction.Key(), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.TransactionResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Equal("STARBUCKS TLV", response.Data.Name)

	r = test.Request(suite.T(), http.MethodGet, "http://example.com/v1/transactions/404|leumi", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)

	// A key without a separator is malformed
	r = test.Request(suite.T(), http.MethodGet, "http://example.com/v1/transactions/404", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestTransactionCategorize() {
	coffee := suite.createTestCategory(models.CategoryDefinition{Name: "Coffee"})
	transaction := suite.createTestTransaction(models.Transaction{Name: "STARBUCKS TLV"})

	r := test.Request(suite.T(), http.MethodPut, "http://example.com/v1/transactions/"+transaction.Key(), map[string]any{
		"categoryDefinitionId": coffee.ID,
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var reloaded models.Transaction
	suite.Require().Nil(models.DB.Where("identifier = ? AND vendor = ?", transaction.Identifier, transaction.Vendor).First(&reloaded).Error)
	suite.Require().NotNil(reloaded.CategoryDefinitionID)
	suite.Assert().Equal(coffee.ID, *reloaded.CategoryDefinitionID)
	suite.Assert().Equal("Coffee", reloaded.CategoryName)
	suite.Assert().False(reloaded.AutoCategorized)
	suite.Assert().Equal(1.0, reloaded.Confidence)

	// A null ID clears the categorization
	r = test.Request(suite.T(), http.MethodPut, "http://example.com/v1/transactions/"+transaction.Key(), map[string]any{
		"categoryDefinitionId": nil,
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	suite.Require().Nil(models.DB.Where("identifier = ? AND vendor = ?", transaction.Identifier, transaction.Vendor).First(&reloaded).Error)
	suite.Assert().Nil(reloaded.CategoryDefinitionID)
	suite.Assert().Empty(reloaded.CategoryName)
	suite.Assert().Equal(0.0, reloaded.Confidence)
}

func (suite *TestSuiteStandard) TestTransactionCategorizeMissingCategory() {
	transaction := suite.createTestTransaction(models.Transaction{Name: "STARBUCKS TLV"})

	r := test.Request(suite.T(), http.MethodPut, "http://example.com/v1/transactions/"+transaction.Key(), map[string]any{
		"categoryDefinitionId": 4912,
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestAssignmentWorkflow() {
	food := suite.createTestCategory(models.CategoryDefinition{Name: "Food", Kind: models.KindExpense})
	restaurants := suite.createTestCategory(models.CategoryDefinition{Name: "Restaurants", Kind: models.KindExpense, ParentID: &food.ID})

	transaction := suite.createTestTransaction(models.Transaction{
		Name:   "STARBUCKS TLV",
		Amount: decimal.NewFromFloat(-32),
	})
	base := "http://example.com/v1/transactions/" + transaction.Key()

	// Drafts only exist once the transaction is under review
	r := test.Request(suite.T(), http.MethodGet, base+"/draft", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)

	r = test.Request(suite.T(), http.MethodPost, base+"/review", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var draft v1.DraftResponse
	test.DecodeResponse(suite.T(), &r, &draft)
	suite.Assert().Equal(models.KindExpense, draft.Data.Kind, "outflows default to expense")
	suite.Assert().Empty(draft.Data.CategoryPath)
	suite.Assert().False(draft.Data.Complete)

	// Drill down to the leaf
	r = test.Request(suite.T(), http.MethodPut, base+"/draft/selection", map[string]any{"depth": 0, "categoryId": food.ID})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPut, base+"/draft/selection", map[string]any{"depth": 1, "categoryId": restaurants.ID})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	test.DecodeResponse(suite.T(), &r, &draft)
	suite.Assert().Equal([]uint64{food.ID, restaurants.ID}, draft.Data.CategoryPath)
	suite.Assert().True(draft.Data.Complete)

	// Commit writes the manual assignment
	r = test.Request(suite.T(), http.MethodPost, base+"/commit", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var committed v1.TransactionResponse
	test.DecodeResponse(suite.T(), &r, &committed)
	suite.Require().NotNil(committed.Data.CategoryDefinitionID)
	suite.Assert().Equal(restaurants.ID, *committed.Data.CategoryDefinitionID)
	suite.Assert().False(committed.Data.AutoCategorized)

	// The draft is gone after the commit
	r = test.Request(suite.T(), http.MethodGet, base+"/draft", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestAssignmentSelectionInvalid() {
	salary := suite.createTestCategory(models.CategoryDefinition{Name: "Salary", Kind: models.KindIncome})

	transaction := suite.createTestTransaction(models.Transaction{
		Name:   "STARBUCKS TLV",
		Amount: decimal.NewFromFloat(-32),
	})
	base := "http://example.com/v1/transactions/" + transaction.Key()

	r := test.Request(suite.T(), http.MethodPost, base+"/review", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	// An income root is not valid for an expense draft
	r = test.Request(suite.T(), http.MethodPut, base+"/draft/selection", map[string]any{"depth": 0, "categoryId": salary.ID})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	// Switching the kind clears the path and makes the root valid
	r = test.Request(suite.T(), http.MethodPut, base+"/draft/kind", map[string]any{"kind": "income"})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPut, base+"/draft/selection", map[string]any{"depth": 0, "categoryId": salary.ID})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var draft v1.DraftResponse
	test.DecodeResponse(suite.T(), &r, &draft)
	suite.Assert().Equal(models.KindIncome, draft.Data.Kind)
	suite.Assert().Equal([]uint64{salary.ID}, draft.Data.CategoryPath)
}

func (suite *TestSuiteStandard) TestAssignmentDiscard() {
	transaction := suite.createTestTransaction(models.Transaction{
		Name:   "STARBUCKS TLV",
		Amount: decimal.NewFromFloat(-32),
	})
	base := "http://example.com/v1/transactions/" + transaction.Key()

	r := test.Request(suite.T(), http.MethodPost, base+"/review", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodDelete, base+"/draft", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodGet, base+"/draft", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestAssignmentCommitWithoutSelection() {
	transaction := suite.createTestTransaction(models.Transaction{
		Name:   "STARBUCKS TLV",
		Amount: decimal.NewFromFloat(-32),
	})
	base := "http://example.com/v1/transactions/" + transaction.Key()

	r := test.Request(suite.T(), http.MethodPost, base+"/review", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPost, base+"/commit", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestAssignmentAutoAssign() {
	food := suite.createTestCategory(models.CategoryDefinition{Name: "Food", Kind: models.KindExpense})

	transaction := suite.createTestTransaction(models.Transaction{
		Name:   "STARBUCKS TLV",
		Amount: decimal.NewFromFloat(-32),
	})

	twin := suite.createTestTransaction(models.Transaction{
		Name:   "STARBUCKS TLV",
		Amount: decimal.NewFromFloat(-18),
	})

	base := "http://example.com/v1/transactions/" + transaction.Key()

	r := test.Request(suite.T(), http.MethodPost, base+"/review", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPut, base+"/draft/selection", map[string]any{"depth": 0, "categoryId": food.ID})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPost, base+"/auto-assign", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.AutoAssignResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().True(response.Data.RuleCreated)
	suite.Assert().Equal(2, response.Data.Apply.TransactionsUpdated)

	var reloaded models.Transaction
	suite.Require().Nil(models.DB.Where("identifier = ? AND vendor = ?", twin.Identifier, twin.Vendor).First(&reloaded).Error)
	suite.Require().NotNil(reloaded.CategoryDefinitionID)
	suite.Assert().Equal(food.ID, *reloaded.CategoryDefinitionID)

	// Running it again for the same name degrades to a soft success
	r = test.Request(suite.T(), http.MethodPost, base+"/review", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPut, base+"/draft/selection", map[string]any{"depth": 0, "categoryId": food.ID})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPost, base+"/auto-assign", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().False(response.Data.RuleCreated)
	suite.Assert().NotEmpty(response.Data.Message)
}
