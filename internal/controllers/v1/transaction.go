package v1

import (
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/AvnerAdda/shekelsync-sub000/internal/assignment"
	"github.com/AvnerAdda/shekelsync-sub000/internal/categories"
	"github.com/AvnerAdda/shekelsync-sub000/internal/httputil"
	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	workflowMu sync.Mutex
	workflow   *assignment.Workflow
	workflowDB *gorm.DB
)

// getWorkflow returns the assignment workflow bound to the current database
// connection. Reconnecting the database drops all drafts.
func getWorkflow() *assignment.Workflow {
	workflowMu.Lock()
	defer workflowMu.Unlock()

	if workflow == nil || workflowDB != models.DB {
		workflow = assignment.NewWorkflow(models.DB)
		workflow.ApplyOptions = ApplyOptions
		workflowDB = models.DB
	}

	return workflow
}

// RegisterTransactionRoutes registers the routes for transactions with
// the RouterGroup that is passed.
func RegisterTransactionRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", httputil.OptionsGet)
		r.GET("", GetTransactions)
	}

	// Transaction with composite key
	{
		r.OPTIONS("/:key", OptionsTransactionDetail)
		r.GET("/:key", GetTransaction)
		r.PUT("/:key", CategorizeTransaction)
	}

	// Assignment workflow
	{
		r.OPTIONS("/:key/review", httputil.OptionsPost)
		r.POST("/:key/review", ReviewTransaction)

		r.OPTIONS("/:key/draft", httputil.OptionsGetDelete)
		r.GET("/:key/draft", GetDraft)
		r.DELETE("/:key/draft", DiscardDraft)

		r.OPTIONS("/:key/draft/selection", httputil.OptionsPut)
		r.PUT("/:key/draft/selection", SelectDraftCategory)

		r.OPTIONS("/:key/draft/kind", httputil.OptionsPut)
		r.PUT("/:key/draft/kind", SetDraftKind)

		r.OPTIONS("/:key/commit", httputil.OptionsPost)
		r.POST("/:key/commit", CommitDraft)

		r.OPTIONS("/:key/auto-assign", httputil.OptionsPost)
		r.POST("/:key/auto-assign", AutoAssignTransaction)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Transactions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			key	path		string	true	"Composite key of the transaction"
// @Router			/v1/transactions/{key} [options]
func OptionsTransactionDetail(c *gin.Context) {
	var uri URIKey
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	_, err = findTransaction(uri.Key)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	httputil.OptionsGetPut(c)
}

// @Summary		Get transactions
// @Description	Returns a list of transactions, most recent first
// @Tags			Transactions
// @Produce		json
// @Success		200				{object}	TransactionListResponse
// @Failure		400				{object}	TransactionListResponse
// @Failure		500				{object}	TransactionListResponse
// @Param			name			query		string	false	"Filter by name, fuzzy"
// @Param			accountNumber	query		string	false	"Filter by account number"
// @Param			category		query		uint	false	"Filter by assigned category ID"
// @Param			autoCategorized	query		bool	false	"Was the category assigned by a rule?"
// @Param			uncategorized	query		bool	false	"Only transactions without a category"
// @Param			offset			query		uint	false	"The offset of the first transaction returned. Defaults to 0."
// @Param			limit			query		int		false	"Maximum number of transactions to return. Defaults to 50."
// @Router			/v1/transactions [get]
func GetTransactions(c *gin.Context) {
	var filter TransactionQueryFilter
	if err := c.Bind(&filter); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, TransactionListResponse{Error: &e})
		return
	}

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("date DESC, identifier DESC").
		Where(filter.model(), queryFields...)

	if filter.Name != "" {
		q = q.Where("name LIKE ?", fmt.Sprintf("%%%s%%", filter.Name))
	} else if slices.Contains(setFields, "Name") {
		q = q.Where("name = ''")
	}

	if filter.CategoryDefinitionID != 0 {
		q = q.Where("category_definition_id = ?", filter.CategoryDefinitionID)
	}

	if filter.Uncategorized {
		q = q.Where("category_definition_id IS NULL")
	}

	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var transactions []models.Transaction
	err := q.Find(&transactions).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionListResponse{Error: &e})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionListResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, TransactionListResponse{
		Data: transactions,
		Pagination: &Pagination{
			Count:  len(transactions),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get transaction
// @Description	Returns a specific transaction
// @Tags			Transactions
// @Produce		json
// @Success		200	{object}	TransactionResponse
// @Failure		400	{object}	TransactionResponse
// @Failure		404	{object}	TransactionResponse
// @Failure		500	{object}	TransactionResponse
// @Param			key	path		string	true	"Composite key of the transaction"
// @Router			/v1/transactions/{key} [get]
func GetTransaction(c *gin.Context) {
	transaction, ok := bindTransaction(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, TransactionResponse{Data: &transaction})
}

// @Summary		Categorize transaction
// @Description	Sets or clears the category of a transaction. A null categoryDefinitionId clears the categorization.
// @Tags			Transactions
// @Accept			json
// @Produce		json
// @Success		200				{object}	TransactionResponse
// @Failure		400				{object}	TransactionResponse
// @Failure		404				{object}	TransactionResponse
// @Failure		500				{object}	TransactionResponse
// @Param			key				path		string						true	"Composite key of the transaction"
// @Param			categorization	body		TransactionCategorization	true	"Categorization"
// @Router			/v1/transactions/{key} [put]
func CategorizeTransaction(c *gin.Context) {
	transaction, ok := bindTransaction(c)
	if !ok {
		return
	}

	var data TransactionCategorization
	err := httputil.BindData(c, &data)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{Error: &e})
		return
	}

	updates := map[string]any{
		"category_definition_id": nil,
		"category_type":          "",
		"category_name":          "",
		"auto_categorized":       false,
		"confidence":             0.0,
	}

	if data.CategoryDefinitionID != nil {
		var target models.CategoryDefinition
		err = models.DB.First(&target, *data.CategoryDefinitionID).Error
		if err != nil {
			e := err.Error()
			c.JSON(status(err), TransactionResponse{Error: &e})
			return
		}

		updates["category_definition_id"] = target.ID
		updates["category_type"] = target.Kind
		updates["category_name"] = target.Name
		updates["confidence"] = 1.0
	}

	err = models.DB.Model(&transaction).Updates(updates).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, TransactionResponse{Data: &transaction})
}

// @Summary		Review transaction
// @Description	Puts the transaction under review and returns its assignment draft. The draft's kind defaults to expense for negative amounts and income otherwise.
// @Tags			Transactions
// @Produce		json
// @Success		200	{object}	DraftResponse
// @Failure		400	{object}	DraftResponse
// @Failure		404	{object}	DraftResponse
// @Failure		500	{object}	DraftResponse
// @Param			key	path		string	true	"Composite key of the transaction"
// @Router			/v1/transactions/{key}/review [post]
func ReviewTransaction(c *gin.Context) {
	var uri URIKey
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DraftResponse{Error: &e})
		return
	}

	draft, err := getWorkflow().Review(uri.Key)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DraftResponse{Error: &e})
		return
	}

	respondDraft(c, uri.Key, draft)
}

// @Summary		Get assignment draft
// @Description	Returns the assignment draft of a transaction under review
// @Tags			Transactions
// @Produce		json
// @Success		200	{object}	DraftResponse
// @Failure		400	{object}	DraftResponse
// @Failure		404	{object}	DraftResponse
// @Failure		500	{object}	DraftResponse
// @Param			key	path		string	true	"Composite key of the transaction"
// @Router			/v1/transactions/{key}/draft [get]
func GetDraft(c *gin.Context) {
	var uri URIKey
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DraftResponse{Error: &e})
		return
	}

	draft, err := getWorkflow().Draft(uri.Key)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DraftResponse{Error: &e})
		return
	}

	respondDraft(c, uri.Key, draft)
}

// @Summary		Discard assignment draft
// @Description	Takes the transaction out of the review set without categorizing it
// @Tags			Transactions
// @Success		204
// @Failure		400	{object}	httpError
// @Param			key	path		string	true	"Composite key of the transaction"
// @Router			/v1/transactions/{key}/draft [delete]
func DiscardDraft(c *gin.Context) {
	var uri URIKey
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	getWorkflow().Discard(uri.Key)
	c.JSON(http.StatusNoContent, nil)
}

// @Summary		Select draft category
// @Description	Selects a category at a depth of the draft's path. Selecting at a depth above the current leaf truncates the deeper selections, a categoryId of 0 clears the selection at the depth.
// @Tags			Transactions
// @Accept			json
// @Produce		json
// @Success		200			{object}	DraftResponse
// @Failure		400			{object}	DraftResponse
// @Failure		404			{object}	DraftResponse
// @Failure		500			{object}	DraftResponse
// @Param			key			path		string				true	"Composite key of the transaction"
// @Param			selection	body		DraftSelectRequest	true	"Selection"
// @Router			/v1/transactions/{key}/draft/selection [put]
func SelectDraftCategory(c *gin.Context) {
	var uri URIKey
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DraftResponse{Error: &e})
		return
	}

	var data DraftSelectRequest
	err = httputil.BindData(c, &data)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DraftResponse{Error: &e})
		return
	}

	draft, err := getWorkflow().SelectAt(uri.Key, data.Depth, data.CategoryID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DraftResponse{Error: &e})
		return
	}

	respondDraft(c, uri.Key, draft)
}

// @Summary		Set draft kind
// @Description	Switches the draft to another kind. Changing the kind clears the category path since paths never cross kinds.
// @Tags			Transactions
// @Accept			json
// @Produce		json
// @Success		200		{object}	DraftResponse
// @Failure		400		{object}	DraftResponse
// @Failure		404		{object}	DraftResponse
// @Failure		500		{object}	DraftResponse
// @Param			key		path		string				true	"Composite key of the transaction"
// @Param			kind	body		DraftKindRequest	true	"Kind"
// @Router			/v1/transactions/{key}/draft/kind [put]
func SetDraftKind(c *gin.Context) {
	var uri URIKey
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DraftResponse{Error: &e})
		return
	}

	var data DraftKindRequest
	err = httputil.BindData(c, &data)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DraftResponse{Error: &e})
		return
	}

	draft, err := getWorkflow().SetKind(uri.Key, data.Kind)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DraftResponse{Error: &e})
		return
	}

	respondDraft(c, uri.Key, draft)
}

// @Summary		Commit assignment draft
// @Description	Writes the draft's categorization to the transaction as a manual assignment and takes it out of the review set
// @Tags			Transactions
// @Produce		json
// @Success		200	{object}	TransactionResponse
// @Failure		400	{object}	TransactionResponse
// @Failure		404	{object}	TransactionResponse
// @Failure		409	{object}	TransactionResponse
// @Failure		500	{object}	TransactionResponse
// @Param			key	path		string	true	"Composite key of the transaction"
// @Router			/v1/transactions/{key}/commit [post]
func CommitDraft(c *gin.Context) {
	var uri URIKey
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{Error: &e})
		return
	}

	transaction, err := getWorkflow().Commit(uri.Key)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, TransactionResponse{Data: &transaction})
}

// @Summary		Auto-assign similar transactions
// @Description	Promotes the draft's decision into a rule for the transaction's exact name and applies all active rules. An already existing rule for the name is not an error, the active rules are applied anyway.
// @Tags			Transactions
// @Produce		json
// @Success		200	{object}	AutoAssignResponse
// @Failure		400	{object}	AutoAssignResponse
// @Failure		404	{object}	AutoAssignResponse
// @Failure		409	{object}	AutoAssignResponse
// @Failure		500	{object}	AutoAssignResponse
// @Param			key	path		string	true	"Composite key of the transaction"
// @Router			/v1/transactions/{key}/auto-assign [post]
func AutoAssignTransaction(c *gin.Context) {
	var uri URIKey
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AutoAssignResponse{Error: &e})
		return
	}

	result, err := getWorkflow().AutoAssignSimilar(uri.Key)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AutoAssignResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, AutoAssignResponse{Data: &result})
}

// findTransaction loads a transaction by its composite key.
func findTransaction(key string) (models.Transaction, error) {
	identifier, vendor, err := models.ParseKey(key)
	if err != nil {
		return models.Transaction{}, err
	}

	var transaction models.Transaction
	err = models.DB.
		Where("identifier = ? AND vendor = ?", identifier, vendor).
		First(&transaction).Error

	return transaction, err
}

// bindTransaction binds the key URI parameter and loads the transaction,
// writing the error response itself on failure.
func bindTransaction(c *gin.Context) (models.Transaction, bool) {
	var uri URIKey
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{Error: &e})
		return models.Transaction{}, false
	}

	transaction, err := findTransaction(uri.Key)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{Error: &e})
		return models.Transaction{}, false
	}

	return transaction, true
}

// respondDraft writes the draft with its completeness for the current tree.
func respondDraft(c *gin.Context, key string, draft *assignment.Draft) {
	_, index, err := categories.LoadForest(models.DB)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DraftResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, DraftResponse{
		Data: &AssignmentDraft{
			Key:      key,
			Draft:    *draft,
			Complete: draft.Complete(index),
		},
	})
}
