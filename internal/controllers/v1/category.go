package v1

import (
	"fmt"
	"net/http"

	"golang.org/x/exp/slices"

	"github.com/AvnerAdda/shekelsync-sub000/internal/categories"
	"github.com/AvnerAdda/shekelsync-sub000/internal/httputil"
	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RegisterCategoryRoutes registers the routes for categories with
// the RouterGroup that is passed.
func RegisterCategoryRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsCategoryList)
		r.GET("", GetCategories)
		r.POST("", CreateCategories)
	}

	// The assembled forest
	{
		r.OPTIONS("/tree", httputil.OptionsGet)
		r.GET("/tree", GetCategoryTree)
	}

	// Category with ID
	{
		r.OPTIONS("/:id", OptionsCategoryDetail)
		r.GET("/:id", GetCategory)
		r.PATCH("/:id", UpdateCategory)
		r.DELETE("/:id", DeleteCategory)

		r.OPTIONS("/:id/transactions", httputil.OptionsGet)
		r.GET("/:id/transactions", GetCategoryTransactions)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Categories
// @Success		204
// @Router			/v1/categories [options]
func OptionsCategoryList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Categories
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/categories/{id} [options]
func OptionsCategoryDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	err = models.DB.First(&models.CategoryDefinition{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Create categories
// @Description	Creates categories from the list of submitted category data. The response code is the highest response code number that a single category creation would have caused. If it is not equal to 201, at least one category has an error.
// @Tags			Categories
// @Produce		json
// @Success		201			{object}	CategoryCreateResponse
// @Failure		400			{object}	CategoryCreateResponse
// @Failure		404			{object}	CategoryCreateResponse
// @Failure		500			{object}	CategoryCreateResponse
// @Param			categories	body		[]CategoryEditable	true	"Categories"
// @Router			/v1/categories [post]
func CreateCategories(c *gin.Context) {
	var editables []CategoryEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := CategoryCreateResponse{}

	for _, editable := range editables {
		category := editable.model()

		err = models.DB.Create(&category).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newCategory(c, category)
		r.Data = append(r.Data, CategoryResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get categories
// @Description	Returns a flat list of categories
// @Tags			Categories
// @Produce		json
// @Success		200	{object}	CategoryListResponse
// @Failure		400	{object}	CategoryListResponse
// @Failure		500	{object}	CategoryListResponse
// @Param			kind	query	string	false	"Filter by kind"
// @Param			parent	query	uint	false	"Filter by parent category ID"
// @Param			name	query	string	false	"Filter by name, fuzzy"
// @Param			active	query	bool	false	"Is the category active?"
// @Param			offset	query	uint	false	"The offset of the first category returned. Defaults to 0."
// @Param			limit	query	int		false	"Maximum number of categories to return. Defaults to 50."
// @Router			/v1/categories [get]
func GetCategories(c *gin.Context) {
	var filter CategoryQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	// Get the fields that we are filtering for
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("display_order ASC, id ASC").
		Where(filter.model(), queryFields...)

	// Filter for the name containing the search string in either language
	if filter.Name != "" {
		like := fmt.Sprintf("%%%s%%", filter.Name)
		q = q.Where("name LIKE ? OR name_en LIKE ?", like, like)
	}

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	// Default to 50 categories and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var definitions []models.CategoryDefinition
	err := q.Find(&definitions).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryListResponse{Error: &e})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryListResponse{Error: &e})
		return
	}

	data := make([]Category, 0)
	for _, definition := range definitions {
		data = append(data, newCategory(c, definition))
	}

	c.JSON(http.StatusOK, CategoryListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get category tree
// @Description	Returns the category forest, one tree per kind, with summaries of the transactions waiting for categorization
// @Tags			Categories
// @Produce		json
// @Success		200	{object}	CategoryTreeResponse
// @Failure		500	{object}	CategoryTreeResponse
// @Router			/v1/categories/tree [get]
func GetCategoryTree(c *gin.Context) {
	forest, index, err := categories.LoadForest(models.DB)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryTreeResponse{Error: &e})
		return
	}

	err = categories.LoadAggregates(models.DB, index)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryTreeResponse{Error: &e})
		return
	}

	forest.Localize(c.GetHeader("Accept-Language"))

	uncategorized, err := transactionSummary(models.DB.Where("category_definition_id IS NULL"))
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryTreeResponse{Error: &e})
		return
	}

	// Bank transactions carry an account number, card transactions do not
	pending, err := transactionSummary(models.DB.
		Where("category_definition_id IS NULL").
		Where("account_number != ''"))
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryTreeResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, CategoryTreeResponse{
		Data: &CategoryTree{
			Tree:          forest,
			Uncategorized: uncategorized,
			PendingBank:   pending,
		},
	})
}

// transactionSummary builds the count, sum and recent samples for the
// transactions the query matches.
func transactionSummary(q *gorm.DB) (*TransactionSummary, error) {
	summary := TransactionSummary{
		Transactions: make([]models.Transaction, 0),
	}

	err := q.Model(&models.Transaction{}).Count(&summary.Count).Error
	if err != nil {
		return nil, err
	}

	var sum decimal.NullDecimal
	err = q.Model(&models.Transaction{}).Select("SUM(amount)").Row().Scan(&sum)
	if err != nil {
		return nil, err
	}
	summary.TotalAmount = sum.Decimal

	err = q.Model(&models.Transaction{}).
		Order("date DESC, identifier DESC").
		Limit(5).
		Find(&summary.Transactions).Error
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

// @Summary		Get category
// @Description	Returns a specific category
// @Tags			Categories
// @Produce		json
// @Success		200	{object}	CategoryResponse
// @Failure		400	{object}	CategoryResponse
// @Failure		404	{object}	CategoryResponse
// @Failure		500	{object}	CategoryResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/categories/{id} [get]
func GetCategory(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryResponse{Error: &e})
		return
	}

	var definition models.CategoryDefinition
	err = models.DB.First(&definition, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryResponse{Error: &e})
		return
	}

	data := newCategory(c, definition)
	c.JSON(http.StatusOK, CategoryResponse{Data: &data})
}

// @Summary		Update category
// @Description	Update an existing category. Only values to be updated need to be specified.
// @Tags			Categories
// @Accept			json
// @Produce		json
// @Success		200			{object}	CategoryResponse
// @Failure		400			{object}	CategoryResponse
// @Failure		404			{object}	CategoryResponse
// @Failure		500			{object}	CategoryResponse
// @Param			id			path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			category	body		CategoryEditable	true	"Category"
// @Router			/v1/categories/{id} [patch]
func UpdateCategory(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryResponse{Error: &e})
		return
	}

	var definition models.CategoryDefinition
	err = models.DB.First(&definition, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryResponse{Error: &e})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, CategoryEditable{})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryResponse{Error: &e})
		return
	}

	var data CategoryEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryResponse{Error: &e})
		return
	}

	err = models.DB.Model(&definition).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CategoryResponse{Error: &e})
		return
	}

	apiResource := newCategory(c, definition)
	c.JSON(http.StatusOK, CategoryResponse{Data: &apiResource})
}

// @Summary		Delete category
// @Description	Deletes a category and unbinds its transactions. Descendant categories become roots on the next tree build until they are cleaned up.
// @Tags			Categories
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/categories/{id} [delete]
func DeleteCategory(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	var definition models.CategoryDefinition
	err = models.DB.First(&definition, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	err = models.DB.Delete(&definition).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	// Clear the category binding of the deleted category's transactions
	err = models.DB.Model(&models.Transaction{}).
		Where("category_definition_id = ?", definition.ID).
		Updates(map[string]any{
			"category_definition_id": nil,
			"category_type":          "",
			"category_name":          "",
			"auto_categorized":       false,
			"confidence":             0.0,
		}).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// @Summary		Get category transactions
// @Description	Returns the transactions assigned to a category, most recent first
// @Tags			Categories
// @Produce		json
// @Success		200	{object}	TransactionListResponse
// @Failure		400	{object}	TransactionListResponse
// @Failure		404	{object}	TransactionListResponse
// @Failure		500	{object}	TransactionListResponse
// @Param			id		path	URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			limit	query	int		false	"Maximum number of transactions to return. Defaults to 50."
// @Router			/v1/categories/{id}/transactions [get]
func GetCategoryTransactions(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionListResponse{Error: &e})
		return
	}

	err = models.DB.First(&models.CategoryDefinition{}, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionListResponse{Error: &e})
		return
	}

	var filter TransactionQueryFilter
	_ = c.Bind(&filter)
	_, setFields := httputil.GetURLFields(c.Request.URL, filter)

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}

	q := models.DB.
		Where("category_definition_id = ?", uri.ID).
		Order("date DESC, identifier DESC").
		Limit(limit)

	var transactions []models.Transaction
	err = q.Find(&transactions).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionListResponse{Error: &e})
		return
	}

	var count int64
	err = q.Limit(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionListResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, TransactionListResponse{
		Data: transactions,
		Pagination: &Pagination{
			Count: len(transactions),
			Total: count,
			Limit: limit,
		},
	})
}
