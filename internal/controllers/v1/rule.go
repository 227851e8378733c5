package v1

import (
	"fmt"
	"net/http"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/singleflight"

	"github.com/AvnerAdda/shekelsync-sub000/internal/httputil"
	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/AvnerAdda/shekelsync-sub000/internal/rules"
	"github.com/gin-gonic/gin"
)

// ApplyOptions configures the rule application passes triggered through the
// API. Overwriting manual categorizations is off unless the deployment
// explicitly opts in.
var ApplyOptions rules.ApplyOptions

// previewGroup keeps at most one preview query in flight per rule or
// pattern. Every preview is a full scan of the transaction set, so
// concurrent identical requests share a single result.
var previewGroup singleflight.Group

// RegisterRuleRoutes registers the routes for pattern rules with
// the RouterGroup that is passed.
func RegisterRuleRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsRuleList)
		r.GET("", GetRules)
		r.POST("", CreateRules)
	}

	// Engine operations
	{
		r.OPTIONS("/preview", httputil.OptionsGet)
		r.GET("/preview", GetRulePreview)

		r.OPTIONS("/apply", httputil.OptionsPost)
		r.POST("/apply", ApplyRules)

		r.OPTIONS("/auto-create", httputil.OptionsPost)
		r.POST("/auto-create", AutoCreateRule)
	}

	// Rule with ID
	{
		r.OPTIONS("/:id", OptionsRuleDetail)
		r.GET("/:id", GetRule)
		r.PATCH("/:id", UpdateRule)
		r.DELETE("/:id", DeleteRule)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Rules
// @Success		204
// @Router			/v1/rules [options]
func OptionsRuleList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Rules
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/rules/{id} [options]
func OptionsRuleDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	err = models.DB.First(&models.PatternRule{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Create rules
// @Description	Creates rules from the list of submitted rule data. The response code is the highest response code number that a single rule creation would have caused. If it is not equal to 201, at least one rule has an error.
// @Tags			Rules
// @Produce		json
// @Success		201		{object}	PatternRuleCreateResponse
// @Failure		400		{object}	PatternRuleCreateResponse
// @Failure		404		{object}	PatternRuleCreateResponse
// @Failure		409		{object}	PatternRuleCreateResponse
// @Failure		500		{object}	PatternRuleCreateResponse
// @Param			rules	body		[]PatternRuleEditable	true	"Rules"
// @Router			/v1/rules [post]
func CreateRules(c *gin.Context) {
	var editables []PatternRuleEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PatternRuleCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := PatternRuleCreateResponse{}

	for _, editable := range editables {
		rule := editable.model()

		err = models.DB.Create(&rule).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newPatternRule(c, rule)
		r.Data = append(r.Data, PatternRuleResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get rules
// @Description	Returns a list of rules
// @Tags			Rules
// @Produce		json
// @Success		200		{object}	PatternRuleListResponse
// @Failure		400		{object}	PatternRuleListResponse
// @Failure		500		{object}	PatternRuleListResponse
// @Param			kind	query		string	false	"Filter by kind of the target category"
// @Param			category	query	uint	false	"Filter by target category ID"
// @Param			active	query		bool	false	"Is the rule active?"
// @Param			pattern	query		string	false	"Filter by pattern, fuzzy"
// @Param			offset	query		uint	false	"The offset of the first rule returned. Defaults to 0."
// @Param			limit	query		int		false	"Maximum number of rules to return. Defaults to 50."
// @Router			/v1/rules [get]
func GetRules(c *gin.Context) {
	var filter PatternRuleQueryFilter
	if err := c.Bind(&filter); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, PatternRuleListResponse{Error: &e})
		return
	}

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("priority ASC, id ASC").
		Where(filter.model(), queryFields...)

	// Filter for the pattern containing the query string or an explicitly
	// empty one
	if filter.NamePattern != "" {
		q = q.Where("name_pattern LIKE ?", fmt.Sprintf("%%%s%%", filter.NamePattern))
	} else if slices.Contains(setFields, "NamePattern") {
		q = q.Where("name_pattern = ''")
	}

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	// Default to 50 rules and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var patternRules []models.PatternRule
	err := q.Find(&patternRules).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PatternRuleListResponse{Error: &e})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PatternRuleListResponse{Error: &e})
		return
	}

	data := make([]PatternRule, 0)
	for _, rule := range patternRules {
		data = append(data, newPatternRule(c, rule))
	}

	c.JSON(http.StatusOK, PatternRuleListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Preview rule matches
// @Description	Returns the transactions a pattern matches without changing any data. Set either ruleId for an existing rule or pattern for a rule that does not exist yet.
// @Tags			Rules
// @Produce		json
// @Success		200		{object}	RulePreviewResponse
// @Failure		400		{object}	RulePreviewResponse
// @Failure		404		{object}	RulePreviewResponse
// @Failure		500		{object}	RulePreviewResponse
// @Param			ruleId	query		uint	false	"ID of an existing rule"
// @Param			pattern	query		string	false	"Pattern to preview"
// @Param			limit	query		int		false	"Maximum number of sample matches. Defaults to 50."
// @Router			/v1/rules/preview [get]
func GetRulePreview(c *gin.Context) {
	var query RulePreviewQuery
	if err := c.Bind(&query); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, RulePreviewResponse{Error: &e})
		return
	}

	key := fmt.Sprintf("pattern/%s/%d", query.Pattern, query.Limit)
	if query.RuleID != 0 {
		key = fmt.Sprintf("rule/%d/%d", query.RuleID, query.Limit)
	}

	result, err, _ := previewGroup.Do(key, func() (any, error) {
		if query.RuleID != 0 {
			return rules.PreviewByRuleID(models.DB, query.RuleID, query.Limit)
		}

		return rules.PreviewByPattern(models.DB, query.Pattern, query.Limit)
	})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), RulePreviewResponse{Error: &e})
		return
	}

	preview := result.(rules.Preview)
	c.JSON(http.StatusOK, RulePreviewResponse{Data: &preview})
}

// @Summary		Apply all active rules
// @Description	Applies every active rule to the transaction set in priority order and reports how many rules matched and how many transactions were reassigned. Running it again without changes performs zero reassignments.
// @Tags			Rules
// @Produce		json
// @Success		200	{object}	RuleApplyResponse
// @Failure		500	{object}	RuleApplyResponse
// @Router			/v1/rules/apply [post]
func ApplyRules(c *gin.Context) {
	result, err := rules.ApplyAllActiveRules(models.DB, ApplyOptions)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), RuleApplyResponse{Data: &result, Error: &e})
		return
	}

	c.JSON(http.StatusOK, RuleApplyResponse{Data: &result})
}

// @Summary		Create an exact-name rule
// @Description	Creates a rule whose pattern is the exact transaction name. Returns 409 when a rule for this pattern already exists.
// @Tags			Rules
// @Accept			json
// @Produce		json
// @Success		201		{object}	PatternRuleResponse
// @Failure		400		{object}	PatternRuleResponse
// @Failure		404		{object}	PatternRuleResponse
// @Failure		409		{object}	PatternRuleResponse
// @Failure		500		{object}	PatternRuleResponse
// @Param			rule	body		RuleAutoCreate	true	"Rule"
// @Router			/v1/rules/auto-create [post]
func AutoCreateRule(c *gin.Context) {
	var data RuleAutoCreate
	err := httputil.BindData(c, &data)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PatternRuleResponse{Error: &e})
		return
	}

	rule := models.PatternRule{
		NamePattern:          data.Name,
		CategoryDefinitionID: data.CategoryDefinitionID,
		Active:               true,
	}

	err = models.DB.Create(&rule).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PatternRuleResponse{Error: &e})
		return
	}

	apiResource := newPatternRule(c, rule)
	c.JSON(http.StatusCreated, PatternRuleResponse{Data: &apiResource})
}

// @Summary		Get rule
// @Description	Returns a specific rule
// @Tags			Rules
// @Produce		json
// @Success		200	{object}	PatternRuleResponse
// @Failure		400	{object}	PatternRuleResponse
// @Failure		404	{object}	PatternRuleResponse
// @Failure		500	{object}	PatternRuleResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/rules/{id} [get]
func GetRule(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PatternRuleResponse{Error: &e})
		return
	}

	var rule models.PatternRule
	err = models.DB.First(&rule, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PatternRuleResponse{Error: &e})
		return
	}

	data := newPatternRule(c, rule)
	c.JSON(http.StatusOK, PatternRuleResponse{Data: &data})
}

// @Summary		Update rule
// @Description	Update a rule. Only values to be updated need to be specified, toggling the active flag is a one-field PATCH.
// @Tags			Rules
// @Accept			json
// @Produce		json
// @Success		200		{object}	PatternRuleResponse
// @Failure		400		{object}	PatternRuleResponse
// @Failure		404		{object}	PatternRuleResponse
// @Failure		409		{object}	PatternRuleResponse
// @Failure		500		{object}	PatternRuleResponse
// @Param			id		path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			rule	body		PatternRuleEditable	true	"Rule"
// @Router			/v1/rules/{id} [patch]
func UpdateRule(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PatternRuleResponse{Error: &e})
		return
	}

	var rule models.PatternRule
	err = models.DB.First(&rule, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PatternRuleResponse{Error: &e})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, PatternRuleEditable{})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PatternRuleResponse{Error: &e})
		return
	}

	var data PatternRuleEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PatternRuleResponse{Error: &e})
		return
	}

	err = models.DB.Model(&rule).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PatternRuleResponse{Error: &e})
		return
	}

	apiResource := newPatternRule(c, rule)
	c.JSON(http.StatusOK, PatternRuleResponse{Data: &apiResource})
}

// @Summary		Delete rule
// @Description	Deletes a rule. Transactions it categorized keep their category.
// @Tags			Rules
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/rules/{id} [delete]
func DeleteRule(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	var rule models.PatternRule
	err = models.DB.First(&rule, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	err = models.DB.Delete(&rule).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
