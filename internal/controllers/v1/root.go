package v1

import (
	"net/http"

	"github.com/AvnerAdda/shekelsync-sub000/internal/httputil"
	"github.com/AvnerAdda/shekelsync-sub000/internal/models"
	"github.com/gin-gonic/gin"
)

type RootResponse struct {
	Links RootLinks `json:"links"`
}

type RootLinks struct {
	Categories   string `json:"categories" example:"https://example.com/api/v1/categories"`     // URL of the category endpoints
	Rules        string `json:"rules" example:"https://example.com/api/v1/rules"`               // URL of the rule endpoints
	Transactions string `json:"transactions" example:"https://example.com/api/v1/transactions"` // URL of the transaction endpoints
	Export       string `json:"export" example:"https://example.com/api/v1/export"`             // URL of the export endpoint
}

// RegisterRootRoutes registers the routes for the v1 API root
// with the RouterGroup that is passed.
func RegisterRootRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", httputil.OptionsGet)
	r.GET("", GetRoot)
}

// @Summary		v1 API
// @Description	Returns general information about the v1 API
// @Tags			v1
// @Success		200	{object}	RootResponse
// @Router			/v1 [get]
func GetRoot(c *gin.Context) {
	url := c.GetString(string(models.DBContextURL))

	c.JSON(http.StatusOK, RootResponse{
		Links: RootLinks{
			Categories:   url + "/v1/categories",
			Rules:        url + "/v1/rules",
			Transactions: url + "/v1/transactions",
			Export:       url + "/v1/export",
		},
	})
}
