package recipe

import (
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-customizer/internal/api/handlers"
	"recipe-customizer/internal/core/catalog"
	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/pkg/common"
)

// SearchResponse 搜尋結果
type SearchResponse struct {
	Recipes []recipe.Recipe `json:"recipes"`
}

// Handler 食譜查詢處理程序
type Handler struct {
	store catalog.Store
	debug bool
}

// NewHandler 創建食譜處理程序
func NewHandler(store catalog.Store, debug bool) *Handler {
	return &Handler{store: store, debug: debug}
}

// Search GET /api/recipes/search?query=
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("query")
	recipes, err := h.store.Search(c.Request.Context(), query)
	if err != nil {
		handlers.WriteError(c, err, h.debug)
		return
	}

	common.LogDebug("Recipe search",
		zap.String("query", query),
		zap.Int("results", len(recipes)),
		zap.String("request_id", requestid.Get(c)),
	)
	c.JSON(http.StatusOK, SearchResponse{Recipes: recipes})
}

// Get GET /api/recipes/:id
func (h *Handler) Get(c *gin.Context) {
	r, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.WriteError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, r)
}
