package customize

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-customizer/internal/api/handlers"
	"recipe-customizer/internal/client"
	"recipe-customizer/internal/core/customize"
	"recipe-customizer/internal/pkg/common"
)

// customizeRequest 請求綁定；必填欄位交由 binding 檢查
type customizeRequest struct {
	RecipeID           string             `json:"recipe_id" binding:"required"`
	DietaryType        string             `json:"dietary_type" binding:"required"`
	Allergens          []string           `json:"allergens"`
	BlockedIngredients []string           `json:"blocked_ingredients"`
	FlavorPreferences  map[string]float64 `json:"flavor_preferences"`
}

// Handler 客製化處理程序
type Handler struct {
	svc   *customize.Service
	debug bool
}

// NewHandler 創建客製化處理程序
func NewHandler(svc *customize.Service, debug bool) *Handler {
	return &Handler{svc: svc, debug: debug}
}

// Customize POST /api/customize/
func (h *Handler) Customize(c *gin.Context) {
	var req customizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.WriteError(c, handlers.BindError(err), h.debug)
		return
	}

	session := SessionKey(c)
	common.LogInfo("開始處理客製化請求",
		zap.String("recipe_id", req.RecipeID),
		zap.String("dietary_type", req.DietaryType),
		zap.Int("allergens", len(req.Allergens)),
		zap.String("request_id", requestid.Get(c)),
	)

	resp, err := h.svc.Customize(c.Request.Context(), session, customize.Request{
		RecipeID:           req.RecipeID,
		DietaryType:        req.DietaryType,
		Allergens:          req.Allergens,
		BlockedIngredients: req.BlockedIngredients,
		FlavorPreferences:  req.FlavorPreferences,
	})
	if err != nil {
		handlers.WriteError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SessionKey 以 X-Session-ID 區分使用者，沒有時改用來源 IP
func SessionKey(c *gin.Context) string {
	if s := strings.TrimSpace(c.GetHeader(client.SessionHeader)); s != "" {
		return "session:" + s
	}
	return "ip:" + c.ClientIP()
}
