package handlers

import (
	"net/http"
	"strings"

	"lp-rough-api/pkg/models"
	"lp-rough-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// AnalysisHandler は競合分析・レイアウト提案・カテゴリ判定のハンドラです。
type AnalysisHandler struct {
	analysis *services.CompetitorAnalysisService
	layout   *services.LayoutAdvisorService
}

// NewAnalysisHandler は新しいAnalysisHandlerを生成します。
func NewAnalysisHandler(analysis *services.CompetitorAnalysisService, layout *services.LayoutAdvisorService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis, layout: layout}
}

// AnalysisRequest は競合分析のリクエストボディです。
type AnalysisRequest struct {
	ProductName string          `json:"product_name" binding:"required"`
	Category    models.Category `json:"category"`
	Report      bool            `json:"report"`
}

// AnalyzeCompetitors は商品名から競合分析を行います。
func (h *AnalysisHandler) AnalyzeCompetitors(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "product_name は必須です"})
		return
	}
	category := req.Category
	if !category.Valid() {
		category = services.ClassifyCategory(req.ProductName)
	}

	result, err := h.analysis.Analyze(c.Request.Context(), req.ProductName, category)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"success": true, "analysis": result}
	if req.Report {
		body["report"] = services.CompetitorReport(req.ProductName, result)
	}
	c.JSON(http.StatusOK, body)
}

// LayoutRequest はレイアウト提案のリクエストボディです。
type LayoutRequest struct {
	Category models.Category   `json:"category"`
	Pages    []models.PageSpec `json:"pages" binding:"required,min=1"`
}

// SuggestLayout はページごとのレイアウト案を返します。
func (h *AnalysisHandler) SuggestLayout(c *gin.Context) {
	var req LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "pages を1件以上指定してください"})
		return
	}
	category := req.Category
	if !category.Valid() {
		category = services.DefaultCategory
	}

	suggestions := make([]models.LayoutSuggestion, 0, len(req.Pages))
	for i, page := range req.Pages {
		if page.Index < 1 {
			page.Index = i + 1
		}
		suggestions = append(suggestions, h.layout.Suggest(page, category))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "category": category, "suggestions": suggestions})
}

// GetCategory は商品名からカテゴリを判定します。
func (h *AnalysisHandler) GetCategory(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "name を指定してください"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "name": name, "category": services.ClassifyCategory(name)})
}
