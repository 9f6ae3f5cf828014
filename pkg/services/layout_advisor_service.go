package services

import (
	"fmt"
	"strings"

	"lp-rough-api/pkg/models"

	"go.uber.org/zap"
)

const (
	maxMergedLayouts    = 4
	maxLayoutSuggestion = 3
	longTextLines       = 5
)

// LayoutAdvisorService はページ内容からレイアウト案を提案します。
type LayoutAdvisorService struct {
	logger *zap.Logger
}

// NewLayoutAdvisorService は新しいLayoutAdvisorServiceを生成します。
func NewLayoutAdvisorService(logger *zap.Logger) *LayoutAdvisorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayoutAdvisorService{logger: logger}
}

// Suggest は1ページ分のレイアウト提案を生成します。
func (s *LayoutAdvisorService) Suggest(page models.PageSpec, category models.Category) models.LayoutSuggestion {
	pageType := ClassifyPageType(page)
	priority := page.DesignPriority
	if priority == "" {
		priority = models.PriorityMedium
	}

	suggestion := models.LayoutSuggestion{
		PageAnalysis: models.PageAnalysis{
			PageIndex:       page.Index,
			PageType:        pageType,
			Category:        category,
			ContentPriority: priority,
		},
		RecommendedLayouts:   []models.RecommendedLayout{},
		DetailedInstructions: []models.LayoutInstruction{},
	}

	for i, key := range RecommendLayouts(pageType, category) {
		if i >= maxLayoutSuggestion {
			break
		}
		pattern := layoutPatterns[key]
		rank := "alternative"
		if i == 0 {
			rank = "primary"
		}
		suggestion.RecommendedLayouts = append(suggestion.RecommendedLayouts, models.RecommendedLayout{
			LayoutName:  pattern.Name,
			LayoutKey:   key,
			Priority:    rank,
			Description: pattern.Description,
		})
		suggestion.DetailedInstructions = append(suggestion.DetailedInstructions, buildInstruction(pattern, page, priority))
	}
	return suggestion
}

// SuggestAll はレコードの全ページについてレイアウト提案を生成します。
func (s *LayoutAdvisorService) SuggestAll(record *models.ProductRecord) []models.LayoutSuggestion {
	suggestions := make([]models.LayoutSuggestion, 0, len(record.PageSpecs))
	for _, page := range record.PageSpecs {
		suggestions = append(suggestions, s.Suggest(page, record.Category))
	}
	s.logger.Debug("🎨 レイアウト提案を生成", zap.Int("pages", len(suggestions)))
	return suggestions
}

// ClassifyPageType は本文とレイアウト備考からページ種別を判定します。
func ClassifyPageType(page models.PageSpec) models.PageType {
	content := strings.ToLower(page.Text + page.LayoutNote)
	for _, rule := range pageTypeRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(content, kw) {
				return rule.Type
			}
		}
	}
	return models.PageTypeGeneral
}

// RecommendLayouts はページ種別の基本推奨とカテゴリ推奨を重複なくマージします。最大4件。
func RecommendLayouts(pageType models.PageType, category models.Category) []string {
	base, ok := pageTypeLayouts[pageType]
	if !ok {
		base = defaultPageTypeLayouts
	}
	byCategory, ok := categoryLayouts[category]
	if !ok {
		byCategory = defaultCategoryLayouts
	}

	var merged []string
	for _, key := range append(append([]string{}, base...), byCategory...) {
		merged = appendUnique(merged, key)
	}
	if len(merged) > maxMergedLayouts {
		merged = merged[:maxMergedLayouts]
	}
	return merged
}

func buildInstruction(pattern models.LayoutPattern, page models.PageSpec, priority models.DesignPriority) models.LayoutInstruction {
	return models.LayoutInstruction{
		LayoutName: pattern.Name,
		LayoutKey:  pattern.Key,
		Dimensions: models.Dimensions{
			Canvas:  layoutCanvas,
			Margins: layoutMargins,
			Grid:    gridInstruction(pattern),
		},
		ContentPlacement: models.ContentPlacement{
			MainArea:  mainAreaInstruction(pattern),
			ImageArea: imageAreaInstruction(pattern, page.ImageInstruction),
			TextArea:  textAreaInstruction(pattern, page.Text),
		},
		DesignElements: models.DesignElements{
			Typography: typographyInstruction(priority),
			ColorUsage: colorInstruction(priority),
			Spacing:    layoutSpacing,
		},
		ResponsiveNotes:   layoutResponsive,
		ComponentsOrdered: append([]string(nil), pattern.Components...),
	}
}

func gridInstruction(pattern models.LayoutPattern) string {
	switch {
	case strings.Contains(pattern.Name, "グリッド"):
		return "3列グリッド（PC）、2列グリッド（SP）"
	case strings.Contains(pattern.Name, "比較"):
		return "2列グリッド（左右50%ずつ）"
	case strings.Contains(pattern.Name, "ヒーロー"):
		return "センタリング（最大幅1000px）"
	}
	return "12列グリッドシステム"
}

func mainAreaInstruction(pattern models.LayoutPattern) string {
	switch {
	case strings.Contains(pattern.Composition, "センター"):
		return "中央寄せで配置、メインコンテンツを70%幅で配置"
	case strings.Contains(pattern.Composition, "グリッド"):
		return "等間隔グリッド、各アイテム間に20pxの余白"
	case strings.Contains(pattern.Composition, "左右分割"):
		return "左右50%ずつ、中央に10pxのガター"
	}
	return "標準的な縦配置、適切な余白を確保"
}

func imageAreaInstruction(pattern models.LayoutPattern, imageInstruction string) string {
	base := fmt.Sprintf("アスペクト比: %s、高品質画像を使用", pattern.ImageRatio)
	if imageInstruction == "" || imageInstruction == models.PendingImage {
		return base
	}
	return base + "\n" + imageInstruction
}

func textAreaInstruction(pattern models.LayoutPattern, text string) string {
	instruction := "配置: " + pattern.TextArea
	if len(strings.Split(text, "\n")) > longTextLines {
		instruction += "、長いテキストのため行間を調整"
	}
	return instruction
}

func typographyInstruction(priority models.DesignPriority) string {
	if t, ok := typographyByPriority[priority]; ok {
		return t
	}
	return typographyByPriority[models.PriorityLow]
}

func colorInstruction(priority models.DesignPriority) string {
	if priority == models.PriorityHigh {
		return "ブランドカラーをメインに、アクセントカラーで強調"
	}
	return "ブランドカラーを基調に、落ち着いた配色"
}
