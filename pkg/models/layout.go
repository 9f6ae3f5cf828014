package models

import "time"

// PageType ページの種類
type PageType string

const (
	PageTypeHero        PageType = "hero"
	PageTypeFeature     PageType = "feature"
	PageTypeComparison  PageType = "comparison"
	PageTypeLifestyle   PageType = "lifestyle"
	PageTypeSpec        PageType = "spec"
	PageTypeTestimonial PageType = "testimonial"
	PageTypeGeneral     PageType = "general"
)

// LayoutPattern レイアウトパターンの定義
type LayoutPattern struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Components  []string `json:"components"`
	Composition string   `json:"composition"`
	ImageRatio  string   `json:"image_ratio"`
	TextArea    string   `json:"text_area"`
}

// PageAnalysis ページ分析結果
type PageAnalysis struct {
	PageIndex       int            `json:"page_index"`
	PageType        PageType       `json:"page_type"`
	Category        Category       `json:"category"`
	ContentPriority DesignPriority `json:"content_priority"`
}

// RecommendedLayout 推奨レイアウト
type RecommendedLayout struct {
	LayoutName  string `json:"layout_name"`
	LayoutKey   string `json:"layout_key"`
	Priority    string `json:"priority"` // primary / alternative
	Description string `json:"description"`
}

// Dimensions キャンバスサイズと余白
type Dimensions struct {
	Canvas  string `json:"canvas"`
	Margins string `json:"margins"`
	Grid    string `json:"grid"`
}

// ContentPlacement 各エリアの配置指示
type ContentPlacement struct {
	MainArea  string `json:"main_area"`
	ImageArea string `json:"image_area"`
	TextArea  string `json:"text_area"`
}

// DesignElements デザイン要素の指示
type DesignElements struct {
	Typography string `json:"typography"`
	ColorUsage string `json:"color_usage"`
	Spacing    string `json:"spacing"`
}

// LayoutInstruction レイアウト1案の詳細指示
type LayoutInstruction struct {
	LayoutName        string           `json:"layout_name"`
	LayoutKey         string           `json:"layout_key"`
	Dimensions        Dimensions       `json:"dimensions"`
	ContentPlacement  ContentPlacement `json:"content_placement"`
	DesignElements    DesignElements   `json:"design_elements"`
	ResponsiveNotes   string           `json:"responsive_notes"`
	ComponentsOrdered []string         `json:"components"`
}

// LayoutSuggestion 1ページ分のレイアウト提案
type LayoutSuggestion struct {
	PageAnalysis         PageAnalysis        `json:"page_analysis"`
	RecommendedLayouts   []RecommendedLayout `json:"recommended_layouts"`
	DetailedInstructions []LayoutInstruction `json:"detailed_instructions"`
}

// Primary は第一推奨の詳細指示を返します。
func (s *LayoutSuggestion) Primary() (LayoutInstruction, bool) {
	if s == nil || len(s.DetailedInstructions) == 0 {
		return LayoutInstruction{}, false
	}
	return s.DetailedInstructions[0], true
}

// DraftDocument レンダリング済みのLPラフ案
type DraftDocument struct {
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	PageCount   int       `json:"page_count"`
	Enhanced    bool      `json:"enhanced"` // 競合分析を反映したかどうか
	Warnings    []string  `json:"warnings"`
	GeneratedAt time.Time `json:"generated_at"`
}
