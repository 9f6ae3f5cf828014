package services

import "lp-rough-api/pkg/models"

// レイアウトパターンのキー
const (
	LayoutHero        = "hero"
	LayoutFeatureGrid = "feature_grid"
	LayoutComparison  = "comparison"
	LayoutLifestyle   = "lifestyle"
	LayoutSpecTable   = "spec_table"
	LayoutTestimonial = "testimonial"
)

// layoutPatterns はレイアウトパターンライブラリです。
var layoutPatterns = map[string]models.LayoutPattern{
	LayoutHero: {
		Key:         LayoutHero,
		Name:        "ヒーローレイアウト",
		Description: "商品画像を大きく、キャッチコピーとともに配置",
		Components:  []string{"大型商品画像", "メインキャッチ", "サブキャッチ", "主要機能3点"},
		Composition: "センター寄せ、縦配置",
		ImageRatio:  "16:9または4:3",
		TextArea:    "画像下部または右側30%",
	},
	LayoutFeatureGrid: {
		Key:         LayoutFeatureGrid,
		Name:        "機能グリッドレイアウト",
		Description: "複数機能を均等に配置",
		Components:  []string{"機能アイコン×3-4", "機能名", "説明テキスト"},
		Composition: "3列または2×2グリッド",
		ImageRatio:  "1:1（アイコン）",
		TextArea:    "各グリッド下部25%",
	},
	LayoutComparison: {
		Key:         LayoutComparison,
		Name:        "比較レイアウト",
		Description: "ビフォーアフターや競合比較",
		Components:  []string{"比較画像×2", "矢印", "比較ポイント"},
		Composition: "左右分割",
		ImageRatio:  "1:1（同サイズ）",
		TextArea:    "中央および下部",
	},
	LayoutLifestyle: {
		Key:         LayoutLifestyle,
		Name:        "ライフスタイルレイアウト",
		Description: "使用シーンを中心とした構成",
		Components:  []string{"シーン画像", "人物", "商品", "ライフスタイル提案"},
		Composition: "画像メイン、テキストオーバーレイ",
		ImageRatio:  "16:9（横長）",
		TextArea:    "画像内オーバーレイ",
	},
	LayoutSpecTable: {
		Key:         LayoutSpecTable,
		Name:        "スペック表レイアウト",
		Description: "仕様情報を整理して表示",
		Components:  []string{"商品画像", "スペック表", "寸法図", "認証マーク"},
		Composition: "左右分割（画像:表=1:1）",
		ImageRatio:  "4:3",
		TextArea:    "右側50%",
	},
	LayoutTestimonial: {
		Key:         LayoutTestimonial,
		Name:        "証言・レビューレイアウト",
		Description: "ユーザーの声や実績を表示",
		Components:  []string{"ユーザー画像", "吹き出し", "星評価", "実績数値"},
		Composition: "吹き出し中心",
		ImageRatio:  "1:1（ユーザー画像）",
		TextArea:    "吹き出し内",
	},
}

// categoryLayouts はカテゴリ別の推奨レイアウト順です。
var categoryLayouts = map[models.Category][]string{
	models.CategoryElectronics: {LayoutHero, LayoutFeatureGrid, LayoutSpecTable, LayoutComparison},
	models.CategoryOutdoor:     {LayoutLifestyle, LayoutHero, LayoutFeatureGrid, LayoutTestimonial},
	models.CategoryLifestyle:   {LayoutLifestyle, LayoutHero, LayoutTestimonial, LayoutFeatureGrid},
}

var defaultCategoryLayouts = []string{LayoutHero, LayoutLifestyle}

// pageTypeLayouts はページ種別ごとの基本推奨です。
var pageTypeLayouts = map[models.PageType][]string{
	models.PageTypeHero:        {LayoutHero, LayoutLifestyle},
	models.PageTypeFeature:     {LayoutFeatureGrid, LayoutHero},
	models.PageTypeComparison:  {LayoutComparison, LayoutFeatureGrid},
	models.PageTypeLifestyle:   {LayoutLifestyle, LayoutHero},
	models.PageTypeSpec:        {LayoutSpecTable, LayoutFeatureGrid},
	models.PageTypeTestimonial: {LayoutTestimonial, LayoutHero},
}

var defaultPageTypeLayouts = []string{LayoutHero, LayoutFeatureGrid}

// pageTypeRules は上から順に判定します。
var pageTypeRules = []struct {
	Type     models.PageType
	Keywords []string
}{
	{models.PageTypeHero, []string{"キャッチ", "メイン", "top", "商品名"}},
	{models.PageTypeFeature, []string{"機能", "特徴", "feature"}},
	{models.PageTypeComparison, []string{"比較", "vs", "ビフォー", "アフター"}},
	{models.PageTypeLifestyle, []string{"シーン", "ライフスタイル", "使用"}},
	{models.PageTypeSpec, []string{"スペック", "仕様", "サイズ"}},
	{models.PageTypeTestimonial, []string{"レビュー", "口コミ", "実績"}},
}

// 全レイアウト共通の指示
const (
	layoutCanvas     = "PC: 1200×800px、SP: 850×1200px"
	layoutMargins    = "PC: 60px、SP: 30px"
	layoutSpacing    = "セクション間: 60px、要素間: 20-30px、テキスト行間: 1.6-1.8"
	layoutResponsive = "SP版では縦配置に変更、画像サイズとテキストサイズを最適化、タップ可能要素は44px以上"
)

var typographyByPriority = map[models.DesignPriority]string{
	models.PriorityHigh:   "メインタイトル: 32-40px、サブタイトル: 20-24px、本文: 16px（PC版）",
	models.PriorityMedium: "メインタイトル: 28-32px、サブタイトル: 18-20px、本文: 14px（PC版）",
	models.PriorityLow:    "メインタイトル: 24-28px、サブタイトル: 16-18px、本文: 14px（PC版）",
}
