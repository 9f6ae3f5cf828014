package services

import (
	"strings"

	"lp-rough-api/pkg/models"
)

// FeatureBulletRule はセールスポイントにキーワードが含まれる場合に指定ページへ追記する行です。
type FeatureBulletRule struct {
	Keywords []string
	Bullet   string
	Page     int
}

// featureBulletRules は各ルールを独立に判定します。同じページ内では表の順に出力します。
var featureBulletRules = []FeatureBulletRule{
	{Keywords: []string{"段階", "stages"}, Bullet: "• 多段階の温度調節", Page: 1},
	{Keywords: []string{"過熱保護", "overheat protection"}, Bullet: "• 過熱保護システム搭載", Page: 1},
	{Keywords: []string{"丸洗い", "washable"}, Bullet: "• 丸洗い可能", Page: 1},
	{Keywords: []string{"キャンプ", "camp"}, Bullet: "キャンプギアに合うデザイン", Page: 1},
	{Keywords: []string{"コントローラー", "controller"}, Bullet: "コントローラーから簡単操作", Page: 4},
	{Keywords: []string{"過熱保護", "overheat protection"}, Bullet: "過熱保護システム", Page: 5},
	{Keywords: []string{"キャンプ", "camp"}, Bullet: "キャンプ・アウトドア・自宅", Page: 6},
	{Keywords: []string{"丸洗い", "washable"}, Bullet: "Q: 丸洗いできますか？\nA: はい、丸洗い可能です", Page: 10},
}

// matches はいずれかのセールスポイントがキーワードを含むかを返します。大文字小文字は区別しません。
func (r FeatureBulletRule) matches(salesPoints []string) bool {
	for _, point := range salesPoints {
		lower := strings.ToLower(point)
		for _, kw := range r.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}

// FeatureBullets はページに追記する行を返します。
func FeatureBullets(page int, salesPoints []string) []string {
	var bullets []string
	for _, rule := range featureBulletRules {
		if rule.Page == page && rule.matches(salesPoints) {
			bullets = append(bullets, rule.Bullet)
		}
	}
	return bullets
}

// bannerSpecRows はバナー制作の共通仕様です。
var bannerSpecRows = [][2]string{
	{"サイズ", "PC:W1200px、SP：850px、flick：1000px"},
	{"拡張子", "JPG"},
	{"カラーモード", "RGB"},
	{"画質", "なるべく画質優先で大丈夫です"},
	{"圧縮方式", "プログレッシブとベースラインで容量が小さい方、同じ容量の場合はプログレッシブ優先"},
	{"解像度", "72ppi"},
	{"アンチエイリアス", "文字に最適"},
	{"ICCプロファイル", "消してください"},
}

// 競合分析ポイントを差し込むページ
const (
	calloutPageAppeal     = 1
	calloutPageStructure  = 2
	calloutPageFeature    = 4
	calloutPageComparison = 7
)

const (
	calloutPrefix          = "🎯 **競合分析ポイント**: "
	maxComparisonColumns   = 3
	maxSummaryAppeals      = 5
	maxSummaryImprovements = 3
)

// analysisCallout は競合分析結果からページに差し込む一文を作ります。
type analysisCallout struct {
	Name  string
	Page  int
	Build func(a *models.CompetitorAnalysisResult) (string, bool)
}

var analysisCallouts = []analysisCallout{
	{Name: "トップ訴求", Page: calloutPageAppeal, Build: func(a *models.CompetitorAnalysisResult) (string, bool) {
		appeal, ok := a.TopAppeal()
		return "トップ訴求「" + appeal + "」を最大に活用", ok
	}},
	{Name: "ページ構成", Page: calloutPageStructure, Build: func(a *models.CompetitorAnalysisResult) (string, bool) {
		structure, ok := a.TopStructure()
		return structure + "パターンを採用", ok
	}},
	{Name: "成功要因", Page: calloutPageFeature, Build: func(a *models.CompetitorAnalysisResult) (string, bool) {
		feature, ok := a.TopSuccessFeature()
		return "「" + feature + "」成功パターン活用", ok
	}},
	{Name: "競合比較表", Page: calloutPageComparison, Build: func(a *models.CompetitorAnalysisResult) (string, bool) {
		return "他社との機能比較表で優位性明示", len(a.CompetitorRecords) > 0
	}},
}
