package services

import (
	"strings"
	"testing"

	"lp-rough-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPageType(t *testing.T) {
	tests := []struct {
		name string
		page models.PageSpec
		want models.PageType
	}{
		{"キャッチ", models.PageSpec{Text: "TOPキャッチ"}, models.PageTypeHero},
		{"英字は小文字化して判定", models.PageSpec{LayoutNote: "TOP visual"}, models.PageTypeHero},
		{"機能", models.PageSpec{Text: "温度調節機能"}, models.PageTypeFeature},
		{"比較", models.PageSpec{Text: "他社比較"}, models.PageTypeComparison},
		{"シーン", models.PageSpec{Text: "いつでもどこでも", LayoutNote: "使用シーン"}, models.PageTypeLifestyle},
		{"スペック", models.PageSpec{Text: "仕様・スペック"}, models.PageTypeSpec},
		{"実績", models.PageSpec{Text: "累計販売の実績"}, models.PageTypeTestimonial},
		{"該当なし", models.PageSpec{Text: "よくある質問"}, models.PageTypeGeneral},
		{"先勝ち", models.PageSpec{Text: "メイン機能"}, models.PageTypeHero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPageType(tt.page))
		})
	}
}

func TestRecommendLayouts(t *testing.T) {
	assert.Equal(t,
		[]string{LayoutSpecTable, LayoutFeatureGrid, LayoutHero, LayoutComparison},
		RecommendLayouts(models.PageTypeSpec, models.CategoryElectronics))
	assert.Equal(t,
		[]string{LayoutHero, LayoutLifestyle, LayoutFeatureGrid, LayoutTestimonial},
		RecommendLayouts(models.PageTypeHero, models.CategoryOutdoor))
	assert.Equal(t,
		[]string{LayoutHero, LayoutFeatureGrid, LayoutLifestyle},
		RecommendLayouts(models.PageTypeGeneral, models.Category("unknown")))

	for _, pt := range []models.PageType{models.PageTypeHero, models.PageTypeFeature, models.PageTypeGeneral} {
		for _, c := range []models.Category{models.CategoryElectronics, models.CategoryOutdoor, models.CategoryLifestyle} {
			got := RecommendLayouts(pt, c)
			assert.LessOrEqual(t, len(got), maxMergedLayouts)
			seen := map[string]bool{}
			for _, key := range got {
				assert.False(t, seen[key], "重複: %s", key)
				seen[key] = true
			}
		}
	}
}

func TestLayoutAdvisorSuggest(t *testing.T) {
	svc := NewLayoutAdvisorService(nil)
	page := models.PageSpec{
		Index:            7,
		Text:             "仕様・スペック\n\nサイズ：188cm\n重量：2.0kg\n定格：100V\n素材：ポリエステル",
		ImageInstruction: "サイズ感がわかる比較写真",
		DesignPriority:   models.PriorityHigh,
	}

	got := svc.Suggest(page, models.CategoryElectronics)

	assert.Equal(t, 7, got.PageAnalysis.PageIndex)
	assert.Equal(t, models.PageTypeSpec, got.PageAnalysis.PageType)
	assert.Equal(t, models.PriorityHigh, got.PageAnalysis.ContentPriority)
	require.Len(t, got.RecommendedLayouts, 3)
	require.Len(t, got.DetailedInstructions, 3)
	assert.Equal(t, "primary", got.RecommendedLayouts[0].Priority)
	assert.Equal(t, "alternative", got.RecommendedLayouts[2].Priority)
	assert.Equal(t, "スペック表レイアウト", got.RecommendedLayouts[0].LayoutName)

	primary, ok := got.Primary()
	require.True(t, ok)
	assert.Equal(t, layoutCanvas, primary.Dimensions.Canvas)
	assert.Equal(t, "12列グリッドシステム", primary.Dimensions.Grid)
	assert.Equal(t, "左右50%ずつ、中央に10pxのガター", primary.ContentPlacement.MainArea)
	assert.Equal(t, "アスペクト比: 4:3、高品質画像を使用\nサイズ感がわかる比較写真", primary.ContentPlacement.ImageArea)
	assert.Equal(t, "配置: 右側50%、長いテキストのため行間を調整", primary.ContentPlacement.TextArea)
	assert.True(t, strings.HasPrefix(primary.DesignElements.Typography, "メインタイトル: 32-40px"))
	assert.Equal(t, "ブランドカラーをメインに、アクセントカラーで強調", primary.DesignElements.ColorUsage)

	grid := got.DetailedInstructions[1]
	assert.Equal(t, "3列グリッド（PC）、2列グリッド（SP）", grid.Dimensions.Grid)
	assert.Equal(t, "等間隔グリッド、各アイテム間に20pxの余白", grid.ContentPlacement.MainArea)
}

func TestLayoutAdvisorSuggestDefaults(t *testing.T) {
	svc := NewLayoutAdvisorService(nil)
	got := svc.Suggest(models.PageSpec{Index: 1, Text: "TOPキャッチ", ImageInstruction: models.PendingImage}, models.CategoryLifestyle)

	assert.Equal(t, models.PriorityMedium, got.PageAnalysis.ContentPriority)
	primary, _ := got.Primary()
	assert.Equal(t, "センタリング（最大幅1000px）", primary.Dimensions.Grid)
	assert.Equal(t, "アスペクト比: 16:9または4:3、高品質画像を使用", primary.ContentPlacement.ImageArea)
	assert.Equal(t, "配置: 画像下部または右側30%", primary.ContentPlacement.TextArea)
	assert.Equal(t, "ブランドカラーを基調に、落ち着いた配色", primary.DesignElements.ColorUsage)
}

func TestLayoutAdvisorSuggestAll(t *testing.T) {
	record, err := ParseVendorRows(vendorRows(), DefaultVendorLayout, "", nil)
	require.NoError(t, err)

	got := NewLayoutAdvisorService(nil).SuggestAll(record)
	require.Len(t, got, record.PageCount())
	for i, s := range got {
		assert.Equal(t, i+1, s.PageAnalysis.PageIndex)
		assert.NotEmpty(t, s.RecommendedLayouts)
	}
}
