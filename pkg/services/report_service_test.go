package services

import (
	"strings"
	"testing"
	"time"

	"lp-rough-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompetitorReport(t *testing.T) {
	report := CompetitorReport("PowerArQ Electric Blanket", sampleAnalysis(t))

	assert.True(t, strings.HasPrefix(report, "# 競合分析レポート\n"))
	assert.Contains(t, report, "**PowerArQ Electric Blanket**")
	assert.Contains(t, report, "- **分析商品数**: 3商品")
	assert.Contains(t, report, "- **分析日時**: 2025年01月01日 00:00:00")
	assert.Contains(t, report, "- **市場価格帯**: 2,580円 〜 8,980円")
	assert.Contains(t, report, "- **平均価格**: 5,180円")
	assert.Contains(t, report, "1. **安心の日本メーカー** (競合1社で使用)")
	assert.Contains(t, report, "1. **商品画像** (競合1社で採用)")
	assert.Contains(t, report, "### 価格戦略\n- 市場平均価格: 5,180円")

	assert.Equal(t, noAnalysisReport, CompetitorReport("x", nil))
}

func TestCompetitorReportWithoutCompetitors(t *testing.T) {
	a, err := NewCompetitorAnalysisService(nil, nil).Analyze(testContext(t), "謎の商品", models.CategoryElectronics)
	require.NoError(t, err)

	report := CompetitorReport("謎の商品", a)
	assert.NotContains(t, report, "## 💰 価格分析")
	assert.NotContains(t, report, "### 価格戦略")
	assert.Contains(t, report, "### コピー改善")
}

func TestImageChecklist(t *testing.T) {
	record, err := ParseVendorRows(vendorRows(), DefaultVendorLayout, "", nil)
	require.NoError(t, err)
	at := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	got := ImageChecklist(record, at)

	assert.Contains(t, got, "商品名: PowerArQ Electric Blanket")
	assert.Contains(t, got, "作成日: 2025年03月04日")
	high := got[strings.Index(got, "### 最優先画像"):strings.Index(got, "### 重要画像")]
	assert.Contains(t, high, "- [ ] **1枚目**: 商品のメインビジュアル")
	assert.Contains(t, high, "- [ ] **4枚目**: 操作部のクローズアップ")
	assert.NotContains(t, high, "**2枚目**")
	// 9枚目と10枚目は画像指示がない
	assert.NotContains(t, got, "**9枚目**")
	assert.NotContains(t, got, "**10枚目**")
	assert.NotContains(t, got, "### 補助画像")
}

func TestImageChecklistMarksProvidedImages(t *testing.T) {
	b := NewRecordBuilder("", DialectCSV)
	b.SetName("Lantern")
	b.SetPageTitle(1, "TOP")
	b.SetPageField(1, "image_1", "https://example.com/a.jpg")
	b.SetPageField(1, "design_priority", "low")
	record, err := b.Build()
	require.NoError(t, err)

	got := ImageChecklist(record, time.Now())
	assert.Contains(t, got, "### 補助画像（low priority）\n- [x] **1枚目**: 画像準備中")
}

func TestLayoutDocument(t *testing.T) {
	record, err := ParseVendorRows(vendorRows(), DefaultVendorLayout, "", nil)
	require.NoError(t, err)
	suggestions := NewLayoutAdvisorService(nil).SuggestAll(record)
	at := time.Date(2025, 3, 4, 9, 8, 7, 0, time.UTC)

	doc := LayoutDocument(record, suggestions, at)

	assert.True(t, strings.HasPrefix(doc, "# LPレイアウト指示書\n生成日時: 2025年03月04日 09:08:07\n"))
	assert.Contains(t, doc, "- 総ページ数: 10枚")
	assert.Contains(t, doc, "カテゴリ: outdoor")
	assert.Equal(t, 10, strings.Count(doc, "レイアウト指示\n\n### ページ分析"))
	assert.Contains(t, doc, "## 📄 7枚目レイアウト指示\n\n### ページ分析\n- タイプ: spec\n- 優先度: medium")
	assert.Contains(t, doc, "**案2**:")
	assert.Equal(t, "【レイアウト指示書】PowerArQ Electric Blanket", LayoutDocumentTitle(record.Name))
}
