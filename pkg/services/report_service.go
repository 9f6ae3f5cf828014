package services

import (
	"fmt"
	"strings"
	"time"

	"lp-rough-api/pkg/models"

	"github.com/dustin/go-humanize"
)

const (
	reportDateLayout = "2006年01月02日"

	layoutDocumentTitlePrefix = "【レイアウト指示書】"
	noAnalysisReport          = "競合分析データがありません"
)

// LayoutDocumentTitle はレイアウト指示書の公開タイトルを返します。
func LayoutDocumentTitle(name string) string {
	return layoutDocumentTitlePrefix + name
}

// CompetitorReport は競合分析結果をMarkdownのレポートにします。
func CompetitorReport(productName string, a *models.CompetitorAnalysisResult) string {
	if a == nil {
		return noAnalysisReport
	}

	var b strings.Builder
	b.WriteString("# 競合分析レポート\n\n")
	b.WriteString("## 📊 分析対象商品\n")
	fmt.Fprintf(&b, "**%s**\n\n", productName)

	b.WriteString("## 🔍 市場分析サマリー\n")
	fmt.Fprintf(&b, "- **分析商品数**: %d商品\n", a.CompetitorCount)
	fmt.Fprintf(&b, "- **分析日時**: %s\n", a.AnalysisTimestamp.Format(stampLayout))
	fmt.Fprintf(&b, "- **商品カテゴリ**: %s\n", a.Category)
	if len(a.SearchKeywords) > 0 {
		fmt.Fprintf(&b, "- **検索キーワード**: %s\n", strings.Join(a.SearchKeywords, "、"))
	}

	pr := a.BestPractices.PriceRange
	if pr.Avg > 0 {
		b.WriteString("\n## 💰 価格分析\n")
		fmt.Fprintf(&b, "- **市場価格帯**: %s円 〜 %s円\n", humanize.Comma(int64(pr.Min)), humanize.Comma(int64(pr.Max)))
		fmt.Fprintf(&b, "- **平均価格**: %s円\n", humanize.Comma(int64(pr.Avg)))
		b.WriteString("- **価格ポジション**: 自社商品の位置づけ分析が必要\n")
	}

	if len(a.BestPractices.TopAppeals) > 0 {
		b.WriteString("\n## 🎯 市場で成功している訴求ポイント\n")
		for i, appeal := range a.BestPractices.TopAppeals {
			fmt.Fprintf(&b, "%d. **%s** (競合%d社で使用)\n", i+1, appeal.Label, appeal.Count)
		}
	}

	if len(a.BestPractices.TopStructures) > 0 {
		b.WriteString("\n## 📄 効果的なページ構成\n")
		for i, s := range a.BestPractices.TopStructures {
			fmt.Fprintf(&b, "%d. **%s** (競合%d社で採用)\n", i+1, s.Label, s.Count)
		}
	}

	if len(a.OptimizedAppeals) > 0 {
		b.WriteString("\n## ✨ 最適化された訴求ポイント（提案）\n")
		for i, appeal := range a.OptimizedAppeals {
			fmt.Fprintf(&b, "%d. %s\n", i+1, appeal)
		}
	}

	recs := a.Recommendations
	b.WriteString("\n## 🔧 改善提案\n")
	writeBulletSection(&b, "ページ構成の改善", recs.PageStructure)
	writeBulletSection(&b, "コピー改善", recs.CopyImprovements)
	writeBulletSection(&b, "価格戦略", recs.PricingStrategy)
	writeBulletSection(&b, "機能強調ポイント", recs.FeatureEmphasis)

	b.WriteString(`
## 📈 期待される効果
- **差別化の明確化**: 競合商品との違いを鮮明に
- **訴求力向上**: 市場で実証済みの成功パターン活用
- **コンバージョン改善**: 効果的なページ構成の採用

## 🎯 次のアクション
1. 提案された訴求ポイントの採用検討
2. ページ構成の最適化実行
3. 競合との差別化ポイント強化
4. 価格戦略の見直し検討
`)
	return b.String()
}

func writeBulletSection(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n", heading)
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
}

// checklistGroups は優先度ごとの見出しです。表示順。
var checklistGroups = []struct {
	Priority models.DesignPriority
	Heading  string
}{
	{models.PriorityHigh, "最優先画像（high priority）"},
	{models.PriorityMedium, "重要画像（medium priority）"},
	{models.PriorityLow, "補助画像（low priority）"},
}

// ImageChecklist は画像制作チェックリストを返します。
// 画像指示または画像のあるページを優先度別に並べ、画像が揃っているページはチェック済みにします。
func ImageChecklist(record *models.ProductRecord, at time.Time) string {
	grouped := map[models.DesignPriority][]string{}
	for _, page := range record.PageSpecs {
		if page.ImageInstruction == "" && !page.HasImages {
			continue
		}
		instruction := page.ImageInstruction
		if instruction == "" {
			instruction = "画像準備中"
		}
		mark := " "
		if page.HasImages {
			mark = "x"
		}
		priority := page.DesignPriority
		if priority == "" {
			priority = models.PriorityMedium
		}
		grouped[priority] = append(grouped[priority], fmt.Sprintf("- [%s] **%d枚目**: %s", mark, page.Index, instruction))
	}

	var b strings.Builder
	b.WriteString("# 📸 画像制作チェックリスト\n")
	fmt.Fprintf(&b, "商品名: %s\n", record.Name)
	fmt.Fprintf(&b, "作成日: %s\n\n", at.Format(reportDateLayout))
	b.WriteString("## 🎯 必要画像一覧\n")
	for _, g := range checklistGroups {
		items := grouped[g.Priority]
		if len(items) == 0 && g.Priority == models.PriorityLow {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n", g.Heading)
		for _, item := range items {
			b.WriteString(item + "\n")
		}
	}

	b.WriteString(`
## 📏 制作仕様
- **PC版**: 1200px基準
- **SP版**: 850px基準
- **解像度**: 72ppi（Web用）
- **フォーマット**: JPG（写真）、PNG（ロゴ・図表）
- **品質**: 高品質（ファイルサイズ最適化）

## ✅ 品質チェックポイント
- [ ] 商品が鮮明に写っている
- [ ] 背景が適切（白背景 or 自然な環境）
- [ ] ライティングが適切
- [ ] 商品の魅力が伝わる角度
- [ ] ブランドトーンに合致
- [ ] テキスト挿入スペースを確保
- [ ] レスポンシブ対応を考慮
`)
	return b.String()
}

// LayoutDocument は全ページのレイアウト指示書を返します。
func LayoutDocument(record *models.ProductRecord, suggestions []models.LayoutSuggestion, at time.Time) string {
	var b strings.Builder
	b.WriteString("# LPレイアウト指示書\n")
	fmt.Fprintf(&b, "生成日時: %s\n", at.Format(stampLayout))
	fmt.Fprintf(&b, "商品名: %s\n", record.Name)
	fmt.Fprintf(&b, "カテゴリ: %s\n\n", record.Category)

	b.WriteString("## 📋 全体構成\n")
	fmt.Fprintf(&b, "- 総ページ数: %d枚\n", len(suggestions))
	fmt.Fprintf(&b, "- カテゴリ最適化: %s向けレイアウト\n", record.Category)
	b.WriteString("- レスポンシブ対応: PC/SP/タブレット\n\n")

	b.WriteString(`## 🎨 共通デザインシステム
### カラーパレット
- プライマリ: ブランドメインカラー
- セカンダリ: ブランドサブカラー
- アクセント: 強調用カラー
- ニュートラル: #333（テキスト）、#F8F9FA（背景）

### タイポグラフィ
- 日本語フォント: Noto Sans JP推奨
- 英数字フォント: システムフォントまたはブランドフォント
- 行間: 1.6-1.8（読みやすさ重視）

### スペーシングシステム
- 基本単位: 8px
- セクション間: 64px（8×8）
- 要素間: 24px（8×3）
- 内部余白: 16px（8×2）

---

`)

	for _, s := range suggestions {
		primary, ok := s.Primary()
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "## 📄 %d枚目レイアウト指示\n\n", s.PageAnalysis.PageIndex)
		b.WriteString("### ページ分析\n")
		fmt.Fprintf(&b, "- タイプ: %s\n", s.PageAnalysis.PageType)
		fmt.Fprintf(&b, "- 優先度: %s\n\n", s.PageAnalysis.ContentPriority)

		fmt.Fprintf(&b, "### 推奨レイアウト（第1案）\n**%s**\n\n", primary.LayoutName)
		fmt.Fprintf(&b, "#### 🖼️ 構成要素\n%s\n", primary.ContentPlacement.MainArea)
		fmt.Fprintf(&b, "- %s\n\n", strings.Join(primary.ComponentsOrdered, "、"))
		fmt.Fprintf(&b, "#### 📸 画像指示\n%s\n\n", primary.ContentPlacement.ImageArea)
		fmt.Fprintf(&b, "#### ✏️ テキスト配置\n%s\n\n", primary.ContentPlacement.TextArea)
		b.WriteString("#### 🎨 ビジュアル仕様\n")
		fmt.Fprintf(&b, "- %s\n- %s\n- %s\n- グリッド: %s\n\n",
			primary.DesignElements.Typography,
			primary.DesignElements.ColorUsage,
			primary.DesignElements.Spacing,
			primary.Dimensions.Grid)
		fmt.Fprintf(&b, "#### 📱 レスポンシブ対応\n%s\n\n", primary.ResponsiveNotes)

		if len(s.RecommendedLayouts) > 1 {
			b.WriteString("### 代替案\n")
			for j, alt := range s.RecommendedLayouts[1:] {
				fmt.Fprintf(&b, "**案%d**: %s - %s\n", j+2, alt.LayoutName, alt.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("---\n\n")
	}

	b.WriteString(`## 🔄 制作ワークフロー

### Phase 1: デザインカンプ作成
1. ワイヤーフレーム確認
2. ビジュアルデザイン作成
3. レビュー・修正

### Phase 2: レスポンシブ対応
1. SP版デザイン作成
2. タブレット版調整
3. 動作確認

### Phase 3: 最終調整
1. 全体統一感チェック
2. アクセシビリティ確認
3. 納品準備

## ✅ チェックリスト
- [ ] ブランドガイドライン準拠
- [ ] 読みやすいフォントサイズ
- [ ] 十分なコントラスト比
- [ ] タップ可能要素のサイズ（44px以上）
- [ ] 画像の最適化
- [ ] ローディング速度
`)
	return b.String()
}
