package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lp-rough-api/pkg/models"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const (
	draftTitle         = "# LPラフ"
	draftTitleEnhanced = "# LPラフ（競合分析強化版）"

	publishTitlePrefix         = "【LPラフ案】"
	publishTitlePrefixEnhanced = "【LPラフ案・競合分析版】"

	stampLayout = "2006年01月02日 15:04:05"
)

// ComposeInput はラフ案の描画に必要な入力です。AnalysisとLayoutsは省略できます。
type ComposeInput struct {
	Record   *models.ProductRecord
	Analysis *models.CompetitorAnalysisResult
	Layouts  []models.LayoutSuggestion
}

// DraftComposerService は商品レコードからLPラフ案のMarkdownを組み立てます。
type DraftComposerService struct {
	logger *zap.Logger
}

// NewDraftComposerService は新しいDraftComposerServiceを生成します。
func NewDraftComposerService(logger *zap.Logger) *DraftComposerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftComposerService{logger: logger}
}

// Render はラフ案を描画します。同じ入力に対して常に同じ本文を返します。
func (s *DraftComposerService) Render(in ComposeInput) models.DraftDocument {
	record := in.Record
	enhanced := in.Analysis != nil

	doc := models.DraftDocument{
		Title:     PublishTitle(record.Name, enhanced),
		PageCount: record.PageCount(),
		Enhanced:  enhanced,
		Warnings:  []string{},
	}

	callouts := map[int][]string{}
	if enhanced {
		callouts, doc.Warnings = placeCallouts(in.Analysis, record.PageCount())
		for _, w := range doc.Warnings {
			s.logger.Warn("⚠️ "+w, zap.String("product", record.Name))
		}
	}

	layouts := make(map[int]models.LayoutSuggestion, len(in.Layouts))
	for _, l := range in.Layouts {
		layouts[l.PageAnalysis.PageIndex] = l
	}

	var b strings.Builder
	if enhanced {
		b.WriteString(draftTitleEnhanced + "\n\n")
	} else {
		b.WriteString(draftTitle + "\n\n")
	}
	writePurpose(&b, record)
	writeIdentity(&b, record, in.Analysis)
	writeSKUTable(&b, record)
	writeBannerSpec(&b)
	writeStructure(&b, record)

	b.WriteString("---\n# ラフ詳細\n\n")
	for i, title := range record.PageStructure {
		page, _ := record.Page(i + 1)
		var layout *models.LayoutSuggestion
		if l, ok := layouts[i+1]; ok {
			layout = &l
		}
		var comparison string
		if enhanced && i+1 == calloutPageComparison {
			comparison = ComparisonTable(record, in.Analysis.CompetitorRecords)
		}
		writePage(&b, record, title, page, callouts[i+1], layout, comparison)
	}

	if enhanced {
		writeAnalysisAppendix(&b, in.Analysis)
	}

	doc.Body = strings.TrimRight(b.String(), "\n") + "\n"
	return doc
}

// Stamp は描画済みのラフ案のタイトル行の直後に生成日時を挿入します。
func Stamp(doc models.DraftDocument, at time.Time) models.DraftDocument {
	doc.GeneratedAt = at
	line := "生成日時: " + at.Format(stampLayout)
	title, rest, found := strings.Cut(doc.Body, "\n")
	if !found {
		doc.Body = title + "\n" + line + "\n"
		return doc
	}
	doc.Body = title + "\n" + line + "\n" + rest
	return doc
}

// PublishTitle は公開時の記事タイトルを返します。
func PublishTitle(name string, enhanced bool) string {
	if enhanced {
		return publishTitlePrefixEnhanced + name
	}
	return publishTitlePrefix + name
}

// DefaultPurpose は作成目的が未指定の場合の文言です。
func DefaultPurpose(name string) string {
	return name + vendorDefaultSuffix
}

// placeCallouts は競合分析ポイントをページ番号ごとに振り分けます。
// ページ数を超える位置は移動せず警告として返します。
func placeCallouts(a *models.CompetitorAnalysisResult, pageCount int) (map[int][]string, []string) {
	placed := map[int][]string{}
	warnings := []string{}
	for _, c := range analysisCallouts {
		text, ok := c.Build(a)
		if !ok {
			continue
		}
		if c.Page > pageCount {
			warnings = append(warnings, fmt.Sprintf("競合分析ポイント「%s」は%d枚目に配置されますが、ページ数が%d枚のため省略しました", c.Name, c.Page, pageCount))
			continue
		}
		placed[c.Page] = append(placed[c.Page], calloutPrefix+text)
	}
	return placed, warnings
}

func writePurpose(b *strings.Builder, record *models.ProductRecord) {
	purpose := record.Purpose
	if purpose == "" {
		purpose = DefaultPurpose(record.Name)
	}
	b.WriteString("## 作成の目的、意図\n")
	b.WriteString(purpose + "\n\n")
}

func writeIdentity(b *strings.Builder, record *models.ProductRecord, a *models.CompetitorAnalysisResult) {
	b.WriteString("## 対象商品\n### 商品名\n")
	b.WriteString(record.Name + "\n")
	if record.Kana != "" {
		b.WriteString("（" + record.Kana + "）\n")
	}
	b.WriteString("\n")

	if a != nil && len(a.OptimizedAppeals) > 0 {
		b.WriteString("### 🎯 最適化された訴求ポイント\n")
		for i, appeal := range a.OptimizedAppeals {
			if i >= maxSummaryAppeals {
				break
			}
			b.WriteString("• " + appeal + "\n")
		}
		b.WriteString("\n")
	}
}

func writeSKUTable(b *strings.Builder, record *models.ProductRecord) {
	b.WriteString("### SKU・JAN\n| 種類 | SKU | JAN |\n| --- | --- | --- |\n")
	if len(record.Variants) == 0 {
		b.WriteString("| カラー・サイズ | SKUコード | JANコード |\n")
	}
	for _, v := range record.Variants {
		fmt.Fprintf(b, "| %s | %s | %s |\n", escapeCell(v.Type), escapeCell(v.SKU), escapeCell(v.JAN))
	}
	b.WriteString("\n")
}

func writeBannerSpec(b *strings.Builder) {
	b.WriteString("## 基本情報\n### バナースペック\n| 項目 | 内容 |\n| --- | --- |\n")
	for _, row := range bannerSpecRows {
		fmt.Fprintf(b, "| %s | %s |\n", row[0], row[1])
	}
	b.WriteString("\n### フォント、カラー指定\n\n下記、トンマナを踏まえて作成お願いします。\n（別途共有）\n\n")
	b.WriteString("### ベースのデータ\n\n（別途共有）\n\n")
}

func writeStructure(b *strings.Builder, record *models.ProductRecord) {
	b.WriteString("---\n# LP構成\n| 枚数 | コンテンツ概要 |\n| --- | --- |\n")
	for i, title := range record.PageStructure {
		fmt.Fprintf(b, "| %d枚目 | %s |\n", i+1, escapeCell(title))
	}
	b.WriteString("\n")
}

func writePage(b *strings.Builder, record *models.ProductRecord, title string, page models.PageSpec, callouts []string, layout *models.LayoutSuggestion, comparison string) {
	fmt.Fprintf(b, "## %d枚目 - %s\n\n", page.Index, title)

	b.WriteString("### レイアウト案\n")
	if page.LayoutImage != "" {
		b.WriteString("![レイアウト案](" + page.LayoutImage + ")\n\n")
	} else {
		b.WriteString(models.PendingImage + "\n\n")
	}
	if page.LayoutNote != "" {
		b.WriteString(page.LayoutNote + "\n\n")
	}
	for _, c := range callouts {
		b.WriteString(c + "\n\n")
	}
	if layout != nil {
		writeLayoutExcerpt(b, layout)
	}

	b.WriteString("### テキスト\n")
	if page.Text != "" {
		b.WriteString(page.Text + "\n")
	}
	if bullets := FeatureBullets(page.Index, record.SalesPoints); len(bullets) > 0 {
		b.WriteString("\n" + strings.Join(bullets, "\n") + "\n")
	}
	if comparison != "" {
		b.WriteString("\n" + comparison)
	}
	b.WriteString("\n### 使用画像\n")
	if page.ImageInstruction != "" {
		b.WriteString("（" + page.ImageInstruction + "）\n")
	}
	for _, img := range page.Images {
		b.WriteString(img + "\n")
	}
	b.WriteString("\n")
}

func writeLayoutExcerpt(b *strings.Builder, layout *models.LayoutSuggestion) {
	primary, ok := layout.Primary()
	if !ok {
		return
	}
	fmt.Fprintf(b, "🎨 **推奨レイアウト**: %s（%s）\n", primary.LayoutName, primary.Dimensions.Grid)
	b.WriteString("- 構成: " + primary.ContentPlacement.MainArea + "\n")
	b.WriteString("- 画像: " + strings.ReplaceAll(primary.ContentPlacement.ImageArea, "\n", " / ") + "\n")
	b.WriteString("- テキスト: " + primary.ContentPlacement.TextArea + "\n\n")
}

// ComparisonTable は競合商品との比較表を返します。競合は最大3社までです。
func ComparisonTable(record *models.ProductRecord, competitors []models.CompetitorRecord) string {
	if len(competitors) == 0 {
		return ""
	}
	if len(competitors) > maxComparisonColumns {
		competitors = competitors[:maxComparisonColumns]
	}

	ownPrice := record.Price
	if ownPrice == "" {
		ownPrice = "-"
	}
	ownFeature := "-"
	if len(record.SalesPoints) > 0 {
		ownFeature = record.SalesPoints[0]
	}

	header := []string{"項目", record.Name}
	price := []string{"価格", ownPrice}
	rating := []string{"評価", "-"}
	reviews := []string{"レビュー数", "-"}
	appeal := []string{"主な訴求", ownFeature}
	for _, c := range competitors {
		header = append(header, c.Name)
		price = append(price, orDash(c.Price))
		rating = append(rating, strconv.FormatFloat(c.Rating, 'f', 1, 64))
		reviews = append(reviews, humanize.Comma(int64(c.ReviewCount))+"件")
		first := ""
		if len(c.Appeals) > 0 {
			first = c.Appeals[0]
		}
		appeal = append(appeal, orDash(first))
	}

	var b strings.Builder
	b.WriteString("📊 **他社比較表**\n")
	writeRow(&b, header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range [][]string{price, rating, reviews, appeal} {
		writeRow(&b, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = escapeCell(c)
	}
	b.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
}

func writeAnalysisAppendix(b *strings.Builder, a *models.CompetitorAnalysisResult) {
	b.WriteString("---\n## 競合分析データ\n")
	fmt.Fprintf(b, "- 分析商品数: %d商品\n", a.CompetitorCount)
	fmt.Fprintf(b, "- 市場平均価格: %s円\n", humanize.Comma(int64(a.BestPractices.PriceRange.Avg)))
	fmt.Fprintf(b, "- 成功パターン: %dの共通特徴を確認\n", len(a.BestPractices.SuccessFeatures))
	if len(a.SearchKeywords) > 0 {
		b.WriteString("- 検索キーワード: " + strings.Join(a.SearchKeywords, "、") + "\n")
	}

	improvements := a.Recommendations.CopyImprovements
	if len(improvements) > maxSummaryImprovements {
		improvements = improvements[:maxSummaryImprovements]
	}
	if len(improvements) > 0 {
		b.WriteString("\n**💡 競合分析による改善点:**\n")
		for _, rec := range improvements {
			b.WriteString("• " + rec + "\n")
		}
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
