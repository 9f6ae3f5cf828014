package services

import (
	"fmt"
	"strings"

	"lp-rough-api/pkg/models"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const templateSheetName = "LPラフ入力"

// TemplateService はセクション形式の入力テンプレートを作成します。
type TemplateService struct {
	logger *zap.Logger
}

// NewTemplateService は新しいTemplateServiceを生成します。
func NewTemplateService(logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{logger: logger}
}

// WriteWorkbook はレコードの内容を埋めたテンプレートをxlsxとして保存します。
func (s *TemplateService) WriteWorkbook(path string, record *models.ProductRecord) error {
	rows := TemplateRows(record)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), templateSheetName); err != nil {
		return fmt.Errorf("シート名の設定に失敗しました: %w", err)
	}
	sectionStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E0EBF5"}},
	})
	if err != nil {
		return fmt.Errorf("スタイルの作成に失敗しました: %w", err)
	}

	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(templateSheetName, cellName, &values); err != nil {
			return fmt.Errorf("%d行目の書き込みに失敗しました: %w", i+1, err)
		}
		if len(row) > 0 && strings.HasPrefix(row[0], sectionSentinel) {
			if err := f.SetCellStyle(templateSheetName, cellName, cellName, sectionStyle); err != nil {
				return err
			}
		}
	}

	for col, width := range map[string]float64{"A": 25, "B": 60, "C": 20} {
		if err := f.SetColWidth(templateSheetName, col, col, width); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("テンプレートの保存に失敗しました: %w", err)
	}
	s.logger.Info("📄 入力テンプレートを作成しました", zap.String("path", path), zap.Int("rows", len(rows)))
	return nil
}

// TemplateRows はレコードをセクション形式の行に変換します。
func TemplateRows(record *models.ProductRecord) [][]string {
	rows := [][]string{{"項目名", "内容"}}
	add := func(key, value string) {
		if value != "" {
			rows = append(rows, []string{key, escapeNewlines(value)})
		}
	}

	add("product_name", record.Name)
	add("product_kana", record.Kana)
	add("model_number", record.ModelNumber)
	add("purpose", record.Purpose)
	add("price", record.Price)
	add("release_date", record.ReleaseDate)
	add("target_users", strings.Join(record.TargetUsers, "、"))
	add("usage_scenes", strings.Join(record.UsageScenes, "、"))
	rows = append(rows, []string{""})

	rows = append(rows, []string{"==== SKU・JAN情報 ===="}, []string{"sku_type", "SKU", "JAN"})
	for _, v := range record.Variants {
		rows = append(rows, []string{v.Type, v.SKU, v.JAN})
	}
	rows = append(rows, []string{""})

	rows = append(rows, []string{"==== LP構成 ===="})
	for i, title := range record.PageStructure {
		rows = append(rows, []string{fmt.Sprintf("page_%d", i+1), title})
	}
	rows = append(rows, []string{""})

	rows = append(rows, []string{"==== 各ページ詳細 ===="})
	for _, page := range record.PageSpecs {
		prefix := fmt.Sprintf("page_%d_", page.Index)
		add(prefix+"text", page.Text)
		add(prefix+"layout_note", page.LayoutNote)
		add(prefix+"image_instruction", page.ImageInstruction)
		add(prefix+"design_priority", string(page.DesignPriority))
		add(prefix+"layout_image", page.LayoutImage)
		if page.HasImages {
			for k, img := range page.Images {
				add(fmt.Sprintf("%simage_%d", prefix, k+1), img)
			}
		}
	}
	rows = append(rows, []string{""})

	rows = append(rows, []string{"==== その他 ===="})
	var specLines []string
	for _, f := range record.Specifications {
		specLines = append(specLines, f.Label+"："+f.Value)
	}
	add("specifications", strings.Join(specLines, "\n"))
	add("features", strings.Join(record.SalesPoints, "\n"))
	for _, f := range record.Attributes {
		add(f.Label, f.Value)
	}
	return rows
}

func escapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}

// SampleTemplateRecord はテンプレートの記入例として使う商品レコードです。
func SampleTemplateRecord() *models.ProductRecord {
	b := NewRecordBuilder("PAQ-BLANKET-LITE", DialectExcel)
	b.SetName("PowerArQ Electric Blanket Lite")
	b.SetPurpose("PowerArQ Electric Blanket Liteの販売促進とブランド認知向上のため")
	b.SetPrice("9,000円（税込）")
	b.SetReleaseDate("2025年10月上旬")
	b.AddTargetUsers("寒がりの方、電気代を節約したい方、テレワーカー、高齢者")
	b.AddUsageScenes("リビング、寝室、書斎、オフィス")
	b.AddVariant("グレー", "PAQ-BLANKET-LITE-GR", "4573211999999")
	b.AddVariant("ベージュ", "PAQ-BLANKET-LITE-BG", "4573211999998")
	b.AddSpecLines("サイズ：188cm × 130cm\n重量：2.0kg\n消費電力：100V 115W\n温度調節：10段階\nタイマー：1〜8時間\n安全機能：過熱防止機能")
	for _, p := range []string{"10段階の温度調節機能", "1〜8時間のタイマー機能", "過熱防止機能による安全性", "軽量設計（2.0kg）", "大判サイズ（188cm×130cm）"} {
		b.AddSalesPoint(p)
	}
	b.AddAttribute("main_appeal", "10段階温度調節×タイマー機能で快適な温もりを")

	pages := []struct{ title, text, note string }{
		{"TOPキャッチ・商品紹介", "PowerArQ Electric Blanket Lite\n\n心地よい温もりを、もっと身近に", "商品の温かみを感じるメインビジュアル"},
		{"PowerARQブランドの信頼性", "PowerARQブランド\n\n信頼と品質の証\n\n累計販売台数○万台突破\n※2025年○月時点", "ブランドロゴと実績を前面に"},
		{"メイン機能・10段階温度調節", "10段階の温度調節\n\nあなた好みの温かさを\n\n細かな調節で快適温度をキープ", "温度調節の操作イメージ"},
		{"タイマー機能・省エネ性", "タイマー機能で省エネ\n\n1〜8時間の設定で\n電気代を抑えながら快適に", "タイマー設定画面とコスト比較"},
		{"使用シーン・ライフスタイル提案", "いつでも、どこでも温かく\n\nリビング・寝室・書斎\nあらゆるシーンで活躍", "様々な使用シーンの写真"},
		{"サイズ・スペック詳細", "仕様・スペック\n\nサイズ：188cm × 130cm\n重量：2.0kg\n消費電力：100V 115W", "スペック表とサイズ感の比較"},
		{"カラーバリエーション", "カラーバリエーション\n\nグレー・ベージュの2色展開\nお部屋に合わせてお選びください", "2色並べたカラー比較"},
		{"安全機能・品質保証", "安全機能搭載\n\n過熱防止機能で安心\nPSEマーク取得済み", "安全認証マークと機能説明"},
		{"よくある質問", "よくある質問\n\nQ: 電気代はどのくらい？\nA: 1時間あたり約○円（中温時）", "FAQ形式で見やすく"},
		{"購入特典・キャンペーン情報", "今なら特典付き\n\n送料無料\n1年間の品質保証", "特典内容を目立たせて"},
	}
	for i, p := range pages {
		b.SetPageTitle(i+1, p.title)
		b.SetPageField(i+1, "text", p.text)
		b.SetPageField(i+1, "layout_note", p.note)
	}

	record, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("サンプルレコードの生成に失敗しました: %v", err))
	}
	return record
}
