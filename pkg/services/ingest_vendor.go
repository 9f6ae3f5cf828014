package services

import (
	"strings"

	"lp-rough-api/pkg/models"

	"go.uber.org/zap"
)

// VendorLayout は固定列形式（規定書）の列位置です。0始まり。
type VendorLayout struct {
	MarkerCol int // セールスポイント見出しと箇条書きの列
	KeyCol    int
	ValueCol  int
}

// DefaultVendorLayout は規定書CSVの標準的な列位置です。
var DefaultVendorLayout = VendorLayout{MarkerCol: 3, KeyCol: 4, ValueCol: 5}

const (
	janKeyMarker        = "JANコード"
	salesPointMarker    = "セールスポイント"
	janAttributeLabel   = "JANコード（バリエーション別）"
	vendorDefaultSuffix = "の販売促進とブランド認知向上のため"
)

var bulletMarkers = []string{"●", "・", "•", "■"}

// vendorFieldSetters は規定書の項目名からレコード項目への対応です。
var vendorFieldSetters = map[string]func(*RecordBuilder, string){
	"商品名":        (*RecordBuilder).SetName,
	"商品名カナ":      (*RecordBuilder).SetKana,
	"メーカー型番":     (*RecordBuilder).SetModelNumber,
	"発売日":        (*RecordBuilder).SetReleaseDate,
	"価格":         (*RecordBuilder).SetPrice,
	"販売価格":       (*RecordBuilder).SetPrice,
	"希望小売価格":     (*RecordBuilder).SetPrice,
	"メーカー希望小売価格": (*RecordBuilder).SetPrice,
}

// vendorSpecLabels は規定書の項目名から表示用スペック名への対応です。順序は表示順。
var vendorSpecLabels = []struct {
	Key   string
	Label string
}{
	{"商品サイズ(cm)", "サイズ"},
	{"1個 重量(kg)", "重量"},
	{"定格", "定格"},
	{"表面素材", "素材"},
	{"表面温度", "表面温度"},
}

// VendorParser は固定列形式の規定書を解析します。
// JANコードの継続行とセールスポイントの箇条書きはそれぞれのサブパーサが担当します。
type VendorParser struct {
	logger *zap.Logger
	layout VendorLayout
	b      *RecordBuilder

	janActive   bool
	janLines    []string
	salesActive bool
	specs       map[string]string
}

// NewVendorParser は新しいVendorParserを生成します。
func NewVendorParser(b *RecordBuilder, layout VendorLayout, logger *zap.Logger) *VendorParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VendorParser{logger: logger, layout: layout, b: b, specs: make(map[string]string)}
}

// Parse は全行を読み込み、ビルダーに反映します。
func (p *VendorParser) Parse(rows [][]string) {
	for _, row := range rows {
		p.Feed(row)
	}
	p.Finish()
}

// Feed は1行を処理します。
func (p *VendorParser) Feed(row []string) {
	key := cell(row, p.layout.KeyCol)
	value := cell(row, p.layout.ValueCol)
	label := cell(row, p.layout.MarkerCol)

	consumed := false
	if p.janActive {
		if LooksLikeJANLine(value) && !isVendorKey(key) {
			p.janLines = append(p.janLines, value)
			consumed = true
		} else {
			p.flushJAN()
		}
	}

	if p.salesActive {
		if point, ok := cutBullet(label); ok {
			p.b.AddSalesPoint(point)
		} else if label != "" {
			p.salesActive = false
		}
	}
	if !p.salesActive && strings.Contains(label, salesPointMarker) {
		p.salesActive = true
	}

	if consumed || key == "" || value == "" {
		return
	}
	if strings.Contains(key, janKeyMarker) {
		p.janActive = true
		p.janLines = append(p.janLines[:0], value)
		return
	}
	p.field(key, value)
}

// Finish は保留中のJANコードを確定し、既定のページ構成を設定します。
func (p *VendorParser) Finish() {
	p.flushJAN()
	p.salesActive = false
	for _, spec := range vendorSpecLabels {
		if v, ok := p.specs[spec.Label]; ok {
			p.b.AddSpec(spec.Label, v)
		}
	}
	if p.b.purpose == "" && p.b.name != "" {
		p.b.SetPurpose(p.b.name + vendorDefaultSuffix)
	}
	p.b.UseTemplate(vendorTemplatePages(p.b.specs))
}

func (p *VendorParser) flushJAN() {
	if !p.janActive {
		return
	}
	text := strings.Join(p.janLines, "\n")
	added := p.b.AddVariantsFromJANText(text)
	p.b.AddAttribute(janAttributeLabel, text)
	p.logger.Debug("JANコードを解析", zap.Int("variants", added), zap.Int("lines", len(p.janLines)))
	p.janActive = false
	p.janLines = p.janLines[:0]
}

func (p *VendorParser) field(key, value string) {
	if setter, ok := vendorFieldSetters[key]; ok {
		setter(p.b, value)
		return
	}
	normalized := normalizeVendorKey(key)
	for _, spec := range vendorSpecLabels {
		if normalized == normalizeVendorKey(spec.Key) {
			p.specs[spec.Label] = value
			return
		}
	}
	p.b.AddAttribute(key, value)
}

// isVendorKey は規定書の項目対応に含まれるキーかどうかを返します。
func isVendorKey(key string) bool {
	if _, ok := vendorFieldSetters[key]; ok {
		return true
	}
	normalized := normalizeVendorKey(key)
	for _, spec := range vendorSpecLabels {
		if normalized == normalizeVendorKey(spec.Key) {
			return true
		}
	}
	return false
}

func normalizeVendorKey(key string) string {
	r := strings.NewReplacer("（", "(", "）", ")", "　", " ")
	return strings.Join(strings.Fields(r.Replace(key)), " ")
}

// cutBullet は箇条書き記号で始まる場合に記号を除いた本文を返します。
func cutBullet(s string) (string, bool) {
	for _, marker := range bulletMarkers {
		if rest, ok := strings.CutPrefix(s, marker); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

func trimBullet(s string) string {
	if rest, ok := cutBullet(s); ok {
		return rest
	}
	return s
}

// vendorTemplatePages は規定書から生成するLPの既定10ページ構成です。
func vendorTemplatePages(specs models.Fields) []TemplatePage {
	var specLines []string
	for _, f := range specs {
		specLines = append(specLines, f.Label+"："+f.Value)
	}
	specText := "仕様・スペック"
	if len(specLines) > 0 {
		specText += "\n\n" + strings.Join(specLines, "\n")
	}

	return []TemplatePage{
		{Title: "TOPキャッチ", Text: "快適な温もりを", LayoutNote: "商品の魅力が一目で伝わるデザインにしてください。", ImageInstruction: "商品のメインビジュアル", Priority: models.PriorityHigh},
		{Title: "売れている訴求・実績", Text: "信頼の実績\n累計販売台数○○万台突破\n※2025年○月時点", LayoutNote: "数字やロゴを効果的に配置してください。", ImageInstruction: "ブランドロゴと実績数値", Priority: models.PriorityMedium},
		{Title: "ブランド価値・安全性", Text: "ブランドの安心品質\n\n日本ブランドとしての品質・安全性", ImageInstruction: "品質管理・認証マーク", Priority: models.PriorityHigh},
		{Title: "メイン機能・特徴1", Text: "温度調節\n\nお好みの温かさに細かく設定", ImageInstruction: "操作部のクローズアップ", Priority: models.PriorityHigh},
		{Title: "メイン機能・特徴2", Text: "安全機能搭載\n\n安心してお使いいただけます", ImageInstruction: "安全機能の説明図", Priority: models.PriorityMedium},
		{Title: "使用シーン", Text: "いつでも、どこでも暖かく\n\nあらゆるシーンで活躍", ImageInstruction: "使用シーンの写真", Priority: models.PriorityMedium},
		{Title: "サイズ・スペック詳細", Text: specText, ImageInstruction: "サイズ感がわかる比較写真", Priority: models.PriorityMedium},
		{Title: "付属品・同梱物", Text: "付属品・同梱物\n\nコントローラー\n取扱説明書\n保証書", ImageInstruction: "同梱物の一覧写真", Priority: models.PriorityMedium},
		{Title: "保証・アフターサービス", Text: "安心の保証・アフターサービス\n\nメーカー保証\n充実のサポート体制", Priority: models.PriorityLow},
		{Title: "よくある質問", Text: "よくある質問\n\nQ: 電気代はどのくらいかかりますか？\nA: 1時間あたり約○円です（中間設定時）", Priority: models.PriorityHigh},
	}
}

// ParseVendorRows は固定列形式の行からProductRecordを生成します。
func ParseVendorRows(rows [][]string, layout VendorLayout, skuPrefix string, logger *zap.Logger) (*models.ProductRecord, error) {
	b := NewRecordBuilder(skuPrefix, DialectVendorCSV)
	NewVendorParser(b, layout, logger).Parse(rows)
	return b.Build()
}
