package services

import (
	"strconv"
	"strings"

	"lp-rough-api/pkg/models"

	"go.uber.org/zap"
)

// sectionState はセクション形式シートの読み取り状態です。
type sectionState int

const (
	sectionBasic sectionState = iota
	sectionSKU
	sectionStructure
	sectionPageDetails
	sectionOther
)

func (s sectionState) String() string {
	switch s {
	case sectionSKU:
		return "SKU"
	case sectionStructure:
		return "STRUCTURE"
	case sectionPageDetails:
		return "PAGE_DETAILS"
	case sectionOther:
		return "OTHER"
	}
	return "BASIC"
}

const sectionSentinel = "===="

// sectionTransitions はセンチネル行に含まれるマーカーと遷移先の表です。上から順に判定します。
var sectionTransitions = []struct {
	Marker string
	Next   sectionState
}{
	{"SKU", sectionSKU},
	{"LP構成", sectionStructure},
	{"STRUCTURE", sectionStructure},
	{"各ページ詳細", sectionPageDetails},
	{"PAGE", sectionPageDetails},
	{"その他", sectionOther},
	{"OTHER", sectionOther},
	{"基本", sectionBasic},
	{"BASIC", sectionBasic},
}

// basicFieldSetters は基本情報キーからレコード項目への対応です。
var basicFieldSetters = map[string]func(*RecordBuilder, string){
	"product_name":  (*RecordBuilder).SetName,
	"商品名":           (*RecordBuilder).SetName,
	"product_kana":  (*RecordBuilder).SetKana,
	"kana":          (*RecordBuilder).SetKana,
	"商品名カナ":         (*RecordBuilder).SetKana,
	"model_number":  (*RecordBuilder).SetModelNumber,
	"メーカー型番":        (*RecordBuilder).SetModelNumber,
	"purpose":       (*RecordBuilder).SetPurpose,
	"price":         (*RecordBuilder).SetPrice,
	"価格":            (*RecordBuilder).SetPrice,
	"release_date":  (*RecordBuilder).SetReleaseDate,
	"発売日":           (*RecordBuilder).SetReleaseDate,
	"target_users":  (*RecordBuilder).AddTargetUsers,
	"usage_scenes":  (*RecordBuilder).AddUsageScenes,
	"features":      addSalesPointLines,
	"sales_points":  addSalesPointLines,
	"specifications": (*RecordBuilder).AddSpecLines,
}

func addSalesPointLines(b *RecordBuilder, text string) {
	for _, line := range splitLines(text) {
		b.AddSalesPoint(trimBullet(line))
	}
}

// SectionedParser はセクション区切り形式（==== マーカー）のシートを解析します。
type SectionedParser struct {
	logger *zap.Logger
	state  sectionState
	b      *RecordBuilder
}

// NewSectionedParser は新しいSectionedParserを生成します。
func NewSectionedParser(b *RecordBuilder, logger *zap.Logger) *SectionedParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionedParser{logger: logger, state: sectionBasic, b: b}
}

// Parse は全行を読み込み、ビルダーに反映します。
func (p *SectionedParser) Parse(rows [][]string) {
	for _, row := range rows {
		p.Feed(row)
	}
}

// Feed は1行を処理します。
func (p *SectionedParser) Feed(row []string) {
	key := cell(row, 0)
	if key == "" {
		return
	}
	if strings.Contains(key, sectionSentinel) {
		p.transition(key)
		return
	}
	value := unescapeNewlines(cell(row, 1))

	switch p.state {
	case sectionBasic:
		p.basicRow(key, value)
	case sectionSKU:
		if key == "sku_type" {
			return
		}
		p.b.AddVariant(key, cell(row, 1), cell(row, 2))
	case sectionStructure:
		if idx, ok := pageIndex(key); ok {
			p.b.SetPageTitle(idx, value)
		}
	case sectionPageDetails:
		p.pageDetailRow(key, value)
	case sectionOther:
		p.otherRow(key, value)
	}
}

func (p *SectionedParser) transition(sentinel string) {
	for _, t := range sectionTransitions {
		if strings.Contains(strings.ToUpper(sentinel), t.Marker) {
			p.logger.Debug("セクション切り替え", zap.String("from", p.state.String()), zap.String("to", t.Next.String()))
			p.state = t.Next
			return
		}
	}
	p.logger.Warn("⚠️ 不明なセクションマーカーを無視します", zap.String("marker", sentinel))
}

func (p *SectionedParser) basicRow(key, value string) {
	if key == "項目名" {
		return
	}
	if setter, ok := basicFieldSetters[key]; ok {
		setter(p.b, value)
		return
	}
	p.b.AddAttribute(key, value)
}

func (p *SectionedParser) pageDetailRow(key, value string) {
	rest, ok := strings.CutPrefix(key, "page_")
	if !ok {
		return
	}
	num, field, ok := strings.Cut(rest, "_")
	if !ok {
		return
	}
	idx, err := strconv.Atoi(num)
	if err != nil || idx < 1 {
		p.logger.Debug("ページ番号が数値ではない行をスキップ", zap.String("key", key))
		return
	}
	if !p.b.SetPageField(idx, field, value) {
		p.logger.Debug("未知のページ項目をスキップ", zap.String("key", key))
	}
}

func (p *SectionedParser) otherRow(key, value string) {
	if setter, ok := basicFieldSetters[key]; ok {
		setter(p.b, value)
		return
	}
	p.b.AddAttribute(key, value)
}

// pageIndex は "page_3" から 3 を取り出します。
func pageIndex(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "page_")
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 1 {
		return 0, false
	}
	return idx, true
}

// ParseSectionedRows はセクション形式の行からProductRecordを生成します。
func ParseSectionedRows(rows [][]string, skuPrefix, dialect string, logger *zap.Logger) (*models.ProductRecord, error) {
	b := NewRecordBuilder(skuPrefix, dialect)
	NewSectionedParser(b, logger).Parse(rows)
	return b.Build()
}
