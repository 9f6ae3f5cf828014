package services

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"lp-rough-api/pkg/apperrors"
	"lp-rough-api/pkg/models"
)

// TemplatePage はページ詳細が与えられない場合に使う既定ページです。
type TemplatePage struct {
	Title            string
	Text             string
	LayoutNote       string
	ImageInstruction string
	Priority         models.DesignPriority
}

type pageImage struct {
	key int
	seq int
	url string
}

type pageDraft struct {
	text             string
	layoutNote       string
	imageInstruction string
	priority         string
	layoutImage      string
	images           []pageImage
}

type variantDraft struct {
	typ       string
	sku       string
	jan       string
	deriveSKU bool
}

// RecordBuilder はProductRecordを組み立てるビルダーです。Buildで不変のレコードを返します。
type RecordBuilder struct {
	skuPrefix string
	dialect   string

	name        string
	kana        string
	modelNumber string
	purpose     string
	price       string
	releaseDate string

	variants    []variantDraft
	specs       models.Fields
	attributes  models.Fields
	salesPoints []string
	targetUsers []string
	usageScenes []string

	titles   map[int]string
	pages    map[int]*pageDraft
	template []TemplatePage
	imageSeq int
}

// NewRecordBuilder は新しいRecordBuilderを生成します。
func NewRecordBuilder(skuPrefix, dialect string) *RecordBuilder {
	if skuPrefix == "" {
		skuPrefix = "SKU"
	}
	return &RecordBuilder{
		skuPrefix: skuPrefix,
		dialect:   dialect,
		titles:    make(map[int]string),
		pages:     make(map[int]*pageDraft),
	}
}

func (b *RecordBuilder) SetName(v string)        { b.name = strings.TrimSpace(v) }
func (b *RecordBuilder) SetKana(v string)        { b.kana = strings.TrimSpace(v) }
func (b *RecordBuilder) SetModelNumber(v string) { b.modelNumber = strings.TrimSpace(v) }
func (b *RecordBuilder) SetPurpose(v string)     { b.purpose = strings.TrimSpace(v) }
func (b *RecordBuilder) SetPrice(v string)       { b.price = strings.TrimSpace(v) }
func (b *RecordBuilder) SetReleaseDate(v string) { b.releaseDate = strings.TrimSpace(v) }

// Name は現在設定されている商品名を返します。
func (b *RecordBuilder) Name() string { return b.name }

// AddVariant はSKUとJANが明示されたバリエーションを追加します。
// 同じ種類が既にあれば無視し、数字以外のJANは空にします。
func (b *RecordBuilder) AddVariant(typ, sku, jan string) {
	typ = strings.TrimSpace(typ)
	if typ == "" || b.hasVariant(typ) {
		return
	}
	sku = strings.TrimSpace(sku)
	b.variants = append(b.variants, variantDraft{
		typ:       typ,
		sku:       sku,
		jan:       digitsOnly(jan),
		deriveSKU: sku == "",
	})
}

var janLinePattern = regexp.MustCompile(`^(.+?)\s*[：:]\s*(\d+)\s*$`)

// LooksLikeJANLine は "ラベル：数字" の形をした行かどうかを返します。
func LooksLikeJANLine(s string) bool {
	return janLinePattern.MatchString(strings.TrimSpace(s))
}

// AddVariantsFromJANText は "ブラック：4570000000001" 形式の行からバリエーションを導出します。
// SKUはBuild時に型番またはプレフィックスから生成します。
func (b *RecordBuilder) AddVariantsFromJANText(text string) int {
	added := 0
	for _, line := range strings.Split(text, "\n") {
		m := janLinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		typ := strings.TrimSpace(m[1])
		if b.hasVariant(typ) {
			continue
		}
		b.variants = append(b.variants, variantDraft{typ: typ, jan: m[2], deriveSKU: true})
		added++
	}
	return added
}

func (b *RecordBuilder) hasVariant(typ string) bool {
	for _, v := range b.variants {
		if v.typ == typ {
			return true
		}
	}
	return false
}

// AddSpec は表示用スペックを追加します。
func (b *RecordBuilder) AddSpec(label, value string) {
	label, value = strings.TrimSpace(label), strings.TrimSpace(value)
	if label == "" || value == "" {
		return
	}
	b.specs = b.specs.Set(label, value)
}

// AddSpecLines は "ラベル：値" の複数行テキストをスペックとして追加します。
func (b *RecordBuilder) AddSpecLines(text string) {
	for _, line := range splitLines(text) {
		label, value, ok := splitLabelValue(line)
		if !ok {
			b.AddAttribute("specifications", line)
			continue
		}
		b.AddSpec(label, value)
	}
}

// AddAttribute はどのマッピングにも該当しない項目を保持します。
func (b *RecordBuilder) AddAttribute(label, value string) {
	label, value = strings.TrimSpace(label), strings.TrimSpace(value)
	if label == "" || value == "" {
		return
	}
	if existing, ok := b.attributes.Get(label); ok {
		value = existing + "\n" + value
	}
	b.attributes = b.attributes.Set(label, value)
}

// AddSalesPoint はセールスポイントを重複なく追加します。
func (b *RecordBuilder) AddSalesPoint(point string) {
	b.salesPoints = appendUnique(b.salesPoints, strings.TrimSpace(point))
}

func (b *RecordBuilder) AddTargetUsers(text string) {
	for _, item := range splitList(text) {
		b.targetUsers = appendUnique(b.targetUsers, item)
	}
}

func (b *RecordBuilder) AddUsageScenes(text string) {
	for _, item := range splitList(text) {
		b.usageScenes = appendUnique(b.usageScenes, item)
	}
}

// SetPageTitle はN枚目のタイトルを設定します。
func (b *RecordBuilder) SetPageTitle(index int, title string) {
	if index < 1 {
		return
	}
	b.titles[index] = strings.TrimSpace(title)
}

// SetPageField はN枚目の詳細項目を設定します。未知の項目はfalseを返します。
func (b *RecordBuilder) SetPageField(index int, field, value string) bool {
	if index < 1 {
		return false
	}
	page := b.page(index)
	switch {
	case field == "text":
		page.text = value
	case field == "layout_note":
		page.layoutNote = strings.TrimSpace(value)
	case field == "image_instruction":
		page.imageInstruction = strings.TrimSpace(value)
	case field == "design_priority":
		page.priority = strings.TrimSpace(value)
	case field == "layout_image":
		page.layoutImage = strings.TrimSpace(value)
	case strings.HasPrefix(field, "image_"):
		url := strings.TrimSpace(value)
		if url == "" {
			return true
		}
		key, err := strconv.Atoi(strings.TrimPrefix(field, "image_"))
		if err != nil {
			key = math.MaxInt
		}
		b.imageSeq++
		page.images = append(page.images, pageImage{key: key, seq: b.imageSeq, url: url})
	default:
		return false
	}
	return true
}

func (b *RecordBuilder) page(index int) *pageDraft {
	if p, ok := b.pages[index]; ok {
		return p
	}
	p := &pageDraft{}
	b.pages[index] = p
	return p
}

// UseTemplate はページ構成が与えられなかった場合の既定ページを設定します。
func (b *RecordBuilder) UseTemplate(pages []TemplatePage) {
	b.template = pages
}

// Build は入力を検証してProductRecordを返します。
func (b *RecordBuilder) Build() (*models.ProductRecord, error) {
	if b.name == "" {
		return nil, apperrors.NewMalformedRecordError("商品名が見つかりません")
	}

	record := &models.ProductRecord{
		Name:           b.name,
		Kana:           b.kana,
		ModelNumber:    b.modelNumber,
		Purpose:        b.purpose,
		Variants:       make([]models.Variant, 0, len(b.variants)),
		Specifications: append(models.Fields{}, b.specs...),
		SalesPoints:    append([]string{}, b.salesPoints...),
		Category:       ClassifyCategory(b.name),
		Price:          b.price,
		ReleaseDate:    b.releaseDate,
		TargetUsers:    append([]string{}, b.targetUsers...),
		UsageScenes:    append([]string{}, b.usageScenes...),
		Attributes:     append(models.Fields{}, b.attributes...),
		SourceDialect:  b.dialect,
	}

	for _, v := range b.variants {
		sku := v.sku
		if v.deriveSKU {
			sku = b.deriveSKU(v.typ)
		}
		record.Variants = append(record.Variants, models.Variant{Type: v.typ, SKU: sku, JAN: v.jan})
	}

	record.PageStructure, record.PageSpecs = b.buildPages()

	if err := record.Validate(); err != nil {
		return nil, apperrors.NewMalformedRecordError(err.Error())
	}
	return record, nil
}

func (b *RecordBuilder) buildPages() ([]string, []models.PageSpec) {
	count := 0
	for idx := range b.titles {
		count = max(count, idx)
	}
	for idx := range b.pages {
		count = max(count, idx)
	}

	if count == 0 {
		structure := make([]string, 0, len(b.template))
		specs := make([]models.PageSpec, 0, len(b.template))
		for i, tp := range b.template {
			structure = append(structure, tp.Title)
			specs = append(specs, newPageSpec(i+1, tp.Text, tp.LayoutNote, tp.ImageInstruction, tp.Priority, "", nil))
		}
		return structure, specs
	}

	structure := make([]string, count)
	specs := make([]models.PageSpec, count)
	for i := 1; i <= count; i++ {
		title := b.titles[i]
		if title == "" {
			title = fmt.Sprintf("%d枚目", i)
		}
		structure[i-1] = title

		draft, ok := b.pages[i]
		if !ok {
			draft = &pageDraft{}
		}
		sort.SliceStable(draft.images, func(a, c int) bool {
			if draft.images[a].key != draft.images[c].key {
				return draft.images[a].key < draft.images[c].key
			}
			return draft.images[a].seq < draft.images[c].seq
		})
		urls := make([]string, 0, len(draft.images))
		for _, img := range draft.images {
			urls = append(urls, img.url)
		}
		specs[i-1] = newPageSpec(i, draft.text, draft.layoutNote, draft.imageInstruction,
			models.ParseDesignPriority(draft.priority), draft.layoutImage, urls)
	}
	return structure, specs
}

func newPageSpec(index int, text, layoutNote, imageInstruction string, priority models.DesignPriority, layoutImage string, images []string) models.PageSpec {
	spec := models.PageSpec{
		Index:            index,
		Text:             strings.TrimSpace(text),
		LayoutNote:       layoutNote,
		ImageInstruction: imageInstruction,
		DesignPriority:   models.ParseDesignPriority(string(priority)),
		HasImages:        len(images) > 0,
		Images:           images,
		LayoutImage:      layoutImage,
	}
	if !spec.HasImages {
		spec.Images = []string{models.PendingImage}
	}
	return spec
}

// colorCodes はSKU生成に使うカラー名の略号です。
var colorCodes = map[string]string{
	"ブラック": "BK", "black": "BK",
	"ベージュ": "BG", "beige": "BG",
	"グレー": "GR", "gray": "GR", "grey": "GR",
	"ホワイト": "WH", "white": "WH",
	"ネイビー": "NV", "navy": "NV",
	"ブラウン": "BR", "brown": "BR",
	"レッド": "RD", "red": "RD",
	"ブルー": "BL", "blue": "BL",
	"グリーン": "GN", "green": "GN",
	"カーキ": "KH", "khaki": "KH",
}

// deriveSKU は型番（なければプレフィックス）と種類名からSKUを生成します。
func (b *RecordBuilder) deriveSKU(typ string) string {
	base := b.modelNumber
	if base == "" {
		base = b.skuPrefix
	}
	return base + "-" + NormalizeVariantType(typ)
}

// NormalizeVariantType は種類名をSKU用の短い表記に変換します。
func NormalizeVariantType(typ string) string {
	trimmed := strings.TrimSpace(typ)
	if code, ok := colorCodes[strings.ToLower(trimmed)]; ok {
		return code
	}
	var sb strings.Builder
	for _, r := range trimmed {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(unicode.ToUpper(r))
		}
	}
	if sb.Len() > 0 {
		return sb.String()
	}
	return strings.Join(strings.Fields(trimmed), "")
}

func digitsOnly(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s
}

// unescapeNewlines はセル内の "\n" という2文字を改行に置き換えます。
func unescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(unescapeNewlines(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// splitList は "、" "," 改行で区切られたテキストを分割します。
func splitList(text string) []string {
	fields := strings.FieldsFunc(unescapeNewlines(text), func(r rune) bool {
		return r == '、' || r == ',' || r == '，' || r == '\n'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func splitLabelValue(line string) (string, string, bool) {
	for _, sep := range []string{"：", ":"} {
		if label, value, ok := strings.Cut(line, sep); ok {
			label, value = strings.TrimSpace(label), strings.TrimSpace(value)
			if label != "" && value != "" {
				return label, value, true
			}
		}
	}
	return "", "", false
}

func appendUnique(list []string, item string) []string {
	if item == "" {
		return list
	}
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
