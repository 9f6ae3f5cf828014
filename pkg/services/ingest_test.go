package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lp-rough-api/pkg/apperrors"
	"lp-rough-api/pkg/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, name string, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	require.NoError(t, f.Close())
	return path
}

func sectionedRows() [][]string {
	return [][]string{
		{"項目名", "内容"},
		{"product_name", "Electric Blanket Lite"},
		{"purpose", "冬の販売促進のため"},
		{"price", "9,000円（税込）"},
		{"target_users", "寒がりの方、テレワーカー"},
		{"main_appeal", "10段階温度調節"},
		{""},
		{"==== SKU・JAN情報 ===="},
		{"sku_type", "SKU", "JAN"},
		{"グレー", "BL-GR", "4573211999999"},
		{"ベージュ", "BL-BG", "45732-11999998"},
		{"グレー", "BL-GR2", "4573211999997"},
		{"==== LP構成 ===="},
		{"page_1", "TOPキャッチ"},
		{"page_2", "ブランドの信頼性"},
		{"page_3", "スペック"},
		{"==== 各ページ詳細 ===="},
		{"page_1_text", `Electric Blanket Lite\n\n心地よい温もり`},
		{"page_1_layout_note", "温かみのあるメインビジュアル"},
		{"page_1_image_2", "https://example.com/b.jpg"},
		{"page_1_image_1", "https://example.com/a.jpg"},
		{"page_1_image_3", ""},
		{"page_2_design_priority", "high"},
		{"page_x_text", "無視される"},
		{"page_4_text", "構成にないページ"},
		{"==== 謎のセクション ===="},
		{"==== その他 ===="},
		{"specifications", `サイズ：188cm × 130cm\n重量：2.0kg`},
		{"features", `10段階の温度調節機能\n過熱防止機能`},
		{"usage_scenes", "リビング、寝室"},
		{"design_variants", "グレー系"},
	}
}

func TestParseSectionedRows(t *testing.T) {
	record, err := ParseSectionedRows(sectionedRows(), "SKU", DialectCSV, nil)
	require.NoError(t, err)

	assert.Equal(t, "Electric Blanket Lite", record.Name)
	assert.Equal(t, models.CategoryElectronics, record.Category)
	assert.Equal(t, "冬の販売促進のため", record.Purpose)
	assert.Equal(t, []string{"寒がりの方", "テレワーカー"}, record.TargetUsers)
	assert.Equal(t, []string{"リビング", "寝室"}, record.UsageScenes)
	assert.Equal(t, []string{"10段階の温度調節機能", "過熱防止機能"}, record.SalesPoints)

	// 種類の重複は先勝ち、数字以外のJANは空
	require.Len(t, record.Variants, 2)
	assert.Equal(t, models.Variant{Type: "グレー", SKU: "BL-GR", JAN: "4573211999999"}, record.Variants[0])
	assert.Equal(t, "", record.Variants[1].JAN)

	// 詳細のみのページ4も構成に含まれる
	assert.Equal(t, []string{"TOPキャッチ", "ブランドの信頼性", "スペック", "4枚目"}, record.PageStructure)
	require.Len(t, record.PageSpecs, 4)

	page1 := record.PageSpecs[0]
	assert.Equal(t, "Electric Blanket Lite\n\n心地よい温もり", page1.Text)
	assert.Equal(t, []string{"https://example.com/a.jpg", "https://example.com/b.jpg"}, page1.Images)
	assert.True(t, page1.HasImages)

	page2 := record.PageSpecs[1]
	assert.Equal(t, models.PriorityHigh, page2.DesignPriority)
	assert.False(t, page2.HasImages)
	assert.Equal(t, []string{models.PendingImage}, page2.Images)
	assert.Equal(t, models.PriorityMedium, record.PageSpecs[2].DesignPriority)

	size, ok := record.Specifications.Get("サイズ")
	assert.True(t, ok)
	assert.Equal(t, "188cm × 130cm", size)
	assert.Equal(t, "重量", record.Specifications[1].Label)

	mainAppeal, _ := record.Attributes.Get("main_appeal")
	assert.Equal(t, "10段階温度調節", mainAppeal)
	_, ok = record.Attributes.Get("design_variants")
	assert.True(t, ok)
}

func TestParseSectionedRowsMissingName(t *testing.T) {
	_, err := ParseSectionedRows([][]string{{"==== LP構成 ===="}, {"page_1", "TOP"}}, "SKU", DialectCSV, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindMalformedRecord))
}

func vendorRows() [][]string {
	return [][]string{
		{"加島商事 商品規定書", "", "", "", "", ""},
		{"", "", "", "", "商品名", "PowerArQ Electric Blanket"},
		{"", "", "", "", "商品名カナ", "パワーアーク エレクトリック ブランケット"},
		{"", "", "", "", "JANコード", "ブラック：4570000000001"},
		{"", "", "", "", "", "ベージュ：4570000000002"},
		{"", "", "", "", "発売日", "2025年10月"},
		{"", "", "", "", "商品サイズ（cm）", "188×130"},
		{"", "", "", "", "1個 重量(kg)", "1.2"},
		{"", "", "", "", "定格", "100V 55W"},
		{"", "", "", "", "表面素材", "ポリエステル"},
		{"", "", "", "", "原産国", "中国"},
		{"", "", "", "セールスポイント", "", ""},
		{"", "", "", "●10段階の温度調節", "", ""},
		{"", "", "", "● 過熱保護機能で安心", "", ""},
		{"", "", "", "●10段階の温度調節", "", ""},
		{"", "", "", "備考", "", ""},
		{"", "", "", "●この行は読まない", "", ""},
	}
}

func TestParseVendorRows(t *testing.T) {
	record, err := ParseVendorRows(vendorRows(), DefaultVendorLayout, "PAQ", nil)
	require.NoError(t, err)

	assert.Equal(t, "PowerArQ Electric Blanket", record.Name)
	assert.Equal(t, models.CategoryOutdoor, record.Category)
	assert.Equal(t, "2025年10月", record.ReleaseDate)
	assert.Equal(t, "PowerArQ Electric Blanketの販売促進とブランド認知向上のため", record.Purpose)

	assert.Equal(t, []models.Variant{
		{Type: "ブラック", SKU: "PAQ-BK", JAN: "4570000000001"},
		{Type: "ベージュ", SKU: "PAQ-BG", JAN: "4570000000002"},
	}, record.Variants)

	// 箇条書き以外の行で打ち切り、重複は除外
	assert.Equal(t, []string{"10段階の温度調節", "過熱保護機能で安心"}, record.SalesPoints)

	labels := make([]string, 0, len(record.Specifications))
	for _, f := range record.Specifications {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{"サイズ", "重量", "定格", "素材"}, labels)

	origin, _ := record.Attributes.Get("原産国")
	assert.Equal(t, "中国", origin)
	jan, _ := record.Attributes.Get(janAttributeLabel)
	assert.Equal(t, "ブラック：4570000000001\nベージュ：4570000000002", jan)

	// 既定の10ページ構成
	assert.Equal(t, 10, record.PageCount())
	assert.Len(t, record.PageSpecs, 10)
	assert.Contains(t, record.PageSpecs[6].Text, "サイズ：188×130")
}

func TestParseVendorRowsUsesModelNumberForSKU(t *testing.T) {
	rows := [][]string{
		{"", "", "", "", "商品名", "Blanket"},
		{"", "", "", "", "JANコード", "Black：4570000000001"},
		{"", "", "", "", "メーカー型番", "EB-100"},
	}
	record, err := ParseVendorRows(rows, DefaultVendorLayout, "PAQ", nil)
	require.NoError(t, err)
	require.Len(t, record.Variants, 1)
	assert.Equal(t, "EB-100-BK", record.Variants[0].SKU)
}

func TestVendorParserContinuationRows(t *testing.T) {
	t.Run("JANコードの継続行は独自の項目名があっても取り込む", func(t *testing.T) {
		rows := [][]string{
			{"", "", "", "", "商品名", "Blanket"},
			{"", "", "", "", "JANコード", "ブラック：4570000000001"},
			{"", "", "", "", "（バリエーション別）", "ベージュ：4570000000002"},
			{"", "", "", "", "発売日", "2025年10月"},
		}
		record, err := ParseVendorRows(rows, DefaultVendorLayout, "SKU", nil)
		require.NoError(t, err)

		assert.Equal(t, []models.Variant{
			{Type: "ブラック", SKU: "SKU-BK", JAN: "4570000000001"},
			{Type: "ベージュ", SKU: "SKU-BG", JAN: "4570000000002"},
		}, record.Variants)
		_, leaked := record.Attributes.Get("（バリエーション別）")
		assert.False(t, leaked)
		assert.Equal(t, "2025年10月", record.ReleaseDate)
	})

	t.Run("既知の項目名の行で継続を終える", func(t *testing.T) {
		rows := [][]string{
			{"", "", "", "", "商品名", "Blanket"},
			{"", "", "", "", "JANコード", "ブラック：4570000000001"},
			{"", "", "", "", "商品サイズ(cm)", "幅：188"},
		}
		record, err := ParseVendorRows(rows, DefaultVendorLayout, "SKU", nil)
		require.NoError(t, err)

		require.Len(t, record.Variants, 1)
		require.Len(t, record.Specifications, 1)
		assert.Equal(t, models.Field{Label: "サイズ", Value: "幅：188"}, record.Specifications[0])
	})

	t.Run("セールスポイントの空行は読み飛ばす", func(t *testing.T) {
		rows := [][]string{
			{"", "", "", "", "商品名", "Blanket"},
			{"", "", "", "セールスポイント", "", ""},
			{"", "", "", "●10段階温度調節", "", ""},
			{"", "", "", "", "", ""},
			{"", "", "", "●丸洗い", "", ""},
			{"", "", "", "備考", "", ""},
			{"", "", "", "●この行は読まない", "", ""},
		}
		record, err := ParseVendorRows(rows, DefaultVendorLayout, "SKU", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"10段階温度調節", "丸洗い"}, record.SalesPoints)
	})
}

func TestNormalizeVariantType(t *testing.T) {
	assert.Equal(t, "BK", NormalizeVariantType("ブラック"))
	assert.Equal(t, "GR", NormalizeVariantType("Grey"))
	assert.Equal(t, "XL2", NormalizeVariantType("xl-2"))
	assert.Equal(t, "ダークグレー", NormalizeVariantType("ダーク グレー"))
}

func TestIngestServiceDetectDialect(t *testing.T) {
	svc := NewIngestService(IngestOptions{}, nil)

	sectioned := writeCSV(t, "product.csv", sectionedRows())
	vendor := writeCSV(t, "kishima.csv", vendorRows())

	dialect, err := svc.DetectDialect(sectioned)
	require.NoError(t, err)
	assert.Equal(t, DialectCSV, dialect)

	dialect, err = svc.DetectDialect(vendor)
	require.NoError(t, err)
	assert.Equal(t, DialectVendorCSV, dialect)

	txt := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = svc.DetectDialect(txt)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnsupportedFormat))

	_, err = svc.DetectDialect(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, apperrors.IsKind(err, apperrors.KindInputNotFound))
}

func TestIngestServiceIngestCSV(t *testing.T) {
	svc := NewIngestService(IngestOptions{SKUPrefix: "PAQ"}, nil)
	ctx := context.Background()

	record, err := svc.Ingest(ctx, writeCSV(t, "kishima.csv", vendorRows()), DialectAuto)
	require.NoError(t, err)
	assert.Equal(t, DialectVendorCSV, record.SourceDialect)

	// 明示指定は自動判定より優先される
	record, err = svc.Ingest(ctx, writeCSV(t, "kishima.csv", sectionedRows()), DialectCSV)
	require.NoError(t, err)
	assert.Equal(t, DialectCSV, record.SourceDialect)
	assert.Equal(t, 4, record.PageCount())
}

func TestIngestServiceIngestWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "product.xlsx")
	f := excelize.NewFile()
	for i, row := range sectionedRows() {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &values))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	svc := NewIngestService(IngestOptions{}, nil)
	record, err := svc.Ingest(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "Electric Blanket Lite", record.Name)
	assert.Equal(t, DialectExcel, record.SourceDialect)
	assert.Len(t, record.Variants, 2)
}

func TestIngestServicePDF(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "spec.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))

	t.Run("ラベル行から抽出", func(t *testing.T) {
		svc := NewIngestService(IngestOptions{
			ReadPDF: func(string) (string, error) {
				return "商品名：Camp Blanket\n定格：100V\n●丸洗い可能\nJANコード：ブラック：4570000000001", nil
			},
		}, nil)
		record, err := svc.Ingest(context.Background(), pdfPath, "")
		require.NoError(t, err)
		assert.Equal(t, "Camp Blanket", record.Name)
		assert.Equal(t, []string{"丸洗い可能"}, record.SalesPoints)
		assert.Equal(t, 10, record.PageCount())
	})

	t.Run("フォールバックなし", func(t *testing.T) {
		svc := NewIngestService(IngestOptions{
			ReadPDF: func(string) (string, error) { return "読み取れないテキスト", nil },
		}, nil)
		_, err := svc.Ingest(context.Background(), pdfPath, "")
		assert.True(t, apperrors.IsKind(err, apperrors.KindMalformedRecord))
	})

	t.Run("フォールバックあり", func(t *testing.T) {
		svc := NewIngestService(IngestOptions{
			ReadPDF: func(string) (string, error) { return "", nil },
			PDFFallback: func(string) (*models.ProductRecord, error) {
				return &models.ProductRecord{Name: "Fallback Lamp", PageStructure: []string{"TOP"}}, nil
			},
		}, nil)
		record, err := svc.Ingest(context.Background(), pdfPath, "")
		require.NoError(t, err)
		assert.Equal(t, "Fallback Lamp", record.Name)
		assert.Equal(t, DialectPDF, record.SourceDialect)
		assert.Equal(t, 1, record.PageCount())
	})

	t.Run("読み込みエラー", func(t *testing.T) {
		svc := NewIngestService(IngestOptions{
			ReadPDF: func(string) (string, error) { return "", errors.New("broken") },
		}, nil)
		_, err := svc.Ingest(context.Background(), pdfPath, "")
		assert.Error(t, err)
	})
}

func TestProductRecordJSONRoundTrip(t *testing.T) {
	record, err := ParseSectionedRows(sectionedRows(), "SKU", DialectCSV, nil)
	require.NoError(t, err)

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var decoded models.ProductRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	if diff := cmp.Diff(*record, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	// JSON入力として再度取り込んでも同じ内容になる
	path := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	again, err := NewIngestService(IngestOptions{}, nil).Ingest(context.Background(), path, "")
	require.NoError(t, err)
	again.SourceDialect = record.SourceDialect
	if diff := cmp.Diff(record, again); diff != "" {
		t.Errorf("json ingest mismatch (-want +got):\n%s", diff)
	}
}
