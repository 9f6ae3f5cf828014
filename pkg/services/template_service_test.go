package services

import (
	"context"
	"path/filepath"
	"testing"

	"lp-rough-api/pkg/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestTemplateRows(t *testing.T) {
	rows := TemplateRows(SampleTemplateRecord())

	assert.Equal(t, []string{"項目名", "内容"}, rows[0])
	assert.Contains(t, rows, []string{"product_name", "PowerArQ Electric Blanket Lite"})
	assert.Contains(t, rows, []string{"==== SKU・JAN情報 ===="})
	assert.Contains(t, rows, []string{"グレー", "PAQ-BLANKET-LITE-GR", "4573211999999"})
	assert.Contains(t, rows, []string{"page_10", "購入特典・キャンペーン情報"})
	assert.Contains(t, rows, []string{"page_3_text", `10段階の温度調節\n\nあなた好みの温かさを\n\n細かな調節で快適温度をキープ`})
	assert.Contains(t, rows, []string{"main_appeal", "10段階温度調節×タイマー機能で快適な温もりを"})
}

func TestTemplateServiceWriteWorkbookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.xlsx")
	want := SampleTemplateRecord()

	require.NoError(t, NewTemplateService(nil).WriteWorkbook(path, want))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, templateSheetName, f.GetSheetName(0))
	require.NoError(t, f.Close())

	got, err := NewIngestService(IngestOptions{}, nil).Ingest(context.Background(), path, DialectAuto)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("テンプレートから読み戻したレコードが一致しません (-want +got):\n%s", diff)
	}
	assert.Equal(t, models.CategoryOutdoor, got.Category)
}
