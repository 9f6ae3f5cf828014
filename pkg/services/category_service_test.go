package services

import (
	"testing"

	"lp-rough-api/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		name string
		want models.Category
	}{
		{"PowerArQ Electric Blanket", models.CategoryOutdoor}, // outdoorが先に判定される
		{"Electric Blanket", models.CategoryElectronics},
		{"電気毛布 ダブル", models.CategoryElectronics},
		{"キャンプ用ランタン", models.CategoryOutdoor},
		{"Interior Lamp", models.CategoryLifestyle},
		{"ライフスタイル雑貨", models.CategoryLifestyle},
		{"謎の商品", models.CategoryElectronics},
		{"", models.CategoryElectronics},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCategory(tt.name)
			assert.Equal(t, tt.want, got)
			// 同じ入力には常に同じ結果
			assert.Equal(t, got, ClassifyCategory(tt.name))
		})
	}
}
