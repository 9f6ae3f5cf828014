package services

import (
	"strings"

	"lp-rough-api/pkg/models"
)

// categoryBucket カテゴリと判定キーワードの組
type categoryBucket struct {
	Category models.Category
	Keywords []string
}

// categoryBuckets は判定順に並べたキーワード表です。先に一致したものが優先されます。
var categoryBuckets = []categoryBucket{
	{models.CategoryOutdoor, []string{"powerarq", "camp", "outdoor", "portable", "アウトドア", "キャンプ"}},
	{models.CategoryElectronics, []string{"electric", "electronic", "blanket", "電気", "電子", "毛布", "ブランケット"}},
	{models.CategoryLifestyle, []string{"lifestyle", "interior", "home", "living", "ライフスタイル", "インテリア"}},
}

// DefaultCategory はどのキーワードにも一致しない場合のカテゴリです。
const DefaultCategory = models.CategoryElectronics

// ClassifyCategory は商品名からカテゴリを判定します。
func ClassifyCategory(productName string) models.Category {
	name := strings.ToLower(productName)
	for _, bucket := range categoryBuckets {
		for _, keyword := range bucket.Keywords {
			if strings.Contains(name, keyword) {
				return bucket.Category
			}
		}
	}
	return DefaultCategory
}
