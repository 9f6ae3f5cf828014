package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category 商品カテゴリ
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryOutdoor     Category = "outdoor"
	CategoryLifestyle   Category = "lifestyle"
)

// Valid は既知のカテゴリかどうかを返します。
func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryOutdoor, CategoryLifestyle:
		return true
	}
	return false
}

// DesignPriority ページのデザイン優先度
type DesignPriority string

const (
	PriorityHigh   DesignPriority = "high"
	PriorityMedium DesignPriority = "medium"
	PriorityLow    DesignPriority = "low"
)

// ParseDesignPriority は文字列を優先度に変換します。未知の値はmedium。
func ParseDesignPriority(s string) DesignPriority {
	switch DesignPriority(s) {
	case PriorityHigh, PriorityLow:
		return DesignPriority(s)
	}
	return PriorityMedium
}

// PendingImage は画像が未準備であることを示すトークンです。
const PendingImage = "【画像準備中】"

// Variant 商品バリエーション（カラー・サイズ）
type Variant struct {
	Type string `json:"type"` // カラー・サイズ名
	SKU  string `json:"sku"`
	JAN  string `json:"jan"` // 数字のみ。不明な場合は空
}

// PageSpec LPの1ページ分の仕様
type PageSpec struct {
	Index            int            `json:"index"` // 1始まり
	Text             string         `json:"text"`
	LayoutNote       string         `json:"layout_note"`
	ImageInstruction string         `json:"image_instruction"`
	DesignPriority   DesignPriority `json:"design_priority"`
	HasImages        bool           `json:"has_images"`
	Images           []string       `json:"images"`                 // URLまたはPendingImage
	LayoutImage      string         `json:"layout_image,omitempty"` // レイアウト案の画像URL
}

// Field ラベルと値の組
type Field struct {
	Label string
	Value string
}

// Fields は挿入順を保持するラベル→値の表です。JSONではオブジェクトとして順序通りに出力されます。
type Fields []Field

// Get はラベルに対応する値を返します。
func (f Fields) Get(label string) (string, bool) {
	for _, field := range f {
		if field.Label == label {
			return field.Value, true
		}
	}
	return "", false
}

// Set は既存のラベルを上書きし、なければ末尾に追加します。
func (f Fields) Set(label, value string) Fields {
	for i := range f {
		if f[i].Label == label {
			f[i].Value = value
			return f
		}
	}
	return append(f, Field{Label: label, Value: value})
}

// MarshalJSON implements json.Marshaler
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("Fields: オブジェクトが必要です: %v", tok)
	}
	out := Fields{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("Fields: 不正なキー: %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("Fields: %s の値が文字列ではありません: %w", key, err)
		}
		out = append(out, Field{Label: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}

// ProductRecord 正規化済みの商品レコード
// RecordBuilder.Build でのみ生成し、生成後は変更しない。
type ProductRecord struct {
	Name           string     `json:"name"`
	Kana           string     `json:"kana"`
	ModelNumber    string     `json:"model_number"`
	Purpose        string     `json:"purpose"`
	Variants       []Variant  `json:"variants"`
	Specifications Fields     `json:"specifications"`
	SalesPoints    []string   `json:"sales_points"`
	Category       Category   `json:"category"`
	Price          string     `json:"price"`
	ReleaseDate    string     `json:"release_date"`
	TargetUsers    []string   `json:"target_users"`
	UsageScenes    []string   `json:"usage_scenes"`
	PageStructure  []string   `json:"page_structure"`
	PageSpecs      []PageSpec `json:"page_specs"`
	Attributes     Fields     `json:"attributes"`     // どのマッピングにも該当しなかった項目
	SourceDialect  string     `json:"source_dialect"` // 読み込み元の形式
}

// PageCount はページ数を返します。
func (r *ProductRecord) PageCount() int {
	return len(r.PageStructure)
}

// Page は1始まりのページ仕様を返します。
func (r *ProductRecord) Page(index int) (PageSpec, bool) {
	if index < 1 || index > len(r.PageSpecs) {
		return PageSpec{}, false
	}
	return r.PageSpecs[index-1], true
}

// Validate はレコードの不変条件を検証します。
func (r *ProductRecord) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("商品名が空です")
	}
	if !r.Category.Valid() {
		return fmt.Errorf("不正なカテゴリ: %q", r.Category)
	}
	if len(r.PageSpecs) != len(r.PageStructure) {
		return fmt.Errorf("ページ構成(%d)とページ詳細(%d)の数が一致しません", len(r.PageStructure), len(r.PageSpecs))
	}
	seen := make(map[string]bool, len(r.Variants))
	for _, v := range r.Variants {
		if seen[v.Type] {
			return fmt.Errorf("バリエーションが重複しています: %s", v.Type)
		}
		seen[v.Type] = true
		for _, ch := range v.JAN {
			if ch < '0' || ch > '9' {
				return fmt.Errorf("JANコードが数字ではありません: %s", v.JAN)
			}
		}
	}
	return nil
}
