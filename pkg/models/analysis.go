package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CompetitorRecord 競合商品1件分のデータ
type CompetitorRecord struct {
	Name            string   `json:"name"`
	Price           string   `json:"price"` // "3,980円" のような表記のまま保持
	Features        []string `json:"features"`
	Appeals         []string `json:"appeals"`
	StructureLabels []string `json:"structure_labels"`
	Rating          float64  `json:"rating"`
	ReviewCount     int      `json:"review_count"`
}

// RankedLabel は出現回数付きのラベルです。JSONでは [label, count] として出力されます。
type RankedLabel struct {
	Label string
	Count int
}

// MarshalJSON implements json.Marshaler
func (r RankedLabel) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{r.Label, r.Count})
}

// UnmarshalJSON implements json.Unmarshaler
func (r *RankedLabel) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("RankedLabel: 要素数が2ではありません: %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &r.Label); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &r.Count)
}

// PriceRange 価格帯（円）
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
	Avg int `json:"avg"` // 切り捨て平均
}

// BestPractices 競合から抽出したベストプラクティス
type BestPractices struct {
	TopAppeals      []RankedLabel `json:"top_appeals"`
	TopStructures   []RankedLabel `json:"top_structures"`
	PriceRange      PriceRange    `json:"price_range"`
	SuccessFeatures []string      `json:"success_features"` // 高評価商品の特徴（頻度順）
}

// Recommendations 改善提案
type Recommendations struct {
	PageStructure    []string `json:"page_structure"`
	CopyImprovements []string `json:"copy_improvements"`
	PricingStrategy  []string `json:"pricing_strategy"`
	FeatureEmphasis  []string `json:"feature_emphasis"`
}

// CompetitorAnalysisResult 競合分析の結果
type CompetitorAnalysisResult struct {
	SearchKeywords    []string           `json:"search_keywords"` // 重複なし・ソート済み
	Category          Category           `json:"category"`
	CompetitorCount   int                `json:"competitor_count"`
	CompetitorRecords []CompetitorRecord `json:"competitor_records"`
	BestPractices     BestPractices      `json:"best_practices"`
	OptimizedAppeals  []string           `json:"optimized_appeals"`
	Recommendations   Recommendations    `json:"recommendations"`
	AnalysisTimestamp time.Time          `json:"analysis_timestamp"`
}

// TopAppeal は最上位の最適化訴求ポイントを返します。
func (a *CompetitorAnalysisResult) TopAppeal() (string, bool) {
	if a == nil || len(a.OptimizedAppeals) == 0 {
		return "", false
	}
	return a.OptimizedAppeals[0], true
}

// TopStructure は最頻出のページ構成ラベルを返します。
func (a *CompetitorAnalysisResult) TopStructure() (string, bool) {
	if a == nil || len(a.BestPractices.TopStructures) == 0 {
		return "", false
	}
	return a.BestPractices.TopStructures[0].Label, true
}

// TopSuccessFeature は最も目立つ成功要因を返します。
func (a *CompetitorAnalysisResult) TopSuccessFeature() (string, bool) {
	if a == nil || len(a.BestPractices.SuccessFeatures) == 0 {
		return "", false
	}
	return a.BestPractices.SuccessFeatures[0], true
}
