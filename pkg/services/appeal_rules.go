package services

import (
	"fmt"
	"strings"

	"lp-rough-api/pkg/models"
)

// maxOptimizedAppeals は最適化訴求ポイントの上限です。
const maxOptimizedAppeals = 6

// AppealRule は上位訴求ポイントに対する条件と、成立時に追加する訴求文です。
type AppealRule struct {
	Name       string
	Matches    func(topAppeals []string) bool
	Suggestion string
}

// anyAppealContains はいずれかの訴求ポイントがいずれかの語を含むかを判定する条件を返します。
func anyAppealContains(terms ...string) func([]string) bool {
	return func(topAppeals []string) bool {
		for _, appeal := range topAppeals {
			lower := strings.ToLower(appeal)
			for _, term := range terms {
				if strings.Contains(lower, strings.ToLower(term)) {
					return true
				}
			}
		}
		return false
	}
}

// appealRules は上から順に評価されます。
var appealRules = []AppealRule{
	{Name: "multi_stage", Matches: anyAppealContains("段階", "stage"), Suggestion: "10段階の細かい温度調節で最適な暖かさ"},
	{Name: "safety", Matches: anyAppealContains("安全", "安心", "safety"), Suggestion: "過熱保護システム搭載で安心・安全"},
	{Name: "brand", Matches: anyAppealContains("メーカー", "ブランド", "brand"), Suggestion: "ブランドの信頼性と品質"},
	{Name: "easy", Matches: anyAppealContains("簡単", "操作", "easy"), Suggestion: "コントローラーで簡単操作"},
}

// categoryPattern はカテゴリ別の成功パターンです。
type categoryPattern struct {
	KeyAppeals        []string
	StructurePriority []string
	CopyPatterns      []string
}

var successPatterns = map[models.Category]categoryPattern{
	models.CategoryElectronics: {
		KeyAppeals:        []string{"省エネ", "高性能", "簡単操作", "安全性", "長期保証"},
		StructurePriority: []string{"機能訴求", "価格競争力", "ブランド信頼性", "使いやすさ"},
		CopyPatterns:      []string{"○段階", "自動○○", "○○対応", "○○機能付き"},
	},
	models.CategoryOutdoor: {
		KeyAppeals:        []string{"軽量", "防水", "耐久性", "コンパクト", "アウトドア専用"},
		StructurePriority: []string{"実用性", "ポータビリティ", "環境対応", "ブランド実績"},
		CopyPatterns:      []string{"○○対応", "軽量○kg", "防水IP○○", "アウトドア○○"},
	},
	models.CategoryLifestyle: {
		KeyAppeals:        []string{"デザイン性", "インテリア", "健康", "快適性", "ライフスタイル"},
		StructurePriority: []string{"ライフスタイル提案", "デザイン性", "快適性", "価格"},
		CopyPatterns:      []string{"○○な暮らし", "毎日○○", "ライフスタイル○○"},
	},
}

// OptimizeAppeals は上位訴求ポイントとカテゴリから最適化された訴求文を最大6件返します。
func OptimizeAppeals(topAppeals []models.RankedLabel, category models.Category) []string {
	labels := make([]string, 0, len(topAppeals))
	for _, a := range topAppeals {
		labels = append(labels, a.Label)
	}

	var optimized []string
	for _, rule := range appealRules {
		if rule.Matches(labels) {
			optimized = appendUnique(optimized, rule.Suggestion)
		}
	}

	pattern := successPatterns[category]
	for i, appeal := range pattern.KeyAppeals {
		if i >= 3 {
			break
		}
		if strings.Contains(strings.Join(optimized, " "), appeal) {
			continue
		}
		optimized = appendUnique(optimized, fmt.Sprintf("%sを重視した設計", appeal))
	}

	if len(optimized) > maxOptimizedAppeals {
		optimized = optimized[:maxOptimizedAppeals]
	}
	if optimized == nil {
		optimized = []string{}
	}
	return optimized
}
