package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"lp-rough-api/pkg/models"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const (
	topRankLimit         = 5
	successRatingMinimum = 4.0
)

// synonymExpansion は商品名に含まれる語から追加する検索キーワードです。
type synonymExpansion struct {
	Triggers []string
	Keywords []string
}

var synonymExpansions = []synonymExpansion{
	{Triggers: []string{"Electric Blanket", "電気毛布"}, Keywords: []string{"電気毛布", "電気ブランケット", "電気ひざ掛け", "発熱毛布"}},
	{Triggers: []string{"PowerArQ"}, Keywords: []string{"ポータブル電源", "アウトドア電源", "キャンプ電源"}},
}

// fixedCopyImprovements は常に提示するコピー改善案です。
var fixedCopyImprovements = []string{
	"競合の成功パターンを参考に訴求ポイントを強調",
	"競合との差別化ポイントを明確化",
	"数値的な根拠（○段階、○時間等）を活用",
}

// CompetitorAnalysisService は競合商品を集計して訴求ポイントと改善提案を導出します。
type CompetitorAnalysisService struct {
	logger    *zap.Logger
	retriever CompetitorRetriever
	now       func() time.Time
}

// NewCompetitorAnalysisService は新しいCompetitorAnalysisServiceを生成します。
func NewCompetitorAnalysisService(retriever CompetitorRetriever, logger *zap.Logger) *CompetitorAnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retriever == nil {
		retriever = NoopRetriever{}
	}
	return &CompetitorAnalysisService{logger: logger, retriever: retriever, now: time.Now}
}

// WithClock は分析時刻の取得元を差し替えます。
func (s *CompetitorAnalysisService) WithClock(now func() time.Time) *CompetitorAnalysisService {
	s.now = now
	return s
}

// Analyze は商品名とカテゴリから競合分析を実行します。
func (s *CompetitorAnalysisService) Analyze(ctx context.Context, productName string, category models.Category) (*models.CompetitorAnalysisResult, error) {
	s.logger.Info("📊 競合分析開始", zap.String("product", productName), zap.String("category", string(category)))

	keywords := GenerateSearchKeywords(productName)
	s.logger.Debug("🔍 検索キーワード", zap.Strings("keywords", keywords))

	records, err := s.retriever.Retrieve(ctx, keywords)
	if err != nil {
		return nil, fmt.Errorf("競合データの取得に失敗しました: %w", err)
	}
	if records == nil {
		records = []models.CompetitorRecord{}
	}

	bp := AggregateBestPractices(records)
	result := &models.CompetitorAnalysisResult{
		SearchKeywords:    keywords,
		Category:          category,
		CompetitorCount:   len(records),
		CompetitorRecords: records,
		BestPractices:     bp,
		OptimizedAppeals:  OptimizeAppeals(bp.TopAppeals, category),
		Recommendations:   BuildRecommendations(bp),
		AnalysisTimestamp: s.now(),
	}

	s.logger.Info("✅ 競合分析完了",
		zap.Int("competitors", result.CompetitorCount),
		zap.Int("appeals", len(result.OptimizedAppeals)))
	return result, nil
}

// GenerateSearchKeywords は商品名から検索キーワードの集合を生成します。結果はソート済みです。
func GenerateSearchKeywords(productName string) []string {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(productName) {
		if utf8.RuneCountInString(token) > 1 {
			set[token] = struct{}{}
		}
	}
	lower := strings.ToLower(productName)
	for _, exp := range synonymExpansions {
		for _, trigger := range exp.Triggers {
			if strings.Contains(lower, strings.ToLower(trigger)) {
				for _, kw := range exp.Keywords {
					set[kw] = struct{}{}
				}
				break
			}
		}
	}
	keywords := make([]string, 0, len(set))
	for kw := range set {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	return keywords
}

// labelCounter は初出順を保持する出現回数カウンタです。
type labelCounter struct {
	order  []string
	counts map[string]int
}

func newLabelCounter() *labelCounter {
	return &labelCounter{counts: make(map[string]int)}
}

func (c *labelCounter) add(label string) {
	if label == "" {
		return
	}
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

// ranked は回数の降順で返します。同数の場合は初出順です。limitが0以下なら全件。
func (c *labelCounter) ranked(limit int) []models.RankedLabel {
	out := make([]models.RankedLabel, 0, len(c.order))
	for _, label := range c.order {
		out = append(out, models.RankedLabel{Label: label, Count: c.counts[label]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

var nonDigitPattern = regexp.MustCompile(`[^\d]`)

// ParsePrice は "3,980円" のような表記から数字のみを取り出して整数にします。
func ParsePrice(price string) (int, bool) {
	digits := nonDigitPattern.ReplaceAllString(price, "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// AggregateBestPractices は競合データを集計します。
func AggregateBestPractices(records []models.CompetitorRecord) models.BestPractices {
	appeals := newLabelCounter()
	structures := newLabelCounter()
	features := newLabelCounter()
	var prices []int

	for _, r := range records {
		for _, a := range r.Appeals {
			appeals.add(a)
		}
		for _, s := range r.StructureLabels {
			structures.add(s)
		}
		if p, ok := ParsePrice(r.Price); ok {
			prices = append(prices, p)
		}
		if r.Rating >= successRatingMinimum {
			for _, f := range r.Features {
				features.add(f)
			}
		}
	}

	bp := models.BestPractices{
		TopAppeals:      appeals.ranked(topRankLimit),
		TopStructures:   structures.ranked(topRankLimit),
		SuccessFeatures: []string{},
	}
	for _, f := range features.ranked(0) {
		bp.SuccessFeatures = append(bp.SuccessFeatures, f.Label)
	}
	if len(prices) > 0 {
		bp.PriceRange.Min, bp.PriceRange.Max = prices[0], prices[0]
		sum := 0
		for _, p := range prices {
			bp.PriceRange.Min = min(bp.PriceRange.Min, p)
			bp.PriceRange.Max = max(bp.PriceRange.Max, p)
			sum += p
		}
		bp.PriceRange.Avg = sum / len(prices)
	}
	return bp
}

// BuildRecommendations はベストプラクティスから改善提案を生成します。
func BuildRecommendations(bp models.BestPractices) models.Recommendations {
	recs := models.Recommendations{
		PageStructure:    []string{},
		CopyImprovements: []string{},
		PricingStrategy:  []string{},
		FeatureEmphasis:  []string{},
	}

	for i, s := range bp.TopStructures {
		if i >= 3 {
			break
		}
		recs.PageStructure = append(recs.PageStructure, fmt.Sprintf("%sを強調したページを追加することを推奨", s.Label))
	}

	if len(bp.SuccessFeatures) > 0 {
		recs.CopyImprovements = append(recs.CopyImprovements, fmt.Sprintf("「%s」を訴求ポイントとして強調", bp.SuccessFeatures[0]))
	}
	recs.CopyImprovements = append(recs.CopyImprovements, fixedCopyImprovements...)

	if bp.PriceRange.Avg > 0 {
		recs.PricingStrategy = append(recs.PricingStrategy,
			fmt.Sprintf("市場平均価格: %s円", humanize.Comma(int64(bp.PriceRange.Avg))),
			fmt.Sprintf("価格レンジ: %s円 〜 %s円", humanize.Comma(int64(bp.PriceRange.Min)), humanize.Comma(int64(bp.PriceRange.Max))),
			"価格競争力または付加価値の訴求が重要",
		)
	}

	for i, f := range bp.SuccessFeatures {
		if i >= topRankLimit {
			break
		}
		recs.FeatureEmphasis = append(recs.FeatureEmphasis, f)
	}
	return recs
}
