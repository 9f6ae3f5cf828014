package main

import (
	"context"
	"encoding/json"
	"strings"

	"lp-rough-api/pkg/app"
	"lp-rough-api/pkg/models"
	"lp-rough-api/pkg/services"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(c *cli) *cobra.Command {
	var (
		category    string
		asJSON      bool
		competitors string
	)
	cmd := &cobra.Command{
		Use:   "analyze <product name>",
		Short: "商品名から競合分析レポートを作成する",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			name := strings.Join(args, " ")

			cfg := *c.cfg
			if competitors != "" {
				cfg.CompetitorFixture = competitors
				cfg.RetrievalEndpoint = ""
			}
			cat := models.Category(category)
			if !cat.Valid() {
				cat = services.ClassifyCategory(name)
			}

			svc := services.NewCompetitorAnalysisService(app.NewRetriever(&cfg), c.logger)
			result, err := svc.Analyze(ctx, name, cat)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			c.renderMarkdown(services.CompetitorReport(name, result))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "カテゴリ (electronics|outdoor|lifestyle)。省略時は商品名から判定")
	cmd.Flags().BoolVar(&asJSON, "json", false, "分析結果をJSONで出力する")
	cmd.Flags().StringVar(&competitors, "competitors", "", "競合データのJSONファイル")
	return cmd
}
