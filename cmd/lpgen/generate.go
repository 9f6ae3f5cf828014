package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"lp-rough-api/pkg/app"
	"lp-rough-api/pkg/services"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	noAnalysis  bool
	layout      bool
	upload      bool
	report      bool
	checklist   bool
	dialect     string
	outDir      string
	timeout     time.Duration
	competitors string
}

func newGenerateCmd(c *cli) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate <files...>",
		Short: "仕様書からLPラフ案を生成する",
		Long: `指定した仕様書ごとにLPラフ案を生成し、出力ディレクトリに保存します。
失敗した入力があっても残りの入力は処理し、最後に最初の失敗を報告します。

Example:
  lpgen generate spec.csv --layout --report
  lpgen generate 規定書.xlsx --type vendor_excel --upload`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), args, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.noAnalysis, "no-analysis", false, "競合分析を行わない")
	f.BoolVar(&opts.layout, "layout", false, "レイアウト提案と指示書を出力する")
	f.BoolVar(&opts.upload, "upload", false, "DocBaseに公開する")
	f.BoolVar(&opts.report, "report", false, "競合分析レポートを出力する")
	f.BoolVar(&opts.checklist, "checklist", false, "画像制作チェックリストを出力する")
	f.StringVar(&opts.dialect, "type", services.DialectAuto, "入力形式 (auto|csv|vendor_csv|excel|vendor_excel|pdf|json)")
	f.StringVar(&opts.outDir, "out", "", "出力ディレクトリ（既定はOUTPUT_DIR）")
	f.DurationVar(&opts.timeout, "timeout", 0, "1入力あたりの上限時間（既定はINVOCATION_TIMEOUT）")
	f.StringVar(&opts.competitors, "competitors", "", "競合データのJSONファイル（COMPETITOR_FIXTUREを上書き）")
	return cmd
}

func (c *cli) runGenerate(ctx context.Context, inputs []string, opts *generateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := *c.cfg
	if opts.outDir != "" {
		cfg.OutputDir = opts.outDir
	}
	if opts.competitors != "" {
		cfg.CompetitorFixture = opts.competitors
		cfg.RetrievalEndpoint = ""
	}
	timeout := cfg.InvocationTimeout
	if opts.timeout > 0 {
		timeout = opts.timeout
	}

	a := app.New(&cfg, c.logger)
	if opts.upload && a.Publisher == nil {
		fmt.Fprintln(c.errOut, "⚠️ DOCBASE_TEAM と DOCBASE_ACCESS_TOKEN が未設定のため公開をスキップします")
	}

	results := a.Pipeline.RunBatch(ctx, inputs, services.PipelineOptions{
		Dialect:   opts.dialect,
		Analyze:   !opts.noAnalysis,
		Layout:    opts.layout,
		Publish:   opts.upload,
		Report:    opts.report,
		Checklist: opts.checklist,
		Timeout:   timeout,
	})

	for _, r := range results {
		c.printResult(r)
		if opts.report && r.Report != "" {
			c.renderMarkdown(r.Report)
		}
	}

	if failed, ok := services.FirstFailure(results); ok {
		return fmt.Errorf("%s の処理に失敗しました: %w", failed.Input, failed.Err)
	}
	return nil
}

// printResult は1入力分の結果を出力します。
func (c *cli) printResult(r *services.PipelineResult) {
	if !r.OK {
		fmt.Fprintf(c.errOut, "❌ %s: [%s] %s\n", r.Input, r.Stage, r.Error)
		return
	}

	fmt.Fprintf(c.out, "✅ %s → %s（%dページ、%s）\n", r.Input, r.Draft.Title, r.Draft.PageCount, r.Duration.Round(time.Millisecond))

	kinds := make([]string, 0, len(r.Artifacts))
	for kind := range r.Artifacts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		path := r.Artifacts[kind]
		size := ""
		if info, err := os.Stat(path); err == nil {
			size = "（" + humanize.Bytes(uint64(info.Size())) + "）"
		}
		fmt.Fprintf(c.out, "   💾 %s: %s%s\n", kind, path, size)
	}
	for _, p := range r.Published {
		verb := "作成"
		if p.Updated {
			verb = "更新"
		}
		fmt.Fprintf(c.out, "   📤 DocBase %s: %s\n", verb, p.URL)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(c.errOut, "   ⚠️ %s\n", w)
	}
	if r.PartialSuccess {
		fmt.Fprintf(c.errOut, "⚠️ %s: ラフ案は生成しましたが一部の処理に失敗しました", r.Input)
		if r.Error != "" {
			fmt.Fprintf(c.errOut, " [%s] %s", r.Stage, r.Error)
		}
		fmt.Fprintln(c.errOut)
	}
}
