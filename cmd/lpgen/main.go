package main

import (
	"fmt"
	"io"
	"os"

	config "lp-rough-api/configs"
	"lp-rough-api/pkg/app"

	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli はコマンド間で共有する状態です。
type cli struct {
	out    io.Writer
	errOut io.Writer

	verbose    bool
	configPath string
	plain      bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:   "lpgen",
		Short: "商品仕様書からLPラフ案を生成します",
		Long: `lpgen は商品仕様書（CSV / Excel / PDF / JSON）を読み込み、
競合分析とレイアウト提案を反映したLPラフ案のMarkdownを生成します。

設定は環境変数（.env）と --config で指定したYAMLから読み込みます。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.LoadConfigFile(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg

			logger, err := app.NewLogger(cfg.LogLevel, c.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "詳細なログを出力する")
	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML設定ファイルのパス")
	rootCmd.PersistentFlags().BoolVar(&c.plain, "plain", false, "レポートを装飾せずに出力する")

	rootCmd.AddCommand(newGenerateCmd(c))
	rootCmd.AddCommand(newTemplateCmd(c))
	rootCmd.AddCommand(newAnalyzeCmd(c))
	return rootCmd
}

// renderMarkdown はMarkdownを端末向けに整形して出力します。整形に失敗した場合はそのまま出力します。
func (c *cli) renderMarkdown(md string) {
	if !c.plain {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			if rendered, err := renderer.Render(md); err == nil {
				fmt.Fprint(c.out, rendered)
				return
			}
		}
		c.logger.Debug("Markdownの整形に失敗したためそのまま出力します")
	}
	fmt.Fprintln(c.out, md)
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
