package main

import (
	"fmt"

	"lp-rough-api/pkg/services"

	"github.com/spf13/cobra"
)

const defaultTemplatePath = "lp_rough_template.xlsx"

func newTemplateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "template [path]",
		Short: "セクション形式の入力テンプレート（xlsx）を作成する",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultTemplatePath
			if len(args) == 1 {
				path = args[0]
			}
			svc := services.NewTemplateService(c.logger)
			if err := svc.WriteWorkbook(path, services.SampleTemplateRecord()); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "📝 テンプレートを作成しました: %s\n", path)
			return nil
		},
	}
}
