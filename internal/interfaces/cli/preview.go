package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/evmosdao/paystub/internal/bootstrap"
	"github.com/evmosdao/paystub/internal/domain/paystub"
	"github.com/evmosdao/paystub/internal/infrastructure/logger"
	"github.com/spf13/cobra"
)

func previewCmd(root *rootOptions) *cobra.Command {
	var outFile string
	var logoWait time.Duration

	c := &cobra.Command{
		Use:   "preview",
		Short: "Render a paystub as HTML",
		Args:  cobra.NoArgs,
	}
	record := addRecordFlags(c)
	c.Flags().StringVarP(&outFile, "out", "o", "", "write the HTML to this file instead of stdout")
	c.Flags().DurationVar(&logoWait, "logo-wait", 10*time.Second, "how long to wait for the header logo")

	c.RunE = func(cmd *cobra.Command, _ []string) error {
		rec, err := record.resolve(cmd)
		if err != nil {
			return err
		}

		cfg, log, err := root.load()
		if err != nil {
			return err
		}
		defer logger.Sync(log)

		// Nothing is persisted by a preview
		cfg.Export.Sink = "memory"
		ctx := cmd.Context()
		pipeline, err := bootstrap.NewPipeline(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer pipeline.Close()

		waitForLogo(ctx, pipeline, logoWait, log)

		layout, err := pipeline.Renderer.Layout(ctx, rec, pipeline.Logo.Current())
		if err != nil {
			return err
		}

		if outFile == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), layout.HTML)
			return err
		}
		return os.WriteFile(outFile, []byte(layout.HTML), 0o644)
	}
	return c
}

func fieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List record fields in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, f := range paystub.AllFields() {
				kind := "text"
				switch {
				case f.IsDate():
					kind = "date"
				case f.IsAmount():
					kind = "amount"
				}
				fmt.Fprintf(out, "%-16s --%-18s %s\n", f, flagName(f), kind)
			}
			return nil
		},
	}
}
