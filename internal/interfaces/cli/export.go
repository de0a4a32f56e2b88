package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	paystubapp "github.com/evmosdao/paystub/internal/application/paystub"
	"github.com/evmosdao/paystub/internal/bootstrap"
	"github.com/evmosdao/paystub/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func exportCmd(root *rootOptions) *cobra.Command {
	var outDir string
	var logoWait time.Duration

	c := &cobra.Command{
		Use:   "export",
		Short: "Render a paystub and export it as PDF",
		Example: `  paystub export --record jane.yaml --out ./out
  paystub export --name "Jane Doe" --gross-pay 1234.5 --pay-date 2024-01-20`,
		Args: cobra.NoArgs,
	}
	record := addRecordFlags(c)
	c.Flags().StringVarP(&outDir, "out", "o", "", "write the PDF to this directory (forces the filesystem sink)")
	c.Flags().DurationVar(&logoWait, "logo-wait", 10*time.Second, "how long to wait for the header logo before exporting")

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

		if outDir != "" {
			cfg.Export.Sink = "filesystem"
			cfg.Export.OutputDir = outDir
		}

		ctx := cmd.Context()
		pipeline, err := bootstrap.NewPipeline(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer pipeline.Close()

		waitForLogo(ctx, pipeline, logoWait, log)

		out := cmd.OutOrStdout()
		notifier := paystubapp.NotifierFunc(func(_ context.Context, o paystubapp.Outcome) {
			fmt.Fprintf(out, "%s: %s\n", o.Title, o.Description)
		})
		svc := pipeline.NewService(nil, notifier)

		session, err := svc.CreateSession(ctx)
		if err != nil {
			return err
		}
		id := uuid.MustParse(session.ID)
		if _, err := svc.ReplaceRecord(ctx, id, paystubapp.ReplaceRecordRequest{Record: rec}); err != nil {
			return err
		}

		resp, err := svc.Export(ctx, id)
		if err != nil {
			var exportErr *paystubapp.ExportError
			if errors.As(err, &exportErr) {
				return fmt.Errorf("export failed (%s)", exportErr.Kind)
			}
			return err
		}

		if resp.URL != "" {
			fmt.Fprintln(out, resp.URL)
		} else if resp.Job != nil {
			fmt.Fprintln(out, resp.Job.Location)
		}
		return nil
	}
	return c
}

// waitForLogo starts the logo fetch and blocks until it settles or d elapses.
// Exporting without the logo is allowed; the placeholder is printed instead.
func waitForLogo(ctx context.Context, p *bootstrap.Pipeline, d time.Duration, log *zap.Logger) {
	p.Logo.Start(ctx)
	if d <= 0 {
		return
	}
	waitCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	logo, err := p.Logo.Wait(waitCtx)
	if err != nil {
		log.Warn("logo not ready, exporting with placeholder", zap.Duration("waited", d))
		return
	}
	log.Debug("logo settled", zap.String("state", logo.State.String()), zap.String("reason", logo.Reason))
}
