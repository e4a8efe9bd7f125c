package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"socialsync/internal/bulk"
	"socialsync/internal/model"
)

func addBulk(topLevel *cobra.Command, ro *rootOptions) {
	so := &scopeOptions{}
	var (
		csvPath   string
		mode      string
		platforms []string
		start     string
		end       string
		out       string
		apply     bool
	)

	cmd := &cobra.Command{
		Use:   "bulk --csv FILE --start DATE --end DATE",
		Short: "Plan (and optionally store) a bulk schedule from a CSV queue",
		Long: `Reads a CSV queue with the columns caption,date,time,platforms,type and
spreads it over the date range. Rows with a date and time keep their slot in
csv mode. Auto mode uses the best posting times of the selected platforms and
custom mode the default daily slots.`,
		Example: `
socialsync bulk --csv queue.csv --start 2025-11-03 --end 2025-11-07 --platforms instagram,linkedin
socialsync bulk --csv queue.csv --start 2025-11-03 --end 2025-11-07 --apply
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if csvPath == "" {
				return errors.New("--csv is required")
			}
			cfg, err := loadConfig(ro)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(csvPath)
			if err != nil {
				return err
			}
			items, err := bulk.ParseCSV(f, cfg.Location())
			f.Close()
			if err != nil {
				return fmt.Errorf("parse %s: %w", csvPath, err)
			}

			m, err := bulk.ParseMode(mode)
			if err != nil {
				return err
			}
			req := bulk.Request{Mode: m, StartDate: start, EndDate: end, Items: items}
			for _, p := range platforms {
				pl, err := model.ParsePlatform(p)
				if err != nil {
					return err
				}
				req.Platforms = append(req.Platforms, pl)
			}

			res, err := a.svc.Calendar.Bulk(cmd.Context(), scope(so.org, so.user), req, !apply)
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), res.Plan)
			if apply {
				fmt.Fprintf(cmd.OutOrStdout(), "stored %d events\n", len(res.Created))
			}

			if out != "" {
				w, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := bulk.WriteCSV(w, res.Plan); err != nil {
					w.Close()
					return err
				}
				return w.Close()
			}
			return nil
		},
	}
	so.addFlags(cmd)
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV queue to schedule")
	cmd.Flags().StringVar(&mode, "mode", string(bulk.ModeCSV), "Scheduling mode: auto, custom or csv")
	cmd.Flags().StringSliceVar(&platforms, "platforms", nil, "Platforms for rows that name none")
	cmd.Flags().StringVar(&start, "start", "", "First day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&out, "out", "", "Write the planned schedule as CSV")
	cmd.Flags().BoolVar(&apply, "apply", false, "Store the planned events instead of a dry run")
	topLevel.AddCommand(cmd)
}
