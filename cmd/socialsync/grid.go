package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"socialsync/internal/calendar"
	"socialsync/internal/editor"
	appLog "socialsync/internal/log"
)

// scopeOptions select the workspace when a backend is configured.
type scopeOptions struct {
	org  string
	user string
}

func (so *scopeOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&so.org, "org", "", "Organization ID (backend only)")
	cmd.Flags().StringVar(&so.user, "user", "", "Acting user ID (backend only)")
}

func addGrid(topLevel *cobra.Command, ro *rootOptions) {
	so := &scopeOptions{}
	var mode, date, nav string

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the content calendar",
		Example: `
socialsync grid
socialsync grid --mode week --date 2025-10-15
socialsync grid --nav next
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(ro)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := calendar.ParseMode(mode)
			if err != nil {
				return err
			}
			cal := a.svc.Calendar
			anchor := cal.Now()
			if date != "" {
				anchor, err = time.ParseInLocation(editor.DateLayout, date, cal.Location())
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
			}
			view := calendar.ViewAt(anchor, m)
			if nav != "" {
				dir, err := calendar.ParseDirection(nav)
				if err != nil {
					return err
				}
				view = view.Navigate(dir)
			}

			res := cal.Board(cmd.Context(), scope(so.org, so.user), view, calendar.Filter{})
			if len(res.Data.Truncated) > 0 {
				appLog.Info("recurring series truncated", "events", res.Data.Truncated)
			}
			printBoard(cmd.OutOrStdout(), res.Data.Board, res.Source, res.Error)
			return nil
		},
	}
	so.addFlags(cmd)
	cmd.Flags().StringVar(&mode, "mode", "month", "View mode: month, week or day")
	cmd.Flags().StringVar(&date, "date", "", "Anchor date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&nav, "nav", "", "Step the view: prev or next")
	topLevel.AddCommand(cmd)
}
