package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"socialsync/internal/calendar"
	"socialsync/internal/capture"
)

func addSnapshot(topLevel *cobra.Command, ro *rootOptions) {
	opts := capture.Options{}
	var mode string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save a PNG of the calendar page of a running server",
		Long: `Loads /calendar from a running "socialsync serve" in headless Chromium and
writes a full-page screenshot. A Chromium or Chrome binary must be installed.`,
		Example: `
socialsync snapshot --out october.png --date 2025-10-01
socialsync snapshot --url http://127.0.0.1:8080 --mode week --token $TOKEN
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.BaseURL == "" {
				cfg, err := loadConfig(ro)
				if err != nil {
					return err
				}
				opts.BaseURL = "http://" + cfg.Listen
			}
			opts.Mode = calendar.Mode(mode)
			if err := capture.Snapshot(cmd.Context(), opts); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), opts.OutputPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.BaseURL, "url", "", "Dashboard base URL (default from the config listen address)")
	cmd.Flags().StringVar(&opts.OutputPath, "out", "calendar.png", "PNG output path")
	cmd.Flags().StringVar(&mode, "mode", "", "View mode: month, week or day")
	cmd.Flags().StringVar(&opts.Date, "date", "", "Anchor date as YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.Token, "token", "", "Session token to view a signed-in workspace")
	cmd.Flags().IntVar(&opts.Width, "width", capture.DefaultWidth, "Viewport width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", capture.DefaultHeight, "Viewport height in pixels")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", capture.DefaultTimeout, "Overall capture timeout")
	topLevel.AddCommand(cmd)
}
