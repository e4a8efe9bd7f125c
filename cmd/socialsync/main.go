package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	appLog "socialsync/internal/log"
)

const version = "0.1.0-dev"

// rootOptions are the flags every command shares.
type rootOptions struct {
	configPath string
	logLevel   string
	console    bool
	noColor    bool
}

func newRootCommand() *cobra.Command {
	ro := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "socialsync",
		Short:         "Plan, schedule and review social media content.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if ro.noColor {
				color.NoColor = true
			}
			if ro.console {
				appLog.SetConsole(ro.noColor)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&ro.configPath, "config", "~/.socialsync/config.yaml", "Path to config file")
	cmd.PersistentFlags().StringVar(&ro.logLevel, "log-level", "", "Log level (debug, info, error); overrides config")
	cmd.PersistentFlags().BoolVar(&ro.console, "console", false, "Human-readable log output")
	cmd.PersistentFlags().BoolVar(&ro.noColor, "no-color", false, "Disable colored output")

	addServe(cmd, ro)
	addGrid(cmd, ro)
	addBulk(cmd, ro)
	addExportICS(cmd, ro)
	addImportICS(cmd, ro)
	addSnapshot(cmd, ro)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		appLog.Error("command failed", err)
		stop()
		os.Exit(1)
	}
}
