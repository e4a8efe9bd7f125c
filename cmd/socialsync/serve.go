package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	appLog "socialsync/internal/log"
	"socialsync/internal/services"
	"socialsync/internal/web"
)

func addServe(topLevel *cobra.Command, ro *rootOptions) {
	var listen string
	var noPublisher bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API, calendar page and publisher",
		Example: `
socialsync serve
socialsync serve --listen 0.0.0.0:8080
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(ro)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			appLog.Info("effective config",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"store_driver", cfg.Store.Driver,
				"demo", cfg.Demo,
				"publish_cron", cfg.PublishCron,
				"media_dir", cfg.Media.Dir,
			)

			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					appLog.Error("close store failed", err)
				}
			}()
			a.auth.Start(ctx)

			if !noPublisher {
				pub, err := services.NewPublisher(a.svc.Sources, a.svc.Feed, cfg.PublishCron, cfg.Location(), nil)
				if err != nil {
					return err
				}
				pub.Start()
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					pub.Stop(stopCtx)
				}()
			}

			srv := web.NewServer(web.Options{
				Config:   cfg,
				Services: a.svc,
				Auth:     a.auth,
				Resets:   a.provider,
			})
			err = srv.Run(ctx)
			appLog.Info("socialsync exiting")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	cmd.Flags().BoolVar(&noPublisher, "no-publisher", false, "Do not run the scheduled publisher")
	topLevel.AddCommand(cmd)
}
