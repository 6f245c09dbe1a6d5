package main

import (
	"fmt"
	"log/slog"
	"time"

	"giftpoints/custodian/pkg/backup"
	"giftpoints/custodian/pkg/cli"
	"giftpoints/custodian/pkg/config"
	"giftpoints/custodian/pkg/retention"
	"giftpoints/custodian/pkg/server"
	"giftpoints/custodian/pkg/telemetry/health"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runFlags struct {
	listenAddress string
	watchConfig   bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the retention and backup schedulers",
	Long: `Start the retention and backup schedulers, and the admin API when enabled.

Both schedulers run once at start unless run_on_start is false. Retention then
runs on its schedule and backups daily at the configured hour. The process
exits on SIGINT or SIGTERM after in-flight runs finish.

Examples:
  # Start with default config
  custodian run

  # Start with custom config, reloading the webhook URL on change
  custodian run --config /etc/custodian/config.yaml --watch

  # Validate config without starting
  custodian run --dry-run`,
	RunE: runSchedulers,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override admin API listen address (enables the API)")
	runCmd.Flags().BoolVar(&runFlags.watchConfig, "watch", true, "reload the webhook URL when the config file changes")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runSchedulers(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	if runFlags.listenAddress != "" {
		cfg.Server.Enabled = true
		cfg.Server.ListenAddress = runFlags.listenAddress
	}

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("custodian starting",
		"version", Version,
		"store", a.store.Name(),
		"webhook_enabled", a.activity.Enabled(),
		"retention_enabled", config.Bool(cfg.Retention.Enabled),
		"backup_enabled", config.Bool(cfg.Backup.Enabled),
		"admin_api", cfg.Server.Enabled,
	)

	g, ctx := errgroup.WithContext(ctx)

	var retentionScheduler *retention.Scheduler
	if config.Bool(cfg.Retention.Enabled) {
		retentionScheduler = retention.NewScheduler(a.pruner)
		if err := retentionScheduler.Start(ctx); err != nil {
			return err
		}
		defer retentionScheduler.Stop()
	}

	var backupScheduler *backup.Scheduler
	if config.Bool(cfg.Backup.Enabled) {
		backupScheduler = backup.NewScheduler(a.backups)
		if err := backupScheduler.Start(ctx); err != nil {
			return err
		}
		defer backupScheduler.Stop()
	}

	if cfg.Server.Enabled {
		checker := health.New(5 * time.Second)
		checker.RegisterCheck("store", a.store.Ping)

		deps := server.Deps{
			Backups:  a.backups,
			Health:   checker,
			Notifier: a.activity,
			Version:  health.VersionInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate},
		}
		if retentionScheduler != nil {
			deps.Retention = a.pruner
		}
		if config.Bool(cfg.Telemetry.Metrics.Enabled) {
			deps.Metrics = a.metrics.Handler()
		}
		if a.tracer.Enabled() {
			deps.Tracer = a.tracer.Tracer("server")
		}

		srv := server.NewServer(&cfg.Server, deps)
		g.Go(func() error { return srv.Start(ctx) })
	}

	if runFlags.watchConfig && cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, 0)
		if err != nil {
			slog.Warn("config watcher disabled", "error", err)
		} else {
			g.Go(func() error {
				return watcher.Watch(ctx, func(next *config.Config) {
					a.activity.SetEndpoint(next.Webhook.URL)
					slog.Info("webhook endpoint reloaded", "enabled", next.Webhook.URL != "")
				})
			})
		}
	}

	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	err = g.Wait()
	slog.Info("custodian stopping")
	return err
}
