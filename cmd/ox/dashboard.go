package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blueox/schedule/internal/board"
	"github.com/blueox/schedule/internal/dashboard"
	"github.com/blueox/schedule/internal/session"
	"github.com/spf13/cobra"
)

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		port       int
		staticPath string
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Start the schedule web dashboard",
		Long: `Launches the web dashboard. With --static, tasks are read from a JSON feed
and the dashboard is read-only; users still sign in against the database.
When notify.platform is set, the deadline digest runs on its schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, configPath, port, staticPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to ox config file")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on (overrides dashboard.port)")
	cmd.Flags().StringVar(&staticPath, "static", "", "serve a read-only JSON task feed instead of the database")
	return cmd
}

func runDashboard(cmd *cobra.Command, configPath string, port int, staticPath string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("port") {
		port = cfg.Dashboard.Port
	}

	taskStore, closeStore, err := openTaskStore(cfg, gormDB, staticPath)
	if err != nil {
		return err
	}
	defer closeStore()
	b := board.New(taskStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if cfg.Notify.Platform != "" {
		adapter, err := newNotifyAdapter(cfg)
		if err != nil {
			return err
		}
		sched, err := newDigestScheduler(cfg, b, adapter)
		if err != nil {
			return err
		}
		go sched.Run(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "Deadline digest scheduled (%s) on %s\n", cfg.Notify.Schedule, cfg.Notify.Platform)
	}

	return dashboard.Start(ctx, dashboard.StartOpts{
		Board:           b,
		DB:              gormDB,
		Tokens:          session.NewTokens(cfg.Auth.Secret, cfg.Auth.SessionTTL),
		Company:         cfg.Company,
		Port:            port,
		SessionTTL:      cfg.Auth.SessionTTL,
		ProfileTimeout:  cfg.Auth.ProfileTimeout,
		RefreshInterval: cfg.Dashboard.RefreshInterval,
		SecureCookie:    cfg.Dashboard.SecureCookie,
		Out:             cmd.OutOrStdout(),
	})
}
