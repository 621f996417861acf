package main

import (
	"context"
	"fmt"

	"github.com/blueox/schedule/internal/board"
	"github.com/blueox/schedule/internal/config"
	"github.com/blueox/schedule/internal/notify"
	"github.com/blueox/schedule/internal/notify/discord"
	"github.com/blueox/schedule/internal/notify/slack"
	"github.com/spf13/cobra"
)

func newDigestCmd() *cobra.Command {
	var (
		configPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Send the upcoming deadline digest once",
		Long:  "Builds the upcoming deadline digest and posts it to the configured Slack or Discord channel. Nothing is sent when no deadlines are due.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(cmd, configPath, dryRun)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to ox config file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the digest instead of sending it")
	return cmd
}

func runDigest(cmd *cobra.Command, configPath string, dryRun bool) error {
	out := cmd.OutOrStdout()
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	taskStore, closeStore, err := openTaskStore(cfg, gormDB, "")
	if err != nil {
		return err
	}
	defer closeStore()
	b := board.New(taskStore)

	var adapter notify.Adapter = dryRunAdapter{}
	if !dryRun {
		if cfg.Notify.Platform == "" {
			return fmt.Errorf("notify.platform is not configured (use --dry-run to preview)")
		}
		if adapter, err = newNotifyAdapter(cfg); err != nil {
			return err
		}
	}
	sched, err := newDigestScheduler(cfg, b, adapter)
	if err != nil {
		return err
	}

	if dryRun {
		msg, ok, err := sched.Preview(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "No upcoming deadlines.")
			return nil
		}
		printDigest(cmd, msg)
		return nil
	}

	sent, err := sched.SendDigest(cmd.Context())
	if err != nil {
		return err
	}
	if !sent {
		fmt.Fprintln(out, "No upcoming deadlines; nothing sent.")
		return nil
	}
	fmt.Fprintf(out, "Digest sent to %s channel %s\n", cfg.Notify.Platform, cfg.Notify.ChannelID)
	return nil
}

func printDigest(cmd *cobra.Command, msg notify.Message) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, msg.Text)
	for _, ev := range msg.Events {
		fmt.Fprintf(out, "  - %s: %s", ev.Title, ev.Body)
		for _, f := range ev.Fields {
			fmt.Fprintf(out, " [%s: %s]", f.Name, f.Value)
		}
		fmt.Fprintln(out)
	}
}

// dryRunAdapter stands in for a chat platform when only previewing.
type dryRunAdapter struct{}

func (dryRunAdapter) Send(ctx context.Context, msg notify.Message) error {
	return fmt.Errorf("notify: dry run, not sending")
}

func newNotifyAdapter(cfg *config.Config) (notify.Adapter, error) {
	switch cfg.Notify.Platform {
	case "slack":
		return slack.New(slack.AdapterOpts{BotToken: cfg.Notify.SlackToken, ChannelID: cfg.Notify.ChannelID})
	case "discord":
		return discord.New(discord.AdapterOpts{BotToken: cfg.Notify.DiscordToken, ChannelID: cfg.Notify.ChannelID})
	}
	return nil, fmt.Errorf("notify: unsupported platform %q", cfg.Notify.Platform)
}

func newDigestScheduler(cfg *config.Config, src notify.Source, adapter notify.Adapter) (*notify.Scheduler, error) {
	return notify.NewScheduler(notify.SchedulerOpts{
		Source:    src,
		Adapter:   adapter,
		Company:   cfg.Company,
		ChannelID: cfg.Notify.ChannelID,
		Schedule:  cfg.Notify.Schedule,
		Window:    cfg.Notify.WindowDays,
		Limit:     cfg.Notify.Limit,
	})
}
