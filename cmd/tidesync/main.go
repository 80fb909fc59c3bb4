package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quaylabs/tidesync/internal/app"
	"github.com/quaylabs/tidesync/internal/cli"
	"github.com/quaylabs/tidesync/internal/config"
)

const daemonVersion = "0.0.0-dev"

func main() {
	if err := run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	command := newCommand()
	parsedArgs := []string{}
	if len(args) > 1 {
		parsedArgs = args[1:]
	}
	command.SetArgs(parsedArgs)
	return command.Execute()
}

func newCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "tidesync",
		Short:        "Postgres to ClickHouse replication daemon",
		Version:      daemonVersion,
		SilenceUsage: true,
		RunE:         runDaemon,
	}

	command.PersistentFlags().String("config", "", "path to tidesync config file")
	command.Flags().String("postgres-dsn", "", "authoritative store DSN")
	command.Flags().String("postgres-table", "", "authoritative table name")
	command.Flags().String("clickhouse-dsn", "", "analytical store DSN")
	command.Flags().String("clickhouse-table", "", "analytical table name")
	command.Flags().String("channel", "", "notification channel")
	command.Flags().Duration("debounce-window", 0, "debounce window")
	command.Flags().String("cursor-path", "", "cursor database path")

	command.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return cli.InitViperFromCommand(cmd, cli.ViperConfig{
			EnvPrefix:    "TIDESYNC",
			ConfigEnvVar: "TIDESYNC_CONFIG",
			ConfigName:   "tidesync",
		})
	}
	return command
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig(cmd)
	return app.Run(ctx, cfg)
}

// loadConfig layers flag values over the environment-driven defaults.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	if v := cli.ResolveStringFlag(cmd, "postgres-dsn"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := cli.ResolveStringFlag(cmd, "postgres-table"); v != "" {
		cfg.Postgres.Table = v
	}
	if v := cli.ResolveStringFlag(cmd, "clickhouse-dsn"); v != "" {
		cfg.ClickHouse.DSN = v
	}
	if v := cli.ResolveStringFlag(cmd, "clickhouse-table"); v != "" {
		cfg.ClickHouse.Table = v
	}
	if v := cli.ResolveStringFlag(cmd, "channel"); v != "" {
		cfg.Sync.Channel = v
	}
	if v := cli.ResolveDurationFlag(cmd, "debounce-window"); v > 0 {
		cfg.Sync.DebounceWindow = v
	}
	if v := cli.ResolveStringFlag(cmd, "cursor-path"); v != "" {
		cfg.Cursor.Path = v
	}
	return cfg
}
