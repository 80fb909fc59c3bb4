package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quaylabs/tidesync/internal/bulkload"
	"github.com/quaylabs/tidesync/internal/cli"
	"github.com/quaylabs/tidesync/internal/config"
	"github.com/quaylabs/tidesync/internal/cursor"
	"github.com/quaylabs/tidesync/internal/source"
	"github.com/quaylabs/tidesync/internal/target"
	"github.com/quaylabs/tidesync/internal/telemetry"
	"github.com/quaylabs/tidesync/internal/verify"
)

const cliVersion = "0.0.0-dev"

func main() {
	if err := run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	command := newAdminCommand()
	parsedArgs := []string{}
	if len(args) > 1 {
		parsedArgs = args[1:]
	}
	command.SetArgs(parsedArgs)
	return command.Execute()
}

func newAdminCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "tidesync-admin",
		Short:        "Tidesync admin CLI",
		Version:      cliVersion,
		SilenceUsage: true,
	}

	command.PersistentFlags().String("config", "", "path to tidesync-admin config file")
	command.PersistentFlags().String("postgres-dsn", "", "authoritative store DSN")
	command.PersistentFlags().String("postgres-table", "", "authoritative table name")
	command.PersistentFlags().String("clickhouse-dsn", "", "analytical store DSN")
	command.PersistentFlags().String("clickhouse-table", "", "analytical table name")
	command.PersistentFlags().String("cursor-path", "", "cursor database path")
	command.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return cli.InitViperFromCommand(cmd, cli.ViperConfig{
			EnvPrefix:    "TIDESYNC",
			ConfigEnvVar: "TIDESYNC_CONFIG",
			ConfigName:   "tidesync-admin",
		})
	}

	resyncCommand := &cobra.Command{
		Use:   "resync",
		Short: "rebuild the replica from authoritative state",
		Args:  cobra.NoArgs,
		RunE:  runResync,
	}
	resyncCommand.Flags().Bool("incremental", false, "load only rows updated since the last cursor")
	addOutputFlags(resyncCommand)
	command.AddCommand(resyncCommand)

	verifyCommand := &cobra.Command{
		Use:   "verify",
		Short: "compare row counts between the stores",
		Args:  cobra.NoArgs,
		RunE:  runVerify,
	}
	addOutputFlags(verifyCommand)
	command.AddCommand(verifyCommand)

	cursorCommand := &cobra.Command{
		Use:   "cursor",
		Short: "show the replication cursor",
		Args:  cobra.NoArgs,
		RunE:  runCursor,
	}
	addOutputFlags(cursorCommand)
	command.AddCommand(cursorCommand)

	return command
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "output JSON for scripting")
	cmd.Flags().Bool("yaml", false, "output YAML for scripting")
	cmd.Flags().Bool("pretty", false, "pretty-print JSON output")
}

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
	if v := cli.ResolveStringFlag(cmd, "cursor-path"); v != "" {
		cfg.Cursor.Path = v
	}
	return cfg
}

func cursorPath(cfg *config.Config) string {
	if cfg.Cursor.Path != "" {
		return cfg.Cursor.Path
	}
	return cursor.DefaultPath()
}

type resyncResult struct {
	Mode      string    `json:"mode" yaml:"mode"`
	Rows      int       `json:"rows" yaml:"rows"`
	Session   string    `json:"session" yaml:"session"`
	Duration  string    `json:"duration" yaml:"duration"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
}

func runResync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := loadConfig(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}
	incremental, err := cmd.Flags().GetBool("incremental")
	if err != nil {
		return err
	}

	src, err := source.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.Table)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := target.Open(ctx, cfg.ClickHouse.DSN, cfg.ClickHouse.Table)
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()

	cursors, err := cursor.NewStore(ctx, cursorPath(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = cursors.Close() }()

	loader := &bulkload.Loader{
		Source:  src,
		Target:  dst,
		Cursors: cursors,
		Session: uuid.NewString(),
		Tracer:  telemetry.Tracer(cfg.Telemetry.ServiceName),
	}

	result := resyncResult{Mode: "full", Session: loader.Session, StartedAt: time.Now().UTC()}
	var rows int
	if incremental {
		result.Mode = "incremental"
		rows, err = loader.Incremental(ctx)
	} else {
		rows, err = loader.Full(ctx)
	}
	if err != nil {
		return err
	}
	result.Rows = rows
	result.Duration = time.Since(result.StartedAt).Round(time.Millisecond).String()

	return emit(cmd, result, func() {
		renderTextTable(
			[]string{"MODE", "ROWS", "DURATION", "SESSION"},
			[][]string{{result.Mode, strconv.Itoa(result.Rows), result.Duration, result.Session}},
		)
	})
}

func runVerify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := loadConfig(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	src, err := source.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.Table)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := target.Open(ctx, cfg.ClickHouse.DSN, cfg.ClickHouse.Table)
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()

	report, err := verify.Compare(ctx, src, dst)
	if err != nil {
		return err
	}

	status := "in sync"
	if !report.InSync() {
		status = "drift"
	}
	if err := emit(cmd, report, func() {
		renderTextTable(
			[]string{"SOURCE", "TARGET", "DIFF", "STATUS"},
			[][]string{{
				strconv.FormatInt(report.Source, 10),
				strconv.FormatInt(report.Target, 10),
				strconv.FormatInt(report.Diff, 10),
				status,
			}},
		)
	}); err != nil {
		return err
	}
	if !report.InSync() {
		return fmt.Errorf("replica drift: %+d rows", report.Diff)
	}
	return nil
}

type cursorResult struct {
	SyncedAt time.Time `json:"synced_at" yaml:"synced_at"`
	Rows     int       `json:"rows" yaml:"rows"`
	Mode     string    `json:"mode" yaml:"mode"`
	Session  string    `json:"session" yaml:"session"`
}

func runCursor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := loadConfig(cmd)

	cursors, err := cursor.NewStore(ctx, cursorPath(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = cursors.Close() }()

	entry, ok, err := cursors.Get(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("no cursor recorded")
		return nil
	}

	result := cursorResult{
		SyncedAt: entry.SyncedAt,
		Rows:     entry.Rows,
		Mode:     entry.Mode,
		Session:  entry.Session,
	}
	return emit(cmd, result, func() {
		renderTextTable(
			[]string{"SYNCED AT", "ROWS", "MODE", "SESSION"},
			[][]string{{
				result.SyncedAt.Format(time.RFC3339),
				strconv.Itoa(result.Rows),
				result.Mode,
				result.Session,
			}},
		)
	})
}

// emit writes value as JSON or YAML when the matching flag is set, otherwise
// calls the text renderer.
func emit(cmd *cobra.Command, value any, text func()) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	yamlOutput, err := cmd.Flags().GetBool("yaml")
	if err != nil {
		return err
	}
	prettyOutput, err := cmd.Flags().GetBool("pretty")
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		if prettyOutput {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
	if yamlOutput {
		out, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	}
	text()
	return nil
}

func renderTextTable(headers []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	header := make(table.Row, len(headers))
	for i, value := range headers {
		header[i] = value
	}
	t.AppendHeader(header)
	for _, rowValues := range rows {
		row := make(table.Row, len(rowValues))
		for i, value := range rowValues {
			row[i] = value
		}
		t.AppendRow(row)
	}
	t.Render()
}
