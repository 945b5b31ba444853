// Package cli implements the lunisolar command-line tool.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/lunisolar-api/internal/calendar"
	"github.com/zapponejosh/lunisolar-api/internal/config"
	"github.com/zapponejosh/lunisolar-api/internal/database"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/logger"
)

type options struct {
	tz       string
	dbPath   string
	jsonOut  bool
	logLevel string
	workers  int
}

// app holds what every subcommand shares. It is populated by the root
// command's PersistentPreRunE.
type app struct {
	opts   options
	source calendar.EventSource

	db     *database.DB
	conv   *calendar.Converter
	zone   *time.Location
	logger *slog.Logger
}

// NewRootCommand builds the command tree. A nil source selects the Meeus
// ephemeris, optionally behind the SQLite cache named by --db; any other
// source is used as is.
func NewRootCommand(source calendar.EventSource) *cobra.Command {
	a := &app{source: source}

	root := &cobra.Command{
		Use:   "lunisolar",
		Short: "Convert instants to the Chinese lunisolar calendar",
		Long: `Convert instants to the Chinese lunisolar calendar.

Lunar months are reckoned in China Standard Time (UTC+8). Dates and hours of
the sexagenary pillars follow the wall clock of the zone given with --tz.

Examples:
  # Convert a date at noon in the default zone
  lunisolar convert 2024-02-10

  # Convert an exact instant, viewed from New York
  lunisolar convert 2024-02-10T04:30:00Z --tz America/New_York

  # List the months of lunar year 2023 as JSON
  lunisolar months 2023 --json`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.tz, "tz", config.QueryZone(), "Query time zone (IANA name or ±HH:MM)")
	flags.StringVar(&a.opts.dbPath, "db", "", "SQLite event cache (empty disables caching)")
	flags.BoolVar(&a.opts.jsonOut, "json", false, "Write JSON instead of text")
	flags.StringVar(&a.opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flags.IntVar(&a.opts.workers, "workers", calendar.DefaultWorkers, "Batch worker pool size")

	root.AddCommand(
		a.convertCmd(),
		a.batchCmd(),
		a.termsCmd(),
		a.monthsCmd(),
		a.cycleCmd(),
		a.sweepCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.logger = logger.New(cmd.ErrOrStderr(), a.opts.logLevel, "text")

	zone, err := calendar.ParseZone(a.opts.tz, calendar.ReferenceZone)
	if err != nil {
		return err
	}
	a.zone = zone

	if a.opts.workers < 1 {
		return fmt.Errorf("--workers must be at least 1, got %d", a.opts.workers)
	}

	src := a.source
	if src == nil {
		src = ephemeris.NewFinder(ephemeris.NewMemo(ephemeris.NewMeeus()))

		if a.opts.dbPath != "" {
			db, err := database.Open(database.DefaultConfig(a.opts.dbPath), a.logger)
			if err != nil {
				return fmt.Errorf("open event cache: %w", err)
			}
			if _, err := db.Migrate(cmd.Context()); err != nil {
				db.Close()
				return fmt.Errorf("migrate event cache: %w", err)
			}
			a.db = db
			src = calendar.NewCachingSource(src, database.NewEventStore(db, ephemeris.MeeusProvider), a.logger)
		}
	}

	a.conv = calendar.NewConverter(src, a.logger, a.opts.workers)
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// emit writes v as indented JSON under --json, otherwise calls text.
func (a *app) emit(w io.Writer, v any, text func(io.Writer) error) error {
	if a.opts.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w)
}
