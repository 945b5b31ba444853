package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zapponejosh/lunisolar-api/internal/calendar"
)

// Result is the JSON form of one conversion.
type Result struct {
	Input   string                  `json:"input,omitempty"`
	Instant time.Time               `json:"instant"`
	Zone    string                  `json:"zone"`
	Text    string                  `json:"text"`
	Pillars [4]string               `json:"pillars"`
	Date    *calendar.LunisolarDate `json:"date,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

func newResult(input string, t time.Time, loc *time.Location, d calendar.LunisolarDate) Result {
	return Result{
		Input:   input,
		Instant: t.In(loc),
		Zone:    loc.String(),
		Text:    d.String(),
		Pillars: d.Pillars(),
		Date:    &d,
	}
}

func (a *app) convertCmd() *cobra.Command {
	var clock string

	cmd := &cobra.Command{
		Use:   "convert [datetime|date]",
		Short: "Convert one instant (default: now)",
		Long: `Convert one instant to its lunisolar date and four pillars.

The argument is RFC 3339 ("2024-02-10T04:30:00Z"), a local date-time
("2024-02-10 23:30"), or a bare date, which means 12:00 unless --time is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}

			t, err := a.parseInput(input, clock)
			if err != nil {
				return err
			}

			d, err := a.conv.Convert(cmd.Context(), t, a.zone)
			if err != nil {
				return err
			}

			res := newResult(input, t, a.zone, d)
			return a.emit(cmd.OutOrStdout(), res, func(w io.Writer) error {
				return writeDate(w, t.In(a.zone), d)
			})
		},
	}

	cmd.Flags().StringVar(&clock, "time", "", "Local time of day HH:MM for a bare date")
	return cmd
}

func (a *app) parseInput(input, clock string) (time.Time, error) {
	switch {
	case input == "" || input == "now":
		if clock != "" {
			return time.Time{}, errors.New("--time needs a date argument")
		}
		return time.Now(), nil
	case clock != "":
		return calendar.ParseLocalDateTime(input, clock, a.zone)
	default:
		return calendar.ParseInstant(input, a.zone)
	}
}

func writeDate(w io.Writer, local time.Time, d calendar.LunisolarDate) error {
	leap := ""
	if d.IsLeapMonth {
		leap = " (leap)"
	}
	pillars := d.Pillars()
	_, err := fmt.Fprintf(w, "%s  %s\n  lunar    %d-%02d-%02d%s\n  pillars  %s\n  zodiac   %s\n",
		local.Format("2006-01-02 15:04 MST"), d,
		d.LunarYear, d.LunarMonth, d.LunarDay, leap,
		strings.Join(pillars[:], " "),
		d.Zodiac,
	)
	return err
}

// BatchFile is the input of the batch command, in YAML or JSON.
type BatchFile struct {
	TZ       string   `yaml:"tz"`
	Instants []string `yaml:"instants"`
}

func (a *app) batchCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "batch --file <path>",
		Short: "Convert many instants against one shared window",
		Long: `Convert every instant listed in a YAML or JSON file:

  tz: Asia/Shanghai
  instants:
    - "2024-02-10"
    - "2024-02-10T04:30:00Z"

Use --file - to read standard input. The file's tz overrides --tz.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bf, err := readBatchFile(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			loc, err := calendar.ParseZone(bf.TZ, a.zone)
			if err != nil {
				return err
			}

			results := make([]Result, len(bf.Instants))
			var (
				instants []time.Time
				slots    []int
			)
			for i, s := range bf.Instants {
				results[i] = Result{Input: s, Zone: loc.String()}
				t, err := calendar.ParseInstant(s, loc)
				if err != nil {
					results[i].Error = err.Error()
					continue
				}
				instants = append(instants, t)
				slots = append(slots, i)
			}

			for j, br := range a.conv.ConvertBatch(cmd.Context(), instants, loc) {
				i := slots[j]
				if br.Err != nil {
					results[i].Instant = br.Instant.In(loc)
					results[i].Error = br.Err.Error()
					continue
				}
				results[i] = newResult(bf.Instants[i], br.Instant, loc, br.Date)
			}

			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "converted %d, failed %d\n", len(results)-failed, failed)

			return a.emit(cmd.OutOrStdout(), results, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for _, r := range results {
					if r.Error != "" {
						fmt.Fprintf(tw, "%s\terror: %s\n", r.Input, r.Error)
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%d-%02d-%02d\t%s\n",
						r.Input, r.Text, r.Date.LunarYear, r.Date.LunarMonth, r.Date.LunarDay,
						strings.Join(r.Pillars[:], " "))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "YAML or JSON file of instants (- for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readBatchFile(stdin io.Reader, path string) (BatchFile, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return BatchFile{}, fmt.Errorf("read batch file: %w", err)
	}

	// JSON is valid YAML, so one decoder serves both.
	var bf BatchFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return BatchFile{}, fmt.Errorf("parse batch file: %w", err)
	}
	if len(bf.Instants) == 0 {
		return BatchFile{}, errors.New("batch file lists no instants")
	}
	return bf, nil
}
