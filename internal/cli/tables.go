package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/lunisolar-api/internal/calendar"
)

func yearArg(s string) (int, error) {
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return y, nil
}

func (a *app) termsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "terms <year>",
		Short: "List the 24 solar terms of a Gregorian year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := yearArg(args[0])
			if err != nil {
				return err
			}

			terms, err := a.conv.SolarTermsOfYear(cmd.Context(), year)
			if err != nil {
				return err
			}

			return a.emit(cmd.OutOrStdout(), terms, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "IDX\tTERM\tENGLISH\tDATE (UTC+8)\tINSTANT (UTC)")
				for _, t := range terms {
					mark := ""
					if t.Principal {
						mark = " *"
					}
					fmt.Fprintf(tw, "%d\t%s%s\t%s\t%s\t%s\n",
						t.Index, t.Name.Chinese, mark, t.Name.English, t.Date,
						t.Instant.UTC().Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			})
		},
	}
}

func (a *app) monthsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "months <lunar-year>",
		Short: "List the months of a lunar year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := yearArg(args[0])
			if err != nil {
				return err
			}

			table, err := a.conv.MonthTable(cmd.Context(), year)
			if err != nil {
				return err
			}
			report := calendar.CheckYear(year, table)

			out := struct {
				LunarYear int                 `json:"lunar_year"`
				Months    []calendar.MonthInfo `json:"months"`
				Report    calendar.YearReport  `json:"report"`
			}{year, table, report}

			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) error {
				fmt.Fprintf(w, "%d %s年 (%s)\n", year, report.Cycle, calendar.Branches[report.Cycle.Branch()].Animal)
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "MONTH\tNAME\tCYCLE\tSTART\tDAYS")
				for _, m := range table {
					num := strconv.Itoa(m.Month)
					if m.IsLeap {
						num += "L"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", num, m.Name, m.Cycle, m.StartDate, m.Days)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(w, "%d months, %d days\n", report.Months, report.Days)
				for _, p := range report.Problems {
					fmt.Fprintf(w, "problem: %s\n", p)
				}
				return nil
			})
		},
	}
}

func (a *app) cycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <number|name>",
		Short: "Describe a sexagenary cycle position, e.g. 41 or 甲辰",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := calendar.ParseCycle(args[0])
			if err != nil {
				return err
			}
			info := calendar.CycleInfo(c)

			return a.emit(cmd.OutOrStdout(), info, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%d %s  %s %s  %s %s  %s\n",
					info.Number, info.Name,
					info.Stem.Pinyin, info.Branch.Pinyin,
					info.Stem.Polarity, info.Stem.Element,
					info.Branch.Animal)
				return err
			})
		},
	}
}

func (a *app) sweepCmd() *cobra.Command {
	var from, to int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Check the month structure of a range of lunar years",
		Long: `Check every lunar year in [--from, --to]: 12 or 13 months of 29 or 30
days, at most one leap month, and month numbers in sequence.
Exits non-zero if any year fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if to < from {
				return fmt.Errorf("--to %d is before --from %d", to, from)
			}

			reports, err := a.conv.Sweep(cmd.Context(), from, to)
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range reports {
				if !r.OK() {
					failed++
				}
			}

			if err := a.emit(cmd.OutOrStdout(), reports, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "YEAR\tCYCLE\tMONTHS\tLEAP\tDAYS\tSTATUS")
				for _, r := range reports {
					leap := "-"
					if r.LeapMonth > 0 {
						leap = strconv.Itoa(r.LeapMonth)
					}
					status := "ok"
					if !r.OK() {
						status = strings.Join(r.Problems, "; ")
					}
					fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%d\t%s\n", r.LunarYear, r.Cycle, r.Months, leap, r.Days, status)
				}
				return tw.Flush()
			}); err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d years failed checks", failed, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&from, "from", 1900, "First lunar year")
	cmd.Flags().IntVar(&to, "to", 2100, "Last lunar year (inclusive)")
	return cmd
}
