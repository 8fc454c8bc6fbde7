package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/clubhouse/internal/hours"
)

func newHoursCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "hours [YYYY-MM-DD]",
		Short: "Print the opening hours and start times for a date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			date := time.Now().In(cfg.Location)
			if len(args) == 1 {
				date, err = time.ParseInLocation("2006-01-02", args[0], cfg.Location)
				if err != nil {
					return fmt.Errorf("invalid date %q: want YYYY-MM-DD", args[0])
				}
			}

			calendar := cfg.Calendar()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s: %s\n", hours.DayName(date), date.Format("2006-01-02"), calendar.FormatOpeningHours(date))
			if slots := calendar.TimeSlots(date); len(slots) > 0 {
				fmt.Fprintln(out, strings.Join(slots, ", "))
			}
			return nil
		},
	}
}
