package main

import (
	"fmt"
	"os"
	"strconv"

	"geotime/pkg/epoch"
	"geotime/pkg/geo"

	"github.com/spf13/cobra"
)

const (
	demoGeometry = `{"type":"Point","coordinates":[-41.49867380840735,-12.598777086158863]}`
	demoMillis   = "1234567890"

	dateLayout = "2006-01-02T15:04:05.000"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "geotime",
		Short:         "Extract GeoJSON point coordinates and convert epoch milliseconds to dates.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	rootCmd.AddCommand(newCoordsCmd(), newDateCmd())
	return rootCmd
}

func newCoordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coords [text]",
		Short: "Print the first [lon, lat] pair found in text",
		Long: `Print the first bracketed [longitude, latitude] pair found in text.

Without an argument a sample GeoJSON point is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := demoGeometry
			if len(args) == 1 {
				input = args[0]
			}
			c, err := geo.ExtractCoordinates(input)
			if err != nil {
				return err
			}
			list := c.CoordsToList()
			fmt.Fprintf(cmd.OutOrStdout(), "[%s, %s]\n",
				strconv.FormatFloat(list[0], 'f', -1, 64),
				strconv.FormatFloat(list[1], 'f', -1, 64),
			)
			return nil
		},
	}
}

func newDateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "date [milliseconds]",
		Short: "Print the date-time that is the given milliseconds after 1970-01-01T00:00:00",
		Long: `Print the naive date-time that is the given number of milliseconds after
1970-01-01T00:00:00. Negative and fractional values are accepted.

Without an argument 1234567890 is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := demoMillis
			if len(args) == 1 {
				raw = args[0]
			}
			ms, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("invalid milliseconds %q: %w", raw, err)
			}
			t, err := epoch.MillisecondsToDate(ms)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Date and time:", t.Format(dateLayout))
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
