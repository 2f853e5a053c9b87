package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"nimbus/internal/format"
	"nimbus/internal/nws"
)

var forecastFlags struct {
	hours    int
	markdown bool
}

var forecastCmd = &cobra.Command{
	Use:   "forecast <LATITUDE> <LONGITUDE>",
	Short: "Show the forecast for a coordinate",
	Long: `Fetches the National Weather Service forecast for a coordinate: the
period forecast (Tonight, Saturday, ...) and the next hours, fetched
concurrently.

Example:
  nimbus forecast 38.8977 -77.0365`,
	Args: cobra.ExactArgs(2),
	RunE: runForecast,
}

func init() {
	f := forecastCmd.Flags()
	f.IntVar(&forecastFlags.hours, "hours", 12, "How many hourly periods to show (0 disables the hourly table)")
	f.BoolVar(&forecastFlags.markdown, "markdown", false, "Render tables as Markdown")
}

func runForecast(cmd *cobra.Command, args []string) error {
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid latitude %q: %w", args[0], err)
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid longitude %q: %w", args[1], err)
	}

	s := openStore()
	if s != nil {
		defer s.Close()
	}
	weather, err := newWeatherClient(s, forecastCacheTTL)
	if err != nil {
		return err
	}

	// One gridpoint lookup, then both products concurrently.
	point, err := weather.Lookup(cmd.Context(), lat, lon)
	if err != nil {
		if nws.IsNotFound(err) {
			return fmt.Errorf("no forecast data for %.4f,%.4f (outside NWS coverage)", lat, lon)
		}
		return err
	}

	var periodic, hourly *nws.Forecast
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		periodic, err = weather.ForecastByURL(ctx, point.Properties.Forecast)
		return err
	})
	if forecastFlags.hours > 0 {
		g.Go(func() error {
			var err error
			hourly, err = weather.ForecastByURL(ctx, point.Properties.ForecastHourly)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rl := point.Properties.RelativeLocation.Properties
	if rl.City != "" {
		fmt.Fprintf(out, "Forecast for %s, %s (grid %s %d,%d)\n\n",
			rl.City, rl.State, point.Properties.GridID, point.Properties.GridX, point.Properties.GridY)
	}

	mode := format.ASCII
	if forecastFlags.markdown {
		mode = format.Markdown
	}

	tbl := format.NewTable(mode)
	tbl.Header("PERIOD", "TEMP", "WIND", "FORECAST")
	tbl.WidthMax(4, 60)
	for i, p := range periodic.Properties.Periods {
		if i >= 5 {
			break
		}
		tbl.Row(p.Name,
			fmt.Sprintf("%d°%s", p.Temperature, p.TemperatureUnit),
			fmt.Sprintf("%s %s", p.WindSpeed, p.WindDirection),
			p.ShortForecast)
	}
	fmt.Fprintln(out, tbl.String())

	if hourly != nil && len(hourly.Properties.Periods) > 0 {
		fmt.Fprintf(out, "\nNext %d hours:\n", forecastFlags.hours)
		htbl := format.NewTable(mode)
		htbl.Header("TIME", "TEMP", "WIND", "SKY")
		for i, p := range hourly.Properties.Periods {
			if i >= forecastFlags.hours {
				break
			}
			htbl.Row(p.StartTime,
				fmt.Sprintf("%d°%s", p.Temperature, p.TemperatureUnit),
				p.WindSpeed,
				p.ShortForecast)
		}
		fmt.Fprintln(out, htbl.String())
	}
	return nil
}
