package nws

import (
	"fmt"
	"strings"
)

// fallback substitutes a placeholder for empty API fields.
func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// FormatAlert renders one alert as a readable block.
func FormatAlert(f AlertFeature) string {
	p := f.Properties
	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n", fallback(p.Event, "Unknown"))
	fmt.Fprintf(&b, "Area: %s\n", fallback(p.AreaDesc, "Unknown"))
	fmt.Fprintf(&b, "Severity: %s\n", fallback(p.Severity, "Unknown"))
	fmt.Fprintf(&b, "Description: %s\n", fallback(p.Description, "No description available"))
	fmt.Fprintf(&b, "Instructions: %s\n", fallback(p.Instruction, "No specific instructions provided"))
	return b.String()
}

// FormatAlerts renders a full alert collection, or a friendly message when
// there are no active alerts.
func FormatAlerts(state string, ac *AlertCollection) string {
	if ac == nil || len(ac.Features) == 0 {
		return fmt.Sprintf("No active alerts for %s.", strings.ToUpper(state))
	}
	blocks := make([]string, 0, len(ac.Features))
	for _, f := range ac.Features {
		blocks = append(blocks, FormatAlert(f))
	}
	return strings.Join(blocks, "\n---\n")
}

// FormatPeriod renders one forecast period as a readable block.
func FormatPeriod(p Period) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", fallback(p.Name, p.StartTime))
	fmt.Fprintf(&b, "Temperature: %d°%s\n", p.Temperature, fallback(p.TemperatureUnit, "F"))
	fmt.Fprintf(&b, "Wind: %s %s\n", fallback(p.WindSpeed, "calm"), p.WindDirection)
	fmt.Fprintf(&b, "Forecast: %s\n", fallback(p.DetailedForecast, p.ShortForecast))
	return b.String()
}

// FormatForecast renders up to max periods of a forecast.
// max <= 0 renders all periods.
func FormatForecast(f *Forecast, max int) string {
	if f == nil || len(f.Properties.Periods) == 0 {
		return "No forecast periods available."
	}
	periods := f.Properties.Periods
	if max > 0 && len(periods) > max {
		periods = periods[:max]
	}
	blocks := make([]string, 0, len(periods))
	for _, p := range periods {
		blocks = append(blocks, FormatPeriod(p))
	}
	return strings.Join(blocks, "\n---\n")
}
