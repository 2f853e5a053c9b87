// Package mcp exposes the weather tools over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"nimbus/internal/logging"
	"nimbus/internal/nws"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// ForecastPeriods is how many periods get_forecast returns.
	ForecastPeriods = 5
	// HourlyPeriods is how many periods get_hourly_forecast returns.
	HourlyPeriods = 12
)

// unavailableMsg is returned when the NWS has no data for a point, e.g.
// coordinates over the ocean or outside US coverage.
const unavailableMsg = "Unable to fetch forecast data for this location."

// Server wraps the MCP SDK server around an NWS client.
type Server struct {
	MCPServer *sdkmcp.Server

	weather *nws.Client
}

// NewServer creates an MCP server named "weather" exposing alert and
// forecast tools backed by the given NWS client.
func NewServer(weather *nws.Client, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{weather: weather}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "weather", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_alerts",
		Description: "Get active weather alerts for a US state.",
	}, s.handleGetAlerts)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_forecast",
		Description: "Get the weather forecast for a location.",
	}, s.handleGetForecast)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_hourly_forecast",
		Description: "Get the hour-by-hour weather forecast for a location.",
	}, s.handleGetHourlyForecast)
}

// --- Tool input/output types ---

type getAlertsInput struct {
	State string `json:"state" jsonschema:"two-letter US state code (e.g. CA, NY)"`
}

type getAlertsOutput struct {
	Report string `json:"report"`
	Count  int    `json:"count"`
}

type getForecastInput struct {
	Latitude  float64 `json:"latitude" jsonschema:"latitude of the location"`
	Longitude float64 `json:"longitude" jsonschema:"longitude of the location"`
}

type getForecastOutput struct {
	Location string `json:"location,omitempty"`
	Report   string `json:"report"`
	Periods  int    `json:"periods"`
}

// --- Tool handlers ---

func (s *Server) handleGetAlerts(ctx context.Context, _ *sdkmcp.CallToolRequest, input getAlertsInput) (*sdkmcp.CallToolResult, getAlertsOutput, error) {
	logger := logging.New("weather-tools")

	ac, err := s.weather.ActiveAlerts(ctx, input.State)
	if err != nil {
		logger.Warn("get_alerts failed", "state", input.State, "error", err)
		return nil, getAlertsOutput{}, fmt.Errorf("get_alerts: %w", err)
	}

	logger.Info("get_alerts", "state", input.State, "count", len(ac.Features))
	return nil, getAlertsOutput{
		Report: nws.FormatAlerts(input.State, ac),
		Count:  len(ac.Features),
	}, nil
}

func (s *Server) handleGetForecast(ctx context.Context, _ *sdkmcp.CallToolRequest, input getForecastInput) (*sdkmcp.CallToolResult, getForecastOutput, error) {
	return s.forecast(ctx, input, false)
}

func (s *Server) handleGetHourlyForecast(ctx context.Context, _ *sdkmcp.CallToolRequest, input getForecastInput) (*sdkmcp.CallToolResult, getForecastOutput, error) {
	return s.forecast(ctx, input, true)
}

func (s *Server) forecast(ctx context.Context, input getForecastInput, hourly bool) (*sdkmcp.CallToolResult, getForecastOutput, error) {
	logger := logging.New("weather-tools")

	point, err := s.weather.Lookup(ctx, input.Latitude, input.Longitude)
	if err != nil {
		if nws.IsNotFound(err) {
			// Point outside NWS coverage: report it, don't error the tool.
			logger.Info("point outside coverage", "lat", input.Latitude, "lon", input.Longitude)
			return nil, getForecastOutput{Report: unavailableMsg}, nil
		}
		return nil, getForecastOutput{}, fmt.Errorf("get_forecast: %w", err)
	}

	url := point.Properties.Forecast
	periods := ForecastPeriods
	if hourly {
		url = point.Properties.ForecastHourly
		periods = HourlyPeriods
	}

	f, err := s.weather.ForecastByURL(ctx, url)
	if err != nil {
		if nws.IsNotFound(err) {
			return nil, getForecastOutput{Report: unavailableMsg}, nil
		}
		return nil, getForecastOutput{}, fmt.Errorf("get_forecast: %w", err)
	}

	logger.Info("get_forecast",
		"lat", input.Latitude, "lon", input.Longitude,
		"hourly", hourly, "periods", len(f.Properties.Periods))

	return nil, getForecastOutput{
		Location: locationName(point),
		Report:   nws.FormatForecast(f, periods),
		Periods:  min(periods, len(f.Properties.Periods)),
	}, nil
}

func locationName(p *nws.Point) string {
	rl := p.Properties.RelativeLocation.Properties
	if rl.City == "" {
		return ""
	}
	return strings.TrimSpace(rl.City + ", " + rl.State)
}
