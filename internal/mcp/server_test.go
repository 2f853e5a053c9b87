package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	mcpserver "nimbus/internal/mcp"
	"nimbus/internal/nws"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})))
	os.Exit(m.Run())
}

// newNWSStub serves canned NWS responses for the tool tests.
func newNWSStub(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/alerts/active/area/CA":
			json.NewEncoder(w).Encode(nws.AlertCollection{Features: []nws.AlertFeature{
				{Properties: nws.AlertProperties{
					Event:       "Red Flag Warning",
					AreaDesc:    "Ventura County",
					Severity:    "Severe",
					Description: "Gusty winds and low humidity.",
				}},
			}})
		case r.URL.Path == "/alerts/active/area/VT":
			json.NewEncoder(w).Encode(nws.AlertCollection{})
		case strings.HasPrefix(r.URL.Path, "/points/0.0000"):
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{
				"title":  "Data Unavailable For Requested Point",
				"detail": "Unable to provide data for requested point",
			})
		case strings.HasPrefix(r.URL.Path, "/points/"):
			fmt.Fprintf(w, `{"properties": {
				"gridId": "LWX", "gridX": 97, "gridY": 71,
				"forecast": "%s/gridpoints/LWX/97,71/forecast",
				"forecastHourly": "%s/gridpoints/LWX/97,71/forecast/hourly",
				"relativeLocation": {"properties": {"city": "Washington", "state": "DC"}}
			}}`, server.URL, server.URL)
		case r.URL.Path == "/gridpoints/LWX/97,71/forecast":
			periods := make([]nws.Period, 7)
			for i := range periods {
				periods[i] = nws.Period{
					Number: i + 1, Name: fmt.Sprintf("Period %d", i+1),
					Temperature: 60 + i, TemperatureUnit: "F",
					WindSpeed: "5 mph", WindDirection: "NW",
					DetailedForecast: "Partly cloudy.",
				}
			}
			json.NewEncoder(w).Encode(nws.Forecast{Properties: nws.ForecastProperties{Periods: periods}})
		case r.URL.Path == "/gridpoints/LWX/97,71/forecast/hourly":
			periods := make([]nws.Period, 24)
			for i := range periods {
				periods[i] = nws.Period{
					Number: i + 1, Temperature: 55, TemperatureUnit: "F",
					StartTime: fmt.Sprintf("2026-08-30T%02d:00:00-04:00", i),
					WindSpeed: "3 mph", ShortForecast: "Clear",
				}
			}
			json.NewEncoder(w).Encode(nws.Forecast{Properties: nws.ForecastProperties{Periods: periods}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestServer(t *testing.T) *mcpserver.Server {
	t.Helper()
	stub := newNWSStub(t)
	weather, err := nws.New(nws.WithBaseURL(stub.URL), nws.WithHTTPClient(stub.Client()))
	if err != nil {
		t.Fatal(err)
	}
	return mcpserver.NewServer(weather, "test")
}

func connectInMemory(t *testing.T, ctx context.Context, srv *mcpserver.Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	serverSession, err := srv.MCPServer.Connect(ctx, t1, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) map[string]any {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if res.IsError {
		for _, c := range res.Content {
			if tc, ok := c.(*sdkmcp.TextContent); ok {
				t.Fatalf("CallTool(%s) returned error: %s", name, tc.Text)
			}
		}
		t.Fatalf("CallTool(%s) returned error", name)
	}
	result := make(map[string]any)
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			if err := json.Unmarshal([]byte(tc.Text), &result); err != nil {
				t.Fatalf("unmarshal tool result: %v (text: %s)", err, tc.Text)
			}
			return result
		}
	}
	t.Fatalf("no text content in tool result")
	return nil
}

func TestServer_ToolDiscovery(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	want := map[string]bool{
		"get_alerts":          false,
		"get_forecast":        false,
		"get_hourly_forecast": false,
	}
	for _, tool := range tools.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("tool %q not found in ListTools", name)
		}
	}
}

func TestGetAlerts(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	result := callTool(t, ctx, session, "get_alerts", map[string]any{"state": "CA"})

	report, _ := result["report"].(string)
	if !strings.Contains(report, "Event: Red Flag Warning") {
		t.Errorf("report missing event:\n%s", report)
	}
	if !strings.Contains(report, "Area: Ventura County") {
		t.Errorf("report missing area:\n%s", report)
	}
	if count, _ := result["count"].(float64); count != 1 {
		t.Errorf("count = %v, want 1", result["count"])
	}
}

func TestGetAlerts_NoneActive(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	result := callTool(t, ctx, session, "get_alerts", map[string]any{"state": "VT"})
	if report, _ := result["report"].(string); report != "No active alerts for VT." {
		t.Errorf("report = %q", report)
	}
}

func TestGetAlerts_InvalidState(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "get_alerts",
		Arguments: map[string]any{"state": "California"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Error("invalid state code should surface as a tool error")
	}
}

func TestGetForecast(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	result := callTool(t, ctx, session, "get_forecast", map[string]any{
		"latitude": 38.8977, "longitude": -77.0365,
	})

	report, _ := result["report"].(string)
	if !strings.Contains(report, "Period 1:") || !strings.Contains(report, "Period 5:") {
		t.Errorf("report should include the first five periods:\n%s", report)
	}
	if strings.Contains(report, "Period 6:") {
		t.Errorf("report should stop at five periods:\n%s", report)
	}
	if periods, _ := result["periods"].(float64); periods != 5 {
		t.Errorf("periods = %v, want 5", result["periods"])
	}
	if loc, _ := result["location"].(string); loc != "Washington, DC" {
		t.Errorf("location = %q", loc)
	}
}

func TestGetHourlyForecast(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	result := callTool(t, ctx, session, "get_hourly_forecast", map[string]any{
		"latitude": 38.8977, "longitude": -77.0365,
	})
	if periods, _ := result["periods"].(float64); periods != 12 {
		t.Errorf("periods = %v, want 12", result["periods"])
	}
}

func TestGetForecast_OutsideCoverage(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	result := callTool(t, ctx, session, "get_forecast", map[string]any{
		"latitude": 0.0, "longitude": 0.0,
	})
	if report, _ := result["report"].(string); report != "Unable to fetch forecast data for this location." {
		t.Errorf("report = %q", report)
	}
}
