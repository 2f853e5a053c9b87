package mcp_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPHandler_Healthz(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.HTTPHandler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok\n" {
		t.Errorf("healthz body = %q", body)
	}
}

func TestHTTPHandler_MCPEndpointMounted(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.HTTPHandler())
	defer ts.Close()

	// A bare GET without an MCP session is rejected by the transport, but the
	// route must exist (anything but 404 proves the handler is mounted).
	resp, err := http.Get(ts.URL + "/mcp")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		t.Error("/mcp should be routed to the MCP handler")
	}
}
