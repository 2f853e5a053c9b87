package chat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"nimbus/internal/chat"
	"nimbus/internal/llm"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type echoInput struct {
	State string `json:"state" jsonschema:"two-letter US state code"`
}

type echoOutput struct {
	Report string `json:"report"`
}

// newToolServer builds an in-memory MCP server with a single get_alerts tool
// and records the arguments it was called with.
func newToolServer(t *testing.T) (*sdkmcp.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var calls []string

	server := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "weather", Version: "test"}, nil)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_alerts",
		Description: "Get active weather alerts for a US state.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, input echoInput) (*sdkmcp.CallToolResult, echoOutput, error) {
		mu.Lock()
		calls = append(calls, input.State)
		mu.Unlock()
		return nil, echoOutput{Report: "Event: Flood Watch\nArea: " + input.State}, nil
	})
	return server, &calls
}

// scriptedLLM serves a fixed sequence of Messages responses.
func scriptedLLM(t *testing.T, responses []llm.MessagesResponse) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	i := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(responses) {
			t.Errorf("LLM called %d times, scripted only %d", i+1, len(responses))
			http.Error(w, "out of script", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(responses[i])
		i++
	}))
	t.Cleanup(server.Close)
	return server
}

func connect(t *testing.T, ctx context.Context, llmURL string, httpClient *http.Client) (*chat.Client, *[]string) {
	t.Helper()
	server, calls := newToolServer(t)

	t1, t2 := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, t1, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	llmClient, err := llm.New("sk-test", llm.WithBaseURL(llmURL), llm.WithHTTPClient(httpClient))
	if err != nil {
		t.Fatal(err)
	}

	client, err := chat.Connect(ctx, t2, llmClient, chat.Options{Model: "claude-test", MaxTokens: 500})
	if err != nil {
		t.Fatalf("chat.Connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, calls
}

func TestConnect_ListsTools(t *testing.T) {
	ctx := context.Background()
	llmSrv := scriptedLLM(t, nil)
	client, _ := connect(t, ctx, llmSrv.URL, llmSrv.Client())

	names := client.ToolNames()
	if len(names) != 1 || names[0] != "get_alerts" {
		t.Errorf("ToolNames = %v", names)
	}
}

func TestProcessQuery_PlainText(t *testing.T) {
	ctx := context.Background()
	llmSrv := scriptedLLM(t, []llm.MessagesResponse{
		{Content: []llm.ContentBlock{llm.TextBlock("No tools needed, it's sunny.")}, StopReason: "end_turn"},
	})
	client, calls := connect(t, ctx, llmSrv.URL, llmSrv.Client())

	out, err := client.ProcessQuery(ctx, "how is the weather?")
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	if out != "No tools needed, it's sunny." {
		t.Errorf("out = %q", out)
	}
	if len(*calls) != 0 {
		t.Errorf("tool called unexpectedly: %v", *calls)
	}
}

func TestProcessQuery_ToolLoop(t *testing.T) {
	ctx := context.Background()
	llmSrv := scriptedLLM(t, []llm.MessagesResponse{
		{
			Content: []llm.ContentBlock{
				llm.TextBlock("Checking alerts."),
				{Type: "tool_use", ID: "toolu_1", Name: "get_alerts", Input: json.RawMessage(`{"state":"CA"}`)},
			},
			StopReason: "tool_use",
		},
		{
			Content:    []llm.ContentBlock{llm.TextBlock("There is a Flood Watch in CA.")},
			StopReason: "end_turn",
		},
	})
	client, calls := connect(t, ctx, llmSrv.URL, llmSrv.Client())

	out, err := client.ProcessQuery(ctx, "any alerts in CA?")
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}

	if len(*calls) != 1 || (*calls)[0] != "CA" {
		t.Errorf("tool calls = %v, want [CA]", *calls)
	}
	for _, want := range []string{
		"Checking alerts.",
		`[Calling tool get_alerts with args {"state":"CA"}]`,
		"There is a Flood Watch in CA.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("transcript missing %q:\n%s", want, out)
		}
	}
}

func TestProcessQuery_ToolLoopBounded(t *testing.T) {
	ctx := context.Background()

	// A model that always demands another tool call must be cut off.
	toolUse := llm.MessagesResponse{
		Content: []llm.ContentBlock{
			{Type: "tool_use", ID: "toolu_n", Name: "get_alerts", Input: json.RawMessage(`{"state":"TX"}`)},
		},
		StopReason: "tool_use",
	}
	script := make([]llm.MessagesResponse, 12)
	for i := range script {
		script[i] = toolUse
	}
	llmSrv := scriptedLLM(t, script)
	client, _ := connect(t, ctx, llmSrv.URL, llmSrv.Client())

	if _, err := client.ProcessQuery(ctx, "loop forever"); err == nil {
		t.Error("unbounded tool loop should error out")
	}
}

func TestRun_REPL(t *testing.T) {
	ctx := context.Background()
	llmSrv := scriptedLLM(t, []llm.MessagesResponse{
		{Content: []llm.ContentBlock{llm.TextBlock("Sunny.")}, StopReason: "end_turn"},
	})
	client, _ := connect(t, ctx, llmSrv.URL, llmSrv.Client())

	in := strings.NewReader("weather?\nquit\n")
	var out strings.Builder
	if err := client.Run(ctx, in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Connected to server with tools: get_alerts") {
		t.Errorf("missing banner:\n%s", got)
	}
	if !strings.Contains(got, "Sunny.") {
		t.Errorf("missing response:\n%s", got)
	}
}

func TestRun_REPLSurvivesQueryErrors(t *testing.T) {
	ctx := context.Background()
	// Script only an error response: the REPL must print it and keep going.
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]string{"type": "api_error", "message": "boom"},
		})
	}))
	t.Cleanup(llmSrv.Close)
	client, _ := connect(t, ctx, llmSrv.URL, llmSrv.Client())

	in := strings.NewReader("weather?\nquit\n")
	var out strings.Builder
	if err := client.Run(ctx, in, &out); err != nil {
		t.Fatalf("Run should survive query errors, got: %v", err)
	}
	if !strings.Contains(out.String(), "Error:") {
		t.Errorf("error not surfaced to the user:\n%s", out.String())
	}
}
