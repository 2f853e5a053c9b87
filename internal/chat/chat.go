// Package chat drives an MCP server from an interactive model conversation.
// It connects to a server, advertises the server's tools to the model, and
// relays tool_use requests back to the server until the model is done.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"nimbus/internal/llm"
	"nimbus/internal/store"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxToolRounds bounds the tool-call loop for a single query so a
// misbehaving model cannot spin forever.
const maxToolRounds = 10

// Options configures a chat client.
type Options struct {
	Model     string
	MaxTokens int
	Store     store.Store // optional: records sessions and turns
	Logger    *slog.Logger
}

// Client holds a live MCP session plus the model client driving it.
type Client struct {
	session   *sdkmcp.ClientSession
	llm       *llm.Client
	model     string
	maxTokens int
	tools     []llm.Tool
	store     store.Store
	record    *store.Session
	logger    *slog.Logger
}

// Spawn launches an MCP server subprocess and connects to it over stdio.
// The returned Client owns the subprocess; Close shuts it down.
func Spawn(ctx context.Context, command string, args []string, llmClient *llm.Client, opts Options) (*Client, error) {
	if command == "" {
		return nil, fmt.Errorf("chat: server command is required")
	}
	transport := &sdkmcp.CommandTransport{Command: exec.Command(command, args...)}
	c, err := Connect(ctx, transport, llmClient, opts)
	if err != nil {
		return nil, err
	}
	c.recordSession(strings.TrimSpace(command + " " + strings.Join(args, " ")))
	return c, nil
}

// Connect establishes an MCP session over an existing transport and lists
// the server's tools. Tests use this with in-memory transports.
func Connect(ctx context.Context, transport sdkmcp.Transport, llmClient *llm.Client, opts Options) (*Client, error) {
	if llmClient == nil {
		return nil, fmt.Errorf("chat: LLM client is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("chat: model is required")
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	mcpClient := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "nimbus", Version: "dev"}, nil)
	session, err := mcpClient.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("chat: connect to MCP server: %w", err)
	}

	c := &Client{
		session:   session,
		llm:       llmClient,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		store:     opts.Store,
		logger:    logger,
	}
	if err := c.loadTools(ctx); err != nil {
		_ = session.Close()
		return nil, err
	}
	return c, nil
}

// loadTools lists the server's tools and converts their schemas into the
// shape the Messages API expects.
func (c *Client) loadTools(ctx context.Context) error {
	res, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return fmt.Errorf("chat: list tools: %w", err)
	}
	c.tools = c.tools[:0]
	for _, tool := range res.Tools {
		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return fmt.Errorf("chat: encode schema for tool %q: %w", tool.Name, err)
		}
		c.tools = append(c.tools, llm.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
		})
	}
	c.logger.Info("connected to MCP server", "tools", len(c.tools))
	return nil
}

// ToolNames returns the names of the server's tools, in listing order.
func (c *Client) ToolNames() []string {
	names := make([]string, 0, len(c.tools))
	for _, t := range c.tools {
		names = append(names, t.Name)
	}
	return names
}

// ProcessQuery runs one user query through the model, executing any MCP tool
// calls it requests, and returns a readable transcript of the exchange.
func (c *Client) ProcessQuery(ctx context.Context, query string) (string, error) {
	c.recordTurn("user", query)

	messages := []llm.Message{llm.UserMessage(query)}
	var transcript []string

	for round := 0; ; round++ {
		if round >= maxToolRounds {
			return "", fmt.Errorf("chat: tool loop exceeded %d rounds", maxToolRounds)
		}

		resp, err := c.llm.Messages(ctx, &llm.MessagesRequest{
			Model:     c.model,
			MaxTokens: c.maxTokens,
			Messages:  messages,
			Tools:     c.tools,
		})
		if err != nil {
			return "", err
		}

		var results []llm.ContentBlock
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				transcript = append(transcript, block.Text)
			case "tool_use":
				marker := fmt.Sprintf("[Calling tool %s with args %s]", block.Name, block.Input)
				transcript = append(transcript, marker)
				c.recordTurn("tool", marker)

				text, isErr := c.callTool(ctx, block)
				results = append(results, llm.ToolResultBlock(block.ID, text, isErr))
			}
		}

		if len(results) == 0 {
			out := strings.Join(transcript, "\n")
			c.recordTurn("assistant", out)
			return out, nil
		}

		messages = append(messages,
			llm.Message{Role: "assistant", Content: resp.Content},
			llm.Message{Role: "user", Content: results},
		)
	}
}

// callTool forwards a tool_use block to the MCP server and flattens the
// result's text content. Tool failures come back as an error result so the
// model can recover, not as a Go error.
func (c *Client) callTool(ctx context.Context, block llm.ContentBlock) (string, bool) {
	var args map[string]any
	if len(block.Input) > 0 {
		if err := json.Unmarshal(block.Input, &args); err != nil {
			return fmt.Sprintf("invalid tool arguments: %v", err), true
		}
	}

	res, err := c.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      block.Name,
		Arguments: args,
	})
	if err != nil {
		c.logger.Warn("tool call failed", "tool", block.Name, "error", err)
		return fmt.Sprintf("tool call failed: %v", err), true
	}

	var parts []string
	for _, content := range res.Content {
		if tc, ok := content.(*sdkmcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n"), res.IsError
}

// Close tears down the MCP session (and the server subprocess, if spawned).
func (c *Client) Close() error {
	return c.session.Close()
}

func (c *Client) recordSession(server string) {
	if c.store == nil {
		return
	}
	rec, err := c.store.CreateSession(server)
	if err != nil {
		c.logger.Warn("record session failed", "error", err)
		return
	}
	c.record = rec
}

func (c *Client) recordTurn(role, content string) {
	if c.store == nil || c.record == nil {
		return
	}
	if err := c.store.AppendTurn(c.record.ID, role, content); err != nil {
		c.logger.Warn("record turn failed", "error", err)
	}
}
