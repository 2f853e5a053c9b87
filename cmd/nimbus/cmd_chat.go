package main

import (
	"github.com/spf13/cobra"

	"nimbus/internal/chat"
	"nimbus/internal/llm"
	"nimbus/internal/logging"
	"nimbus/internal/store"
)

var chatFlags struct {
	model     string
	maxTokens int
	noHistory bool
}

var chatCmd = &cobra.Command{
	Use:   "chat <server-command> [args...]",
	Short: "Chat with an MCP server through an LLM",
	Long: `Spawns an MCP server subprocess, connects over stdio, and starts an
interactive loop: your queries go to the model together with the server's
tool schemas, and any tool calls the model makes are forwarded to the server.

Requires ANTHROPIC_API_KEY in the environment.

Examples:
  nimbus chat nimbus serve
  nimbus chat node /path/to/server.js
  nimbus chat uv --directory /path/to/weather run weather.py`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	f := chatCmd.Flags()
	f.StringVar(&chatFlags.model, "model", "", "Model to chat with (default from config)")
	f.IntVar(&chatFlags.maxTokens, "max-tokens", 0, "Max tokens per model response (default from config)")
	f.BoolVar(&chatFlags.noHistory, "no-history", false, "Do not record this session in the history store")
}

func runChat(cmd *cobra.Command, args []string) error {
	llmClient, err := llm.New(cfg.APIKey,
		llm.WithTimeout(cfg.Timeout()),
		llm.WithLogger(logging.New("llm")),
	)
	if err != nil {
		return err
	}

	model := chatFlags.model
	if model == "" {
		model = cfg.Model
	}
	maxTokens := chatFlags.maxTokens
	if maxTokens == 0 {
		maxTokens = cfg.MaxTokens
	}

	var hist store.Store
	if !chatFlags.noHistory {
		if s := openStore(); s != nil {
			defer s.Close()
			hist = s
		}
	}

	client, err := chat.Spawn(cmd.Context(), args[0], args[1:], llmClient, chat.Options{
		Model:     model,
		MaxTokens: maxTokens,
		Store:     hist,
		Logger:    logging.New("chat"),
	})
	if err != nil {
		return err
	}
	defer client.Close()

	return client.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
}
