package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Run reads queries from in and writes responses to out until "quit" or EOF.
// Per-query errors are printed and the loop continues; only ctx cancellation,
// EOF, or "quit" end it.
func (c *Client) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "\nMCP Client Started!\n")
	fmt.Fprintf(out, "Connected to server with tools: %s\n", strings.Join(c.ToolNames(), ", "))
	fmt.Fprintf(out, "Type your queries or 'quit' to exit.\n")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "\nQuery: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "quit") {
			return nil
		}

		response, err := c.ProcessQuery(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "\nError: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "\n%s\n", response)
	}
}
