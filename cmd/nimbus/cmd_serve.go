package main

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"nimbus/internal/logging"
	mcpserver "nimbus/internal/mcp"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var serveFlags struct {
	httpAddr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the weather MCP server",
	Long: `Starts the weather MCP server over stdin/stdout. The desktop host spawns
this command per its config file entry and speaks MCP over the pipe.

The server monitors for parent process death. When the host disconnects or
restarts, the server self-terminates to prevent zombie processes.

With --http, the server listens on the given address using the streamable
HTTP transport instead of stdio (no watchdog in that mode).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.httpAddr, "http", "", "Serve MCP over HTTP on this address (e.g. :8080) instead of stdio")
}

func runServe(cmd *cobra.Command, _ []string) error {
	s := openStore()
	if s != nil {
		defer s.Close()
	}
	weather, err := newWeatherClient(s, forecastCacheTTL)
	if err != nil {
		return err
	}

	srv := mcpserver.NewServer(weather, version)
	logger := logging.New("mcp")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if serveFlags.httpAddr != "" {
		httpSrv := &http.Server{
			Addr:              serveFlags.httpAddr,
			Handler:           srv.HTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutCancel()
			_ = httpSrv.Shutdown(shutCtx)
		}()
		logger.Info("starting weather MCP server over HTTP", "addr", serveFlags.httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}

	mcpserver.WatchParent(ctx, cancel)

	logger.Info("starting weather MCP server over stdio (parent watchdog active)")
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
