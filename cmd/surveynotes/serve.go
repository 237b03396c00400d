package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/surveynotes/internal/mcptools"
	"github.com/dusk-indust/surveynotes/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON-RPC API and the progress event stream over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hub := server.NewHub()
			defer hub.Close()

			rt, err := a.open(hub.Publish)
			if err != nil {
				return err
			}
			defer rt.Close()

			srv := server.New(rt.svc, hub, a.logger)
			if err := srv.Start(cmd.Context(), addr); err != nil {
				return err
			}

			<-cmd.Context().Done()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	return cmd
}

func newServeMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Run as an MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.open(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			return mcptools.RunStdio(cmd.Context(), mcptools.NewMCPServer(rt.svc))
		},
	}
}
