package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reflectic/curation-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for intake, feedback, and review",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		orch, err := newOrchestrator(st)
		if err != nil {
			return err
		}

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		return server.New(cfg, st, orch).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
