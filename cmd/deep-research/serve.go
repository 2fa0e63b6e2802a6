// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/research"
	"github.com/pdiddy/deep-research/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes POST /deepresearch, direct source endpoints under /pubmed,
/clinicaltrials, and /biorxiv, past answers under /history, and Prometheus
metrics at /metrics. It shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	store, err := openHistory(cfg.History)
	if err != nil {
		return err
	}
	conns := newConnectors(cfg.Sources)
	opts := server.Options{
		Invoker:    conns,
		Limits:     cfg.Sources,
		RecentDays: cfg.Sources.Biorxiv.RecentDays,
	}
	var rec research.Recorder
	if store != nil {
		defer store.Close()
		rec = store
		opts.History = store
	}
	opts.Research = newService(cfg, conns, nil, rec)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg.Server, opts).Start(ctx)
}
