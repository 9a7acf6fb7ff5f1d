package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/daily-papers/internal/pipeline"
	"github.com/nguyentantai21042004/daily-papers/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Produce an episode for every request file dropped in the requests directory",
		Long: `Watch paths.requests for *.txt files listing arXiv ids (one per line or
whitespace separated, '#' comments). Each request becomes one episode dated the
day it was received. Handled files move to done/ or failed/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := ctx.newApp(sigCtx)
			if err != nil {
				return err
			}
			defer a.Close()

			// Runs share the data directory lock, so requests are handled one at a time.
			w, err := watcher.New(a.cfg.Paths.Requests, func(ctx context.Context, req watcher.Request) error {
				result, err := a.pipeline.Run(ctx, pipeline.RunRequest{Date: time.Now().UTC(), IDs: req.IDs})
				printResult(cmd.OutOrStdout(), result)
				return err
			}, a.log, 1)
			if err != nil {
				return err
			}
			defer w.Stop()

			a.log.Info(sigCtx, "========================================")
			a.log.Info(sigCtx, "Daily Papers is watching %s", a.cfg.Paths.Requests)
			a.log.Info(sigCtx, "Output: %s", a.cfg.Paths.Data)
			a.log.Info(sigCtx, "History: %s", a.store.Path())
			a.log.Info(sigCtx, "Press Ctrl+C to stop")
			a.log.Info(sigCtx, "========================================")

			return ignoreCanceled(sigCtx, w.Start(sigCtx))
		},
	}
}
