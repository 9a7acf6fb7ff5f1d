package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/daily-papers/internal/model"
	"github.com/nguyentantai21042004/daily-papers/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		dateFlag string
		idsFlag  []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Produce the episode for one day",
		Long: `Fetch the day's papers, pick the most interesting ones, and turn them into an episode.
With --id the listed papers are used as-is and selection is skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := runRequest(dateFlag, idsFlag)
			if err != nil {
				return err
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := ctx.newApp(sigCtx)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.pipeline.Run(sigCtx, req)
			printResult(cmd.OutOrStdout(), result)
			return err
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Paper date (YYYY-MM-DD), defaults to pipeline.paper_date or three days ago")
	cmd.Flags().StringSliceVar(&idsFlag, "id", nil, "arXiv id to include (repeatable)")
	return cmd
}

func runRequest(date string, ids []string) (pipeline.RunRequest, error) {
	var req pipeline.RunRequest
	if date = strings.TrimSpace(date); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return req, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
		}
		req.Date = day
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[model.BaseID(id)] {
			continue
		}
		seen[model.BaseID(id)] = true
		req.IDs = append(req.IDs, id)
	}
	return req, nil
}

func printResult(w io.Writer, result pipeline.RunResult) {
	if result.RunID == "" {
		return
	}

	if len(result.Failures) > 0 {
		rows := make([][]string, 0, len(result.Failures))
		for _, f := range result.Failures {
			rows = append(rows, []string{f.Paper.ID, f.Stage, f.Err.Error()})
		}
		fmt.Fprintln(w, renderTable([]string{"Paper", "Stage", "Error"}, rows, nil))
	}

	if result.Episode == nil {
		fmt.Fprintf(w, "No episode produced for %s (fetched %d, selected %d)\n",
			result.Date.Format("2006-01-02"), result.Fetched, result.Selected)
		return
	}

	ep := result.Episode
	rows := [][]string{
		{"Episode", ep.Title},
		{"Papers", fmt.Sprintf("%d of %d selected", len(ep.Papers), result.Selected)},
		{"Duration", ep.Duration.Round(time.Second).String()},
		{"Audio", ep.AudioPath},
	}
	if ep.VideoPath != "" {
		rows = append(rows, []string{"Video", ep.VideoPath})
	}
	if ep.TranscriptPath != "" {
		rows = append(rows, []string{"Transcript", ep.TranscriptPath})
	}
	if result.UploadID != "" {
		rows = append(rows, []string{"YouTube", "https://www.youtube.com/watch?v=" + result.UploadID})
	}
	fmt.Fprintln(w, renderTable([]string{"", result.RunID}, rows, nil))
}

// ignoreCanceled treats an interrupted long-running command as a clean exit.
func ignoreCanceled(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
