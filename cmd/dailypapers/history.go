package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/daily-papers/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:         "history",
		Short:       "Show recent runs and episodes",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cmd.Context(), cfg.Paths.Data)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			episodes, err := store.RecentEpisodes(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Paper date", "Status", "Fetched", "Selected", "Failed", "Episode"},
				runRows(runs),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			if len(episodes) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"Paper date", "Title", "Segments", "Duration", "Audio", "YouTube"},
					episodeRows(episodes),
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs and episodes to show")
	return cmd
}

func runRows(runs []history.RunRecord) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		status := r.Status
		if r.Error != "" {
			status += ": " + r.Error
		}
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.PaperDate.Format("2006-01-02"),
			status,
			strconv.Itoa(r.Fetched),
			strconv.Itoa(r.Selected),
			strconv.Itoa(r.Failed),
			r.Episode,
		})
	}
	return rows
}

func episodeRows(episodes []history.EpisodeRecord) [][]string {
	rows := make([][]string, 0, len(episodes))
	for _, e := range episodes {
		rows = append(rows, []string{
			e.PaperDate.Format("2006-01-02"),
			e.Title,
			strconv.Itoa(e.SegmentCount),
			e.Duration.Round(time.Second).String(),
			e.AudioPath,
			e.UploadID,
		})
	}
	return rows
}
