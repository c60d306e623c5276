package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/partyshah/ai-math-tutor/internal/store"
)

func newSessionsCommand(cmdCtx *commandContext) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List tutoring sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := store.Open(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			sessions, err := db.ListSessions(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions found")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, session := range sessions {
				rows = append(rows, []string{
					strconv.FormatInt(session.ID, 10),
					session.StudentName,
					session.Status,
					formatSlideCount(session.SlideCount),
					session.CreatedAt.Local().Format(time.DateTime),
					yesNo(session.HasFeedback),
				})
			}

			if isTerminal(os.Stdout) {
				fmt.Fprintln(out, renderTable([]tableColumn{
					{name: "ID", rightAlign: true},
					{name: "Student"},
					{name: "Status"},
					{name: "Slides", rightAlign: true},
					{name: "Created"},
					{name: "Feedback"},
				}, rows))
				return nil
			}
			for _, row := range rows {
				fmt.Fprintln(out, strings.Join(row, "\t"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by student name")
	return cmd
}

func formatSlideCount(count *int) string {
	if count == nil {
		return "-"
	}
	return strconv.Itoa(*count)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
