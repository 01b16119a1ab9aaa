package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sortplay/internal/lessons"
)

type lessonInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Mode        string `json:"mode"`
	Rounds      int    `json:"rounds"`
	Source      string `json:"source"`
}

func newLessonsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "lessons",
		Short: "List available lesson packs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := a.catalog.List()
			infos := make([]lessonInfo, 0, len(list))
			for _, l := range list {
				mode := l.Mode
				if mode == "" {
					mode = "sequential"
				}
				infos = append(infos, lessonInfo{
					ID:          l.ID,
					Title:       l.Title,
					Description: l.Description,
					Mode:        mode,
					Rounds:      len(l.Rounds),
					Source:      l.Source,
				})
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tTITLE\tMODE\tROUNDS\tSOURCE")
			for _, l := range infos {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", l.ID, l.Title, l.Mode, l.Rounds, l.Source)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check lesson pack files for errors",
		Args:  cobra.MinimumNArgs(1),
		// Validation needs no config or catalog.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, name := range args {
				l, err := lessons.ReadFile(name)
				if err == nil {
					err = l.Validate()
				}
				if err != nil {
					failed++
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %s: %v\n", name, err)
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok    %s (%s, %d rounds)\n", name, l.ID, len(l.Rounds))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d lesson packs invalid", failed, len(args))
			}
			return nil
		},
	}
}
