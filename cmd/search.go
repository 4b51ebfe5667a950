package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/patent-cli/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Find patents whose title contains a keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, _, err := loadRegistry(ctx, "")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		hits, err := st.SearchPatents(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "search")
		}
		if len(hits) == 0 {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "No patents found for the keyword: %s\n", args[0])
			return nil
		}

		formatSearchHits(cmd.OutOrStdout(), hits, cfg.Display.TitleWidth)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

// formatSearchHits groups hits by firm. hits must already be ordered by firm.
func formatSearchHits(out io.Writer, hits []model.Patent, titleWidth int) {
	for start := 0; start < len(hits); {
		end := start + 1
		for end < len(hits) && hits[end].FirmID == hits[start].FirmID {
			end++
		}
		_, _ = fmt.Fprintf(out, "Firm ID: %s\nNumber of Patents: %d\n", hits[start].FirmID, end-start)
		formatPatents(out, hits[start:end], 0, titleWidth)
		_, _ = fmt.Fprintln(out)
		start = end
	}
}
