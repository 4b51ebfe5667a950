package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/patent-cli/internal/model"
)

var firmsCmd = &cobra.Command{
	Use:   "firms",
	Short: "List all firms",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, _, err := loadRegistry(ctx, "")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		firms, err := st.Firms(ctx)
		if err != nil {
			return eris.Wrap(err, "firms")
		}
		if len(firms) == 0 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No firms available.")
			return nil
		}

		formatFirmList(cmd.OutOrStdout(), firms)
		return nil
	},
}

var firmCmd = &cobra.Command{
	Use:   "firm <firm-id>",
	Short: "Show a firm and its patents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, _, err := loadRegistry(ctx, "")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		f, err := st.GetFirm(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "firm %s", args[0])
		}

		limit := cfg.Display.DetailPatents
		if brief, _ := cmd.Flags().GetBool("brief"); brief {
			limit = cfg.Display.BriefPatents
		}
		formatFirmDetail(cmd.OutOrStdout(), f, limit, cfg.Display.TitleWidth)
		return nil
	},
}

func init() {
	firmCmd.Flags().Bool("brief", false, "show only the first few patents")

	rootCmd.AddCommand(firmsCmd)
	rootCmd.AddCommand(firmCmd)
}

// formatFirmList writes one line per firm to w.
func formatFirmList(out io.Writer, firms []model.FirmSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tPATENTS")
	_, _ = fmt.Fprintln(w, "--\t----\t-------")
	for _, f := range firms {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", f.FirmID, f.Name, f.PatentCount)
	}
	_ = w.Flush()
}

// formatFirmDetail writes the firm header and at most limit patents.
func formatFirmDetail(out io.Writer, f *model.Firm, limit, titleWidth int) {
	_, _ = fmt.Fprintf(out, "Firm ID: %s, Firm Name: %s\n", f.FirmID, f.Name)
	_, _ = fmt.Fprintf(out, "Number of Patents: %d\n", f.PatentCount())
	if f.PatentCount() == 0 {
		return
	}
	formatPatents(out, f.Patents, limit, titleWidth)
}

// formatPatents writes a patent table, truncated to limit rows when limit is
// positive.
func formatPatents(out io.Writer, patents []model.Patent, limit, titleWidth int) {
	shown := patents
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PATENT\tTITLE\tCOUNTRY\tAPPLIED\tGRANTED")
	_, _ = fmt.Fprintln(w, "------\t-----\t-------\t-------\t-------")
	for _, p := range shown {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.PatentID, p.ShortTitle(titleWidth), p.Country, p.ApplicationDate, p.GrantDate)
	}
	_ = w.Flush()

	if rest := len(patents) - len(shown); rest > 0 {
		_, _ = fmt.Fprintf(out, "... and %d more\n", rest)
	}
}
