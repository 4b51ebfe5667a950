package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/patent-cli/internal/workflow"
)

var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Run pending patent applications through one grant pass",
	Long: "Queues every application from the applicant table, grants or rejects them in application-date order, " +
		"and asks a reviewer about applications that were already rejected once.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "grant"))

		applicants, _ := cmd.Flags().GetString("applicants")
		if applicants == "" {
			applicants = cfg.Data.ApplicantsCSV
		}
		rulesPath, _ := cmd.Flags().GetString("rules")
		if rulesPath == "" {
			rulesPath = cfg.Review.RulesPath
		}

		st, ds, err := loadRegistry(ctx, applicants)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var reviewer workflow.Reviewer
		if rulesPath != "" {
			rules, err := workflow.LoadRules(rulesPath)
			if err != nil {
				return err
			}
			reviewer = rules
		} else {
			reviewer = workflow.NewPromptReviewer(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Display.TitleWidth)
		}

		engine := workflow.NewEngine(st, reviewer, workflow.Options{
			CycleThreshold:  cfg.Workflow.CycleThreshold,
			PlaceholderName: cfg.Workflow.PlaceholderFirmName,
			GrantDateFormat: cfg.Workflow.GrantDateFormat,
		})

		for _, p := range ds.Applicants {
			err := engine.Submit(ctx, p)
			if errors.Is(err, workflow.ErrDuplicateApplication) || errors.Is(err, workflow.ErrAlreadyGranted) {
				log.Warn("skipping application", zap.String("patent_id", p.PatentID), zap.Error(err))
				continue
			}
			if err != nil {
				return err
			}
		}

		res, err := engine.Process(ctx)
		if res != nil {
			formatPassResult(cmd.OutOrStdout(), res, engine.PendingByFirm())
		}
		return err
	},
}

func init() {
	grantCmd.Flags().String("applicants", "", "applicant CSV (defaults to data.applicants_csv)")
	grantCmd.Flags().String("rules", "", "review rules YAML; prompts on the terminal when empty")

	rootCmd.AddCommand(grantCmd)
}

// formatPassResult writes the pass summary and the applications each firm
// still has queued.
func formatPassResult(out io.Writer, res *workflow.PassResult, pending map[string][]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Pass:\t%s\n", res.PassID)
	_, _ = fmt.Fprintf(w, "Processed:\t%d\n", res.Processed)
	_, _ = fmt.Fprintf(w, "Granted:\t%d\n", res.Granted)
	_, _ = fmt.Fprintf(w, "Rejected:\t%d\n", res.Rejected)
	_, _ = fmt.Fprintf(w, "Reviewed:\t%d\n", res.Reviewed)
	if res.Deferred {
		_, _ = fmt.Fprintf(w, "Deferred:\tyes\n")
	}
	for _, id := range res.Placeholders {
		_, _ = fmt.Fprintf(w, "Placeholder firm:\t%s\n", id)
	}
	_ = w.Flush()

	if len(pending) == 0 {
		return
	}
	firmIDs := make([]string, 0, len(pending))
	for id := range pending {
		firmIDs = append(firmIDs, id)
	}
	slices.Sort(firmIDs)

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIRM\tPENDING\tPATENTS")
	_, _ = fmt.Fprintln(w, "----\t-------\t-------")
	for _, id := range firmIDs {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%v\n", id, len(pending[id]), pending[id])
	}
	_ = w.Flush()
}
