package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/patent-cli/internal/analytics"
	"github.com/sells-group/patent-cli/internal/store"
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Print the firm-patent incidence matrix and shared patent counts",
	Long: "Builds the firm×patent incidence matrix M, its transpose, and R = M×Mᵗ. " +
		"Transfers and exclusions are applied to the store before the matrix is built.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, _ := cmd.Flags().GetString("format")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		transfers, _ := cmd.Flags().GetStringArray("transfer")
		excludes, _ := cmd.Flags().GetStringArray("exclude-firm")

		st, _, err := loadRegistry(ctx, "")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := applyEdits(ctx, st, transfers, excludes); err != nil {
			return err
		}

		rep, err := analytics.New(st).Rebuild(ctx)
		if err != nil {
			return err
		}
		if err := rep.Render(cmd.OutOrStdout(), format); err != nil {
			return err
		}
		if xlsxPath != "" {
			if err := rep.WriteXLSX(xlsxPath); err != nil {
				return err
			}
			zap.L().Info("matrix written", zap.String("path", xlsxPath))
		}
		return nil
	},
}

var sharedCmd = &cobra.Command{
	Use:   "shared <firm-a> <firm-b>",
	Short: "Count the patents two firms both hold",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, _, err := loadRegistry(ctx, "")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		facade := analytics.New(st)
		if _, err := facade.Rebuild(ctx); err != nil {
			return err
		}
		n, err := facade.SharedPatentCount(args[0], args[1])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Common Patent Count: %d\n", n)
		return nil
	},
}

func init() {
	matrixCmd.Flags().String("format", analytics.FormatTable,
		"output format: "+strings.Join(analytics.Formats, ", "))
	matrixCmd.Flags().String("xlsx", "", "also write the matrices to this .xlsx file")
	matrixCmd.Flags().StringArray("transfer", nil, "move a patent before building, as FROM:TO:PATENT (repeatable)")
	matrixCmd.Flags().StringArray("exclude-firm", nil, "remove a firm before building (repeatable)")

	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(sharedCmd)
}

type transfer struct {
	from, to, patentID string
}

func parseTransfer(s string) (transfer, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return transfer{}, eris.Errorf("invalid transfer %q: want FROM:TO:PATENT", s)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return transfer{}, eris.Errorf("invalid transfer %q: empty field", s)
		}
	}
	return transfer{from: parts[0], to: parts[1], patentID: parts[2]}, nil
}

func applyEdits(ctx context.Context, st store.Store, transfers, excludes []string) error {
	for _, s := range transfers {
		t, err := parseTransfer(s)
		if err != nil {
			return err
		}
		if err := st.TransferPatent(ctx, t.from, t.to, t.patentID); err != nil {
			return eris.Wrapf(err, "transfer %s", s)
		}
	}
	for _, id := range excludes {
		if err := st.RemoveFirm(ctx, id); err != nil {
			return eris.Wrapf(err, "exclude firm %s", id)
		}
	}
	return nil
}
