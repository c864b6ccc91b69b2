package cmd

import (
	"github.com/spf13/cobra"
)

var (
	consolidateApply   bool
	consolidateMinUtil float64
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Club the day's orders into rake-sized groups",
	Long: `Consolidate buckets the day's approved orders by destination region and
cargo, fills rake-sized clubs and reports the remainder as backlog. With
--apply, clubs at or above the utilization floor are materialized into rakes.`,
	RunE: runConsolidate,
}

func init() {
	consolidateCmd.Flags().BoolVar(&consolidateApply, "apply", false, "materialize qualifying clubs into rakes")
	consolidateCmd.Flags().Float64Var(&consolidateMinUtil, "min-utilization", 80, "utilization floor in percent for --apply")
	rootCmd.AddCommand(consolidateCmd)
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()

	svc, date, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	analysis, applied, err := svc.Consolidate(ctx, date, consolidateMinUtil, consolidateApply)
	if err != nil {
		return err
	}
	out := map[string]any{"analysis": analysis}
	if applied != nil {
		out["applied"] = applied
	}
	return printJSON(out)
}
