package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/optimizer"
)

var (
	planApply   bool
	planMinUtil float64
	planWeights model.OptimizationWeights
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Optimize the day's backlog into a dispatch plan",
	Long: `Plan runs the multi-objective optimizer over the day's approved orders and
prints the optimal plan, the ranked alternatives and the decision trail.
With --apply the optimal plan is committed: inventory is reserved, rakes are
persisted and member orders move to Allocated.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planApply, "apply", false, "commit the optimal plan")
	planCmd.Flags().Float64Var(&planMinUtil, "min-utilization", 0, "defer clubs filled below this percentage")
	planCmd.Flags().Float64Var(&planWeights.Cost, "cost", 0, "cost objective weight")
	planCmd.Flags().Float64Var(&planWeights.SLA, "sla", 0, "SLA objective weight")
	planCmd.Flags().Float64Var(&planWeights.Utilization, "utilization", 0, "utilization objective weight")
	planCmd.Flags().Float64Var(&planWeights.Emissions, "emissions", 0, "emissions objective weight")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()

	svc, date, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.Plan(ctx, optimizer.Request{
		Date:              date,
		Weights:           planWeights,
		MinUtilizationPct: planMinUtil,
		Apply:             planApply,
	})
	if err != nil {
		return err
	}
	return printJSON(res)
}
