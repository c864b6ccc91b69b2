package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/sourcing"
)

var (
	sourcesUrgent bool
	sourcesRate   float64
)

var sourcesCmd = &cobra.Command{
	Use:   "sources CARGO TONS DESTINATION",
	Short: "Rank supply points for a prospective order",
	Long: `Sources ranks the loading points carrying the cargo by total landed cost
(loading, freight, demurrage and holding) against live availability, and
prints the selected source with the full candidate list.`,
	Args: cobra.ExactArgs(3),
	RunE: runSources,
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesUrgent, "urgent", false, "treat the order as urgent")
	sourcesCmd.Flags().Float64Var(&sourcesRate, "rate", 0, "freight rate override, INR per ton-km")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()

	tons, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("parse tons: %w", err)
	}

	svc, _, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	req := sourcing.Request{
		Cargo:               args[0],
		QuantityTons:        tons,
		Destination:         args[2],
		FreightRateOverride: sourcesRate,
	}
	if sourcesUrgent {
		req.Priority = model.PriorityUrgent
	}
	sel, err := svc.Sources(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(sel)
}
