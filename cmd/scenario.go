package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/scenario"
)

var (
	scenarioDemand  []string
	scenarioSidings []string
	scenarioWagons  []string
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Evaluate a what-if perturbation against the day's plan",
	Long: `Scenario reruns the optimizer under perturbed inputs and reports the cost,
SLA, utilization and emissions deltas against the unperturbed baseline,
together with mitigation recommendations. Perturbations are key=fraction
pairs; an empty scenario reports zero impact.`,
	RunE: runScenario,
}

func init() {
	scenarioCmd.Flags().StringArrayVar(&scenarioDemand, "demand", nil, "demand change per cargo, e.g. Plates=0.2")
	scenarioCmd.Flags().StringArrayVar(&scenarioSidings, "siding", nil, "capacity reduction per loading point, e.g. LP-BHI-3-P005=0.5")
	scenarioCmd.Flags().StringArrayVar(&scenarioWagons, "wagons", nil, "wagon availability reduction per region, e.g. Bhilai=0.3")
	scenarioCmd.Flags().Float64Var(&planWeights.Cost, "cost", 0, "cost objective weight")
	scenarioCmd.Flags().Float64Var(&planWeights.SLA, "sla", 0, "SLA objective weight")
	scenarioCmd.Flags().Float64Var(&planWeights.Utilization, "utilization", 0, "utilization objective weight")
	scenarioCmd.Flags().Float64Var(&planWeights.Emissions, "emissions", 0, "emissions objective weight")
	rootCmd.AddCommand(scenarioCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()

	cfg := model.ScenarioConfig{}
	var err error
	if cfg.DemandChange, err = parsePairs(scenarioDemand); err != nil {
		return fmt.Errorf("--demand: %w", err)
	}
	if cfg.SidingCapacityReduction, err = parsePairs(scenarioSidings); err != nil {
		return fmt.Errorf("--siding: %w", err)
	}
	if cfg.WagonAvailabilityReduction, err = parsePairs(scenarioWagons); err != nil {
		return fmt.Errorf("--wagons: %w", err)
	}

	svc, date, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.WhatIf(ctx, scenario.Request{
		Date:    date,
		Weights: planWeights,
		Config:  cfg,
	})
	if err != nil {
		return err
	}
	return printJSON(res)
}

func parsePairs(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("want key=fraction, got %q", pair)
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", pair, err)
		}
		out[strings.TrimSpace(key)] = f
	}
	return out, nil
}
