package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/ui"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print fuel and reachability for the plotted route",
	Long: `Resolves the fitted frame shift drive from the current loadout,
calibrates its range against the game's reported maximum and walks the
plotted route hop by hop, reporting fuel use, reachability on the current
tank, scoopable stars and where to refuel.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().Bool("json", false, "print the plan as JSON")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	eng, stop, err := oneShotEngine()
	if err != nil {
		return err
	}
	defer stop()

	plan, err := eng.Plan()
	if err != nil {
		return err
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}
	ui.New(cmd.OutOrStdout(), useColor(cmd)).Plan(plan)
	return nil
}
