package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/leave-planner/narration"
)

// errUnsafeNarrative makes the command exit non-zero on a violation.
var errUnsafeNarrative = errors.New("narrative failed the safety check")

// narrationCheck is the command output. AllowedNumbers is only filled with
// --show-allowed.
type narrationCheck struct {
	narration.ValidationResult
	AllowedNumbers []string `json:"allowedNumbers,omitempty"`
}

// GetCheckNarrationCmd builds `leavegap check-narration`.
func GetCheckNarrationCmd() *cobra.Command {
	var (
		flags         scenarioFlags
		narrativePath string
		showAllowed   bool
	)

	cmd := &cobra.Command{
		Use:   "check-narration",
		Short: "Validate a narrative against a calculation",
		Long: `Recompute the calculation from the flags and check a narrative JSON
file ({"friendlySummary", "whatDroveTheGap", "thingsToDoubleCheck"}) for
numbers that the calculation did not produce.

Exits non-zero when the narrative is unsafe. Warnings never fail the check.
With --show-allowed the output also lists every number form the narrative
may use.

Example:
  leavegap check-narration -j US-CA -s 70000 -w 12 --narrative story.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(narrativePath)
			if err != nil {
				return fmt.Errorf("failed to read narrative: %w", err)
			}
			var n narration.Narrative
			if err := json.Unmarshal(raw, &n); err != nil {
				return fmt.Errorf("invalid narrative JSON: %w", err)
			}

			inputs, result, err := flags.calculate(cmd)
			if err != nil {
				return err
			}
			in := narration.PrepareInput(result, inputs)
			check := narrationCheck{ValidationResult: narration.Validate(n, in)}
			if showAllowed {
				check.AllowedNumbers = in.AllowedNumbers.Sorted()
			}

			if err := writeJSON(cmd.OutOrStdout(), check); err != nil {
				return err
			}
			if !check.Safe {
				return errUnsafeNarrative
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&narrativePath, "narrative", "n", "", "Path to the narrative JSON file")
	cmd.Flags().BoolVar(&showAllowed, "show-allowed", false, "Include the allowed numbers in the output")
	_ = cmd.MarkFlagRequired("narrative")
	return cmd
}
