package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/leave-planner/calculator"
)

// GetPoliciesCmd builds `leavegap policies`.
func GetPoliciesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "policies",
		Short: "List jurisdiction policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policies, err := loadPolicies(cmd)
			if err != nil {
				return err
			}
			configs := policies.List()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), configs)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPAID WEEKS\tRATE\tWEEKLY CAP\tWAITING WEEKS")
			for _, c := range configs {
				weeklyCap := "none"
				if c.Caps.MaxWeeklyBenefit != nil {
					weeklyCap = calculator.FormatNumber(*c.Caps.MaxWeeklyBenefit)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s%%\t%s\t%s\n",
					c.JurisdictionID,
					c.DisplayName,
					calculator.FormatNumber(c.Defaults.PaidWeeks),
					calculator.FormatNumber(c.Defaults.PaidPercent),
					weeklyCap,
					calculator.FormatNumber(c.WaitingWeeks()),
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON instead of a table")
	return cmd
}
