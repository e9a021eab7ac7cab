package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/leave-planner/calculator"
	"github.com/warp/leave-planner/narration"
)

// GetCalculateCmd builds `leavegap calculate`.
func GetCalculateCmd() *cobra.Command {
	var (
		flags  scenarioFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Project the income gap of a leave",
		Long: `Project weekly income, benefit and gap month by month for one
jurisdiction. Unset leave weeks and paid percent use the policy defaults,
and every default or cap applied is listed in the explanation.

Example:
  leavegap calculate --jurisdiction US-CA --salary 70000 --leave-weeks 12
  leavegap calculate -j US-NJ -s 85000 --top-up 20 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, result, err := flags.calculate(cmd)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return renderResult(cmd.OutOrStdout(), result)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON instead of text")
	return cmd
}

func renderResult(w io.Writer, r calculator.Result) error {
	b := r.Breakdown
	fmt.Fprintf(w, "Jurisdiction: %s\n\n", r.Metadata.Jurisdiction)
	fmt.Fprintf(w, "%s\n\n", r.Explanation.Summary)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Month\tWeeks\tIncome\tBenefit\tGap\t")
	for _, m := range b.MonthlyCashflow {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n",
			m.MonthIndex,
			calculator.FormatNumber(m.Weeks),
			money(m.Income),
			money(m.Benefit),
			money(m.Gap),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total income gap: %s\n", money(b.TotalIncomeGap))
	fmt.Fprintf(w, "Savings needed:   %s\n", money(b.SavingsNeeded))
	fmt.Fprintf(w, "Coverage:         %d%%\n", calculator.CoveragePercent(b))

	section(w, "Assumptions", r.Explanation.Assumptions)
	section(w, "Caps applied", r.Explanation.CapsApplied)
	section(w, "Warnings", r.Explanation.Warnings)
	section(w, "Things to double-check", r.Explanation.ThingsToDoubleCheck)
	return nil
}

func section(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, l := range lines {
		fmt.Fprintf(w, "  - %s\n", l)
	}
}

// money renders v in dollars and cents with separators.
func money(v float64) string {
	return "$" + narration.Thousands(decimal.NewFromFloat(v).StringFixed(2))
}
