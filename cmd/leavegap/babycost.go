package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/leave-planner/babycost"
	"github.com/warp/leave-planner/store/sqlite"
)

// GetBabyCostsCmd builds `leavegap baby-costs`.
func GetBabyCostsCmd() *cobra.Command {
	var (
		jurisdiction string
		leaveWeeks   int
		dbPath       string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "baby-costs",
		Short: "Estimate newborn supply costs over a leave",
		Long: `Price a basket of newborn supplies over the leave. With --db, fresh
prices stored by the server's price refresher are used; otherwise every
line uses its static monthly estimate.

Example:
  leavegap baby-costs --leave-weeks 12
  leavegap baby-costs --leave-weeks 16 --db ./leave.db --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			estimator := babycost.NewEstimator(nil)
			if dbPath != "" {
				store, err := sqlite.New(dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				estimator.Prices = store
			}

			est, err := estimator.Estimate(cmd.Context(), jurisdiction, float64(leaveWeeks))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), est)
			}

			w := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ITEM\tMONTHLY\tSOURCE")
			for _, l := range est.Lines {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Label, money(l.MonthlyEstimate), l.Source)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(w, "\nMonthly total: %s\n", money(est.TotalMonthly))
			fmt.Fprintf(w, "Over %v months of leave: %s\n", est.LeaveMonths, money(est.TotalForLeave))
			return nil
		},
	}

	cmd.Flags().StringVarP(&jurisdiction, "jurisdiction", "j", "US-GENERIC", "Jurisdiction id (display only)")
	cmd.Flags().IntVarP(&leaveWeeks, "leave-weeks", "w", 0, "Leave length in weeks")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database with stored prices")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON instead of a table")
	_ = cmd.MarkFlagRequired("leave-weeks")
	return cmd
}
