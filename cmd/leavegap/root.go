package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"github.com/warp/leave-planner/calculator"
	"github.com/warp/leave-planner/policy"
)

// GetRootCmd builds the command tree.
func GetRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "leavegap",
		Short: "Estimate the income gap of a parental leave",
		Long: `leavegap: parental leave income gap estimator.
Projects lost income month by month under a jurisdiction's leave policy,
and checks rewritten explanations for numbers the calculation never produced.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("policies", "", "YAML policy table (default: built-in table)")

	root.AddCommand(GetCalculateCmd())
	root.AddCommand(GetPoliciesCmd())
	root.AddCommand(GetCheckNarrationCmd())
	root.AddCommand(GetBabyCostsCmd())
	return root
}

// loadPolicies reads --policies, falling back to the built-in table.
func loadPolicies(cmd *cobra.Command) (*policy.Registry, error) {
	path, _ := cmd.Flags().GetString("policies")
	if path == "" {
		return policy.Default(), nil
	}
	return policy.LoadFile(path)
}

// scenarioFlags are the calculation inputs shared by several commands.
type scenarioFlags struct {
	jurisdiction string
	salary       float64
	leaveWeeks   float64
	paidPercent  float64
	topUp        float64
}

func (f *scenarioFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.jurisdiction, "jurisdiction", "j", policy.GenericID, "Jurisdiction id, e.g. US-CA")
	cmd.Flags().Float64VarP(&f.salary, "salary", "s", 0, "Annual salary")
	cmd.Flags().Float64VarP(&f.leaveWeeks, "leave-weeks", "w", 0, "Total leave in weeks (default: policy paid weeks)")
	cmd.Flags().Float64Var(&f.paidPercent, "paid-percent", 0, "Benefit as a percent of salary (default: policy rate)")
	cmd.Flags().Float64Var(&f.topUp, "top-up", 0, "Employer top-up percent")
	_ = cmd.MarkFlagRequired("salary")
}

// inputs maps flags to UserInputs. Unset optional flags stay nil so the
// policy defaults apply.
func (f *scenarioFlags) inputs(cmd *cobra.Command) calculator.UserInputs {
	in := calculator.UserInputs{Salary: f.salary}
	if cmd.Flags().Changed("leave-weeks") {
		in.LeaveWeeks = policy.Float(f.leaveWeeks)
	}
	if cmd.Flags().Changed("paid-percent") {
		in.PaidPercent = policy.Float(f.paidPercent)
	}
	if cmd.Flags().Changed("top-up") {
		in.EmployerTopUp = policy.Float(f.topUp)
	}
	return in
}

// calculate checks the flags and runs the engine.
func (f *scenarioFlags) calculate(cmd *cobra.Command) (calculator.UserInputs, calculator.Result, error) {
	policies, err := loadPolicies(cmd)
	if err != nil {
		return calculator.UserInputs{}, calculator.Result{}, err
	}
	in := f.inputs(cmd)
	if err := calculator.CheckInputs(in); err != nil {
		return calculator.UserInputs{}, calculator.Result{}, err
	}
	return in, calculator.NewEngine(policies).Calculate(in, f.jurisdiction), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
