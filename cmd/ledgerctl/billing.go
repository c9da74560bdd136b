package main

import (
	"fmt"

	"github.com/google/uuid"
	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/spf13/cobra"
)

var seedChargeTypesCmd = &cobra.Command{
	Use:   "seed-charge-types",
	Short: "Create the default charge types that do not exist yet",
	RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
		n, err := rt.services.ChargeTypes.SeedDefaults(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d charge type(s)\n", n)
		return nil
	}),
}

var ensurePeriodsCmd = &cobra.Command{
	Use:   "ensure-periods",
	Short: "Open monthly billing periods from the current month onwards",
	Example: `  # Current month plus the next two
  ledgerctl ensure-periods --months 3`,
	RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
		months, _ := cmd.Flags().GetInt("months")
		res, err := rt.services.BillingPeriods.EnsureUpcoming(cmd.Context(), identity.SystemActor(), months)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range res.Created {
			fmt.Fprintf(out, "created  %s  %s\n", p.Name, p.ID)
		}
		for _, p := range res.Existing {
			fmt.Fprintf(out, "exists   %s  %s\n", p.Name, p.ID)
		}
		return nil
	}),
}

var generateInvoicesCmd = &cobra.Command{
	Use:   "generate-invoices",
	Short: "Generate invoices for every active tenant in a billing period",
	Long: `Generates one invoice per active tenant. Tenants that already have an
invoice for the period are counted as existing and left untouched.
Without --period the current billing period is used.`,
	RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
		ctx := cmd.Context()
		raw, _ := cmd.Flags().GetString("period")
		autoSend, _ := cmd.Flags().GetBool("send")

		var periodID uuid.UUID
		if raw == "" {
			current, err := rt.services.BillingPeriods.Current(ctx)
			if err != nil {
				return err
			}
			periodID = current.ID
		} else {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid --period: %w", err)
			}
			periodID = id
		}

		res, err := rt.services.Invoices.GenerateForPeriod(ctx, identity.SystemActor(), periodID,
			financeapp.GenerateForPeriodRequest{AutoSend: autoSend})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "created %d, existing %d, failed %d\n", res.Created, res.Existing, len(res.Errors))
		for _, e := range res.Errors {
			fmt.Fprintf(out, "  tenant %s: %s\n", e.TenantID, e.Code)
		}
		return nil
	}),
}

var markOverdueCmd = &cobra.Command{
	Use:   "mark-overdue",
	Short: "Flag unpaid invoices past their due date as overdue",
	RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
		n, err := rt.services.Invoices.MarkOverdue(cmd.Context(), identity.SystemActor())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "marked %d invoice(s) overdue\n", n)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(seedChargeTypesCmd, ensurePeriodsCmd, generateInvoicesCmd, markOverdueCmd)

	ensurePeriodsCmd.Flags().Int("months", 3, "Number of monthly periods, starting with the current one")
	generateInvoicesCmd.Flags().String("period", "", "Billing period ID (default: current period)")
	generateInvoicesCmd.Flags().Bool("send", false, "Mark generated invoices as sent")
}
