package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paydesk/console/pkg/billingapi"
)

func paymentsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Inspect mobile-money payments",
	}
	cmd.AddCommand(paymentsListCmd(g))
	return cmd
}

func paymentsListCmd(g *globals) *cobra.Command {
	var filter billingapi.MoMoPaymentFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List mobile-money payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := g.client()
			if err != nil {
				return err
			}
			page, err := client.ListMoMoPayments(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), page)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCUSTOMER\tAMOUNT\tSTATUS\tSTATE\tPROVIDER\tCREATED")
			for _, p := range page.Results {
				fmt.Fprintf(tw, "%d\t%d\t%.2f %s\t%s\t%s\t%s\t%s\n",
					p.ID, p.CustomerID, p.Amount, p.Currency, p.Status,
					billingapi.ParseState(p.Status), p.Provider, p.CreatedAt)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d\n", len(page.Results), page.Count)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "Filter by status")
	cmd.Flags().Int64Var(&filter.CustomerID, "customer", 0, "Filter by customer id")
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "Page size")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "Skip this many payments")
	return cmd
}
