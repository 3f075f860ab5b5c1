package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paydesk/console/pkg/billingapi"
)

func plansCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Inspect subscription plans",
	}
	cmd.AddCommand(plansListCmd(g), plansGetCmd(g))
	return cmd
}

func plansListCmd(g *globals) *cobra.Command {
	var filter billingapi.PlanFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := g.client()
			if err != nil {
				return err
			}
			plans, err := client.ListPlans(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), plans)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE\tINTERVAL\tTRIAL\tACTIVE")
			for _, p := range plans {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%t\n", p.ID, p.Name, p.Price(), p.Interval, p.TrialDays, p.IsActive)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&filter.ActiveOnly, "active", false, "Only active plans")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Filter by name")
	return cmd
}

func plansGetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := g.client()
			if err != nil {
				return err
			}
			p, err := client.GetPlan(cmd.Context(), id)
			if err != nil {
				return err
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (#%d)\n", p.Name, p.ID)
			if p.Description != "" {
				fmt.Fprintln(out, p.Description)
			}
			fmt.Fprintf(out, "Price:    %s / %s\n", p.Price(), p.Interval)
			if p.TrialDays > 0 {
				fmt.Fprintf(out, "Trial:    %d days\n", p.TrialDays)
			}
			fmt.Fprintf(out, "Active:   %t\n", p.IsActive)
			if len(p.Features) > 0 {
				fmt.Fprintf(out, "Features: %s\n", strings.Join(p.Features, ", "))
			}
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
