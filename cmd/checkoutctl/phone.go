package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paydesk/console/pkg/phone"
	"github.com/paydesk/console/pkg/validator"
)

type formattedPhone struct {
	Country    string `json:"country"`
	Display    string `json:"display"`
	Normalized string `json:"normalized"`
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
}

func phoneCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phone",
		Short: "Format and validate mobile-money numbers",
	}
	cmd.AddCommand(phoneFormatCmd(g), phoneCountriesCmd(g))
	return cmd
}

func phoneFormatCmd(g *globals) *cobra.Command {
	var (
		code   string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "format NUMBER",
		Short: "Mask a number for a country and show its submitted form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			country, ok := phone.Lookup(code)
			if !ok {
				return fmt.Errorf("%w: %q", phone.ErrUnknownCountry, code)
			}
			display := country.Format(args[0])

			validate := func(v string) error { return phone.Validate(v, true) }
			if strict {
				validate = phone.ValidateStrict
			}
			res := formattedPhone{
				Country:    country.Code,
				Display:    display,
				Normalized: country.Normalize(display),
				Valid:      true,
			}
			if err := validate(display); err != nil {
				res.Valid = false
				res.Error = validator.ExtractValidationErrors(err).First(phone.FieldName)
			}

			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s +%s %s\n", country.Flag, country.DialCode, res.Display)
			fmt.Fprintf(out, "submitted as %s\n", res.Normalized)
			if !res.Valid {
				fmt.Fprintln(out, res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&code, "country", "c", phone.DefaultCountryCode, "ISO country code")
	cmd.Flags().BoolVar(&strict, "strict", false, "Also reject numbers longer than 15 digits")
	return cmd
}

func phoneCountriesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List supported countries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			countries := phone.Countries()
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), countries)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tCOUNTRY\tDIAL\tFORMAT")
			for _, c := range countries {
				fmt.Fprintf(tw, "%s\t%s %s\t+%s\t%s\n", c.Code, c.Flag, c.Name, c.DialCode, c.Mask)
			}
			return tw.Flush()
		},
	}
}
