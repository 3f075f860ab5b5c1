package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/paydesk/console/pkg/broadcast"
	"github.com/paydesk/console/pkg/checkout"
	"github.com/paydesk/console/pkg/paymethod"
	"github.com/paydesk/console/pkg/phone"
)

var errPaymentFailed = errors.New("payment failed")

type checkoutOptions struct {
	planID     int64
	customerID int64
	successURL string
	cancelURL  string
}

func (o *checkoutOptions) bind(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&o.planID, "plan", 0, "Plan id")
	cmd.Flags().Int64Var(&o.customerID, "customer", 0, "Customer id")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("customer")
}

func checkoutCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Run a checkout for a customer",
	}
	cmd.AddCommand(checkoutCardCmd(g), checkoutMoMoCmd(g))
	return cmd
}

func checkoutCardCmd(g *globals) *cobra.Command {
	var (
		opts     checkoutOptions
		provider string
	)
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Create a hosted card checkout and print its URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			method, err := paymethod.ParseMethod(provider)
			if err != nil {
				return err
			}
			if method.Rail() != paymethod.RailRedirect {
				return fmt.Errorf("%s is not a card provider", method)
			}

			var url string
			nav := checkout.NavigatorFunc(func(_ context.Context, u string) error {
				url = u
				return nil
			})
			f, err := g.newFlow(cmd, opts, paymethod.Capabilities{StripeEnabled: true, Forced: method}, method,
				checkout.WithNavigator(nav))
			if err != nil {
				return err
			}
			defer f.Close()

			if err := f.Submit(cmd.Context()); err != nil {
				return err
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]string{"checkout_url": url})
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.successURL, "success-url", "", "Return URL after payment")
	cmd.Flags().StringVar(&opts.cancelURL, "cancel-url", "", "Return URL when the customer cancels")
	cmd.Flags().StringVar(&provider, "provider", "stripe", "Card provider: stripe or paystack")
	return cmd
}

func checkoutMoMoCmd(g *globals) *cobra.Command {
	var (
		opts     checkoutOptions
		country  string
		number   string
		interval time.Duration
		attempts int
	)
	cmd := &cobra.Command{
		Use:   "momo",
		Short: "Send a mobile-money prompt and wait for the outcome",
		Long: `Send a mobile-money payment prompt to a phone and poll its status until
it succeeds or fails. Ctrl-C stops waiting; the prompt itself stays with the
provider.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, ok := phone.Lookup(country); !ok {
				return fmt.Errorf("%w: %q", phone.ErrUnknownCountry, country)
			}
			out := cmd.OutOrStdout()
			notify := checkout.NotifierFunc(func(_ context.Context, n checkout.Notification) {
				fmt.Fprintf(out, "[%s] %s\n", n.Level, n.Message)
			})

			cfg := checkout.DefaultConfig()
			cfg.DefaultCountry = country
			cfg.PollInterval = interval
			cfg.MaxPollAttempts = attempts
			f, err := g.newFlow(cmd, opts, paymethod.Capabilities{MoMoEnabled: true}, paymethod.MoMo,
				checkout.WithNotifier(notify),
				checkout.WithConfig(cfg))
			if err != nil {
				return err
			}
			defer f.Close()

			// detached so the pending payment can still be cancelled after Ctrl-C
			ctx := context.WithoutCancel(cmd.Context())
			sub := f.Subscribe(ctx)
			defer sub.Close()

			display, err := f.InputPhone(ctx, number)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Sending request to %s\n", display)
			if err := f.Submit(ctx); err != nil {
				return err
			}
			return waitForOutcome(cmd.Context(), out, f, sub)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVarP(&country, "country", "c", phone.DefaultCountryCode, "Phone country")
	cmd.Flags().StringVar(&number, "phone", "", "Mobile-money number")
	cmd.Flags().DurationVar(&interval, "interval", 3*time.Second, "Status poll interval")
	cmd.Flags().IntVar(&attempts, "max-attempts", 0, "Stop polling after this many status checks (0 = no limit)")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

// waitForOutcome prints panel changes until the flow settles or ctx ends.
func waitForOutcome(ctx context.Context, out io.Writer, f *checkout.Flow, sub broadcast.Subscriber[checkout.View]) error {
	var last checkout.Phase
	for {
		select {
		case <-ctx.Done():
			if f.Phase() == checkout.PhasePending {
				_ = f.CancelPayment(context.Background())
				fmt.Fprintln(out, "Stopped waiting. The payment request may still be approved on the phone.")
			}
			return ctx.Err()
		case msg, ok := <-sub.Receive(ctx):
			if !ok {
				return nil
			}
			v := msg.Data
			if v.Phase == last || v.Panel == nil {
				continue
			}
			last = v.Phase
			fmt.Fprintf(out, "%s: %s\n", v.Panel.Title, v.Panel.Message)
			if v.Panel.TransactionRef != "" && v.Phase == checkout.PhasePending {
				fmt.Fprintf(out, "Reference: %s\n", v.Panel.TransactionRef)
			}
			switch v.Phase {
			case checkout.PhaseSucceeded, checkout.PhaseUnresolved:
				return nil
			case checkout.PhaseFailed:
				return errPaymentFailed
			case checkout.PhaseIdle, checkout.PhaseSubmitting, checkout.PhasePending, checkout.PhaseRedirecting:
			}
		}
	}
}

func (g *globals) newFlow(cmd *cobra.Command, o checkoutOptions, caps paymethod.Capabilities, m paymethod.Method, opts ...checkout.Option) (*checkout.Flow, error) {
	client, err := g.client()
	if err != nil {
		return nil, err
	}
	plan, err := client.GetPlan(cmd.Context(), o.planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("plan %d is not active", plan.ID)
	}
	return checkout.New(checkout.Props{
		Plan:         *plan,
		CustomerID:   o.customerID,
		SuccessURL:   o.successURL,
		CancelURL:    o.cancelURL,
		Capabilities: caps,
		Method:       m,
	}, client, append(opts, checkout.WithLogger(g.logger()))...)
}
