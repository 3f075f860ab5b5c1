// Command checkoutctl drives the billing API and checkout flows from a terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paydesk/console/pkg/billingapi"
	"github.com/paydesk/console/pkg/config"
	"github.com/paydesk/console/pkg/logger"
)

var Version = "dev"

type globals struct {
	baseURL string
	apiKey  string
	token   string
	verbose bool
	asJSON  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "checkoutctl",
		Short:         "Plans, phone numbers and checkouts against the billing API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.baseURL, "api-url", "", "Billing API root (overrides BILLING_API_URL)")
	root.PersistentFlags().StringVar(&g.apiKey, "api-key", "", "API key (overrides BILLING_API_KEY)")
	root.PersistentFlags().StringVar(&g.token, "token", "", "Access token (overrides BILLING_API_ACCESS_TOKEN)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Debug logging to stderr")
	root.PersistentFlags().BoolVar(&g.asJSON, "json", false, "Print JSON")

	root.AddCommand(plansCmd(g))
	root.AddCommand(phoneCmd(g))
	root.AddCommand(checkoutCmd(g))
	root.AddCommand(paymentsCmd(g))
	return root
}

func (g *globals) logger() *slog.Logger {
	if !g.verbose {
		return logger.Discard()
	}
	return logger.New(
		logger.WithOutput(os.Stderr),
		logger.WithFormat(logger.FormatText),
		logger.WithLevel(slog.LevelDebug),
	)
}

// client builds a billing API client from the environment and flags.
func (g *globals) client() (*billingapi.Client, error) {
	var cfg billingapi.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if g.baseURL != "" {
		cfg.BaseURL = g.baseURL
	}
	if g.apiKey != "" {
		cfg.APIKey = g.apiKey
	}
	if g.token != "" {
		cfg.AccessToken = g.token
		cfg.RefreshToken = ""
	}
	return billingapi.New(cfg,
		billingapi.WithLogger(g.logger()),
		billingapi.WithUserAgent("checkoutctl/"+Version),
	)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
