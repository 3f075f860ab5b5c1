package checkout

import (
	"context"
	"log/slog"

	"github.com/paydesk/console/pkg/async"
	"github.com/paydesk/console/pkg/billingapi"
	"github.com/paydesk/console/pkg/logger"
	"github.com/paydesk/console/pkg/paymethod"
)

// CapabilitySource reports which rails the tenant has configured.
// *billingapi.Client implements it.
type CapabilitySource interface {
	MoMoConfig(ctx context.Context) (*billingapi.MoMoConfig, error)
	StripeStatus(ctx context.Context) (*billingapi.StripeStatus, error)
}

// detectCapabilities queries both rails concurrently. A rail whose lookup
// fails keeps its static flag. A forced provider is kept as is.
func detectCapabilities(ctx context.Context, src CapabilitySource, static paymethod.Capabilities, log *slog.Logger) paymethod.Capabilities {
	if static.Forced != paymethod.None {
		return static
	}

	stripe := async.Async(ctx, src, func(ctx context.Context, src CapabilitySource) (bool, error) {
		st, err := src.StripeStatus(ctx)
		if err != nil {
			return false, err
		}
		return st.Connected, nil
	})
	momo := async.Async(ctx, src, func(ctx context.Context, src CapabilitySource) (bool, error) {
		cfg, err := src.MoMoConfig(ctx)
		if err != nil {
			return false, err
		}
		return cfg.Enabled, nil
	})

	results, errs := async.WaitAll(stripe, momo)
	caps := static
	if errs[0] == nil {
		caps.StripeEnabled = results[0]
	} else {
		log.WarnContext(ctx, "stripe status lookup failed", logger.Error(errs[0]))
	}
	if errs[1] == nil {
		caps.MoMoEnabled = results[1]
	} else {
		log.WarnContext(ctx, "mobile money config lookup failed", logger.Error(errs[1]))
	}
	return caps
}
