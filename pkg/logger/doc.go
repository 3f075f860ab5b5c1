// Package logger builds slog loggers for the checkout service.
//
// New applies functional options; FromConfig reads APP_ENV, LOG_LEVEL and
// LOG_FORMAT. Development logs are debug-level text, staging and production
// logs are info-level JSON. Context extractors add request-scoped attributes
// at log time:
//
//	log := logger.New(
//	    logger.WithEnvironment(environment.Production, "checkoutd"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "payment initiated", logger.PlanID(plan.ID), logger.TransactionRef(ref))
//
// The attribute helpers in attr.go keep key names consistent across packages.
package logger
