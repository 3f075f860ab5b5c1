package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/paydesk/console/pkg/logger"
	"github.com/paydesk/console/pkg/requestid"
	"github.com/paydesk/console/pkg/validator"
)

// ErrorPageParams feed the full-page error component.
type ErrorPageParams struct {
	StatusCode int
	Message    string
	RequestID  string
}

// ErrorToastParams feed the toast patched into DataStar pages.
type ErrorToastParams struct {
	Message   string
	Level     string
	RequestID string
}

type ErrorHandlerConfig struct {
	// ErrorPage renders plain HTML errors. Nil falls back to http.Error.
	ErrorPage func(ErrorPageParams) templ.Component
	// ErrorToast renders errors for DataStar requests. Nil skips the toast.
	ErrorToast func(ErrorToastParams) templ.Component
	// ToastTarget defaults to "#toasts".
	ToastTarget string
}

type errorInfo struct {
	status  int
	message string
}

func classifyError(err error) errorInfo {
	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		var msgs []string
		for _, field := range verrs.Fields() {
			msgs = append(msgs, verrs.First(field))
		}
		return errorInfo{status: http.StatusUnprocessableEntity, message: strings.Join(msgs, "; ")}
	}
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return errorInfo{status: httpErr.Code, message: httpErr.Message()}
	}
	return errorInfo{status: http.StatusInternalServerError, message: "An error occurred processing your request"}
}

// NewErrorHandler renders errors according to the request: a toast for
// DataStar, the JSON envelope for JSON clients, an error page otherwise.
// Client errors are logged at warn level, the rest at error.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.ToastTarget == "" {
		cfg.ToastTarget = "#toasts"
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		info := classifyError(err)
		reqID := requestid.FromContext(r.Context())

		level := slog.LevelError
		if info.status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request failed",
			logger.Component("http"),
			logger.Error(err),
			logger.StatusCode(info.status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		var rerr error
		switch {
		case IsDataStar(r):
			if cfg.ErrorToast == nil {
				return
			}
			lvl := "error"
			if level == slog.LevelWarn {
				lvl = "warning"
			}
			rerr = Templ(cfg.ErrorToast(ErrorToastParams{Message: info.message, Level: lvl, RequestID: reqID}),
				WithTarget(cfg.ToastTarget), WithPatchMode(PatchPrepend)).Render(ctx.ResponseWriter(), r)
		case WantsJSON(r):
			rerr = JSONError(err).Render(ctx.ResponseWriter(), r)
		case cfg.ErrorPage != nil:
			rerr = TemplStatus(info.status, cfg.ErrorPage(ErrorPageParams{
				StatusCode: info.status,
				Message:    info.message,
				RequestID:  reqID,
			})).Render(ctx.ResponseWriter(), r)
		default:
			http.Error(ctx.ResponseWriter(), info.message, info.status)
		}
		if rerr != nil {
			log.ErrorContext(r.Context(), "render error response", logger.Error(rerr))
		}
	}
}
