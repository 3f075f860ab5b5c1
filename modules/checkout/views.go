package checkout

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/paydesk/console/pkg/checkout"
	"github.com/paydesk/console/pkg/handler"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"

// PageParams feed the checkout components.
type PageParams struct {
	View     checkout.View
	BasePath string
	// TestMode shows a banner outside live environments.
	TestMode bool
}

func (p PageParams) action(name string) string {
	return p.BasePath + "/flows/" + p.View.FlowID + "/" + name
}

// Views renders the checkout. Any component may be replaced; nil fields
// fall back to the defaults.
type Views struct {
	// Page is the full HTML document around Checkout.
	Page func(PageParams) templ.Component
	// Checkout is the #checkout fragment patched on every view change.
	Checkout   func(PageParams) templ.Component
	Toast      func(checkout.Notification) templ.Component
	ErrorPage  func(handler.ErrorPageParams) templ.Component
	ErrorToast func(handler.ErrorToastParams) templ.Component
}

// DefaultViews returns the built-in components.
func DefaultViews() *Views {
	v := &Views{
		Checkout:   checkoutFragment,
		Toast:      toast,
		ErrorPage:  errorPage,
		ErrorToast: errorToast,
	}
	v.Page = func(p PageParams) templ.Component { return page(p, v.Checkout) }
	return v
}

func (v *Views) withDefaults() *Views {
	d := DefaultViews()
	if v == nil {
		return d
	}
	out := *v
	if out.Checkout == nil {
		out.Checkout = d.Checkout
	}
	if out.Page == nil {
		out.Page = func(p PageParams) templ.Component { return page(p, out.Checkout) }
	}
	if out.Toast == nil {
		out.Toast = d.Toast
	}
	if out.ErrorPage == nil {
		out.ErrorPage = d.ErrorPage
	}
	if out.ErrorToast == nil {
		out.ErrorToast = d.ErrorToast
	}
	return &out
}

// html accumulates the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(parts ...string) {
	for _, s := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) { h.raw(templ.EscapeString(s)) }

func (h *html) attr(name, value string) {
	h.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

func (h *html) flag(name string, on bool) {
	if on {
		h.raw(" ", name)
	}
}

func (h *html) component(ctx context.Context, c templ.Component) {
	if h.err == nil {
		h.err = c.Render(ctx, h.w)
	}
}

func post(url string, form bool) string {
	if form {
		return fmt.Sprintf("@post('%s', {contentType: 'form'})", url)
	}
	return fmt.Sprintf("@post('%s')", url)
}

func page(p PageParams, fragment func(PageParams) templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>Checkout - `)
		h.text(p.View.Plan.Name)
		h.raw(`</title><script type="module"`)
		h.attr("src", datastarScript)
		h.raw(`></script>`)
		h.raw(`</head><body>`)
		if p.TestMode {
			h.raw(`<div class="banner" role="note">Test mode: no real payment is taken.</div>`)
		}
		h.raw(`<div id="toasts"></div><main`)
		if !p.View.Phase.Terminal() {
			h.attr("data-on-load", fmt.Sprintf("@get('%s')", p.action("events")))
		}
		h.raw(`>`)
		h.component(ctx, fragment(p))
		h.raw(`</main></body></html>`)
		return h.err
	})
}

func checkoutFragment(p PageParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		v := p.View
		h := &html{w: w}
		h.raw(`<div id="checkout"`)
		h.attr("data-phase", v.Phase.String())
		h.raw(`>`)

		if v.Panel != nil {
			writePanel(h, p, v.Panel)
		} else {
			writePlan(h, v.Plan)
			writeForm(h, p)
		}

		if v.CanCancel && v.Phase != checkout.PhaseSucceeded {
			h.raw(`<form method="post"`)
			h.attr("action", p.action("abort"))
			h.attr("data-on-submit", post(p.action("abort"), false))
			h.raw(`><button type="submit" class="link">`)
			h.text(checkout.LabelCancel)
			h.raw(`</button></form>`)
		}
		h.raw(`<p class="security">`)
		h.text(v.Security)
		h.raw(`</p></div>`)
		return h.err
	})
}

func writePlan(h *html, s checkout.PlanSummary) {
	h.raw(`<section class="plan"><h2>`)
	h.text(s.Name)
	h.raw(`</h2>`)
	if s.Description != "" {
		h.raw(`<p>`)
		h.text(s.Description)
		h.raw(`</p>`)
	}
	h.raw(`<p class="price">`)
	h.text(s.Price)
	if s.Interval != "" {
		h.raw(` <span class="interval">/ `)
		h.text(s.Interval)
		h.raw(`</span>`)
	}
	h.raw(`</p>`)
	if s.TrialBadge != "" {
		h.raw(`<span class="badge">`)
		h.text(s.TrialBadge)
		h.raw(`</span>`)
	}
	if len(s.Features) > 0 {
		h.raw(`<ul class="features">`)
		for _, f := range s.Features {
			h.raw(`<li>`)
			h.text(f)
			h.raw(`</li>`)
		}
		h.raw(`</ul>`)
	}
	h.raw(`</section>`)
}

func writeForm(h *html, p PageParams) {
	v := p.View
	h.raw(`<form id="checkout-form" method="post"`)
	h.attr("action", p.action("submit"))
	h.attr("data-on-submit", post(p.action("submit"), true))
	h.raw(`>`)

	if v.Methods.Error != "" {
		h.raw(`<p class="error" role="alert">`)
		h.text(v.Methods.Error)
		h.raw(`</p>`)
	}
	if len(v.Methods.Choices) > 0 {
		h.raw(`<fieldset class="methods">`)
		for _, c := range v.Methods.Choices {
			h.raw(`<label class="method"><input type="radio" name="method"`)
			h.attr("value", c.Method.String())
			h.flag("checked", c.Selected)
			h.attr("data-on-change", post(p.action("method"), true))
			h.raw(`><strong>`)
			h.text(c.Title)
			h.raw(`</strong><span>`)
			h.text(c.Description)
			h.raw(`</span></label>`)
		}
		h.raw(`</fieldset>`)
	}

	if ph := v.Phone; ph != nil {
		h.raw(`<div class="phone"><select name="country"`)
		h.attr("data-on-change", post(p.action("country"), true))
		h.raw(`>`)
		for _, c := range ph.Countries {
			h.raw(`<option`)
			h.attr("value", c.Code)
			h.flag("selected", c.Code == ph.Country.Code)
			h.raw(`>`)
			h.text(c.Flag + " +" + c.DialCode)
			h.raw(`</option>`)
		}
		h.raw(`</select><input type="tel" name="phone" autocomplete="tel-national"`)
		h.attr("value", ph.Value)
		h.attr("placeholder", ph.Placeholder)
		h.attr("data-on-input__debounce.300ms", post(p.action("phone"), true))
		h.raw(`><small>`)
		h.text(ph.Hint)
		h.raw(`</small>`)
		if ph.Error != "" {
			h.raw(`<p class="error" role="alert">`)
			h.text(ph.Error)
			h.raw(`</p>`)
		}
		h.raw(`</div>`)
	}

	h.raw(`<button type="submit"`)
	h.flag("disabled", v.Action.Disabled)
	h.flag("aria-busy", v.Action.Busy)
	h.raw(`>`)
	h.text(v.Action.Label)
	h.raw(`</button></form>`)
}

func writePanel(h *html, p PageParams, panel *checkout.Panel) {
	h.raw(`<section`)
	h.attr("class", "panel panel-"+panel.Phase.String())
	h.raw(`><h2>`)
	h.text(panel.Title)
	h.raw(`</h2><p>`)
	h.text(panel.Message)
	h.raw(`</p>`)
	if panel.TransactionRef != "" {
		h.raw(`<p class="reference">Reference: <code>`)
		h.text(panel.TransactionRef)
		h.raw(`</code></p>`)
	}
	if panel.CanRetry {
		writeButton(h, p.action("retry"), checkout.LabelRetry)
	}
	if panel.CanCancel {
		writeButton(h, p.action("cancel"), checkout.LabelCancel)
	}
	h.raw(`</section>`)
}

func writeButton(h *html, url, label string) {
	h.raw(`<form method="post"`)
	h.attr("action", url)
	h.attr("data-on-submit", post(url, false))
	h.raw(`><button type="submit">`)
	h.text(label)
	h.raw(`</button></form>`)
}

func toast(n checkout.Notification) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div`)
		h.attr("class", "toast toast-"+string(n.Level))
		h.raw(` role="status">`)
		h.text(n.Message)
		h.raw(`</div>`)
		return h.err
	})
}

func errorPage(p handler.ErrorPageParams) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		h.text(fmt.Sprintf("%d", p.StatusCode))
		h.raw(`</title></head><body><main class="error"><h1>`)
		h.text(p.Message)
		h.raw(`</h1>`)
		if p.RequestID != "" {
			h.raw(`<p>Request ID: <code>`)
			h.text(p.RequestID)
			h.raw(`</code></p>`)
		}
		h.raw(`</main></body></html>`)
		return h.err
	})
}

func errorToast(p handler.ErrorToastParams) templ.Component {
	return toast(checkout.Notification{Level: checkout.Level(p.Level), Message: p.Message})
}
