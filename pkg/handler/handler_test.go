package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/console/pkg/binder"
	"github.com/paydesk/console/pkg/handler"
	"github.com/paydesk/console/pkg/logger"
	"github.com/paydesk/console/pkg/validator"
)

type phoneRequest struct {
	FlowID string `path:"flowID"`
	Phone  string `form:"phone" json:"phone"`
}

func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div id="panel">`+templ.EscapeString(s)+`</div>`)
		return err
	})
}

func pathParam(values map[string]string) handler.Bind {
	return binder.Path(func(_ *http.Request, key string) string { return values[key] })
}

func TestWrapBindsRequest(t *testing.T) {
	t.Parallel()

	h := handler.HandlerFunc[handler.Context, phoneRequest](func(ctx handler.Context, req phoneRequest) handler.Response {
		return handler.JSON(req)
	})
	srv := handler.Wrap(h, handler.WithBinders[handler.Context, phoneRequest](
		pathParam(map[string]string{"flowID": "f1"}),
		binder.Form(),
		binder.Signals(),
	))

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("phone=0241234567"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data phoneRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "f1", body.Data.FlowID)
	assert.Equal(t, "0241234567", body.Data.Phone)
}

func TestWrapBindError(t *testing.T) {
	t.Parallel()

	called := false
	h := handler.HandlerFunc[handler.Context, phoneRequest](func(handler.Context, phoneRequest) handler.Response {
		called = true
		return handler.Empty()
	})
	srv := handler.Wrap(h, handler.WithBinders[handler.Context, phoneRequest](binder.Signals()))

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"phone":`))
	r.Header.Set("Datastar-Request", "true")
	w := httptest.NewRecorder()
	srv(w, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWrapNilResponse(t *testing.T) {
	t.Parallel()

	var got error
	h := handler.HandlerFunc[handler.Context, struct{}](func(handler.Context, struct{}) handler.Response { return nil })
	srv := handler.Wrap(h, handler.WithErrorHandler[handler.Context, struct{}](func(_ handler.Context, err error) {
		got = err
	}))
	srv(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, got, handler.ErrNilResponse)
}

func TestDecoratorsOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) handler.Decorator[handler.Context, struct{}] {
		return func(next handler.HandlerFunc[handler.Context, struct{}]) handler.HandlerFunc[handler.Context, struct{}] {
			return func(ctx handler.Context, req struct{}) handler.Response {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}
	h := handler.HandlerFunc[handler.Context, struct{}](func(handler.Context, struct{}) handler.Response {
		order = append(order, "handler")
		return handler.Empty()
	})
	w := httptest.NewRecorder()
	handler.Wrap(h, handler.WithDecorators(mark("outer"), mark("inner")))(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTemplResponse(t *testing.T) {
	t.Parallel()

	t.Run("plain request renders html", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, handler.Templ(text("<Pro>")).Render(w, r))
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, `<div id="panel">&lt;Pro&gt;</div>`, w.Body.String())
	})

	t.Run("datastar request patches over sse", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Datastar-Request", "true")
		require.NoError(t, handler.Templ(text("Pro"), handler.WithTarget("#panel")).Render(w, r))
		assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
		assert.Contains(t, w.Body.String(), "datastar-patch-elements")
		assert.Contains(t, w.Body.String(), `<div id="panel">Pro</div>`)
	})

	t.Run("partial for datastar, full otherwise", func(t *testing.T) {
		t.Parallel()
		resp := handler.TemplPartial(text("partial"), text("full"))

		w := httptest.NewRecorder()
		require.NoError(t, resp.Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Contains(t, w.Body.String(), "full")

		w = httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/?datastar=%7B%7D", nil)
		require.NoError(t, resp.Render(w, r))
		assert.Contains(t, w.Body.String(), "partial")
	})
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	require.NoError(t, handler.Redirect("https://pay.example/abc").Render(w, httptest.NewRequest(http.MethodPost, "/", nil)))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "https://pay.example/abc", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Datastar-Request", "true")
	require.NoError(t, handler.Redirect("https://pay.example/abc").Render(w, r))
	assert.Contains(t, w.Body.String(), "https://pay.example/abc")
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	verr := validator.Apply(validator.RequiredString("phone_number", "", "Phone number is required"))
	w := httptest.NewRecorder()
	require.NoError(t, handler.JSONError(verr).Render(w, httptest.NewRequest(http.MethodPost, "/", nil)))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body handler.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, []string{"Phone number is required"}, body.Error.Details["phone_number"])

	w = httptest.NewRecorder()
	require.NoError(t, handler.JSONError(handler.ErrNotFound).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	require.NoError(t, handler.JSONError(errors.New("db exploded")).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db exploded")
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	eh := handler.NewErrorHandler(logger.Discard(), handler.ErrorHandlerConfig{
		ErrorPage: func(p handler.ErrorPageParams) templ.Component {
			return text(p.Message)
		},
		ErrorToast: func(p handler.ErrorToastParams) templ.Component {
			return text(p.Level + ": " + p.Message)
		},
	})

	t.Run("page", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		eh(handler.NewContext(w, r), handler.ErrNotFound)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Not Found")
	})

	t.Run("toast", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Datastar-Request", "true")
		eh(handler.NewContext(w, r), handler.ErrTooManyRequests)
		assert.Contains(t, w.Body.String(), "warning: Too Many Requests")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", "application/json")
		eh(handler.NewContext(w, r), errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "internal_server_error")
	})
}

func TestSSERequiresDataStar(t *testing.T) {
	t.Parallel()

	resp := handler.SSE(func(handler.StreamContext) error { return nil })
	err := resp.Render(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	var httpErr handler.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestSSEStream(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/events", nil)
	r.Header.Set("Accept", "text/event-stream")
	w := httptest.NewRecorder()

	err := handler.SSE(func(stream handler.StreamContext) error {
		if err := stream.SendComponent(text("one"), handler.WithTarget("#panel")); err != nil {
			return err
		}
		return stream.SendSignals(map[string]any{"busy": false})
	}).Render(w, r)
	require.NoError(t, err)

	body := w.Body.String()
	assert.Contains(t, body, `<div id="panel">one</div>`)
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `"busy":false`)
}
