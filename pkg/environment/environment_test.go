package environment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paydesk/console/pkg/environment"
)

func TestParse(t *testing.T) {
	t.Parallel()

	assert.Equal(t, environment.Production, environment.Parse("prod"))
	assert.Equal(t, environment.Production, environment.Parse(" Production "))
	assert.Equal(t, environment.Staging, environment.Parse("stage"))
	assert.Equal(t, environment.Development, environment.Parse(""))
	assert.Equal(t, environment.Development, environment.Parse("qa"))

	assert.True(t, environment.Staging.Live())
	assert.False(t, environment.Development.Live())
	assert.True(t, environment.Production.IsProduction())
}

func TestContext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, environment.Development, environment.FromContext(context.Background()))
	ctx := environment.WithContext(context.Background(), environment.Staging)
	assert.Equal(t, environment.Staging, environment.FromContext(ctx))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got environment.Environment
	h := environment.Middleware(environment.Production)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = environment.FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, environment.Production, got)
}
