package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/paydesk/console/pkg/money"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		amount int64
		code   string
		want   []string
	}{
		{"ghana cedi", 11988, "GHS", []string{"GHS", "119.88"}},
		{"lowercase code", 2999, "usd", []string{"USD", "29.99"}},
		{"zero decimal currency", 1500, "JPY", []string{"JPY", "1,500"}},
		{"grouped thousands", 1234500, "GHS", []string{"GHS", "12,345.00"}},
		{"whole amount", 5000, "KES", []string{"KES", "50.00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := money.New(tt.amount, tt.code).Format(language.English)
			require.NoError(t, err)
			for _, part := range tt.want {
				assert.Contains(t, got, part)
			}
		})
	}
}

func TestMajor(t *testing.T) {
	t.Parallel()

	v, err := money.New(11988, "GHS").Major()
	require.NoError(t, err)
	assert.InDelta(t, 119.88, v, 0.0001)

	v, err = money.New(1500, "JPY").Major()
	require.NoError(t, err)
	assert.InDelta(t, 1500, v, 0.0001)
}

func TestInvalidCurrency(t *testing.T) {
	t.Parallel()

	_, err := money.New(100, "ZZ").Format(language.English)
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
	assert.Equal(t, "100 ZZ", money.New(100, "ZZ").String())
}
