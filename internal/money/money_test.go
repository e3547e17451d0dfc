package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tributa/internal/domain"
)

func TestMoney_RoundIsBankers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.125", "0.12"},
		{"0.135", "0.14"},
		{"2.675", "2.68"},
		{"10.005", "10.00"},
		{"-1.005", "-1.00"},
		{"180", "180.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParse(tt.in).Round().String())
		})
	}
}

func TestMoney_ArithmeticKeepsPrecision(t *testing.T) {
	m := MustParse("0.333")
	sum, err := m.Add(MustParse("0.333"))
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.RequireFromString("0.666")))

	rated := MustParse("1000").ApplyRate(MustPercent("0.65"))
	assert.True(t, rated.Amount().Equal(decimal.RequireFromString("6.5")))
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	_, err := MustParse("1").Add(New(decimal.NewFromInt(1), "USD"))
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
}

func TestMoney_FromStringRejectsGarbage(t *testing.T) {
	_, err := FromString("12,50")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(MustParse("216.5"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"216.50","currency":"BRL"}`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"1000.10"`), &m))
	assert.Equal(t, "1000.10", m.String())

	require.NoError(t, json.Unmarshal([]byte(`{"amount":"3.5","currency":"usd"}`), &m))
	assert.Equal(t, "USD", m.Currency())
}

func TestSum(t *testing.T) {
	total, err := Sum(MustParse("180"), MustParse("6.5"), MustParse("30"))
	require.NoError(t, err)
	assert.Equal(t, "216.50", total.String())

	empty, err := Sum()
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestPercentage_Range(t *testing.T) {
	for _, ok := range []string{"0", "18", "100", "1.65"} {
		_, err := ParsePercentage(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"-0.01", "100.01", "abc"} {
		_, err := ParsePercentage(bad)
		assert.ErrorIs(t, err, domain.ErrRateOutOfRange, bad)
	}
}

func TestPercentage_RatioAndComplement(t *testing.T) {
	p := MustPercent("18")
	assert.True(t, p.Ratio().Equal(decimal.RequireFromString("0.18")))
	assert.Equal(t, "82.00", p.Complement().String())

	var q Percentage
	assert.Error(t, json.Unmarshal([]byte(`"150"`), &q))
	require.NoError(t, json.Unmarshal([]byte(`"7.6"`), &q))
	assert.Equal(t, "7.60", q.String())
}
