package tax

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tributa/internal/domain"
	"tributa/internal/money"
)

func brl(s string) money.Money { return money.MustParse(s) }

func pct(s string) money.Percentage { return money.MustPercent(s) }

func TestICMS_Intrastate(t *testing.T) {
	c := NewDefaultCalculator()
	res, err := c.ICMS(ICMSInput{
		Base:   brl("1000"),
		Code:   "00",
		Regime: domain.RegimeNormal,
		Rate:   pct("18"),
	})
	require.NoError(t, err)
	assert.Equal(t, "180.00", res.Amount.String())
	assert.Equal(t, "1000.00", res.Base.String())
	assert.Equal(t, "18.00", res.EffectiveRate.StringFixed(2))
	assert.True(t, res.Withheld.IsZero())
}

func TestICMS_ReductionProperty(t *testing.T) {
	c := NewDefaultCalculator()
	tests := []struct {
		reduction string
		rate      string
		want      string
	}{
		{"0", "18", "180.00"},
		{"33.33", "18", "120.01"},
		{"50", "12", "60.00"},
		{"61.11", "18", "70.00"},
		{"100", "18", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.reduction+"/"+tt.rate, func(t *testing.T) {
			res, err := c.ICMS(ICMSInput{
				Base:      brl("1000"),
				Code:      "20",
				Regime:    domain.RegimeNormal,
				Rate:      pct(tt.rate),
				Reduction: pct(tt.reduction),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Amount.String())

			expected := decimal.NewFromInt(1000).
				Mul(pct(tt.reduction).Complement().Ratio()).
				Mul(pct(tt.rate).Ratio()).
				RoundBank(2)
			assert.True(t, expected.Equal(res.Amount.Amount()), "expected %s got %s", expected, res.Amount)
		})
	}
}

func TestICMS_ExemptionForcesZero(t *testing.T) {
	c := NewDefaultCalculator()
	for _, code := range []domain.ICMSCode{"40", "41", "50", "60"} {
		t.Run(string(code), func(t *testing.T) {
			res, err := c.ICMS(ICMSInput{Base: brl("1000"), Code: code, Regime: domain.RegimeNormal, Rate: pct("18")})
			require.NoError(t, err)
			assert.True(t, res.Amount.IsZero())
		})
	}

	res, err := c.ICMS(ICMSInput{Base: brl("1000"), Code: "00", Regime: domain.RegimeNormal, Rate: pct("18"), Exempt: true})
	require.NoError(t, err)
	assert.True(t, res.Amount.IsZero())
}

func TestICMS_Substitution(t *testing.T) {
	c := NewDefaultCalculator()
	res, err := c.ICMS(ICMSInput{
		Base:     brl("1000"),
		Code:     "10",
		Regime:   domain.RegimeNormal,
		Rate:     pct("18"),
		STMargin: pct("40"),
		STRate:   pct("18"),
	})
	require.NoError(t, err)
	// stBase = 1400; 1400 × 18% = 252; 252 − 180 = 72
	assert.Equal(t, "180.00", res.Amount.String())
	assert.Equal(t, "1400.00", res.WithheldBase.String())
	assert.Equal(t, "72.00", res.Withheld.String())
}

func TestICMS_SubstitutionFlooredAtZero(t *testing.T) {
	c := NewDefaultCalculator()
	res, err := c.ICMS(ICMSInput{
		Base:   brl("1000"),
		Code:   "10",
		Regime: domain.RegimeNormal,
		Rate:   pct("18"),
		STRate: pct("12"),
	})
	require.NoError(t, err)
	assert.True(t, res.Withheld.IsZero())
}

func TestICMS_SubstitutionRequiresRate(t *testing.T) {
	c := NewDefaultCalculator()
	_, err := c.ICMS(ICMSInput{Base: brl("1000"), Code: "10", Regime: domain.RegimeNormal, Rate: pct("18")})
	assert.ErrorIs(t, err, domain.ErrMissingField)
}

func TestICMS_SimplesCredit(t *testing.T) {
	c := NewDefaultCalculator()
	res, err := c.ICMS(ICMSInput{
		Base:              brl("1000"),
		Code:              "101",
		Regime:            domain.RegimeSimplesNacional,
		SimplesCreditRate: pct("1.25"),
	})
	require.NoError(t, err)
	assert.Equal(t, "12.50", res.Amount.String())
}

func TestICMS_Errors(t *testing.T) {
	c := NewDefaultCalculator()
	tests := []struct {
		name string
		in   ICMSInput
		want error
	}{
		{"unknown code", ICMSInput{Base: brl("10"), Code: "99", Regime: domain.RegimeNormal}, domain.ErrInvalidCode},
		{"csosn under normal", ICMSInput{Base: brl("10"), Code: "102", Regime: domain.RegimeNormal}, domain.ErrUnsupportedCombo},
		{"cst under simples", ICMSInput{Base: brl("10"), Code: "00", Regime: domain.RegimeSimplesNacional}, domain.ErrUnsupportedCombo},
		{"negative base", ICMSInput{Base: brl("-1"), Code: "00", Regime: domain.RegimeNormal}, domain.ErrInvalidAmount},
		{"reduction on taxed", ICMSInput{Base: brl("10"), Code: "00", Regime: domain.RegimeNormal, Rate: pct("18"), Reduction: pct("10")}, domain.ErrUnsupportedCombo},
		{"bad interstate rate", ICMSInput{Base: brl("10"), Code: "00", Regime: domain.RegimeNormal, Rate: pct("18"), Interstate: true}, domain.ErrRateOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ICMS(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestICMS_Interstate(t *testing.T) {
	c := NewDefaultCalculator()
	for _, rate := range []string{"4", "7", "12"} {
		res, err := c.ICMS(ICMSInput{Base: brl("1000"), Code: "00", Regime: domain.RegimeNormal, Rate: pct(rate), Interstate: true})
		require.NoError(t, err)
		assert.Equal(t, pct(rate).Ratio().Mul(decimal.NewFromInt(1000)).StringFixed(2), res.Amount.String())
	}
}

func TestIPI(t *testing.T) {
	c := NewDefaultCalculator()

	res, err := c.IPI(IPIInput{Base: brl("1000"), Code: "50", Rate: pct("10")})
	require.NoError(t, err)
	assert.Equal(t, "100.00", res.Amount.String())

	res, err = c.IPI(IPIInput{Base: brl("1000"), Code: "50", Rate: pct("10"), Exempt: true})
	require.NoError(t, err)
	assert.True(t, res.Amount.IsZero())

	res, err = c.IPI(IPIInput{Base: brl("1000"), Code: "52", Rate: pct("10")})
	require.NoError(t, err)
	assert.True(t, res.Amount.IsZero())

	_, err = c.IPI(IPIInput{Base: brl("1000"), Code: "77", Rate: pct("10")})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestContributions_RegimeScaling(t *testing.T) {
	c := NewDefaultCalculator()
	base := brl("1000")

	cumPIS, err := c.PIS(ContributionInput{Base: base, Code: "01", Regime: domain.ContributionCumulative})
	require.NoError(t, err)
	nonPIS, err := c.PIS(ContributionInput{Base: base, Code: "01", Regime: domain.ContributionNonCumulative})
	require.NoError(t, err)
	cumCOFINS, err := c.COFINS(ContributionInput{Base: base, Code: "01", Regime: domain.ContributionCumulative})
	require.NoError(t, err)
	nonCOFINS, err := c.COFINS(ContributionInput{Base: base, Code: "01", Regime: domain.ContributionNonCumulative})
	require.NoError(t, err)

	assert.Equal(t, "6.50", cumPIS.Amount.String())
	assert.Equal(t, "16.50", nonPIS.Amount.String())
	assert.Equal(t, "30.00", cumCOFINS.Amount.String())
	assert.Equal(t, "76.00", nonCOFINS.Amount.String())

	assert.True(t, cumPIS.Amount.Amount().LessThan(nonPIS.Amount.Amount()))
	assert.True(t, cumCOFINS.Amount.Amount().LessThan(nonCOFINS.Amount.Amount()))

	ratio := cumPIS.Rate.Value().Div(nonPIS.Rate.Value())
	assert.True(t, nonPIS.Amount.Amount().Mul(ratio).RoundBank(2).Equal(cumPIS.Amount.Amount()))
}

func TestContributions_ZeroCodes(t *testing.T) {
	c := NewDefaultCalculator()
	for _, code := range []domain.ContributionCode{"04", "05", "06", "07", "08", "09", "70", "73", "75"} {
		for _, regime := range []domain.ContributionRegime{domain.ContributionCumulative, domain.ContributionNonCumulative} {
			res, err := c.COFINS(ContributionInput{Base: brl("1000"), Code: code, Regime: regime})
			require.NoError(t, err)
			assert.True(t, res.Amount.IsZero(), "code %s regime %s", code, regime)
		}
	}
}

func TestContributions_DifferentiatedAndPerUnit(t *testing.T) {
	c := NewDefaultCalculator()

	_, err := c.PIS(ContributionInput{Base: brl("1000"), Code: "02", Regime: domain.ContributionNonCumulative})
	assert.ErrorIs(t, err, domain.ErrMissingField)

	res, err := c.PIS(ContributionInput{
		Base: brl("1000"), Code: "02", Regime: domain.ContributionNonCumulative,
		DifferentiatedRate: pct("2.1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "21.00", res.Amount.String())

	res, err = c.COFINS(ContributionInput{
		Base: brl("1000"), Code: "03", Regime: domain.ContributionCumulative,
		Quantity: decimal.NewFromInt(100), UnitAmount: decimal.RequireFromString("0.4512"),
	})
	require.NoError(t, err)
	assert.Equal(t, "45.12", res.Amount.String())
	assert.Equal(t, "4.5120", res.EffectiveRate.StringFixed(4))
}

func TestContributions_PerUnitAboveBase(t *testing.T) {
	c := NewDefaultCalculator()
	res, err := c.COFINS(ContributionInput{
		Base: brl("10"), Code: "03", Regime: domain.ContributionCumulative,
		Quantity: decimal.NewFromInt(50), UnitAmount: decimal.RequireFromString("0.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "25.00", res.Amount.String())
	assert.Equal(t, "250.00", res.EffectiveRate.StringFixed(2))
}

func TestContributions_UnknownRegime(t *testing.T) {
	c := NewDefaultCalculator()
	_, err := c.PIS(ContributionInput{Base: brl("1000"), Code: "01", Regime: "mixed"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCombo)
}

func TestNewCalculator_RejectsInvertedRates(t *testing.T) {
	rates := DefaultContributionRates()
	rates.Cumulative, rates.NonCumulative = rates.NonCumulative, rates.Cumulative
	_, err := NewCalculator(rates)
	assert.ErrorIs(t, err, domain.ErrRateOutOfRange)
}

func TestAggregate_Scenario(t *testing.T) {
	c := NewDefaultCalculator()
	base := brl("1000")
	in := AggregateInput{
		ICMS:   &ICMSInput{Base: base, Code: "00", Regime: domain.RegimeNormal, Rate: pct("18")},
		PIS:    &ContributionInput{Base: base, Code: "01", Regime: domain.ContributionCumulative},
		COFINS: &ContributionInput{Base: base, Code: "01", Regime: domain.ContributionCumulative},
	}
	res, err := c.Aggregate(in)
	require.NoError(t, err)
	assert.Equal(t, "216.50", res.Total.String())
	require.Len(t, res.Results, 3)
	assert.Equal(t, KindICMS, res.Results[0].Tax)

	in.IPI = &IPIInput{Base: base, Code: "50", Rate: pct("10")}
	res, err = c.Aggregate(in)
	require.NoError(t, err)
	ipi, ok := res.Get(KindIPI)
	require.True(t, ok)
	assert.Equal(t, "100.00", ipi.Amount.String())
	assert.Equal(t, "316.50", res.Total.String())
}

func TestAggregate_FailureNamesStep(t *testing.T) {
	c := NewDefaultCalculator()
	base := brl("1000")
	_, err := c.Aggregate(AggregateInput{
		ICMS: &ICMSInput{Base: base, Code: "00", Regime: domain.RegimeNormal, Rate: pct("18")},
		IPI:  &IPIInput{Base: base, Code: "XX", Rate: pct("10")},
	})
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, KindIPI, stepErr.Step)
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
	assert.Contains(t, err.Error(), "IPI")
}

func TestAggregate_Empty(t *testing.T) {
	_, err := NewDefaultCalculator().Aggregate(AggregateInput{})
	assert.ErrorIs(t, err, domain.ErrMissingField)
}

func TestAggregate_WithBase(t *testing.T) {
	in := AggregateInput{
		ICMS: &ICMSInput{Base: brl("1"), Code: "00", Regime: domain.RegimeNormal, Rate: pct("18")},
		PIS:  &ContributionInput{Base: brl("1"), Code: "01", Regime: domain.ContributionCumulative},
	}
	out := in.WithBase(brl("500"))
	assert.Equal(t, "500.00", out.ICMS.Base.String())
	assert.Equal(t, "500.00", out.PIS.Base.String())
	assert.Equal(t, "1.00", in.ICMS.Base.String())
	assert.Nil(t, out.IPI)
}
