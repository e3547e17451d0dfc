package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tributa/internal/domain"
	"tributa/internal/money"
)

// RatePair holds the PIS and COFINS rates of one regime.
type RatePair struct {
	PIS    money.Percentage `mapstructure:"pis"`
	COFINS money.Percentage `mapstructure:"cofins"`
}

// ContributionRates are the PIS/COFINS rate sets per regime.
type ContributionRates struct {
	Cumulative    RatePair
	NonCumulative RatePair
}

// DefaultContributionRates are the general rates of Laws 9.718/1998, 10.637/2002 and
// 10.833/2003.
func DefaultContributionRates() ContributionRates {
	return ContributionRates{
		Cumulative:    RatePair{PIS: money.MustPercent("0.65"), COFINS: money.MustPercent("3")},
		NonCumulative: RatePair{PIS: money.MustPercent("1.65"), COFINS: money.MustPercent("7.6")},
	}
}

// Validate checks that cumulative rates are strictly lower than non-cumulative ones.
func (r ContributionRates) Validate() error {
	if !r.Cumulative.PIS.LessThan(r.NonCumulative.PIS) || !r.Cumulative.COFINS.LessThan(r.NonCumulative.COFINS) {
		return fmt.Errorf("%w: cumulative contribution rates must be lower than non-cumulative", domain.ErrRateOutOfRange)
	}
	return nil
}

func (r ContributionRates) forRegime(regime domain.ContributionRegime) (RatePair, error) {
	switch regime {
	case domain.ContributionCumulative:
		return r.Cumulative, nil
	case domain.ContributionNonCumulative:
		return r.NonCumulative, nil
	default:
		return RatePair{}, fmt.Errorf("%w: contribution regime %q", domain.ErrUnsupportedCombo, regime)
	}
}

// ContributionInput describes one line for PIS or COFINS.
type ContributionInput struct {
	Base   money.Money               `json:"base"`
	Code   domain.ContributionCode   `json:"code"`
	Regime domain.ContributionRegime `json:"regime"`
	Exempt bool                      `json:"exempt"`
	// DifferentiatedRate is required by CST 02.
	DifferentiatedRate money.Percentage `json:"differentiated_rate"`
	// Quantity and UnitAmount are required by CST 03 (amount per unit of product).
	Quantity   decimal.Decimal `json:"quantity"`
	UnitAmount decimal.Decimal `json:"unit_amount"`
}

// WithBase returns a copy of the input over a different base.
func (in ContributionInput) WithBase(base money.Money) ContributionInput {
	in.Base = base
	return in
}

// PIS computes the PIS contribution.
func (c *Calculator) PIS(in ContributionInput) (Result, error) {
	return c.contribution(KindPIS, in)
}

// COFINS computes the COFINS contribution.
func (c *Calculator) COFINS(in ContributionInput) (Result, error) {
	return c.contribution(KindCOFINS, in)
}

func (c *Calculator) contribution(kind Kind, in ContributionInput) (Result, error) {
	if err := checkBase(in.Base); err != nil {
		return Result{}, err
	}
	code, err := domain.ParseContributionCode(string(in.Code))
	if err != nil {
		return Result{}, err
	}
	pair, err := c.rates.forRegime(in.Regime)
	if err != nil {
		return Result{}, err
	}
	rate := pair.PIS
	if kind == KindCOFINS {
		rate = pair.COFINS
	}

	if in.Exempt {
		return zeroResult(kind, in.Base, rate), nil
	}

	res := zeroResult(kind, in.Base, rate)
	switch code.Basis() {
	case domain.ContributionBasisZero:
		return res, nil

	case domain.ContributionBasisDifferentiated:
		if in.DifferentiatedRate.IsZero() {
			return Result{}, fmt.Errorf("%w: differentiated rate for %s CST %s", domain.ErrMissingField, kind, code)
		}
		rate = in.DifferentiatedRate
		res.Rate = rate

	case domain.ContributionBasisPerUnit:
		if in.Quantity.IsNegative() || in.UnitAmount.IsNegative() || in.UnitAmount.IsZero() {
			return Result{}, fmt.Errorf("%w: quantity and unit amount for %s CST %s", domain.ErrMissingField, kind, code)
		}
		res.Amount = money.New(in.Quantity.Mul(in.UnitAmount), in.Base.Currency()).Round()
		res.Rate = money.ZeroPercent()
		res.EffectiveRate = effectiveRate(res.Amount, in.Base)
		return res, nil
	}

	res.Amount = in.Base.ApplyRate(rate).Round()
	res.EffectiveRate = effectiveRate(res.Amount, in.Base)
	return res, nil
}
