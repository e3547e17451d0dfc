package reform

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tributa/internal/domain"
	"tributa/internal/money"
	"tributa/internal/tax"
)

// Recommendation classifies the percentage change of the tax burden.
type Recommendation string

const (
	RecommendationSignificantReduction Recommendation = "SIGNIFICANT_REDUCTION"
	RecommendationReduction            Recommendation = "REDUCTION"
	RecommendationNeutral              Recommendation = "NEUTRAL"
	RecommendationIncrease             Recommendation = "INCREASE"
	RecommendationSignificantIncrease  Recommendation = "SIGNIFICANT_INCREASE"
)

var (
	significantBand = decimal.NewFromInt(10)
	neutralBand     = decimal.NewFromInt(2)
)

// Recommend maps a percentage change to its band:
// ≤ −10 significant reduction, (−10, −2) reduction, [−2, 2] neutral, (2, 10) increase,
// ≥ 10 significant increase.
func Recommend(change decimal.Decimal) Recommendation {
	switch {
	case change.LessThanOrEqual(significantBand.Neg()):
		return RecommendationSignificantReduction
	case change.LessThan(neutralBand.Neg()):
		return RecommendationReduction
	case change.LessThanOrEqual(neutralBand):
		return RecommendationNeutral
	case change.LessThan(significantBand):
		return RecommendationIncrease
	default:
		return RecommendationSignificantIncrease
	}
}

// CompareLine pairs a new-regime line with the current-regime taxes that apply to it.
// The current side always runs over Line.Base.
type CompareLine struct {
	Line
	Current tax.AggregateInput `json:"current"`
}

// CompareInput is a comparison request.
type CompareInput struct {
	Date  time.Time     `json:"date"`
	Lines []CompareLine `json:"lines"`
}

// ComparisonLine holds the per-line totals of both regimes.
type ComparisonLine struct {
	Base    money.Money `json:"base"`
	CFOP    string      `json:"cfop"`
	NCM     string      `json:"ncm"`
	Current money.Money `json:"current"`
	New     money.Money `json:"new"`
}

// Comparison is the outcome of Compare.
type Comparison struct {
	Date             time.Time        `json:"date"`
	CurrentTotal     money.Money      `json:"current_total"`
	NewTotal         money.Money      `json:"new_total"`
	Difference       money.Money      `json:"difference"`
	PercentageChange decimal.Decimal  `json:"percentage_change"`
	Recommendation   Recommendation   `json:"recommendation"`
	Lines            []ComparisonLine `json:"lines"`
	New              *Result          `json:"new_regime"`
}

// Compare runs the current-regime aggregate and the new-regime calculation over the same
// bases. PercentageChange is (new − current) / current × 100 over the rounded totals.
func (c *Calculator) Compare(ctx context.Context, in CompareInput) (*Comparison, error) {
	newIn := Input{Date: in.Date, Lines: make([]Line, len(in.Lines))}
	for i := range in.Lines {
		newIn.Lines[i] = in.Lines[i].Line
	}
	if err := newIn.Validate(); err != nil {
		return nil, err
	}

	currency := in.Lines[0].Base.Currency()
	currentTotal := money.Zero(currency)
	lines := make([]ComparisonLine, len(in.Lines))
	for i, cl := range in.Lines {
		agg, err := c.current.Aggregate(cl.Current.WithBase(cl.Base))
		if err != nil {
			return nil, &LineError{Index: i, Err: err}
		}
		if currentTotal, err = currentTotal.Add(agg.Total); err != nil {
			return nil, &LineError{Index: i, Err: err}
		}
		lines[i] = ComparisonLine{Base: cl.Base.Round(), CFOP: cl.CFOP, NCM: cl.NCM, Current: agg.Total}
	}

	newRes, err := c.Calculate(ctx, newIn)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].New = newRes.Lines[i].Total
	}

	currentTotal = currentTotal.Round()
	newTotal := newRes.Total.Round()
	diff, err := newTotal.Sub(currentTotal)
	if err != nil {
		return nil, err
	}

	change, err := percentageChange(currentTotal, newTotal)
	if err != nil {
		return nil, err
	}
	return &Comparison{
		Date:             in.Date,
		CurrentTotal:     currentTotal,
		NewTotal:         newTotal,
		Difference:       diff,
		PercentageChange: change,
		Recommendation:   Recommend(change),
		Lines:            lines,
		New:              newRes,
	}, nil
}

func percentageChange(current, next money.Money) (decimal.Decimal, error) {
	if current.IsZero() {
		if next.IsZero() {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("%w: new-regime total %s has no baseline", domain.ErrZeroCurrentBurden, next)
	}
	return next.Amount().Sub(current.Amount()).Div(current.Amount()).Mul(hundred), nil
}
