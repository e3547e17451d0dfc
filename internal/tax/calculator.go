package tax

import (
	"fmt"

	"tributa/internal/domain"
	"tributa/internal/money"
)

// Calculator runs the current-regime calculations. It holds only the PIS/COFINS rate
// sets, never per-call state, and is safe for concurrent use.
type Calculator struct {
	rates ContributionRates
}

// NewCalculator creates a Calculator with the given contribution rate sets.
func NewCalculator(rates ContributionRates) (*Calculator, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{rates: rates}, nil
}

// NewDefaultCalculator uses DefaultContributionRates.
func NewDefaultCalculator() *Calculator {
	return &Calculator{rates: DefaultContributionRates()}
}

// AggregateInput selects any subset of taxes for one line. Nil entries are skipped.
type AggregateInput struct {
	ICMS   *ICMSInput         `json:"icms,omitempty"`
	IPI    *IPIInput          `json:"ipi,omitempty"`
	PIS    *ContributionInput `json:"pis,omitempty"`
	COFINS *ContributionInput `json:"cofins,omitempty"`
}

// WithBase returns a copy where every requested tax runs over base.
func (in AggregateInput) WithBase(base money.Money) AggregateInput {
	out := AggregateInput{}
	if in.ICMS != nil {
		v := in.ICMS.WithBase(base)
		out.ICMS = &v
	}
	if in.IPI != nil {
		v := in.IPI.WithBase(base)
		out.IPI = &v
	}
	if in.PIS != nil {
		v := in.PIS.WithBase(base)
		out.PIS = &v
	}
	if in.COFINS != nil {
		v := in.COFINS.WithBase(base)
		out.COFINS = &v
	}
	return out
}

// Empty reports whether no tax was requested.
func (in AggregateInput) Empty() bool {
	return in.ICMS == nil && in.IPI == nil && in.PIS == nil && in.COFINS == nil
}

// AggregateResult holds the per-tax results in ICMS, IPI, PIS, COFINS order.
type AggregateResult struct {
	Results  []Result    `json:"results"`
	Total    money.Money `json:"total"`
	Withheld money.Money `json:"withheld"`
}

// Get returns the result for one tax, if it was requested.
func (r AggregateResult) Get(kind Kind) (Result, bool) {
	for _, res := range r.Results {
		if res.Tax == kind {
			return res, true
		}
	}
	return Result{}, false
}

// Aggregate runs every requested calculation and sums the amounts. Any failure fails the
// whole call with a *StepError naming the tax.
func (c *Calculator) Aggregate(in AggregateInput) (AggregateResult, error) {
	if in.Empty() {
		return AggregateResult{}, fmt.Errorf("%w: no tax requested", domain.ErrMissingField)
	}

	type step struct {
		kind Kind
		run  func() (Result, error)
	}
	var steps []step
	if in.ICMS != nil {
		steps = append(steps, step{KindICMS, func() (Result, error) { return c.ICMS(*in.ICMS) }})
	}
	if in.IPI != nil {
		steps = append(steps, step{KindIPI, func() (Result, error) { return c.IPI(*in.IPI) }})
	}
	if in.PIS != nil {
		steps = append(steps, step{KindPIS, func() (Result, error) { return c.PIS(*in.PIS) }})
	}
	if in.COFINS != nil {
		steps = append(steps, step{KindCOFINS, func() (Result, error) { return c.COFINS(*in.COFINS) }})
	}

	out := AggregateResult{Results: make([]Result, 0, len(steps))}
	amounts := make([]money.Money, 0, len(steps))
	withheld := make([]money.Money, 0, len(steps))
	for _, s := range steps {
		res, err := s.run()
		if err != nil {
			return AggregateResult{}, &StepError{Step: s.kind, Err: err}
		}
		out.Results = append(out.Results, res)
		amounts = append(amounts, res.Amount)
		withheld = append(withheld, res.Withheld)
	}

	var err error
	if out.Total, err = money.Sum(amounts...); err != nil {
		return AggregateResult{}, err
	}
	if out.Withheld, err = money.Sum(withheld...); err != nil {
		return AggregateResult{}, err
	}
	return out, nil
}
