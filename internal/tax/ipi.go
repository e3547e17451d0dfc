package tax

import (
	"tributa/internal/domain"
	"tributa/internal/money"
)

// IPIInput describes one line for IPI.
type IPIInput struct {
	Base   money.Money      `json:"base"`
	Code   domain.IPICode   `json:"code"`
	Rate   money.Percentage `json:"rate"`
	Exempt bool             `json:"exempt"`
}

// WithBase returns a copy of the input over a different base.
func (in IPIInput) WithBase(base money.Money) IPIInput {
	in.Base = base
	return in
}

// IPI computes the federal excise tax. There is no reduction branch.
func (c *Calculator) IPI(in IPIInput) (Result, error) {
	if err := checkBase(in.Base); err != nil {
		return Result{}, err
	}
	code, err := domain.ParseIPICode(string(in.Code))
	if err != nil {
		return Result{}, err
	}
	if in.Exempt || code.ForcesZero() {
		return zeroResult(KindIPI, in.Base, in.Rate), nil
	}

	res := zeroResult(KindIPI, in.Base, in.Rate)
	res.Amount = in.Base.ApplyRate(in.Rate).Round()
	res.EffectiveRate = effectiveRate(res.Amount, in.Base)
	return res, nil
}
