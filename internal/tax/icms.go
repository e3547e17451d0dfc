package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tributa/internal/domain"
	"tributa/internal/money"
)

// interstateRates are the only rates a state may apply to interstate operations
// (Senate Resolutions 22/1989 and 13/2012).
var interstateRates = []money.Percentage{
	money.MustPercent("4"),
	money.MustPercent("7"),
	money.MustPercent("12"),
}

// ICMSInput describes one line for ICMS. Rates are supplied by the caller.
type ICMSInput struct {
	Base       money.Money      `json:"base"`
	Code       domain.ICMSCode  `json:"code"`
	Regime     domain.TaxRegime `json:"regime"`
	Interstate bool             `json:"interstate"`
	Rate       money.Percentage `json:"rate"`
	// Reduction is the base-reduction percentage (CST 20, 70, 90).
	Reduction money.Percentage `json:"reduction"`
	Exempt    bool             `json:"exempt"`

	// Substitution (CST 10, 30, 70, CSOSN 201–203).
	STMargin    money.Percentage `json:"st_margin"`
	STRate      money.Percentage `json:"st_rate"`
	STReduction money.Percentage `json:"st_reduction"`

	// SimplesCreditRate is the credit rate passed on by CSOSN 101.
	SimplesCreditRate money.Percentage `json:"simples_credit_rate"`
}

// WithBase returns a copy of the input over a different base.
func (in ICMSInput) WithBase(base money.Money) ICMSInput {
	in.Base = base
	return in
}

// ICMS computes the state VAT for one line.
func (c *Calculator) ICMS(in ICMSInput) (Result, error) {
	if err := checkBase(in.Base); err != nil {
		return Result{}, err
	}
	branch, err := in.Code.BranchFor(in.Regime)
	if err != nil {
		return Result{}, err
	}
	if !in.Reduction.IsZero() && !allowsReduction(branch) {
		return Result{}, fmt.Errorf("%w: base reduction not allowed for ICMS %s", domain.ErrUnsupportedCombo, in.Code)
	}
	if in.Exempt {
		return zeroResult(KindICMS, in.Base, in.Rate), nil
	}
	if in.Interstate && usesOwnRate(branch) && !isInterstateRate(in.Rate) {
		return Result{}, fmt.Errorf("%w: interstate ICMS rate %s%% (allowed 4, 7, 12)", domain.ErrRateOutOfRange, in.Rate)
	}

	res := zeroResult(KindICMS, in.Base, in.Rate)
	switch branch {
	case domain.ICMSBranchExempt, domain.ICMSBranchSTCharged:
		return res, nil

	case domain.ICMSBranchSimplesCredit:
		// CSOSN 101 carries no debit; the credit passed to the buyer is reported as Amount.
		credit := in.Base.ApplyRate(in.SimplesCreditRate).Round()
		res.Rate = in.SimplesCreditRate
		res.Amount = credit
		res.EffectiveRate = effectiveRate(credit, in.Base)
		return res, nil
	}

	reducedBase := in.Base.MulDecimal(in.Reduction.Complement().Ratio())
	own := money.Zero(in.Base.Currency())
	if branch != domain.ICMSBranchExemptWithST {
		own = reducedBase.ApplyRate(in.Rate)
		res.Base = reducedBase.Round()
		res.Amount = own.Round()
		res.EffectiveRate = effectiveRate(res.Amount, in.Base)
	}

	if branch.HasSubstitution() {
		stBase, withheld, err := substitution(in, reducedBase, own, branch)
		if err != nil {
			return Result{}, err
		}
		res.WithheldBase = stBase.Round()
		res.Withheld = withheld.Round()
	}
	return res, nil
}

// substitution computes the ST base and the withheld amount:
// stBase = base × (1 + MVA) × (1 − stReduction); withheld = stBase × stRate − deduction.
func substitution(in ICMSInput, reducedBase, own money.Money, branch domain.ICMSBranch) (money.Money, money.Money, error) {
	if in.STRate.IsZero() {
		return money.Money{}, money.Money{}, fmt.Errorf("%w: ST rate for ICMS %s", domain.ErrMissingField, in.Code)
	}
	margin := decimal.NewFromInt(1).Add(in.STMargin.Ratio())
	stBase := in.Base.MulDecimal(margin).MulDecimal(in.STReduction.Complement().Ratio())

	deduction := own
	if branch == domain.ICMSBranchExemptWithST && in.Regime == domain.RegimeSimplesNacional {
		// Simples sellers deduct the ICMS a normal-regime seller would have charged.
		deduction = reducedBase.ApplyRate(in.Rate)
	}
	withheld, err := stBase.ApplyRate(in.STRate).Sub(deduction)
	if err != nil {
		return money.Money{}, money.Money{}, err
	}
	return stBase, withheld.Max(money.Zero(withheld.Currency())), nil
}

func usesOwnRate(b domain.ICMSBranch) bool {
	switch b {
	case domain.ICMSBranchTaxed, domain.ICMSBranchTaxedWithST, domain.ICMSBranchReduced,
		domain.ICMSBranchReducedWithST, domain.ICMSBranchOther:
		return true
	default:
		return false
	}
}

func allowsReduction(b domain.ICMSBranch) bool {
	switch b {
	case domain.ICMSBranchReduced, domain.ICMSBranchReducedWithST, domain.ICMSBranchOther:
		return true
	default:
		return false
	}
}

func isInterstateRate(p money.Percentage) bool {
	for _, r := range interstateRates {
		if r.Equal(p) {
			return true
		}
	}
	return false
}
