// Package tax implements the current-regime Brazilian tax calculators (ICMS, IPI, PIS,
// COFINS) as pure functions from one transaction line to a Result.
package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tributa/internal/domain"
	"tributa/internal/money"
)

// Kind names a tax.
type Kind string

const (
	KindICMS   Kind = "ICMS"
	KindIPI    Kind = "IPI"
	KindPIS    Kind = "PIS"
	KindCOFINS Kind = "COFINS"
)

// Result is the outcome of one calculation. Amounts are rounded (banker's, 2 places).
type Result struct {
	Tax    Kind             `json:"tax"`
	Base   money.Money      `json:"base"`
	Rate   money.Percentage `json:"rate"`
	Amount money.Money      `json:"amount"`
	// Withheld is the ICMS substitution amount. It is never part of Amount.
	Withheld     money.Money `json:"withheld"`
	WithheldBase money.Money `json:"withheld_base"`
	// EffectiveRate is Amount over Base in percent. Per-unit levies can exceed 100.
	EffectiveRate decimal.Decimal `json:"effective_rate"`
}

// StepError names the calculation that failed inside a multi-step operation.
type StepError struct {
	Step Kind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s calculation failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func zeroResult(kind Kind, base money.Money, rate money.Percentage) Result {
	zero := money.Zero(base.Currency())
	return Result{
		Tax:           kind,
		Base:          base.Round(),
		Rate:          rate,
		EffectiveRate: decimal.Zero,
		Amount:        zero,
		Withheld:      zero,
		WithheldBase:  zero,
	}
}

// effectiveRate is amount / original base in percent, kept at 4 places.
// It is not bounded to 100.
func effectiveRate(amount, originalBase money.Money) decimal.Decimal {
	if originalBase.IsZero() {
		return decimal.Zero
	}
	return amount.Amount().Div(originalBase.Amount()).Mul(decimal.NewFromInt(100)).Round(4)
}

func checkBase(base money.Money) error {
	if base.IsNegative() {
		return fmt.Errorf("%w: negative base %s", domain.ErrInvalidAmount, base.String())
	}
	return nil
}
