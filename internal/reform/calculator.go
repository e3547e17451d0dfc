// Package reform computes IBS and CBS under the consumption-tax transition schedule and
// compares them with the current-regime taxes.
package reform

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tributa/internal/domain"
	"tributa/internal/money"
	"tributa/internal/port"
	"tributa/internal/tax"
)

var (
	cfopPattern = regexp.MustCompile(`^[1-7]\d{3}$`)
	ncmPattern  = regexp.MustCompile(`^\d{2,8}$`)
	hundred     = decimal.NewFromInt(100)
)

// Line is one operation line for the new regime. CFOP is the operation-nature code and
// NCM the product-classification code.
type Line struct {
	Base            money.Money `json:"base"`
	CFOP            string      `json:"cfop"`
	NCM             string      `json:"ncm"`
	OriginUF        string      `json:"origin_uf"`
	DestinationUF   string      `json:"destination_uf"`
	DestinationCity string      `json:"destination_city"`
}

// Input is a calculation request.
type Input struct {
	Date  time.Time `json:"date"`
	Lines []Line    `json:"lines"`
}

// LineResult holds the IBS/CBS figures for one line.
type LineResult struct {
	Base      money.Money     `json:"base"`
	Reduction decimal.Decimal `json:"reduction"`
	Immune    bool            `json:"immune"`
	CBS       money.Money     `json:"cbs"`
	IBSState  money.Money     `json:"ibs_state"`
	IBSCity   money.Money     `json:"ibs_city"`
	Total     money.Money     `json:"total"`
}

// Result is the outcome of Calculate.
type Result struct {
	Date     time.Time          `json:"date"`
	Phase    domain.ReformPhase `json:"phase"`
	Lines    []LineResult       `json:"lines"`
	CBS      money.Money        `json:"cbs"`
	IBSState money.Money        `json:"ibs_state"`
	IBSCity  money.Money        `json:"ibs_city"`
	IBS      money.Money        `json:"ibs"`
	Total    money.Money        `json:"total"`
}

// LineError names the line that failed validation or calculation.
type LineError struct {
	Index int
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Index+1, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Calculator computes the new-regime taxes. Rates come from the injected reader.
type Calculator struct {
	rates   port.ReformRateReader
	current *tax.Calculator
}

// NewCalculator creates a Calculator. current runs the current-regime side of comparisons.
func NewCalculator(rates port.ReformRateReader, current *tax.Calculator) *Calculator {
	return &Calculator{rates: rates, current: current}
}

// Validate checks the date window and every line's jurisdiction codes. It runs before any
// rate lookup.
func (in Input) Validate() error {
	if in.Date.IsZero() {
		return fmt.Errorf("%w: operation date", domain.ErrMissingField)
	}
	if !InWindow(in.Date) {
		return fmt.Errorf("%w: %s not in %s..%s", domain.ErrOutsideSchedule,
			in.Date.Format(time.DateOnly), WindowStart.Format(time.DateOnly), WindowEnd.Format(time.DateOnly))
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: at least one line", domain.ErrMissingField)
	}
	for i := range in.Lines {
		if err := in.Lines[i].validate(); err != nil {
			return &LineError{Index: i, Err: err}
		}
	}
	return nil
}

func (l Line) validate() error {
	if l.Base.IsNegative() {
		return fmt.Errorf("%w: negative base %s", domain.ErrInvalidAmount, l.Base)
	}
	if !cfopPattern.MatchString(l.CFOP) {
		return fmt.Errorf("%w: CFOP %q", domain.ErrInvalidCode, l.CFOP)
	}
	if l.NCM != "" && !ncmPattern.MatchString(l.NCM) {
		return fmt.Errorf("%w: NCM %q", domain.ErrInvalidCode, l.NCM)
	}
	if err := domain.ValidateUF(l.OriginUF); err != nil {
		return err
	}
	if err := domain.ValidateUF(l.DestinationUF); err != nil {
		return err
	}
	if err := domain.ValidateMunicipality(l.DestinationCity); err != nil {
		return err
	}
	// the first two digits of an IBGE municipality code are its state
	if uf, ok := domain.UFFromNumericCode(l.DestinationCity[:2]); !ok || uf != l.DestinationUF {
		return fmt.Errorf("%w: municipality %s is not in %s", domain.ErrInvalidJurisdiction, l.DestinationCity, l.DestinationUF)
	}
	return nil
}

// exported operations (CFOP 7xxx) are immune to IBS and CBS
func (l Line) immune() bool { return strings.HasPrefix(l.CFOP, "7") }

// Calculate computes IBS (state and municipal) and CBS for every line.
func (c *Calculator) Calculate(ctx context.Context, in Input) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	phase, err := c.rates.PhaseAt(ctx, in.Date)
	if err != nil {
		return nil, portError("reform phase", err)
	}
	reductions, err := c.rates.ClassificationReductions(ctx, in.Date)
	if err != nil {
		return nil, portError("classification reductions", err)
	}

	currency := in.Lines[0].Base.Currency()
	res := &Result{
		Date:     in.Date,
		Phase:    *phase,
		Lines:    make([]LineResult, 0, len(in.Lines)),
		CBS:      money.Zero(currency),
		IBSState: money.Zero(currency),
		IBSCity:  money.Zero(currency),
	}
	for i, line := range in.Lines {
		lr := calculateLine(line, phase, reductions)
		res.Lines = append(res.Lines, lr)
		if res.CBS, err = res.CBS.Add(lr.CBS); err != nil {
			return nil, &LineError{Index: i, Err: err}
		}
		if res.IBSState, err = res.IBSState.Add(lr.IBSState); err != nil {
			return nil, &LineError{Index: i, Err: err}
		}
		if res.IBSCity, err = res.IBSCity.Add(lr.IBSCity); err != nil {
			return nil, &LineError{Index: i, Err: err}
		}
	}
	res.IBS, _ = res.IBSState.Add(res.IBSCity)
	res.Total, _ = res.IBS.Add(res.CBS)
	return res, nil
}

func calculateLine(line Line, phase *domain.ReformPhase, reductions []domain.ClassificationReduction) LineResult {
	zero := money.Zero(line.Base.Currency())
	lr := LineResult{
		Base:      line.Base.Round(),
		Reduction: decimal.Zero,
		CBS:       zero,
		IBSState:  zero,
		IBSCity:   zero,
		Total:     zero,
	}
	if line.immune() {
		lr.Immune = true
		return lr
	}

	lr.Reduction = reductionFor(line.NCM, reductions)
	factor := hundred.Sub(lr.Reduction).Div(hundred)
	apply := func(rate decimal.Decimal) money.Money {
		return line.Base.MulDecimal(rate.Div(hundred)).MulDecimal(factor).Round()
	}
	lr.CBS = apply(phase.CBSRate)
	lr.IBSState = apply(phase.IBSStateRate)
	lr.IBSCity = apply(phase.IBSCityRate)
	ibs, _ := lr.IBSState.Add(lr.IBSCity)
	lr.Total, _ = ibs.Add(lr.CBS)
	return lr
}

func portError(what string, err error) error {
	if errors.Is(err, domain.ErrRateNotFound) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrDataSource, what, err)
}
