package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tributa/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Percentage is a validated rate between 0 and 100 inclusive.
type Percentage struct {
	value decimal.Decimal
}

// NewPercentage validates and wraps v (expressed in percent, e.g. 18 for 18%).
func NewPercentage(v decimal.Decimal) (Percentage, error) {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return Percentage{}, fmt.Errorf("%w: %s%% not in [0, 100]", domain.ErrRateOutOfRange, v.String())
	}
	return Percentage{value: v}, nil
}

// ParsePercentage parses a decimal string such as "18" or "1.65".
func ParsePercentage(s string) (Percentage, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Percentage{}, fmt.Errorf("%w: %q", domain.ErrRateOutOfRange, s)
	}
	return NewPercentage(d)
}

// MustPercent is ParsePercentage for constants and tests.
func MustPercent(s string) Percentage {
	p, err := ParsePercentage(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ZeroPercent is 0%.
func ZeroPercent() Percentage { return Percentage{value: decimal.Zero} }

// Value returns the rate in percent.
func (p Percentage) Value() decimal.Decimal { return p.value }

// Ratio returns the rate as a fraction (18% -> 0.18).
func (p Percentage) Ratio() decimal.Decimal { return p.value.Div(hundred) }

// Complement returns 100% - p.
func (p Percentage) Complement() Percentage { return Percentage{value: hundred.Sub(p.value)} }

func (p Percentage) IsZero() bool               { return p.value.IsZero() }
func (p Percentage) Equal(o Percentage) bool    { return p.value.Equal(o.value) }
func (p Percentage) LessThan(o Percentage) bool { return p.value.LessThan(o.value) }

// String renders the rate with two decimals, e.g. "18.00".
func (p Percentage) String() string { return p.value.StringFixed(2) }

func (p Percentage) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.value.String())
}

func (p *Percentage) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrRateOutOfRange, string(data))
	}
	v, err := NewPercentage(d)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
