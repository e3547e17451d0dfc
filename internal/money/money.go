// Package money holds the fixed-point value primitives used by every calculator:
// Money (amount + currency) and Percentage (0–100 rate).
//
// Arithmetic keeps full decimal precision. Rounding to two places happens only when a
// value leaves the engine (results, XML, SPED, exports) and uses banker's rounding.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tributa/internal/domain"
)

// BRL is the default currency.
const BRL = "BRL"

// Scale is the number of decimal places amounts are rounded to at the boundary.
const Scale = 2

// Money is an immutable amount in a currency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New builds Money from a decimal. Currency defaults to BRL when empty.
func New(amount decimal.Decimal, currency string) Money {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = BRL
	}
	return Money{amount: amount, currency: currency}
}

// FromString parses a decimal string into BRL.
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	return New(d, BRL), nil
}

// MustParse is FromString for constants and tests.
func MustParse(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount in the currency.
func Zero(currency string) Money { return New(decimal.Zero, currency) }

// BRLFromInt is a shorthand for whole BRL amounts.
func BRLFromInt(v int64) Money { return New(decimal.NewFromInt(v), BRL) }

func (m Money) Amount() decimal.Decimal { return m.amount }

func (m Money) Currency() string {
	if m.currency == "" {
		return BRL
	}
	return m.currency
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Add returns m + o. Currencies must match.
func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return New(m.amount.Add(o.amount), m.Currency()), nil
}

// Sub returns m - o. Currencies must match.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return New(m.amount.Sub(o.amount), m.Currency()), nil
}

// MulDecimal scales the amount without rounding.
func (m Money) MulDecimal(d decimal.Decimal) Money {
	return New(m.amount.Mul(d), m.Currency())
}

// ApplyRate returns m × p / 100 without rounding.
func (m Money) ApplyRate(p Percentage) Money {
	return m.MulDecimal(p.Ratio())
}

// Round applies banker's rounding to Scale places.
func (m Money) Round() Money {
	return New(m.amount.RoundBank(Scale), m.Currency())
}

// Max returns the larger of m and o (same currency assumed).
func (m Money) Max(o Money) Money {
	if o.amount.GreaterThan(m.amount) {
		return o
	}
	return m
}

// Equal compares amount and currency exactly.
func (m Money) Equal(o Money) bool {
	return m.Currency() == o.Currency() && m.amount.Equal(o.amount)
}

// WithinTolerance reports whether |m - o| <= tol.
func (m Money) WithinTolerance(o Money, tol decimal.Decimal) bool {
	if m.Currency() != o.Currency() {
		return false
	}
	return m.amount.Sub(o.amount).Abs().LessThanOrEqual(tol)
}

// String renders the rounded amount with a dot separator, e.g. "180.00".
func (m Money) String() string {
	return m.amount.RoundBank(Scale).StringFixedBank(Scale)
}

func (m Money) sameCurrency(o Money) error {
	if m.Currency() != o.Currency() {
		return fmt.Errorf("%w: %s vs %s", domain.ErrCurrencyMismatch, m.Currency(), o.Currency())
	}
	return nil
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON emits the boundary (rounded) representation.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.String(), Currency: m.Currency()})
}

// UnmarshalJSON accepts {"amount":"1.23","currency":"BRL"} or a bare number/string.
func (m *Money) UnmarshalJSON(data []byte) error {
	var obj moneyJSON
	if err := json.Unmarshal(data, &obj); err == nil && obj.Amount != "" {
		d, err := decimal.NewFromString(obj.Amount)
		if err != nil {
			return fmt.Errorf("%w: %q", domain.ErrInvalidAmount, obj.Amount)
		}
		*m = New(d, obj.Currency)
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidAmount, string(data))
	}
	*m = New(d, BRL)
	return nil
}

// Sum adds a list of amounts; an empty list yields zero BRL.
func Sum(values ...Money) (Money, error) {
	if len(values) == 0 {
		return Zero(BRL), nil
	}
	total := Zero(values[0].Currency())
	for _, v := range values {
		var err error
		if total, err = total.Add(v); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}
