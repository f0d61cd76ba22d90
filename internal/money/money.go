// Package money holds fixed-point currency amounts with two decimal places.
package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

const Places = 2

// Amount wraps decimal.Decimal so JSON always renders two places ("9.50").
type Amount struct {
	d decimal.Decimal
}

var Zero = Amount{}

func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

func (a Amount) Mul(qty int) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(int64(qty)))}
}

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }
func (a Amount) IsNegative() bool { return a.d.IsNegative() }
func (a Amount) GreaterThan(b Amount) bool { return a.d.GreaterThan(b.d) }

// HasValidScale reports whether the amount needs no more than two places.
func (a Amount) HasValidScale() bool {
	return a.d.Equal(a.d.Round(Places))
}

func (a Amount) String() string { return a.d.StringFixed(Places) }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts both "9.50" and 9.5.
func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.d.UnmarshalJSON(b)
}

func (a *Amount) Scan(src any) error { return a.d.Scan(src) }

func (a Amount) Value() (driver.Value, error) { return a.String(), nil }

// Sum adds a list of amounts.
func Sum(xs ...Amount) Amount {
	total := Zero
	for _, x := range xs {
		total = total.Add(x)
	}
	return total
}
