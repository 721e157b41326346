package domain

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Amount is a non-fractional token quantity in base units with arbitrary
// precision. The zero value is 0. Amounts are immutable: every operation
// returns a new value.
type Amount struct {
	v *big.Int
}

var bigZero = new(big.Int)

func NewAmount(n int64) Amount { return Amount{v: big.NewInt(n)} }

// AmountFromBig copies b.
func AmountFromBig(b *big.Int) Amount {
	if b == nil {
		return Amount{}
	}
	return Amount{v: new(big.Int).Set(b)}
}

// ParseAmount parses a base-10 integer.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidAmount, s)
	}
	return Amount{v: v}, nil
}

// MustAmount is ParseAmount for constants; it panics on malformed input.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) int() *big.Int {
	if a.v == nil {
		return bigZero
	}
	return a.v
}

// Big returns a copy of the underlying integer.
func (a Amount) Big() *big.Int { return new(big.Int).Set(a.int()) }

func (a Amount) Add(b Amount) Amount { return Amount{v: new(big.Int).Add(a.int(), b.int())} }
func (a Amount) Sub(b Amount) Amount { return Amount{v: new(big.Int).Sub(a.int(), b.int())} }

func (a Amount) MulInt64(n int64) Amount {
	return Amount{v: new(big.Int).Mul(a.int(), big.NewInt(n))}
}

func (a Amount) Cmp(b Amount) int { return a.int().Cmp(b.int()) }
func (a Amount) Sign() int        { return a.int().Sign() }
func (a Amount) IsZero() bool     { return a.Sign() == 0 }
func (a Amount) String() string   { return a.int().String() }

// MarshalJSON encodes the amount as a decimal string so that values beyond
// 2^53 survive JavaScript clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

// UnmarshalJSON accepts both a decimal string and a bare JSON number.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*a = Amount{}
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value stores the amount as its decimal string.
func (a Amount) Value() (driver.Value, error) { return a.String(), nil }

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		return a.scanString(v)
	case []byte:
		return a.scanString(string(v))
	case int64:
		*a = NewAmount(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Amount", src)
	}
}

func (a *Amount) scanString(s string) error {
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
