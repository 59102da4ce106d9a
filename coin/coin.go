package coin

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/iov-one/nftmarket/errors"
)

// Coin holds an amount of a single currency. The value is split into a whole
// part and a fractional part counted in 10^-9 units. Both parts carry the
// same sign once normalized.
type Coin struct {
	Whole      int64  `protobuf:"varint,1,opt,name=whole,proto3" json:"whole,omitempty"`
	Fractional int64  `protobuf:"varint,2,opt,name=fractional,proto3" json:"fractional,omitempty"`
	Ticker     string `protobuf:"bytes,3,opt,name=ticker,proto3" json:"ticker,omitempty"`
}

func (c *Coin) Reset()      { *c = Coin{} }
func (*Coin) ProtoMessage() {}

const (
	// MaxInt is the largest whole value a coin can hold.
	MaxInt int64 = 999999999999999 // 10^15-1
	// MinInt is the lowest whole value a coin can hold.
	MinInt = -MaxInt

	// FracUnit is the number of fractional units in one whole.
	FracUnit int64 = 1000000000
	// MaxFrac is the highest fractional value.
	MaxFrac = FracUnit - 1
	// MinFrac is the lowest fractional value.
	MinFrac = -MaxFrac

	fracDigits = 9
)

var (
	isTicker = regexp.MustCompile(`^[A-Z]{3,4}$`).MatchString

	// <sign><whole>[.<fractional>] <ticker>
	humanFormat = regexp.MustCompile(`^(-?)\s*(\d+)(?:\.(\d+))?\s*([A-Z]{3,4})$`)
)

// NewCoin returns a coin. The value is not normalized.
func NewCoin(whole int64, fractional int64, ticker string) Coin {
	return Coin{Whole: whole, Fractional: fractional, Ticker: ticker}
}

// Add returns the sum of both coins. A zero coin without a ticker is
// neutral. Otherwise both coins must be of the same currency, and the sum
// must fit the coin range.
func (c Coin) Add(o Coin) (Coin, error) {
	switch {
	case c.Ticker == "" && c.IsZero():
		return o, nil
	case o.Ticker == "" && o.IsZero():
		return c, nil
	case !c.SameType(o):
		return Coin{}, errors.Wrapf(errors.ErrCurrency, "adding %s to %s", o.Ticker, c.Ticker)
	}
	return NewCoin(c.Whole+o.Whole, c.Fractional+o.Fractional, c.Ticker).normalize()
}

// Negative returns the coin with the sign flipped.
func (c Coin) Negative() Coin {
	return NewCoin(-c.Whole, -c.Fractional, c.Ticker)
}

// Subtract returns c minus amount.
func (c Coin) Subtract(amount Coin) (Coin, error) {
	return c.Add(amount.Negative())
}

// Compare returns 1 if c is greater than o, -1 if it is smaller and 0 if
// both are equal. Currencies are ignored and both coins must be normalized.
func (c Coin) Compare(o Coin) int {
	switch {
	case c.Whole != o.Whole:
		return sign(c.Whole - o.Whole)
	case c.Fractional != o.Fractional:
		return sign(c.Fractional - o.Fractional)
	}
	return 0
}

func sign(n int64) int {
	if n > 0 {
		return 1
	}
	return -1
}

// Equals returns true if both the value and the currency are identical.
func (c Coin) Equals(o Coin) bool {
	return c == o
}

// IsZero returns true if the coin holds no value.
func (c Coin) IsZero() bool {
	return c.Whole == 0 && c.Fractional == 0
}

// IsPositive returns true if the value is greater than zero.
func (c Coin) IsPositive() bool {
	return c.Whole > 0 || (c.Whole == 0 && c.Fractional > 0)
}

// IsNonNegative returns true if the value is zero or more.
func (c Coin) IsNonNegative() bool {
	return c.Whole >= 0 && c.Fractional >= 0
}

// IsGTE returns true if c is of the same currency as o and holds at least
// as much. Both coins must be normalized.
func (c Coin) IsGTE(o Coin) bool {
	return c.SameType(o) && c.Compare(o) >= 0
}

// SameType returns true if both coins are of the same currency.
func (c Coin) SameType(o Coin) bool {
	return c.Ticker == o.Ticker
}

// Validate checks the currency code and the value range. Negative values
// are accepted, so callers check the sign where it matters.
func (c Coin) Validate() error {
	var err error
	if !isTicker(c.Ticker) {
		err = errors.Append(err, errors.Wrapf(errors.ErrCurrency, "invalid currency: %q", c.Ticker))
	}
	if c.Whole < MinInt || c.Whole > MaxInt {
		err = errors.Append(err, errors.Wrap(errors.ErrOverflow, "whole"))
	}
	if c.Fractional < MinFrac || c.Fractional > MaxFrac {
		err = errors.Append(err, errors.Wrap(errors.ErrOverflow, "fractional"))
	}
	if c.Whole != 0 && c.Fractional != 0 && (c.Whole > 0) != (c.Fractional > 0) {
		err = errors.Append(err, errors.Wrap(errors.ErrState, "mismatched sign"))
	}
	return err
}

// normalize carries the fractional overflow into the whole part and aligns
// the signs of both parts. It fails if the whole part leaves the coin range.
func (c Coin) normalize() (Coin, error) {
	c.Whole += c.Fractional / FracUnit
	c.Fractional %= FracUnit

	switch {
	case c.Whole > 0 && c.Fractional < 0:
		c.Whole--
		c.Fractional += FracUnit
	case c.Whole < 0 && c.Fractional > 0:
		c.Whole++
		c.Fractional -= FracUnit
	}

	if c.Whole < MinInt || c.Whole > MaxInt {
		return Coin{}, errors.Wrapf(errors.ErrOverflow, "%d whole", c.Whole)
	}
	return c, nil
}

// UnmarshalJSON accepts both the human readable string, for example
// "10.5 ETH", and the object form with whole, fractional and ticker fields.
func (c *Coin) UnmarshalJSON(raw []byte) error {
	var human string
	if err := json.Unmarshal(raw, &human); err == nil {
		parsed, err := ParseHumanFormat(human)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	// A distinct type does not inherit the UnmarshalJSON method.
	type fields Coin
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return err
	}
	*c = Coin(f)
	return nil
}

// String returns the human readable format of the coin, for example
// "10.5 ETH". A coin without a ticker is rendered without it and cannot be
// parsed back.
func (c Coin) String() string {
	if n, err := c.normalize(); err == nil {
		c = n
	}

	var b strings.Builder
	if c.Whole == 0 && c.Fractional < 0 {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatInt(c.Whole, 10))
	if f := c.Fractional; f != 0 {
		if f < 0 {
			f = -f
		}
		digits := strconv.FormatInt(f, 10)
		digits = strings.Repeat("0", fracDigits-len(digits)) + digits
		b.WriteByte('.')
		b.WriteString(strings.TrimRight(digits, "0"))
	}
	if c.Ticker != "" {
		b.WriteByte(' ')
		b.WriteString(c.Ticker)
	}
	return b.String()
}

// ParseHumanFormat parses a coin written as
//
//   <whole>[.<fractional>] <ticker>
//
// for example "100 ETH" or "-0.25 BTC". At most nine fractional digits are
// accepted.
func ParseHumanFormat(h string) (Coin, error) {
	m := humanFormat.FindStringSubmatch(h)
	if m == nil {
		return Coin{}, errors.Wrapf(errors.ErrInput, "invalid coin format %q", h)
	}
	neg, wholeDigits, fracPart, ticker := m[1] == "-", m[2], m[3], m[4]

	whole, err := strconv.ParseInt(wholeDigits, 10, 64)
	if err != nil || whole > MaxInt {
		return Coin{}, errors.Wrapf(errors.ErrOverflow, "whole value %s", wholeDigits)
	}

	var frac int64
	if fracPart != "" {
		if len(fracPart) > fracDigits {
			return Coin{}, errors.Wrapf(errors.ErrInput, "more than %d fractional digits", fracDigits)
		}
		padded := fracPart + strings.Repeat("0", fracDigits-len(fracPart))
		if frac, err = strconv.ParseInt(padded, 10, 64); err != nil {
			return Coin{}, errors.Wrapf(errors.ErrInput, "fractional value %s", fracPart)
		}
	}

	c := NewCoin(whole, frac, ticker)
	if neg {
		c = c.Negative()
	}
	return c, nil
}

// MustParse parses the human readable format and panics on failure. It is
// meant for tests and static configuration only.
func MustParse(h string) Coin {
	c, err := ParseHumanFormat(h)
	if err != nil {
		panic(err)
	}
	return c
}

// Set implements flag.Value, so a coin can be given on the command line as
// "10 ETH".
func (c *Coin) Set(raw string) error {
	val, err := ParseHumanFormat(raw)
	if err != nil {
		return err
	}
	*c = val
	return nil
}
