package fixedn

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/neocorelabs/neo-core/pkg/io"
)

// decimals is the number of fractional digits a Fixed8 carries (10^8).
const decimals = 100000000

// precision is the number of decimal digits after the point.
const precision = 8

// Fixed8 represents a fixed-point number with a precision of 8 decimal
// digits, stored as its value multiplied by 10^8. It's the GAS/NEO
// balance representation used throughout the ledger.
type Fixed8 int64

// String implements the Stringer interface.
func (f Fixed8) String() string {
	return ToString(big.NewInt(int64(f)), precision)
}

// Fixed8FromInt64 returns a new Fixed8 from the given int64 value,
// interpreted as an integral number of units.
func Fixed8FromInt64(val int64) Fixed8 {
	return Fixed8(decimals * val)
}

// Fixed8FromFloat returns a new Fixed8 from the given float64 value,
// rounding the fractional part to the nearest satoshi-equivalent.
func Fixed8FromFloat(val float64) Fixed8 {
	return Fixed8(int64(val * decimals))
}

// Fixed8FromString parses s, which may use up to precision fractional
// digits, into a Fixed8.
func Fixed8FromString(s string) (Fixed8, error) {
	if s == "" {
		return 0, errors.New("empty string")
	}

	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	} else if s[0] == '+' {
		s = s[1:]
	}

	parts := strings.SplitN(s, ".", 2)
	ip := parts[0]
	if ip == "" {
		ip = "0"
	}
	if !isDigits(ip) {
		return 0, errors.New("invalid integral part")
	}

	ipVal, err := strconv.ParseInt(ip, 10, 64)
	if err != nil {
		return 0, err
	}

	val := ipVal * decimals

	if len(parts) == 2 {
		fp := parts[1]
		if !isDigits(fp) || len(fp) > precision {
			return 0, errors.New("invalid fractional part")
		}
		for len(fp) < precision {
			fp += "0"
		}
		fpVal, err := strconv.ParseInt(fp, 10, 64)
		if err != nil {
			return 0, err
		}
		val += fpVal
	}

	if neg {
		val = -val
	}
	return Fixed8(val), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Satoshi returns the smallest representable positive Fixed8 value.
func Satoshi() Fixed8 {
	return Fixed8(1)
}

// IntegralValue returns the integer part of the value.
func (f Fixed8) IntegralValue() int64 {
	return int64(f) / decimals
}

// FractionalValue returns the fractional part of the value, in units of
// 10^-8, always non-negative.
func (f Fixed8) FractionalValue() int32 {
	fractional := int64(f) % decimals
	if fractional < 0 {
		fractional = -fractional
	}
	return int32(fractional)
}

// FloatValue returns the value as a float64.
func (f Fixed8) FloatValue() float64 {
	return float64(f) / decimals
}

// Add returns f+g.
func (f Fixed8) Add(g Fixed8) Fixed8 { return f + g }

// Sub returns f-g.
func (f Fixed8) Sub(g Fixed8) Fixed8 { return f - g }

// Div divides f's integral part by i, truncated toward zero, returning
// the raw (unscaled) quotient.
func (f Fixed8) Div(i int64) Fixed8 { return Fixed8(f.IntegralValue() / i) }

// LessThan reports whether f < g.
func (f Fixed8) LessThan(g Fixed8) bool { return f < g }

// GreaterThan reports whether f > g.
func (f Fixed8) GreaterThan(g Fixed8) bool { return f > g }

// Equal reports whether f == g.
func (f Fixed8) Equal(g Fixed8) bool { return f == g }

// CompareTo returns -1, 0 or 1 depending on whether f is less than,
// equal to, or greater than g.
func (f Fixed8) CompareTo(g Fixed8) int {
	switch {
	case f < g:
		return -1
	case f > g:
		return 1
	default:
		return 0
	}
}

// EncodeBinary implements the io.Serializable interface.
func (f Fixed8) EncodeBinary(w *io.BinWriter) {
	w.WriteU64LE(uint64(f))
}

// DecodeBinary implements the io.Serializable interface.
func (f *Fixed8) DecodeBinary(r *io.BinReader) {
	*f = Fixed8(r.ReadU64LE())
}

// MarshalJSON implements the json.Marshaler interface.
func (f Fixed8) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface, accepting
// either a JSON number or a quoted decimal string. The raw decimal text
// is parsed directly (never round-tripped through float64) to avoid
// losing precision in the last digit.
func (f *Fixed8) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	val, err := Fixed8FromString(s)
	if err != nil {
		return err
	}
	*f = val
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (f Fixed8) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (f *Fixed8) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		var fl float64
		if err2 := unmarshal(&fl); err2 != nil {
			return err
		}
		*f = Fixed8FromFloat(fl)
		return nil
	}
	val, err := Fixed8FromString(s)
	if err != nil {
		return err
	}
	*f = val
	return nil
}
