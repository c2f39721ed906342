package fixedn

import (
	"errors"
	"math/big"
	"strings"
)

// ToString renders bi, an integer representing a value scaled by 10^prec,
// as a decimal string, trimming trailing fractional zeroes and the point
// itself when the value is integral.
func ToString(bi *big.Int, prec int) string {
	neg := bi.Sign() < 0
	abs := new(big.Int).Abs(bi)
	s := abs.String()

	if prec == 0 {
		if neg {
			return "-" + s
		}
		return s
	}

	for len(s) <= prec {
		s = "0" + s
	}

	ip := s[:len(s)-prec]
	fp := s[len(s)-prec:]
	fp = strings.TrimRight(fp, "0")

	res := ip
	if fp != "" {
		res += "." + fp
	}
	if neg {
		res = "-" + res
	}
	return res
}

// FromString parses s as a decimal string scaled by 10^prec, rejecting
// strings with more than prec fractional digits.
func FromString(s string, prec int) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("fixedn: empty string")
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
		return nil, errors.New("fixedn: invalid integral part")
	}

	fp := ""
	if len(parts) == 2 {
		fp = parts[1]
		if fp != "" && !isDigits(fp) {
			return nil, errors.New("fixedn: invalid fractional part")
		}
		if len(fp) > prec {
			return nil, errors.New("fixedn: too many fractional digits")
		}
	}
	for len(fp) < prec {
		fp += "0"
	}

	res, ok := new(big.Int).SetString(ip+fp, 10)
	if !ok {
		return nil, errors.New("fixedn: invalid number")
	}
	if neg {
		res.Neg(res)
	}
	return res, nil
}
