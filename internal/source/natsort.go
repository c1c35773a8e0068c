package source

import (
	"strings"
	"unicode"
)

// NaturalLess compares two strings treating digit runs as numbers, so
// "img2.jpg" sorts before "img10.jpg". Comparison is case-insensitive.
func NaturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			an, arest := splitDigits(a)
			bn, brest := splitDigits(b)
			if an != bn {
				// Compare numerically: shorter trimmed run is smaller,
				// equal lengths compare lexically.
				at, bt := strings.TrimLeft(an, "0"), strings.TrimLeft(bn, "0")
				if len(at) != len(bt) {
					return len(at) < len(bt)
				}
				if at != bt {
					return at < bt
				}
				// Same numeric value, differing zero padding; fall back
				// to the raw runs for a stable order.
				return an < bn
			}
			a, b = arest, brest
			continue
		}

		ar := unicode.ToLower(rune(a[0]))
		br := unicode.ToLower(rune(b[0]))
		if ar != br {
			return ar < br
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func splitDigits(s string) (run, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
