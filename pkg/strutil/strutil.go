// Package strutil provides the string formatting helpers used by the report
// and plot layers: mantissa-pattern number formatting and indexed-placeholder
// templates.
package strutil

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{(\d+)\}`)

// Format substitutes {0}, {1}, ... placeholders with the given arguments.
// A placeholder with no matching argument is left as-is.
func Format(template string, args ...interface{}) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		idx, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || idx >= len(args) {
			return m
		}

		return toString(args[idx])
	})
}

func toString(v interface{}) string {
	switch d := v.(type) {
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(d), 'f', -1, 32)
	case string:
		return d
	}
	return fmt.Sprintf("%v", v)
}

// FormatNumber renders v using a "#,###.##"-style mantissa pattern:
// '#' digits after the decimal point are optional, '0' digits are forced,
// a ',' in the integer part enables thousands grouping.
func FormatNumber(v float64, pattern string) string {
	intPart := pattern
	fracPattern := ""
	if idx := strings.IndexByte(pattern, '.'); idx >= 0 {
		intPart = pattern[:idx]
		fracPattern = pattern[idx+1:]
	}

	group := strings.Contains(intPart, ",")

	maxFrac := len(fracPattern)
	minFrac := strings.Count(fracPattern, "0")

	s := strconv.FormatFloat(v, 'f', maxFrac, 64)

	// trim optional fraction digits, but keep at least minFrac
	if maxFrac > minFrac && strings.ContainsRune(s, '.') {
		for strings.HasSuffix(s, "0") && fracDigits(s) > minFrac {
			s = s[:len(s)-1]
		}
		s = strings.TrimSuffix(s, ".")
	}

	if group {
		s = groupThousands(s)
	}

	return s
}

func fracDigits(s string) int {
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return 0
	}
	return len(s) - idx - 1
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart := s
	rest := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		rest = s[idx:]
	}

	var b strings.Builder
	n := len(intPart)
	for i, c := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	out := b.String() + rest
	if neg {
		out = "-" + out
	}
	return out
}

// ToString renders a float with the given number of decimal places,
// rounding half away from zero.
func ToString(v float64, prec int) string {
	pow := math.Pow10(prec)
	rounded := math.Floor(math.Abs(v)*pow+0.5) / pow
	if v < 0 {
		rounded = -rounded
	}
	return strconv.FormatFloat(rounded, 'f', prec, 64)
}

// Repeat repeats s count times with a separator between repetitions.
func Repeat(s string, count int, sep string) string {
	if count <= 0 {
		return ""
	}

	parts := make([]string, count)
	for i := range parts {
		parts[i] = s
	}
	return strings.Join(parts, sep)
}

// PadStart left-pads s with pad until it reaches width runes.
func PadStart(s string, width int, pad string) string {
	if pad == "" {
		return s
	}

	for len([]rune(s)) < width {
		s = pad + s
	}
	return s
}

// Truncate cuts s to at most width runes, appending an ellipsis when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return string(runes[:1])
	}
	return string(runes[:width-1]) + "…"
}
