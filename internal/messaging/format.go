package messaging

import (
	"fmt"
	"math"
	"strconv"
)

// FormatIDNumber formats a number using Indonesian locale conventions:
// thousands separator as dot and decimal separator as comma.
// When the fractional part is zero after rounding, the decimal part is omitted.
// Example: 1234.5 (2 decimals) => "1.234,50"; 1000.0 => "1.000".
func FormatIDNumber(v float64, decimals int) string {
	neg := v < 0
	if neg {
		v = -v
	}

	if decimals < 0 {
		decimals = 0
	}

	// round to requested decimal places
	factor := int64(math.Pow(10, float64(decimals)))
	scaled := int64(math.Round(v * float64(factor)))
	intPart := scaled / factor
	fracPart := scaled % factor

	s := groupThousands(strconv.FormatInt(intPart, 10))

	prefix := ""
	if neg && scaled != 0 {
		prefix = "-"
	}

	if decimals == 0 || fracPart == 0 {
		return prefix + s
	}

	return fmt.Sprintf("%s%s,%0*d", prefix, s, decimals, fracPart)
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}

	head := len(s) % 3
	if head == 0 {
		head = 3
	}

	out := make([]byte, 0, len(s)+len(s)/3)
	out = append(out, s[:head]...)
	for i := head; i < len(s); i += 3 {
		out = append(out, '.')
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
