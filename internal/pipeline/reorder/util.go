package reorder

import "math"

// quantityPrecision absorbs float artifacts such as 0.1*30 = 3.0000000000000004
// before rounding quantities to whole units.
const quantityPrecision = 6

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

func ceilQty(v float64) int {
	return int(math.Ceil(roundFloat(v, quantityPrecision)))
}

func floorQty(v float64) int {
	return int(math.Floor(roundFloat(v, quantityPrecision)))
}
