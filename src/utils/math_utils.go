package utils

import "math"

// AbsFloat returns the magnitude of x.
func AbsFloat(x float64) float64 {
	return math.Abs(x)
}

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
