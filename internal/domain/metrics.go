package domain

import "github.com/shopspring/decimal"

// UnknownLabel replaces an empty dimension value.
const UnknownLabel = "Unknown"

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// WastePercent is round1(waste*100/total), or 0 when total is 0.
func WastePercent(waste, total float64) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromFloat(waste).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromFloat(total)).
		Round(1).
		InexactFloat64()
}

// Average is round1(total/count), or 0 when count is 0.
func Average(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return decimal.NewFromFloat(total).
		Div(decimal.NewFromInt(int64(count))).
		Round(1).
		InexactFloat64()
}

// LabelOrUnknown returns label, or UnknownLabel when it is empty.
func LabelOrUnknown(label string) string {
	if label == "" {
		return UnknownLabel
	}
	return label
}
