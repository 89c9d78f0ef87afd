package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// currencyExponents lists ISO 4217 currencies whose minor unit is not 1/100.
var currencyExponents = map[string]int32{
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0,
	"KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0,
	"XOF": 0, "XPF": 0,
}

// CurrencyExponent returns the number of minor-unit digits for a currency (default 2).
func CurrencyExponent(currencyCode string) int32 {
	if exp, ok := currencyExponents[strings.ToUpper(currencyCode)]; ok {
		return exp
	}
	return 2
}

// FormatMinorUnits renders an amount in minor units as a major-unit decimal string.
// Example: 123456 USD returns "1234.56", 500 JPY returns "500".
func FormatMinorUnits(amount int64, currencyCode string) string {
	exp := CurrencyExponent(currencyCode)
	return decimal.New(amount, -exp).StringFixed(exp)
}
