package expense

import (
	"sort"
	"strings"
)

// CommonCurrency is the unit every ledger amount is expressed in.
const CommonCurrency = "USD"

// usdRates holds approximate conversion rates into USD.
var usdRates = map[string]float64{
	"USD": 1,
	"EUR": 1.09,
	"GBP": 1.27,
	"INR": 0.012,
	"CAD": 0.74,
	"AUD": 0.66,
	"JPY": 0.007,
	"CNY": 0.14,
}

// ToCommonCurrency converts amount from the given currency code into USD.
// Codes are matched case-insensitively; unknown or empty codes are treated
// as already being in USD.
func ToCommonCurrency(amount float64, code string) float64 {
	rate, ok := usdRates[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		rate = 1
	}
	return amount * rate
}

// SupportedCurrencies returns the currency codes with a known rate, sorted.
func SupportedCurrencies() []string {
	codes := make([]string, 0, len(usdRates))
	for code := range usdRates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
