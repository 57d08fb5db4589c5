package expense

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Receipt categories the scanner is asked to choose from
const (
	CategoryGroceries      = "Groceries"
	CategoryDining         = "Dining"
	CategoryTransportation = "Transportation"
	CategoryUtilities      = "Utilities"
	CategoryShopping       = "Shopping"
	CategoryEntertainment  = "Entertainment"
	CategoryHealth         = "Health"
	CategoryServices       = "Services"
	CategoryTravel         = "Travel"
	CategoryOther          = "Other"
)

// Categories lists the closed set of receipt categories
var Categories = []string{
	CategoryGroceries,
	CategoryDining,
	CategoryTransportation,
	CategoryUtilities,
	CategoryShopping,
	CategoryEntertainment,
	CategoryHealth,
	CategoryServices,
	CategoryTravel,
	CategoryOther,
}

// dateLayouts are tried in order when reading a transaction date
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
}

// LineItem is a single purchased item
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
}

// ReceiptData contains the fields extracted from one receipt
type ReceiptData struct {
	VendorName      string     `json:"vendorName,omitempty"`
	TransactionDate string     `json:"transactionDate,omitempty"`
	LineItems       []LineItem `json:"lineItems"`
	Subtotal        *float64   `json:"subtotal"`
	Tax             *float64   `json:"tax"`
	Tip             *float64   `json:"tip"`
	Total           *float64   `json:"total"`
	Currency        string     `json:"currency,omitempty"`
	Category        string     `json:"category,omitempty"`
}

// flexAmount decodes an amount written as a JSON number, a numeric string or
// null. Strings that are not numbers decode as absent.
type flexAmount struct {
	value *float64
}

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		a.value = nil
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			a.value = nil
			return nil
		}
		a.value = &v
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	a.value = &v
	return nil
}

func (a flexAmount) or(def float64) float64 {
	if a.value == nil {
		return def
	}
	return *a.value
}

// UnmarshalJSON accepts quantities and prices written as strings
func (l *LineItem) UnmarshalJSON(b []byte) error {
	type plain LineItem
	var raw struct {
		plain
		Quantity flexAmount `json:"quantity"`
		Price    flexAmount `json:"price"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*l = LineItem(raw.plain)
	l.Quantity = raw.Quantity.or(0)
	l.Price = raw.Price.or(0)
	return nil
}

// UnmarshalJSON accepts amounts written as strings, as models often quote them
func (r *ReceiptData) UnmarshalJSON(b []byte) error {
	type plain ReceiptData
	var raw struct {
		plain
		Subtotal flexAmount `json:"subtotal"`
		Tax      flexAmount `json:"tax"`
		Tip      flexAmount `json:"tip"`
		Total    flexAmount `json:"total"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = ReceiptData(raw.plain)
	r.Subtotal = raw.Subtotal.value
	r.Tax = raw.Tax.value
	r.Tip = raw.Tip.value
	r.Total = raw.Total.value
	return nil
}

// Date parses the transaction date. It reports false when the date is
// missing or in an unrecognized format.
func (r ReceiptData) Date() (time.Time, bool) {
	raw := strings.TrimSpace(r.TransactionDate)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// MonthKey returns the YYYY-MM bucket of the transaction date
func (r ReceiptData) MonthKey() (string, bool) {
	d, ok := r.Date()
	if !ok {
		return "", false
	}
	return d.Format("2006-01"), true
}

// LedgerCategory returns the category the receipt is accounted under.
// Unknown categories are kept verbatim; only a missing one becomes Other.
func (r ReceiptData) LedgerCategory() string {
	category := strings.TrimSpace(r.Category)
	if category == "" {
		return CategoryOther
	}
	return category
}

// KnownCategory reports whether the receipt's category is one of Categories
func (r ReceiptData) KnownCategory() bool {
	category := strings.TrimSpace(r.Category)
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// CommonAmount returns the receipt total converted to USD, or zero when the
// total is missing.
func (r ReceiptData) CommonAmount() float64 {
	if r.Total == nil {
		return 0
	}
	return ToCommonCurrency(*r.Total, r.Currency)
}
