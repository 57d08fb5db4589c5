package expense

// Ledger accumulates normalized spend by month and by category.
// Entries are only ever added to, never removed.
type Ledger struct {
	monthly    map[string]float64
	categories map[string]float64
}

// LedgerSnapshot is a point-in-time copy of the ledger
type LedgerSnapshot struct {
	Monthly    map[string]float64 `json:"monthly"`
	Categories map[string]float64 `json:"categories"`
}

// NewLedger creates an empty Ledger
func NewLedger() *Ledger {
	return &Ledger{
		monthly:    make(map[string]float64),
		categories: make(map[string]float64),
	}
}

// Contribute adds a receipt to the ledger. Receipts without a positive total
// or a readable transaction date are ignored. It reports whether the ledger changed.
func (l *Ledger) Contribute(data ReceiptData) bool {
	// Refunds and zero totals are not spend; the pie needs every slice positive.
	if data.Total == nil || *data.Total <= 0 {
		return false
	}
	monthKey, ok := data.MonthKey()
	if !ok {
		return false
	}

	amount := ToCommonCurrency(*data.Total, data.Currency)
	l.monthly[monthKey] += amount
	l.categories[data.LedgerCategory()] += amount
	return true
}

// Snapshot copies the current state of the ledger
func (l *Ledger) Snapshot() LedgerSnapshot {
	snap := LedgerSnapshot{
		Monthly:    make(map[string]float64, len(l.monthly)),
		Categories: make(map[string]float64, len(l.categories)),
	}
	for k, v := range l.monthly {
		snap.Monthly[k] = v
	}
	for k, v := range l.categories {
		snap.Categories[k] = v
	}
	return snap
}

// Empty reports whether nothing has been contributed yet
func (s LedgerSnapshot) Empty() bool {
	return len(s.Monthly) == 0
}

// Total returns the total spend in the snapshot
func (s LedgerSnapshot) Total() float64 {
	return sum(s.Monthly)
}

func sum(m map[string]float64) float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	return total
}
