package scanning

import "context"

// Scanner defines the interface for receipt scanning operations
type Scanner interface {
	// ScanReceipt analyzes a receipt image or PDF and returns the model's
	// JSON description of it. The text is not validated.
	ScanReceipt(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}
