package receipt

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/zombor/receipt-tracker/internal/expense"
)

const (
	processFailedMessage = "Failed to process the image."
	invalidImageMessage  = "Invalid image encoding"
)

// Analyzer runs analysis requests against the Service in process
type Analyzer struct {
	service *Service
}

// NewAnalyzer creates an Analyzer backed by service
func NewAnalyzer(service *Service) *Analyzer {
	return &Analyzer{service: service}
}

// Analyze decodes the payload and scans it. Scan failures are reported in the
// response; only cancellation of ctx is returned as an error.
func (a *Analyzer) Analyze(ctx context.Context, req expense.AnalysisRequest) (*expense.AnalysisResponse, error) {
	data, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil || len(data) == 0 {
		slog.Warn("Rejected analysis request", "filename", req.Filename, "error", err)
		return &expense.AnalysisResponse{Success: false, Error: invalidImageMessage}, nil
	}

	scan, err := a.service.ProcessReceipt(ctx, req.Filename, data, req.MimeType)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return &expense.AnalysisResponse{Success: false, Error: processFailedMessage}, nil
	}
	return &expense.AnalysisResponse{Success: true, Data: scan.Payload}, nil
}
