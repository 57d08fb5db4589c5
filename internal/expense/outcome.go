package expense

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ReasonUnparseable is the failure reason for payloads that are not valid receipt JSON
const ReasonUnparseable = "Failed to parse JSON response"

// reasonUnknown is used when the backend reports a failure without a message
const reasonUnknown = "Unknown error"

var errNotObject = errors.New("payload is not a JSON object")

// AnalysisRequest is sent to the external analysis call for one file
type AnalysisRequest struct {
	Image    string `json:"image"` // base64 encoded payload
	MimeType string `json:"mimeType"`
	Filename string `json:"filename,omitempty"`
}

// AnalysisResponse is the raw per-file answer of the external analysis call
type AnalysisResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`  // JSON encoded ReceiptData on success
	Error   string `json:"error,omitempty"` // message on failure
}

// Outcome is the result of analyzing one file. It is either a Success or a Failure.
type Outcome interface {
	Filename() string
	Succeeded() bool
	outcome()
}

// Success carries the receipt data decoded from the backend response
type Success struct {
	File string
	Data ReceiptData
}

func (s Success) Filename() string { return s.File }
func (s Success) Succeeded() bool  { return true }
func (Success) outcome()           {}

// MarshalJSON encodes the outcome as a result card
func (s Success) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Filename     string      `json:"filename"`
		Success      bool        `json:"success"`
		Data         ReceiptData `json:"data"`
		CommonAmount float64     `json:"commonAmount"`
	}{
		Filename:     s.File,
		Success:      true,
		Data:         s.Data,
		CommonAmount: s.Data.CommonAmount(),
	})
}

// Failure records why a file could not be turned into receipt data.
// RawPayload is only set when the backend succeeded but its payload could not be decoded.
type Failure struct {
	File       string
	Reason     string
	RawPayload string
}

func (f Failure) Filename() string { return f.File }
func (f Failure) Succeeded() bool  { return false }
func (Failure) outcome()           {}

// MarshalJSON encodes the outcome as a result card
func (f Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Filename string `json:"filename"`
		Success  bool   `json:"success"`
		Error    string `json:"error"`
		RawData  string `json:"rawData,omitempty"`
	}{
		Filename: f.File,
		Success:  false,
		Error:    f.Reason,
		RawData:  f.RawPayload,
	})
}

// BuildOutcome turns a backend response into the outcome for file
func BuildOutcome(file FileDescriptor, resp AnalysisResponse) Outcome {
	if !resp.Success {
		reason := strings.TrimSpace(resp.Error)
		if reason == "" {
			reason = reasonUnknown
		}
		return Failure{File: file.Name, Reason: reason}
	}

	data, err := decodeReceipt(resp.Data)
	if err != nil {
		return Failure{File: file.Name, Reason: ReasonUnparseable, RawPayload: resp.Data}
	}
	return Success{File: file.Name, Data: *data}
}

// decodeReceipt decodes the embedded receipt payload
func decodeReceipt(payload string) (*ReceiptData, error) {
	trimmed := strings.TrimSpace(payload)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, errNotObject
	}

	var data ReceiptData
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling receipt: %w", err)
	}
	return &data, nil
}
