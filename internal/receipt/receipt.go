package receipt

import "time"

// Scan is an archived receipt analysis
type Scan struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	Filename         string    `json:"filename"` // path relative to storage
	ContentType      string    `json:"content_type"`
	Size             int       `json:"size"`
	Payload          string    `json:"payload"` // JSON text returned by the scanner
	CreatedAt        time.Time `json:"created_at"`
}
