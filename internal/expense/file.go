package expense

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileDescriptor is a user-selected receipt image
type FileDescriptor struct {
	Name         string
	Size         int64
	LastModified time.Time
	Payload      []byte
	MediaType    string
}

// FileIdentity identifies a file for caching purposes. Two files with the same
// name, size and modification time are treated as the same receipt.
type FileIdentity struct {
	Name         string
	Size         int64
	LastModified int64 // Unix milliseconds
}

// Identity returns the cache key of the file
func (f FileDescriptor) Identity() FileIdentity {
	return FileIdentity{
		Name:         f.Name,
		Size:         f.Size,
		LastModified: f.LastModified.UnixMilli(),
	}
}

func (id FileIdentity) String() string {
	return fmt.Sprintf("%s_%d_%d", id.Name, id.Size, id.LastModified)
}

// LoadFile reads a receipt from disk
func LoadFile(path string) (FileDescriptor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileDescriptor{}, fmt.Errorf("stat receipt: %w", err)
	}
	if info.IsDir() {
		return FileDescriptor{}, fmt.Errorf("%s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FileDescriptor{}, fmt.Errorf("reading receipt: %w", err)
	}

	name := filepath.Base(path)
	return FileDescriptor{
		Name:         name,
		Size:         info.Size(),
		LastModified: info.ModTime(),
		Payload:      data,
		MediaType:    MediaTypeFor(name, data),
	}, nil
}

// MediaTypeFor determines the media type of a receipt from its extension,
// falling back to content sniffing.
func MediaTypeFor(filename string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return "application/octet-stream"
}
