package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zombor/receipt-tracker/internal/expense"
)

const (
	multipartMemory       = int64(32 << 20)
	tooLargeMessage       = "Upload is too large. Please compress or resize your images."
	invalidLoginMessage   = "Invalid username or password"
	invalidRequestMessage = "Invalid request body"
	noImageMessage        = "No image provided"
)

// errorResponse is the JSON body of every API error
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type chartsResponse struct {
	State  expense.State          `json:"state"`
	Charts expense.Charts         `json:"charts"`
	Ledger expense.LedgerSnapshot `json:"ledger"`
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON encodes body with the given status code
func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorResponse{Error: message})
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}

// handleLogin exchanges the configured credentials for a bearer token
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, invalidRequestMessage)
		return
	}

	if err := s.credentials.Check(req.Username, req.Password); err != nil {
		slog.Warn("Rejected login", "username", req.Username)
		writeError(w, http.StatusUnauthorized, invalidLoginMessage)
		return
	}

	token, expiresAt, err := s.issuer.Issue(req.Username)
	if err != nil {
		slog.Error("Error issuing token", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	slog.Info("User logged in", "username", req.Username, "expires_at", expiresAt)
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Token: token, ExpiresAt: expiresAt})
}

// handleProcessReceipt analyzes one base64 encoded receipt
func (s *Server) handleProcessReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var req expense.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage)
			return
		}
		writeError(w, http.StatusBadRequest, invalidRequestMessage)
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, noImageMessage)
		return
	}

	resp, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		slog.Warn("Analysis interrupted", "error", err)
		writeError(w, http.StatusInternalServerError, processFailedMessage)
		return
	}

	switch {
	case resp.Success:
		writeJSON(w, http.StatusOK, resp)
	case resp.Error == invalidImageMessage:
		writeJSON(w, http.StatusBadRequest, resp)
	default:
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

// handleRunBatch runs the uploaded files through the caller's expense session
func (s *Server) handleRunBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage)
			return
		}
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files, err := batchFiles(r.MultipartForm)
	if err != nil {
		slog.Error("Error reading uploaded files", "error", err)
		writeError(w, http.StatusBadRequest, "Error reading file. Please try again.")
		return
	}

	user := userFrom(r.Context())
	report, err := s.sessions.Get(user).Run(r.Context(), files)
	if errors.Is(err, expense.ErrSessionClosed) {
		// dropped between Get and Run
		report, err = s.sessions.Get(user).Run(r.Context(), files)
	}
	switch {
	case errors.Is(err, expense.ErrNoFiles):
		writeError(w, http.StatusBadRequest, expense.StatusNoFiles)
	case errors.Is(err, expense.ErrBatchRunning):
		writeError(w, http.StatusConflict, "A batch is already running for this session")
	case errors.Is(err, expense.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, report)
	case err != nil:
		writeError(w, http.StatusInternalServerError, expense.FailedStatus(errors.Unwrap(err)))
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

// batchFiles reads the "files" parts of form in upload order. The optional
// "lastModified" values, in epoch milliseconds, pair with the files by position.
func batchFiles(form *multipart.Form) ([]expense.FileDescriptor, error) {
	headers := form.File["files"]
	modified := form.Value["lastModified"]

	files := make([]expense.FileDescriptor, 0, len(headers))
	for i, header := range headers {
		data, err := readPart(header)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", header.Filename, err)
		}

		file := expense.FileDescriptor{
			Name:      header.Filename,
			Size:      header.Size,
			Payload:   data,
			MediaType: partMediaType(header, data),
		}
		if i < len(modified) {
			if ms, err := strconv.ParseInt(strings.TrimSpace(modified[i]), 10, 64); err == nil {
				file.LastModified = time.UnixMilli(ms)
			}
		}
		files = append(files, file)
	}
	return files, nil
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// partMediaType prefers the declared content type and falls back to the file name and content
func partMediaType(header *multipart.FileHeader, data []byte) string {
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType == "" || contentType == "application/octet-stream" {
		return expense.MediaTypeFor(header.Filename, data)
	}
	return contentType
}

// handleCharts returns the charts of the caller's session
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Get(userFrom(r.Context()))
	writeJSON(w, http.StatusOK, chartsResponse{
		State:  session.State(),
		Charts: session.Charts(),
		Ledger: session.Ledger(),
	})
}

// handleEndSession discards the caller's cache and ledger
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if err := s.sessions.Drop(user); err != nil {
		slog.Warn("Session not ended", "user", user, "error", err)
		writeError(w, http.StatusConflict, "A batch is still running")
		return
	}
	slog.Info("Session ended", "user", user)
	w.WriteHeader(http.StatusNoContent)
}

// handleListScans returns all archived scans
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	scans, err := s.service.ListScans()
	if err != nil {
		slog.Error("Error listing scans", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, scans)
}

// handleGetScan returns a single scan
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	scan, err := s.service.GetScan(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Scan not found")
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

// handleGetScanFile returns the stored image of a scan
func (s *Server) handleGetScanFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetScanFile(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteScan deletes a scan and its image
func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteScan(r.PathValue("id")); err != nil {
		if errors.Is(err, ErrScanNotFound) {
			writeError(w, http.StatusNotFound, "Scan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error deleting scan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
