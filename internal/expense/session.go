package expense

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrNoFiles is returned when a batch is started without any files
	ErrNoFiles = errors.New("no files selected")

	// ErrUnauthorized is returned by an Analyzer when the session credential
	// is missing, invalid or expired
	ErrUnauthorized = errors.New("authentication failed")

	// ErrBatchRunning is returned when a batch is started while another one is in progress
	ErrBatchRunning = errors.New("a batch is already running")

	// ErrSessionClosed is returned by Run once the session has been retired
	ErrSessionClosed = errors.New("session closed")
)

// StatusNoFiles is reported when a batch is started without files
const StatusNoFiles = "Please select at least one receipt image!"

// Status lines reported while a batch runs
const (
	statusAnalyzing = "Analyzing %d receipt(s)..."
	statusFile      = "Processing receipt %d of %d: %s"
	statusCompleted = "Completed processing %d receipt(s)"
	statusAborted   = "Session expired. Please log in again."
	statusFailed    = "Failed to process receipts: %v"
)

// State is the lifecycle state of a batch
type State int

const (
	Idle State = iota
	Running
	Aborted
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Aborted:
		return "aborted"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FailedStatus is the status line of a batch ended by an unexpected error
func FailedStatus(err error) string {
	return fmt.Sprintf(statusFailed, err)
}

// Analyzer is the external analysis call
type Analyzer interface {
	// Analyze sends one encoded receipt for analysis. It returns ErrUnauthorized
	// when the credential is rejected; any other error is a transport failure.
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error)
}

// Invalidator discards the session credential after an authentication failure
type Invalidator interface {
	Invalidate()
}

// ProgressReporter receives the user-visible progress of a batch
type ProgressReporter interface {
	// Status is called with every progress or terminal status line
	Status(message string)
	// ChartsUpdated is called after each ledger contribution
	ChartsUpdated(charts Charts)
}

// IDGenerator generates batch IDs
type IDGenerator interface {
	Generate() string
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate() {}

// LogReporter reports batch progress through slog
type LogReporter struct{}

func (LogReporter) Status(message string) {
	slog.Info("Batch status", "status", message)
}

func (LogReporter) ChartsUpdated(charts Charts) {
	slog.Debug("Charts updated",
		"months", len(charts.Monthly.Points),
		"categories", len(charts.Categories.Slices),
		"total", charts.Monthly.Total,
	)
}

// BatchReport is the result of one batch run
type BatchReport struct {
	ID       string    `json:"id"`
	State    State     `json:"state"`
	Outcomes []Outcome `json:"outcomes"`
	Charts   Charts    `json:"charts"`
	Status   string    `json:"status"`
}

// Session owns the cache and the ledger for one user session and runs batches against them.
type Session struct {
	analyzer    Analyzer
	invalidator Invalidator
	reporter    ProgressReporter
	idGenerator IDGenerator

	runMu  sync.Mutex
	closed bool // guarded by runMu

	mu     sync.RWMutex
	state  State
	cache  *Cache
	ledger *Ledger
}

// NewSession creates a Session. A nil invalidator or reporter is replaced by a
// no-op invalidator and a LogReporter.
func NewSession(analyzer Analyzer, invalidator Invalidator, reporter ProgressReporter) *Session {
	return NewSessionWithDeps(analyzer, invalidator, reporter, uuidGenerator{})
}

// NewSessionWithDeps creates a Session with a custom ID generator for testing
func NewSessionWithDeps(analyzer Analyzer, invalidator Invalidator, reporter ProgressReporter, idGen IDGenerator) *Session {
	if invalidator == nil {
		invalidator = nopInvalidator{}
	}
	if reporter == nil {
		reporter = LogReporter{}
	}
	return &Session{
		analyzer:    analyzer,
		invalidator: invalidator,
		reporter:    reporter,
		idGenerator: idGen,
		state:       Idle,
		cache:       NewCache(),
		ledger:      NewLedger(),
	}
}

// State returns the current state of the session
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Ledger returns a snapshot of the accumulated spend
func (s *Session) Ledger() LedgerSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Snapshot()
}

// Charts derives the charts from the current ledger
func (s *Session) Charts() Charts {
	return BuildCharts(s.Ledger())
}

// Retire stops the session from running further batches. It fails with
// ErrBatchRunning while a batch is in progress.
func (s *Session) Retire() error {
	if !s.runMu.TryLock() {
		return ErrBatchRunning
	}
	defer s.runMu.Unlock()
	s.closed = true
	return nil
}

// batch is the progress of one Run
type batch struct {
	id       string
	files    []FileDescriptor
	next     int
	outcomes []Outcome
}

// Run processes files one after another. Files already analyzed in this
// session are served from the cache. An authentication failure aborts the
// batch and invalidates the session; contributions made before it are kept.
// Any other analyzer error ends the batch with a single status message.
func (s *Session) Run(ctx context.Context, files []FileDescriptor) (*BatchReport, error) {
	if !s.runMu.TryLock() {
		return nil, ErrBatchRunning
	}
	defer s.runMu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if len(files) == 0 {
		s.reporter.Status(StatusNoFiles)
		return nil, ErrNoFiles
	}

	b := &batch{
		id:       s.idGenerator.Generate(),
		files:    files,
		outcomes: make([]Outcome, 0, len(files)),
	}
	slog.Info("Starting batch", "batch_id", b.id, "files", len(files))
	s.setState(Running)
	defer s.setState(Idle)
	s.reporter.Status(fmt.Sprintf(statusAnalyzing, len(files)))

	state := Running
	var err error
	for state == Running {
		state, err = s.advance(ctx, b)
		s.setState(state)
	}

	switch state {
	case Completed:
		report := s.report(b, Completed, fmt.Sprintf(statusCompleted, len(files)))
		slog.Info("Batch completed", "batch_id", b.id, "outcomes", len(b.outcomes))
		return report, nil
	case Aborted:
		slog.Warn("Batch aborted", "batch_id", b.id, "processed", len(b.outcomes), "error", err)
		s.invalidator.Invalidate()
		report := s.report(b, Aborted, statusAborted)
		return report, fmt.Errorf("batch %s aborted: %w", b.id, err)
	default:
		slog.Error("Batch failed", "batch_id", b.id, "error", err)
		s.reporter.Status(FailedStatus(err))
		return nil, fmt.Errorf("processing receipts: %w", err)
	}
}

// advance processes the next file of b and returns the state the batch moves to
func (s *Session) advance(ctx context.Context, b *batch) (State, error) {
	if b.next >= len(b.files) {
		return Completed, nil
	}
	if err := ctx.Err(); err != nil {
		return Idle, err
	}

	index := b.next
	file := b.files[index]
	b.next++

	id := file.Identity()
	outcome, ok := s.cache.Lookup(id)
	if ok {
		slog.Debug("Using cached outcome", "batch_id", b.id, "file", id.String())
	} else {
		s.reporter.Status(fmt.Sprintf(statusFile, index+1, len(b.files), file.Name))

		resp, err := s.analyzer.Analyze(ctx, AnalysisRequest{
			Image:    base64.StdEncoding.EncodeToString(file.Payload),
			MimeType: file.MediaType,
			Filename: file.Name,
		})
		if errors.Is(err, ErrUnauthorized) {
			return Aborted, err
		}
		if err != nil {
			return Idle, fmt.Errorf("analyzing %s: %w", file.Name, err)
		}
		if resp == nil {
			return Idle, fmt.Errorf("analyzing %s: empty response", file.Name)
		}

		outcome = BuildOutcome(file, *resp)
		s.cache.Store(id, outcome)
		if success, ok := outcome.(Success); ok {
			s.contribute(success.Data)
		}
	}

	b.outcomes = append(b.outcomes, outcome)
	if b.next >= len(b.files) {
		return Completed, nil
	}
	return Running, nil
}

// contribute folds a successful receipt into the ledger and publishes the new charts
func (s *Session) contribute(data ReceiptData) {
	s.mu.Lock()
	changed := s.ledger.Contribute(data)
	snap := s.ledger.Snapshot()
	s.mu.Unlock()

	if changed {
		s.reporter.ChartsUpdated(BuildCharts(snap))
	}
}

func (s *Session) report(b *batch, state State, status string) *BatchReport {
	s.reporter.Status(status)
	return &BatchReport{
		ID:       b.id,
		State:    state,
		Outcomes: b.outcomes,
		Charts:   s.Charts(),
		Status:   status,
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
