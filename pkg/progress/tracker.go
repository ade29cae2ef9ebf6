package progress

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mikeboe/osint-investigator/pkg/metrics"
	"github.com/mikeboe/osint-investigator/pkg/osint"
)

// Status of a search.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

var (
	ErrNotFound        = errors.New("search not found")
	ErrTerminal        = errors.New("search already finished")
	ErrTooManySearches = errors.New("too many concurrent searches")
	ErrDuplicateID     = errors.New("search id already exists")
)

const (
	DefaultRetention     = 600 * time.Second
	DefaultSweepInterval = 60 * time.Second
	maxLogEntries        = 500
)

// LogEntry is one log line captured for a search.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Record is the state of one search.
type Record struct {
	ID         string        `json:"searchId"`
	Percentage int           `json:"percentage"`
	Stage      string        `json:"stage"`
	Status     Status        `json:"status"`
	Result     *osint.Report `json:"result,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt,omitzero"`
	Logs       []LogEntry    `json:"-"`
}

// Tracker is the shared in-memory store of search records. Each record has a
// single writer (its search) and any number of readers; terminal records are
// removed by Sweep once they are older than the retention window.
type Tracker struct {
	mu        sync.RWMutex
	records   map[string]*Record
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a tracker. Non-positive durations fall back to the defaults.
func New(retention, sweepInterval time.Duration) *Tracker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &Tracker{
		records:   make(map[string]*Record),
		retention: retention,
		interval:  sweepInterval,
		now:       time.Now,
		logger:    slog.Default(),
	}
}

// SetClock replaces the time source.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// SetLogger replaces the logger used by the sweeper. It is safe to call while
// Run is active.
func (t *Tracker) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger = logger
}

// TryCreate registers a new running record unless maxRunning searches are
// already running. A non-positive maxRunning disables the limit.
func (t *Tracker) TryCreate(id string, maxRunning int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.records[id]; exists {
		return ErrDuplicateID
	}
	if maxRunning > 0 && t.runningLocked() >= maxRunning {
		return ErrTooManySearches
	}

	t.records[id] = &Record{
		ID:        id,
		Stage:     "Initializing...",
		Status:    StatusRunning,
		StartedAt: t.now(),
		Logs:      []LogEntry{},
	}
	t.publishLocked()
	return nil
}

// Update advances the percentage and stage of a running record. A percentage
// lower than the current one is ignored.
func (t *Tracker) Update(id string, percentage int, stage string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.runningRecordLocked(id)
	if err != nil {
		return err
	}
	if percentage > rec.Percentage {
		rec.Percentage = min(percentage, 100)
	}
	if stage != "" {
		rec.Stage = stage
	}
	return nil
}

// Complete moves a running record to completed with its report.
func (t *Tracker) Complete(id string, report *osint.Report) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.runningRecordLocked(id)
	if err != nil {
		return err
	}
	rec.Percentage = 100
	rec.Stage = "Search complete!"
	rec.Status = StatusCompleted
	rec.Result = report
	rec.FinishedAt = t.now()
	t.publishLocked()
	return nil
}

// Fail moves a running record to error, keeping its last percentage.
func (t *Tracker) Fail(id string, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.runningRecordLocked(id)
	if err != nil {
		return err
	}
	if message == "" {
		message = "Unknown error"
	}
	rec.Stage = "Search failed"
	rec.Status = StatusError
	rec.Error = message
	rec.FinishedAt = t.now()
	t.publishLocked()
	return nil
}

// AppendLog adds a line to the record's log buffer, dropping the oldest line
// once the buffer is full.
func (t *Tracker) AppendLog(id string, entry LogEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		return
	}
	if len(rec.Logs) >= maxLogEntries {
		rec.Logs = append(rec.Logs[:0], rec.Logs[1:]...)
	}
	rec.Logs = append(rec.Logs, entry)
}

// Get returns a snapshot of the record.
func (t *Tracker) Get(id string) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[id]
	if !ok {
		return Record{}, false
	}
	snap := *rec
	snap.Logs = append([]LogEntry(nil), rec.Logs...)
	return snap, true
}

// Logs returns a copy of the record's log buffer.
func (t *Tracker) Logs(id string) ([]LogEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[id]
	if !ok {
		return nil, false
	}
	return append([]LogEntry{}, rec.Logs...), true
}

// Running counts records in the running state.
func (t *Tracker) Running() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.runningLocked()
}

// Len counts all records, terminal ones included.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Sweep deletes terminal records finished longer ago than the retention
// window and returns how many were removed.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.retention)
	removed := 0
	for id, rec := range t.records {
		if rec.Status.Terminal() && rec.FinishedAt.Before(cutoff) {
			delete(t.records, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every interval tick until ctx is done.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := t.Sweep(); n > 0 {
				t.log().Info("Cleaned up stale searches", "count", n)
			}
		}
	}
}

func (t *Tracker) log() *slog.Logger {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.logger
}

func (t *Tracker) runningRecordLocked(id string) (*Record, error) {
	rec, ok := t.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Status.Terminal() {
		return nil, ErrTerminal
	}
	return rec, nil
}

func (t *Tracker) runningLocked() int {
	n := 0
	for _, rec := range t.records {
		if rec.Status == StatusRunning {
			n++
		}
	}
	return n
}

func (t *Tracker) publishLocked() {
	metrics.RunningSearches.Set(float64(t.runningLocked()))
}
