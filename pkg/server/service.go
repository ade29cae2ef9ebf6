package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mikeboe/osint-investigator/pkg/metrics"
	"github.com/mikeboe/osint-investigator/pkg/osint"
	"github.com/mikeboe/osint-investigator/pkg/progress"
)

const (
	maxNameLength  = 200
	nerPingTimeout = 2 * time.Second
)

// pinger is implemented by annotators that can report whether their backing
// service is up.
type pinger interface {
	Ping(ctx context.Context) error
}

type Service struct {
	Pipeline      *Pipeline
	Tracker       *progress.Tracker
	MaxConcurrent int
	LogHandler    slog.Handler

	wg sync.WaitGroup
}

func NewService(p *Pipeline, tracker *progress.Tracker, maxConcurrent int, logHandler slog.Handler) *Service {
	return &Service{
		Pipeline:      p,
		Tracker:       tracker,
		MaxConcurrent: maxConcurrent,
		LogHandler:    logHandler,
	}
}

// StartSearchRequest is the body of a search request. ExtraTerms is a comma
// separated list.
type StartSearchRequest struct {
	Name       string `json:"name"`
	City       string `json:"city"`
	ExtraTerms string `json:"extraTerms"`
}

// ProgressResponse is what pollers receive.
type ProgressResponse struct {
	Percentage int             `json:"percentage"`
	Stage      string          `json:"stage"`
	Status     progress.Status `json:"status"`
	Result     *osint.Report   `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// HealthStatus summarizes the configured capabilities.
type HealthStatus struct {
	Status         string `json:"status"`
	NERLoaded      bool   `json:"nerLoaded"`
	SearchKeys     int    `json:"searchKeys"`
	AIKeys         int    `json:"aiKeys"`
	ActiveSearches int    `json:"activeSearches"`
	Timestamp      string `json:"timestamp"`
}

// ParseRequest validates a search request and normalizes its fields.
func ParseRequest(req StartSearchRequest) (osint.Request, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return osint.Request{}, fmt.Errorf("%w: name is a required field", osint.ErrInvalidRequest)
	}
	if len([]rune(name)) > maxNameLength {
		return osint.Request{}, fmt.Errorf("%w: name is too long (max %d characters)", osint.ErrInvalidRequest, maxNameLength)
	}

	extras := []string{}
	for _, e := range strings.Split(req.ExtraTerms, ",") {
		if e = strings.TrimSpace(e); e != "" {
			extras = append(extras, e)
		}
	}
	return osint.Request{Name: name, City: strings.TrimSpace(req.City), ExtraTerms: extras}, nil
}

// StartSearch admits a search and runs it in the background.
func (s *Service) StartSearch(req StartSearchRequest) (string, error) {
	parsed, err := ParseRequest(req)
	if err != nil {
		return "", err
	}

	searchID := uuid.New().String()
	if err := s.Tracker.TryCreate(searchID, s.MaxConcurrent); err != nil {
		return "", err
	}

	s.wg.Add(1)
	go s.runWorker(searchID, parsed)

	return searchID, nil
}

// GetProgress returns the poll view of a search.
func (s *Service) GetProgress(searchID string) (ProgressResponse, error) {
	rec, ok := s.Tracker.Get(searchID)
	if !ok {
		return ProgressResponse{}, progress.ErrNotFound
	}

	resp := ProgressResponse{
		Percentage: rec.Percentage,
		Stage:      rec.Stage,
		Status:     rec.Status,
	}
	switch rec.Status {
	case progress.StatusCompleted:
		resp.Result = rec.Result
	case progress.StatusError:
		resp.Error = rec.Error
	}
	return resp, nil
}

// GetLogs returns the log lines captured for a search.
func (s *Service) GetLogs(searchID string) ([]progress.LogEntry, error) {
	logs, ok := s.Tracker.Logs(searchID)
	if !ok {
		return nil, progress.ErrNotFound
	}
	return logs, nil
}

// Health reports capability and load information. NERLoaded is true only when
// an annotator is configured and, if it can be pinged, answers.
func (s *Service) Health(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:         "healthy",
		NERLoaded:      s.nerReachable(ctx),
		SearchKeys:     s.Pipeline.SearchKeys,
		AIKeys:         len(s.Pipeline.AIKeys),
		ActiveSearches: s.Tracker.Running(),
		Timestamp:      time.Now().Format(time.RFC3339),
	}
}

func (s *Service) nerReachable(ctx context.Context) bool {
	if !s.Pipeline.NERAvailable() {
		return false
	}
	p, ok := s.Pipeline.Annotator.(pinger)
	if !ok {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, nerPingTimeout)
	defer cancel()
	return p.Ping(ctx) == nil
}

// Wait blocks until every background search has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) runWorker(searchID string, req osint.Request) {
	defer s.wg.Done()
	started := time.Now()

	logger := slog.New(NewProgressLogHandler(s.Tracker, searchID, s.LogHandler)).With("searchId", searchID)

	defer func() {
		if r := recover(); r != nil {
			s.failSearch(logger, searchID, fmt.Sprintf("internal error: %v", r), started)
		}
	}()

	engine := s.Pipeline.Engine(logger)

	// Hook for progress reporting
	engine.OnProgress = func(pct int, stage string) {
		if err := s.Tracker.Update(searchID, pct, stage); err != nil {
			logger.Warn("Failed to record progress", "error", err)
		}
	}

	logger.Info("Search started")
	report, err := engine.Run(context.Background(), req)
	if err != nil {
		s.failSearch(logger, searchID, err.Error(), started)
		return
	}

	if err := s.Tracker.Complete(searchID, report); err != nil {
		logger.Error("Failed to complete search", "error", err)
		return
	}
	metrics.RecordSearch(string(progress.StatusCompleted), time.Since(started))
	logger.Info("Search completed", "elapsed", time.Since(started).Round(100*time.Millisecond).String())
}

func (s *Service) failSearch(logger *slog.Logger, searchID, reason string, started time.Time) {
	logger.Error("Search failed", "error", reason)
	if err := s.Tracker.Fail(searchID, reason); err != nil {
		if !errors.Is(err, progress.ErrTerminal) {
			logger.Error("Failed to record failure", "error", err)
		}
		return
	}
	metrics.RecordSearch(string(progress.StatusError), time.Since(started))
}
