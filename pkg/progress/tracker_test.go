package progress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mikeboe/osint-investigator/pkg/osint"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr := New(600*time.Second, time.Minute)
	tr.SetClock(clock.Now)
	return tr, clock
}

func TestTracker_Lifecycle(t *testing.T) {
	tr, _ := newTestTracker()

	if err := tr.TryCreate("s1", 5); err != nil {
		t.Fatalf("TryCreate() error = %v", err)
	}
	rec, ok := tr.Get("s1")
	if !ok || rec.Status != StatusRunning || rec.Percentage != 0 {
		t.Fatalf("new record = %+v, %v", rec, ok)
	}

	steps := []struct {
		pct   int
		stage string
		want  int
	}{
		{10, "Searching LinkedIn...", 10},
		{45, "Searching Wikipedia...", 45},
		{30, "late update", 45},
		{80, "Filtering results...", 80},
	}
	for _, s := range steps {
		if err := tr.Update("s1", s.pct, s.stage); err != nil {
			t.Fatalf("Update(%d) error = %v", s.pct, err)
		}
		rec, _ := tr.Get("s1")
		if rec.Percentage != s.want || rec.Stage != s.stage {
			t.Errorf("after Update(%d): %d %q, want %d %q", s.pct, rec.Percentage, rec.Stage, s.want, s.stage)
		}
	}

	report := &osint.Report{Name: "Jane Doe"}
	if err := tr.Complete("s1", report); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	rec, _ = tr.Get("s1")
	if rec.Status != StatusCompleted || rec.Percentage != 100 || rec.Result != report || rec.FinishedAt.IsZero() {
		t.Errorf("completed record = %+v", rec)
	}
}

func TestTracker_TerminalIsFinal(t *testing.T) {
	tr, _ := newTestTracker()
	_ = tr.TryCreate("done", 0)
	_ = tr.Update("done", 40, "x")
	if err := tr.Fail("done", "boom"); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	if err := tr.Update("done", 90, "y"); !errors.Is(err, ErrTerminal) {
		t.Errorf("Update after Fail = %v, want ErrTerminal", err)
	}
	if err := tr.Complete("done", &osint.Report{}); !errors.Is(err, ErrTerminal) {
		t.Errorf("Complete after Fail = %v, want ErrTerminal", err)
	}
	if err := tr.Fail("done", "again"); !errors.Is(err, ErrTerminal) {
		t.Errorf("Fail after Fail = %v, want ErrTerminal", err)
	}

	rec, _ := tr.Get("done")
	if rec.Status != StatusError || rec.Error != "boom" || rec.Percentage != 40 || rec.Result != nil {
		t.Errorf("failed record = %+v", rec)
	}
}

func TestTracker_UnknownID(t *testing.T) {
	tr, _ := newTestTracker()
	if err := tr.Update("nope", 10, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() = %v, want ErrNotFound", err)
	}
	if _, ok := tr.Get("nope"); ok {
		t.Error("Get() found an unknown id")
	}
	if _, ok := tr.Logs("nope"); ok {
		t.Error("Logs() found an unknown id")
	}
}

func TestTracker_Admission(t *testing.T) {
	tr, _ := newTestTracker()
	for i := range 5 {
		if err := tr.TryCreate(fmt.Sprintf("s%d", i), 5); err != nil {
			t.Fatalf("TryCreate(s%d) error = %v", i, err)
		}
	}
	if err := tr.TryCreate("s5", 5); !errors.Is(err, ErrTooManySearches) {
		t.Errorf("sixth TryCreate = %v, want ErrTooManySearches", err)
	}
	if err := tr.TryCreate("s0", 0); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate TryCreate = %v, want ErrDuplicateID", err)
	}

	_ = tr.Complete("s0", &osint.Report{})
	if tr.Running() != 4 {
		t.Errorf("Running() = %d, want 4", tr.Running())
	}
	if err := tr.TryCreate("s5", 5); err != nil {
		t.Errorf("TryCreate after a completion = %v", err)
	}
}

func TestTracker_ConcurrentAdmissionNeverExceedsCap(t *testing.T) {
	tr, _ := newTestTracker()
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if tr.TryCreate(fmt.Sprintf("c%d", i), 5) == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if admitted != 5 || tr.Running() != 5 {
		t.Errorf("admitted = %d, running = %d, want 5", admitted, tr.Running())
	}
}

func TestTracker_SweepOnlyRemovesOldTerminalRecords(t *testing.T) {
	tr, clock := newTestTracker()
	_ = tr.TryCreate("running", 0)
	_ = tr.TryCreate("old", 0)
	_ = tr.TryCreate("fresh", 0)

	_ = tr.Complete("old", &osint.Report{})
	clock.Advance(500 * time.Second)
	_ = tr.Fail("fresh", "x")
	clock.Advance(101 * time.Second)

	if n := tr.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if _, ok := tr.Get("old"); ok {
		t.Error("old terminal record survived the sweep")
	}
	for _, id := range []string{"running", "fresh"} {
		if _, ok := tr.Get(id); !ok {
			t.Errorf("%s was swept", id)
		}
	}
}

func TestTracker_ConcurrentWritersAndReaders(t *testing.T) {
	tr, _ := newTestTracker()
	var wg sync.WaitGroup

	for i := range 8 {
		id := fmt.Sprintf("w%d", i)
		if err := tr.TryCreate(id, 0); err != nil {
			t.Fatal(err)
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			for p := 1; p <= 99; p++ {
				_ = tr.Update(id, p, "working")
				tr.AppendLog(id, LogEntry{Message: "tick"})
			}
			_ = tr.Complete(id, &osint.Report{})
		}()
		go func() {
			defer wg.Done()
			last := 0
			for range 200 {
				rec, ok := tr.Get(id)
				if !ok {
					continue
				}
				if rec.Percentage < last {
					t.Errorf("%s percentage went from %d to %d", id, last, rec.Percentage)
				}
				last = rec.Percentage
				tr.Sweep()
			}
		}()
	}
	wg.Wait()

	for i := range 8 {
		rec, ok := tr.Get(fmt.Sprintf("w%d", i))
		if !ok || rec.Status != StatusCompleted || len(rec.Logs) != 99 {
			t.Errorf("w%d = %+v", i, rec)
		}
	}
}

func TestTracker_LogBufferIsBounded(t *testing.T) {
	tr, _ := newTestTracker()
	_ = tr.TryCreate("s", 0)
	for i := range maxLogEntries + 10 {
		tr.AppendLog("s", LogEntry{Message: fmt.Sprint(i)})
	}

	logs, _ := tr.Logs("s")
	if len(logs) != maxLogEntries {
		t.Fatalf("len(logs) = %d, want %d", len(logs), maxLogEntries)
	}
	if logs[0].Message != "10" {
		t.Errorf("oldest entry = %q, want 10", logs[0].Message)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTracker_SetLoggerWhileRunning(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr := New(time.Minute, time.Millisecond)
	tr.SetClock(clock.Now)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				tr.SetLogger(logger)
			}
		}()
	}
	wg.Wait()

	if err := tr.TryCreate("old", 0); err != nil {
		t.Fatalf("TryCreate() error = %v", err)
	}
	if err := tr.Complete("old", &osint.Report{}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	clock.Advance(2 * time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "Cleaned up stale searches") {
		if time.Now().After(deadline) {
			t.Fatalf("sweeper never logged through the replaced logger; output %q", out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}
