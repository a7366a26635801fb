package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/walkscale/internal/constants"
)

// Event kinds written to the event log.
const (
	EventRunStarted    = "run_started"
	EventOracleRequest = "oracle_request"
	EventBucket        = "bucket"
	EventFit           = "fit"
	EventRunFailed     = "run_failed"
)

// Event is one line of events.jsonl. Fields irrelevant to Kind are omitted.
type Event struct {
	Time     time.Time      `json:"time"`
	Kind     string         `json:"kind"`
	RunID    string         `json:"run_id,omitempty"`
	Trace    string         `json:"trace,omitempty"`
	Bucket   *int           `json:"bucket,omitempty"`
	NumSteps int            `json:"num_steps,omitempty"`
	NumWalks int            `json:"num_walks,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// EventLog appends events to a JSONL file. It is safe for concurrent use,
// and a nil *EventLog discards everything.
type EventLog struct {
	mu      sync.Mutex
	enc     *json.Encoder
	file    *os.File
	verbose bool
}

// OpenEventLog opens dir/events.jsonl for append when level is debug or
// trace. At info level, or if the file cannot be opened, it returns nil.
func OpenEventLog(dir, level string) *EventLog {
	lvl := ParseLevel(level)
	if lvl > slog.LevelDebug {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, constants.EventLogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil
	}
	return &EventLog{enc: json.NewEncoder(f), file: f, verbose: lvl <= LevelTrace}
}

// Verbose reports whether trace-only events (oracle requests) are recorded.
func (l *EventLog) Verbose() bool {
	return l != nil && l.verbose
}

// Write appends ev, stamping Time if it is zero.
func (l *EventLog) Write(ev Event) {
	if l == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	_ = l.enc.Encode(ev)
}

// Close closes the file. Later writes are dropped.
func (l *EventLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// BucketIndex returns a pointer for Event.Bucket so that index 0 is not omitted.
func BucketIndex(i int) *int { return &i }
