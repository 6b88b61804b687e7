package bootstrap

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Logger is the minimal printf-style logging surface.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Observer defines the interface for structured observability during the
// bootstrap run.
type Observer interface {
	Logger

	// Event emits a structured event.
	Event(event Event)

	// LastLine returns the most recently emitted line. The failure path
	// forwards it as diagnostic context.
	LastLine() string
}

// Event represents a structured bootstrap event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "identity", "configure")
	Message   string            // Human-readable message
	Resource  string            // Resource name/path if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of bootstrap event.
type EventType string

const (
	// EventPhaseStarted indicates a bootstrap phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a bootstrap phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates a bootstrap phase failed.
	EventPhaseFailed EventType = "phase.failed"

	// EventResourceCreated indicates a file or directory was written.
	EventResourceCreated EventType = "resource.created"
	// EventResourceExists indicates a resource was already in place.
	EventResourceExists EventType = "resource.exists"
	// EventResourceSkipped indicates a resource was deliberately not touched.
	EventResourceSkipped EventType = "resource.skipped"

	// EventValidationWarning indicates a validation warning.
	EventValidationWarning EventType = "validation.warning"
)

// ConsoleObserver implements Observer using the standard log package.
type ConsoleObserver struct {
	mu     sync.Mutex
	logger *log.Logger
	last   string
}

// NewConsoleObserver creates an observer writing to stderr. Timestamps are
// suppressed on interactive terminals; captured output (cloud-init, log
// redirects) keeps them.
func NewConsoleObserver() *ConsoleObserver {
	flags := log.LstdFlags
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		flags = 0
	}
	return &ConsoleObserver{logger: log.New(os.Stderr, "", flags)}
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	o.emit(fmt.Sprintf(format, v...))
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	o.emit(formatEvent(event))
}

// LastLine implements Observer.
func (o *ConsoleObserver) LastLine() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

func (o *ConsoleObserver) emit(line string) {
	o.mu.Lock()
	o.last = line
	o.mu.Unlock()
	o.logger.Print(line)
}

// MemoryObserver implements Observer by recording everything it is given.
// It backs tests and the render command's quiet mode.
type MemoryObserver struct {
	mu     sync.Mutex
	lines  []string
	events []Event
}

// NewMemoryObserver creates an empty recording observer.
func NewMemoryObserver() *MemoryObserver {
	return &MemoryObserver{}
}

// Printf implements Logger.
func (o *MemoryObserver) Printf(format string, v ...interface{}) {
	o.record(fmt.Sprintf(format, v...))
}

// Event implements Observer.
func (o *MemoryObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	o.mu.Lock()
	o.events = append(o.events, event)
	o.mu.Unlock()
	o.record(formatEvent(event))
}

// LastLine implements Observer.
func (o *MemoryObserver) LastLine() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.lines) == 0 {
		return ""
	}
	return o.lines[len(o.lines)-1]
}

// Lines returns a copy of every emitted line in order.
func (o *MemoryObserver) Lines() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.lines))
	copy(out, o.lines)
	return out
}

// Events returns a copy of every structured event in order.
func (o *MemoryObserver) Events() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Event, len(o.events))
	copy(out, o.events)
	return out
}

func (o *MemoryObserver) record(line string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, line)
}

// formatEvent formats an event for console output.
func formatEvent(event Event) string {
	var parts []string

	parts = append(parts, string(event.Type))

	if event.Phase != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Phase))
	}

	if event.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", event.Resource))
	}

	parts = append(parts, event.Message)

	if len(event.Fields) > 0 {
		keys := make([]string, 0, len(event.Fields))
		for k := range event.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fieldParts := make([]string, 0, len(keys))
		for _, k := range keys {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", k, event.Fields[k]))
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(fieldParts, ", ")))
	}

	return strings.Join(parts, " ")
}

// LogPhaseStart logs a phase start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   phase,
		Message: "starting",
	})
}

// LogPhaseComplete logs a phase completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs a phase failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: fmt.Sprintf("failed: %v", err),
	})
}
