package survey

import "fmt"

// ProgressStatus is the state of one session refresh.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressSkipped  ProgressStatus = "skipped"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent is emitted while sessions are refreshed.
type ProgressEvent struct {
	SessionID string         `json:"sessionId"`
	Status    ProgressStatus `json:"status"`
	Revision  int            `json:"revision,omitempty"`
	Sections  int            `json:"sections,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", event.SessionID)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", event.SessionID)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s revision %d (%d sections)", event.SessionID, event.Revision, event.Sections)
	case ProgressSkipped:
		return fmt.Sprintf("  - %s unchanged", event.SessionID)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.SessionID, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.SessionID)
	}
}
