package pipeline

import (
	"sync"

	"github.com/jonathan/contact-extractor/internal/types"
)

// EventType names a run notification.
type EventType string

const (
	EventProgress     EventType = "progress"
	EventPageComplete EventType = "page_complete"
	EventRunComplete  EventType = "run_complete"
)

// Event is a fire-and-forget notification emitted while a run progresses.
// Progress events carry Percent and Message, page completions carry the
// contacts accumulated so far and the page number, and the run completion
// carries the totals.
type Event struct {
	Type          EventType             `json:"type"`
	RunID         string                `json:"run_id,omitempty"`
	Percent       float64               `json:"percent"`
	Message       string                `json:"message,omitempty"`
	Contacts      []types.ContactRecord `json:"contacts,omitempty"`
	PageNumber    int                   `json:"page_number,omitempty"`
	TotalPages    int                   `json:"total_pages,omitempty"`
	TotalContacts int                   `json:"total_contacts,omitempty"`
}

// EventFunc receives run events. It is called on the run's goroutine.
type EventFunc func(Event)

// EventStream buffers events for a consumer reading on another goroutine.
// Send never blocks the run. With a full buffer a new progress event is
// dropped, while a completion event displaces the oldest buffered one.
type EventStream struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewEventStream creates a stream with the given buffer size.
func NewEventStream(buffer int) *EventStream {
	if buffer < 1 {
		buffer = 1
	}
	return &EventStream{ch: make(chan Event, buffer)}
}

// Send is an EventFunc delivering into the stream. Events sent after Close are dropped.
func (s *EventStream) Send(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
		if ev.Type == EventProgress {
			return
		}
		// make room for a page or run completion
		select {
		case <-s.ch:
		default:
		}
		s.ch <- ev
	}
}

// Events returns the receive side of the stream. It is closed by Close.
func (s *EventStream) Events() <-chan Event {
	return s.ch
}

// Close ends the stream. It is safe to call more than once.
func (s *EventStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
