// Package bus is the in-process broadcast channel between the live
// pipeline's producers and consumers. Every subscriber gets an independent
// feed; publishing never blocks.
package bus

import (
	"log/slog"
	"sync"

	"github.com/pucklabs/rinkside/pkg/metrics"
	"github.com/pucklabs/rinkside/pkg/models"
)

// Message is the closed set of payloads carried on the bus.
type Message interface {
	isMessage()
}

// AddEvent asks the writer to record a new game event.
type AddEvent struct {
	Event models.Event
}

// UpdateReport asks the writer to merge a sparse delta into a game's report.
// Forced skips the transition validity check.
type UpdateReport struct {
	Update models.ReportUpdate
	Forced bool
}

// ReportUpdated announces a persisted report, published by the writer only.
type ReportUpdated struct {
	Report models.Report
}

// EventUpdated announces a recorded event, published by the writer only.
type EventUpdated struct {
	Event models.Event
}

// SseClosed announces that a game's listener shut down for good.
type SseClosed struct {
	GameUUID string
}

func (AddEvent) isMessage()      {}
func (UpdateReport) isMessage()  {}
func (ReportUpdated) isMessage() {}
func (EventUpdated) isMessage()  {}
func (SseClosed) isMessage()     {}

// Kind names a message for logs and metrics.
func Kind(m Message) string {
	switch m.(type) {
	case AddEvent:
		return "add_event"
	case UpdateReport:
		return "update_report"
	case ReportUpdated:
		return "report_updated"
	case EventUpdated:
		return "event_updated"
	case SseClosed:
		return "sse_closed"
	}
	return "unknown"
}

// GameUUID extracts the game a message concerns.
func GameUUID(m Message) string {
	switch msg := m.(type) {
	case AddEvent:
		return msg.Event.GameUUID
	case UpdateReport:
		return msg.Update.GameUUID
	case ReportUpdated:
		return msg.Report.GameUUID
	case EventUpdated:
		return msg.Event.GameUUID
	case SseClosed:
		return msg.GameUUID
	}
	return ""
}

const bufferSize = 1000

// Bus fans published messages out to every subscriber.
type Bus struct {
	mu     sync.Mutex
	subs   []chan Message
	logger *slog.Logger
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{logger: slog.With("component", "bus")}
}

// Subscribe returns a feed of every message published after the call.
// Subscriptions last for the life of the process.
func (b *Bus) Subscribe() <-chan Message {
	ch := make(chan Message, bufferSize)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers msg to every subscriber. A subscriber whose buffer is
// full loses the message; the lag is logged and other subscribers are
// unaffected.
func (b *Bus) Publish(msg Message) {
	metrics.BusMessages.WithLabelValues(Kind(msg)).Inc()
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			b.logger.Warn("subscriber lagging, dropping message", "game_uuid", GameUUID(msg))
		}
	}
}
