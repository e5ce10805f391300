package events

import (
	"context"

	"github.com/pucklabs/rinkside/pkg/bus"
)

// Forwarder relays committed reports and events from the bus onto the
// WebSocket clients.
type Forwarder struct {
	bus         *bus.Bus
	broadcaster *Broadcaster
}

// NewForwarder wires the relay.
func NewForwarder(b *bus.Bus, broadcaster *Broadcaster) *Forwarder {
	return &Forwarder{bus: b, broadcaster: broadcaster}
}

// Run consumes the bus until ctx is done.
func (f *Forwarder) Run(ctx context.Context) {
	feed := f.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-feed:
			switch m := msg.(type) {
			case bus.ReportUpdated:
				report := m.Report
				f.broadcaster.Broadcast(Msg{
					GameUUID: report.GameUUID,
					Type:     "report",
					Report:   &report,
				})
			case bus.EventUpdated:
				event := m.Event
				f.broadcaster.Broadcast(Msg{
					GameUUID: event.GameUUID,
					Type:     "event",
					Event:    &event,
				})
			}
		}
	}
}
