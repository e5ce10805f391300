package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pucklabs/rinkside/pkg/models"
)

func TestFanOut(t *testing.T) {
	b := New()
	first := b.Subscribe()
	second := b.Subscribe()

	b.Publish(SseClosed{GameUUID: "game-1"})

	for _, feed := range []<-chan Message{first, second} {
		select {
		case msg := <-feed:
			closed, ok := msg.(SseClosed)
			require.True(t, ok)
			assert.Equal(t, "game-1", closed.GameUUID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the message")
		}
	}
}

func TestLateSubscriberMissesEarlierMessages(t *testing.T) {
	b := New()
	b.Publish(SseClosed{GameUUID: "before"})

	feed := b.Subscribe()
	b.Publish(SseClosed{GameUUID: "after"})

	msg := <-feed
	assert.Equal(t, "after", GameUUID(msg))
	select {
	case extra := <-feed:
		t.Fatalf("unexpected extra message %v", extra)
	default:
	}
}

func TestSlowSubscriberDropsOverflow(t *testing.T) {
	b := New()
	slow := b.Subscribe()

	for i := 0; i < bufferSize+10; i++ {
		b.Publish(SseClosed{GameUUID: "flood"})
	}

	assert.Len(t, slow, bufferSize)

	// publishing must not have blocked; a fresh subscriber still works
	fresh := b.Subscribe()
	b.Publish(SseClosed{GameUUID: "alive"})
	assert.Equal(t, "alive", GameUUID(<-fresh))
}

func TestGameUUID(t *testing.T) {
	status := models.StatusPeriod1
	tests := []struct {
		name string
		msg  Message
		kind string
	}{
		{"add event", AddEvent{Event: models.Event{GameUUID: "game-1"}}, "add_event"},
		{"update report", UpdateReport{Update: models.ReportUpdate{GameUUID: "game-1", Status: &status}}, "update_report"},
		{"report updated", ReportUpdated{Report: models.Report{GameUUID: "game-1"}}, "report_updated"},
		{"event updated", EventUpdated{Event: models.Event{GameUUID: "game-1"}}, "event_updated"},
		{"sse closed", SseClosed{GameUUID: "game-1"}, "sse_closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "game-1", GameUUID(tt.msg))
			assert.Equal(t, tt.kind, Kind(tt.msg))
		})
	}
}
