// Package events fans live game updates out to WebSocket clients. Every
// connected client receives every message; the per-game subscribe hint
// clients send is accepted and logged for now.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/pucklabs/rinkside/pkg/metrics"
	"github.com/pucklabs/rinkside/pkg/models"
)

// pingInterval keeps an otherwise silent connection alive.
const pingInterval = 60 * time.Second

// connBuffer bounds how far one slow client may fall behind before losing
// messages.
const connBuffer = 100

// Msg is one outbound WebSocket message.
type Msg struct {
	GameUUID string `json:"game_uuid"`
	Type     string `json:"type"`

	Report *models.Report `json:"report,omitempty"`
	Event  *models.Event  `json:"event,omitempty"`
	Stats  *StatsMsg      `json:"stats,omitempty"`
}

// StatsMsg is one team's live stat line.
type StatsMsg struct {
	TeamCode string `json:"team_code"`
	models.TeamGameStats
}

// clientHint is the only message clients send: the game they care about.
type clientHint struct {
	GameUUID string `json:"game_uuid"`
}

// Broadcaster manages the WebSocket connections.
type Broadcaster struct {
	mu           sync.RWMutex
	connections  map[string]*connection
	writeTimeout time.Duration
	logger       *slog.Logger
}

// connection is a single WebSocket client. The outbound channel decouples
// broadcasting from the client's write speed.
type connection struct {
	id       string
	conn     *websocket.Conn
	outbound chan []byte
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster(writeTimeout time.Duration) *Broadcaster {
	return &Broadcaster{
		connections:  make(map[string]*connection),
		writeTimeout: writeTimeout,
		logger:       slog.With("component", "ws"),
	}
}

// HandleConnection runs one client's lifecycle after the HTTP upgrade.
// Blocks until the connection closes.
func (b *Broadcaster) HandleConnection(parentCtx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parentCtx)
	c := &connection{
		id:       uuid.New().String(),
		conn:     conn,
		outbound: make(chan []byte, connBuffer),
		ctx:      ctx,
		cancel:   cancel,
	}
	b.register(c)
	defer b.unregister(c)

	go b.writeLoop(c)

	// read loop: clients only send subscribe hints
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var hint clientHint
		if err := json.Unmarshal(data, &hint); err != nil {
			b.logger.Warn("bad client message", "connection_id", c.id, "err", err)
			continue
		}
		b.logger.Info("subscribe hint", "connection_id", c.id, "game", hint.GameUUID)
	}
}

// writeLoop drains the connection's outbound queue, pinging after a minute
// of silence so idle connections stay open.
func (b *Broadcaster) writeLoop(c *connection) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.outbound:
			if err := b.send(c, data); err != nil {
				b.logger.Info("send failed, dropping client", "connection_id", c.id, "err", err)
				c.cancel()
				return
			}
		case <-time.After(pingInterval):
			pingCtx, cancel := context.WithTimeout(c.ctx, b.writeTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				b.logger.Info("ping failed, dropping client", "connection_id", c.id, "err", err)
				c.cancel()
				return
			}
		}
	}
}

// Broadcast queues msg for every connected client. A client whose buffer is
// full loses the message.
func (b *Broadcaster) Broadcast(msg Msg) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("marshal broadcast", "err", err)
		return
	}

	b.mu.RLock()
	conns := make([]*connection, 0, len(b.connections))
	for _, c := range b.connections {
		conns = append(conns, c)
	}
	b.mu.RUnlock()

	for _, c := range conns {
		select {
		case c.outbound <- data:
		default:
			b.logger.Warn("client lagging, dropping message", "connection_id", c.id)
		}
	}
}

// BroadcastStats implements the live pipeline's stats sink.
func (b *Broadcaster) BroadcastStats(gameUUID, teamCode string, stats models.TeamGameStats) {
	b.Broadcast(Msg{
		GameUUID: gameUUID,
		Type:     "stats",
		Stats:    &StatsMsg{TeamCode: teamCode, TeamGameStats: stats},
	})
}

// ActiveConnections returns the number of connected clients.
func (b *Broadcaster) ActiveConnections() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.connections)
}

func (b *Broadcaster) register(c *connection) {
	b.mu.Lock()
	b.connections[c.id] = c
	total := len(b.connections)
	b.mu.Unlock()
	metrics.WSClients.Inc()
	b.logger.Info("client connected", "connection_id", c.id, "total", total)
}

func (b *Broadcaster) unregister(c *connection) {
	b.mu.Lock()
	delete(b.connections, c.id)
	total := len(b.connections)
	b.mu.Unlock()
	metrics.WSClients.Dec()
	c.cancel()
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
	b.logger.Info("client disconnected", "connection_id", c.id, "total", total)
}

// send writes one frame with the write timeout applied.
func (b *Broadcaster) send(c *connection, data []byte) error {
	writeCtx, cancel := context.WithTimeout(c.ctx, b.writeTimeout)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}
