package live

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pucklabs/rinkside/pkg/metrics"
	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/services"
)

// Transport runs one game's live feed until it terminates. A true return
// asks the supervisor for a respawn; the supervisor only enqueues it after
// the old task is fully unregistered, so a respawn can never be lost to the
// running-task dedupe.
type Transport interface {
	Run(ctx context.Context, game models.Game) (restart bool)
}

// Supervisor owns the listener fleet: one transport task per requested game,
// deduplicated while running, respawned when a listener asks for it.
type Supervisor struct {
	transport Transport
	registry  *services.GameRegistry

	requests chan string
	restarts chan string

	// listener cancel registry: game uuid → cancel function
	mu     sync.Mutex
	active map[string]context.CancelFunc
	wg     sync.WaitGroup

	logger *slog.Logger
}

// NewSupervisor builds a supervisor spawning listeners on the given
// transport.
func NewSupervisor(transport Transport, registry *services.GameRegistry) *Supervisor {
	return &Supervisor{
		transport: transport,
		registry:  registry,
		requests:  make(chan string, 100),
		restarts:  make(chan string, 100),
		active:    map[string]context.CancelFunc{},
		logger:    slog.With("component", "supervisor"),
	}
}

// Request asks for a listener on the game. Duplicate requests while one is
// already running are dropped.
func (s *Supervisor) Request(gameUUID string) {
	select {
	case s.requests <- gameUUID:
	default:
		s.logger.Warn("request queue full, dropping", "game", gameUUID)
	}
}

// Run dispatches listeners until ctx is done, then waits for the fleet to
// drain.
func (s *Supervisor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return
		case uuid := <-s.requests:
			s.spawn(ctx, uuid)
		case uuid := <-s.restarts:
			s.logger.Info("respawning listener", "game", uuid)
			s.spawn(ctx, uuid)
		}
	}
}

func (s *Supervisor) spawn(ctx context.Context, gameUUID string) {
	game, ok := s.registry.ReadCurrentSeasonGame(gameUUID)
	if !ok {
		s.logger.Error("listener requested for unknown game", "game", gameUUID)
		return
	}

	s.mu.Lock()
	if _, running := s.active[gameUUID]; running {
		s.mu.Unlock()
		return
	}
	listenerCtx, cancel := context.WithCancel(ctx)
	s.active[gameUUID] = cancel
	s.mu.Unlock()

	metrics.LiveListeners.Inc()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer metrics.LiveListeners.Dec()

		again := s.transport.Run(listenerCtx, game)
		s.logger.Info("listener stopped", "game", gameUUID)

		s.mu.Lock()
		delete(s.active, gameUUID)
		s.mu.Unlock()
		cancel()

		// enqueue only after the registration is gone
		if again && ctx.Err() == nil {
			select {
			case s.restarts <- gameUUID:
			default:
				s.logger.Warn("restart queue full, dropping", "game", gameUUID)
			}
		}
	}()
}

// ActiveCount reports how many listeners are running.
func (s *Supervisor) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
