// Package api is the public HTTP surface: the v2 REST routes, the WebSocket
// upgrade and the metrics scrape endpoint.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pucklabs/rinkside/pkg/events"
	"github.com/pucklabs/rinkside/pkg/metrics"
	"github.com/pucklabs/rinkside/pkg/services"
)

// Server owns the HTTP listener and its route handlers.
type Server struct {
	registry    *services.GameRegistry
	details     *services.DetailsService
	standings   *services.StandingService
	playoffs    *services.PlayoffService
	teams       *services.TeamsService
	playerStats *services.PlayerStatsService
	users       *services.UserService
	votes       *services.VoteService
	status      *services.StatusService
	broadcaster *events.Broadcaster

	apiKey string
	http   *http.Server
	logger *slog.Logger
}

// Deps bundles the services the server reads from.
type Deps struct {
	Registry    *services.GameRegistry
	Details     *services.DetailsService
	Standings   *services.StandingService
	Playoffs    *services.PlayoffService
	Teams       *services.TeamsService
	PlayerStats *services.PlayerStatsService
	Users       *services.UserService
	Votes       *services.VoteService
	Status      *services.StatusService
	Broadcaster *events.Broadcaster
}

// NewServer builds the server and its routes. apiKey guards the vote route.
func NewServer(port int, apiKey string, deps Deps) *Server {
	s := &Server{
		registry:    deps.Registry,
		details:     deps.Details,
		standings:   deps.Standings,
		playoffs:    deps.Playoffs,
		teams:       deps.Teams,
		playerStats: deps.PlayerStats,
		users:       deps.Users,
		votes:       deps.Votes,
		status:      deps.Status,
		broadcaster: deps.Broadcaster,
		apiKey:      apiKey,
		logger:      slog.With("component", "api"),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), metrics.Middleware())

	v2 := router.Group("/v2")
	{
		v2.GET("/games/:season", s.getGames)
		v2.GET("/game/:game_uuid", s.getGameDetails)
		v2.GET("/standings/:season", s.getStandings)
		v2.GET("/playoffs/:season", s.getPlayoffs)
		v2.GET("/teams", s.getTeams)
		v2.GET("/players/:season/:team", s.getTeamPlayers)
		v2.GET("/player/:player_id", s.getPlayerCareer)
		v2.POST("/user", s.addUser)
		v2.POST("/live-activity/start", s.startLiveActivity)
		v2.POST("/live-activity/end", s.endLiveActivity)
		v2.POST("/vote", s.vote)
		v2.GET("/ws", s.ws)
		v2.GET("/status", s.getStatus)
	}
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until ctx is done, then drains connections gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
