// Rinkside telemetry server — ingests league feeds, reconciles live game
// reports, and serves the HTTP/WebSocket API with push notifications.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/pucklabs/rinkside/pkg/api"
	"github.com/pucklabs/rinkside/pkg/apns"
	"github.com/pucklabs/rinkside/pkg/bus"
	"github.com/pucklabs/rinkside/pkg/config"
	"github.com/pucklabs/rinkside/pkg/events"
	"github.com/pucklabs/rinkside/pkg/live"
	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/services"
	"github.com/pucklabs/rinkside/pkg/upstream"
	"github.com/pucklabs/rinkside/pkg/version"
)

const (
	// seasonPollInterval paces the background re-ingest of the current
	// season schedule and the scan for games that need a live listener.
	seasonPollInterval = 60 * time.Second

	// wsWriteTimeout bounds a single WebSocket write before the client
	// is considered stalled and dropped.
	wsWriteTimeout = 10 * time.Second

	// seenCapacity bounds the dedupe window of recently requested live
	// games. Old entries age out so a game can be picked up again after
	// its listener has gone away.
	seenCapacity = 40
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting", "build", version.Full())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 1. Stores and upstream client
	client := upstream.NewClient(cfg.ShlURL, cfg.HaURL)
	root := cfg.DbPath

	teams := services.NewTeamsService(root)
	reports := services.NewReportService(root)
	seasons := services.NewSeasonService(client, root, reports, teams)
	registry := services.NewGameRegistry(root)
	votes := services.NewVoteService(root, registry)
	users := services.NewUserService(root)
	eventService := services.NewEventService(client, root)
	stats := services.NewStatsService(client, root)
	players := services.NewPlayerService(client, root)
	standings := services.NewStandingService(root)
	playoffs := services.NewPlayoffService(root)
	playerStats := services.NewPlayerStatsService(players, root)
	details := services.NewDetailsService(registry, eventService, stats, players)
	fetchDetails := services.NewFetchDetailsService(registry, eventService, stats, players, root)
	status := services.NewStatusService(root)

	// 2. Initial ingest: hydrate every season so the API can answer
	// immediately, rebuilding derived tables along the way.
	for _, season := range models.AllSeasons() {
		games, _ := seasons.Update(ctx, season)
		games = registry.Update(season, games, votes.GetAll())
		standings.Update(season, games)
		playoffs.Update(season, games)
	}
	playerStats.Update(registry.ReadAllGames())
	slog.Info("Initial ingest complete", "seasons", len(models.AllSeasons()))

	// 3. Messaging and notification plumbing
	b := bus.New()
	apnsClient := apns.NewClient(cfg.ApnHost, cfg.ApnTeamID, cfg.ApnKeyID, cfg.ApnKeyPath)
	notifier := services.NewNotifier(apnsClient, users, cfg.ApnTopic)
	writer := services.NewReportWriter(b, reports, registry, notifier)
	refresher := services.NewRefresher(b, registry, stats, players, standings, playoffs, playerStats)

	broadcaster := events.NewBroadcaster(wsWriteTimeout)
	forwarder := events.NewForwarder(b, broadcaster)

	// 4. Live transport: SSE by default, polling as a fallback for
	// environments where the event stream is unreachable.
	var transport live.Transport
	if cfg.Poll {
		transport = live.NewPoller(b, registry, eventService)
	} else {
		sseClient := live.NewSseClient(cfg.SseURL, cfg.SseSleepDuration())
		transport = live.NewSseListener(sseClient, b, registry, reports, eventService, users, details, broadcaster)
	}
	supervisor := live.NewSupervisor(transport, registry)

	// 5. HTTP server
	server := api.NewServer(cfg.Port, cfg.APIKey, api.Deps{
		Registry:    registry,
		Details:     details,
		Standings:   standings,
		Playoffs:    playoffs,
		Teams:       teams,
		PlayerStats: playerStats,
		Users:       users,
		Votes:       votes,
		Status:      status,
		Broadcaster: broadcaster,
	})

	// 6. Long-running tasks
	errCh := make(chan error, 1)
	go func() {
		if err := server.Run(ctx); err != nil {
			errCh <- err
		}
	}()
	go writer.Run(ctx)
	go refresher.Run(ctx)
	go forwarder.Run(ctx)
	go supervisor.Run(ctx)
	go integrateVotes(ctx, votes, registry)
	go pollSeason(ctx, seasons, registry, votes, standings, playoffs, playerStats, supervisor, fetchDetails)

	slog.Info("Rinkside started", "port", cfg.Port, "poll", cfg.Poll)

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
		stop()
	}
}

// integrateVotes folds freshly cast vote tallies back into the registry so
// season reads expose up-to-date percentages.
func integrateVotes(ctx context.Context, votes *services.VoteService, registry *services.GameRegistry) {
	for {
		select {
		case <-ctx.Done():
			return
		case gv := <-votes.Changes():
			registry.UpdateFromVotes(gv.GameUUID, gv.Votes)
		}
	}
}

// pollSeason re-ingests the current season on a fixed cadence, rebuilds the
// derived tables when the schedule actually changed, requests live coverage
// for games around their start time, and advances the historical details
// backfill.
func pollSeason(
	ctx context.Context,
	seasons *services.SeasonService,
	registry *services.GameRegistry,
	votes *services.VoteService,
	standings *services.StandingService,
	playoffs *services.PlayoffService,
	playerStats *services.PlayerStatsService,
	supervisor *live.Supervisor,
	fetchDetails *services.FetchDetailsService,
) {
	season := models.CurrentSeason()
	var seen []string

	ticker := time.NewTicker(seasonPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		games, updated := seasons.Update(ctx, season)
		if updated {
			games = registry.Update(season, games, votes.GetAll())
			standings.Update(season, games)
			playoffs.Update(season, games)
			playerStats.Update(games)
		}

		now := time.Now()
		for _, game := range registry.ReadCurrentSeason() {
			if !game.IsPotentiallyLive(now) {
				continue
			}
			if slices.Contains(seen, game.GameUUID) {
				continue
			}
			slog.Info("Requesting live coverage", "game_uuid", game.GameUUID, "start", game.StartDateTime)
			supervisor.Request(game.GameUUID)
			seen = append(seen, game.GameUUID)
			if len(seen) > seenCapacity {
				seen = seen[len(seen)-seenCapacity:]
			}
		}

		fetchDetails.Update(ctx)
	}
}
