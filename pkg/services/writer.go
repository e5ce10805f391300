package services

import (
	"context"
	"log/slog"

	"github.com/pucklabs/rinkside/pkg/bus"
	"github.com/pucklabs/rinkside/pkg/metrics"
	"github.com/pucklabs/rinkside/pkg/models"
)

// ReportWriter is the single owner of persisted report state. Listeners only
// publish deltas; the writer validates, persists, folds them into the
// registry and schedules the derived notifications.
type ReportWriter struct {
	bus      *bus.Bus
	reports  *ReportService
	registry *GameRegistry
	notifier *Notifier
	logger   *slog.Logger
}

// NewReportWriter wires the writer over its collaborators.
func NewReportWriter(b *bus.Bus, reports *ReportService, registry *GameRegistry, notifier *Notifier) *ReportWriter {
	return &ReportWriter{
		bus:      b,
		reports:  reports,
		registry: registry,
		notifier: notifier,
		logger:   slog.With("component", "writer"),
	}
}

// Run consumes the bus until ctx is done. Must be the only running writer;
// everything that mutates v2_report goes through here.
func (w *ReportWriter) Run(ctx context.Context) {
	feed := w.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-feed:
			switch m := msg.(type) {
			case bus.UpdateReport:
				w.handleUpdate(ctx, m)
			case bus.AddEvent:
				w.handleEvent(ctx, m)
			}
		}
	}
}

func (w *ReportWriter) handleUpdate(ctx context.Context, msg bus.UpdateReport) {
	prior, ok := w.reports.Read(msg.Update.GameUUID)
	if !ok {
		game, found := w.registry.ReadGame(msg.Update.GameUUID)
		if !found {
			w.logger.Error("update for unknown game", "game", msg.Update.GameUUID)
			return
		}
		prior = models.ReportFromGame(game)
	}

	report := msg.Update.ApplyTo(prior)
	if !msg.Forced && !IsValidUpdate(report, prior) {
		w.logger.Info("stale report dropped", "report", report.String(), "prior", prior.String())
		return
	}

	lifecycle := ProcessReport(report, prior)
	if err := w.reports.Store(report.GameUUID, report); err != nil {
		w.logger.Error("persist report", "game", report.GameUUID, "err", err)
		return
	}
	metrics.ReportWrites.Inc()
	w.logger.Info("report stored", "report", report.String())

	game, ok := w.registry.UpdateFromReport(report)
	if !ok {
		w.logger.Error("no live game for report", "game", report.GameUUID)
	} else if lifecycle != nil {
		w.notifier.Process(ctx, game, lifecycle)
	} else {
		w.notifier.ProcessLiveActivity(ctx, game, nil)
	}

	w.bus.Publish(bus.ReportUpdated{Report: report})
}

func (w *ReportWriter) handleEvent(ctx context.Context, msg bus.AddEvent) {
	event := msg.Event
	if event.Level() != models.LevelLow {
		if game, ok := w.registry.ReadCurrentSeasonGame(event.GameUUID); ok {
			w.notifier.Process(ctx, game, &event)
		} else {
			w.logger.Error("no live game for event", "game", event.GameUUID)
		}
	}
	w.bus.Publish(bus.EventUpdated{Event: event})
}
