package services

import (
	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
)

// ReportService persists the authoritative per-game report.
type ReportService struct {
	reports *store.Collection[models.Report]
}

// NewReportService opens the report collection under root.
func NewReportService(root string) *ReportService {
	return &ReportService{reports: store.NewCollection[models.Report](root, "v2_report")}
}

// Read returns the persisted report for gameUUID, if any.
func (s *ReportService) Read(gameUUID string) (models.Report, bool) {
	return s.reports.Read(gameUUID)
}

// Store replaces the persisted report for gameUUID.
func (s *ReportService) Store(gameUUID string, report models.Report) error {
	return s.reports.Write(gameUUID, report)
}

// Watch exposes the committed report writes.
func (s *ReportService) Watch() <-chan store.Change[models.Report] {
	return s.reports.Watch()
}
