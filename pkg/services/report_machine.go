package services

import "github.com/pucklabs/rinkside/pkg/models"

// ProcessReport inspects the transition from prior to report and synthesizes
// the lifecycle event it implies: GameStart when the puck drops, GameEnd
// carrying the winner when the game moves into Finished. Every other
// transition yields nil.
func ProcessReport(report, prior models.Report) *models.Event {
	switch {
	case prior.Status == models.StatusComing && report.Status == models.StatusPeriod1:
		return &models.Event{
			GameUUID:    report.GameUUID,
			EventID:     "GameStarted",
			Revision:    1,
			Status:      models.StatusPeriod1,
			Gametime:    "00:00",
			Description: "Nedsläpp",
			Type:        models.EventTypeGameStart,
		}
	case prior.Status != models.StatusFinished && report.Status == models.StatusFinished:
		return &models.Event{
			GameUUID:    report.GameUUID,
			EventID:     "GameEnded",
			Revision:    1,
			Status:      models.StatusFinished,
			Gametime:    report.Gametime,
			Description: "Matchen slutade",
			Type:        models.EventTypeGameEnd,
			GameEnd:     &models.GameEndInfo{Winner: reportWinner(report)},
		}
	default:
		return nil
	}
}

func reportWinner(r models.Report) *string {
	switch {
	case r.HomeTeamResult > r.AwayTeamResult:
		return &r.HomeTeamCode
	case r.AwayTeamResult > r.HomeTeamResult:
		return &r.AwayTeamCode
	default:
		return nil
	}
}

// IsValidUpdate decides whether the merged report is worth persisting over
// prior. Same-status updates must move the clock, raise a score or flip an
// overtime/shootout flag; during Intermission the clock alone does not
// count. A status change must follow the legal successor graph.
func IsValidUpdate(report, prior models.Report) bool {
	if report.Status == prior.Status {
		scoreRaised := report.HomeTeamResult > prior.HomeTeamResult ||
			report.AwayTeamResult > prior.AwayTeamResult
		flagFlipped := report.Overtime != prior.Overtime || report.Shootout != prior.Shootout
		if report.Status == models.StatusIntermission {
			return scoreRaised || flagFlipped
		}
		return report.Gametime != prior.Gametime || scoreRaised || flagFlipped
	}
	return prior.Status.CanBecome(report.Status)
}
