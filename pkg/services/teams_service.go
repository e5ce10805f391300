package services

import (
	"log/slog"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
	"github.com/pucklabs/rinkside/pkg/upstream"
)

const teamsKey = "teams"

// TeamsService maintains the team catalog. Codes and names come from the
// season feed; hand-authored decorations survive refreshes.
type TeamsService struct {
	teams  *store.Collection[[]models.Team]
	logger *slog.Logger
}

// NewTeamsService opens the catalog under root.
func NewTeamsService(root string) *TeamsService {
	return &TeamsService{
		teams:  store.NewCollection[[]models.Team](root, "v2_teams"),
		logger: slog.With("component", "teams"),
	}
}

// Read returns the catalog.
func (s *TeamsService) Read() []models.Team {
	teams, _ := s.teams.Read(teamsKey)
	return teams
}

// ReadRaw returns the stored catalog bytes for zero-copy serving.
func (s *TeamsService) ReadRaw() ([]byte, bool) {
	return s.teams.ReadRaw(teamsKey)
}

// Map indexes the catalog by team code.
func (s *TeamsService) Map() models.TeamsMap {
	return models.NewTeamsMap(s.Read())
}

// Merge folds one season feed's team list into the catalog. Names refresh
// from the feed; display codes, golds, founded years and retired numbers are
// only filled when absent.
func (s *TeamsService) Merge(league models.League, feed []upstream.SeasonTeam) {
	if len(feed) == 0 {
		return
	}
	teams := s.Read()
	index := make(map[string]int, len(teams))
	for i, t := range teams {
		index[t.Code] = i
	}

	changed := false
	for _, raw := range feed {
		code := raw.TeamNames.Code
		if code == "" {
			code = raw.TeamCode
		}
		if code == "" {
			continue
		}
		i, known := index[code]
		if !known {
			teams = append(teams, models.Team{Code: code, DisplayCode: code})
			i = len(teams) - 1
			index[code] = i
			changed = true
		}
		t := &teams[i]
		if raw.TeamNames.Long != "" && t.Name != raw.TeamNames.Long {
			t.Name = raw.TeamNames.Long
			changed = true
		}
		if raw.TeamNames.Short != "" && t.Shortname != raw.TeamNames.Short {
			t.Shortname = raw.TeamNames.Short
			changed = true
		}
		if t.League == nil {
			l := league
			t.League = &l
			changed = true
		}
		if info := raw.TeamInfo; info != nil {
			if t.Founded == nil && info.Founded != nil {
				t.Founded = info.Founded
				changed = true
			}
			if len(t.Golds) == 0 {
				if golds := upstream.SplitList(info.Golds); len(golds) > 0 {
					t.Golds = golds
					changed = true
				}
			}
			if len(t.RetiredNumbers) == 0 {
				if retired := upstream.SplitList(info.RetiredNumbers); len(retired) > 0 {
					t.RetiredNumbers = retired
					changed = true
				}
			}
		}
	}

	if !changed {
		return
	}
	if err := s.teams.Write(teamsKey, teams); err != nil {
		s.logger.Error("persist teams", "err", err)
	}
}
