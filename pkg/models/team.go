package models

// Team is one catalog entry. The code, name and shortname come from the
// season feed; display codes, championship years and retired numbers are
// hand-authored and survive refreshes.
type Team struct {
	Code           string   `json:"code"`
	DisplayCode    string   `json:"display_code"`
	Name           string   `json:"name"`
	Shortname      string   `json:"shortname"`
	Golds          []string `json:"golds"`
	League         *League  `json:"league,omitempty"`
	Founded        *string  `json:"founded,omitempty"`
	RetiredNumbers []string `json:"retired_numbers"`
}

// TeamsMap indexes a catalog by team code.
type TeamsMap map[string]Team

// NewTeamsMap builds the index.
func NewTeamsMap(teams []Team) TeamsMap {
	m := make(TeamsMap, len(teams))
	for _, t := range teams {
		m[t.Code] = t
	}
	return m
}

// DisplayCode returns the hand-authored short code, falling back to the raw
// code when the team is unknown.
func (m TeamsMap) DisplayCode(code string) string {
	if t, ok := m[code]; ok && t.DisplayCode != "" {
		return t.DisplayCode
	}
	return code
}

// Shortname returns the short display name, falling back to the raw code.
func (m TeamsMap) Shortname(code string) string {
	if t, ok := m[code]; ok && t.Shortname != "" {
		return t.Shortname
	}
	return code
}
