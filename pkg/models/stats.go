package models

// TeamGameStats is one team's aggregate line for a single game.
type TeamGameStats struct {
	G   int `json:"g"`
	SOG int `json:"sog"`
	PIM int `json:"pim"`
	FOW int `json:"fow"`
}

// GameStats pairs the aggregate lines served with game details.
type GameStats struct {
	Home TeamGameStats `json:"home"`
	Away TeamGameStats `json:"away"`
}

// GameDetails is the full per-game view: the decorated game plus its events,
// team stats and boxscore lines.
type GameDetails struct {
	Game    Game       `json:"game"`
	Events  []Event    `json:"events"`
	Stats   *GameStats `json:"stats,omitempty"`
	Players []Athlete  `json:"players"`
}
