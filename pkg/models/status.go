package models

// Status is the hand-written operational banner surfaced to clients, e.g.
// during upstream outages.
type Status struct {
	Msg string `json:"msg"`
	Lvl string `json:"lvl"`
}
