// Package apns delivers pushes over Apple's HTTP/2 provider API: plain
// alerts to device tokens and live-activity updates to activity tokens.
package apns

import (
	"encoding/json"

	"github.com/pucklabs/rinkside/pkg/models"
)

// Alert is the visible notification content.
type Alert struct {
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	Subtitle *string `json:"subtitle,omitempty"`
}

// ContentStateReport is the scoreboard a live activity renders.
type ContentStateReport struct {
	HomeScore int                `json:"homeScore"`
	AwayScore int                `json:"awayScore"`
	Status    *models.GameStatus `json:"status,omitempty"`
	Gametime  *string            `json:"gametime,omitempty"`
}

// ContentStateEvent is the event line a live activity highlights.
type ContentStateEvent struct {
	Title    string  `json:"title"`
	Body     *string `json:"body,omitempty"`
	TeamCode *string `json:"teamCode,omitempty"`
}

// ContentState is the dynamic payload of a live-activity push.
type ContentState struct {
	Report ContentStateReport `json:"report"`
	Event  *ContentStateEvent `json:"event,omitempty"`
}

// Aps is the APNs envelope. Keys follow Apple's kebab-case names.
type Aps struct {
	Alert            *Alert  `json:"alert,omitempty"`
	MutableContent   *int    `json:"mutable-content,omitempty"`
	ContentAvailable *int    `json:"content-available,omitempty"`
	Sound            *string `json:"sound,omitempty"`
	Badge            *int    `json:"badge,omitempty"`

	Event          *string       `json:"event,omitempty"`
	RelevanceScore *int          `json:"relevance-score,omitempty"`
	StaleDate      *int64        `json:"stale-date,omitempty"`
	Timestamp      *int64        `json:"timestamp,omitempty"`
	ContentState   *ContentState `json:"content-state,omitempty"`
}

// Body is one push body: the aps envelope plus the game's fields flattened
// at top level, plus the attachment image keys.
type Body struct {
	Aps              Aps
	Game             models.Game
	LocalAttachments []string
}

func (b Body) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	raw, err := json.Marshal(b.Game)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	out["aps"] = b.Aps
	// key spelling matches what the app ships with
	out["localAttachements"] = b.LocalAttachments
	return json.Marshal(out)
}

// PushType selects the APNs delivery class.
type PushType string

const (
	PushTypeAlert        PushType = "alert"
	PushTypeLiveActivity PushType = "liveactivity"
)

// Header carries the per-request APNs headers.
type Header struct {
	PushType   PushType
	Priority   int
	Topic      string
	CollapseID string
	Expiration int64
}

// Push is one ready-to-send notification.
type Push struct {
	Header Header
	Body   Body
}
