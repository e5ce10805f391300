package models

// User is one registered device with its subscriptions and push tokens.
type User struct {
	ID             string         `json:"id"`
	Teams          []string       `json:"teams"`
	APNToken       *string        `json:"apn_token,omitempty"`
	LiveActivities []LiveActivity `json:"live_activities"`
	MutedGames     []string       `json:"muted_games"`
	ExplicitGames  []string       `json:"explicit_games"`
	IOSVersion     *string        `json:"ios_version,omitempty"`
	AppVersion     *string        `json:"app_version,omitempty"`
}

// LiveActivity pairs an iOS live-activity push token with its game. A user
// holds at most one entry per game.
type LiveActivity struct {
	GameUUID string `json:"game_uuid"`
	APNToken string `json:"apn_token"`
}

// LiveActivityFor returns the activity entry for gameUUID, if present.
func (u User) LiveActivityFor(gameUUID string) (LiveActivity, bool) {
	for _, la := range u.LiveActivities {
		if la.GameUUID == gameUUID {
			return la, true
		}
	}
	return LiveActivity{}, false
}
