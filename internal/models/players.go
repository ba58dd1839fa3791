package models

// Injury report statuses as published by the league feed.
const (
	StatusOut          = "OUT"
	StatusDoubtful     = "DOUBTFUL"
	StatusQuestionable = "QUESTIONABLE"
	StatusProbable     = "PROBABLE"
	StatusActive       = "ACTIVE"
)

// StatLine is a raw per-player season stat record as delivered by the feed.
// Values are untyped because upstream feeds mix numeric types and the
// occasional garbage string; consumers coerce defensively.
type StatLine map[string]any

// PlayerSeasonStats is one player's season aggregate from the stats feed.
type PlayerSeasonStats struct {
	PlayerName string   `json:"player_name"`
	Position   string   `json:"position"`
	Stats      StatLine `json:"stats"`
}

// InjuryRecord is one entry of a team's weekly injury report, with the
// player's season stats attached when the feed has them.
type InjuryRecord struct {
	PlayerName string   `json:"player_name"`
	Position   string   `json:"position"`
	Status     string   `json:"status"`
	Stats      StatLine `json:"stats,omitempty"`
}
