package models

import "time"

// Momentum labels for a team's recent form.
const (
	MomentumHot     = "hot"
	MomentumCold    = "cold"
	MomentumNeutral = "neutral"
)

// Model identifiers reported in predictions.
const (
	ModelTypeElo        = "elo_basic"
	ModelTypeRecentForm = "elo_recent_form"
)

// Team is a tracked franchise. ID is the opaque key the rating store uses
// (the team abbreviation, e.g. "KC").
type Team struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Rating float64 `json:"rating"`
}

// Game is a scheduled or completed game. Scores are nil until the game
// finishes; only games with both scores present participate in training.
type Game struct {
	ExternalID string    `json:"external_id"`
	Season     int       `json:"season"`
	Week       int       `json:"week"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	HomeScore  *int      `json:"home_score,omitempty"`
	AwayScore  *int      `json:"away_score,omitempty"`
	GameDate   time.Time `json:"game_date"`
}

// Completed reports whether both final scores are present.
func (g *Game) Completed() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// HomeWon reports whether the home team won. Ties count as a home loss.
func (g *Game) HomeWon() bool {
	return g.Completed() && *g.HomeScore > *g.AwayScore
}

// Margin returns the absolute victory margin, 0 for incomplete games.
func (g *Game) Margin() int {
	if !g.Completed() {
		return 0
	}
	m := *g.HomeScore - *g.AwayScore
	if m < 0 {
		m = -m
	}
	return m
}

// FormSnapshot is a team's recent form as of a cutoff date. Recomputed on
// every prediction request, never persisted.
type FormSnapshot struct {
	FormRating   float64 `json:"form_rating"`
	WinRate      float64 `json:"win_rate"`
	AvgPointDiff float64 `json:"avg_point_diff"`
	GamesCount   int     `json:"games_count"`
	Momentum     string  `json:"momentum"`
}

// TeamForm is one row of a hot/cold teams report.
type TeamForm struct {
	TeamID       string  `json:"team_id"`
	FormRating   float64 `json:"form_rating"`
	Momentum     string  `json:"momentum"`
	RecentRecord string  `json:"recent_record"`
}

// FormAdjustment carries the raw form deltas applied to each side's rating.
type FormAdjustment struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

// InjuryAdjustment carries the rating shift each side received from its
// injury report.
type InjuryAdjustment struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

// Prediction is the outcome forecast for a single game. The probability pair
// always sums to 1.
type Prediction struct {
	GameID             string  `json:"game_id,omitempty"`
	HomeTeam           string  `json:"home_team"`
	AwayTeam           string  `json:"away_team"`
	HomeWinProbability float64 `json:"home_win_probability"`
	AwayWinProbability float64 `json:"away_win_probability"`
	PredictedSpread    float64 `json:"predicted_spread"`
	PredictedHomeScore float64 `json:"predicted_home_score"`
	PredictedAwayScore float64 `json:"predicted_away_score"`
	HomeElo            float64 `json:"home_elo"`
	AwayElo            float64 `json:"away_elo"`
	Confidence         float64 `json:"confidence"`
	ModelType          string  `json:"model_type"`

	// Recent-form overlay extras.
	HomeForm       *FormSnapshot   `json:"home_form,omitempty"`
	AwayForm       *FormSnapshot   `json:"away_form,omitempty"`
	BaseHomeProb   float64         `json:"base_home_prob,omitempty"`
	BaseAwayProb   float64         `json:"base_away_prob,omitempty"`
	FormAdjustment *FormAdjustment `json:"form_adjustment,omitempty"`

	// Injury overlay extras.
	InjuryAdjustment *InjuryAdjustment `json:"injury_adjustment,omitempty"`
}

// Evaluation is a season back-test result. Accuracy and BrierScore are
// defined as 0 when no qualifying games exist.
type Evaluation struct {
	Season     int     `json:"season"`
	Games      int     `json:"games"`
	Accuracy   float64 `json:"accuracy"`
	BrierScore float64 `json:"brier_score"`
}
