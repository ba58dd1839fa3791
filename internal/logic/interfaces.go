package logic

import (
	"context"
	"time"

	"github.com/undulating/sport-huddle-hub/internal/models"
)

// GameStore is the rating store adapter the engines read historical games
// from and persist ratings to. Implementations must return games in a stable
// (week, date) order so training and evaluation replay identically.
type GameStore interface {
	ListTeams(ctx context.Context) ([]string, error)
	ListCompletedGames(ctx context.Context, season int) ([]models.Game, error)
	ListGamesByWeek(ctx context.Context, season, week int) ([]models.Game, error)
	ListCompletedGamesSince(ctx context.Context, since time.Time) ([]models.Game, error)
	// RecentCompletedGames returns up to limit completed games for a team
	// strictly before the cutoff, most recent first.
	RecentCompletedGames(ctx context.Context, teamID string, before time.Time, limit int) ([]models.Game, error)
	CurrentRatings(ctx context.Context) (map[string]float64, error)
	// SaveRatings persists the full rating map. runID tags the batch for
	// auditing; every row of one save carries the same ID.
	SaveRatings(ctx context.Context, ratings map[string]float64, runID string) error
}

// StatsFeed supplies per-player season stats and weekly injury reports.
type StatsFeed interface {
	PlayerSeasonStats(ctx context.Context, season int) (map[string]models.PlayerSeasonStats, error)
	TeamInjuryReport(ctx context.Context, teamID string, season, week int) ([]models.InjuryRecord, error)
}

// Predictor is the shared prediction surface of the base and recent-form
// engines. The base engine ignores gameDate; the form overlay uses it as the
// recent-form cutoff (zero value means "now").
type Predictor interface {
	PredictGame(ctx context.Context, homeID, awayID string, gameDate time.Time) (*models.Prediction, error)
	PredictWeek(ctx context.Context, season, week int) ([]models.Prediction, error)
}

// ModelKind selects a prediction strategy.
type ModelKind string

const (
	ModelBase       ModelKind = "base"
	ModelRecentForm ModelKind = "recent_form"
)

// NewPredictor wraps the given engine in the requested prediction strategy.
// The engine's rating lifecycle (LoadRatings/SaveRatings) stays with the
// caller. Unknown kinds fall back to the base model.
func NewPredictor(kind ModelKind, base *EloEngine, form FormParams) Predictor {
	if kind == ModelRecentForm {
		return NewFormEngine(base, form)
	}
	return base
}
