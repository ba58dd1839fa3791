package logic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/undulating/sport-huddle-hub/internal/models"
)

// Momentum boost applied when a team's trend is hot or cold.
const momentumBoost = 20.0

// FormParams are the recent-form overlay tunables.
type FormParams struct {
	// RecentGamesWeight is how much the form adjustment influences the
	// blended rating.
	RecentGamesWeight float64
	// GamesToConsider is how many recent games feed the form snapshot.
	GamesToConsider int
	// MomentumFactor is the hard clamp on the form adjustment magnitude.
	MomentumFactor float64
}

// DefaultFormParams returns the standard form tuning.
func DefaultFormParams() FormParams {
	return FormParams{
		RecentGamesWeight: 0.3,
		GamesToConsider:   3,
		MomentumFactor:    50,
	}
}

// FormEngine wraps a base EloEngine and blends a bounded recent-form
// adjustment into each team's rating before predicting. The base engine's
// stored ratings are never altered.
type FormEngine struct {
	base   *EloEngine
	params FormParams
	logger *zap.SugaredLogger
}

// NewFormEngine creates the overlay. A zero params struct selects the
// defaults.
func NewFormEngine(base *EloEngine, params FormParams) *FormEngine {
	if params == (FormParams{}) {
		params = DefaultFormParams()
	}
	return &FormEngine{
		base:   base,
		params: params,
		logger: base.logger,
	}
}

// Base returns the wrapped engine, for callers that need to manage the
// rating lifecycle.
func (f *FormEngine) Base() *EloEngine {
	return f.base
}

// TeamRecentForm computes a team's form from its last few completed games
// strictly before the cutoff (zero value means "now"), most recent weighted
// highest. With no recent games the snapshot is neutral.
func (f *FormEngine) TeamRecentForm(ctx context.Context, teamID string, before time.Time) (*models.FormSnapshot, error) {
	if before.IsZero() {
		before = time.Now()
	}

	games, err := f.base.store.RecentCompletedGames(ctx, teamID, before, f.params.GamesToConsider)
	if err != nil {
		return nil, fmt.Errorf("recent games for %s: %w", teamID, err)
	}

	if len(games) == 0 {
		return &models.FormSnapshot{WinRate: 0.5, Momentum: models.MomentumNeutral}, nil
	}

	n := float64(f.params.GamesToConsider)
	var wins, totalPointDiff, weightSum float64
	formPoints := make([]int, 0, len(games))

	for i := range games {
		g := &games[i]
		// Linearly decaying weight, most recent game highest.
		weight := (n - float64(i)) / n

		var won bool
		var pointDiff int
		if g.HomeTeam == teamID {
			won = *g.HomeScore > *g.AwayScore
			pointDiff = *g.HomeScore - *g.AwayScore
		} else {
			won = *g.AwayScore > *g.HomeScore
			pointDiff = *g.AwayScore - *g.HomeScore
		}

		if won {
			wins += weight
			formPoints = append(formPoints, 1)
		} else {
			formPoints = append(formPoints, -1)
		}
		totalPointDiff += float64(pointDiff) * weight
		weightSum += weight
	}

	winRate := 0.5
	if weightSum > 0 {
		winRate = wins / weightSum
	}

	// Momentum compares the most recent outcome against the oldest
	// considered one.
	momentum := models.MomentumNeutral
	boost := 0.0
	if len(formPoints) >= 2 {
		switch {
		case formPoints[0] > formPoints[len(formPoints)-1]:
			momentum = models.MomentumHot
			boost = momentumBoost
		case formPoints[0] < formPoints[len(formPoints)-1]:
			momentum = models.MomentumCold
			boost = -momentumBoost
		}
	}

	avgPointDiff := totalPointDiff / float64(len(games))
	formRating := (winRate-0.5)*100 + avgPointDiff*2 + boost
	formRating = math.Max(-f.params.MomentumFactor, math.Min(f.params.MomentumFactor, formRating))

	return &models.FormSnapshot{
		FormRating:   formRating,
		WinRate:      winRate,
		AvgPointDiff: avgPointDiff,
		GamesCount:   len(games),
		Momentum:     momentum,
	}, nil
}

// PredictGame forecasts a game with both teams' ratings blended with their
// recent form. The base engine's unadjusted probabilities are retained under
// BaseHomeProb/BaseAwayProb.
func (f *FormEngine) PredictGame(ctx context.Context, homeID, awayID string, gameDate time.Time) (*models.Prediction, error) {
	basePred, err := f.base.PredictGame(ctx, homeID, awayID, gameDate)
	if err != nil {
		return nil, err
	}

	homeForm, err := f.TeamRecentForm(ctx, homeID, gameDate)
	if err != nil {
		return nil, err
	}
	awayForm, err := f.TeamRecentForm(ctx, awayID, gameDate)
	if err != nil {
		return nil, err
	}

	homeAdjust := homeForm.FormRating * f.params.RecentGamesWeight
	awayAdjust := awayForm.FormRating * f.params.RecentGamesWeight
	homeAdjusted := f.base.Rating(homeID) + homeAdjust
	awayAdjusted := f.base.Rating(awayID) + awayAdjust

	ratingDiff := homeAdjusted - awayAdjusted + f.base.params.HomeAdvantage
	homeWinProb := 1 / (1 + math.Pow(10, -ratingDiff/400))
	spread := ratingDiff / ratingPointsPerSpreadPoint

	half := f.base.params.LeagueAvgTotal / 2
	pred := &models.Prediction{
		HomeTeam:           homeID,
		AwayTeam:           awayID,
		HomeWinProbability: homeWinProb,
		AwayWinProbability: 1 - homeWinProb,
		PredictedSpread:    spread,
		PredictedHomeScore: math.Max(0, half+spread/2),
		PredictedAwayScore: math.Max(0, half-spread/2),
		HomeElo:            homeAdjusted,
		AwayElo:            awayAdjusted,
		Confidence:         math.Abs(homeWinProb-0.5) * 2,
		ModelType:          models.ModelTypeRecentForm,
		HomeForm:           homeForm,
		AwayForm:           awayForm,
		BaseHomeProb:       basePred.HomeWinProbability,
		BaseAwayProb:       basePred.AwayWinProbability,
		FormAdjustment:     &models.FormAdjustment{Home: homeAdjust, Away: awayAdjust},
	}

	predictionsComputed.Inc()
	return pred, nil
}

// PredictWeek forecasts every game of the given season and week with form
// blended in, using each game's date as the form cutoff.
func (f *FormEngine) PredictWeek(ctx context.Context, season, week int) ([]models.Prediction, error) {
	games, err := f.base.store.ListGamesByWeek(ctx, season, week)
	if err != nil {
		return nil, fmt.Errorf("list games for season %d week %d: %w", season, week, err)
	}

	predictions := make([]models.Prediction, 0, len(games))
	for i := range games {
		g := &games[i]
		pred, err := f.PredictGame(ctx, g.HomeTeam, g.AwayTeam, g.GameDate)
		if err != nil {
			return nil, err
		}
		pred.GameID = g.ExternalID
		predictions = append(predictions, *pred)
	}
	return predictions, nil
}

// HotTeams returns the n teams with the best recent form. Teams need at
// least 2 recent games to qualify. Reporting only; predictions are not
// affected.
func (f *FormEngine) HotTeams(ctx context.Context, n int) ([]models.TeamForm, error) {
	forms, err := f.teamForms(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(forms, func(i, j int) bool { return forms[i].FormRating > forms[j].FormRating })
	if n < len(forms) {
		forms = forms[:n]
	}
	return forms, nil
}

// ColdTeams returns the n teams with the worst recent form.
func (f *FormEngine) ColdTeams(ctx context.Context, n int) ([]models.TeamForm, error) {
	forms, err := f.teamForms(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(forms, func(i, j int) bool { return forms[i].FormRating < forms[j].FormRating })
	if n < len(forms) {
		forms = forms[:n]
	}
	return forms, nil
}

func (f *FormEngine) teamForms(ctx context.Context) ([]models.TeamForm, error) {
	teams, err := f.base.store.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	forms := make([]models.TeamForm, 0, len(teams))
	for _, id := range teams {
		snap, err := f.TeamRecentForm(ctx, id, time.Time{})
		if err != nil {
			return nil, err
		}
		if snap.GamesCount < 2 {
			continue
		}

		wins := int(snap.WinRate * float64(snap.GamesCount))
		forms = append(forms, models.TeamForm{
			TeamID:       id,
			FormRating:   snap.FormRating,
			Momentum:     snap.Momentum,
			RecentRecord: fmt.Sprintf("%d-%d", wins, snap.GamesCount-wins),
		})
	}
	return forms, nil
}
