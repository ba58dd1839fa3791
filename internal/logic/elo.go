// Package logic implements the rating and prediction engine: an Elo-style
// pairwise rating model over completed games, a recency-weighted form
// overlay, and a player-value overlay that converts injury reports into
// rating adjustments.
//
// Engines are single-threaded by design. Training and incremental updates
// read-then-write the in-memory rating map non-atomically, so callers running
// them concurrently against one engine must serialize (load -> mutate ->
// save). Prediction calls are read-only and may run concurrently with each
// other, but not with a training pass.
package logic

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/undulating/sport-huddle-hub/internal/models"
)

// Rating points per point of spread. Empirical conversion, tunable.
const ratingPointsPerSpreadPoint = 25.0

// Margin-of-victory K multiplier slope. Empirical, tunable.
const marginKSlope = 2.2

// EloParams are the base engine tunables.
type EloParams struct {
	// KFactor is the base rating-change magnitude per game.
	KFactor float64
	// HomeAdvantage is added to the home rating before computing the win
	// expectation (65 rating points is roughly 2.5 points of spread).
	HomeAdvantage float64
	// MeanRating is the neutral starting point and regression target.
	MeanRating float64
	// ReversionFactor is the fraction of the gap to the mean removed at
	// each season boundary.
	ReversionFactor float64
	// LeagueAvgTotal is the league-average combined score used to split a
	// predicted spread into team scores.
	LeagueAvgTotal float64
}

// DefaultEloParams returns the standard NFL tuning.
func DefaultEloParams() EloParams {
	return EloParams{
		KFactor:         32.0,
		HomeAdvantage:   65.0,
		MeanRating:      1500.0,
		ReversionFactor: 0.25,
		LeagueAvgTotal:  45.6,
	}
}

// EloEngine maintains per-team strength ratings and converts rating
// differentials into win probabilities and point spreads. The rating map is
// owned by the engine instance; persistence is an explicit caller step via
// LoadRatings/SaveRatings.
type EloEngine struct {
	params  EloParams
	store   GameStore
	logger  *zap.SugaredLogger
	ratings map[string]float64
}

// NewEloEngine creates an engine with an empty rating map. A zero params
// struct selects the defaults.
func NewEloEngine(store GameStore, logger *zap.Logger, params EloParams) *EloEngine {
	if params == (EloParams{}) {
		params = DefaultEloParams()
	}
	return &EloEngine{
		params:  params,
		store:   store,
		logger:  logger.Sugar(),
		ratings: make(map[string]float64),
	}
}

// Params returns the engine tunables.
func (e *EloEngine) Params() EloParams {
	return e.params
}

// Rating returns a team's current rating, defaulting unseen teams to the
// mean. Never an error: unknown teams are intentional (expansion teams,
// renamed franchises).
func (e *EloEngine) Rating(teamID string) float64 {
	if r, ok := e.ratings[teamID]; ok {
		return r
	}
	return e.params.MeanRating
}

// Ratings returns a copy of the current rating map.
func (e *EloEngine) Ratings() map[string]float64 {
	out := make(map[string]float64, len(e.ratings))
	for id, r := range e.ratings {
		out[id] = r
	}
	return out
}

// SetRatings replaces the rating map with a copy of the given one.
func (e *EloEngine) SetRatings(ratings map[string]float64) {
	e.ratings = make(map[string]float64, len(ratings))
	for id, r := range ratings {
		e.ratings[id] = r
	}
	teamsTracked.Set(float64(len(e.ratings)))
}

// ExpectedScore returns the probability that a team rated a beats a team
// rated b. ExpectedScore(a,b) + ExpectedScore(b,a) == 1 for all inputs.
func (e *EloEngine) ExpectedScore(ratingA, ratingB float64) float64 {
	return 1 / (1 + math.Pow(10, (ratingB-ratingA)/400))
}

// UpdateRatings applies one completed game to both participants' ratings and
// returns the new (home, away) ratings. The transfer is zero-sum: home-field
// advantage shifts the expectation, not the magnitude split. Larger victory
// margins scale K logarithmically so blowouts move ratings more without
// rewarding them linearly.
//
// Updates are not commutative across games for the same team; callers must
// apply games in chronological order.
func (e *EloEngine) UpdateRatings(homeID, awayID string, homeWon bool, margin int) (float64, float64) {
	homeRating := e.Rating(homeID)
	awayRating := e.Rating(awayID)

	expectedHome := e.ExpectedScore(homeRating+e.params.HomeAdvantage, awayRating)

	actualHome := 0.0
	if homeWon {
		actualHome = 1.0
	}

	k := e.params.KFactor
	if margin > 0 {
		k *= 1 + math.Log(float64(margin)+1)*marginKSlope/e.params.KFactor
	}

	homeChange := k * (actualHome - expectedHome)
	e.ratings[homeID] = homeRating + homeChange
	e.ratings[awayID] = awayRating - homeChange
	ratingUpdates.Inc()

	return e.ratings[homeID], e.ratings[awayID]
}

// SeasonRegression pulls every tracked rating partway back toward the mean.
// Applied once per season boundary to limit long-term drift.
func (e *EloEngine) SeasonRegression() {
	for id, r := range e.ratings {
		e.ratings[id] = r*(1-e.params.ReversionFactor) + e.params.MeanRating*e.params.ReversionFactor
	}
}

// initializeRatings resets every known team to the mean rating.
func (e *EloEngine) initializeRatings(ctx context.Context) error {
	teams, err := e.store.ListTeams(ctx)
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}
	e.ratings = make(map[string]float64, len(teams))
	for _, id := range teams {
		e.ratings[id] = e.params.MeanRating
	}
	teamsTracked.Set(float64(len(e.ratings)))
	e.logger.Infow("Initialized team ratings", "teams", len(teams), "rating", e.params.MeanRating)
	return nil
}

// Train replays every completed game from startSeason through endSeason in
// chronological order, resetting all teams to the mean first and regressing
// toward the mean at each season boundary after the first. Deterministic:
// re-running on the same game set reproduces identical ratings.
//
// Ratings are mutated in memory only; call SaveRatings to persist.
func (e *EloEngine) Train(ctx context.Context, startSeason, endSeason int) error {
	start := time.Now()

	if err := e.initializeRatings(ctx); err != nil {
		return err
	}

	for season := startSeason; season <= endSeason; season++ {
		if season > startSeason {
			e.SeasonRegression()
		}

		games, err := e.store.ListCompletedGames(ctx, season)
		if err != nil {
			return fmt.Errorf("list completed games for season %d: %w", season, err)
		}

		replayed := 0
		for i := range games {
			g := &games[i]
			if !g.Completed() {
				continue
			}
			e.UpdateRatings(g.HomeTeam, g.AwayTeam, g.HomeWon(), g.Margin())
			replayed++
		}

		e.logger.Infow("Season replay complete", "season", season, "games", replayed)
	}

	trainingRuns.Inc()
	trainingDuration.Observe(time.Since(start).Seconds())
	e.logger.Infow("Training complete",
		"startSeason", startSeason,
		"endSeason", endSeason,
		"teams", len(e.ratings),
		"duration", time.Since(start),
	)
	return nil
}

// UpdateFromRecentGames applies every completed game since the cutoff to the
// current ratings, in chronological order, without margin scaling. This is
// the cheap weekly refresh between full retrains; call LoadRatings first and
// SaveRatings after. Returns the number of games applied.
func (e *EloEngine) UpdateFromRecentGames(ctx context.Context, since time.Time) (int, error) {
	games, err := e.store.ListCompletedGamesSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("list games since %s: %w", since.Format(time.DateOnly), err)
	}

	updated := 0
	for i := range games {
		g := &games[i]
		if !g.Completed() {
			continue
		}
		e.UpdateRatings(g.HomeTeam, g.AwayTeam, g.HomeWon(), 0)
		updated++
	}

	e.logger.Infow("Incremental update complete", "since", since, "games", updated)
	return updated, nil
}

// LoadRatings replaces the in-memory map with the persisted ratings.
func (e *EloEngine) LoadRatings(ctx context.Context) error {
	ratings, err := e.store.CurrentRatings(ctx)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	e.SetRatings(ratings)
	e.logger.Infow("Loaded team ratings", "teams", len(ratings))
	return nil
}

// SaveRatings persists the in-memory map. Each save batch is tagged with a
// fresh run ID, persisted alongside the ratings for auditing.
func (e *EloEngine) SaveRatings(ctx context.Context) error {
	runID := uuid.New().String()
	if err := e.store.SaveRatings(ctx, e.Ratings(), runID); err != nil {
		return fmt.Errorf("save ratings: %w", err)
	}
	e.logger.Infow("Saved team ratings", "runID", runID, "teams", len(e.ratings))
	return nil
}

// PredictGame forecasts a single game from the current ratings. The gameDate
// parameter exists for the shared Predictor interface; the base model ignores
// it. Never returns a partial prediction: the probability pair always sums
// to 1.
func (e *EloEngine) PredictGame(ctx context.Context, homeID, awayID string, gameDate time.Time) (*models.Prediction, error) {
	_ = ctx
	_ = gameDate

	homeRating := e.Rating(homeID)
	awayRating := e.Rating(awayID)

	homeAdj := homeRating + e.params.HomeAdvantage
	homeWinProb := e.ExpectedScore(homeAdj, awayRating)
	spread := (homeAdj - awayRating) / ratingPointsPerSpreadPoint

	half := e.params.LeagueAvgTotal / 2
	pred := &models.Prediction{
		HomeTeam:           homeID,
		AwayTeam:           awayID,
		HomeWinProbability: homeWinProb,
		AwayWinProbability: 1 - homeWinProb,
		PredictedSpread:    spread,
		PredictedHomeScore: math.Max(0, half+spread/2),
		PredictedAwayScore: math.Max(0, half-spread/2),
		HomeElo:            homeRating,
		AwayElo:            awayRating,
		Confidence:         math.Abs(homeWinProb-0.5) * 2,
		ModelType:          models.ModelTypeElo,
	}

	predictionsComputed.Inc()
	return pred, nil
}

// PredictWeek forecasts every game of the given season and week, completed
// or scheduled.
func (e *EloEngine) PredictWeek(ctx context.Context, season, week int) ([]models.Prediction, error) {
	games, err := e.store.ListGamesByWeek(ctx, season, week)
	if err != nil {
		return nil, fmt.Errorf("list games for season %d week %d: %w", season, week, err)
	}

	predictions := make([]models.Prediction, 0, len(games))
	for i := range games {
		g := &games[i]
		pred, err := e.PredictGame(ctx, g.HomeTeam, g.AwayTeam, g.GameDate)
		if err != nil {
			return nil, err
		}
		pred.GameID = g.ExternalID

		e.logger.Infow("Game prediction",
			"game", g.ExternalID,
			"homeWinProb", pred.HomeWinProbability,
			"spread", pred.PredictedSpread,
		)
		predictions = append(predictions, *pred)
	}
	return predictions, nil
}

// EvaluatePredictions back-tests the current ratings against a season's
// completed games. A season with no qualifying games yields zero metrics,
// not an error.
func (e *EloEngine) EvaluatePredictions(ctx context.Context, season int) (*models.Evaluation, error) {
	games, err := e.store.ListCompletedGames(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("list completed games for season %d: %w", season, err)
	}

	correct := 0
	total := 0
	brierSum := 0.0

	for i := range games {
		g := &games[i]
		if !g.Completed() {
			continue
		}

		pred, err := e.PredictGame(ctx, g.HomeTeam, g.AwayTeam, g.GameDate)
		if err != nil {
			return nil, err
		}

		actualHomeWon := g.HomeWon()
		if (pred.HomeWinProbability > 0.5) == actualHomeWon {
			correct++
		}

		actual := 0.0
		if actualHomeWon {
			actual = 1.0
		}
		diff := pred.HomeWinProbability - actual
		brierSum += diff * diff
		total++
	}

	eval := &models.Evaluation{Season: season, Games: total}
	if total > 0 {
		eval.Accuracy = float64(correct) / float64(total)
		eval.BrierScore = brierSum / float64(total)
	}
	return eval, nil
}
