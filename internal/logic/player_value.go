package logic

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/undulating/sport-huddle-hub/internal/models"
)

// Position value multipliers (QB most important).
var positionMultipliers = map[string]float64{
	"QB":   3.0,
	"RB":   1.5,
	"WR":   1.3,
	"TE":   1.1,
	"OT":   1.2,
	"OG":   0.9,
	"C":    1.0,
	"EDGE": 1.4,
	"DT":   1.0,
	"LB":   1.1,
	"CB":   1.2,
	"S":    1.0,
	"K":    0.7,
	"P":    0.5,
}

// Injury status severity. Unknown statuses count as active.
var statusMultipliers = map[string]float64{
	models.StatusOut:          1.0,
	models.StatusDoubtful:     0.7,
	models.StatusQuestionable: 0.3,
	models.StatusProbable:     0.1,
	models.StatusActive:       0.0,
}

const (
	// Conservative fallbacks when a stat line is corrupt or the position
	// has no family calculator.
	defaultQBValue       = 50.0
	defaultPositionValue = 30.0

	// No team's prediction shifts by more than this, regardless of
	// injury volume.
	maxTeamInjuryImpact = 150.0
)

// PlayerValues scores player importance on a 0-100 scale (before the
// position multiplier) and converts injury reports into rating adjustments.
// Values are cached by player name; call ResetCache after a training run so
// long-lived processes don't serve stale values or grow without bound.
//
// Stateless with respect to team ratings: the adjustment it produces is
// applied at prediction time only and never persisted.
type PlayerValues struct {
	logger *zap.SugaredLogger
	cache  map[string]float64
}

// NewPlayerValues creates an overlay with an empty value cache.
func NewPlayerValues(logger *zap.Logger) *PlayerValues {
	return &PlayerValues{
		logger: logger.Sugar(),
		cache:  make(map[string]float64),
	}
}

// ResetCache drops all cached player values.
func (p *PlayerValues) ResetCache() {
	p.cache = make(map[string]float64)
}

// statReader coerces raw feed values into numbers, remembering whether any
// present value was non-numeric. One corrupt record must not abort a batch
// impact calculation, so family calculators check bad and fall back to a
// conservative default instead of propagating an error.
type statReader struct {
	stats models.StatLine
	bad   bool
}

func (r *statReader) num(key string, fallback float64) float64 {
	v, ok := r.stats[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			r.bad = true
			return fallback
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			r.bad = true
			return fallback
		}
		return f
	default:
		r.bad = true
		return fallback
	}
}

// qbValue blends per-game passing yards, TD:INT ratio, completion percentage
// and QBR into a 0-100 score.
func (p *PlayerValues) qbValue(stats models.StatLine) float64 {
	r := &statReader{stats: stats}

	games := math.Max(r.num("games", 1), 1)
	passYardsPerGame := r.num("passing_yards", 0) / games
	tdIntRatio := r.num("passing_tds", 0) / math.Max(r.num("interceptions", 1), 1)
	completionPct := r.num("completions", 0) / math.Max(r.num("attempts", 1), 1)
	qbr := r.num("qbr", 50)

	if r.bad {
		p.logger.Warnw("Malformed QB stat line, using default value")
		return defaultQBValue
	}

	yardsScore := math.Min(passYardsPerGame/3, 100) // 300 yards/game = 100
	tdIntScore := math.Min(tdIntRatio*20, 100)      // 5:1 ratio = 100
	completionScore := completionPct * 100
	qbrScore := qbr // already 0-100

	value := yardsScore*0.25 + tdIntScore*0.25 + completionScore*0.20 + qbrScore*0.30
	return math.Min(value, 100)
}

// skillValue scores RB/WR/TE from touches, production and target share.
func (p *PlayerValues) skillValue(stats models.StatLine, position string) float64 {
	r := &statReader{stats: stats}

	games := math.Max(r.num("games", 1), 1)
	targets := r.num("targets", 0)
	receptions := r.num("receptions", 0)
	recYards := r.num("receiving_yards", 0)
	recTDs := r.num("receiving_tds", 0)

	var carries, rushYards, rushTDs float64
	if position == "RB" {
		carries = r.num("carries", 0)
		rushYards = r.num("rushing_yards", 0)
		rushTDs = r.num("rushing_tds", 0)
	}

	targetShare := targets / math.Max(r.num("team_pass_attempts", 200), 1)

	if r.bad {
		p.logger.Warnw("Malformed stat line, using default value", "position", position)
		return defaultPositionValue
	}

	var value float64
	if position == "RB" {
		totalTouches := (receptions + carries) / games
		totalYards := (recYards + rushYards) / games
		totalTDs := (recTDs + rushTDs) / games
		value = math.Min(totalTouches/20, 1)*40 + // 20 touches/game = 40 points
			math.Min(totalYards/100, 1)*30 + // 100 yards/game = 30 points
			math.Min(totalTDs, 1)*20 + // 1 TD/game = 20 points
			targetShare*100*10 // target share bonus
	} else {
		value = math.Min(receptions/games/6, 1)*30 + // 6 rec/game = 30 points
			math.Min(recYards/games/80, 1)*40 + // 80 yards/game = 40 points
			targetShare*100*30 // target share crucial for WRs
	}

	return math.Min(value, 100)
}

// defensiveValue scores defenders with family-specific weighting: rushers by
// sacks, cover defenders by takeaways and passes defended, linebackers by
// tackle volume.
func (p *PlayerValues) defensiveValue(stats models.StatLine, position string) float64 {
	r := &statReader{stats: stats}

	games := math.Max(r.num("games", 1), 1)
	tackles := r.num("tackles", 0) / games
	sacks := r.num("sacks", 0) / games
	ints := r.num("interceptions", 0) / games
	passesDefended := r.num("passes_defended", 0) / games
	forcedFumbles := r.num("forced_fumbles", 0) / games

	if r.bad {
		p.logger.Warnw("Malformed stat line, using default value", "position", position)
		return defaultPositionValue
	}

	var value float64
	switch position {
	case "EDGE", "DT":
		value = math.Min(sacks*2, 1)*50 + // 0.5 sacks/game = 50 points
			math.Min(tackles/5, 1)*30 + // 5 tackles/game = 30 points
			forcedFumbles*20 // turnover bonus
	case "CB", "S":
		value = math.Min(ints*4, 1)*40 + // 0.25 INTs/game = 40 points
			math.Min(passesDefended, 1)*30 + // 1 PD/game = 30 points
			math.Min(tackles/5, 1)*30
	default: // LB
		value = math.Min(tackles/8, 1)*40 + // 8 tackles/game = 40 points
			math.Min(sacks*4, 1)*30 + // 0.25 sacks/game = 30 points
			(ints+forcedFumbles)*30 // turnover bonus
	}

	return math.Min(value, 100)
}

// PlayerValue returns a player's importance score: the position family's
// 0-100 base value scaled by the position multiplier. Cached by name for the
// lifetime of the overlay (or until ResetCache).
func (p *PlayerValues) PlayerValue(name, position string, stats models.StatLine) float64 {
	if v, ok := p.cache[name]; ok {
		return v
	}

	var base float64
	switch position {
	case "QB":
		base = p.qbValue(stats)
	case "RB", "WR", "TE":
		base = p.skillValue(stats, position)
	case "EDGE", "DT", "LB", "CB", "S":
		base = p.defensiveValue(stats, position)
	default:
		base = defaultPositionValue
	}

	mult, ok := positionMultipliers[position]
	if !ok {
		mult = 1.0
	}
	value := base * mult

	p.cache[name] = value
	return value
}

// InjuryImpact converts a player value and injury status into rating points
// to subtract (always <= 0). A top QB listed as OUT costs his team his full
// value.
func (p *PlayerValues) InjuryImpact(playerValue float64, status string) float64 {
	return -playerValue * statusMultipliers[strings.ToUpper(strings.TrimSpace(status))]
}

// TeamInjuryImpact sums the per-player impacts of a team's injury report,
// floored at -150 so injury volume alone can't swing a prediction without
// bound.
func (p *PlayerValues) TeamInjuryImpact(injuries []models.InjuryRecord) float64 {
	total := 0.0
	for i := range injuries {
		inj := &injuries[i]
		value := p.PlayerValue(inj.PlayerName, inj.Position, inj.Stats)
		impact := p.InjuryImpact(value, inj.Status)
		total += impact

		if impact < -20 {
			p.logger.Infow("Significant injury",
				"player", inj.PlayerName,
				"position", inj.Position,
				"status", inj.Status,
				"value", value,
				"impact", impact,
			)
		}
	}

	return math.Max(total, -maxTeamInjuryImpact)
}

// ApplyInjuryImpact returns a copy of pred recomputed from injury-shifted
// effective ratings. Impacts are <= 0 rating points per side; the stored
// team ratings are untouched.
func ApplyInjuryImpact(pred *models.Prediction, params EloParams, homeImpact, awayImpact float64) *models.Prediction {
	adjHome := pred.HomeElo + homeImpact
	adjAway := pred.AwayElo + awayImpact

	ratingDiff := adjHome + params.HomeAdvantage - adjAway
	homeWinProb := 1 / (1 + math.Pow(10, -ratingDiff/400))
	spread := ratingDiff / ratingPointsPerSpreadPoint
	half := params.LeagueAvgTotal / 2

	out := *pred
	out.HomeWinProbability = homeWinProb
	out.AwayWinProbability = 1 - homeWinProb
	out.PredictedSpread = spread
	out.PredictedHomeScore = math.Max(0, half+spread/2)
	out.PredictedAwayScore = math.Max(0, half-spread/2)
	out.Confidence = math.Abs(homeWinProb-0.5) * 2
	out.InjuryAdjustment = &models.InjuryAdjustment{Home: homeImpact, Away: awayImpact}
	return &out
}
