package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/undulating/sport-huddle-hub/internal/models"
)

// StatsFeed supplies per-player season stat aggregates from the analytics
// store and weekly injury reports from Postgres.
type StatsFeed struct {
	ch     driver.Conn
	pg     PgPool
	logger *zap.SugaredLogger
}

// NewStatsFeed creates the feed provider.
func NewStatsFeed(ch driver.Conn, pg PgPool, logger *zap.Logger) *StatsFeed {
	return &StatsFeed{
		ch:     ch,
		pg:     pg,
		logger: logger.Sugar(),
	}
}

// PlayerSeasonStats aggregates each player's season totals from the per-game
// stat rows, keyed by player name.
func (f *StatsFeed) PlayerSeasonStats(ctx context.Context, season int) (map[string]models.PlayerSeasonStats, error) {
	query := `
		SELECT
			player_name,
			any(position) as position,
			toFloat64(count()) as games,
			toFloat64(sum(completions)) as completions,
			toFloat64(sum(attempts)) as attempts,
			toFloat64(sum(passing_yards)) as passing_yards,
			toFloat64(sum(passing_tds)) as passing_tds,
			toFloat64(sum(interceptions)) as interceptions,
			toFloat64(sum(carries)) as carries,
			toFloat64(sum(rushing_yards)) as rushing_yards,
			toFloat64(sum(rushing_tds)) as rushing_tds,
			toFloat64(sum(targets)) as targets,
			toFloat64(sum(receptions)) as receptions,
			toFloat64(sum(receiving_yards)) as receiving_yards,
			toFloat64(sum(receiving_tds)) as receiving_tds,
			toFloat64(sum(tackles)) as tackles,
			toFloat64(sum(sacks)) as sacks,
			toFloat64(sum(passes_defended)) as passes_defended,
			toFloat64(sum(forced_fumbles)) as forced_fumbles
		FROM nfl_stats.player_game_stats
		WHERE season = ?
		GROUP BY player_name
	`
	rows, err := f.ch.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("player stats query failed: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]models.PlayerSeasonStats)
	for rows.Next() {
		var name, position string
		var games, completions, attempts, passingYards, passingTDs, interceptions float64
		var carries, rushingYards, rushingTDs, targets, receptions, receivingYards, receivingTDs float64
		var tackles, sacks, passesDefended, forcedFumbles float64

		if err := rows.Scan(
			&name, &position, &games,
			&completions, &attempts, &passingYards, &passingTDs, &interceptions,
			&carries, &rushingYards, &rushingTDs,
			&targets, &receptions, &receivingYards, &receivingTDs,
			&tackles, &sacks, &passesDefended, &forcedFumbles,
		); err != nil {
			return nil, fmt.Errorf("scan player stats: %w", err)
		}

		stats[name] = models.PlayerSeasonStats{
			PlayerName: name,
			Position:   strings.ToUpper(position),
			Stats: models.StatLine{
				"games":           games,
				"completions":     completions,
				"attempts":        attempts,
				"passing_yards":   passingYards,
				"passing_tds":     passingTDs,
				"interceptions":   interceptions,
				"carries":         carries,
				"rushing_yards":   rushingYards,
				"rushing_tds":     rushingTDs,
				"targets":         targets,
				"receptions":      receptions,
				"receiving_yards": receivingYards,
				"receiving_tds":   receivingTDs,
				"tackles":         tackles,
				"sacks":           sacks,
				"passes_defended": passesDefended,
				"forced_fumbles":  forcedFumbles,
			},
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("player stats row iteration failed: %w", err)
	}
	return stats, nil
}

// TeamInjuries returns a team's injury report for a week, without stats
// attached.
func (f *StatsFeed) TeamInjuries(ctx context.Context, teamID string, season, week int) ([]models.InjuryRecord, error) {
	rows, err := f.pg.Query(ctx, `
		SELECT player_name, position, injury_status
		FROM injury_reports
		WHERE team = $1 AND season = $2 AND week = $3
		ORDER BY player_name
	`, teamID, season, week)
	if err != nil {
		return nil, fmt.Errorf("injury report query failed: %w", err)
	}
	defer rows.Close()

	var injuries []models.InjuryRecord
	for rows.Next() {
		var rec models.InjuryRecord
		if err := rows.Scan(&rec.PlayerName, &rec.Position, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan injury record: %w", err)
		}
		rec.Position = strings.ToUpper(rec.Position)
		rec.Status = strings.ToUpper(rec.Status)
		injuries = append(injuries, rec)
	}
	return injuries, rows.Err()
}

// TeamInjuryReport returns a team's weekly injury report with each player's
// season stats joined in. The two upstream fetches run concurrently.
func (f *StatsFeed) TeamInjuryReport(ctx context.Context, teamID string, season, week int) ([]models.InjuryRecord, error) {
	var (
		stats    map[string]models.PlayerSeasonStats
		injuries []models.InjuryRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := f.PlayerSeasonStats(gctx, season)
		stats = s
		return err
	})
	g.Go(func() error {
		inj, err := f.TeamInjuries(gctx, teamID, season, week)
		injuries = inj
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range injuries {
		if ps, ok := stats[injuries[i].PlayerName]; ok {
			injuries[i].Stats = ps.Stats
		}
	}
	return injuries, nil
}
