// Package store implements the rating store adapter and the player stats
// feed over Postgres, Redis and ClickHouse.
package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/undulating/sport-huddle-hub/internal/models"
)

// PgPool defines the interface for the PostgreSQL connection pool
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Redis hash holding the latest persisted ratings, team id -> rating.
const ratingsHashKey = "team_ratings"

const gameColumns = `external_id, season, week, home_team, away_team, home_score, away_score, game_date`

// Postgres is the rating store adapter: team and game reads, rating
// persistence, with an optional Redis write-through cache for ratings.
type Postgres struct {
	pg     PgPool
	redis  *redis.Client
	logger *zap.SugaredLogger
}

// NewPostgres creates the adapter. rdb may be nil; the ratings cache is then
// disabled and all reads hit Postgres.
func NewPostgres(pg PgPool, rdb *redis.Client, logger *zap.Logger) *Postgres {
	return &Postgres{
		pg:     pg,
		redis:  rdb,
		logger: logger.Sugar(),
	}
}

// ListTeams returns every team identifier, sorted.
func (s *Postgres) ListTeams(ctx context.Context) ([]string, error) {
	rows, err := s.pg.Query(ctx, `SELECT abbreviation FROM teams ORDER BY abbreviation`)
	if err != nil {
		return nil, fmt.Errorf("list teams query failed: %w", err)
	}
	defer rows.Close()

	var teams []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, id)
	}
	return teams, rows.Err()
}

// ListCompletedGames returns a season's completed games ordered by
// (week, date, external id). The external-id tie-break keeps the replay
// order stable between training and evaluation.
func (s *Postgres) ListCompletedGames(ctx context.Context, season int) ([]models.Game, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE season = $1
		  AND home_score IS NOT NULL
		  AND away_score IS NOT NULL
		ORDER BY week, game_date, external_id
	`, season)
	if err != nil {
		return nil, fmt.Errorf("completed games query failed: %w", err)
	}
	return scanGames(rows)
}

// ListGamesByWeek returns every game of a season/week, completed or
// scheduled.
func (s *Postgres) ListGamesByWeek(ctx context.Context, season, week int) ([]models.Game, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE season = $1 AND week = $2
		ORDER BY game_date, external_id
	`, season, week)
	if err != nil {
		return nil, fmt.Errorf("week games query failed: %w", err)
	}
	return scanGames(rows)
}

// ListCompletedGamesSince returns completed games on or after the cutoff in
// chronological order.
func (s *Postgres) ListCompletedGamesSince(ctx context.Context, since time.Time) ([]models.Game, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE game_date >= $1
		  AND home_score IS NOT NULL
		  AND away_score IS NOT NULL
		ORDER BY game_date, external_id
	`, since)
	if err != nil {
		return nil, fmt.Errorf("recent games query failed: %w", err)
	}
	return scanGames(rows)
}

// RecentCompletedGames returns up to limit of a team's completed games
// strictly before the cutoff, most recent first.
func (s *Postgres) RecentCompletedGames(ctx context.Context, teamID string, before time.Time, limit int) ([]models.Game, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE (home_team = $1 OR away_team = $1)
		  AND home_score IS NOT NULL
		  AND away_score IS NOT NULL
		  AND game_date < $2
		ORDER BY game_date DESC, external_id DESC
		LIMIT $3
	`, teamID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("team recent games query failed: %w", err)
	}
	return scanGames(rows)
}

// CurrentRatings returns the persisted ratings, preferring the Redis cache
// and falling back to Postgres. Cache failures are logged, never fatal.
func (s *Postgres) CurrentRatings(ctx context.Context) (map[string]float64, error) {
	if s.redis != nil {
		cached, err := s.redis.HGetAll(ctx, ratingsHashKey).Result()
		if err != nil && err != redis.Nil {
			s.logger.Warnw("Ratings cache read failed, falling back to Postgres", "error", err)
		} else if len(cached) > 0 {
			ratings := make(map[string]float64, len(cached))
			for id, raw := range cached {
				r, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					s.logger.Warnw("Bad cached rating, skipping", "team", id, "value", raw)
					continue
				}
				ratings[id] = r
			}
			if len(ratings) > 0 {
				return ratings, nil
			}
		}
	}

	rows, err := s.pg.Query(ctx, `
		SELECT abbreviation, elo_rating
		FROM teams
		WHERE elo_rating IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("ratings query failed: %w", err)
	}
	defer rows.Close()

	ratings := make(map[string]float64)
	for rows.Next() {
		var id string
		var rating float64
		if err := rows.Scan(&id, &rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings[id] = rating
	}
	return ratings, rows.Err()
}

// SaveRatings persists the ratings to Postgres and refreshes the Redis
// cache. Every row of the batch carries runID so a bad training run can be
// traced back from the table. The Postgres write is authoritative; cache
// errors are logged only.
func (s *Postgres) SaveRatings(ctx context.Context, ratings map[string]float64, runID string) error {
	now := time.Now()
	for id, rating := range ratings {
		_, err := s.pg.Exec(ctx, `
			UPDATE teams SET elo_rating = $2, rating_updated_at = $3, rating_run_id = $4 WHERE abbreviation = $1
		`, id, rating, now, runID)
		if err != nil {
			return fmt.Errorf("save rating for %s: %w", id, err)
		}
	}

	if s.redis != nil {
		pipe := s.redis.Pipeline()
		for id, rating := range ratings {
			pipe.HSet(ctx, ratingsHashKey, id, strconv.FormatFloat(rating, 'f', -1, 64))
		}
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			s.logger.Warnw("Ratings cache write failed", "error", err)
		}
	}

	s.logger.Infow("Persisted team ratings", "runID", runID, "teams", len(ratings))
	return nil
}

func scanGames(rows pgx.Rows) ([]models.Game, error) {
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		var g models.Game
		if err := rows.Scan(
			&g.ExternalID, &g.Season, &g.Week,
			&g.HomeTeam, &g.AwayTeam,
			&g.HomeScore, &g.AwayScore,
			&g.GameDate,
		); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
