package logic

import (
	"context"
	"sort"
	"time"

	"github.com/undulating/sport-huddle-hub/internal/models"
)

// fakeGameStore is an in-memory GameStore for engine tests. When err is set
// every method fails with it.
type fakeGameStore struct {
	teams      []string
	games      []models.Game
	ratings    map[string]float64
	saved      map[string]float64
	savedRunID string
	err        error
}

func (s *fakeGameStore) ListTeams(ctx context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]string, len(s.teams))
	copy(out, s.teams)
	sort.Strings(out)
	return out, nil
}

func (s *fakeGameStore) ListCompletedGames(ctx context.Context, season int) ([]models.Game, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Game
	for _, g := range s.games {
		if g.Season == season && g.Completed() {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		if !out[i].GameDate.Equal(out[j].GameDate) {
			return out[i].GameDate.Before(out[j].GameDate)
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	return out, nil
}

func (s *fakeGameStore) ListGamesByWeek(ctx context.Context, season, week int) ([]models.Game, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Game
	for _, g := range s.games {
		if g.Season == season && g.Week == week {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameDate.Before(out[j].GameDate) })
	return out, nil
}

func (s *fakeGameStore) ListCompletedGamesSince(ctx context.Context, since time.Time) ([]models.Game, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Game
	for _, g := range s.games {
		if g.Completed() && !g.GameDate.Before(since) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameDate.Before(out[j].GameDate) })
	return out, nil
}

func (s *fakeGameStore) RecentCompletedGames(ctx context.Context, teamID string, before time.Time, limit int) ([]models.Game, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Game
	for _, g := range s.games {
		if !g.Completed() || !g.GameDate.Before(before) {
			continue
		}
		if g.HomeTeam == teamID || g.AwayTeam == teamID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameDate.After(out[j].GameDate) })
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeGameStore) CurrentRatings(ctx context.Context) (map[string]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]float64, len(s.ratings))
	for id, r := range s.ratings {
		out[id] = r
	}
	return out, nil
}

func (s *fakeGameStore) SaveRatings(ctx context.Context, ratings map[string]float64, runID string) error {
	if s.err != nil {
		return s.err
	}
	s.saved = make(map[string]float64, len(ratings))
	for id, r := range ratings {
		s.saved[id] = r
	}
	s.savedRunID = runID
	return nil
}

func intPtr(n int) *int { return &n }

func completedGame(id string, season, week int, home, away string, homeScore, awayScore int, date time.Time) models.Game {
	return models.Game{
		ExternalID: id,
		Season:     season,
		Week:       week,
		HomeTeam:   home,
		AwayTeam:   away,
		HomeScore:  intPtr(homeScore),
		AwayScore:  intPtr(awayScore),
		GameDate:   date,
	}
}

func scheduledGame(id string, season, week int, home, away string, date time.Time) models.Game {
	return models.Game{
		ExternalID: id,
		Season:     season,
		Week:       week,
		HomeTeam:   home,
		AwayTeam:   away,
		GameDate:   date,
	}
}
