package logic

import (
	"context"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/undulating/sport-huddle-hub/internal/models"
)

func newTestFormEngine(store *fakeGameStore) *FormEngine {
	return NewFormEngine(NewEloEngine(store, zap.NewNop(), EloParams{}), FormParams{})
}

var formCutoff = time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC)

// formStore builds a history where, before formCutoff, KC won its most recent
// game by 10 at home, lost by 3 on the road the week before, and won by 7 at
// home the week before that.
func formStore() *fakeGameStore {
	return &fakeGameStore{
		teams: []string{"DEN", "KC", "LV"},
		games: []models.Game{
			completedGame("g1", 2023, 11, "KC", "DEN", 27, 17, formCutoff.AddDate(0, 0, -1)),
			completedGame("g2", 2023, 10, "LV", "KC", 20, 17, formCutoff.AddDate(0, 0, -8)),
			completedGame("g3", 2023, 9, "KC", "LV", 24, 17, formCutoff.AddDate(0, 0, -15)),
		},
	}
}

func TestTeamRecentFormNeutralWithoutHistory(t *testing.T) {
	form := newTestFormEngine(&fakeGameStore{teams: []string{"KC"}})

	snap, err := form.TeamRecentForm(context.Background(), "KC", formCutoff)
	if err != nil {
		t.Fatalf("TeamRecentForm() error: %v", err)
	}
	if snap.WinRate != 0.5 || snap.Momentum != models.MomentumNeutral || snap.FormRating != 0 || snap.GamesCount != 0 {
		t.Errorf("empty history snapshot = %+v, want neutral", snap)
	}
}

func TestTeamRecentFormWeighting(t *testing.T) {
	form := newTestFormEngine(formStore())

	snap, err := form.TeamRecentForm(context.Background(), "KC", formCutoff)
	if err != nil {
		t.Fatalf("TeamRecentForm() error: %v", err)
	}

	// Weights 1, 2/3, 1/3 over win/loss/win: weighted wins 4/3 of a 2.0
	// weight total.
	if math.Abs(snap.WinRate-2.0/3.0) > 1e-9 {
		t.Errorf("win rate = %v, want 2/3", snap.WinRate)
	}
	// (10*1 - 3*2/3 + 7*1/3) / 3 games.
	if math.Abs(snap.AvgPointDiff-31.0/9.0) > 1e-9 {
		t.Errorf("avg point diff = %v, want %v", snap.AvgPointDiff, 31.0/9.0)
	}
	// Win both ends of the window: no momentum boost.
	if snap.Momentum != models.MomentumNeutral {
		t.Errorf("momentum = %q, want neutral", snap.Momentum)
	}
	want := (snap.WinRate-0.5)*100 + snap.AvgPointDiff*2
	if math.Abs(snap.FormRating-want) > 1e-9 {
		t.Errorf("form rating = %v, want %v", snap.FormRating, want)
	}
	if snap.GamesCount != 3 {
		t.Errorf("games count = %d, want 3", snap.GamesCount)
	}
}

func TestTeamRecentFormMomentum(t *testing.T) {
	tests := []struct {
		name         string
		games        []models.Game
		wantMomentum string
	}{
		{
			name: "recent win after old loss is hot",
			games: []models.Game{
				completedGame("g1", 2023, 11, "KC", "DEN", 24, 20, formCutoff.AddDate(0, 0, -1)),
				completedGame("g2", 2023, 10, "KC", "LV", 13, 20, formCutoff.AddDate(0, 0, -8)),
				completedGame("g3", 2023, 9, "KC", "CHI", 10, 27, formCutoff.AddDate(0, 0, -15)),
			},
			wantMomentum: models.MomentumHot,
		},
		{
			name: "recent loss after old win is cold",
			games: []models.Game{
				completedGame("g1", 2023, 11, "KC", "DEN", 20, 24, formCutoff.AddDate(0, 0, -1)),
				completedGame("g2", 2023, 10, "KC", "LV", 20, 13, formCutoff.AddDate(0, 0, -8)),
				completedGame("g3", 2023, 9, "KC", "CHI", 27, 10, formCutoff.AddDate(0, 0, -15)),
			},
			wantMomentum: models.MomentumCold,
		},
		{
			name: "single game has no trend",
			games: []models.Game{
				completedGame("g1", 2023, 11, "KC", "DEN", 24, 20, formCutoff.AddDate(0, 0, -1)),
			},
			wantMomentum: models.MomentumNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := newTestFormEngine(&fakeGameStore{teams: []string{"KC"}, games: tt.games})
			snap, err := form.TeamRecentForm(context.Background(), "KC", formCutoff)
			if err != nil {
				t.Fatalf("TeamRecentForm() error: %v", err)
			}
			if snap.Momentum != tt.wantMomentum {
				t.Errorf("momentum = %q, want %q", snap.Momentum, tt.wantMomentum)
			}
		})
	}
}

func TestTeamRecentFormClamped(t *testing.T) {
	blowouts := &fakeGameStore{
		teams: []string{"KC"},
		games: []models.Game{
			completedGame("g1", 2023, 11, "KC", "DEN", 50, 10, formCutoff.AddDate(0, 0, -1)),
			completedGame("g2", 2023, 10, "KC", "LV", 54, 14, formCutoff.AddDate(0, 0, -8)),
			completedGame("g3", 2023, 9, "KC", "CHI", 47, 7, formCutoff.AddDate(0, 0, -15)),
		},
	}
	form := newTestFormEngine(blowouts)

	snap, err := form.TeamRecentForm(context.Background(), "KC", formCutoff)
	if err != nil {
		t.Fatalf("TeamRecentForm() error: %v", err)
	}
	if snap.FormRating != 50 {
		t.Errorf("form rating = %v, want clamped to 50", snap.FormRating)
	}

	losses := &fakeGameStore{
		teams: []string{"CHI"},
		games: []models.Game{
			completedGame("g1", 2023, 11, "CHI", "DEN", 10, 50, formCutoff.AddDate(0, 0, -1)),
			completedGame("g2", 2023, 10, "CHI", "LV", 14, 54, formCutoff.AddDate(0, 0, -8)),
			completedGame("g3", 2023, 9, "CHI", "KC", 7, 47, formCutoff.AddDate(0, 0, -15)),
		},
	}
	form = newTestFormEngine(losses)

	snap, err = form.TeamRecentForm(context.Background(), "CHI", formCutoff)
	if err != nil {
		t.Fatalf("TeamRecentForm() error: %v", err)
	}
	if snap.FormRating != -50 {
		t.Errorf("form rating = %v, want clamped to -50", snap.FormRating)
	}
}

func TestFormPredictGameBlendsForm(t *testing.T) {
	form := newTestFormEngine(formStore())

	pred, err := form.PredictGame(context.Background(), "KC", "CHI", formCutoff)
	if err != nil {
		t.Fatalf("PredictGame() error: %v", err)
	}

	if math.Abs(pred.HomeWinProbability+pred.AwayWinProbability-1) > 1e-12 {
		t.Errorf("probability pair sums to %v, want 1", pred.HomeWinProbability+pred.AwayWinProbability)
	}
	if pred.ModelType != "elo_recent_form" {
		t.Errorf("model type = %q, want elo_recent_form", pred.ModelType)
	}
	if pred.HomeForm == nil || pred.AwayForm == nil || pred.FormAdjustment == nil {
		t.Fatalf("form extras missing: %+v", pred)
	}

	// Both teams start at the mean, so the base probability is pure home
	// advantage. KC is in good form and CHI has no recent games, so the
	// blend moves the forecast further toward KC.
	if pred.BaseHomeProb <= 0.5 {
		t.Errorf("base home prob = %v, want above 0.5", pred.BaseHomeProb)
	}
	if pred.HomeWinProbability <= pred.BaseHomeProb {
		t.Errorf("blended prob %v should exceed base prob %v for the in-form home team",
			pred.HomeWinProbability, pred.BaseHomeProb)
	}

	wantHomeAdjust := pred.HomeForm.FormRating * 0.3
	if math.Abs(pred.FormAdjustment.Home-wantHomeAdjust) > 1e-9 {
		t.Errorf("home form adjustment = %v, want %v", pred.FormAdjustment.Home, wantHomeAdjust)
	}
	if math.Abs(pred.HomeElo-(1500+wantHomeAdjust)) > 1e-9 {
		t.Errorf("home rating in prediction = %v, want form-adjusted %v", pred.HomeElo, 1500+wantHomeAdjust)
	}
}

func TestFormPredictWeek(t *testing.T) {
	store := formStore()
	store.games = append(store.games,
		scheduledGame("g4", 2023, 12, "KC", "LV", formCutoff.AddDate(0, 0, 1)),
		scheduledGame("g5", 2023, 12, "DEN", "CHI", formCutoff.AddDate(0, 0, 1)),
	)
	form := newTestFormEngine(store)

	preds, err := form.PredictWeek(context.Background(), 2023, 12)
	if err != nil {
		t.Fatalf("PredictWeek() error: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("got %d predictions, want 2", len(preds))
	}
	for _, p := range preds {
		if p.GameID == "" {
			t.Errorf("prediction for %s vs %s missing game ID", p.HomeTeam, p.AwayTeam)
		}
		if p.HomeForm == nil {
			t.Errorf("prediction for %s missing form snapshot", p.HomeTeam)
		}
	}
}

func TestNewPredictorSelectsModel(t *testing.T) {
	store := formStore()
	base := NewEloEngine(store, zap.NewNop(), EloParams{})
	base.SetRatings(map[string]float64{"KC": 1600, "CHI": 1450})

	tests := []struct {
		name      string
		kind      ModelKind
		wantModel string
	}{
		{"base", ModelBase, models.ModelTypeElo},
		{"recent form", ModelRecentForm, models.ModelTypeRecentForm},
		{"unknown kind falls back to base", ModelKind("bogus"), models.ModelTypeElo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := NewPredictor(tt.kind, base, FormParams{}).PredictGame(context.Background(), "KC", "CHI", formCutoff)
			if err != nil {
				t.Fatalf("PredictGame() error: %v", err)
			}
			if pred.ModelType != tt.wantModel {
				t.Errorf("model type = %q, want %q", pred.ModelType, tt.wantModel)
			}
		})
	}

	// The wrapped engine is the caller's instance, loaded ratings included.
	p := NewPredictor(ModelRecentForm, base, FormParams{})
	fe, ok := p.(*FormEngine)
	if !ok {
		t.Fatalf("predictor type = %T, want *FormEngine", p)
	}
	if fe.Base() != base {
		t.Errorf("form overlay wraps a different engine instance")
	}
}

func TestHotAndColdTeams(t *testing.T) {
	// KC 3-0, CHI 0-3, DEN 1-1. LV appears once and should not qualify.
	store := &fakeGameStore{
		teams: []string{"CHI", "DEN", "KC", "LV"},
		games: []models.Game{
			completedGame("g1", 2023, 11, "KC", "CHI", 31, 10, formCutoff.AddDate(0, 0, -1)),
			completedGame("g2", 2023, 10, "KC", "DEN", 27, 20, formCutoff.AddDate(0, 0, -8)),
			completedGame("g3", 2023, 9, "KC", "LV", 24, 13, formCutoff.AddDate(0, 0, -15)),
			completedGame("g4", 2023, 10, "CHI", "DEN", 13, 30, formCutoff.AddDate(0, 0, -9)),
		},
	}
	form := newTestFormEngine(store)

	hot, err := form.HotTeams(context.Background(), 2)
	if err != nil {
		t.Fatalf("HotTeams() error: %v", err)
	}
	if len(hot) != 2 {
		t.Fatalf("got %d hot teams, want 2", len(hot))
	}
	if hot[0].TeamID != "KC" {
		t.Errorf("hottest team = %s, want KC", hot[0].TeamID)
	}
	if hot[0].FormRating < hot[1].FormRating {
		t.Errorf("hot teams out of order: %v", hot)
	}
	if hot[0].RecentRecord != "3-0" {
		t.Errorf("KC record = %q, want 3-0", hot[0].RecentRecord)
	}
	for _, tf := range hot {
		if tf.TeamID == "LV" {
			t.Errorf("LV qualified with a single game")
		}
	}

	cold, err := form.ColdTeams(context.Background(), 1)
	if err != nil {
		t.Fatalf("ColdTeams() error: %v", err)
	}
	if len(cold) != 1 || cold[0].TeamID != "CHI" {
		t.Errorf("coldest teams = %v, want just CHI", cold)
	}
}
