// Command predictor is the batch entrypoint for the rating engine: full
// training replays, incremental updates, weekly predictions, season
// back-tests and form reports. Each invocation runs one load -> mutate ->
// save pass; concurrent invocations against the same store are the
// operator's problem to serialize.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/undulating/sport-huddle-hub/internal/config"
	"github.com/undulating/sport-huddle-hub/internal/logic"
	"github.com/undulating/sport-huddle-hub/internal/models"
	"github.com/undulating/sport-huddle-hub/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		sugar.Fatalw("Failed to connect to Postgres", "error", err)
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			sugar.Fatalw("Bad REDIS_URL", "error", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	st := store.NewPostgres(pool, rdb, logger)

	eloParams := logic.EloParams{
		KFactor:         cfg.KFactor,
		HomeAdvantage:   cfg.HomeAdvantage,
		MeanRating:      cfg.MeanRating,
		ReversionFactor: cfg.ReversionFactor,
		LeagueAvgTotal:  cfg.LeagueAvgTotal,
	}
	formParams := logic.FormParams{
		RecentGamesWeight: cfg.RecentGamesWeight,
		GamesToConsider:   cfg.GamesToConsider,
		MomentumFactor:    cfg.MomentumFactor,
	}

	engine := logic.NewEloEngine(st, logger, eloParams)
	form := logic.NewFormEngine(engine, formParams)
	values := logic.NewPlayerValues(logger)

	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)

	switch cmd {
	case "train":
		startSeason := fs.Int("start", 2015, "first season to replay")
		endSeason := fs.Int("end", time.Now().Year(), "last season to replay")
		fs.Parse(os.Args[2:])

		if err := engine.Train(ctx, *startSeason, *endSeason); err != nil {
			sugar.Fatalw("Training failed", "error", err)
		}
		if err := engine.SaveRatings(ctx); err != nil {
			sugar.Fatalw("Failed to save ratings", "error", err)
		}
		values.ResetCache()
		printRatings(engine.Ratings())

	case "quick":
		days := fs.Int("days", 7, "apply completed games from the last N days")
		fs.Parse(os.Args[2:])

		if err := engine.LoadRatings(ctx); err != nil {
			sugar.Fatalw("Failed to load ratings", "error", err)
		}
		n, err := engine.UpdateFromRecentGames(ctx, time.Now().AddDate(0, 0, -*days))
		if err != nil {
			sugar.Fatalw("Incremental update failed", "error", err)
		}
		if n == 0 {
			fmt.Println("No recent games to apply, ratings unchanged")
			return
		}
		if err := engine.SaveRatings(ctx); err != nil {
			sugar.Fatalw("Failed to save ratings", "error", err)
		}
		fmt.Printf("Applied %d games\n", n)

	case "week":
		season := fs.Int("season", time.Now().Year(), "season")
		week := fs.Int("week", 1, "week")
		model := fs.String("model", string(logic.ModelRecentForm), "prediction model: base or recent_form")
		injuries := fs.Bool("injuries", false, "adjust for injury reports (needs CLICKHOUSE_URL)")
		fs.Parse(os.Args[2:])

		if err := engine.LoadRatings(ctx); err != nil {
			sugar.Fatalw("Failed to load ratings", "error", err)
		}

		predictor := logic.NewPredictor(logic.ModelKind(*model), engine, formParams)
		preds, err := predictor.PredictWeek(ctx, *season, *week)
		if err != nil {
			sugar.Fatalw("Prediction failed", "error", err)
		}

		if *injuries {
			feed, err := openStatsFeed(cfg, pool, logger)
			if err != nil {
				sugar.Fatalw("Failed to open stats feed", "error", err)
			}
			for i := range preds {
				p := &preds[i]
				homeImpact, awayImpact, err := teamImpacts(ctx, feed, values, p, *season, *week)
				if err != nil {
					sugar.Fatalw("Injury adjustment failed", "game", p.GameID, "error", err)
				}
				preds[i] = *logic.ApplyInjuryImpact(p, eloParams, homeImpact, awayImpact)
			}
		}

		for i := range preds {
			p := &preds[i]
			fmt.Printf("%s @ %s: home %.1f%%, spread %+.1f, confidence %.2f\n",
				p.AwayTeam, p.HomeTeam, p.HomeWinProbability*100, p.PredictedSpread, p.Confidence)
		}

	case "evaluate":
		startSeason := fs.Int("start", time.Now().Year(), "first season to evaluate")
		endSeason := fs.Int("end", time.Now().Year(), "last season to evaluate")
		fs.Parse(os.Args[2:])

		if err := engine.LoadRatings(ctx); err != nil {
			sugar.Fatalw("Failed to load ratings", "error", err)
		}

		// Back-tests are read-only against the rating map, safe to fan out.
		seasons := *endSeason - *startSeason + 1
		evals := make([]*models.Evaluation, seasons)
		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < seasons; i++ {
			season := *startSeason + i
			idx := i
			g.Go(func() error {
				eval, err := engine.EvaluatePredictions(gctx, season)
				evals[idx] = eval
				return err
			})
		}
		if err := g.Wait(); err != nil {
			sugar.Fatalw("Evaluation failed", "error", err)
		}

		for _, eval := range evals {
			fmt.Printf("Season %d: %d games, accuracy %.1f%%, brier %.3f\n",
				eval.Season, eval.Games, eval.Accuracy*100, eval.BrierScore)
		}

	case "form":
		top := fs.Int("top", 5, "teams to list")
		fs.Parse(os.Args[2:])

		if err := engine.LoadRatings(ctx); err != nil {
			sugar.Fatalw("Failed to load ratings", "error", err)
		}

		hot, err := form.HotTeams(ctx, *top)
		if err != nil {
			sugar.Fatalw("Form report failed", "error", err)
		}
		cold, err := form.ColdTeams(ctx, *top)
		if err != nil {
			sugar.Fatalw("Form report failed", "error", err)
		}

		fmt.Println("Hot teams:")
		printForms(hot)
		fmt.Println("Cold teams:")
		printForms(cold)

	default:
		usage()
		os.Exit(2)
	}
}

func openStatsFeed(cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (*store.StatsFeed, error) {
	if cfg.ClickHouseURL == "" {
		return nil, fmt.Errorf("CLICKHOUSE_URL not configured")
	}
	opts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		return nil, fmt.Errorf("bad CLICKHOUSE_URL: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("connect to ClickHouse: %w", err)
	}
	return store.NewStatsFeed(conn, pool, logger), nil
}

func teamImpacts(ctx context.Context, feed *store.StatsFeed, values *logic.PlayerValues, pred *models.Prediction, season, week int) (float64, float64, error) {
	homeReport, err := feed.TeamInjuryReport(ctx, pred.HomeTeam, season, week)
	if err != nil {
		return 0, 0, err
	}
	awayReport, err := feed.TeamInjuryReport(ctx, pred.AwayTeam, season, week)
	if err != nil {
		return 0, 0, err
	}
	return values.TeamInjuryImpact(homeReport), values.TeamInjuryImpact(awayReport), nil
}

func printRatings(ratings map[string]float64) {
	teams := make([]string, 0, len(ratings))
	for id := range ratings {
		teams = append(teams, id)
	}
	sort.Slice(teams, func(i, j int) bool { return ratings[teams[i]] > ratings[teams[j]] })
	for _, id := range teams {
		fmt.Printf("%-4s %7.1f\n", id, ratings[id])
	}
}

func printForms(forms []models.TeamForm) {
	for _, f := range forms {
		fmt.Printf("  %-4s %+6.1f  %-7s %s\n", f.TeamID, f.FormRating, f.Momentum, f.RecentRecord)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: predictor <command> [flags]

commands:
  train     -start N -end N            full training replay, then save
  quick     -days N                    apply recent completed games, then save
  week      -season N -week N [-model base|recent_form] [-injuries]
  evaluate  -start N -end N            season back-tests
  form      -top N                     hot/cold team report`)
}
