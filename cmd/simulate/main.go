// Package main is a developer tool that runs synthetic matchups against
// the in-memory engine and reports how quickly Elo ordering converges
// on the underlying item quality.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/plated-app/plated/internal/elo"
	"github.com/plated-app/plated/internal/matchup"
	"github.com/plated-app/plated/internal/rating"
	"github.com/plated-app/plated/internal/tier"
)

func main() {
	itemCount := flag.Int("items", 20, "number of items to simulate")
	matchupCount := flag.Int("matchups", 500, "number of matchups to run")
	userCount := flag.Int("users", 5, "number of simulated users")
	seed := flag.Int64("seed", 1, "random seed")
	cuisine := flag.String("cuisine", "thai", "cuisine name for the simulated catalog")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Plated Matchup Simulator")
		fmt.Println()
		fmt.Println("Usage: simulate [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	rng := rand.New(rand.NewSource(*seed))
	ctx := context.Background()

	ratings := rating.NewInMemoryStore()
	elos := elo.NewInMemoryStore()
	history := matchup.NewInMemoryHistory()
	service := matchup.NewService(ratings, elos, history, logger, nil)

	// Each item gets a hidden quality on the 1..6 scale. Ratings and
	// matchup outcomes are both noisy observations of it.
	quality := make(map[string]float64, *itemCount)
	itemIDs := make([]string, *itemCount)
	created := time.Now().Add(-30 * 24 * time.Hour)
	for i := 0; i < *itemCount; i++ {
		id := fmt.Sprintf("item-%02d", i)
		itemIDs[i] = id
		quality[id] = 1 + rng.Float64()*5
		ratings.AddItem(rating.Item{ID: id, Cuisine: *cuisine, CreatedAt: created})

		// Seed a handful of tier ratings around the hidden quality.
		for u := 0; u < 3; u++ {
			observed := quality[id] + rng.NormFloat64()*0.8
			if err := ratings.Record(ctx, rating.Event{
				UserID:    fmt.Sprintf("seed-%d", u),
				ItemID:    id,
				Tier:      tier.FromScore(observed),
				CreatedAt: time.Now(),
			}); err != nil {
				fmt.Fprintln(os.Stderr, "seed rating:", err)
				os.Exit(1)
			}
		}
	}

	fmt.Printf("simulating %d matchups over %d items (%d users, seed %d)\n\n",
		*matchupCount, *itemCount, *userCount, *seed)

	checkpoint := *matchupCount / 5
	if checkpoint == 0 {
		checkpoint = 1
	}
	for i := 1; i <= *matchupCount; i++ {
		userID := fmt.Sprintf("user-%d", i%*userCount)

		a, b, err := service.Next(ctx, userID, *cuisine)
		if err != nil {
			fmt.Fprintln(os.Stderr, "select matchup:", err)
			os.Exit(1)
		}

		// Winner drawn from a logistic on the quality gap, matching
		// how real preferences only mostly agree with quality.
		pA := 1 / (1 + math.Exp(-(quality[a.ItemID]-quality[b.ItemID])*1.5))
		winnerID := a.ItemID
		if rng.Float64() > pA {
			winnerID = b.ItemID
		}

		if _, err := service.Submit(ctx, userID, *cuisine, a.ItemID, b.ItemID, &winnerID); err != nil {
			fmt.Fprintln(os.Stderr, "submit matchup:", err)
			os.Exit(1)
		}

		if i%checkpoint == 0 {
			fmt.Printf("after %4d matchups: pair agreement %.1f%%\n", i, pairAgreement(ctx, elos, itemIDs, quality)*100)
		}
	}

	fmt.Println("\nfinal elo standings (hidden quality in parentheses):")
	final, err := elos.GetMany(ctx, itemIDs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read elo ratings:", err)
		os.Exit(1)
	}
	standings := make([]elo.Rating, 0, len(final))
	for _, r := range final {
		standings = append(standings, r)
	}
	sort.Slice(standings, func(i, j int) bool { return standings[i].Score > standings[j].Score })
	for i, r := range standings {
		fmt.Printf("%2d. %-8s elo %6.1f  matches %3d  (%.2f)\n",
			i+1, r.ItemID, r.Score, r.MatchesPlayed, quality[r.ItemID])
	}
}

// pairAgreement returns the fraction of item pairs whose Elo ordering
// agrees with their hidden quality ordering.
func pairAgreement(ctx context.Context, elos elo.Store, itemIDs []string, quality map[string]float64) float64 {
	scores, err := elos.GetMany(ctx, itemIDs)
	if err != nil {
		return 0
	}

	concordant, total := 0, 0
	for i := 0; i < len(itemIDs); i++ {
		for j := i + 1; j < len(itemIDs); j++ {
			a, b := itemIDs[i], itemIDs[j]
			total++
			if (scores[a].Score > scores[b].Score) == (quality[a] > quality[b]) {
				concordant++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(concordant) / float64(total)
}
