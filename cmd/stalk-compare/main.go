// Command stalk-compare reports how an island's inference history has
// evolved across runs: whether the top pattern has stabilized, how its
// confidence has trended, and how much the guaranteed sell range has
// narrowed as more of the week was observed.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rewired-gh/stalkd/internal/engine"
	"github.com/rewired-gh/stalkd/internal/models"
	"github.com/rewired-gh/stalkd/internal/storage"
)

var (
	dbPath   = flag.String("db", "./data/stalkd.db", "Path to the stalkd SQLite database")
	islandID = flag.String("island", "", "Island ID to compare runs for (required)")
)

func main() {
	flag.Parse()

	if *islandID == "" {
		fmt.Fprintln(os.Stderr, "stalk-compare: -island is required")
		os.Exit(1)
	}

	store, err := storage.New(1, 1, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	week, err := store.GetLatestWeekForIsland(*islandID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load latest week for island %s: %v\n", *islandID, err)
		os.Exit(1)
	}
	if week == nil {
		fmt.Printf("no stored weeks for island %s\n", *islandID)
		return
	}

	runs, err := store.GetRunsForWeek(week.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load runs for week %s: %v\n", week.ID, err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Printf("no runs recorded for week %s\n", week.ID)
		return
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].RanAt.Before(runs[j].RanAt) })

	printReport(week, runs)
}

func printReport(week *models.ObservedWeek, runs []*models.InferenceRun) {
	fmt.Println(strings.Repeat("=", 88))
	fmt.Printf("RUN HISTORY: island=%s week_id=%s\n", week.IslandID, week.ID)
	fmt.Println(strings.Repeat("=", 88))
	fmt.Printf("%-24s %6s %-14s %10s %12s\n", "ran_at", "fudge", "top pattern", "category", "range")
	fmt.Println(strings.Repeat("-", 88))

	patternChanges := 0
	var lastPattern = -2
	var probs []float64

	for _, r := range runs {
		gMin, gMax := topRange(r)
		patternName := patternNameFor(r.TopPatternNumber)

		fmt.Printf("%-24s %6d %-14s %10.4f %5d-%-5d\n",
			r.RanAt.Format("2006-01-02T15:04:05"), r.FudgeFactorUsed, patternName,
			r.TopPatternCategoryProbability, gMin, gMax)

		if lastPattern != -2 && lastPattern != r.TopPatternNumber {
			patternChanges++
		}
		lastPattern = r.TopPatternNumber
		probs = append(probs, r.TopPatternCategoryProbability)
	}

	fmt.Println(strings.Repeat("-", 88))
	fmt.Printf("runs: %d, top-pattern changes: %d\n", len(runs), patternChanges)
	if len(probs) > 1 {
		trend := "flat"
		if probs[len(probs)-1] > probs[0] {
			trend = "rising"
		} else if probs[len(probs)-1] < probs[0] {
			trend = "falling"
		}
		fmt.Printf("top-pattern confidence trend: %s (%.4f -> %.4f)\n", trend, probs[0], probs[len(probs)-1])
	}
	if patternChanges == 0 {
		fmt.Println("top pattern has been stable across all recorded runs")
	}
	fmt.Println(strings.Repeat("=", 88))
}

func patternNameFor(n int) string {
	if n < int(engine.Fluctuating) || n > int(engine.SmallSpike) {
		return "UNKNOWN"
	}
	return engine.Pattern(n).String()
}

// topRange extracts the guaranteed sell range for a run's top (non-ALL)
// pattern row by re-parsing its stored result JSON.
func topRange(r *models.InferenceRun) (int, int) {
	var results []engine.PredictionResult
	if err := json.Unmarshal([]byte(r.ResultJSON), &results); err != nil {
		return 0, 0
	}
	for _, res := range results {
		if res.PatternNumber == r.TopPatternNumber {
			return res.WeekGuaranteedMinimum, res.WeekMax
		}
	}
	return 0, 0
}
