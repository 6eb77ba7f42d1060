// Command stalk-analyze runs the pattern inference engine once over
// manually supplied prices and prints the ranked results, either as a
// plain-text report or as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rewired-gh/stalkd/internal/engine"
)

var (
	buyFlag            = flag.Int("buy", -1, "Sunday buy price, or -1 if unknown")
	pricesFlag         = flag.String("prices", "", "Comma-separated sell prices for Mon AM..Sat PM, \"?\" or blank for unobserved slots (e.g. \"110,?,104,?,?,?,?,?,?,?,?,?\")")
	firstBuyFlag       = flag.Bool("first-buy", false, "This is the island's first tracked week")
	previousPatternRaw = flag.String("previous-pattern", "none", "Last week's winning pattern number (0-3), or \"none\" if unknown")
	jsonOutput         = flag.Bool("json", false, "Print results as JSON instead of a table")
)

func main() {
	flag.Parse()

	var buyPrice *int
	if *buyFlag >= 0 {
		buyPrice = buyFlag
	}

	sellPrices, err := parsePrices(*pricesFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	previousPattern, err := parsePreviousPattern(*previousPatternRaw)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	obs := engine.NewObservationVector(buyPrice, sellPrices)
	results := engine.Analyze(obs, *firstBuyFlag, previousPattern)

	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode results: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printReport(results)
}

func parsePrices(raw string) ([12]*int, error) {
	var sellPrices [12]*int
	if raw == "" {
		return sellPrices, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) > 12 {
		return sellPrices, fmt.Errorf("too many price slots: got %d, want at most 12", len(parts))
	}
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || part == "?" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return sellPrices, fmt.Errorf("invalid price %q at slot %d: %w", part, i, err)
		}
		sellPrices[i] = &v
	}
	return sellPrices, nil
}

func parsePreviousPattern(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "none") {
		return engine.UnknownPattern, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid previous pattern %q: %w", raw, err)
	}
	if n < int(engine.Fluctuating) || n > int(engine.SmallSpike) {
		return 0, fmt.Errorf("previous pattern %d out of range 0-3", n)
	}
	return n, nil
}

func printReport(results []engine.PredictionResult) {
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("PATTERN INFERENCE RESULTS")
	fmt.Println(strings.Repeat("=", 72))

	for _, r := range results {
		fmt.Printf("\n%-14s category=%.4f", r.PatternName, r.CategoryTotalProbability)
		if r.PatternNumber != engine.AllPatternNumber {
			fmt.Printf("  scenario=%.6f", r.Probability)
		}
		fmt.Println()
		fmt.Printf("  guaranteed sell range this week: %d - %d bells\n", r.WeekGuaranteedMinimum, r.WeekMax)
	}
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
}
