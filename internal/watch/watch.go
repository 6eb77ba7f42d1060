// Package watch runs the poll loop that turns inference results into
// confidence alerts. Alerts are scored by how much of the week's prices are
// actually observed, filtered against a quality floor, and deduplicated by a
// per-island cooldown so a stable top pattern does not re-alert every poll.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/stalkd/internal/engine"
	"github.com/rewired-gh/stalkd/internal/logger"
	"github.com/rewired-gh/stalkd/internal/market"
	"github.com/rewired-gh/stalkd/internal/models"
	"github.com/rewired-gh/stalkd/internal/notify"
	"github.com/rewired-gh/stalkd/internal/storage"
)

// notifiedRecord tracks a previously sent alert for cooldown deduplication.
type notifiedRecord struct {
	PatternNumber int
	SentAt        time.Time
}

// Watcher scores inference results into confidence alerts and delivers them
// through a notifier, subject to a threshold and a per-island cooldown.
type Watcher struct {
	storage   *storage.Storage
	notifier  *notify.Client
	threshold float64
	cooldown  time.Duration

	notified map[string]notifiedRecord // key = island ID
}

// New creates a Watcher. notifier may be nil, in which case PollOnce still scores
// and records runs but never delivers alerts.
func New(s *storage.Storage, notifier *notify.Client, threshold float64, cooldown time.Duration) *Watcher {
	return &Watcher{
		storage:   s,
		notifier:  notifier,
		threshold: threshold,
		cooldown:  cooldown,
		notified:  make(map[string]notifiedRecord),
	}
}

// observedFraction returns the proportion of the week's 13 price
// observations (the buy price, counted once, plus 12 sell slots) that carry
// an observed value.
func observedFraction(w models.ObservedWeek) float64 {
	total := 0
	observed := 0

	total++
	if w.BuyPrice != nil {
		observed++
	}
	for _, p := range w.Prices {
		total++
		if p != nil {
			observed++
		}
	}

	if total == 0 {
		return 0
	}
	return float64(observed) / float64(total)
}

// Score combines a pattern's category probability with how much of the week
// has actually been observed. A pattern that dominates the posterior after
// only a couple of observed days scores lower than the same probability
// backed by a nearly complete week, since there is more room left for
// reality to contradict it.
func Score(categoryTotalProbability, observedFraction float64) float64 {
	return categoryTotalProbability * (0.5 + 0.5*observedFraction)
}

// Evaluate turns inference results into confidence alert candidates. Only
// the best (non-ALL) row is considered, since it already carries the
// highest category probability by construction. Returns nil if no row
// clears the threshold.
func (wt *Watcher) Evaluate(week models.ObservedWeek, results []engine.PredictionResult) []models.ConfidenceAlert {
	frac := observedFraction(week)

	var best *engine.PredictionResult
	for i := range results {
		if results[i].PatternNumber == engine.AllPatternNumber {
			continue
		}
		if best == nil || results[i].CategoryTotalProbability > best.CategoryTotalProbability {
			best = &results[i]
		}
	}
	if best == nil {
		return nil
	}

	score := Score(best.CategoryTotalProbability, frac)
	if score < wt.threshold {
		return nil
	}

	return []models.ConfidenceAlert{{
		IslandID:                 week.IslandID,
		WeekStart:                week.WeekStart,
		PatternNumber:            best.PatternNumber,
		PatternName:              best.PatternName,
		CategoryTotalProbability: best.CategoryTotalProbability,
		WeekGuaranteedMinimum:    best.WeekGuaranteedMinimum,
		WeekMax:                  best.WeekMax,
	}}
}

// isSamePattern reports whether an alert repeats the last notified pattern
// for its island.
func (wt *Watcher) isSamePattern(a models.ConfidenceAlert) bool {
	rec, ok := wt.notified[a.IslandID]
	return ok && rec.PatternNumber == a.PatternNumber
}

// FilterRecentlySent drops alerts that repeat the last notified pattern for
// their island within the cooldown window. A pattern change always passes
// through regardless of cooldown, since it is new information. Returns a
// non-nil slice.
func (wt *Watcher) FilterRecentlySent(alerts []models.ConfidenceAlert) []models.ConfidenceAlert {
	now := time.Now()
	result := make([]models.ConfidenceAlert, 0, len(alerts))

	for _, a := range alerts {
		rec, exists := wt.notified[a.IslandID]
		if exists && now.Sub(rec.SentAt) < wt.cooldown && wt.isSamePattern(a) {
			continue
		}
		result = append(result, a)
	}
	return result
}

// RecordNotified records alerts as notified at the current time, for
// cooldown deduplication on the next poll.
func (wt *Watcher) RecordNotified(alerts []models.ConfidenceAlert) {
	now := time.Now()
	for _, a := range alerts {
		wt.notified[a.IslandID] = notifiedRecord{
			PatternNumber: a.PatternNumber,
			SentAt:        now,
		}
	}
}

// recordRun persists an inference run for auditing and later comparison.
// Failures are logged and otherwise ignored, since a run record is
// supplementary to the alert it feeds.
func (wt *Watcher) recordRun(week models.ObservedWeek, results []engine.PredictionResult, fudgeUsed int) {
	var top engine.PredictionResult
	for _, r := range results {
		if r.PatternNumber != engine.AllPatternNumber {
			top = r
			break
		}
	}

	resultJSON, err := json.Marshal(results)
	if err != nil {
		logger.Warn("recordRun: failed to marshal results for week %s: %v", week.ID, err)
		return
	}

	run := &models.InferenceRun{
		ID:                            uuid.New().String(),
		ObservedWeekID:                week.ID,
		FudgeFactorUsed:               fudgeUsed,
		TopPatternNumber:              top.PatternNumber,
		TopPatternCategoryProbability: top.CategoryTotalProbability,
		ResultJSON:                    string(resultJSON),
		RanAt:                         time.Now(),
	}
	if err := wt.storage.AddRun(run); err != nil {
		logger.Warn("recordRun: failed to persist run for week %s: %v", week.ID, err)
	}
}

// PollOnce fetches the latest week for each island, runs inference, persists
// the observed week and run, and delivers any alerts that clear the
// threshold and cooldown. Per-island errors are logged and do not abort the
// remaining islands.
func (wt *Watcher) PollOnce(ctx context.Context, client market.Client, islandIDs []string) {
	var pending []models.ConfidenceAlert

	for _, islandID := range islandIDs {
		if ctx.Err() != nil {
			return
		}

		week, err := client.FetchWeek(ctx, islandID)
		if err != nil {
			logger.Warn("PollOnce: fetch failed for island %s: %v", islandID, err)
			continue
		}
		if week.ID == "" {
			week.ID = fmt.Sprintf("%s-%s", week.IslandID, week.WeekStart.Format(time.RFC3339))
		}

		if err := wt.storage.AddWeek(&week); err != nil {
			logger.Warn("PollOnce: failed to persist week for island %s: %v", islandID, err)
			continue
		}

		previousPattern := engine.UnknownPattern
		if week.PreviousPattern != nil {
			previousPattern = *week.PreviousPattern
		}
		obs := engine.NewObservationVector(week.BuyPrice, week.Prices)
		results, fudgeUsed := engine.AnalyzeWithFudge(obs, week.FirstBuy, previousPattern)

		wt.recordRun(week, results, fudgeUsed)

		alerts := wt.Evaluate(week, results)
		pending = append(pending, alerts...)
	}

	ready := wt.FilterRecentlySent(pending)
	if len(ready) == 0 {
		return
	}

	if wt.notifier != nil {
		if err := wt.notifier.Send(ready); err != nil {
			logger.Error("PollOnce: failed to send alerts: %v", err)
			return
		}
	}
	wt.RecordNotified(ready)
}

// Run polls at pollInterval until ctx is cancelled.
func (wt *Watcher) Run(ctx context.Context, client market.Client, islandIDs []string, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	wt.PollOnce(ctx, client, islandIDs)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			wt.PollOnce(ctx, client, islandIDs)
		}
	}
}
