// Package storage provides SQLite-backed persistence for observed weeks and
// inference runs, with automatic rotation to bound table growth. It uses
// the pure-Go modernc.org/sqlite driver so stalkd ships as a single static
// binary with no cgo dependency.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rewired-gh/stalkd/internal/models"
)

const timeLayout = time.RFC3339Nano

// Storage provides SQLite-backed persistence for observed weeks and the
// inference runs computed over them.
type Storage struct {
	db *sql.DB
	mu sync.RWMutex

	maxWeeks       int
	maxRunsPerWeek int
}

// New opens (creating if necessary) a SQLite database at dbPath and ensures
// its schema exists. Pass ":memory:" for an ephemeral in-process database,
// which is how tests exercise this package.
func New(maxWeeks, maxRunsPerWeek int, dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{
		db:             db,
		maxWeeks:       maxWeeks,
		maxRunsPerWeek: maxRunsPerWeek,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS weeks (
			id TEXT PRIMARY KEY,
			island_id TEXT NOT NULL,
			week_start TEXT NOT NULL,
			first_buy INTEGER NOT NULL,
			previous_pattern INTEGER,
			buy_price INTEGER,
			prices TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_weeks_island ON weeks(island_id);

		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			observed_week_id TEXT NOT NULL,
			fudge_factor_used INTEGER NOT NULL,
			top_pattern_number INTEGER NOT NULL,
			top_pattern_category_probability REAL NOT NULL,
			result_json TEXT NOT NULL,
			ran_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_week ON runs(observed_week_id);
	`)
	return err
}

// AddWeek inserts or replaces an observed week.
func (s *Storage) AddWeek(w *models.ObservedWeek) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("invalid observed week: %w", err)
	}

	pricesJSON, err := json.Marshal(w.Prices)
	if err != nil {
		return fmt.Errorf("failed to marshal prices: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO weeks (id, island_id, week_start, first_buy, previous_pattern, buy_price, prices, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			island_id=excluded.island_id, week_start=excluded.week_start, first_buy=excluded.first_buy,
			previous_pattern=excluded.previous_pattern, buy_price=excluded.buy_price, prices=excluded.prices,
			updated_at=excluded.updated_at
	`,
		w.ID, w.IslandID, w.WeekStart.Format(timeLayout), boolToInt(w.FirstBuy),
		w.PreviousPattern, w.BuyPrice, string(pricesJSON),
		w.CreatedAt.Format(timeLayout), w.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert week: %w", err)
	}
	return nil
}

// GetWeek retrieves an observed week by ID.
func (s *Storage) GetWeek(id string) (*models.ObservedWeek, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, island_id, week_start, first_buy, previous_pattern, buy_price, prices, created_at, updated_at
		FROM weeks WHERE id = ?
	`, id)
	return scanWeek(row)
}

// GetLatestWeekForIsland returns the observed week with the latest week
// start for an island, or nil if none exist.
func (s *Storage) GetLatestWeekForIsland(islandID string) (*models.ObservedWeek, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, island_id, week_start, first_buy, previous_pattern, buy_price, prices, created_at, updated_at
		FROM weeks WHERE island_id = ? ORDER BY week_start DESC LIMIT 1
	`, islandID)
	week, err := scanWeek(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return week, err
}

// AddRun inserts an inference run.
func (s *Storage) AddRun(r *models.InferenceRun) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid inference run: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO runs (id, observed_week_id, fudge_factor_used, top_pattern_number, top_pattern_category_probability, result_json, ran_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.ObservedWeekID, r.FudgeFactorUsed, r.TopPatternNumber, r.TopPatternCategoryProbability, r.ResultJSON, r.RanAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetRunsForWeek returns all inference runs for an observed week, most
// recent first.
func (s *Storage) GetRunsForWeek(weekID string) ([]*models.InferenceRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, observed_week_id, fudge_factor_used, top_pattern_number, top_pattern_category_probability, result_json, ran_at
		FROM runs WHERE observed_week_id = ? ORDER BY ran_at DESC
	`, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.InferenceRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RotateWeeks deletes the oldest observed weeks beyond maxWeeks, keyed by
// creation time, cascading the deletion to their inference runs.
func (s *Storage) RotateWeeks() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM weeks`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count weeks: %w", err)
	}
	if count <= s.maxWeeks {
		return nil
	}

	excess := count - s.maxWeeks
	_, err := s.db.Exec(`
		DELETE FROM runs WHERE observed_week_id IN (
			SELECT id FROM weeks ORDER BY created_at ASC LIMIT ?
		)
	`, excess)
	if err != nil {
		return fmt.Errorf("failed to rotate run cascade: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM weeks WHERE id IN (
			SELECT id FROM weeks ORDER BY created_at ASC LIMIT ?
		)
	`, excess)
	if err != nil {
		return fmt.Errorf("failed to rotate weeks: %w", err)
	}
	return nil
}

// RotateRuns trims each observed week's run history down to
// maxRunsPerWeek, keeping the most recent.
func (s *Storage) RotateRuns() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT DISTINCT observed_week_id FROM runs`)
	if err != nil {
		return fmt.Errorf("failed to list run weeks: %w", err)
	}
	var weekIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan week id: %w", err)
		}
		weekIDs = append(weekIDs, id)
	}
	rows.Close()

	for _, weekID := range weekIDs {
		var count int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE observed_week_id = ?`, weekID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count runs for week %s: %w", weekID, err)
		}
		if count <= s.maxRunsPerWeek {
			continue
		}
		excess := count - s.maxRunsPerWeek
		_, err := s.db.Exec(`
			DELETE FROM runs WHERE id IN (
				SELECT id FROM runs WHERE observed_week_id = ? ORDER BY ran_at ASC LIMIT ?
			)
		`, weekID, excess)
		if err != nil {
			return fmt.Errorf("failed to rotate runs for week %s: %w", weekID, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWeek(row rowScanner) (*models.ObservedWeek, error) {
	var w models.ObservedWeek
	var weekStart, createdAt, updatedAt string
	var firstBuy int
	var pricesJSON string

	err := row.Scan(&w.ID, &w.IslandID, &weekStart, &firstBuy, &w.PreviousPattern, &w.BuyPrice, &pricesJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	w.FirstBuy = firstBuy != 0
	if w.WeekStart, err = time.Parse(timeLayout, weekStart); err != nil {
		return nil, fmt.Errorf("failed to parse week_start: %w", err)
	}
	if w.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if w.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if err := json.Unmarshal([]byte(pricesJSON), &w.Prices); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prices: %w", err)
	}
	return &w, nil
}

func scanRun(rows *sql.Rows) (*models.InferenceRun, error) {
	var r models.InferenceRun
	var ranAt string
	if err := rows.Scan(&r.ID, &r.ObservedWeekID, &r.FudgeFactorUsed, &r.TopPatternNumber, &r.TopPatternCategoryProbability, &r.ResultJSON, &ranAt); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	var err error
	if r.RanAt, err = time.Parse(timeLayout, ranAt); err != nil {
		return nil, fmt.Errorf("failed to parse ran_at: %w", err)
	}
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
