package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rewired-gh/stalkd/internal/models"
)

// FixtureClient serves observed weeks from an in-memory table loaded from a
// CSV file, used for offline runs and tests that shouldn't depend on a live
// feed. The CSV has columns island,slot,price where slot is either "buy" or
// an integer 0-11, and price is an integer or blank for an unobserved slot.
type FixtureClient struct {
	weeks map[string]models.ObservedWeek
}

// NewFixtureClient reads rows from r and groups them into one ObservedWeek
// per island. Islands not present in the CSV return an error from
// FetchWeek.
func NewFixtureClient(r io.Reader) (*FixtureClient, error) {
	weeks := make(map[string]models.ObservedWeek)
	cr := csv.NewReader(r)

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture row: %w", err)
		}
		if len(record) != 3 {
			return nil, fmt.Errorf("fixture row must have 3 columns, got %d", len(record))
		}

		island, slotStr, priceStr := record[0], record[1], record[2]
		week, ok := weeks[island]
		if !ok {
			now := time.Now()
			week = models.ObservedWeek{
				IslandID:  island,
				WeekStart: now,
				CreatedAt: now,
				UpdatedAt: now,
			}
		}

		var price *int
		if priceStr != "" {
			v, err := strconv.Atoi(priceStr)
			if err != nil {
				return nil, fmt.Errorf("invalid price %q for island %s slot %s: %w", priceStr, island, slotStr, err)
			}
			price = &v
		}

		if slotStr == "buy" {
			week.BuyPrice = price
		} else {
			slot, err := strconv.Atoi(slotStr)
			if err != nil || slot < 0 || slot >= len(week.Prices) {
				return nil, fmt.Errorf("invalid slot %q for island %s", slotStr, island)
			}
			week.Prices[slot] = price
		}

		weeks[island] = week
	}

	return &FixtureClient{weeks: weeks}, nil
}

// NewFixtureClientFromFile is a convenience wrapper that opens path and
// builds a FixtureClient from its contents.
func NewFixtureClientFromFile(path string) (*FixtureClient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture file: %w", err)
	}
	defer f.Close()
	return NewFixtureClient(f)
}

// FetchWeek returns the fixture row group for islandID.
func (c *FixtureClient) FetchWeek(_ context.Context, islandID string) (models.ObservedWeek, error) {
	week, ok := c.weeks[islandID]
	if !ok {
		return models.ObservedWeek{}, fmt.Errorf("no fixture data for island %s", islandID)
	}
	return week, nil
}
