// Package models defines the core domain entities persisted by stalkd.
// These models represent tracked islands' weekly price observations,
// inference runs over those observations, and the confidence alerts raised
// when a run's top pattern clears the notification threshold.
package models

import (
	"errors"
	"strconv"
	"time"
)

// ObservedWeek holds one island's price observations for a single in-game
// week: the Sunday buy price and up to twelve sell-slot observations
// (morning/afternoon for Monday through Saturday). A nil entry in Prices
// means that slot hasn't been observed yet.
type ObservedWeek struct {
	ID              string     `json:"id"`
	IslandID        string     `json:"island_id"`
	WeekStart       time.Time  `json:"week_start"`
	FirstBuy        bool       `json:"first_buy"` // true if this is the island's first tracked week
	PreviousPattern *int       `json:"previous_pattern,omitempty"`
	Prices          [12]*int   `json:"prices"` // sell-slot prices, Mon AM .. Sat PM
	BuyPrice        *int       `json:"buy_price,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Validate checks that an observed week is internally consistent before it
// is persisted or fed into the engine.
func (w *ObservedWeek) Validate() error {
	if w.ID == "" {
		return errors.New("observed week ID must not be empty")
	}
	if w.IslandID == "" {
		return errors.New("island ID must not be empty")
	}
	if w.WeekStart.IsZero() {
		return errors.New("week start must be set")
	}
	if w.PreviousPattern != nil && (*w.PreviousPattern < 0 || *w.PreviousPattern > 3) {
		return errors.New("previous pattern must be between 0 and 3")
	}
	if w.BuyPrice != nil && *w.BuyPrice < 0 {
		return errors.New("buy price must not be negative")
	}
	for i, p := range w.Prices {
		if p != nil && *p < 0 {
			return errors.New("sell price slot " + strconv.Itoa(i) + " must not be negative")
		}
	}
	if w.UpdatedAt.Before(w.CreatedAt) {
		return errors.New("updated at must be >= created at")
	}
	return nil
}
