package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/stalkd/internal/models"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"island_1", "island\\_1"},
		{"50.5%", "50\\.5%"},
		{"no-specials", "no\\-specials"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := escapeMarkdownV2(tt.in); got != tt.want {
			t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatMessage(t *testing.T) {
	alerts := []models.ConfidenceAlert{
		{
			IslandID:                 "island-1",
			WeekStart:                time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC),
			PatternNumber:            2,
			PatternName:              "DECREASING",
			CategoryTotalProbability: 0.82,
			WeekGuaranteedMinimum:    90,
			WeekMax:                  95,
		},
	}

	msg := formatMessage(alerts)
	if !strings.Contains(msg, "island\\-1") {
		t.Errorf("message missing escaped island id: %s", msg)
	}
	if !strings.Contains(msg, "DECREASING") {
		t.Errorf("message missing pattern name: %s", msg)
	}
	if !strings.Contains(msg, "82\\.0%") {
		t.Errorf("message missing formatted confidence: %s", msg)
	}
}

func TestFormatMessageMultipleAlerts(t *testing.T) {
	alerts := []models.ConfidenceAlert{
		{IslandID: "island-1", PatternName: "LARGE_SPIKE", CategoryTotalProbability: 0.7, WeekGuaranteedMinimum: 200, WeekMax: 600},
		{IslandID: "island-2", PatternName: "FLUCTUATING", CategoryTotalProbability: 0.4, WeekGuaranteedMinimum: 90, WeekMax: 140},
	}

	msg := formatMessage(alerts)
	if !strings.Contains(msg, "1\\.") || !strings.Contains(msg, "2\\.") {
		t.Errorf("message missing numbered entries: %s", msg)
	}
}
