package outcome

import (
	"testing"
	"time"
)

func TestDailyStatsKey(t *testing.T) {
	at := time.Date(2025, 3, 9, 23, 30, 0, 0, time.FixedZone("CET", 3600))

	// key buckets by the UTC day, not the local one
	if got := dailyStatsKey(at, true); got != "outreach:stats:2025-03-09:answered" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := dailyStatsKey(at, false); got != "outreach:stats:2025-03-09:missed" {
		t.Fatalf("unexpected key %q", got)
	}

	rollover := time.Date(2025, 3, 10, 0, 30, 0, 0, time.FixedZone("CET", 3600))
	if got := dailyStatsKey(rollover, true); got != "outreach:stats:2025-03-09:answered" {
		t.Fatalf("expected UTC bucketing, got %q", got)
	}
}
