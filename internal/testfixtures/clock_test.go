package testfixtures

import (
	"testing"
	"time"
)

func TestClock_StartsAtReferenceTime(t *testing.T) {
	t.Parallel()

	if got := NewClock(time.Time{}).Now(); !got.Equal(ReferenceTime()) {
		t.Fatalf("Now = %v, want %v", got, ReferenceTime())
	}
	if got := NewClock(time.Time{}).Today(); got != ReferenceDate() {
		t.Fatalf("Today = %q, want %q", got, ReferenceDate())
	}
}

func TestClock_Moves(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.March, 30, 22, 0, 0, 0, time.UTC)
	clock := NewClock(start)
	now := clock.NowFunc()

	if got := clock.Advance(3 * time.Hour); !got.Equal(start.Add(3 * time.Hour)) {
		t.Fatalf("Advance = %v", got)
	}
	if !now().Equal(clock.Now()) {
		t.Fatal("NowFunc must follow the clock")
	}
	if got := clock.AdvanceDays(2); got.Format("2006-01-02 15:04") != "2024-04-02 01:00" {
		t.Fatalf("AdvanceDays = %v", got)
	}

	clock.Set(start)
	if !clock.Now().Equal(start) {
		t.Fatalf("Set did not apply: %v", clock.Now())
	}

	var nilClock *Clock
	if nilClock.NowFunc() == nil {
		t.Fatal("nil clock should fall back to time.Now")
	}
}

func TestClock_DatesFollowLocation(t *testing.T) {
	t.Parallel()

	clock := NewClock(time.Date(2024, time.February, 28, 23, 30, 0, 0, time.UTC))
	cases := map[int]string{0: "2024-02-28", 1: "2024-02-29", 2: "2024-03-01", -28: "2024-01-31"}
	for offset, want := range cases {
		if got := clock.Date(offset); got != want {
			t.Errorf("Date(%d) = %q, want %q", offset, got, want)
		}
	}

	tokyo := time.FixedZone("UTC+9", 9*60*60)
	if got := clock.WithLocation(tokyo).Today(); got != "2024-02-29" {
		t.Fatalf("Today in UTC+9 = %q", got)
	}
	if got := clock.WithLocation(nil).Today(); got != "2024-02-29" {
		t.Fatalf("nil location must keep the current zone, got %q", got)
	}
}
