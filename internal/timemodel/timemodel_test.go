package timemodel

import (
	"testing"
	"time"
)

func TestParseSingletonRoundTrip(t *testing.T) {
	cases := []string{"20253161601", "20250011234", "20243661259"}
	for _, s := range cases {
		t.Run(s, func(t *testing.T) {
			moments, err := Parse(s)
			if err != nil {
				t.Fatalf("Parse(%q): %v", s, err)
			}
			if len(moments) != 1 {
				t.Fatalf("Parse(%q): got %d moments, want 1", s, len(moments))
			}
			if got := moments[0].Format(); got != s {
				t.Errorf("Format() = %q, want %q", got, s)
			}
		})
	}
}

func TestParseGregorianSameInstant(t *testing.T) {
	// 2025-03-16 16:01 UTC is day-of-year 75.
	greg := "202503161601"
	moments, err := Parse(greg)
	if err != nil {
		t.Fatalf("Parse(%q): %v", greg, err)
	}
	want := "20250751601"
	if got := moments[0].Julian; got != want {
		t.Errorf("julian = %q, want %q", got, want)
	}
}

func TestParseBadFormat(t *testing.T) {
	_, err := Parse("123")
	if err == nil {
		t.Fatal("expected error for bad length")
	}
}

func TestParseBadRange(t *testing.T) {
	_, err := Parse("20253161610-1600")
	if err == nil {
		t.Fatal("expected BadRange error")
	}
}

func TestParseRangeExpansion(t *testing.T) {
	// 16-char julian range: YYYYjjjHHmm-HHmm
	s := "20253161600-1610"
	moments, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	want := (10*time.Minute)/cadence + 1
	if len(moments) != int(want) {
		t.Errorf("len = %d, want %d", len(moments), want)
	}
	if moments[0].Julian != "20253161600" {
		t.Errorf("first = %q", moments[0].Julian)
	}
	if last := moments[len(moments)-1].Julian; last != "20253161610" {
		t.Errorf("last = %q", last)
	}
}

func TestGroupFailuresSingleRun(t *testing.T) {
	js := []string{"20253161600", "20253161605", "20253161610"}
	got := GroupFailures(js, 5*time.Minute)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Start != "20253161600" || got[0].End != "20253161610" {
		t.Errorf("got %+v", got[0])
	}
}

func TestGroupFailuresTwoRuns(t *testing.T) {
	js := []string{"20253161600", "20253161605", "20253161620", "20253161625"}
	got := GroupFailures(js, 5*time.Minute)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}

func TestNowQuantizedFulldisk(t *testing.T) {
	now := time.Date(2025, 3, 16, 16, 37, 0, 0, time.UTC)
	m := NowQuantized(Fulldisk, now)
	if m.Time().Minute()%10 != 0 {
		t.Errorf("minute %d not a multiple of 10", m.Time().Minute())
	}
}

func TestNowQuantizedConusCarriesHour(t *testing.T) {
	// minute 0 (base=0) precedes the hour's first valid minute and should
	// carry back to minute 56 of the prior hour
	now := time.Date(2025, 3, 16, 16, 0, 0, 0, time.UTC)
	m := NowQuantized(Conus, now)
	tm := m.Time()
	if tm.Minute() != 56 || tm.Hour() != 15 {
		t.Errorf("got hour=%d minute=%d, want hour=15 minute=56", tm.Hour(), tm.Minute())
	}
}

func TestNowQuantizedConusValidMinutes(t *testing.T) {
	for minute := 0; minute < 60; minute++ {
		now := time.Date(2025, 3, 16, 16, minute, 0, 0, time.UTC)
		m := NowQuantized(Conus, now)
		if got := m.Time().Minute() % 5; got != 1 {
			t.Errorf("minute %d -> quantized minute %d not ending in 1 or 6", minute, m.Time().Minute())
		}
	}
}
