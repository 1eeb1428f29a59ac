// Package timemodel parses and formats acquisition moments in the two
// calendar encodings ABI filenames use, expands moment ranges at the
// imager's 5-minute cadence, and groups failed moments into reportable
// intervals.
package timemodel

import (
	"fmt"
	"time"

	"github.com/lanot-mx/ceniza/internal/errs"
)

// Moment is a quantized UTC instant identifying one image, carried in its
// canonical Julian form plus the (year, month, day) triple tiered
// archives key off of.
type Moment struct {
	Julian     string // YYYYDDDHHMM, 11 chars
	Year       int
	Month      time.Month
	Day        int
}

const cadence = 5 * time.Minute

// Parse accepts an 11-/12-char singleton moment or a 16-/17-char range
// and returns the moments it denotes, expanded at 5-minute cadence. It
// fails with errs.BadMoment on any other length and errs.BadRange if a
// range's start is after its end.
func Parse(s string) ([]Moment, error) {
	switch len(s) {
	case 11:
		return parseSingleton(s, true)
	case 12:
		return parseSingleton(s, false)
	case 16:
		return parseRange(s, true)
	case 17:
		return parseRange(s, false)
	default:
		return nil, errs.New(errs.BadMoment, "timemodel.Parse", fmt.Errorf("moment %q has unexpected length %d", s, len(s)))
	}
}

func parseSingleton(s string, julian bool) ([]Moment, error) {
	t, err := decodeInstant(s, julian)
	if err != nil {
		return nil, errs.New(errs.BadMoment, "timemodel.Parse", err)
	}
	return []Moment{fromTime(t)}, nil
}

// parseRange handles "YYYYjjjHHmm-HHmm" (julian=true, 16 chars) and
// "YYYYMMDDHHmm-HHmm" (julian=false, 17 chars). Both share the date of a
// single day; only the HHmm end differs.
func parseRange(s string, julian bool) ([]Moment, error) {
	dash := len(s) - 5 // the "-HHmm" suffix is always 5 chars
	if s[dash] != '-' {
		return nil, errs.New(errs.BadMoment, "timemodel.Parse", fmt.Errorf("range %q missing '-' separator", s))
	}
	startStr := s[:dash]
	endHHMM := s[dash+1:]

	startT, err := decodeInstant(startStr, julian)
	if err != nil {
		return nil, errs.New(errs.BadMoment, "timemodel.Parse", err)
	}

	var endHour, endMin int
	if _, err := fmt.Sscanf(endHHMM, "%02d%02d", &endHour, &endMin); err != nil {
		return nil, errs.New(errs.BadMoment, "timemodel.Parse", fmt.Errorf("range %q has invalid end time: %w", s, err))
	}
	endT := time.Date(startT.Year(), startT.Month(), startT.Day(), endHour, endMin, 0, 0, time.UTC)

	if endT.Before(startT) {
		return nil, errs.New(errs.BadRange, "timemodel.Parse", fmt.Errorf("range %q: end precedes start", s))
	}

	var moments []Moment
	for t := startT; !t.After(endT); t = t.Add(cadence) {
		moments = append(moments, fromTime(t))
	}
	return moments, nil
}

func decodeInstant(s string, julian bool) (time.Time, error) {
	if julian {
		// YYYYDDDHHMM
		var year, doy, hour, minute int
		if _, err := fmt.Sscanf(s, "%04d%03d%02d%02d", &year, &doy, &hour, &minute); err != nil {
			return time.Time{}, fmt.Errorf("bad julian moment %q: %w", s, err)
		}
		t := time.Date(year, time.January, 1, hour, minute, 0, 0, time.UTC).AddDate(0, 0, doy-1)
		return t, nil
	}
	// YYYYMMDDHHMM
	var year, month, day, hour, minute int
	if _, err := fmt.Sscanf(s, "%04d%02d%02d%02d%02d", &year, &month, &day, &hour, &minute); err != nil {
		return time.Time{}, fmt.Errorf("bad gregorian moment %q: %w", s, err)
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), nil
}

func fromTime(t time.Time) Moment {
	return Moment{
		Julian: fmt.Sprintf("%04d%03d%02d%02d", t.Year(), t.YearDay(), t.Hour(), t.Minute()),
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
	}
}

// Format returns the canonical 11-char Julian encoding of m, the inverse
// of Parse for a singleton.
func (m Moment) Format() string { return m.Julian }

// Time reconstructs the UTC instant m denotes.
func (m Moment) Time() time.Time {
	t, _ := decodeInstant(m.Julian, true)
	return t
}

// Mode selects the quantization rule NowQuantized applies.
type Mode int

const (
	Fulldisk Mode = iota
	Conus
)

// NowQuantized returns the most recent valid moment at or before now for
// the given mode: for Fulldisk, minutes truncated to multiples of 10; for
// Conus, minutes ending in 1 or 6, carrying back across the hour (and
// day) boundary when the current minute is below the first valid minute
// of the hour. This is an ergonomic accessor (open question 3 in
// SPEC_FULL.md's DESIGN NOTES): it returns some moment m with m <= now
// and m.minute in the valid set for the mode; callers needing determinism
// for "most recent" across a wall-clock boundary own that decision.
func NowQuantized(mode Mode, now time.Time) Moment {
	now = now.UTC()
	switch mode {
	case Fulldisk:
		minute := (now.Minute() / 10) * 10
		t := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), minute, 0, 0, time.UTC)
		return fromTime(t)
	default: // Conus
		base := (now.Minute() / 5) * 5
		var minute int
		carryHour := false
		if base%10 == 0 {
			if now.Minute() >= base+1 {
				minute = base + 1
			} else if base >= 4 {
				minute = base - 4
			} else {
				minute = 56
				carryHour = true
			}
		} else {
			if now.Minute() >= base+1 {
				minute = base + 1
			} else {
				minute = base - 4
			}
		}
		t := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), minute, 0, 0, time.UTC)
		if carryHour {
			t = t.Add(-time.Hour)
		}
		return fromTime(t)
	}
}

// Interval is a closed [Start, End] range of Julian moment strings,
// collapsed from a run of consecutive failures.
type Interval struct {
	Start, End string
}

// GroupFailures collapses a list of failed Julian moment strings into
// consecutive intervals: entries whose gap is <= stride merge into one
// interval. Input need not be pre-sorted; GroupFailures sorts by instant.
func GroupFailures(julians []string, stride time.Duration) []Interval {
	if len(julians) == 0 {
		return nil
	}

	type parsed struct {
		s string
		t time.Time
	}
	ps := make([]parsed, 0, len(julians))
	for _, j := range julians {
		t, err := decodeInstant(j, true)
		if err != nil {
			continue
		}
		ps = append(ps, parsed{s: j, t: t})
	}
	if len(ps) == 0 {
		return nil
	}
	for i := 1; i < len(ps); i++ {
		for j := i; j > 0 && ps[j].t.Before(ps[j-1].t); j-- {
			ps[j], ps[j-1] = ps[j-1], ps[j]
		}
	}

	var out []Interval
	start := ps[0]
	prev := ps[0]
	for _, p := range ps[1:] {
		if p.t.Sub(prev.t) <= stride {
			prev = p
			continue
		}
		out = append(out, Interval{Start: start.s, End: prev.s})
		start, prev = p, p
	}
	out = append(out, Interval{Start: start.s, End: prev.s})
	return out
}
