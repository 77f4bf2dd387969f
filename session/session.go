// Package session groups a bar series into trading days and splits each day
// into the reference window used to derive levels and the decision window
// scanned for trades.
package session

import (
	"fmt"
	"time"

	"github.com/rustyeddy/rangetrader/market"
)

// Window describes how a day is split. All clock values are offsets from
// local midnight.
//
//	reference: [ReferenceStart, Split)
//	decision:  [Split, End]
type Window struct {
	ReferenceStart   time.Duration
	Split            time.Duration
	End              time.Duration
	MinReferenceBars int
}

func clock(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

var (
	// MorningWindow uses 09:30-11:30 as reference and trades 11:30-16:00.
	MorningWindow = Window{
		ReferenceStart:   clock(9, 30),
		Split:            clock(11, 30),
		End:              clock(16, 0),
		MinReferenceBars: 8,
	}

	// MiddayWindow uses 09:30-13:00 as reference and trades 13:00-16:00.
	MiddayWindow = Window{
		ReferenceStart:   clock(9, 30),
		Split:            clock(13, 0),
		End:              clock(16, 0),
		MinReferenceBars: 14,
	}
)

func (w Window) Validate() error {
	if w.ReferenceStart < 0 || w.End > 24*time.Hour {
		return fmt.Errorf("session: window outside of day (%s..%s)", w.ReferenceStart, w.End)
	}
	if !(w.ReferenceStart < w.Split && w.Split <= w.End) {
		return fmt.Errorf("session: require start < split <= end (got %s/%s/%s)", w.ReferenceStart, w.Split, w.End)
	}
	if w.MinReferenceBars < 1 {
		return fmt.Errorf("session: min reference bars must be positive (got %d)", w.MinReferenceBars)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("%s-%s/%s-%s min=%d",
		hhmm(w.ReferenceStart), hhmm(w.Split), hhmm(w.Split), hhmm(w.End), w.MinReferenceBars)
}

func hhmm(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

// Session is one calendar day of bars with its two windows.
type Session struct {
	Date      time.Time
	Bars      []market.Bar
	Reference []market.Bar
	Decision  []market.Bar

	// Close is the close of the day's last bar.
	Close float64

	minReference int
}

// Eligible reports whether the reference window has enough bars to evaluate.
func (s Session) Eligible() bool {
	return len(s.Reference) >= s.minReference
}

// Key is the session date as YYYY-MM-DD.
func (s Session) Key() string {
	return s.Date.Format("2006-01-02")
}

// Segment groups bars by calendar date (in the bars' own location) and splits
// every day with w. Days are returned in date order. Sessions whose reference
// window is short are still returned; callers check Eligible.
func Segment(bars []market.Bar, w Window) []Session {
	var out []Session

	for i := 0; i < len(bars); {
		date := bars[i].Date()
		j := i
		for j < len(bars) && bars[j].Date().Equal(date) {
			j++
		}
		out = append(out, split(date, bars[i:j], w))
		i = j
	}
	return out
}

func split(date time.Time, day []market.Bar, w Window) Session {
	s := Session{
		Date:         date,
		Bars:         day,
		Close:        day[len(day)-1].Close,
		minReference: w.MinReferenceBars,
	}
	for _, b := range day {
		c := b.Clock()
		switch {
		case c >= w.ReferenceStart && c < w.Split:
			s.Reference = append(s.Reference, b)
		case c >= w.Split && c <= w.End:
			s.Decision = append(s.Decision, b)
		}
	}
	return s
}
