package market

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrNoBars is returned when a series has nothing to process.
	ErrNoBars = errors.New("market: empty bar series")

	// ErrOutOfOrder is returned when bar timestamps are not strictly increasing.
	ErrOutOfOrder = errors.New("market: bars out of order")
)

// Bar is one OHLC interval. Time is the bar open, already in the trading
// session's time zone.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Date returns midnight of the bar's calendar day in the bar's location.
func (b Bar) Date() time.Time {
	y, m, d := b.Time.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, b.Time.Location())
}

// Clock returns the time of day as an offset from midnight.
func (b Bar) Clock() time.Duration {
	h, m, s := b.Time.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

// Series is an ordered sequence of bars for a single instrument.
type Series []Bar

// Validate makes sure the series is non-empty and strictly increasing in time.
func (s Series) Validate() error {
	if len(s) == 0 {
		return ErrNoBars
	}
	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return fmt.Errorf("%w: bar %d at %s is not after %s",
				ErrOutOfOrder, i, s[i].Time.Format(time.RFC3339), s[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Normalize converts every bar into loc and sorts the result by time.
// The input is left untouched.
func Normalize(bars []Bar, loc *time.Location) Series {
	if loc == nil {
		loc = time.UTC
	}
	out := make(Series, len(bars))
	for i, b := range bars {
		b.Time = b.Time.In(loc)
		out[i] = b
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Start and End report the first and last bar times. Both are zero for an empty series.
func (s Series) Start() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].Time
}

func (s Series) End() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Time
}
