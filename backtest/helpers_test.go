package backtest

import (
	"time"

	"github.com/rustyeddy/rangetrader/market"
)

var ny = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
	return loc
}()

func day(date string) time.Time {
	d, err := time.ParseInLocation("2006-01-02", date, ny)
	if err != nil {
		panic(err)
	}
	return d
}

type ohlc [4]float64

var neutral = ohlc{4010, 4014, 4006, 4010}

// longSignal is a support test and reject followed by a higher high, filled
// at 4013 on the third bar.
var longSignal = []ohlc{
	{4005, 4012, 3998, 4010},
	{4010, 4014, 4006, 4013},
	{4013, 4016, 4011, 4015},
}

// makeDay builds a 09:30-15:45 day of 15 minute bars. The reference window
// spans 4000..4020 on bodies. decision replaces bars of the 11:30 decision
// window starting at index from.
func makeDay(date string, refBars int, from int, decision ...ohlc) []market.Bar {
	open := day(date).Add(9*time.Hour + 30*time.Minute)

	var out []market.Bar
	add := func(i int, v ohlc) {
		out = append(out, market.Bar{
			Time: open.Add(time.Duration(i) * 15 * time.Minute),
			Open: v[0], High: v[1], Low: v[2], Close: v[3],
		})
	}

	// 8 reference slots, 09:30-11:15. Slots beyond refBars are left out.
	ref := []ohlc{
		{4000, 4012, 3995, 4010},
		{4010, 4024, 4008, 4020},
	}
	for i := 0; i < 8; i++ {
		if i >= refBars {
			continue
		}
		v := neutral
		if i < len(ref) {
			v = ref[i]
		}
		add(i, v)
	}

	// 18 decision slots, 11:30-15:45.
	for j := 0; j < 18; j++ {
		v := neutral
		if k := j - from; k >= 0 && k < len(decision) {
			v = decision[k]
		}
		add(8+j, v)
	}
	return out
}

func series(days ...[]market.Bar) market.Series {
	var out market.Series
	for _, d := range days {
		out = append(out, d...)
	}
	return out
}
