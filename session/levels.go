package session

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/rangetrader/market"
)

var ErrNoReferenceBars = errors.New("session: no reference bars")

// Levels are the body-based bounds of the reference window.
type Levels struct {
	Support    float64
	Resistance float64
}

// Width is Resistance - Support. Zero for a flat reference window.
func (l Levels) Width() float64 {
	return l.Resistance - l.Support
}

func (l Levels) String() string {
	return fmt.Sprintf("support=%.2f resistance=%.2f", l.Support, l.Resistance)
}

// CalcLevels takes the min and max over the open and close of every bar.
// Highs and lows are ignored on purpose so that wicks don't set the range.
func CalcLevels(ref []market.Bar) (Levels, error) {
	if len(ref) == 0 {
		return Levels{}, ErrNoReferenceBars
	}

	lv := Levels{Support: math.Inf(1), Resistance: math.Inf(-1)}
	for _, b := range ref {
		lv.Support = math.Min(lv.Support, math.Min(b.Open, b.Close))
		lv.Resistance = math.Max(lv.Resistance, math.Max(b.Open, b.Close))
	}
	return lv, nil
}
