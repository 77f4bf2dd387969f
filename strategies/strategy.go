package strategies

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/rangetrader/journal"
	"github.com/rustyeddy/rangetrader/market"
	"github.com/rustyeddy/rangetrader/session"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy evaluates the decision window of one session and reports at most
// one closed position. Implementations hold no state between sessions.
type Strategy interface {
	Name() string

	// Window is how sessions are split for this strategy.
	Window() session.Window

	// Schema is the column set the strategy's trades are written with.
	Schema() journal.Schema

	Evaluate(decision []market.Bar, lv session.Levels, closePrice float64) (Outcome, bool)
}

var (
	registry = make(map[string]Strategy)
)

func init() {
	Register("reversal", ReversalConfirm{})
	Register("momentum", MomentumContinuation{})
}

func Register(name string, strat Strategy) {
	registry[normalize(name)] = strat
}

func GetStrategy(name string) Strategy {
	return registry[normalize(name)]
}

// Names lists the registered strategies.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func StrategyByName(name string) (Strategy, error) {
	switch normalize(name) {
	case "reversal", "reversal-confirm", "reversalconfirm", "a":
		return ReversalConfirm{}, nil

	case "momentum", "momentum-continuation", "momentumcontinuation", "b":
		return MomentumContinuation{}, nil
	}

	if strat := GetStrategy(name); strat != nil {
		return strat, nil
	}
	return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownStrategy, name, strings.Join(Names(), ", "))
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
