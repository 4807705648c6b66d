package pipeline

import (
	"strings"
)

// StakeMode selects how the stake column is interpreted.
type StakeMode int

const (
	// StakeAbsolute uses the stored stake value as-is (dashboard pipeline).
	StakeAbsolute StakeMode = iota
	// StakePercent treats the stored stake as a percent of the bankroll
	// reference (history pipeline).
	StakePercent
)

// Schema variants in the wild name these columns differently; the first
// candidate present as an array wins.
var (
	stakeAliases  = []string{"stake", "stakes", "mise", "amount", "bet_amount"}
	oddsAliases   = []string{"odds", "cote", "decimal_odds"}
	resultAliases = []string{"result", "status", "settlement"}
)

type PnLOptions struct {
	StakeMode StakeMode
	Bankroll  float64
}

// PnLResult carries per-row profit/loss (nil where inputs were non-numeric)
// and aggregates over settled rows only.
type PnLResult struct {
	PerRow          []*float64 `json:"per_row"`
	SettledCount    int        `json:"settled_count"`
	SettledStakeSum float64    `json:"settled_stake_sum"`
	TotalProfit     float64    `json:"total_profit"`
	ROI             float64    `json:"roi"`
}

func resolveAlias(lists map[string][]any, candidates []string, what string) ([]any, error) {
	for _, name := range candidates {
		if arr, ok := lists[name]; ok {
			return arr, nil
		}
	}
	return nil, schemaErrf("cannot resolve %s column: none of %s is an array field", what, strings.Join(candidates, ", "))
}

// normalizeResult canonicalizes an outcome string: trimmed, lower-cased,
// hyphens and underscores collapsed to single spaces.
func normalizeResult(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// ComputePnL derives per-bet profit/loss and settlement aggregates from a
// filtered document.
func ComputePnL(doc Document, opts PnLOptions) (*PnLResult, error) {
	lists := listFields(doc)

	stakes, err := resolveAlias(lists, stakeAliases, "stake")
	if err != nil {
		return nil, err
	}
	odds, err := resolveAlias(lists, oddsAliases, "odds")
	if err != nil {
		return nil, err
	}
	results, err := resolveAlias(lists, resultAliases, "result")
	if err != nil {
		return nil, err
	}

	n := len(stakes)
	if len(odds) < n {
		n = len(odds)
	}
	if len(results) < n {
		n = len(results)
	}

	res := &PnLResult{PerRow: make([]*float64, n)}
	for i := 0; i < n; i++ {
		stake, sok := asFloat(stakes[i])
		odd, ook := asFloat(odds[i])
		if !sok || !ook {
			continue
		}
		if opts.StakeMode == StakePercent {
			stake = opts.Bankroll * stake / 100
		}

		var pnl float64
		settled := false
		switch normalizeResult(asString(results[i])) {
		case "win":
			pnl = stake * (odd - 1)
			settled = true
		case "lose":
			pnl = -stake
			settled = true
		case "void":
			pnl = 0
			settled = true
		case "half win", "halfwin":
			pnl = stake * (odd - 1) / 2
			settled = true
		case "half lose", "halflose":
			pnl = -stake / 2
			settled = true
		default:
			// Pending and unrecognized outcomes carry zero PnL and stay
			// out of the aggregates.
			pnl = 0
		}

		v := pnl
		res.PerRow[i] = &v
		if settled {
			res.SettledCount++
			res.SettledStakeSum += stake
			res.TotalProfit += pnl
		}
	}

	if res.SettledStakeSum > 0 {
		res.ROI = res.TotalProfit / res.SettledStakeSum * 100
	}
	return res, nil
}
