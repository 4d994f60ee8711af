package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MatchWindow is how far apart a statement line and an entry may be dated
// and still match on amount.
const MatchWindow = 3 * 24 * time.Hour

// StatementLine is one externally reported transaction.
type StatementLine struct {
	ID          string
	Date        time.Time
	Amount      decimal.Decimal
	Reference   string
	Description string
}

// MatchRule names the heuristic that paired a line with an entry.
type MatchRule string

const (
	MatchByReference  MatchRule = "reference"
	MatchByAmountDate MatchRule = "amount_date"
)

// ReconciliationMatch pairs a statement line with a ledger entry.
type ReconciliationMatch struct {
	Line  StatementLine
	Entry *LedgerEntry
	Rule  MatchRule
}

// MatchResult is the read-only outcome of one reconciliation run.
type MatchResult struct {
	Matched            []ReconciliationMatch
	UnmatchedStatement []StatementLine
	UnmatchedLedger    []*LedgerEntry
}

// MatchStatement pairs statement lines with candidate entries in one greedy pass.
//
// Lines are visited by ascending date. For each line the earliest-dated candidate
// with an equal, non-empty reference wins; failing that, the earliest-dated
// candidate whose amount is within BalanceTolerance and whose date is within
// MatchWindow. A consumed candidate is never reconsidered, even if a later line
// would have fit it better. Inputs are not modified.
func MatchStatement(lines []StatementLine, entries []*LedgerEntry) MatchResult {
	sortedLines := append([]StatementLine(nil), lines...)
	sort.SliceStable(sortedLines, func(i, j int) bool {
		return sortedLines[i].Date.Before(sortedLines[j].Date)
	})

	pool := append([]*LedgerEntry(nil), entries...)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Date.Before(pool[j].Date)
	})

	result := MatchResult{
		Matched:            []ReconciliationMatch{},
		UnmatchedStatement: []StatementLine{},
		UnmatchedLedger:    []*LedgerEntry{},
	}

	for _, line := range sortedLines {
		idx, rule := findCandidate(line, pool)
		if idx < 0 {
			result.UnmatchedStatement = append(result.UnmatchedStatement, line)
			continue
		}

		result.Matched = append(result.Matched, ReconciliationMatch{Line: line, Entry: pool[idx], Rule: rule})
		pool = append(pool[:idx:idx], pool[idx+1:]...)
	}

	result.UnmatchedLedger = append(result.UnmatchedLedger, pool...)
	return result
}

func findCandidate(line StatementLine, pool []*LedgerEntry) (int, MatchRule) {
	if ref := strings.TrimSpace(line.Reference); ref != "" {
		for i, e := range pool {
			if e.Reference == ref {
				return i, MatchByReference
			}
		}
	}

	for i, e := range pool {
		if amountsMatch(line.Amount, e.Amount()) && withinWindow(line.Date, e.Date) {
			return i, MatchByAmountDate
		}
	}

	return -1, ""
}

func amountsMatch(a, b decimal.Decimal) bool {
	return a.Abs().Sub(b.Abs()).Abs().LessThan(BalanceTolerance)
}

func withinWindow(a, b time.Time) bool {
	d := dateOnly(a).Sub(dateOnly(b))
	if d < 0 {
		d = -d
	}
	return d <= MatchWindow
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
