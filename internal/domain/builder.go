package domain

import "strings"

// BuildEntry derives the canonical posting pair for a classified request.
//
// Money in debits the source and credits the class's linked account when one is
// given, otherwise virtual income. Money out credits the source and debits the
// linked account for savings, loan and transfer, or virtual expense for bill and generic.
func BuildEntry(req TransactionRequest, class TransactionClass) (*LedgerEntry, error) {
	fail := func(err error) (*LedgerEntry, error) {
		return nil, &BuildError{Class: class, Err: err}
	}

	if err := ValidateAmount(req.Amount); err != nil {
		return fail(err)
	}

	link := req.LinkFor(class)
	if link != "" && link == req.SourceAccountID {
		return fail(ErrSameAccount)
	}

	var counter Posting
	switch req.Direction {
	case DirectionCredit:
		counter = Posting{Side: SideCredit, Amount: req.Amount}
		if link != "" {
			counter.AccountID = link
		} else {
			counter.Virtual = VirtualIncome
		}

	case DirectionDebit:
		counter = Posting{Side: SideDebit, Amount: req.Amount}
		switch class {
		case ClassSavings, ClassLoan, ClassTransfer:
			if link == "" {
				return fail(ErrMissingLink)
			}
			counter.AccountID = link
		default:
			counter.Virtual = VirtualExpense
		}

	default:
		return fail(ErrInvalidDirection)
	}

	source := Posting{
		AccountID: req.SourceAccountID,
		Side:      counter.Side.Opposite(),
		Amount:    req.Amount,
	}

	postings := []Posting{counter, source}
	if source.Side == SideDebit {
		postings = []Posting{source, counter}
	}

	origin := req.Origin
	if origin == "" {
		origin = OriginManual
	}

	return &LedgerEntry{
		RequestID:   req.ID,
		Date:        req.Date,
		Class:       class,
		Direction:   req.Direction,
		Origin:      origin,
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		Reference:   strings.TrimSpace(req.ReferenceNumber),
		Postings:    postings,
	}, nil
}
