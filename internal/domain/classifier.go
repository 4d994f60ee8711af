package domain

import (
	"sort"
	"strings"
)

// TransactionClass is the accounting-relevant category of a transaction.
type TransactionClass string

const (
	ClassBill     TransactionClass = "bill"
	ClassSavings  TransactionClass = "savings"
	ClassLoan     TransactionClass = "loan"
	ClassTransfer TransactionClass = "transfer"
	ClassGeneric  TransactionClass = "generic"
)

// ClassPriority is the order rules are evaluated in. The first matching class wins,
// so "loan bill payment" is a bill.
var ClassPriority = []TransactionClass{ClassBill, ClassSavings, ClassLoan, ClassTransfer}

// DefaultKeywords are the built-in keyword sets per class.
var DefaultKeywords = map[TransactionClass][]string{
	ClassBill:     {"bill", "utility", "rent", "insurance", "subscription", "payment"},
	ClassSavings:  {"savings", "deposit", "investment", "goal", "fund"},
	ClassLoan:     {"loan", "repayment", "debt", "installment", "mortgage"},
	ClassTransfer: {"transfer"},
}

// Rule tags a keyword set with the class it selects.
type Rule struct {
	Class    TransactionClass
	Keywords []string
}

// Matches reports whether category contains any keyword, ignoring case.
func (r Rule) Matches(category string) bool {
	c := strings.ToLower(category)
	for _, kw := range r.Keywords {
		if strings.Contains(c, kw) {
			return true
		}
	}
	return false
}

// Classifier maps free-text categories to classes using an ordered rule table.
// A Classifier is immutable once built.
type Classifier struct {
	rules       []Rule
	suggestions []string
}

// NewClassifier builds a classifier from keyword sets. Rules are always ordered by
// ClassPriority; classes outside it are ignored. Missing classes fall back to the defaults.
func NewClassifier(keywords map[TransactionClass][]string) *Classifier {
	rules := make([]Rule, 0, len(ClassPriority))
	for _, class := range ClassPriority {
		kws, ok := keywords[class]
		if !ok {
			kws = DefaultKeywords[class]
		}
		rules = append(rules, Rule{Class: class, Keywords: normalizeKeywords(kws)})
	}

	return &Classifier{rules: rules, suggestions: defaultSuggestions}
}

// DefaultClassifier returns a classifier with the built-in keyword sets.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultKeywords)
}

// Classify returns the class of the first rule that matches, or ClassGeneric.
func (c *Classifier) Classify(category string) TransactionClass {
	for _, r := range c.rules {
		if r.Matches(category) {
			return r.Class
		}
	}
	return ClassGeneric
}

// Rules returns a copy of the ordered rule table.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{Class: r.Class, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Suggest returns known category names containing input. Inputs shorter than two
// characters yield nothing.
func (c *Classifier) Suggest(input string) []string {
	if len(strings.TrimSpace(input)) < 2 {
		return nil
	}

	needle := strings.ToLower(input)
	var out []string
	for _, s := range c.suggestions {
		if strings.Contains(s, needle) {
			out = append(out, s)
		}
	}
	return out
}

func normalizeKeywords(kws []string) []string {
	seen := make(map[string]bool, len(kws))
	out := make([]string, 0, len(kws))
	for _, kw := range kws {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

var defaultSuggestions = func() []string {
	s := []string{
		"utility", "rent", "insurance", "subscription",
		"phone bill", "internet bill", "electricity bill",
		"water bill", "gas bill", "cable bill", "gym membership",
		"streaming service", "phone service", "internet service",
		"savings", "deposit", "investment", "emergency fund",
		"retirement savings", "vacation fund", "house fund",
		"car fund", "education fund", "investment deposit",
		"loan payment", "repayment", "debt payment",
		"installment", "mortgage payment", "car loan",
		"personal loan", "student loan", "credit card payment",
		"account transfer", "food", "transportation", "entertainment",
		"shopping", "healthcare", "education",
		"gas", "groceries", "restaurant", "coffee",
		"clothing", "electronics", "travel", "gift", "salary",
	}
	sort.Strings(s)
	return s
}()
