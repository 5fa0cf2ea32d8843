package borrower

import (
	"github.com/creditlab/loanmarket/loan"
	"github.com/creditlab/loanmarket/market"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Policy decides whether a borrower should accept a loan offer under
// given market conditions
type Policy interface {
	Evaluate(l *loan.Loan, s market.State) bool
}

var _ Policy = &Borrower{}
var _ Policy = &RandomPolicy{}
var _ Policy = &RuleBasedPolicy{}

// RandomPolicy accepts or rejects loan offers by coin flip
type RandomPolicy struct {
	rng distuv.Uniform
}

// NewRandomPolicy returns a policy that accepts offers uniformly
// randomly
func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{
		rng: distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(seed)},
	}
}

// Evaluate implements the Policy interface
func (r *RandomPolicy) Evaluate(l *loan.Loan, s market.State) bool {
	if l == nil {
		return false
	}
	return r.rng.Rand() > 0.5
}

// RuleBasedPolicy accepts exactly the offers whose affordability for
// the underlying borrower clears a fixed threshold, with no learned
// component
type RuleBasedPolicy struct {
	borrower  *Borrower
	threshold float64
}

// NewRuleBasedPolicy returns a rule-only policy for the given
// borrower which accepts offers whose affordability exceeds threshold
func NewRuleBasedPolicy(b *Borrower, threshold float64) *RuleBasedPolicy {
	return &RuleBasedPolicy{borrower: b, threshold: threshold}
}

// Evaluate implements the Policy interface
func (p *RuleBasedPolicy) Evaluate(l *loan.Loan, s market.State) bool {
	if l == nil {
		return false
	}
	return p.borrower.Affordability(l) > p.threshold
}
