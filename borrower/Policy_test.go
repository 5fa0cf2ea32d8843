package borrower

import (
	"testing"

	"github.com/creditlab/loanmarket/market"
)

func TestRandomPolicyRejectsNilLoan(t *testing.T) {
	policy := NewRandomPolicy(42)
	s := market.NewState(market.Steady, 0.5)

	for i := 0; i < 10; i++ {
		if policy.Evaluate(nil, s) {
			t.Fatal("expected a nil loan offer to be rejected")
		}
	}
}

func TestRuleBasedPolicy(t *testing.T) {
	b, book := newTestBorrower(t, DefaultProfile(), 42)
	policy := NewRuleBasedPolicy(b, 0.7)
	s := market.NewState(market.Steady, 0.5)

	affordable := book.Issue(2, 1, market.NewOffer(0.05, 1000, 36))
	if !policy.Evaluate(affordable, s) {
		t.Error("expected an affordable offer to be accepted")
	}
	if policy.Evaluate(nil, s) {
		t.Error("expected a nil loan offer to be rejected")
	}

	profile := DefaultProfile()
	profile.Debt = 60000
	indebted, _ := newTestBorrower(t, profile, 42)
	strict := NewRuleBasedPolicy(indebted, 0.7)
	if strict.Evaluate(affordable, s) {
		t.Error("expected an over-indebted borrower to reject the offer")
	}
}
