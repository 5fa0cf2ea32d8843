package loan

import (
	"math"
	"testing"

	"github.com/creditlab/loanmarket/market"
)

// stubAccount is a fixed-behaviour Account for driving loans in tests
type stubAccount struct {
	dti   float64
	score float64
	pays  bool
}

func (s *stubAccount) MakePayment(l *Loan) bool {
	if !s.pays {
		return false
	}
	l.Balance -= l.MonthlyPayment()
	return true
}

func (s *stubAccount) DebtToIncomeRatio() float64 { return s.dti }

func (s *stubAccount) CreditScore() float64 { return s.score }

func testLoan() *Loan {
	return New(1, 1, 1, market.NewOffer(0.10, 10000, 36))
}

func TestMonthlyPayment(t *testing.T) {
	l := testLoan()

	expected := 322.6718719383758
	if got := l.MonthlyPayment(); math.Abs(got-expected) > 1e-9 {
		t.Errorf("monthly payment: got %v, expected %v", got, expected)
	}
}

func TestMakePayment(t *testing.T) {
	l := testLoan()
	a := &stubAccount{pays: true}

	if !l.MakePayment(a) {
		t.Fatal("make payment: payment should have been made")
	}
	if l.PaymentsMade != 1 {
		t.Errorf("make payment: got %v payments made, expected 1",
			l.PaymentsMade)
	}

	// The balance drops before interest accrues, so one month of
	// interest is owed on the post-payment balance
	balance := 10000.0 - l.MonthlyPayment()
	if math.Abs(l.Balance-balance) > 1e-9 {
		t.Errorf("make payment: got balance %v, expected %v", l.Balance,
			balance)
	}
	interest := balance * (0.10 / 12)
	if math.Abs(l.TotalInterestPaid-interest) > 1e-9 {
		t.Errorf("make payment: got interest %v, expected %v",
			l.TotalInterestPaid, interest)
	}
}

func TestMakePaymentRefused(t *testing.T) {
	l := testLoan()
	a := &stubAccount{pays: false}

	if l.MakePayment(a) {
		t.Fatal("make payment: refused payment should not be made")
	}
	if l.MissedPayments != 1 {
		t.Errorf("make payment: got %v missed payments, expected 1",
			l.MissedPayments)
	}
	if l.Balance != 10000.0 {
		t.Errorf("make payment: refused payment changed balance to %v",
			l.Balance)
	}
}

func TestMakePaymentDeactivates(t *testing.T) {
	l := testLoan()
	a := &stubAccount{pays: true}

	payments := 0
	for l.Active {
		if !l.MakePayment(a) {
			t.Fatal("make payment: payment should have been made")
		}
		payments++
		if payments > l.Term {
			t.Fatal("make payment: loan should close within its term")
		}
	}

	if payments != 31 {
		t.Errorf("make payment: loan closed after %v payments, expected 31",
			payments)
	}
	if l.Balance > 0 {
		t.Errorf("make payment: closed loan has positive balance %v",
			l.Balance)
	}
	if l.MakePayment(a) {
		t.Error("make payment: inactive loan should not accept payments")
	}
}

func TestIsDefaulted(t *testing.T) {
	cases := []struct {
		missed   int
		dti      float64
		expected bool
	}{
		{0, 0.0, false},
		{2, 0.5, false},
		{3, 0.0, true},  // missed payments alone default the loan
		{0, 0.61, true}, // an over-extended account defaults the loan
		{0, 0.6, false},
	}

	for _, c := range cases {
		l := testLoan()
		l.MissedPayments = c.missed
		a := &stubAccount{dti: c.dti}
		if got := l.IsDefaulted(a); got != c.expected {
			t.Errorf("is defaulted: got %v, expected %v for %v missed, "+
				"dti %v", got, c.expected, c.missed, c.dti)
		}
	}
}

func TestRiskScore(t *testing.T) {
	l := testLoan()
	l.PaymentsMade = 6
	l.MissedPayments = 1
	a := &stubAccount{dti: 0.2, score: 700}

	expected := 0.27204545454545453
	if got := l.RiskScore(a); math.Abs(got-expected) > 1e-12 {
		t.Errorf("risk score: got %v, expected %v", got, expected)
	}
}

func TestRiskScoreDefaulted(t *testing.T) {
	l := testLoan()
	l.MissedPayments = 3

	if got := l.RiskScore(&stubAccount{score: 850}); got != 1.0 {
		t.Errorf("risk score: defaulted loan scored %v, expected 1.0", got)
	}
}

func TestRiskScoreCapped(t *testing.T) {
	l := New(1, 1, 1, market.NewOffer(0.10, 10000, 600))
	a := &stubAccount{dti: 0.0, score: 300}

	if got := l.RiskScore(a); got != 1.0 {
		t.Errorf("risk score: got %v, expected cap at 1.0", got)
	}
}

func TestCurrentValue(t *testing.T) {
	l := testLoan()
	l.PaymentsMade = 6
	a := &stubAccount{dti: 0.2, score: 700}

	expected := l.MonthlyPayment() * 30
	if got := l.CurrentValue(a); math.Abs(got-expected) > 1e-9 {
		t.Errorf("current value: got %v, expected %v", got, expected)
	}

	l.MissedPayments = 3
	if got := l.CurrentValue(a); got != l.Balance*0.5 {
		t.Errorf("current value: defaulted loan valued %v, expected %v",
			got, l.Balance*0.5)
	}
}

func TestExpectedReturn(t *testing.T) {
	l := testLoan()
	l.PaymentsMade = 6
	l.MissedPayments = 1
	l.Balance = 8000
	a := &stubAccount{dti: 0.2, score: 700}

	expected := 9046.713676036028
	if got := l.ExpectedReturn(a); math.Abs(got-expected) > 1e-9 {
		t.Errorf("expected return: got %v, expected %v", got, expected)
	}

	l.MissedPayments = 3
	if got := l.ExpectedReturn(a); got != -l.Balance*0.5 {
		t.Errorf("expected return: defaulted loan returned %v, expected %v",
			got, -l.Balance*0.5)
	}
}

func TestTotalInterest(t *testing.T) {
	l := testLoan()

	expected := 1616.1873897815276
	if got := l.TotalInterest(); math.Abs(got-expected) > 1e-9 {
		t.Errorf("total interest: got %v, expected %v", got, expected)
	}
}

func TestReset(t *testing.T) {
	l := testLoan()
	a := &stubAccount{pays: true}
	l.MakePayment(a)
	l.MakePayment(&stubAccount{pays: false})

	l.Reset()

	if l.Balance != l.Amount {
		t.Errorf("reset: got balance %v, expected %v", l.Balance, l.Amount)
	}
	if l.PaymentsMade != 0 || l.MissedPayments != 0 {
		t.Errorf("reset: got %v payments and %v missed, expected 0 and 0",
			l.PaymentsMade, l.MissedPayments)
	}
	if !l.Active {
		t.Error("reset: loan should be active")
	}
	if l.TotalInterestPaid != 0 {
		t.Errorf("reset: got interest %v, expected 0", l.TotalInterestPaid)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	offer := market.NewOffer(0.10, 10000, 36)

	first := r.Issue(1, 2, offer)
	second := r.Issue(1, 3, offer)
	if first.ID == second.ID {
		t.Errorf("registry: issued duplicate id %v", first.ID)
	}
	if r.Len() != 2 {
		t.Errorf("registry: got %v loans, expected 2", r.Len())
	}

	got, ok := r.Lookup(first.ID)
	if !ok || got != first {
		t.Errorf("registry: lookup of %v returned %v, %v", first.ID, got, ok)
	}

	r.Remove(first.ID)
	if _, ok := r.Lookup(first.ID); ok {
		t.Errorf("registry: loan %v should have been removed", first.ID)
	}
	r.Remove(first.ID) // removing twice is fine
	if r.Len() != 1 {
		t.Errorf("registry: got %v loans, expected 1", r.Len())
	}
}
