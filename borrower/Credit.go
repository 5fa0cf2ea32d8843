package borrower

import (
	"math"

	"github.com/creditlab/loanmarket/loan"
	"github.com/creditlab/loanmarket/utils/floatutils"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat"
)

// creditScoreRange bounds a borrower's credit score
var creditScoreRange = r1.Interval{Min: minCreditScore, Max: maxCreditScore}

// DebtToIncomeRatio returns the ratio of the borrower's total monthly
// loan payments to their monthly income. The ratio is 0 for a
// borrower with no income.
func (b *Borrower) DebtToIncomeRatio() float64 {
	if b.income <= 0 {
		return 0
	}
	return b.monthlyObligations() / (b.income / 12.0)
}

// monthlyObligations returns the total monthly payment over the
// borrower's active loans
func (b *Borrower) monthlyObligations() float64 {
	total := 0.0
	for id := range b.loans {
		if l, ok := b.book.Lookup(id); ok {
			total += l.MonthlyPayment()
		}
	}
	return total
}

// PaymentSuccessRate returns the mean of the last 100 recorded
// payment outcomes, or 1.0 when no payments have been recorded yet
func (b *Borrower) PaymentSuccessRate() float64 {
	if len(b.paymentHistory) == 0 {
		return 1.0
	}

	history := b.paymentHistory
	if len(history) > maxPaymentWindow {
		history = history[len(history)-maxPaymentWindow:]
	}
	return stat.Mean(history, nil)
}

// Affordability scores how comfortably the borrower could service the
// given loan: the ratio of monthly disposable income to the loan's
// monthly payment, clipped to [0, 1]. A loan with a non-positive
// monthly payment scores 0.
func (b *Borrower) Affordability(l *loan.Loan) float64 {
	monthlyPayment := l.MonthlyPayment()
	if monthlyPayment <= 0 {
		return 0
	}

	monthlyIncome := b.income / 12.0
	disposable := monthlyIncome - b.monthlyObligations() - b.debt/12.0

	return floatutils.Clip(disposable/monthlyPayment, 0.0, 1.0)
}

// CanBorrow returns whether the borrower is eligible for new credit
func (b *Borrower) CanBorrow() bool {
	return b.DebtToIncomeRatio() < 0.6
}

// CanPay returns whether the borrower's monthly income covers the
// loan's monthly payment
func (b *Borrower) CanPay(l *loan.Loan) bool {
	return math.Floor(b.income/12.0) >= l.MonthlyPayment()
}

// ApplyForLoan attempts to take on the given loan. The application
// succeeds only if the borrower's debt-to-income ratio allows new
// credit; on success the loan joins the borrower's active set and its
// balance is added to the borrower's debt.
func (b *Borrower) ApplyForLoan(l *loan.Loan) bool {
	if !b.CanBorrow() {
		return false
	}

	b.loans[l.ID] = true
	b.debt += l.Balance
	b.loanHistory = append(b.loanHistory, 1)
	return true
}

// MakePayment makes one monthly payment on the given loan, recording
// the outcome in the borrower's payment history. The payment is made
// only when the borrower's monthly income covers it; a covered
// payment reduces the loan balance, and paying a loan off removes it
// from the active set and improves the borrower's credit score.
func (b *Borrower) MakePayment(l *loan.Loan) bool {
	payment := l.MonthlyPayment()
	if math.Floor(b.income/12.0) < payment {
		b.paymentHistory = append(b.paymentHistory, 0)
		return false
	}

	l.Balance -= payment
	if l.Balance <= 0 {
		delete(b.loans, l.ID)
		b.ImproveCreditScore(10)
	}
	b.paymentHistory = append(b.paymentHistory, 1)
	return true
}

// RecoverLoan removes a defaulted loan from the borrower's active
// set, writing off half of the remaining balance against the
// borrower's debt. Recovering a loan the borrower no longer holds
// still records the default.
func (b *Borrower) RecoverLoan(l *loan.Loan) {
	delete(b.loans, l.ID)
	b.debt = math.Max(0, b.debt-l.Balance*0.5)
	b.loanHistory = append(b.loanHistory, 0)
}

// ImproveCreditScore adjusts the borrower's credit score by the given
// number of points, keeping the score within [300, 850]
func (b *Borrower) ImproveCreditScore(points float64) {
	b.creditScore = floatutils.ClipInterval(b.creditScore+points,
		creditScoreRange)
}

// UpdateCreditStanding applies the long-run credit adjustment for a
// borrower's recent record. A clean record earns a small base bonus,
// a paydown bonus growing with the share of borrowed money retired,
// and a bonus for short credit histories. Defaults combined with a
// missed payment are penalized, and three or more defaults cap the
// score at 450.
func (b *Borrower) UpdateCreditStanding(defaults int, missedPayment bool,
	remainingDebt, totalBorrowed float64, monthsOnBook int) {
	switch {
	case defaults == 0:
		b.ImproveCreditScore(1)

		points := 0.0
		if totalBorrowed > 0 {
			points += 10 - math.Round(remainingDebt/totalBorrowed*10)
		}
		if monthsOnBook > 0 {
			points += math.Ceil(10.0 / float64(monthsOnBook))
		}
		b.ImproveCreditScore(points)
	case defaults == 1 && missedPayment:
		b.ImproveCreditScore(-50)
	case defaults == 2 && missedPayment:
		b.ImproveCreditScore(-100)
	case defaults >= 3:
		b.creditScore = math.Min(capCreditScore, b.creditScore)
	}
}
