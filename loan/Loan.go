// Package loan implements fixed-rate amortizing loans and the
// valuation and risk arithmetic that prices them
package loan

import (
	"fmt"
	"math"

	"github.com/creditlab/loanmarket/market"
)

// ID uniquely identifies a loan within a Registry
type ID int64

// Account is the borrower-side surface that a Loan may operate on. A
// Loan never holds a borrower itself, only the id of one. Callers
// resolve the id and pass the account in.
type Account interface {
	// MakePayment applies one monthly payment of the argument loan
	// to the account, returning whether the payment was made
	MakePayment(*Loan) bool

	// DebtToIncomeRatio returns the ratio of the account's total
	// monthly loan obligations to its monthly income
	DebtToIncomeRatio() float64

	// CreditScore returns the account's current credit score
	CreditScore() float64
}

// Loan is a single fixed-rate, fully amortizing loan between a lender
// and a borrower. The interest rate is annual, the term is in months.
type Loan struct {
	ID         ID
	LenderID   int64
	BorrowerID int64

	Amount       float64
	InterestRate float64
	Term         int

	Balance           float64
	PaymentsMade      int
	MissedPayments    int
	Active            bool
	TotalInterestPaid float64
}

// New creates a new active loan of the offered amount between the
// lender and borrower with the given ids
func New(id ID, lenderID, borrowerID int64, offer market.Offer) *Loan {
	return &Loan{
		ID:           id,
		LenderID:     lenderID,
		BorrowerID:   borrowerID,
		Amount:       offer.Amount,
		InterestRate: offer.Rate,
		Term:         offer.Term,
		Balance:      offer.Amount,
		Active:       true,
	}
}

// Offer returns the offer terms the loan was issued under
func (l *Loan) Offer() market.Offer {
	return market.NewOffer(l.InterestRate, l.Amount, l.Term)
}

// Reset returns the loan to its just-issued state
func (l *Loan) Reset() {
	l.Balance = l.Amount
	l.PaymentsMade = 0
	l.MissedPayments = 0
	l.Active = true
	l.TotalInterestPaid = 0
}

// MonthlyPayment returns the fixed monthly payment that fully
// amortizes the loan principal over its term
func (l *Loan) MonthlyPayment() float64 {
	r := l.InterestRate / 12
	growth := math.Pow(1+r, float64(l.Term))
	return (l.Amount * r * growth) / (growth - 1)
}

// MakePayment advances the loan by one payment period against the
// given account. The account applies the payment to the balance. On a
// made payment the loan accrues one month of interest on the remaining
// balance and deactivates once the balance reaches zero. On a refused
// payment the missed payment count grows. Returns whether the payment
// was made. Inactive loans are never advanced.
func (l *Loan) MakePayment(a Account) bool {
	if !l.Active {
		return false
	}

	if !a.MakePayment(l) {
		l.MissedPayments++
		return false
	}

	l.PaymentsMade++
	l.TotalInterestPaid += l.Balance * (l.InterestRate / 12)
	if l.Balance <= 0 {
		l.Active = false
	}
	return true
}

// IsDefaulted returns whether the loan is in default: three or more
// missed payments, or the account's debt-to-income ratio above 0.6
func (l *Loan) IsDefaulted(a Account) bool {
	return l.MissedPayments >= 3 || a.DebtToIncomeRatio() > 0.6
}

// CurrentValue returns the present value of the loan to its holder: a
// defaulted loan is worth half its remaining balance, otherwise the
// loan is worth its remaining scheduled payments
func (l *Loan) CurrentValue(a Account) float64 {
	if l.IsDefaulted(a) {
		return l.Balance * 0.5
	}
	remaining := l.Term - l.PaymentsMade
	return l.MonthlyPayment() * float64(remaining)
}

// RiskScore scores the loan's default risk in [0, 1]. A defaulted loan
// scores 1. Otherwise the score weighs the account's debt-to-income
// ratio, the loan's missed payment share, the account's credit
// standing, and the loan's term length.
func (l *Loan) RiskScore(a Account) float64 {
	if l.IsDefaulted(a) {
		return 1.0
	}

	dti := a.DebtToIncomeRatio()
	paymentHistory := float64(l.MissedPayments) /
		float64(l.PaymentsMade+l.MissedPayments+1)
	creditFactor := 1 - (a.CreditScore()-300)/550
	termFactor := float64(l.Term) / 60

	risk := dti*0.3 + paymentHistory*0.3 + creditFactor*0.2 + termFactor*0.2
	return math.Min(risk, 1.0)
}

// ExpectedReturn returns the holder's expected profit on the loan: the
// remaining scheduled payments discounted by the risk score, less the
// balance growth over the original principal. A defaulted loan returns
// half its balance as a loss.
func (l *Loan) ExpectedReturn(a Account) float64 {
	if l.IsDefaulted(a) {
		return -l.Balance * 0.5
	}

	expectedPayments := l.MonthlyPayment() * float64(l.Term-l.PaymentsMade)
	expectedLoss := expectedPayments * l.RiskScore(a)
	return expectedPayments - expectedLoss - (l.Balance - l.Amount)
}

// TotalInterest returns the interest the loan earns over its full term
func (l *Loan) TotalInterest() float64 {
	return l.MonthlyPayment()*float64(l.Term) - l.Amount
}

func (l *Loan) String() string {
	str := "Loan: Amount=$%.2f, Interest=%.2f%%, Term=%d months, " +
		"Balance=$%.2f"

	return fmt.Sprintf(str, l.Amount, l.InterestRate*100, l.Term, l.Balance)
}
