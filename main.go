package main

import (
	"fmt"

	"github.com/creditlab/loanmarket/borrower"
	"github.com/creditlab/loanmarket/loan"
	"github.com/creditlab/loanmarket/market"
)

func main() {
	var seed uint64 = 192382

	// Create the borrower
	book := loan.NewRegistry()
	config, err := borrower.DefaultConfig()
	if err != nil {
		panic(err)
	}
	b, err := borrower.New(1, borrower.DefaultProfile(), config, book, seed)
	if err != nil {
		panic(err)
	}

	// Offer a loan and let the borrower decide
	state := market.NewState(market.Steady, 0.5)
	l := book.Issue(2, b.ID(), market.NewOffer(0.10, 10000, 36))

	fmt.Println(l)
	fmt.Println("Affordability:", b.Affordability(l))
	fmt.Println("Accepted:", b.Evaluate(l, state))

	// Service the loan for a year
	if !b.ApplyForLoan(l) {
		panic("loan application refused")
	}
	for month := 0; month < 12 && l.Active; month++ {
		l.MakePayment(b)
	}

	fmt.Println(l)
	fmt.Printf("Risk score: %.3f\n", l.RiskScore(b))
	fmt.Printf("Current value: %.2f\n", l.CurrentValue(b))
	fmt.Printf("Expected return: %.2f\n", l.ExpectedReturn(b))
	fmt.Printf("Payment success rate: %.2f\n", b.PaymentSuccessRate())

	// One decision and its outcome feed the learner
	if err := b.Update(state, true, 1.0, state, l.Offer()); err != nil {
		panic(err)
	}
	b.UpdateTargetNetwork()

	fmt.Printf("Epsilon after %v evaluations: %.3f\n", b.Steps(), b.Epsilon())
}
