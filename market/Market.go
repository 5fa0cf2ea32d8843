// Package market implements the market-facing records that loans and
// borrowers exchange
package market

import "fmt"

// Cycle denotes the phase of the economic cycle that the market is in,
// either a recession, a steady economy, or an expansion
type Cycle int

const (
	Recession Cycle = -1
	Steady    Cycle = 0
	Expansion Cycle = 1
)

func (c Cycle) String() string {
	switch c {
	case Recession:
		return "Recession"
	case Expansion:
		return "Expansion"
	default:
		return "Steady"
	}
}

// State packages together the market conditions under which a loan
// offer is evaluated
type State struct {
	Cycle     Cycle
	Liquidity float64
}

func NewState(c Cycle, liquidity float64) State {
	return State{c, liquidity}
}

func (s State) String() string {
	str := "State | Cycle: %v  |  Liquidity:  %.2f"

	return fmt.Sprintf(str, s.Cycle, s.Liquidity)
}

// Offer packages together the terms under which a lender offers a
// loan: the annual interest rate, the principal amount, and the term
// in months
type Offer struct {
	Rate   float64
	Amount float64
	Term   int
}

func NewOffer(rate, amount float64, term int) Offer {
	return Offer{rate, amount, term}
}

func (o Offer) String() string {
	str := "Offer | Rate: %.4f  |  Amount:  %.2f  |  Term:  %v"

	return fmt.Sprintf(str, o.Rate, o.Amount, o.Term)
}
