// Package expreplay implements bounded experience replay for borrower
// decision learning
package expreplay

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition packages together a single decision the borrower made:
// the encoded state the offer was evaluated in, the action taken, the
// reward the market assigned to it, and the encoded state that
// followed
type Transition struct {
	State     mat.Vector
	Action    int
	Reward    float64
	NextState mat.Vector
}

// NewTransition returns a new Transition for the given decision
func NewTransition(state mat.Vector, action int, reward float64,
	nextState mat.Vector) Transition {
	return Transition{
		State:     state,
		Action:    action,
		Reward:    reward,
		NextState: nextState,
	}
}

func (t Transition) String() string {
	str := "Transition | Action: %v  |  Reward:  %.2f"

	return fmt.Sprintf(str, t.Action, t.Reward)
}
