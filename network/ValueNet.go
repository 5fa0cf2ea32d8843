// Package network implements the feed-forward value networks that
// borrowers estimate action values with
package network

import (
	G "gorgonia.org/gorgonia"
)

// ValueNet is a feed-forward network predicting one value per action
// for a batch of encoded states
type ValueNet interface {
	Graph() *G.ExprGraph
	Clone() (ValueNet, error)
	CloneWithBatch(int) (ValueNet, error)
	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Set(ValueNet) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node
}
