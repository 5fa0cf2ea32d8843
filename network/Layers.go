package network

import (
	G "gorgonia.org/gorgonia"
)

// Layer is a single layer of a value network. A Layer adds its forward
// pass to a computational graph and exposes the nodes it learns.
type Layer interface {
	fwd(*G.Node) (*G.Node, error)
	CloneTo(g *G.ExprGraph) Layer
	Learnables() G.Nodes
}

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	if f.weights != nil {
		x = G.Must(G.Mul(x, f.weights))
	}
	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.bias, nil, []byte{0}))
	}
	if f.act == nil {
		return x, nil
	}
	return f.act.fwd(x)
}

// CloneTo clones an fcLayer to a new computational graph
func (f *fcLayer) CloneTo(g *G.ExprGraph) Layer {
	var newWeights, newBias *G.Node

	if f.weights != nil {
		newWeights = f.weights.CloneTo(g)
	}
	if f.bias != nil {
		newBias = f.bias.CloneTo(g)
	}

	return &fcLayer{
		weights: newWeights,
		bias:    newBias,
		act:     f.act,
	}
}

// Learnables returns the nodes of the fcLayer that are learned
func (f *fcLayer) Learnables() G.Nodes {
	learnables := make(G.Nodes, 0, 2)
	if f.weights != nil {
		learnables = append(learnables, f.weights)
	}
	if f.bias != nil {
		learnables = append(learnables, f.bias)
	}
	return learnables
}

// actLayer applies an activation function as a standalone layer
type actLayer struct {
	act *Activation
}

func (a *actLayer) fwd(x *G.Node) (*G.Node, error) {
	return a.act.fwd(x)
}

// CloneTo clones an actLayer to a new computational graph
func (a *actLayer) CloneTo(g *G.ExprGraph) Layer {
	return &actLayer{act: a.act}
}

// Learnables returns the nodes of the actLayer that are learned
func (a *actLayer) Learnables() G.Nodes {
	return nil
}

// layerNormEpsilon keeps the normalization denominator away from zero
const layerNormEpsilon float64 = 1e-5

// layerNorm implements layer normalization over the feature dimension
// of a batch of inputs. Each row of the input is normalized to zero
// mean and unit variance and then rescaled by a learned gain and
// offset per feature.
type layerNorm struct {
	gain   *G.Node
	offset *G.Node
}

// fwd adds the forward pass of the layerNorm to the computational
// graph
func (l *layerNorm) fwd(x *G.Node) (*G.Node, error) {
	// Normalize each sample by its feature mean and variance. The
	// reductions are along the feature dimension, then broadcast back
	// over it.
	mean, err := G.Mean(x, 1)
	if err != nil {
		return nil, err
	}
	centred := G.Must(G.BroadcastSub(x, mean, nil, []byte{1}))

	variance := G.Must(G.Mean(G.Must(G.Square(centred)), 1))
	variance = G.Must(G.Add(variance, G.NewConstant(layerNormEpsilon)))
	sd := G.Must(G.Sqrt(variance))

	normalized := G.Must(G.BroadcastHadamardDiv(centred, sd, nil, []byte{1}))

	// Rescale features by the learned gain and offset, broadcast over
	// the batch dimension
	scaled := G.Must(G.BroadcastHadamardProd(normalized, l.gain, nil,
		[]byte{0}))
	return G.BroadcastAdd(scaled, l.offset, nil, []byte{0})
}

// CloneTo clones a layerNorm to a new computational graph
func (l *layerNorm) CloneTo(g *G.ExprGraph) Layer {
	return &layerNorm{
		gain:   l.gain.CloneTo(g),
		offset: l.offset.CloneTo(g),
	}
}

// Learnables returns the nodes of the layerNorm that are learned
func (l *layerNorm) Learnables() G.Nodes {
	return G.Nodes{l.gain, l.offset}
}
