package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// qNet implements a layer-normalized multi-layered perceptron that
// predicts one value per action. Each hidden layer is a fully
// connected layer followed by layer normalization and a ReLU. The
// output layer is fully connected with no activation, so the predicted
// action values are unbounded.
type qNet struct {
	g          *G.ExprGraph
	layers     []Layer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int

	hiddenSizes []int

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

var _ ValueNet = &qNet{}

// NewQNet creates and returns a new value network on the graph g. The
// network takes batch-many rows of features-many features and predicts
// outputs-many action values per row. The weights of every fully
// connected layer are initialized by init. Biases start at zero,
// normalization gains at one, and normalization offsets at zero.
//
// The function works such that for index i, hiddenSizes[i] is the
// number of nodes in hidden layer i.
func NewQNet(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, init G.InitWFn) (ValueNet, error) {
	if features <= 0 {
		return nil, fmt.Errorf("newqnet: features must be > 0")
	}
	if batch <= 0 {
		return nil, fmt.Errorf("newqnet: batch must be > 0")
	}
	if outputs <= 0 {
		return nil, fmt.Errorf("newqnet: outputs must be > 0")
	}
	for _, size := range hiddenSizes {
		if size <= 0 {
			return nil, fmt.Errorf("newqnet: hidden sizes must be > 0")
		}
	}

	// Set up the input node
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	layers := make([]Layer, 0, 3*len(hiddenSizes)+1)
	prev := features
	for i, size := range hiddenSizes {
		weights := G.NewMatrix(g, tensor.Float64, G.WithShape(prev, size),
			G.WithName(fmt.Sprintf("L%dWeights", i)), G.WithInit(init))
		bias := G.NewVector(g, tensor.Float64, G.WithShape(size),
			G.WithName(fmt.Sprintf("L%dBias", i)), G.WithInit(G.Zeroes()))
		layers = append(layers, &fcLayer{weights: weights, bias: bias})

		gain := G.NewVector(g, tensor.Float64, G.WithShape(size),
			G.WithName(fmt.Sprintf("L%dGain", i)), G.WithInit(G.Ones()))
		offset := G.NewVector(g, tensor.Float64, G.WithShape(size),
			G.WithName(fmt.Sprintf("L%dOffset", i)), G.WithInit(G.Zeroes()))
		layers = append(layers, &layerNorm{gain: gain, offset: offset})

		layers = append(layers, &actLayer{act: ReLU()})
		prev = size
	}

	// Output layer predicts one value per action with no activation
	weights := G.NewMatrix(g, tensor.Float64, G.WithShape(prev, outputs),
		G.WithName("outputWeights"), G.WithInit(init))
	bias := G.NewVector(g, tensor.Float64, G.WithShape(outputs),
		G.WithName("outputBias"), G.WithInit(G.Zeroes()))
	layers = append(layers, &fcLayer{weights: weights, bias: bias})

	net := qNet{
		g:           g,
		layers:      layers,
		input:       input,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
	}
	_, err := net.fwd(input)
	if err != nil {
		return nil, fmt.Errorf("newqnet: could not compute forward pass: %v",
			err)
	}

	return &net, nil
}

// Graph returns the computational graph of the qNet
func (q *qNet) Graph() *G.ExprGraph {
	return q.g
}

// Clone clones a qNet
func (q *qNet) Clone() (ValueNet, error) {
	return q.CloneWithBatch(q.batchSize)
}

// CloneWithBatch clones a qNet onto a new computational graph with a
// new input batch size. The cloned network shares no nodes with its
// source, but starts with equal weights.
func (q *qNet) CloneWithBatch(batchSize int) (ValueNet, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("clonewithbatch: batch must be > 0")
	}
	graph := G.NewGraph()

	// Create the input node
	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, q.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	// Copy layers
	layers := make([]Layer, len(q.layers))
	for i := range q.layers {
		layers[i] = q.layers[i].CloneTo(graph)
	}

	net := qNet{
		g:           graph,
		layers:      layers,
		input:       input,
		numOutputs:  q.numOutputs,
		numInputs:   q.numInputs,
		batchSize:   batchSize,
		hiddenSizes: q.hiddenSizes,
	}
	_, err := net.fwd(input)
	if err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute forward "+
			"pass: %v", err)
	}

	return &net, nil
}

// BatchSize returns the number of rows of input the network expects
func (q *qNet) BatchSize() int {
	return q.batchSize
}

// Features returns the number of features in a single encoded state
// vector that the network takes as input
func (q *qNet) Features() int {
	return q.numInputs
}

// Outputs returns the number of action values the network predicts
// per input row
func (q *qNet) Outputs() int {
	return q.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass.
func (q *qNet) SetInput(input []float64) error {
	if len(input) != q.numInputs*q.batchSize {
		msg := fmt.Sprintf("invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", q.numInputs*q.batchSize, len(input))
		panic(msg)
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(q.input.Shape()...),
	)
	return G.Let(q.input, inputTensor)
}

// Set sets the weights of a qNet to be equal to the weights of another
// ValueNet
func (q *qNet) Set(source ValueNet) error {
	sourceNodes := source.Learnables()
	nodes := q.Learnables()
	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes in a qNet
func (q *qNet) Learnables() G.Nodes {
	// Lazy instantiation
	if q.learnables == nil {
		learnables := make(G.Nodes, 0, 2*len(q.layers))
		for i := range q.layers {
			learnables = append(learnables, q.layers[i].Learnables()...)
		}
		q.learnables = learnables
	}
	return q.learnables
}

// Model returns the learnable nodes with their gradients.
func (q *qNet) Model() []G.ValueGrad {
	// Lazy instantiation
	if q.model == nil {
		model := make([]G.ValueGrad, 0, len(q.Learnables()))
		for _, node := range q.Learnables() {
			model = append(model, node)
		}
		q.model = model
	}
	return q.model
}

// fwd performs the forward pass of the qNet on the input node
func (q *qNet) fwd(input *G.Node) (*G.Node, error) {
	inputShape := input.Shape()[len(input.Shape())-1]
	if inputShape != q.numInputs {
		return nil, fmt.Errorf("fwd: invalid shape for input to network:"+
			" \n\twant(%v) \n\thave(%v)", q.numInputs, inputShape)
	}

	pred := input
	var err error
	for i, l := range q.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	q.prediction = pred
	G.Read(q.prediction, &q.predVal)

	return pred, nil
}

// Output returns the output of the qNet after a VM has run its graph
func (q *qNet) Output() G.Value {
	return q.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the qNet
func (q *qNet) Prediction() *G.Node {
	return q.prediction
}
