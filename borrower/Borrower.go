// Package borrower implements credit-market borrowers that learn to
// evaluate loan offers with deep Q-learning.
package borrower

import (
	"fmt"
	"math"
	"sort"

	"github.com/creditlab/loanmarket/expreplay"
	"github.com/creditlab/loanmarket/loan"
	"github.com/creditlab/loanmarket/market"
	"github.com/creditlab/loanmarket/network"
	"github.com/creditlab/loanmarket/solver"
	"github.com/creditlab/loanmarket/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Actions a borrower can take on a loan offer
const (
	Reject int = iota
	Accept
)

const (
	numFeatures = 8 // Size of the encoded state vector
	numActions  = 2

	maxPaymentWindow = 100 // Payment outcomes counted as recent
	maxRewardWindow  = 100

	minCreditScore = 300.0
	maxCreditScore = 850.0
	capCreditScore = 450.0 // Ceiling after repeated defaults
)

// Borrower is a market participant that decides whether to accept loan
// offers. Decisions are made by an epsilon-greedy policy over a
// learned action-value network, filtered through a rule-based
// affordability veto. Each Borrower owns its value network, frozen
// target network, replay buffer, and optimizer state outright, so
// independent borrowers can act and learn concurrently.
type Borrower struct {
	id int64

	creditScore       float64
	income            float64
	debt              float64
	riskTolerance     float64
	financialLiteracy float64

	book  *loan.Registry
	loans map[loan.ID]bool

	loanHistory    []float64 // Application successes and defaults
	paymentHistory []float64

	rewardHistory []float64
	avgReward     float64

	// Action selection network, one state per forward pass
	evalNet network.ValueNet
	evalVM  G.VM

	// Training network over which the loss graph is built
	trainNet network.ValueNet
	trainVM  G.VM
	solver   *solver.Solver

	// Frozen network that provides the bootstrapped update targets
	targetNet network.ValueNet
	targetVM  G.VM

	// Input nodes of the training loss graph
	selectedActions       *G.Node
	nextStateActionValues *G.Node
	rewards               *G.Node

	replay expreplay.ExperienceReplayer

	batchSize       int
	epsilonStart    float64
	epsilonEnd      float64
	epsilonDecay    float64
	maxGradientNorm float64

	steps int

	rng distuv.Uniform
}

var _ loan.Account = &Borrower{}

// New returns a Borrower with the given profile whose learning state
// is constructed from config. All loans the borrower takes on are
// resolved through book.
func New(id int64, profile Profile, config Config, book *loan.Registry,
	seed uint64) (*Borrower, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if book == nil {
		return nil, fmt.Errorf("new: no loan registry given")
	}

	// Network run to evaluate single offers
	g := G.NewGraph()
	evalNet, err := network.NewQNet(numFeatures, 1, numActions, g,
		config.HiddenSizes, config.InitWFn.InitWFn())
	if err != nil {
		return nil, fmt.Errorf("new: could not create evaluation "+
			"network: %v", err)
	}
	evalVM := G.NewTapeMachine(g)

	// Training network which learns the weights on batches of
	// transitions
	trainNet, err := evalNet.CloneWithBatch(config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create training "+
			"network: %v", err)
	}
	gTrain := trainNet.Graph()

	// Frozen copy providing the bootstrapped update targets
	targetNet, err := evalNet.CloneWithBatch(config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target "+
			"network: %v", err)
	}
	targetVM := G.NewTapeMachine(targetNet.Graph())

	// Nodes to compute the update target: r + γ * max[Q(s', a')]
	nextStateActionValues := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(config.BatchSize, numActions),
		G.WithName("targetActionVals"))
	rewards := G.NewVector(gTrain, tensor.Float64,
		G.WithShape(config.BatchSize), G.WithName("reward"))
	discounts := G.NewVector(gTrain, tensor.Float64,
		G.WithShape(config.BatchSize), G.WithName("discount"))

	updateTarget := G.Must(G.Max(nextStateActionValues, 1))
	updateTarget = G.Must(G.HadamardProd(updateTarget, discounts))
	updateTarget = G.Must(G.Add(updateTarget, rewards))

	// One-hot actions taken at the sampled states, needed to pick
	// each sample's predicted value out of the network's outputs
	selectedActions := G.NewMatrix(gTrain, tensor.Float64,
		G.WithName("actionSelected"),
		G.WithShape(config.BatchSize, numActions))
	prediction := G.Must(G.HadamardProd(trainNet.Prediction(),
		selectedActions))
	prediction = G.Must(G.Sum(prediction, 1))

	// Huber loss with unit delta: quadratic within unit error, linear
	// outside
	one := G.NewConstant(1.0)
	half := G.NewConstant(0.5)
	errs := G.Must(G.Abs(G.Must(G.Sub(updateTarget, prediction))))
	quad := G.Must(G.Sub(one, G.Must(G.Rectify(G.Must(G.Sub(one, errs))))))
	losses := G.Must(G.Add(
		G.Must(G.HadamardProd(half, G.Must(G.Square(quad)))),
		G.Must(G.Sub(errs, quad)),
	))
	cost := G.Must(G.Mean(losses))

	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		panic(fmt.Sprintf("new: could not compute gradient: %v", err))
	}

	trainVM := G.NewTapeMachine(gTrain,
		G.BindDualValues(trainNet.Learnables()...))

	// Every transition bootstraps with the same discount
	discountBacking := make([]float64, config.BatchSize)
	for i := range discountBacking {
		discountBacking[i] = config.Gamma
	}
	err = G.Let(discounts, tensor.New(
		tensor.WithShape(config.BatchSize),
		tensor.WithBacking(discountBacking),
	))
	if err != nil {
		return nil, fmt.Errorf("new: could not set discounts: %v", err)
	}

	replay, err := config.Replay.Create(numFeatures, numActions, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience "+
			"replay buffer: %v", err)
	}

	return &Borrower{
		id:                id,
		creditScore:       profile.CreditScore,
		income:            profile.Income,
		debt:              profile.Debt,
		riskTolerance:     profile.RiskTolerance,
		financialLiteracy: profile.FinancialLiteracy,

		book:  book,
		loans: make(map[loan.ID]bool),

		evalNet:   evalNet,
		evalVM:    evalVM,
		trainNet:  trainNet,
		trainVM:   trainVM,
		solver:    config.Solver,
		targetNet: targetNet,
		targetVM:  targetVM,

		selectedActions:       selectedActions,
		nextStateActionValues: nextStateActionValues,
		rewards:               rewards,

		replay: replay,

		batchSize:       config.BatchSize,
		epsilonStart:    config.EpsilonStart,
		epsilonEnd:      config.EpsilonEnd,
		epsilonDecay:    config.EpsilonDecay,
		maxGradientNorm: config.MaxGradientNorm,

		rng: distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(seed)},
	}, nil
}

// Evaluate decides whether to accept the given loan offer under the
// given market conditions. With probability epsilon the decision is
// explored randomly, otherwise the action-value network chooses;
// either way an accept must survive the affordability veto before it
// becomes final. A nil loan is always rejected.
func (b *Borrower) Evaluate(l *loan.Loan, s market.State) bool {
	if l == nil {
		return false
	}

	sample := b.rng.Rand()
	eps := b.Epsilon()
	b.steps++

	var action int
	if sample > eps {
		values := b.predict(b.encode(l.Offer(), s))
		action = floatutils.ArgMax(values)
	} else {
		action = int(b.rng.Rand() * numActions)
	}

	decision := action == Accept
	if decision {
		decision = b.vetoAccept(l)
	}
	return decision
}

// vetoAccept applies the rule-based veto to an accept decision: high
// affordability always stands, moderate affordability stands only for
// risk-tolerant, financially literate borrowers with a strong payment
// record.
func (b *Borrower) vetoAccept(l *loan.Loan) bool {
	affordability := b.Affordability(l)
	riskFactor := b.rng.Rand() * b.riskTolerance
	literacyFactor := b.rng.Rand() * b.financialLiteracy

	return affordability > 0.7 ||
		(affordability > 0.5 &&
			riskFactor > 0.5 &&
			literacyFactor > 0.5 &&
			b.PaymentSuccessRate() > 0.7)
}

// predict runs the evaluation network forward on one encoded state
// and returns the estimated value of each action
func (b *Borrower) predict(state []float64) []float64 {
	if err := b.evalNet.SetInput(state); err != nil {
		panic(fmt.Sprintf("predict: could not set network input: %v", err))
	}
	if err := b.evalVM.RunAll(); err != nil {
		panic(fmt.Sprintf("predict: could not run network: %v", err))
	}

	output := b.evalNet.Output().Data().([]float64)
	values := make([]float64, len(output))
	copy(values, output)

	b.evalVM.Reset()
	return values
}

// encode builds the normalized feature vector the networks consume:
// credit standing, indebtedness, payment record, the offer's terms,
// and the market's condition.
func (b *Borrower) encode(offer market.Offer, s market.State) []float64 {
	return []float64{
		b.creditScore / maxCreditScore,
		b.DebtToIncomeRatio(),
		b.PaymentSuccessRate(),
		offer.Rate,
		offer.Amount / 100000.0,
		float64(offer.Term) / 36.0,
		float64(s.Cycle),
		s.Liquidity,
	}
}

// Epsilon returns the current exploration rate, which decays
// exponentially in the number of evaluations made
func (b *Borrower) Epsilon() float64 {
	return b.epsilonEnd + (b.epsilonStart-b.epsilonEnd)*
		math.Exp(-float64(b.steps)/b.epsilonDecay)
}

// Update records an observed outcome and performs one training step
// on the value network. The transition joins the replay buffer; until
// the buffer holds one full batch, recording is all that happens. The
// target network is never adjusted here.
func (b *Borrower) Update(state market.State, accepted bool,
	reward float64, nextState market.State, offer market.Offer) error {
	b.rewardHistory = append(b.rewardHistory, reward)
	if len(b.rewardHistory) > maxRewardWindow {
		b.rewardHistory = b.rewardHistory[1:]
	}
	b.avgReward = stat.Mean(b.rewardHistory, nil)

	action := Reject
	if accepted {
		action = Accept
	}
	transition := expreplay.NewTransition(
		mat.NewVecDense(numFeatures, b.encode(offer, state)),
		action,
		reward,
		mat.NewVecDense(numFeatures, b.encode(offer, nextState)),
	)
	if err := b.replay.Add(transition); err != nil {
		return fmt.Errorf("update: could not record transition: %v", err)
	}

	S, A, R, NextS, err := b.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("update: could not sample transitions: %v", err)
	}

	// One-hot vectors of the actions taken at the sampled states
	prevActions := tensor.New(
		tensor.WithShape(b.batchSize, numActions),
		tensor.WithBacking(A),
	)
	if err := G.Let(b.selectedActions, prevActions); err != nil {
		return fmt.Errorf("update: could not set selected actions: %v", err)
	}

	if err := b.trainNet.SetInput(S); err != nil {
		panic(fmt.Sprintf("update: could not set training net input: %v",
			err))
	}
	if err := b.targetNet.SetInput(NextS); err != nil {
		panic(fmt.Sprintf("update: could not set target net input: %v",
			err))
	}

	// Action values of the next states under the frozen network
	if err := b.targetVM.RunAll(); err != nil {
		return fmt.Errorf("update: could not run target network: %v", err)
	}
	if err := G.Let(b.nextStateActionValues, b.targetNet.Output()); err != nil {
		return fmt.Errorf("update: could not set next state-action "+
			"values: %v", err)
	}

	rewardTensor := tensor.New(tensor.WithShape(b.batchSize),
		tensor.WithBacking(R))
	if err := G.Let(b.rewards, rewardTensor); err != nil {
		return fmt.Errorf("update: could not set rewards: %v", err)
	}
	b.targetVM.Reset()

	// One optimizer step on the training network only
	if err := b.trainVM.RunAll(); err != nil {
		return fmt.Errorf("update: could not run training network: %v", err)
	}
	err = solver.ClipGradNorm(b.trainNet.Model(), b.maxGradientNorm)
	if err != nil {
		return fmt.Errorf("update: could not clip gradients: %v", err)
	}
	if err := b.solver.Step(b.trainNet.Model()); err != nil {
		return fmt.Errorf("update: could not step the solver: %v", err)
	}
	b.trainVM.Reset()

	// Action selection sees the adapted weights immediately
	if err := b.evalNet.Set(b.trainNet); err != nil {
		return fmt.Errorf("update: could not update the evaluation "+
			"network: %v", err)
	}

	return nil
}

// UpdateTargetNetwork copies the training network's weights into the
// frozen target network. The borrower imposes no schedule; callers
// decide when the bootstrap targets move.
func (b *Borrower) UpdateTargetNetwork() {
	if err := b.targetNet.Set(b.trainNet); err != nil {
		panic(fmt.Sprintf("updatetargetnetwork: could not copy "+
			"weights: %v", err))
	}
}

// Reset returns the borrower to a clean financial slate: no loans, no
// debt, empty histories. Learned weights, optimizer state, the replay
// buffer, and the exploration schedule all survive a Reset.
func (b *Borrower) Reset() {
	b.loans = make(map[loan.ID]bool)
	b.debt = 0
	b.loanHistory = nil
	b.paymentHistory = nil
	b.rewardHistory = nil
	b.avgReward = 0
}

// ID returns the borrower's market identifier
func (b *Borrower) ID() int64 {
	return b.id
}

// CreditScore returns the borrower's current credit score
func (b *Borrower) CreditScore() float64 {
	return b.creditScore
}

// Income returns the borrower's annual income
func (b *Borrower) Income() float64 {
	return b.income
}

// Debt returns the borrower's outstanding debt
func (b *Borrower) Debt() float64 {
	return b.debt
}

// AvgReward returns the mean reward over the trailing reward window
func (b *Borrower) AvgReward() float64 {
	return b.avgReward
}

// Steps returns the number of loan evaluations made over the
// borrower's lifetime
func (b *Borrower) Steps() int {
	return b.steps
}

// Loans returns the ids of the borrower's active loans
func (b *Borrower) Loans() []loan.ID {
	ids := make([]loan.ID, 0, len(b.loans))
	for id := range b.loans {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
