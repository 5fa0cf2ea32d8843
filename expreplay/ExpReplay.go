package expreplay

import (
	"fmt"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	SampleSize  int
	MaxCapacity int
	MinCapacity int
}

// Create creates and returns the ExperienceReplayer with the specified
// Config. Batches are drawn uniformly randomly without replacement.
func (c Config) Create(featureSize, actionSize int,
	seed uint64) (ExperienceReplayer, error) {

	sampler := NewUniformSelector(c.SampleSize, seed)
	return New(sampler, c.MinCapacity, c.MaxCapacity, featureSize, actionSize)
}

// ExperienceReplayer implements a bounded experience replay buffer.
// Once the buffer fills, each added transition overwrites the oldest
// one, so the buffer always holds the most recent MaxCapacity()
// transitions.
type ExperienceReplayer interface {
	// Add adds a transition to the buffer
	Add(t Transition) error

	// Sample samples a batch of experience from the buffer and
	// returns the batch as flattened state, one-hot action, reward,
	// and next state slices
	Sample() ([]float64, []float64, []float64, []float64, error)

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// cache implements a concrete ExperienceReplayer. The cache is a ring:
// transitions are stored in struct-of-slices form at an insertion
// cursor which wraps once the cache fills, overwriting oldest first.
type cache struct {
	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	nextStateCache []float64

	currentInUsePos int
	isFull          bool

	// Outlines how data is sampled
	sampler Selector

	minCapacity int
	maxCapacity int
	featureSize int
	actionSize  int
}

// New creates and returns a new ExperienceReplayer. The sampler
// parameter is a Selector which determines how data is sampled from
// the replay buffer. The featureSize parameter defines the size of
// the encoded state vectors, and the actionSize parameter defines the
// number of discrete actions, which is the width of the one-hot
// action vectors returned by Sample(). The minCapacity parameter
// determines the minimum number of samples that should be in the
// buffer before sampling is allowed. The maxCapacity parameter
// determines the maximum number of samples allowed in the buffer at
// any given time.
func New(sampler Selector, minCapacity, maxCapacity, featureSize,
	actionSize int) (ExperienceReplayer, error) {
	if minCapacity <= 0 {
		return &cache{}, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < 1 {
		return &cache{}, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if maxCapacity < sampler.BatchSize() {
		return &cache{}, fmt.Errorf("new: cannot have batch size(%v) > max "+
			"buffer capacity (%v)", sampler.BatchSize(), maxCapacity)
	}

	stateCache := make([]float64, maxCapacity*featureSize)
	nextStateCache := make([]float64, maxCapacity*featureSize)
	actionCache := make([]float64, maxCapacity*actionSize)
	rewardCache := make([]float64, maxCapacity)

	return &cache{
		stateCache:     stateCache,
		actionCache:    actionCache,
		rewardCache:    rewardCache,
		nextStateCache: nextStateCache,

		currentInUsePos: 0,
		isFull:          false,

		sampler: sampler,

		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		featureSize: featureSize,
		actionSize:  actionSize,
	}, nil
}

// insertOrder returns a slice of at most n indices which describes
// the order that the oldest n transitions were inserted into the
// buffer: the first index holds the oldest transition still stored.
func (c *cache) insertOrder(n int) []int {
	if !c.isFull {
		if n > c.currentInUsePos {
			n = c.currentInUsePos
		}
		order := make([]int, n)
		for i := 0; i < n; i++ {
			order[i] = i
		}
		return order
	}

	if n > c.maxCapacity {
		n = c.maxCapacity
	}
	order := make([]int, n)
	for i := 0; i < n; i++ {
		// The cursor sits on the oldest transition once the ring is
		// full
		order[i] = (c.currentInUsePos + i) % c.maxCapacity
	}
	return order
}

// String returns the string representation of the cache
func (c *cache) String() string {
	baseStr := "Capacity: %v \nStates: %v \nActions: %v \nRewards: %v \n" +
		"Next States: %v"
	return fmt.Sprintf(baseStr, c.Capacity(), c.stateCache, c.actionCache,
		c.rewardCache, c.nextStateCache)
}

// BatchSize returns the number of samples sampled using Sample() -
// a.k.a the batch size
func (c *cache) BatchSize() int {
	return c.sampler.BatchSize()
}

// Sample samples and returns a batch of transitions from the replay
// buffer. The returned values are the flattened states, one-hot
// actions, rewards, and next states.
func (c *cache) Sample() ([]float64, []float64, []float64, []float64,
	error) {
	if c.Capacity() == 0 {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errEmptyCache,
		}
		return nil, nil, nil, nil, err
	}
	if c.Capacity() < c.MinCapacity() || c.Capacity() < c.BatchSize() {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
		return nil, nil, nil, nil, err
	}

	indices := c.sampler.choose(c)

	stateBatch := make([]float64, c.BatchSize()*c.featureSize)
	nextStateBatch := make([]float64, c.BatchSize()*c.featureSize)
	for i, index := range indices {
		batchStartInd := i * c.featureSize
		expStartInd := index * c.featureSize
		copy(stateBatch[batchStartInd:batchStartInd+c.featureSize],
			c.stateCache[expStartInd:expStartInd+c.featureSize],
		)
		copy(nextStateBatch[batchStartInd:batchStartInd+c.featureSize],
			c.nextStateCache[expStartInd:expStartInd+c.featureSize],
		)
	}

	actionBatch := make([]float64, c.BatchSize()*c.actionSize)
	for i, index := range indices {
		batchStartInd := i * c.actionSize
		expStartInd := index * c.actionSize
		copy(actionBatch[batchStartInd:batchStartInd+c.actionSize],
			c.actionCache[expStartInd:expStartInd+c.actionSize],
		)
	}

	rewardBatch := make([]float64, c.BatchSize())
	for i, index := range indices {
		rewardBatch[i] = c.rewardCache[index]
	}

	return stateBatch, actionBatch, rewardBatch, nextStateBatch, nil
}

// Capacity returns the current number of elements in the cache that
// are available for sampling
func (c *cache) Capacity() int {
	if c.isFull {
		return c.maxCapacity
	}
	return c.currentInUsePos
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the cache
func (c *cache) MaxCapacity() int {
	return c.maxCapacity
}

// MinCapacity returns the minimum number of elements required in the
// cache before sampling is allowed
func (c *cache) MinCapacity() int {
	return c.minCapacity
}

// Add adds a transition to the cache, overwriting the oldest stored
// transition if the cache is full
func (c *cache) Add(t Transition) error {
	if t.State.Len() != c.featureSize || t.NextState.Len() != c.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)\n\thave(%v)",
			c.featureSize, t.State.Len())
	}
	if t.Action < 0 || t.Action >= c.actionSize {
		return fmt.Errorf("add: invalid action %v for action size %v",
			t.Action, c.actionSize)
	}

	index := c.currentInUsePos
	if !c.isFull && index+1 == c.maxCapacity {
		c.isFull = true
	}

	// Copy states
	stateInd := index * c.featureSize
	for i := 0; i < c.featureSize; i++ {
		c.stateCache[stateInd+i] = t.State.AtVec(i)
		c.nextStateCache[stateInd+i] = t.NextState.AtVec(i)
	}

	// Store the action as a one-hot vector
	actionInd := index * c.actionSize
	for i := 0; i < c.actionSize; i++ {
		c.actionCache[actionInd+i] = 0
	}
	c.actionCache[actionInd+t.Action] = 1.0

	// Copy reward R
	c.rewardCache[index] = t.Reward

	c.currentInUsePos = (c.currentInUsePos + 1) % c.maxCapacity
	return nil
}
