package expreplay

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/creditlab/loanmarket/utils/intutils"
)

// Selector implements functionality for choosing which stored
// transitions a batch is drawn from
type Selector interface {
	// choose selects the indices at which data should be sampled from
	// the experience replay buffer
	choose(c *cache) []int

	// BatchSize returns the number of elements that will be selected
	BatchSize() int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly without replacement, so a batch
// never holds the same stored transition twice
type uniformSelector struct {
	samples int
	src     rand.Source
}

// NewUniformSelector returns a new Selector which selects data
// uniformly randomly without replacement from an experience replay
// buffer
func NewUniformSelector(samples int, seed uint64) Selector {
	return &uniformSelector{samples: samples, src: rand.NewSource(seed)}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (u *uniformSelector) BatchSize() int {
	return u.samples
}

// choose selects a number of distinct indices at which to draw data
// from the buffer
func (u *uniformSelector) choose(c *cache) []int {
	selected := make([]int, u.BatchSize())
	sampleuv.WithoutReplacement(selected, c.Capacity(), u.src)
	return selected
}

// fifoSelector is a Selector which selects data from an experience
// replay buffer oldest-first. Useful for deterministic draws.
type fifoSelector struct {
	samples int
}

// NewFifoSelector returns a new Selector which draws the oldest data
// from an experience replay buffer first
func NewFifoSelector(samples int) Selector {
	return &fifoSelector{samples: samples}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (f *fifoSelector) BatchSize() int {
	return f.samples
}

// choose selects a number of indices at which to draw data from the
// buffer
func (f *fifoSelector) choose(c *cache) []int {
	return c.insertOrder(intutils.Min(f.BatchSize(), c.Capacity()))
}
