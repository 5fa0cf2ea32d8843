package borrower

import (
	"fmt"

	"github.com/creditlab/loanmarket/expreplay"
	"github.com/creditlab/loanmarket/initwfn"
	"github.com/creditlab/loanmarket/solver"
)

// Config describes the learning configuration of a Borrower
type Config struct {
	BatchSize int
	Gamma     float64

	EpsilonStart float64
	EpsilonEnd   float64
	EpsilonDecay float64

	// MaxGradientNorm bounds the global L2 norm of the gradients at
	// each training step, <= 0 for no clipping
	MaxGradientNorm float64

	HiddenSizes []int

	Replay  expreplay.Config
	InitWFn *initwfn.InitWFn
	Solver  *solver.Solver
}

// DefaultConfig returns the customary learning configuration: a value
// network with two 128-unit hidden layers trained with Adam on
// batches of 128 transitions drawn from a 50000-capacity replay
// buffer.
func DefaultConfig() (Config, error) {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return Config{}, fmt.Errorf("defaultconfig: could not create "+
			"weight initializer: %v", err)
	}

	adam, err := solver.NewDefaultAdam(0.0001, 1)
	if err != nil {
		return Config{}, fmt.Errorf("defaultconfig: could not create "+
			"solver: %v", err)
	}

	return Config{
		BatchSize:       128,
		Gamma:           0.95,
		EpsilonStart:    0.9,
		EpsilonEnd:      0.05,
		EpsilonDecay:    50000,
		MaxGradientNorm: 1.0,
		HiddenSizes:     []int{128, 128},
		Replay: expreplay.Config{
			SampleSize:  128,
			MaxCapacity: 50000,
			MinCapacity: 1,
		},
		InitWFn: init,
		Solver:  adam,
	}, nil
}

// Validate returns an error describing why the Config cannot be used
// to construct a Borrower, or nil if it can
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("validate: batch size must be > 0")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1]")
	}
	if c.EpsilonDecay <= 0 {
		return fmt.Errorf("validate: epsilon decay must be > 0")
	}
	if c.EpsilonEnd < 0 {
		return fmt.Errorf("validate: epsilon end must be >= 0")
	}
	if c.EpsilonStart < c.EpsilonEnd {
		return fmt.Errorf("validate: epsilon start (%v) must be >= "+
			"epsilon end (%v)", c.EpsilonStart, c.EpsilonEnd)
	}
	if c.Replay.SampleSize != c.BatchSize {
		return fmt.Errorf("validate: replay sample size (%v) must equal "+
			"batch size (%v)", c.Replay.SampleSize, c.BatchSize)
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer given")
	}
	if c.Solver == nil {
		return fmt.Errorf("validate: no solver given")
	}
	return nil
}
