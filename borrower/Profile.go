package borrower

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Profile describes the financial attributes of a borrower at
// creation. CreditScore and Debt evolve once the borrower starts
// trading; RiskTolerance and FinancialLiteracy are fixed behavioural
// traits in [0, 1].
type Profile struct {
	CreditScore       float64
	Income            float64
	Debt              float64
	RiskTolerance     float64
	FinancialLiteracy float64
}

// DefaultProfile returns the profile of an average borrower
func DefaultProfile() Profile {
	return Profile{
		CreditScore:       600,
		Income:            55000,
		Debt:              0,
		RiskTolerance:     0.4,
		FinancialLiteracy: 0.7,
	}
}

// NewRandomProfile returns a profile with attributes drawn uniformly
// randomly from their customary ranges
func NewRandomProfile(seed uint64) Profile {
	src := rand.NewSource(seed)

	score := distuv.Uniform{Min: 300, Max: 850, Src: src}
	income := distuv.Uniform{Min: 20000, Max: 150000, Src: src}
	debt := distuv.Uniform{Min: 0, Max: 100000, Src: src}
	risk := distuv.Uniform{Min: 0.1, Max: 0.7, Src: src}
	literacy := distuv.Uniform{Min: 0.5, Max: 0.9, Src: src}

	return Profile{
		CreditScore:       math.Floor(score.Rand()),
		Income:            math.Floor(income.Rand()),
		Debt:              math.Floor(debt.Rand()),
		RiskTolerance:     risk.Rand(),
		FinancialLiteracy: literacy.Rand(),
	}
}
