package borrower

import (
	"math"
	"testing"

	"github.com/creditlab/loanmarket/loan"
	"github.com/creditlab/loanmarket/market"
	"github.com/creditlab/loanmarket/network"
)

// newTestBorrower returns a borrower with the given profile backed by
// a fresh loan registry
func newTestBorrower(t *testing.T, profile Profile,
	seed uint64) (*Borrower, *loan.Registry) {
	t.Helper()

	config, err := DefaultConfig()
	if err != nil {
		t.Fatalf("could not create config: %v", err)
	}

	book := loan.NewRegistry()
	b, err := New(1, profile, config, book, seed)
	if err != nil {
		t.Fatalf("could not create borrower: %v", err)
	}
	return b, book
}

// weightSnapshot copies the current weights of a value network
func weightSnapshot(n network.ValueNet) [][]float64 {
	snapshot := make([][]float64, 0, len(n.Learnables()))
	for _, learnable := range n.Learnables() {
		data := learnable.Value().Data().([]float64)
		values := make([]float64, len(data))
		copy(values, data)
		snapshot = append(snapshot, values)
	}
	return snapshot
}

func snapshotsEqual(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func TestEpsilonSchedule(t *testing.T) {
	b, _ := newTestBorrower(t, DefaultProfile(), 42)

	if eps := b.Epsilon(); math.Abs(eps-0.9) > 1e-12 {
		t.Errorf("initial epsilon: got %v, expected %v", eps, 0.9)
	}

	prev := b.Epsilon()
	for _, steps := range []int{1, 10, 100, 1000, 10000, 100000} {
		b.steps = steps
		eps := b.Epsilon()
		if eps >= prev {
			t.Errorf("epsilon at %d steps: got %v, expected less than %v",
				steps, eps, prev)
		}
		if eps < 0.05 || eps > 0.9 {
			t.Errorf("epsilon at %d steps: got %v, expected within "+
				"[0.05, 0.9]", steps, eps)
		}
		prev = eps
	}

	b.steps = 10000000
	if eps := b.Epsilon(); math.Abs(eps-0.05) > 1e-6 {
		t.Errorf("limiting epsilon: got %v, expected %v", eps, 0.05)
	}
}

func TestEvaluateNilLoan(t *testing.T) {
	b, _ := newTestBorrower(t, DefaultProfile(), 42)

	if b.Evaluate(nil, market.NewState(market.Steady, 0.5)) {
		t.Error("expected a nil loan offer to be rejected")
	}
	if b.Steps() != 0 {
		t.Errorf("steps: got %v, expected a nil offer to leave the "+
			"count at 0", b.Steps())
	}
}

func TestEvaluateCountsSteps(t *testing.T) {
	b, book := newTestBorrower(t, DefaultProfile(), 42)
	l := book.Issue(2, 1, market.NewOffer(0.10, 10000, 36))
	s := market.NewState(market.Expansion, 0.8)

	for i := 0; i < 5; i++ {
		b.Evaluate(l, s)
	}
	if b.Steps() != 5 {
		t.Errorf("steps: got %v, expected %v", b.Steps(), 5)
	}
}

func TestUpdateGatesOnBatchSize(t *testing.T) {
	b, _ := newTestBorrower(t, DefaultProfile(), 42)
	s := market.NewState(market.Steady, 0.5)
	offer := market.NewOffer(0.10, 10000, 36)

	before := weightSnapshot(b.trainNet)
	for i := 0; i < b.batchSize-1; i++ {
		if err := b.Update(s, i%2 == 0, 1.0, s, offer); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	if !snapshotsEqual(before, weightSnapshot(b.trainNet)) {
		t.Fatal("expected weights to be unchanged below one batch of " +
			"transitions")
	}

	if err := b.Update(s, true, 1.0, s, offer); err != nil {
		t.Fatalf("update: %v", err)
	}
	if snapshotsEqual(before, weightSnapshot(b.trainNet)) {
		t.Error("expected weights to change after a full batch of " +
			"transitions")
	}
}

func TestUpdateSynchronizesEvalNet(t *testing.T) {
	b, _ := newTestBorrower(t, DefaultProfile(), 42)
	s := market.NewState(market.Steady, 0.5)
	offer := market.NewOffer(0.10, 10000, 36)

	for i := 0; i < b.batchSize; i++ {
		if err := b.Update(s, i%2 == 0, 1.0, s, offer); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	if !snapshotsEqual(weightSnapshot(b.trainNet),
		weightSnapshot(b.evalNet)) {
		t.Error("expected the evaluation network to carry the training " +
			"network's weights after a training step")
	}
}

func TestUpdateTargetNetwork(t *testing.T) {
	b, _ := newTestBorrower(t, DefaultProfile(), 42)

	// Nudge one training weight so the copy is observable
	weights := b.trainNet.Learnables()[0].Value().Data().([]float64)
	weights[0] += 0.5

	if snapshotsEqual(weightSnapshot(b.trainNet),
		weightSnapshot(b.targetNet)) {
		t.Fatal("expected the training and target networks to differ " +
			"before the copy")
	}

	b.UpdateTargetNetwork()

	if !snapshotsEqual(weightSnapshot(b.trainNet),
		weightSnapshot(b.targetNet)) {
		t.Error("expected the target network to match the training " +
			"network after the copy")
	}
}

func TestReset(t *testing.T) {
	b, book := newTestBorrower(t, DefaultProfile(), 42)
	s := market.NewState(market.Steady, 0.5)
	offer := market.NewOffer(0.10, 10000, 36)
	l := book.Issue(2, 1, offer)

	if !b.ApplyForLoan(l) {
		t.Fatal("expected the loan application to succeed")
	}
	if !b.MakePayment(l) {
		t.Fatal("expected the payment to succeed")
	}
	for i := 0; i < 3; i++ {
		if err := b.Update(s, true, 1.0, s, offer); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	b.steps = 123

	weights := weightSnapshot(b.trainNet)
	buffered := b.replay.Capacity()

	b.Reset()

	if len(b.Loans()) != 0 {
		t.Errorf("loans: got %v, expected none", b.Loans())
	}
	if b.Debt() != 0 {
		t.Errorf("debt: got %v, expected 0", b.Debt())
	}
	if b.PaymentSuccessRate() != 1.0 {
		t.Errorf("payment success rate: got %v, expected the no-history "+
			"default of 1.0", b.PaymentSuccessRate())
	}
	if b.AvgReward() != 0 {
		t.Errorf("average reward: got %v, expected 0", b.AvgReward())
	}
	if b.Steps() != 123 {
		t.Errorf("steps: got %v, expected 123 to survive the reset",
			b.Steps())
	}
	if !snapshotsEqual(weights, weightSnapshot(b.trainNet)) {
		t.Error("expected network weights to survive the reset")
	}
	if b.replay.Capacity() != buffered {
		t.Errorf("replay capacity: got %v, expected %v to survive the "+
			"reset", b.replay.Capacity(), buffered)
	}
}

func TestAvgReward(t *testing.T) {
	b, _ := newTestBorrower(t, DefaultProfile(), 42)
	s := market.NewState(market.Steady, 0.5)
	offer := market.NewOffer(0.10, 10000, 36)

	rewards := []float64{1.0, -0.5, 0.5, 2.0}
	total := 0.0
	for _, reward := range rewards {
		if err := b.Update(s, true, reward, s, offer); err != nil {
			t.Fatalf("update: %v", err)
		}
		total += reward
	}

	want := total / float64(len(rewards))
	if got := b.AvgReward(); math.Abs(got-want) > 1e-12 {
		t.Errorf("got %v, expected %v", got, want)
	}
}

func BenchmarkEvaluate(b *testing.B) {
	config, err := DefaultConfig()
	if err != nil {
		b.Fatalf("could not create config: %v", err)
	}
	book := loan.NewRegistry()
	borrower, err := New(1, DefaultProfile(), config, book, 42)
	if err != nil {
		b.Fatalf("could not create borrower: %v", err)
	}
	l := book.Issue(2, 1, market.NewOffer(0.10, 10000, 36))
	s := market.NewState(market.Steady, 0.5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		borrower.Evaluate(l, s)
	}
}
