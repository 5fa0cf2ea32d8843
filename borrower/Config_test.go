package borrower

import (
	"encoding/json"
	"testing"

	"github.com/creditlab/loanmarket/initwfn"
	"github.com/creditlab/loanmarket/solver"
)

func TestConfigValidate(t *testing.T) {
	config, err := DefaultConfig()
	if err != nil {
		t.Fatalf("could not create config: %v", err)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config: unexpected error %v", err)
	}

	noBatch := config
	noBatch.BatchSize = 0
	if err := noBatch.Validate(); err == nil {
		t.Error("expected a zero batch size to be rejected")
	}

	badGamma := config
	badGamma.Gamma = 1.5
	if err := badGamma.Validate(); err == nil {
		t.Error("expected a discount above 1 to be rejected")
	}

	mismatched := config
	mismatched.Replay.SampleSize = 64
	if err := mismatched.Validate(); err == nil {
		t.Error("expected a replay sample size differing from the " +
			"batch size to be rejected")
	}
}

func TestConfigJSON(t *testing.T) {
	config, err := DefaultConfig()
	if err != nil {
		t.Fatalf("could not create config: %v", err)
	}

	data, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("could not marshal config: %v", err)
	}

	var decoded Config
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("could not unmarshal config: %v", err)
	}

	if decoded.BatchSize != config.BatchSize {
		t.Errorf("batch size: got %v, expected %v", decoded.BatchSize,
			config.BatchSize)
	}
	if decoded.Gamma != config.Gamma {
		t.Errorf("discount: got %v, expected %v", decoded.Gamma,
			config.Gamma)
	}
	if decoded.Solver.Type != solver.Adam {
		t.Errorf("solver type: got %v, expected %v", decoded.Solver.Type,
			solver.Adam)
	}
	if decoded.InitWFn.Type != initwfn.GlorotU {
		t.Errorf("weight init type: got %v, expected %v",
			decoded.InitWFn.Type, initwfn.GlorotU)
	}
	if err := decoded.Validate(); err != nil {
		t.Errorf("decoded config: unexpected error %v", err)
	}
}
