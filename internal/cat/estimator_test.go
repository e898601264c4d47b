package cat

import (
	"errors"
	"math/rand"
	"testing"
)

var models = []Model{ModelBayes, ModelFisher}

func TestEstimator_StdErrNeverIncreases(t *testing.T) {
	for _, m := range models {
		t.Run(string(m), func(t *testing.T) {
			cfg := scenarioConfig()
			cfg.Model = m
			est, err := NewEstimator(cfg)
			if err != nil {
				t.Fatal(err)
			}
			rng := rand.New(rand.NewSource(42))
			for seq := 0; seq < 60; seq++ {
				length := 1 + rng.Intn(40)
				score := cfg.InitialScore()
				for i := 0; i < length; i++ {
					item := Item{ID: int64(i + 1), Level: 1 + rng.Intn(10)}
					correct := rng.Intn(2) == 1
					next, err := est.Update(score, item, correct)
					if err != nil {
						t.Fatalf("seq %d step %d: %v", seq, i, err)
					}
					if next.StdErr > score.StdErr {
						t.Fatalf("seq %d step %d: std err grew %v -> %v", seq, i, score.StdErr, next.StdErr)
					}
					if correct && next.Ability < score.Ability {
						t.Fatalf("seq %d step %d: correct answer lowered ability %v -> %v", seq, i, score.Ability, next.Ability)
					}
					if !correct && next.Ability > score.Ability {
						t.Fatalf("seq %d step %d: incorrect answer raised ability %v -> %v", seq, i, score.Ability, next.Ability)
					}
					score = next
				}
			}
		})
	}
}

func TestEstimator_InformativeResponseShrinksStdErr(t *testing.T) {
	for _, m := range models {
		t.Run(string(m), func(t *testing.T) {
			cfg := scenarioConfig()
			cfg.Model = m
			est, _ := NewEstimator(cfg)
			start := cfg.InitialScore()
			item := Item{ID: 1, Level: cfg.StartingLevel}

			up, err := est.Update(start, item, true)
			if err != nil {
				t.Fatal(err)
			}
			if !(up.StdErr < start.StdErr) || !(up.Ability > start.Ability) {
				t.Errorf("correct at ability: %+v -> %+v", start, up)
			}
			down, _ := est.Update(start, item, false)
			if !(down.StdErr < start.StdErr) || !(down.Ability < start.Ability) {
				t.Errorf("incorrect at ability: %+v -> %+v", start, down)
			}
		})
	}
}

func TestEstimator_DoesNotMutateInput(t *testing.T) {
	cfg := scenarioConfig()
	est, _ := NewEstimator(cfg)
	in := cfg.InitialScore()
	before := in
	if _, err := est.Update(in, Item{ID: 1, Level: 7}, true); err != nil {
		t.Fatal(err)
	}
	if in != before {
		t.Errorf("input changed: %+v -> %+v", before, in)
	}
}

func TestEstimator_RejectsOutOfBoundsItem(t *testing.T) {
	for _, m := range models {
		cfg := scenarioConfig()
		cfg.Model = m
		est, _ := NewEstimator(cfg)
		for _, lvl := range []int{0, 11, -3} {
			_, err := est.Update(cfg.InitialScore(), Item{ID: 9, Level: lvl}, true)
			if !errors.Is(err, ErrInvalidItem) {
				t.Errorf("%s level %d: got %v, want ErrInvalidItem", m, lvl, err)
			}
			var ie *InvalidItemError
			if !errors.As(err, &ie) || ie.ItemID != 9 {
				t.Errorf("%s level %d: want *InvalidItemError for item 9, got %v", m, lvl, err)
			}
		}
	}
}

func TestEstimator_AbilityStaysBounded(t *testing.T) {
	for _, m := range models {
		cfg := scenarioConfig()
		cfg.Model = m
		est, _ := NewEstimator(cfg)
		s := cfg.InitialScore()
		for i := 0; i < 200; i++ {
			s, _ = est.Update(s, Item{ID: int64(i), Level: 10}, true)
		}
		if s.Ability > 2*LogitHalfRange {
			t.Errorf("%s: ability %v above bound", m, s.Ability)
		}
	}
}

func TestNewEstimator_UnknownModel(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Model = "helloworld"
	if _, err := NewEstimator(cfg); !errors.Is(err, ErrConfiguration) {
		t.Errorf("got %v, want ErrConfiguration", err)
	}
}
