package grading

import (
	"context"
	"errors"
	"testing"
)

func TestCorrect(t *testing.T) {
	g := NewDefaultGrader()
	ctx := context.Background()
	tests := []struct {
		name string
		q    Q
		resp interface{}
		want bool
	}{
		{"mcq right", Q{Type: "mcq_single", Points: 1, AnswerKey: []string{"b"}}, "b", true},
		{"mcq wrong", Q{Type: "mcq_single", Points: 1, AnswerKey: []string{"b"}}, "c", false},
		{"true_false", Q{Type: "true_false", Points: 1, AnswerKey: []string{"true"}}, "true", true},
		{"multi exact", Q{Type: "mcq_multi", Points: 2, AnswerKey: []string{"a", "c"}}, []interface{}{"c", "a"}, true},
		{"multi partial is wrong", Q{Type: "mcq_multi", Points: 2, AnswerKey: []string{"a", "c"}}, []string{"a"}, false},
		{"short word normalized", Q{Type: "short_word", Points: 1, AnswerKey: []string{"Photosynthesis"}}, " photosynthesis. ", true},
		{"short word fuzzy is wrong", Q{Type: "short_word", Points: 1, AnswerKey: []string{"photosynthesis"}}, "photosynthesys", false},
		{"numeric tolerance", Q{Type: "numeric", Points: 1, AnswerKey: []string{"3.14159", "tol=0.01"}}, "3.14", true},
		{"numeric miss", Q{Type: "numeric", Points: 1, AnswerKey: []string{"100", "reltol=0.05"}}, "94", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _, err := Correct(ctx, g, tc.q, tc.resp)
			if err != nil {
				t.Fatalf("Correct: %v", err)
			}
			if got != tc.want {
				t.Errorf("Correct = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCorrect_Errors(t *testing.T) {
	g := NewDefaultGrader()
	ctx := context.Background()
	if _, _, err := Correct(ctx, g, Q{Type: "essay", Points: 5}, "text"); !errors.Is(err, ErrNotAutoGradable) {
		t.Errorf("essay: got %v", err)
	}
	if _, _, err := Correct(ctx, g, Q{Type: "matching", Points: 1}, "x"); !errors.Is(err, ErrNotAutoGradable) {
		t.Errorf("unknown type: got %v", err)
	}
	if _, _, err := Correct(ctx, g, Q{Type: "mcq_single", Points: 1, AnswerKey: []string{"a"}}, 42); err == nil {
		t.Error("expected type error for non-string response")
	}
}

func TestTypoTolerance(t *testing.T) {
	g := NewDefaultGrader(WithTypoTolerance(1))
	q := Q{Type: "short_word", Points: 1, AnswerKey: []string{"photosynthesis"}}
	ok, res, err := Correct(context.Background(), g, q, "Photosynthesys")
	if err != nil || !ok {
		t.Fatalf("one typo: ok=%v err=%v", ok, err)
	}
	if len(res.Feedback) == 0 {
		t.Error("expected typo feedback")
	}
	if ok, _, _ := Correct(context.Background(), g, q, "fotosynthesys"); ok {
		t.Error("two typos accepted")
	}
	if ok, _, _ := Correct(context.Background(), g, q, "  ...  "); ok {
		t.Error("empty answer accepted")
	}
}

func TestNumeric(t *testing.T) {
	g := NewDefaultGrader()
	ctx := context.Background()
	q := Q{Type: "numeric", Points: 1, AnswerKey: []string{"9.81", "tol=0.05"}}
	for resp, want := range map[any]bool{
		9.8:        true,
		"9.79 m/s": true,
		"9.7":      false,
		"about 10": false,
	} {
		got, _, err := Correct(ctx, g, q, resp)
		if err != nil {
			t.Fatalf("%v: %v", resp, err)
		}
		if got != want {
			t.Errorf("%v: got %v, want %v", resp, got, want)
		}
	}
	if _, _, err := Correct(ctx, g, Q{Type: "numeric", Points: 1, AnswerKey: []string{"x"}}, "1"); err == nil {
		t.Error("expected error for non-numeric key")
	}
}

func TestTextHelpers(t *testing.T) {
	if got := normalize("  Hello,   World! "); got != "hello world" {
		t.Errorf("normalize = %q", got)
	}
	for _, c := range []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	} {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
