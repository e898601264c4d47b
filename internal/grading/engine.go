// Package grading scores raw responses. The adaptive engine only consumes a
// right/wrong signal, so every strategy awards either full or zero points.
package grading

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotAutoGradable = errors.New("grading: question type needs manual grading")

// Q is the part of a question needed for grading.
type Q struct {
	Type      string
	Points    float64
	AnswerKey []string
}

type Result struct {
	AutoPoints  float64
	MaxPoints   float64
	NeedsManual bool
	Feedback    []string
}

// Strategy grades one question type.
type Strategy interface {
	Grade(ctx context.Context, q Q, response any) (Result, error)
}

// Grader routes by question type.
type Grader interface {
	Grade(ctx context.Context, q Q, response any) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, response any) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{MaxPoints: q.Points, NeedsManual: true, Feedback: []string{"no strategy for " + q.Type}}, nil
	}
	return s.Grade(ctx, q, response)
}

type Option func(*config)

type config struct {
	maxEdit int
}

// WithTypoTolerance accepts short-word answers within n edits of a key.
func WithTypoTolerance(n int) Option { return func(c *config) { c.maxEdit = n } }

func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[string]Strategy{
			"mcq_single": choiceStrategy{},
			"true_false": choiceStrategy{},
			"mcq_multi":  multiChoiceStrategy{},
			"short_word": shortWordStrategy{maxEdit: cfg.maxEdit},
			"numeric":    numericStrategy{},
			"essay":      manualStrategy{},
		},
	}
}

// Correct grades a response down to the signal the ability estimator needs:
// only full marks count as correct.
func Correct(ctx context.Context, g Grader, q Q, response any) (bool, Result, error) {
	res, err := g.Grade(ctx, q, response)
	if err != nil {
		return false, res, fmt.Errorf("grade %s: %w", q.Type, err)
	}
	if res.NeedsManual {
		return false, res, fmt.Errorf("%w: %s", ErrNotAutoGradable, q.Type)
	}
	return res.MaxPoints > 0 && res.AutoPoints >= res.MaxPoints, res, nil
}

func award(q Q, ok bool) Result {
	res := Result{MaxPoints: q.Points}
	if ok {
		res.AutoPoints = q.Points
	}
	return res
}

type choiceStrategy struct{}

func (choiceStrategy) Grade(_ context.Context, q Q, response any) (Result, error) {
	resp, ok := response.(string)
	if !ok {
		return Result{MaxPoints: q.Points}, errors.New("response must be a string")
	}
	for _, k := range q.AnswerKey {
		if resp == k {
			return award(q, true), nil
		}
	}
	return award(q, false), nil
}

// multiChoiceStrategy requires exactly the keyed set, in any order.
type multiChoiceStrategy struct{}

func (multiChoiceStrategy) Grade(_ context.Context, q Q, response any) (Result, error) {
	resp, ok := toStringSlice(response)
	if !ok {
		return Result{MaxPoints: q.Points}, errors.New("response must be a list of strings")
	}
	want := toSet(q.AnswerKey)
	got := toSet(resp)
	if len(want) != len(got) {
		return award(q, false), nil
	}
	for k := range want {
		if _, ok := got[k]; !ok {
			return award(q, false), nil
		}
	}
	return award(q, len(want) > 0), nil
}

type shortWordStrategy struct{ maxEdit int }

func (s shortWordStrategy) Grade(_ context.Context, q Q, response any) (Result, error) {
	resp, ok := response.(string)
	if !ok {
		return Result{MaxPoints: q.Points}, errors.New("response must be a string")
	}
	norm := normalize(resp)
	if norm == "" {
		return award(q, false), nil
	}
	for _, k := range q.AnswerKey {
		nk := normalize(k)
		if nk == norm {
			return award(q, true), nil
		}
		if s.maxEdit > 0 && levenshtein(nk, norm) <= s.maxEdit {
			res := award(q, true)
			res.Feedback = append(res.Feedback, "accepted with a typo")
			return res, nil
		}
	}
	return award(q, false), nil
}

type manualStrategy struct{}

func (manualStrategy) Grade(_ context.Context, q Q, _ any) (Result, error) {
	return Result{MaxPoints: q.Points, NeedsManual: true, Feedback: []string{"manual grading required"}}, nil
}

func toStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}
