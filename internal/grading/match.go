package grading

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// numericStrategy compares numbers. The first key is the target; later keys
// may widen the match:
//
//	["3.14159", "tol=0.01"]  absolute tolerance
//	["100", "reltol=0.05"]   relative tolerance
type numericStrategy struct{}

func (numericStrategy) Grade(_ context.Context, q Q, response any) (Result, error) {
	var got float64
	switch v := response.(type) {
	case float64:
		got = v
	case string:
		f, ok := parseNumber(v)
		if !ok {
			return award(q, false), nil
		}
		got = f
	default:
		return Result{MaxPoints: q.Points}, errors.New("response must be a number or string")
	}
	if len(q.AnswerKey) == 0 {
		return award(q, false), nil
	}
	want, ok := parseNumber(q.AnswerKey[0])
	if !ok {
		return Result{MaxPoints: q.Points}, errors.New("answer key is not a number")
	}
	abs, rel := tolerances(q.AnswerKey[1:])
	diff := math.Abs(got - want)
	return award(q, diff <= abs || diff <= rel*math.Abs(want)), nil
}

// parseNumber accepts a bare number or a number followed by a unit.
func parseNumber(s string) (float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	return v, err == nil
}

func tolerances(keys []string) (abs, rel float64) {
	for _, k := range keys {
		name, val, ok := strings.Cut(strings.ToLower(strings.TrimSpace(k)), "=")
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil || v < 0 {
			continue
		}
		switch name {
		case "tol":
			abs = v
		case "reltol":
			rel = v
		}
	}
	return abs, rel
}

// normalize lower-cases s, drops punctuation and collapses whitespace.
func normalize(s string) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return strings.Join(strings.Fields(clean), " ")
}

// levenshtein is the unit-cost edit distance between a and b.
func levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	row := make([]int, len(br)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			next := min(row[j]+1, row[j-1]+1, diag+cost)
			diag = row[j]
			row[j] = next
		}
	}
	return row[len(br)]
}
