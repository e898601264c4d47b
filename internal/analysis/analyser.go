// Package analysis reports how each question behaved across completed
// attempts of a quiz.
package analysis

import (
	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
)

type QuestionInfo struct {
	ID    int64
	Name  string
	Level int
}

// AttemptResult is a completed attempt reduced to what analysis needs.
type AttemptResult struct {
	UserID    string
	Final     cat.Score
	Responses []cat.Response
}

// Outcome is one examinee's answer to a question, paired with the
// examinee's final score for the attempt.
type Outcome struct {
	UserID  string
	Score   cat.Score
	Correct bool
}

// Analyser collects the outcomes for a single question.
type Analyser struct {
	Question QuestionInfo
	scale    cat.Scale
	outcomes []Outcome
}

func NewAnalyser(q QuestionInfo, scale cat.Scale) *Analyser {
	return &Analyser{Question: q, scale: scale}
}

func (a *Analyser) Add(o Outcome) { a.outcomes = append(a.outcomes, o) }

func (a *Analyser) Outcomes() []Outcome {
	out := make([]Outcome, len(a.outcomes))
	copy(out, a.outcomes)
	return out
}

func (a *Analyser) Scale() cat.Scale { return a.scale }

// LevelLogits is the question's difficulty on the logit scale.
func (a *Analyser) LevelLogits() float64 {
	return a.scale.LevelToLogit(float64(a.Question.Level))
}
