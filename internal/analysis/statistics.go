package analysis

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/format"
)

// Result is a computed statistic. Sortable orders questions; Printable is
// what a report shows.
type Result interface {
	Sortable() float64
	Printable() string
}

type Statistic interface {
	DisplayName() string
	Calculate(a *Analyser) Result
}

// Statistic keys in report column order.
const (
	KeyTimesUsed      = "times_used"
	KeyPercentCorrect = "percent_correct"
	KeyDiscrimination = "discrimination"
	KeyAnswers        = "answers"
)

var (
	statKeys   = []string{KeyTimesUsed, KeyPercentCorrect, KeyDiscrimination, KeyAnswers}
	statistics = map[string]Statistic{
		KeyTimesUsed:      TimesUsed{},
		KeyPercentCorrect: PercentCorrect{},
		KeyDiscrimination: Discrimination{},
		KeyAnswers:        Answers{},
	}
)

// Register adds a statistic under key, replacing any existing one.
func Register(key string, s Statistic) {
	if _, ok := statistics[key]; !ok {
		statKeys = append(statKeys, key)
	}
	statistics[key] = s
}

// Keys lists the registered statistics in column order.
func Keys() []string { return slices.Clone(statKeys) }

func Lookup(key string) (Statistic, bool) {
	s, ok := statistics[key]
	return s, ok
}

type number struct {
	v   float64
	str string
}

func (n number) Sortable() float64 { return n.v }
func (n number) Printable() string { return n.str }

type TimesUsed struct{}

func (TimesUsed) DisplayName() string { return "Times used" }
func (TimesUsed) Calculate(a *Analyser) Result {
	n := len(a.outcomes)
	return number{v: float64(n), str: fmt.Sprint(n)}
}

type PercentCorrect struct{}

func (PercentCorrect) DisplayName() string { return "Percent correct" }
func (PercentCorrect) Calculate(a *Analyser) Result {
	if len(a.outcomes) == 0 {
		return number{str: "n/a"}
	}
	correct := 0
	for _, o := range a.outcomes {
		if o.Correct {
			correct++
		}
	}
	v := float64(correct) / float64(len(a.outcomes))
	return number{v: v, str: format.Percent(v)}
}

// Discrimination compares each answer with the examinee's final ability: a
// correct answer from someone above the question's level, or a wrong one from
// someone below it, is consistent. The value is (consistent - inconsistent)
// / total, in [-1, 1].
type Discrimination struct{}

func (Discrimination) DisplayName() string { return "Discrimination" }
func (Discrimination) Calculate(a *Analyser) Result {
	if len(a.outcomes) == 0 {
		return number{str: "n/a"}
	}
	level := a.LevelLogits()
	var consistent, inconsistent int
	for _, o := range a.outcomes {
		switch {
		case o.Score.Ability == level:
		case (o.Score.Ability > level) == o.Correct:
			consistent++
		default:
			inconsistent++
		}
	}
	v := float64(consistent-inconsistent) / float64(len(a.outcomes))
	return number{v: v, str: fmt.Sprintf("%.2f", v)}
}

// AnswerRow is one examinee's line in the answers statistic.
type AnswerRow struct {
	UserID  string
	Correct bool
	Ability float64 // display scale
	StdErr  float64 // display scale
	InRange bool
}

// Answers lists every outcome, highest ability first. A result is in range
// when a correct answer's ability + SE reaches the level, or a wrong answer's
// ability - SE does not exceed it.
type Answers struct{}

func (Answers) DisplayName() string { return "Answers" }
func (Answers) Calculate(a *Analyser) Result {
	outs := a.Outcomes()
	slices.SortStableFunc(outs, func(x, y Outcome) int {
		if c := cmp.Compare(y.Score.Ability, x.Score.Ability); c != 0 {
			return c
		}
		return cmp.Compare(x.UserID, y.UserID)
	})
	level := a.LevelLogits()
	rows := make([]AnswerRow, 0, len(outs))
	for _, o := range outs {
		var in bool
		if o.Correct {
			in = o.Score.Ability+o.Score.StdErr >= level
		} else {
			in = o.Score.Ability-o.Score.StdErr <= level
		}
		d := a.scale.ToDisplay(o.Score)
		rows = append(rows, AnswerRow{UserID: o.UserID, Correct: o.Correct, Ability: d.Ability, StdErr: d.StdErr, InRange: in})
	}
	return AnswersResult{Rows: rows}
}

type AnswersResult struct {
	Rows []AnswerRow
}

func (r AnswersResult) Sortable() float64 { return float64(len(r.Rows)) }
func (r AnswersResult) Printable() string { return r.Render(format.ASCII) }

func (r AnswersResult) Render(m format.Mode) string {
	tb := format.NewTable(m)
	tb.Header("User", "Result", "Ability", "Std. error", "In range")
	for _, row := range r.Rows {
		res := "incorrect"
		if row.Correct {
			res = "correct"
		}
		tb.Row(row.UserID, res, fmt.Sprintf("%.2f", row.Ability), fmt.Sprintf("%.2f", row.StdErr), format.Mark(row.InRange))
	}
	tb.Columns(format.ColumnConfig{Number: 3, Align: format.AlignRight}, format.ColumnConfig{Number: 4, Align: format.AlignRight})
	return tb.String()
}
