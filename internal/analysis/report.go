package analysis

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/format"
)

type Report struct {
	QuizName  string
	Scale     cat.Scale
	Analysers []*Analyser // ordered by question ID
}

// Build groups every response of the given attempts by question. Questions
// that were answered but are no longer listed still get an analyser.
func Build(quizName string, scale cat.Scale, questions []QuestionInfo, attempts []AttemptResult) *Report {
	byID := map[int64]*Analyser{}
	for _, q := range questions {
		byID[q.ID] = NewAnalyser(q, scale)
	}
	for _, at := range attempts {
		for _, r := range at.Responses {
			a, ok := byID[r.ItemID]
			if !ok {
				a = NewAnalyser(QuestionInfo{ID: r.ItemID, Name: fmt.Sprintf("question %d", r.ItemID), Level: r.Level}, scale)
				byID[r.ItemID] = a
			}
			a.Add(Outcome{UserID: at.UserID, Score: at.Final, Correct: r.Correct})
		}
	}
	rep := &Report{QuizName: quizName, Scale: scale}
	for _, a := range byID {
		rep.Analysers = append(rep.Analysers, a)
	}
	slices.SortFunc(rep.Analysers, func(x, y *Analyser) int { return cmp.Compare(x.Question.ID, y.Question.ID) })
	return rep
}

// Row is the JSON form of one question's statistics.
type Row struct {
	QuestionID int64              `json:"question_id"`
	Name       string             `json:"name"`
	Level      int                `json:"level"`
	Stats      map[string]float64 `json:"stats"`
}

// Rows computes every registered statistic, sorted by sortKey. An empty key
// keeps question order; "level" and "name" sort on the question itself.
func (r *Report) Rows(sortKey string, desc bool) ([]Row, error) {
	idx, err := r.order(sortKey, desc)
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0, len(idx))
	for _, i := range idx {
		a := r.Analysers[i]
		row := Row{QuestionID: a.Question.ID, Name: a.Question.Name, Level: a.Question.Level, Stats: map[string]float64{}}
		for _, k := range statKeys {
			row.Stats[k] = statistics[k].Calculate(a).Sortable()
		}
		out = append(out, row)
	}
	return out, nil
}

// Render prints the summary table. The answers statistic shows only its count
// here; Details prints the full list for one question.
func (r *Report) Render(m format.Mode, sortKey string, desc bool) (string, error) {
	idx, err := r.order(sortKey, desc)
	if err != nil {
		return "", err
	}
	tb := format.NewTable(m)
	header := []string{"Question", "Level"}
	for _, k := range statKeys {
		header = append(header, statistics[k].DisplayName())
	}
	tb.Header(header...)
	for _, i := range idx {
		a := r.Analysers[i]
		row := []any{a.Question.Name, a.Question.Level}
		for _, k := range statKeys {
			res := statistics[k].Calculate(a)
			if k == KeyAnswers {
				row = append(row, int(res.Sortable()))
				continue
			}
			row = append(row, res.Printable())
		}
		tb.Row(row...)
	}
	tb.Columns(format.ColumnConfig{Number: 1, MaxWidth: 40})
	title := r.QuizName
	if title == "" {
		title = "Question analysis"
	}
	return title + "\n" + tb.String(), nil
}

func (r *Report) Details(questionID int64, m format.Mode) (string, error) {
	for _, a := range r.Analysers {
		if a.Question.ID != questionID {
			continue
		}
		res := Answers{}.Calculate(a).(AnswersResult)
		return fmt.Sprintf("%s (level %d)\n%s", a.Question.Name, a.Question.Level, res.Render(m)), nil
	}
	return "", fmt.Errorf("question %d not in report", questionID)
}

func (r *Report) order(sortKey string, desc bool) ([]int, error) {
	idx := make([]int, len(r.Analysers))
	for i := range idx {
		idx[i] = i
	}
	var key func(i int) float64
	switch sortKey {
	case "", "id":
		key = func(i int) float64 { return float64(r.Analysers[i].Question.ID) }
	case "level":
		key = func(i int) float64 { return float64(r.Analysers[i].Question.Level) }
	case "name":
		slices.SortStableFunc(idx, func(x, y int) int {
			c := cmp.Compare(r.Analysers[x].Question.Name, r.Analysers[y].Question.Name)
			if desc {
				c = -c
			}
			return c
		})
		return idx, nil
	default:
		st, ok := statistics[sortKey]
		if !ok {
			return nil, fmt.Errorf("unknown sort key %q", sortKey)
		}
		vals := make([]float64, len(idx))
		for i := range idx {
			vals[i] = st.Calculate(r.Analysers[i]).Sortable()
		}
		key = func(i int) float64 { return vals[i] }
	}
	slices.SortStableFunc(idx, func(x, y int) int {
		c := cmp.Compare(key(x), key(y))
		if desc {
			c = -c
		}
		return c
	})
	return idx, nil
}
