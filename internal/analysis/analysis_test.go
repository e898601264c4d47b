package analysis

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/format"
)

// Scale 1..10: centre 5.5, 1.5 display units per logit. Level 7 is 1 logit.
func level7() *Analyser {
	a := NewAnalyser(QuestionInfo{ID: 7, Name: "q7", Level: 7}, cat.NewScale(1, 10))
	a.Add(Outcome{UserID: "u1", Score: cat.Score{Ability: 2, StdErr: 0.5}, Correct: true})
	a.Add(Outcome{UserID: "u2", Score: cat.Score{Ability: 0, StdErr: 0.5}, Correct: true})
	a.Add(Outcome{UserID: "u3", Score: cat.Score{Ability: -1, StdErr: 0.3}, Correct: false})
	a.Add(Outcome{UserID: "u0", Score: cat.Score{Ability: 2, StdErr: 0.4}, Correct: false})
	return a
}

func TestStatistics(t *testing.T) {
	a := level7()
	cases := map[string]struct {
		sortable  float64
		printable string
	}{
		KeyTimesUsed:      {4, "4"},
		KeyPercentCorrect: {0.5, "50.0%"},
		KeyDiscrimination: {0, "0.00"},
	}
	for key, want := range cases {
		st, ok := Lookup(key)
		if !ok {
			t.Fatalf("statistic %q not registered", key)
		}
		res := st.Calculate(a)
		if res.Sortable() != want.sortable || res.Printable() != want.printable {
			t.Errorf("%s = (%v, %q), want (%v, %q)", key, res.Sortable(), res.Printable(), want.sortable, want.printable)
		}
	}
}

func TestEmptyAnalyser(t *testing.T) {
	a := NewAnalyser(QuestionInfo{ID: 1, Level: 3}, cat.NewScale(1, 10))
	for _, key := range []string{KeyPercentCorrect, KeyDiscrimination} {
		st, _ := Lookup(key)
		if got := st.Calculate(a).Printable(); got != "n/a" {
			t.Errorf("%s on no outcomes = %q", key, got)
		}
	}
}

func TestAnswersOrderAndRange(t *testing.T) {
	res := Answers{}.Calculate(level7()).(AnswersResult)
	want := []AnswerRow{
		{UserID: "u0", Correct: false, Ability: 8.5, StdErr: 0.6, InRange: false},
		{UserID: "u1", Correct: true, Ability: 8.5, StdErr: 0.75, InRange: true},
		{UserID: "u2", Correct: true, Ability: 5.5, StdErr: 0.75, InRange: false},
		{UserID: "u3", Correct: false, Ability: 4, StdErr: 0.45, InRange: true},
	}
	if diff := cmp.Diff(want, res.Rows, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}
	if out := res.Printable(); !strings.Contains(out, "u3") || !strings.Contains(out, "incorrect") {
		t.Errorf("printable missing rows:\n%s", out)
	}
}

func TestBuildAndRender(t *testing.T) {
	scale := cat.NewScale(1, 10)
	qs := []QuestionInfo{{ID: 2, Name: "easy", Level: 2}, {ID: 1, Name: "hard", Level: 9}, {ID: 3, Name: "unused", Level: 5}}
	attempts := []AttemptResult{
		{UserID: "a", Final: cat.Score{Ability: 1, StdErr: 0.4}, Responses: []cat.Response{
			{ItemID: 2, Level: 2, Correct: true}, {ItemID: 1, Level: 9, Correct: false}, {ItemID: 99, Level: 4, Correct: true},
		}},
		{UserID: "b", Final: cat.Score{Ability: -1, StdErr: 0.4}, Responses: []cat.Response{
			{ItemID: 2, Level: 2, Correct: true}, {ItemID: 1, Level: 9, Correct: true},
		}},
	}
	rep := Build("Algebra", scale, qs, attempts)

	var ids []int64
	for _, a := range rep.Analysers {
		ids = append(ids, a.Question.ID)
	}
	if diff := cmp.Diff([]int64{1, 2, 3, 99}, ids); diff != "" {
		t.Fatalf("analysers mismatch (-want +got):\n%s", diff)
	}

	rows, err := rep.Rows(KeyPercentCorrect, true)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	var order []int64
	for _, r := range rows {
		order = append(order, r.QuestionID)
	}
	// 2 and 99 are both 100%; stable sort keeps ID order.
	if diff := cmp.Diff([]int64{2, 99, 1, 3}, order); diff != "" {
		t.Errorf("sort order mismatch (-want +got):\n%s", diff)
	}
	if rows[0].Stats[KeyTimesUsed] != 2 {
		t.Errorf("times used for q2 = %v", rows[0].Stats[KeyTimesUsed])
	}

	out, err := rep.Render(format.Markdown, "level", false)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, w := range []string{"Algebra", "| Question", "Percent correct", "question 99"} {
		if !strings.Contains(out, w) {
			t.Errorf("render missing %q:\n%s", w, out)
		}
	}
	if _, err := rep.Render(format.ASCII, "bogus", false); err == nil {
		t.Error("expected error for unknown sort key")
	}

	det, err := rep.Details(1, format.ASCII)
	if err != nil || !strings.Contains(det, "hard (level 9)") {
		t.Errorf("Details = %q, %v", det, err)
	}
	if _, err := rep.Details(42, format.ASCII); err == nil {
		t.Error("expected error for unknown question")
	}
}
