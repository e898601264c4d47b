// Package pool turns stored questions into engine item pools.
package pool

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/quiz"
)

// FromQuestions builds a pool from questions. A question without a level is
// an error.
func FromQuestions(qs []quiz.Question) (*cat.Pool, error) {
	items := make([]cat.Item, 0, len(qs))
	for _, q := range qs {
		lvl, ok := q.EffectiveLevel()
		if !ok {
			return nil, &cat.InvalidItemError{ItemID: q.ID, Reason: "no level or adpq_ tag"}
		}
		items = append(items, cat.Item{ID: q.ID, Level: lvl, Category: q.Category})
	}
	return cat.NewPool(items)
}

// StoreProvider builds pools from a quiz store.
type StoreProvider struct {
	Store quiz.Store
}

func (p StoreProvider) Pool(ctx context.Context, categories []string) (*cat.Pool, error) {
	qs, err := p.Store.ListQuestions(ctx, categories)
	if err != nil {
		return nil, err
	}
	return FromQuestions(qs)
}

var _ quiz.PoolProvider = StoreProvider{}

// File is the YAML pool format used by the simulator and bulk import.
//
//	quiz:
//	  startinglevel: 5
//	questions:
//	  - id: 101
//	    category: algebra
//	    type: mcq_single
//	    tags: [adpq_1]
type File struct {
	Quiz      yaml.Node  `yaml:"quiz,omitempty"`
	Questions []Question `yaml:"questions"`
}

type Question struct {
	ID             int64    `yaml:"id"`
	Category       string   `yaml:"category"`
	Type           string   `yaml:"type"`
	Prompt         string   `yaml:"prompt"`
	Choices        []string `yaml:"choices"`
	Answer         []string `yaml:"answer"`
	Points         float64  `yaml:"points"`
	Level          int      `yaml:"level"`
	Tags           []string `yaml:"tags"`
	Discrimination float64  `yaml:"discrimination"`
}

// Load reads a pool file.
func Load(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return Parse(b)
}

func Parse(b []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return File{}, fmt.Errorf("pool file: %w", err)
	}
	return f, nil
}

// HasQuiz reports whether the file carries a quiz section.
func (f File) HasQuiz() bool { return !f.Quiz.IsZero() }

// Settings overlays the file's quiz section on base. Keys the section leaves
// out keep their base values.
func (f File) Settings(base cat.Config) (cat.Config, error) {
	if !f.HasQuiz() {
		return base, nil
	}
	cfg := base
	if err := f.Quiz.Decode(&cfg); err != nil {
		return cat.Config{}, fmt.Errorf("pool file quiz section: %w", err)
	}
	return cfg, nil
}

// QuizQuestions converts the file entries to stored questions.
func (f File) QuizQuestions() []quiz.Question {
	out := make([]quiz.Question, 0, len(f.Questions))
	for _, q := range f.Questions {
		qq := quiz.Question{
			ID:         q.ID,
			Category:   q.Category,
			Type:       q.Type,
			PromptHTML: q.Prompt,
			AnswerKey:  q.Answer,
			Points:     q.Points,
			Level:      q.Level,
			Tags:       q.Tags,
		}
		if qq.Points == 0 {
			qq.Points = 1
		}
		for i, c := range q.Choices {
			qq.Choices = append(qq.Choices, quiz.Choice{ID: string(rune('A' + i)), LabelHTML: c})
		}
		out = append(out, qq)
	}
	return out
}

// Pool builds the engine pool, keeping per-item discrimination.
func (f File) Pool() (*cat.Pool, error) {
	qs := f.QuizQuestions()
	items := make([]cat.Item, 0, len(qs))
	for i, q := range qs {
		lvl, ok := q.EffectiveLevel()
		if !ok {
			return nil, &cat.InvalidItemError{ItemID: q.ID, Reason: "no level or adpq_ tag"}
		}
		items = append(items, cat.Item{
			ID:             q.ID,
			Level:          lvl,
			Category:       q.Category,
			Discrimination: f.Questions[i].Discrimination,
		})
	}
	return cat.NewPool(items)
}

// Levels counts items per level.
func Levels(p *cat.Pool) map[int]int {
	out := map[int]int{}
	for _, it := range p.Items() {
		out[it.Level]++
	}
	return out
}
