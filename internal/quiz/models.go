package quiz

import (
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
)

type Choice struct {
	ID        string `json:"id,omitempty"`
	LabelHTML string `json:"label_html,omitempty"`
}

type Question struct {
	ID         int64    `json:"id"`
	Category   string   `json:"category"`
	Type       string   `json:"type"` // mcq_single, mcq_multi, true_false, short_word, numeric
	PromptHTML string   `json:"prompt_html,omitempty"`
	Choices    []Choice `json:"choices,omitempty"`
	AnswerKey  []string `json:"answer_key,omitempty"`
	Points     float64  `json:"points"`
	// Level is the difficulty on the quiz's display scale. When zero it is
	// taken from an "adpq_<n>" tag.
	Level int      `json:"level"`
	Tags  []string `json:"tags,omitempty"`
}

// StudentView strips the answer key.
func (q Question) StudentView() Question {
	q.AnswerKey = nil
	return q
}

type Quiz struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Categories      []string    `json:"categories"`
	Config          cat.Config  `json:"config"`
	AttemptsAllowed int         `json:"attempts_allowed"` // 0 = unlimited
	GradeMethod     GradeMethod `json:"grade_method,omitempty"`
	ShowAbility     bool        `json:"show_ability"`
	ShowProgress    bool        `json:"show_progress,omitempty"`
	FeedbackHTML    string      `json:"feedback_html,omitempty"` // shown once an attempt completes
	CreatedAt       int64       `json:"created_at,omitempty"`
}

// GradeMethod picks which completed attempts make up a user's grade.
type GradeMethod string

const (
	GradeHighest GradeMethod = "highest"
	GradeAverage GradeMethod = "average"
	GradeFirst   GradeMethod = "first"
	GradeLast    GradeMethod = "last"
)

func (m GradeMethod) valid() bool {
	switch m {
	case GradeHighest, GradeAverage, GradeFirst, GradeLast:
		return true
	}
	return false
}

// Grade is a user's ability for a quiz on the display scale, aggregated over
// completed attempts.
type Grade struct {
	QuizID   string      `json:"quiz_id"`
	UserID   string      `json:"user_id"`
	Method   GradeMethod `json:"method"`
	Ability  float64     `json:"ability"`
	Attempts int         `json:"attempts"`
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Attempt is the persisted form of one adaptive attempt. Pool is frozen at
// start so the attempt never sees questions added or edited later.
type Attempt struct {
	ID         string       `json:"id"`
	QuizID     string       `json:"quiz_id"`
	UserID     string       `json:"user_id"`
	Status     Status       `json:"status"`
	Snapshot   cat.Snapshot `json:"snapshot"`
	Pool       []cat.Item   `json:"pool"`
	StartedAt  int64        `json:"started_at"`
	FinishedAt int64        `json:"finished_at,omitempty"`
}

// AttemptView is what the examinee sees after each step.
type AttemptView struct {
	ID         string            `json:"id"`
	QuizID     string            `json:"quiz_id"`
	UserID     string            `json:"user_id"`
	Status     Status            `json:"status"`
	Answered   int               `json:"answered"`
	Next       *Question         `json:"next,omitempty"`
	Ability    *cat.DisplayScore `json:"ability,omitempty"`
	StopReason cat.StopReason    `json:"stop_reason,omitempty"`
	// MaxQuestions is set when the quiz shows attempt progress.
	MaxQuestions int    `json:"max_questions,omitempty"`
	FeedbackHTML string `json:"feedback_html,omitempty"`
}

type AttemptListOpts struct {
	QuizID string
	UserID string
	Status Status
	Limit  int
	Offset int
}

// EffectiveLevel returns Level, or the level named by an "adpq_<n>" tag when
// Level is unset. The second result is false when neither is present.
func (q Question) EffectiveLevel() (int, bool) {
	if q.Level != 0 {
		return q.Level, true
	}
	for _, t := range q.Tags {
		rest, ok := strings.CutPrefix(strings.ToLower(strings.TrimSpace(t)), levelTagPrefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

const levelTagPrefix = "adpq_"
