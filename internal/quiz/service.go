package quiz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/analysis"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/grading"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/logger"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrAttemptLimit = errors.New("no attempts left for this quiz")
	ErrBadResponse  = errors.New("response cannot be graded")
)

// PoolProvider builds the engine pool for a set of question categories.
type PoolProvider interface {
	Pool(ctx context.Context, categories []string) (*cat.Pool, error)
}

// AttemptCache is an optional read-through cache in front of the store.
type AttemptCache interface {
	Get(ctx context.Context, id string) (Attempt, bool)
	Put(ctx context.Context, a Attempt)
}

type Service struct {
	store  Store
	pools  PoolProvider
	grader grading.Grader
	events EventSink
	cache  AttemptCache
	log    *logger.Logger
	now    func() time.Time
	newID  func() string

	locks keyedLocks // attempt ids and quiz/user start keys
}

type ServiceOption func(*Service)

func WithGrader(g grading.Grader) ServiceOption    { return func(s *Service) { s.grader = g } }
func WithEvents(e EventSink) ServiceOption         { return func(s *Service) { s.events = e } }
func WithCache(c AttemptCache) ServiceOption       { return func(s *Service) { s.cache = c } }
func WithLogger(l *logger.Logger) ServiceOption    { return func(s *Service) { s.log = l } }
func WithClock(now func() time.Time) ServiceOption { return func(s *Service) { s.now = now } }
func WithIDs(newID func() string) ServiceOption    { return func(s *Service) { s.newID = newID } }

func NewService(store Store, pools PoolProvider, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		pools:  pools,
		grader: grading.NewDefaultGrader(),
		log:    logger.Nop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateQuiz validates the adaptive settings and refuses a quiz whose pool
// has no question at the starting level.
func (s *Service) CreateQuiz(ctx context.Context, q Quiz) (Quiz, error) {
	if q.ID == "" {
		q.ID = s.newID()
	}
	q.Config = q.Config.WithDefaults()
	if err := q.Config.Validate(); err != nil {
		return Quiz{}, err
	}
	if len(q.Categories) == 0 {
		return Quiz{}, &cat.ConfigError{Fields: map[string]string{"questionpool": "select at least one question category"}}
	}
	pool, err := s.pools.Pool(ctx, q.Categories)
	if err != nil {
		return Quiz{}, err
	}
	if pool.CountAtLevel(q.Config.StartingLevel) == 0 {
		return Quiz{}, &cat.ConfigError{Fields: map[string]string{
			"questionpool": fmt.Sprintf("no question at starting level %d", q.Config.StartingLevel),
		}}
	}
	if q.AttemptsAllowed < 0 {
		return Quiz{}, &cat.ConfigError{Fields: map[string]string{"attempts": "must be zero (unlimited) or positive"}}
	}
	if q.GradeMethod == "" {
		q.GradeMethod = GradeHighest
	}
	if !q.GradeMethod.valid() {
		return Quiz{}, &cat.ConfigError{Fields: map[string]string{"grademethod": "must be highest, average, first or last"}}
	}
	q.CreatedAt = s.now().Unix()
	if err := s.store.PutQuiz(ctx, q); err != nil {
		return Quiz{}, err
	}
	s.log.Info("quiz created", "quiz_id", q.ID, "questions", pool.Len())
	return q, nil
}

func (s *Service) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	return s.store.GetQuiz(ctx, id)
}

// PutQuestions stores questions after resolving their level.
func (s *Service) PutQuestions(ctx context.Context, qs []Question) error {
	for i, q := range qs {
		lvl, ok := q.EffectiveLevel()
		if !ok {
			return fmt.Errorf("%w: question %d has no level", cat.ErrInvalidItem, q.ID)
		}
		if q.Category == "" {
			return fmt.Errorf("%w: question %d has no category", cat.ErrInvalidItem, q.ID)
		}
		qs[i].Level = lvl
	}
	return s.store.PutQuestions(ctx, qs)
}

func (s *Service) StartAttempt(ctx context.Context, quizID, userID string) (AttemptView, error) {
	qz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return AttemptView{}, err
	}
	if qz.AttemptsAllowed > 0 {
		unlock := s.locks.lock("start:" + quizID + "/" + userID)
		defer unlock()
		n, err := s.store.CountAttempts(ctx, quizID, userID)
		if err != nil {
			return AttemptView{}, err
		}
		if n >= qz.AttemptsAllowed {
			return AttemptView{}, ErrAttemptLimit
		}
	}
	pool, err := s.pools.Pool(ctx, qz.Categories)
	if err != nil {
		return AttemptView{}, err
	}

	id := s.newID()
	rec := &eventRecorder{quizID: quizID, userID: userID}
	sess, err := cat.NewSession(id, qz.Config, pool, cat.WithHook(rec), cat.WithClock(s.now))
	if err != nil {
		return AttemptView{}, err
	}
	if _, err := sess.Start(); err != nil {
		return AttemptView{}, err
	}

	a := Attempt{
		ID:        id,
		QuizID:    quizID,
		UserID:    userID,
		Status:    StatusInProgress,
		Snapshot:  sess.Snapshot(),
		Pool:      pool.Items(),
		StartedAt: s.now().Unix(),
	}
	if err := s.store.CreateAttempt(ctx, a); err != nil {
		return AttemptView{}, err
	}
	s.remember(ctx, a)
	s.publish(ctx, rec)
	s.log.Info("attempt started", "attempt_id", id, "quiz_id", quizID, "user_id", userID)
	return s.view(ctx, qz, a, sess)
}

// Answer grades a raw response to the attempt's current question and records
// the outcome.
func (s *Service) Answer(ctx context.Context, attemptID, userID string, questionID int64, response any) (AttemptView, error) {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AttemptView{}, fmt.Errorf("%w: question %d", cat.ErrInvalidItem, questionID)
		}
		return AttemptView{}, err
	}
	correct, _, err := grading.Correct(ctx, s.grader, grading.Q{Type: q.Type, Points: q.Points, AnswerKey: q.AnswerKey}, response)
	if err != nil {
		return AttemptView{}, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return s.RecordResult(ctx, attemptID, userID, questionID, correct)
}

// RecordResult records an already graded response to the attempt's current
// question. An empty userID skips the ownership check.
func (s *Service) RecordResult(ctx context.Context, attemptID, userID string, questionID int64, correct bool) (AttemptView, error) {
	unlock := s.locks.lock(attemptID)
	defer unlock()

	a, err := s.loadAttempt(ctx, attemptID)
	if err != nil {
		return AttemptView{}, err
	}
	if userID != "" && a.UserID != userID {
		return AttemptView{}, ErrForbidden
	}
	if a.Status == StatusCompleted {
		return AttemptView{}, cat.ErrSessionClosed
	}
	qz, err := s.store.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return AttemptView{}, err
	}
	pool, err := cat.NewPool(a.Pool)
	if err != nil {
		return AttemptView{}, err
	}
	rec := &eventRecorder{quizID: a.QuizID, userID: a.UserID}
	sess, err := cat.Restore(a.Snapshot, pool, cat.WithHook(rec), cat.WithClock(s.now))
	if err != nil {
		return AttemptView{}, err
	}
	if next := sess.Next(); next == nil || next.ID != questionID {
		return AttemptView{}, &cat.InvalidItemError{ItemID: questionID, Reason: "not the current question"}
	}
	if _, err := sess.RecordResponse(questionID, correct); err != nil {
		return AttemptView{}, err
	}

	a.Snapshot = sess.Snapshot()
	if sess.State() == cat.StateCompleted {
		a.Status = StatusCompleted
		a.FinishedAt = s.now().Unix()
	}
	if err := s.store.SaveAttempt(ctx, a); err != nil {
		return AttemptView{}, err
	}
	s.remember(ctx, a)
	s.publish(ctx, rec)
	if a.Status == StatusCompleted {
		d := sess.DisplayScore()
		s.log.Info("attempt completed", "attempt_id", a.ID, "reason", sess.StopReason(),
			"answered", len(a.Snapshot.Responses), "ability", d.Ability, "stderr", d.StdErr)
	}
	return s.view(ctx, qz, a, sess)
}

func (s *Service) GetAttempt(ctx context.Context, attemptID string) (AttemptView, error) {
	a, err := s.loadAttempt(ctx, attemptID)
	if err != nil {
		return AttemptView{}, err
	}
	qz, err := s.store.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return AttemptView{}, err
	}
	pool, err := cat.NewPool(a.Pool)
	if err != nil {
		return AttemptView{}, err
	}
	sess, err := cat.Restore(a.Snapshot, pool, cat.WithClock(s.now))
	if err != nil {
		return AttemptView{}, err
	}
	return s.view(ctx, qz, a, sess)
}

// AttemptOwner returns the user an attempt belongs to.
func (s *Service) AttemptOwner(ctx context.Context, attemptID string) (string, error) {
	a, err := s.loadAttempt(ctx, attemptID)
	if err != nil {
		return "", err
	}
	return a.UserID, nil
}

func (s *Service) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	return s.store.ListAttempts(ctx, opts)
}

// Grade aggregates the user's completed attempts with the quiz's grade method.
// A user without a completed attempt gets ErrNotFound.
func (s *Service) Grade(ctx context.Context, quizID, userID string) (Grade, error) {
	qz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return Grade{}, err
	}
	attempts, err := s.store.ListAttempts(ctx, AttemptListOpts{QuizID: quizID, UserID: userID, Status: StatusCompleted})
	if err != nil {
		return Grade{}, err
	}
	if len(attempts) == 0 {
		return Grade{}, fmt.Errorf("%w: no completed attempt for %s", ErrNotFound, userID)
	}
	method := qz.GradeMethod
	if method == "" {
		method = GradeHighest
	}
	scale := qz.Config.Scale()
	sort.SliceStable(attempts, func(i, j int) bool {
		if attempts[i].StartedAt != attempts[j].StartedAt {
			return attempts[i].StartedAt < attempts[j].StartedAt
		}
		return attempts[i].FinishedAt < attempts[j].FinishedAt
	})
	abilities := make([]float64, len(attempts))
	for i, a := range attempts {
		abilities[i] = scale.ToDisplay(a.Snapshot.Score).Ability
	}
	g := Grade{QuizID: quizID, UserID: userID, Method: method, Attempts: len(attempts)}
	switch method {
	case GradeFirst:
		g.Ability = abilities[0]
	case GradeLast:
		g.Ability = abilities[len(abilities)-1]
	case GradeAverage:
		var sum float64
		for _, v := range abilities {
			sum += v
		}
		g.Ability = sum / float64(len(abilities))
	default:
		g.Ability = abilities[0]
		for _, v := range abilities[1:] {
			g.Ability = max(g.Ability, v)
		}
	}
	return g, nil
}

// Analysis builds the per-question report from the quiz's completed attempts.
func (s *Service) Analysis(ctx context.Context, quizID string) (*analysis.Report, error) {
	qz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.store.ListAttempts(ctx, AttemptListOpts{QuizID: quizID, Status: StatusCompleted})
	if err != nil {
		return nil, err
	}
	questions, err := s.store.ListQuestions(ctx, qz.Categories)
	if err != nil {
		return nil, err
	}
	infos := make([]analysis.QuestionInfo, 0, len(questions))
	for _, q := range questions {
		infos = append(infos, analysis.QuestionInfo{ID: q.ID, Name: questionName(q), Level: q.Level})
	}
	results := make([]analysis.AttemptResult, 0, len(attempts))
	for _, a := range attempts {
		results = append(results, analysis.AttemptResult{
			UserID:    a.UserID,
			Final:     a.Snapshot.Score,
			Responses: a.Snapshot.Responses,
		})
	}
	return analysis.Build(qz.Name, qz.Config.Scale(), infos, results), nil
}

func questionName(q Question) string {
	const limit = 40
	name := q.PromptHTML
	if r := []rune(name); len(r) > limit {
		name = string(r[:limit]) + "..."
	}
	if name == "" {
		name = fmt.Sprintf("question %d", q.ID)
	}
	return name
}

func (s *Service) view(ctx context.Context, qz Quiz, a Attempt, sess *cat.Session) (AttemptView, error) {
	v := AttemptView{
		ID:         a.ID,
		QuizID:     a.QuizID,
		UserID:     a.UserID,
		Status:     a.Status,
		Answered:   len(a.Snapshot.Responses),
		StopReason: sess.StopReason(),
	}
	if qz.ShowAbility || a.Status == StatusCompleted {
		d := sess.DisplayScore()
		v.Ability = &d
	}
	if qz.ShowProgress {
		v.MaxQuestions = qz.Config.MaxQuestions
	}
	if a.Status == StatusCompleted {
		v.FeedbackHTML = qz.FeedbackHTML
	}
	if it := sess.Next(); it != nil {
		q, err := s.store.GetQuestion(ctx, it.ID)
		if err != nil {
			return AttemptView{}, fmt.Errorf("next question %d: %w", it.ID, err)
		}
		sv := q.StudentView()
		v.Next = &sv
	}
	return v, nil
}

func (s *Service) loadAttempt(ctx context.Context, id string) (Attempt, error) {
	if s.cache != nil {
		if a, ok := s.cache.Get(ctx, id); ok {
			return a, nil
		}
	}
	a, err := s.store.GetAttempt(ctx, id)
	if err != nil {
		return Attempt{}, err
	}
	s.remember(ctx, a)
	return a, nil
}

func (s *Service) remember(ctx context.Context, a Attempt) {
	if s.cache != nil {
		s.cache.Put(ctx, a)
	}
}

func (s *Service) publish(ctx context.Context, rec *eventRecorder) {
	if s.events == nil {
		return
	}
	for _, e := range rec.events {
		if err := s.events.Append(ctx, e); err != nil {
			s.log.Warn("event append failed", "type", e.Type, "key", e.Key, "err", err)
		}
	}
}
