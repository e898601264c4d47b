package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) error {
	cj, err := json.Marshal(q.Categories)
	if err != nil {
		return err
	}
	cfg, err := json.Marshal(q.Config)
	if err != nil {
		return err
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes
		(id,name,categories_json,config_json,attempts_allowed,show_ability,show_progress,grade_method,feedback_html,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, categories_json=EXCLUDED.categories_json,
			config_json=EXCLUDED.config_json, attempts_allowed=EXCLUDED.attempts_allowed, show_ability=EXCLUDED.show_ability,
			show_progress=EXCLUDED.show_progress, grade_method=EXCLUDED.grade_method, feedback_html=EXCLUDED.feedback_html`,
		q.ID, q.Name, string(cj), string(cfg), q.AttemptsAllowed, boolInt(q.ShowAbility), boolInt(q.ShowProgress),
		string(q.GradeMethod), q.FeedbackHTML, q.CreatedAt)
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,categories_json,config_json,attempts_allowed,
		show_ability,show_progress,grade_method,feedback_html,created_at
		FROM quizzes WHERE id=$1`, id)
	var (
		q              Quiz
		cj, cfg, gm    string
		show, progress int
	)
	if err := row.Scan(&q.ID, &q.Name, &cj, &cfg, &q.AttemptsAllowed, &show, &progress, &gm, &q.FeedbackHTML, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrNotFound
		}
		return Quiz{}, err
	}
	q.ShowAbility = show != 0
	q.ShowProgress = progress != 0
	q.GradeMethod = GradeMethod(gm)
	if err := json.Unmarshal([]byte(cj), &q.Categories); err != nil {
		return Quiz{}, fmt.Errorf("quiz %s categories: %w", id, err)
	}
	if err := json.Unmarshal([]byte(cfg), &q.Config); err != nil {
		return Quiz{}, fmt.Errorf("quiz %s config: %w", id, err)
	}
	return q, nil
}

func (s *SQLStore) PutQuestions(ctx context.Context, qs []Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range qs {
		chj, _ := json.Marshal(q.Choices)
		akj, _ := json.Marshal(q.AnswerKey)
		tj, _ := json.Marshal(q.Tags)
		if _, err := tx.ExecContext(ctx, `INSERT INTO questions (id,category,type,prompt_html,choices_json,answer_key_json,points,level,tags_json)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (id) DO UPDATE SET category=EXCLUDED.category, type=EXCLUDED.type, prompt_html=EXCLUDED.prompt_html,
				choices_json=EXCLUDED.choices_json, answer_key_json=EXCLUDED.answer_key_json, points=EXCLUDED.points,
				level=EXCLUDED.level, tags_json=EXCLUDED.tags_json`,
			q.ID, q.Category, q.Type, q.PromptHTML, string(chj), string(akj), q.Points, q.Level, string(tj)); err != nil {
			return fmt.Errorf("question %d: %w", q.ID, err)
		}
	}
	return tx.Commit()
}

const questionCols = `id,category,type,prompt_html,choices_json,answer_key_json,points,level,tags_json`

type rowScanner interface{ Scan(dest ...any) error }

func scanQuestion(r rowScanner) (Question, error) {
	var (
		q            Question
		chj, akj, tj string
	)
	if err := r.Scan(&q.ID, &q.Category, &q.Type, &q.PromptHTML, &chj, &akj, &q.Points, &q.Level, &tj); err != nil {
		return Question{}, err
	}
	_ = json.Unmarshal([]byte(chj), &q.Choices)
	_ = json.Unmarshal([]byte(akj), &q.AnswerKey)
	_ = json.Unmarshal([]byte(tj), &q.Tags)
	return q, nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id int64) (Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx, `SELECT `+questionCols+` FROM questions WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrNotFound
	}
	return q, err
}

func (s *SQLStore) ListQuestions(ctx context.Context, categories []string) ([]Question, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	ph := make([]string, len(categories))
	args := make([]any, len(categories))
	for i, c := range categories {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = c
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE category IN (`+strings.Join(ph, ",")+`) ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt) error {
	sj, pj, err := attemptJSON(a)
	if err != nil {
		return err
	}
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE id=$1`, a.QuizID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts (id,quiz_id,user_id,status,snapshot_json,pool_json,started_at,finished_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.QuizID, a.UserID, string(a.Status), sj, pj, a.StartedAt, nullInt(a.FinishedAt))
	return err
}

func (s *SQLStore) SaveAttempt(ctx context.Context, a Attempt) error {
	sj, pj, err := attemptJSON(a)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE attempts SET status=$1, snapshot_json=$2, pool_json=$3, finished_at=$4 WHERE id=$5`,
		string(a.Status), sj, pj, nullInt(a.FinishedAt), a.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

const attemptCols = `id,quiz_id,user_id,status,snapshot_json,pool_json,started_at,finished_at`

func scanAttempt(r rowScanner) (Attempt, error) {
	var (
		a        Attempt
		status   string
		sj, pj   string
		finished sql.NullInt64
	)
	if err := r.Scan(&a.ID, &a.QuizID, &a.UserID, &status, &sj, &pj, &a.StartedAt, &finished); err != nil {
		return Attempt{}, err
	}
	a.Status = Status(status)
	a.FinishedAt = finished.Int64
	if err := json.Unmarshal([]byte(sj), &a.Snapshot); err != nil {
		return Attempt{}, fmt.Errorf("attempt %s snapshot: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(pj), &a.Pool); err != nil {
		return Attempt{}, fmt.Errorf("attempt %s pool: %w", a.ID, err)
	}
	return a, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	a, err := scanAttempt(s.db.QueryRowContext(ctx, `SELECT `+attemptCols+` FROM attempts WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, ErrNotFound
	}
	return a, err
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	var (
		where []string
		args  []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if opts.QuizID != "" {
		add("quiz_id", opts.QuizID)
	}
	if opts.UserID != "" {
		add("user_id", opts.UserID)
	}
	if opts.Status != "" {
		add("status", string(opts.Status))
	}
	q := `SELECT ` + attemptCols + ` FROM attempts`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY started_at DESC, id`
	if opts.Limit > 0 {
		q += fmt.Sprintf(` LIMIT %d OFFSET %d`, opts.Limit, opts.Offset)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountAttempts(ctx context.Context, quizID, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attempts WHERE quiz_id=$1 AND user_id=$2`, quizID, userID).Scan(&n)
	return n, err
}

func attemptJSON(a Attempt) (string, string, error) {
	sj, err := json.Marshal(a.Snapshot)
	if err != nil {
		return "", "", err
	}
	pj, err := json.Marshal(a.Pool)
	if err != nil {
		return "", "", err
	}
	return string(sj), string(pj), nil
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
