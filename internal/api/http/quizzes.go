package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/pool"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/quiz"
)

// POST /quizzes. Config keys missing from the body keep the site defaults.
func CreateQuizHandler(svc *quiz.Service, defaults cat.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := quiz.Quiz{Config: defaults}
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		created, err := svc.CreateQuiz(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func GetQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := svc.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// POST /questions/bulk accepts {"questions": [...]} as JSON, or a YAML pool
// file when Content-Type is application/yaml.
func BulkQuestionsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var qs []quiz.Question
		ct := r.Header.Get("Content-Type")
		if strings.Contains(ct, "yaml") {
			raw, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
			if err != nil {
				http.Error(w, "read body", http.StatusBadRequest)
				return
			}
			f, err := pool.Parse(raw)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			qs = f.QuizQuestions()
		} else {
			var req struct {
				Questions []quiz.Question `json:"questions"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
			qs = req.Questions
		}
		if len(qs) == 0 {
			http.Error(w, "no questions", http.StatusBadRequest)
			return
		}
		if err := svc.PutQuestions(r.Context(), qs); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "count": len(qs)})
	}
}
