package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/format"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/quiz"
)

// GET /quizzes/{quizID}/analysis?format=json|ascii|markdown|html&sort=percent_correct&desc=1&question=501
func AnalysisHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rep, err := svc.Analysis(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, err)
			return
		}
		sortKey := q.Get("sort")
		desc := q.Get("desc") == "1" || q.Get("desc") == "true"

		if q.Get("format") == "" || q.Get("format") == "json" {
			rows, err := rep.Rows(sortKey, desc)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"quiz": rep.QuizName, "questions": rows})
			return
		}

		mode, err := format.ParseMode(q.Get("format"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var out string
		if qs := q.Get("question"); qs != "" {
			id, perr := strconv.ParseInt(qs, 10, 64)
			if perr != nil {
				http.Error(w, "bad question id", http.StatusBadRequest)
				return
			}
			out, err = rep.Details(id, mode)
		} else {
			out, err = rep.Render(mode, sortKey, desc)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ct := "text/plain; charset=utf-8"
		switch mode {
		case format.Markdown:
			ct = "text/markdown; charset=utf-8"
		case format.HTML:
			ct = "text/html; charset=utf-8"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = w.Write([]byte(out))
	}
}
