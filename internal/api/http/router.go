package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/mindengage-adaptivequiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/quiz"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/rbac"
)

type Deps struct {
	Service      *quiz.Service
	Auth         *auth.AuthService
	Credentials  auth.Credentials
	QuizDefaults cat.Config
	CORSOrigins  []string
	// Ready backs /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Credentials))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))
		svc := d.Service

		pr.With(rbac.Require(rbac.PermQuizCreate)).
			Post("/quizzes", CreateQuizHandler(svc, d.QuizDefaults))
		pr.With(rbac.Require(rbac.PermQuizView)).
			Get("/quizzes/{quizID}", GetQuizHandler(svc))
		pr.With(rbac.Require(rbac.PermQuestionWrite)).
			Post("/questions/bulk", BulkQuestionsHandler(svc))

		pr.With(rbac.Require(rbac.PermAttemptCreate)).
			Post("/attempts", StartAttemptHandler(svc))
		pr.With(rbac.Require(rbac.PermAttemptAnswer)).
			Post("/attempts/{attemptID}/responses", AnswerHandler(svc))
		pr.With(rbac.RequireAny(rbac.PermAttemptViewOwn, rbac.PermAttemptViewAll),
			rbac.RequireOwnerOr(rbac.PermAttemptViewAll, isAttemptOwner(svc))).
			Get("/attempts/{attemptID}", GetAttemptHandler(svc))
		pr.With(rbac.RequireAny(rbac.PermAttemptViewOwn, rbac.PermAttemptViewAll)).
			Get("/quizzes/{quizID}/attempts", ListAttemptsHandler(svc))
		pr.With(rbac.RequireAny(rbac.PermAttemptViewOwn, rbac.PermAttemptViewAll)).
			Get("/quizzes/{quizID}/grade", GradeHandler(svc))

		pr.With(rbac.Require(rbac.PermReportView)).
			Get("/quizzes/{quizID}/analysis", AnalysisHandler(svc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
