package app_test

import (
	"context"
	"testing"
	"time"

	"quiz-admin-service/internal/app"
	"quiz-admin-service/internal/auth"
	"quiz-admin-service/internal/domain"
	"quiz-admin-service/internal/infra/memory"
)

type fixture struct {
	t         *testing.T
	ctx       context.Context
	store     *memory.Store
	keys      *memory.AnswerKeyRepository
	users     *app.UserService
	questions *app.QuestionService
	quizzes   *app.QuizService
	attempts  *app.AttemptService
	results   *app.ResultService
	stats     *app.StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	keys := memory.NewAnswerKeyRepository(store, time.Minute)
	results := app.NewResultService(store)
	return &fixture{
		t:         t,
		ctx:       context.Background(),
		store:     store,
		keys:      keys,
		users:     app.NewUserService(store, auth.NewTokenManager("test-secret", time.Hour), memory.NewRevocationList()),
		questions: app.NewQuestionService(store, keys),
		quizzes:   app.NewQuizService(store),
		attempts:  app.NewAttemptService(store, keys, results),
		results:   results,
		stats:     app.NewStatsService(store),
	}
}

// employee stores a user directly, skipping password hashing.
func (f *fixture) employee(id, name string) domain.User {
	f.t.Helper()
	u := domain.User{ID: id, Username: name, Role: domain.RoleEmployee}
	if err := f.store.CreateUser(f.ctx, u); err != nil {
		f.t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (f *fixture) question(title string, opts ...domain.Option) domain.Question {
	f.t.Helper()
	q, err := f.questions.Create(f.ctx, app.NewQuestion{Title: title, Options: opts})
	if err != nil {
		f.t.Fatalf("create question %q: %v", title, err)
	}
	return q
}

func (f *fixture) quiz(name string, questionIDs ...string) domain.Quiz {
	f.t.Helper()
	q, err := f.quizzes.Create(f.ctx, app.NewQuiz{Name: name, Status: true, QuestionIDs: questionIDs})
	if err != nil {
		f.t.Fatalf("create quiz %q: %v", name, err)
	}
	return q
}

func (f *fixture) answer(employeeID, quizID, questionID, answer string) domain.RecordOutcome {
	f.t.Helper()
	out, err := f.attempts.Record(f.ctx, domain.AnswerSubmission{
		EmployeeID: employeeID, QuizID: quizID, QuestionID: questionID, Answer: answer,
	})
	if err != nil {
		f.t.Fatalf("record %s/%s/%s: %v", employeeID, quizID, questionID, err)
	}
	return out
}

func capitalOptions() []domain.Option {
	return []domain.Option{{Text: "Paris", IsCorrect: true}, {Text: "London", IsCorrect: false}}
}
