package app

import (
	"context"
	"time"

	"quiz-admin-service/internal/domain"
)

// UserRepository persists users. CreateUser returns domain.ErrUsernameTaken on a duplicate username.
type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, id string) (domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) error
	DeleteUser(ctx context.Context, id string) error
}

// QuestionRepository persists questions. Titles are unique.
type QuestionRepository interface {
	CreateQuestion(ctx context.Context, q domain.Question) error
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	FindQuestionByTitle(ctx context.Context, title string) (domain.Question, error)
	ListQuestions(ctx context.Context) ([]domain.Question, error)
	UpdateQuestion(ctx context.Context, q domain.Question) error
	DeleteQuestion(ctx context.Context, id string) error
}

// QuizRepository persists quizzes. Names and slugs are unique.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, q domain.Quiz) error
	GetQuiz(ctx context.Context, id string) (domain.Quiz, error)
	FindQuizByName(ctx context.Context, name string) (domain.Quiz, error)
	FindQuizBySlug(ctx context.Context, slug string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	UpdateQuiz(ctx context.Context, q domain.Quiz) error
	DeleteQuiz(ctx context.Context, id string) error
	// RemoveQuestionFromQuizzes pulls questionID out of every quiz that references it.
	RemoveQuestionFromQuizzes(ctx context.Context, questionID string) error
}

// AttemptRepository persists immutable attempts.
// CreateAttempt must reject a second attempt for the same (employee, quiz, question)
// triple with domain.ErrAlreadyAnswered, including under concurrent inserts.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, a domain.Attempt) error
	FindAttempt(ctx context.Context, employeeID, quizID, questionID string) (domain.Attempt, error)
	ListAttempts(ctx context.Context, filter domain.AttemptFilter) ([]domain.Attempt, error)
	CountAttempts(ctx context.Context, filter domain.AttemptFilter) (int, error)
}

// ResultRepository persists one result per (employee, quiz) pair.
type ResultRepository interface {
	// ApplyAttempt atomically creates the pair's result or adds attemptID to it,
	// incrementing the score only when correct and attemptID was not yet counted.
	ApplyAttempt(ctx context.Context, employeeID, quizID, attemptID string, correct bool) (domain.Result, error)
	// RebuildResult recounts the pair's result from its stored attempts in one atomic step,
	// creating the result if needed. An ApplyAttempt racing the rebuild is never lost.
	RebuildResult(ctx context.Context, employeeID, quizID string) (domain.Result, error)
	ListResults(ctx context.Context, filter domain.ResultFilter) ([]domain.Result, error)
}

// Store bundles every entity repository behind one backing database.
type Store interface {
	UserRepository
	QuestionRepository
	QuizRepository
	AttemptRepository
	ResultRepository
}

// AnswerKeyRepository serves question options for scoring, usually from a cache.
type AnswerKeyRepository interface {
	GetAnswerKey(ctx context.Context, questionID string) (domain.AnswerKey, error)
	Invalidate(ctx context.Context, questionID string) error
}

// RevocationRepository remembers logged-out token IDs until they would have expired.
type RevocationRepository interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
