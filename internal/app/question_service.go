package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"quiz-admin-service/internal/domain"
)

// NewQuestion carries the fields accepted when authoring a question.
type NewQuestion struct {
	Title        string
	QuestionType domain.QuestionType
	Description  string
	Options      []domain.Option
}

// QuestionUpdate replaces type, description, and options. Title is fixed after creation.
type QuestionUpdate struct {
	QuestionType *domain.QuestionType
	Description  *string
	Options      []domain.Option
}

// QuestionService manages the question bank.
type QuestionService struct {
	store Store
	keys  AnswerKeyRepository
	now   func() time.Time
}

func NewQuestionService(store Store, keys AnswerKeyRepository) *QuestionService {
	return &QuestionService{store: store, keys: keys, now: time.Now}
}

func (s *QuestionService) Create(ctx context.Context, in NewQuestion) (domain.Question, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return domain.Question{}, fmt.Errorf("%w: title cannot be blank", domain.ErrInvalidInput)
	}
	if in.QuestionType == "" {
		in.QuestionType = domain.QuestionNormal
	}
	if !in.QuestionType.Valid() {
		return domain.Question{}, fmt.Errorf("%w: questionType must be phishing or normal", domain.ErrInvalidInput)
	}
	if _, err := s.store.FindQuestionByTitle(ctx, in.Title); err == nil {
		return domain.Question{}, domain.ErrQuestionExists
	} else if !errors.Is(err, domain.ErrQuestionNotFound) {
		return domain.Question{}, err
	}

	q := domain.Question{
		ID:           uuid.NewString(),
		Title:        in.Title,
		QuestionType: in.QuestionType,
		Description:  in.Description,
		Options:      nonNilOptions(in.Options),
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateQuestion(ctx, q); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func (s *QuestionService) List(ctx context.Context) ([]domain.Question, error) {
	return s.store.ListQuestions(ctx)
}

func (s *QuestionService) Get(ctx context.Context, id string) (domain.Question, error) {
	return s.store.GetQuestion(ctx, id)
}

// Update rewrites the question and drops its cached answer key.
func (s *QuestionService) Update(ctx context.Context, id string, in QuestionUpdate) (domain.Question, error) {
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	if in.QuestionType != nil {
		if !in.QuestionType.Valid() {
			return domain.Question{}, fmt.Errorf("%w: questionType must be phishing or normal", domain.ErrInvalidInput)
		}
		q.QuestionType = *in.QuestionType
	}
	if in.Description != nil {
		q.Description = *in.Description
	}
	if in.Options != nil {
		q.Options = in.Options
	}
	if err := s.store.UpdateQuestion(ctx, q); err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, id)
	return q, nil
}

// Delete removes an unanswered question and unassigns it from every quiz.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetQuestion(ctx, id); err != nil {
		return err
	}
	n, err := s.store.CountAttempts(ctx, domain.AttemptFilter{QuestionID: id})
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: question has %d attempts", domain.ErrInUse, n)
	}
	if err := s.store.RemoveQuestionFromQuizzes(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *QuestionService) invalidate(ctx context.Context, id string) {
	if err := s.keys.Invalidate(ctx, id); err != nil {
		log.Printf("question %s: answer key invalidation failed: %v", id, err)
	}
}

func nonNilOptions(opts []domain.Option) []domain.Option {
	if opts == nil {
		return []domain.Option{}
	}
	return opts
}
