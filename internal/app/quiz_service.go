package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"quiz-admin-service/internal/domain"
)

// NewQuiz carries the fields accepted when creating a quiz.
type NewQuiz struct {
	Name        string
	Description string
	Slug        string
	Status      bool
	QuestionIDs []string
}

// AssignMode selects how QuizUpdate.QuestionIDs are applied.
type AssignMode string

const (
	AssignQuestions   AssignMode = "assign"
	UnassignQuestions AssignMode = "unassign"
)

// QuizUpdate carries optional changes; nil fields are left alone.
// QuestionIDs are appended when Mode is AssignQuestions and removed otherwise.
type QuizUpdate struct {
	Name        *string
	Description *string
	Status      *bool
	Mode        AssignMode
	QuestionIDs []string
}

// QuizService contains the quiz authoring use cases.
type QuizService struct {
	store Store
	now   func() time.Time
}

func NewQuizService(store Store) *QuizService {
	return &QuizService{store: store, now: time.Now}
}

// Create stores a quiz. A missing slug is derived from the name.
func (s *QuizService) Create(ctx context.Context, in NewQuiz) (domain.Quiz, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.Quiz{}, fmt.Errorf("%w: name cannot be blank", domain.ErrInvalidInput)
	}
	if _, err := s.store.FindQuizByName(ctx, in.Name); err == nil {
		return domain.Quiz{}, domain.ErrQuizExists
	} else if !errors.Is(err, domain.ErrQuizNotFound) {
		return domain.Quiz{}, err
	}

	quizSlug := slug.Make(in.Slug)
	if quizSlug == "" {
		quizSlug = slug.Make(in.Name)
	}
	if err := s.ensureSlugFree(ctx, quizSlug); err != nil {
		return domain.Quiz{}, err
	}

	ids, err := s.resolveQuestions(ctx, nil, in.QuestionIDs)
	if err != nil {
		return domain.Quiz{}, err
	}
	q := domain.Quiz{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Slug:        quizSlug,
		Status:      in.Status,
		QuestionIDs: ids,
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateQuiz(ctx, q); err != nil {
		return domain.Quiz{}, err
	}
	return q, nil
}

// List returns every quiz with its questions populated.
func (s *QuizService) List(ctx context.Context) ([]domain.PopulatedQuiz, error) {
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PopulatedQuiz, 0, len(quizzes))
	for _, q := range quizzes {
		p, err := s.populate(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Get returns one quiz with its questions populated.
func (s *QuizService) Get(ctx context.Context, id string) (domain.PopulatedQuiz, error) {
	q, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return domain.PopulatedQuiz{}, err
	}
	return s.populate(ctx, q)
}

// Update applies field changes and question (un)assignment.
func (s *QuizService) Update(ctx context.Context, id string, in QuizUpdate) (domain.PopulatedQuiz, error) {
	q, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return domain.PopulatedQuiz{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.PopulatedQuiz{}, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		if name != q.Name {
			if _, err := s.store.FindQuizByName(ctx, name); err == nil {
				return domain.PopulatedQuiz{}, domain.ErrQuizExists
			} else if !errors.Is(err, domain.ErrQuizNotFound) {
				return domain.PopulatedQuiz{}, err
			}
		}
		q.Name = name
	}
	if in.Description != nil {
		q.Description = *in.Description
	}
	if in.Status != nil {
		q.Status = *in.Status
	}
	if len(in.QuestionIDs) > 0 {
		if in.Mode == AssignQuestions {
			ids, err := s.resolveQuestions(ctx, q.QuestionIDs, in.QuestionIDs)
			if err != nil {
				return domain.PopulatedQuiz{}, err
			}
			q.QuestionIDs = ids
		} else {
			q.QuestionIDs = without(q.QuestionIDs, in.QuestionIDs)
		}
	}
	if err := s.store.UpdateQuiz(ctx, q); err != nil {
		return domain.PopulatedQuiz{}, err
	}
	return s.populate(ctx, q)
}

// SetStatus toggles whether the quiz is active.
func (s *QuizService) SetStatus(ctx context.Context, id string, status bool) error {
	q, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return err
	}
	q.Status = status
	return s.store.UpdateQuiz(ctx, q)
}

// Delete removes a quiz nobody has attempted yet.
func (s *QuizService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetQuiz(ctx, id); err != nil {
		return err
	}
	n, err := s.store.CountAttempts(ctx, domain.AttemptFilter{QuizID: id})
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: quiz has %d attempts", domain.ErrInUse, n)
	}
	return s.store.DeleteQuiz(ctx, id)
}

// StatusCounts counts active and inactive quizzes.
func (s *QuizService) StatusCounts(ctx context.Context) (domain.QuizStatusCounts, error) {
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return domain.QuizStatusCounts{}, err
	}
	var c domain.QuizStatusCounts
	for _, q := range quizzes {
		if q.Status {
			c.Active++
		} else {
			c.NonActive++
		}
	}
	return c, nil
}

// CheckSlug normalizes raw and reports domain.ErrSlugTaken if a quiz already uses it.
func (s *QuizService) CheckSlug(ctx context.Context, raw string) (string, error) {
	candidate := slug.Make(raw)
	if candidate == "" {
		return "", fmt.Errorf("%w: slug is required", domain.ErrInvalidInput)
	}
	if err := s.ensureSlugFree(ctx, candidate); err != nil {
		return "", err
	}
	return candidate, nil
}

// QuestionsBySlug returns the quiz's questions in order with correctness hidden.
func (s *QuizService) QuestionsBySlug(ctx context.Context, quizSlug string) ([]domain.PublicQuestion, error) {
	q, err := s.store.FindQuizBySlug(ctx, quizSlug)
	if err != nil {
		return nil, err
	}
	p, err := s.populate(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PublicQuestion, 0, len(p.Questions))
	for _, question := range p.Questions {
		out = append(out, question.Public())
	}
	return out, nil
}

func (s *QuizService) ensureSlugFree(ctx context.Context, candidate string) error {
	_, err := s.store.FindQuizBySlug(ctx, candidate)
	switch {
	case err == nil:
		return domain.ErrSlugTaken
	case errors.Is(err, domain.ErrQuizNotFound):
		return nil
	default:
		return err
	}
}

// resolveQuestions appends the unseen IDs of add to current after checking they exist.
func (s *QuizService) resolveQuestions(ctx context.Context, current, add []string) ([]string, error) {
	out := append([]string{}, current...)
	seen := make(map[string]bool, len(out))
	for _, id := range out {
		seen[id] = true
	}
	for _, id := range add {
		if seen[id] {
			continue
		}
		if _, err := s.store.GetQuestion(ctx, id); err != nil {
			return nil, err
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func (s *QuizService) populate(ctx context.Context, q domain.Quiz) (domain.PopulatedQuiz, error) {
	questions := make([]domain.Question, 0, len(q.QuestionIDs))
	for _, id := range q.QuestionIDs {
		question, err := s.store.GetQuestion(ctx, id)
		if errors.Is(err, domain.ErrQuestionNotFound) {
			continue
		}
		if err != nil {
			return domain.PopulatedQuiz{}, err
		}
		questions = append(questions, question)
	}
	return domain.PopulatedQuiz{Quiz: q, Questions: questions}, nil
}

func without(ids, drop []string) []string {
	skip := make(map[string]bool, len(drop))
	for _, id := range drop {
		skip[id] = true
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !skip[id] {
			out = append(out, id)
		}
	}
	return out
}
