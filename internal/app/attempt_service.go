package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"quiz-admin-service/internal/domain"
)

// AttemptService records answer submissions and keeps results in step with them.
type AttemptService struct {
	store   Store
	keys    AnswerKeyRepository
	results *ResultService
	now     func() time.Time
}

func NewAttemptService(store Store, keys AnswerKeyRepository, results *ResultService) *AttemptService {
	return NewAttemptServiceWithClock(store, keys, results, time.Now)
}

// NewAttemptServiceWithClock is test-only for deterministic timestamps.
func NewAttemptServiceWithClock(store Store, keys AnswerKeyRepository, results *ResultService, now func() time.Time) *AttemptService {
	return &AttemptService{store: store, keys: keys, results: results, now: now}
}

// Record stores the first answer of an employee to a question within a quiz.
// A repeated triple is not an error: the outcome comes back with Created=false
// and neither attempts nor results change.
func (s *AttemptService) Record(ctx context.Context, sub domain.AnswerSubmission) (domain.RecordOutcome, error) {
	if _, err := s.store.GetUser(ctx, sub.EmployeeID); err != nil {
		return domain.RecordOutcome{}, err
	}
	if _, err := s.store.GetQuiz(ctx, sub.QuizID); err != nil {
		return domain.RecordOutcome{}, err
	}

	existing, err := s.store.FindAttempt(ctx, sub.EmployeeID, sub.QuizID, sub.QuestionID)
	switch {
	case err == nil:
		return domain.RecordOutcome{Created: false, WasCorrect: existing.Attempt, Attempt: existing}, nil
	case !errors.Is(err, domain.ErrAttemptNotFound):
		return domain.RecordOutcome{}, err
	}

	key, err := s.keys.GetAnswerKey(ctx, sub.QuestionID)
	if err != nil {
		return domain.RecordOutcome{}, err
	}
	option, ok := key.Match(sub.Answer)
	if !ok {
		log.Printf("attempt: answer %q matches no option of question %s, recording as incorrect", sub.Answer, sub.QuestionID)
	}
	correct := ok && option.IsCorrect

	attempt := domain.Attempt{
		ID:         uuid.NewString(),
		QuizID:     sub.QuizID,
		EmployeeID: sub.EmployeeID,
		QuestionID: sub.QuestionID,
		Attempt:    correct,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateAttempt(ctx, attempt); err != nil {
		if errors.Is(err, domain.ErrAlreadyAnswered) {
			// lost a race with an identical submission
			log.Printf("attempt: duplicate submission by %s for quiz %s question %s", sub.EmployeeID, sub.QuizID, sub.QuestionID)
			return domain.RecordOutcome{Created: false}, nil
		}
		return domain.RecordOutcome{}, err
	}

	result, err := s.results.Apply(ctx, sub.EmployeeID, sub.QuizID, attempt.ID, correct)
	if err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("attempt %s stored but result update failed: %w", attempt.ID, err)
	}
	return domain.RecordOutcome{Created: true, WasCorrect: correct, Attempt: attempt, Result: result}, nil
}

// List returns attempts matching filter in creation order.
func (s *AttemptService) List(ctx context.Context, filter domain.AttemptFilter) ([]domain.Attempt, error) {
	return s.store.ListAttempts(ctx, filter)
}
