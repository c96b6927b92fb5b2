package app

import (
	"context"
	"fmt"
	"log"

	"quiz-admin-service/internal/domain"
)

// ResultService maintains the per-(employee, quiz) scorecards.
type ResultService struct {
	store Store
}

func NewResultService(store Store) *ResultService {
	return &ResultService{store: store}
}

// Apply folds one stored attempt into the pair's result.
func (s *ResultService) Apply(ctx context.Context, employeeID, quizID, attemptID string, correct bool) (domain.Result, error) {
	return s.store.ApplyAttempt(ctx, employeeID, quizID, attemptID, correct)
}

// List returns every result matching filter.
func (s *ResultService) List(ctx context.Context, filter domain.ResultFilter) ([]domain.Result, error) {
	return s.store.ListResults(ctx, filter)
}

// EmployeeScores returns an employee's results with the score as a percentage of each quiz's question count.
func (s *ResultService) EmployeeScores(ctx context.Context, employeeID string) ([]domain.EmployeeScore, error) {
	if _, err := s.store.GetUser(ctx, employeeID); err != nil {
		return nil, err
	}
	results, err := s.store.ListResults(ctx, domain.ResultFilter{EmployeeID: employeeID})
	if err != nil {
		return nil, err
	}
	scores := make([]domain.EmployeeScore, 0, len(results))
	for _, r := range results {
		quiz, err := s.store.GetQuiz(ctx, r.QuizID)
		if err != nil {
			return nil, err
		}
		scores = append(scores, domain.EmployeeScore{
			Result:     r,
			Quiz:       quiz,
			Percentage: percentage(r.Score, len(quiz.QuestionIDs)),
		})
	}
	return scores, nil
}

// Recompute rebuilds every result from the stored attempts and returns how many it wrote.
// It repairs pairs whose attempt was stored while the result update failed.
func (s *ResultService) Recompute(ctx context.Context) (int, error) {
	attempts, err := s.store.ListAttempts(ctx, domain.AttemptFilter{})
	if err != nil {
		return 0, err
	}

	// the listing only picks the pairs; each pair is recounted by the store
	type pair struct{ employeeID, quizID string }
	order := make([]pair, 0)
	seen := make(map[pair]bool)
	for _, a := range attempts {
		k := pair{a.EmployeeID, a.QuizID}
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
	}

	for _, k := range order {
		if _, err := s.store.RebuildResult(ctx, k.employeeID, k.quizID); err != nil {
			return 0, fmt.Errorf("rebuild result for employee %s quiz %s: %w", k.employeeID, k.quizID, err)
		}
	}
	log.Printf("recomputed %d results from %d attempts", len(order), len(attempts))
	return len(order), nil
}
