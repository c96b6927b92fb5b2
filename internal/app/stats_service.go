package app

import (
	"context"

	"quiz-admin-service/internal/domain"
)

// StatsService derives read-only views over stored attempts and results. It never writes.
type StatsService struct {
	store Store
}

func NewStatsService(store Store) *StatsService {
	return &StatsService{store: store}
}

// QuestionScores annotates every question with the pass and fail rate of its attempts.
func (s *StatsService) QuestionScores(ctx context.Context) ([]domain.QuestionScore, error) {
	questions, err := s.store.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	attempts, err := s.store.ListAttempts(ctx, domain.AttemptFilter{})
	if err != nil {
		return nil, err
	}
	byQuestion := groupAttempts(attempts, func(a domain.Attempt) string { return a.QuestionID })

	out := make([]domain.QuestionScore, 0, len(questions))
	for _, q := range questions {
		qa := byQuestion[q.ID]
		if qa == nil {
			qa = []domain.Attempt{}
		}
		pass, fail := Rates(qa)
		out = append(out, domain.QuestionScore{Question: q, PassRate: pass, FailRate: fail, Attempts: qa})
	}
	return out, nil
}

// QuizDetails annotates every quiz with its rates, approximate plays, and average score.
func (s *StatsService) QuizDetails(ctx context.Context) ([]domain.QuizDetails, error) {
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	attempts, err := s.store.ListAttempts(ctx, domain.AttemptFilter{})
	if err != nil {
		return nil, err
	}
	byQuiz := groupAttempts(attempts, func(a domain.Attempt) string { return a.QuizID })

	out := make([]domain.QuizDetails, 0, len(quizzes))
	for _, q := range quizzes {
		qa := byQuiz[q.ID]
		if qa == nil {
			qa = []domain.Attempt{}
		}
		pass, fail := Rates(qa)
		plays := Plays(len(qa), len(q.QuestionIDs))
		out = append(out, domain.QuizDetails{
			Quiz:     q,
			PassRate: pass,
			FailRate: fail,
			Plays:    plays,
			AvgScore: AvgScore(pass, plays),
			Attempts: qa,
		})
	}
	return out, nil
}

// EmployeeStats sums pass/fail per employee over all results.
// A non-empty onlyEmployeeID restricts the view to that employee.
func (s *StatsService) EmployeeStats(ctx context.Context, onlyEmployeeID string) ([]domain.EmployeeTally, error) {
	results, err := s.store.ListResults(ctx, domain.ResultFilter{EmployeeID: onlyEmployeeID})
	if err != nil {
		return nil, err
	}
	attempts, err := s.attemptIndex(ctx, domain.AttemptFilter{EmployeeID: onlyEmployeeID})
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return TallyByEmployee(results, attempts, byID), nil
}

// QuizStats sums pass/fail per quiz over all results.
func (s *StatsService) QuizStats(ctx context.Context) ([]domain.QuizTally, error) {
	results, err := s.store.ListResults(ctx, domain.ResultFilter{})
	if err != nil {
		return nil, err
	}
	attempts, err := s.attemptIndex(ctx, domain.AttemptFilter{})
	if err != nil {
		return nil, err
	}
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Quiz, len(quizzes))
	for _, q := range quizzes {
		byID[q.ID] = q
	}
	return TallyByQuiz(results, attempts, byID), nil
}

func (s *StatsService) attemptIndex(ctx context.Context, filter domain.AttemptFilter) (map[string]domain.Attempt, error) {
	attempts, err := s.store.ListAttempts(ctx, filter)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]domain.Attempt, len(attempts))
	for _, a := range attempts {
		idx[a.ID] = a
	}
	return idx, nil
}

func groupAttempts(attempts []domain.Attempt, key func(domain.Attempt) string) map[string][]domain.Attempt {
	out := make(map[string][]domain.Attempt)
	for _, a := range attempts {
		k := key(a)
		out[k] = append(out[k], a)
	}
	return out
}
