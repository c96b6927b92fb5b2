package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-admin-service/internal/domain"
)

// Store is an in-memory implementation of app.Store.
// One mutex serializes writers, which gives the attempt-uniqueness and
// result-upsert guarantees a database would provide with constraints.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users     []domain.User
	questions []domain.Question
	quizzes   []domain.Quiz
	attempts  []domain.Attempt
	results   []domain.Result

	attemptByTriple map[triple]int
	resultByPair    map[pair]int
}

type triple struct{ employeeID, quizID, questionID string }

type pair struct{ employeeID, quizID string }

func NewStore() *Store {
	return &Store{
		now:             time.Now,
		attemptByTriple: make(map[triple]int),
		resultByPair:    make(map[pair]int),
	}
}

// Users

func (s *Store) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}
	s.users = append(s.users, user)
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.User{}, s.users...), nil
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, u := range s.users {
		if u.ID == user.ID {
			idx = i
		} else if u.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}
	if idx < 0 {
		return domain.ErrUserNotFound
	}
	s.users[idx] = user
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if u.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

// Questions

func (s *Store) CreateQuestion(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.questions {
		if existing.Title == q.Title {
			return domain.ErrQuestionExists
		}
	}
	s.questions = append(s.questions, cloneQuestion(q))
	return nil
}

func (s *Store) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.questions {
		if q.ID == id {
			return cloneQuestion(q), nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (s *Store) FindQuestionByTitle(_ context.Context, title string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.questions {
		if q.Title == title {
			return cloneQuestion(q), nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (s *Store) ListQuestions(_ context.Context) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, cloneQuestion(q))
	}
	return out, nil
}

func (s *Store) UpdateQuestion(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.questions {
		if existing.ID == q.ID {
			s.questions[i] = cloneQuestion(q)
			return nil
		}
	}
	return domain.ErrQuestionNotFound
}

func (s *Store) DeleteQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.questions {
		if q.ID == id {
			s.questions = append(s.questions[:i], s.questions[i+1:]...)
			return nil
		}
	}
	return domain.ErrQuestionNotFound
}

// LoadAnswerKey lets the store back an AnswerKeyRepository directly.
func (s *Store) LoadAnswerKey(ctx context.Context, questionID string) (domain.AnswerKey, error) {
	q, err := s.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return domain.AnswerKey{QuestionID: q.ID, Options: q.Options}, nil
}

// Quizzes

func (s *Store) CreateQuiz(_ context.Context, q domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.quizzes {
		if existing.Name == q.Name {
			return domain.ErrQuizExists
		}
		if existing.Slug == q.Slug {
			return domain.ErrSlugTaken
		}
	}
	s.quizzes = append(s.quizzes, cloneQuiz(q))
	return nil
}

func (s *Store) GetQuiz(_ context.Context, id string) (domain.Quiz, error) {
	return s.findQuiz(func(q domain.Quiz) bool { return q.ID == id })
}

func (s *Store) FindQuizByName(_ context.Context, name string) (domain.Quiz, error) {
	return s.findQuiz(func(q domain.Quiz) bool { return q.Name == name })
}

func (s *Store) FindQuizBySlug(_ context.Context, slug string) (domain.Quiz, error) {
	return s.findQuiz(func(q domain.Quiz) bool { return q.Slug == slug })
}

func (s *Store) findQuiz(match func(domain.Quiz) bool) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.quizzes {
		if match(q) {
			return cloneQuiz(q), nil
		}
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (s *Store) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		out = append(out, cloneQuiz(q))
	}
	return out, nil
}

func (s *Store) UpdateQuiz(_ context.Context, q domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, existing := range s.quizzes {
		switch {
		case existing.ID == q.ID:
			idx = i
		case existing.Name == q.Name:
			return domain.ErrQuizExists
		case existing.Slug == q.Slug:
			return domain.ErrSlugTaken
		}
	}
	if idx < 0 {
		return domain.ErrQuizNotFound
	}
	s.quizzes[idx] = cloneQuiz(q)
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.quizzes {
		if q.ID == id {
			s.quizzes = append(s.quizzes[:i], s.quizzes[i+1:]...)
			return nil
		}
	}
	return domain.ErrQuizNotFound
}

func (s *Store) RemoveQuestionFromQuizzes(_ context.Context, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.quizzes {
		if !q.HasQuestion(questionID) {
			continue
		}
		kept := make([]string, 0, len(q.QuestionIDs)-1)
		for _, id := range q.QuestionIDs {
			if id != questionID {
				kept = append(kept, id)
			}
		}
		s.quizzes[i].QuestionIDs = kept
	}
	return nil
}

// Attempts

func (s *Store) CreateAttempt(_ context.Context, a domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := triple{a.EmployeeID, a.QuizID, a.QuestionID}
	if _, ok := s.attemptByTriple[k]; ok {
		return domain.ErrAlreadyAnswered
	}
	s.attemptByTriple[k] = len(s.attempts)
	s.attempts = append(s.attempts, a)
	return nil
}

func (s *Store) FindAttempt(_ context.Context, employeeID, quizID, questionID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.attemptByTriple[triple{employeeID, quizID, questionID}]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return s.attempts[i], nil
}

func (s *Store) ListAttempts(_ context.Context, filter domain.AttemptFilter) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, 0)
	for _, a := range s.attempts {
		if filter.Matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) CountAttempts(ctx context.Context, filter domain.AttemptFilter) (int, error) {
	attempts, err := s.ListAttempts(ctx, filter)
	return len(attempts), err
}

// Results

func (s *Store) ApplyAttempt(_ context.Context, employeeID, quizID, attemptID string, correct bool) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	k := pair{employeeID, quizID}
	i, ok := s.resultByPair[k]
	if !ok {
		r := domain.Result{
			ID:         uuid.NewString(),
			QuizID:     quizID,
			EmployeeID: employeeID,
			AttemptIDs: []string{attemptID},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if correct {
			r.Score = 1
		}
		s.resultByPair[k] = len(s.results)
		s.results = append(s.results, r)
		return cloneResult(r), nil
	}

	r := &s.results[i]
	if !r.HasAttempt(attemptID) {
		r.AttemptIDs = append(r.AttemptIDs, attemptID)
		if correct {
			r.Score++
		}
		r.UpdatedAt = now
	}
	return cloneResult(*r), nil
}

// RebuildResult counts attempts and writes the result under one lock.
func (s *Store) RebuildResult(_ context.Context, employeeID, quizID string) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	score, ids := 0, []string{}
	for _, a := range s.attempts {
		if a.EmployeeID != employeeID || a.QuizID != quizID {
			continue
		}
		ids = append(ids, a.ID)
		if a.Attempt {
			score++
		}
	}

	k := pair{employeeID, quizID}
	if i, ok := s.resultByPair[k]; ok {
		s.results[i].Score = score
		s.results[i].AttemptIDs = ids
		s.results[i].UpdatedAt = now
		return cloneResult(s.results[i]), nil
	}
	r := domain.Result{
		ID:         uuid.NewString(),
		QuizID:     quizID,
		EmployeeID: employeeID,
		Score:      score,
		AttemptIDs: ids,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.resultByPair[k] = len(s.results)
	s.results = append(s.results, r)
	return cloneResult(r), nil
}

func (s *Store) ListResults(_ context.Context, filter domain.ResultFilter) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Result, 0)
	for _, r := range s.results {
		if filter.Matches(r) {
			out = append(out, cloneResult(r))
		}
	}
	return out, nil
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = append([]domain.Option{}, q.Options...)
	return q
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	q.QuestionIDs = append([]string{}, q.QuestionIDs...)
	return q
}

func cloneResult(r domain.Result) domain.Result {
	r.AttemptIDs = append([]string{}, r.AttemptIDs...)
	return r
}
