package domain

import "time"

// Role gates which operations a user may perform.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// User is an administrator or an employee taking quizzes.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"userName"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Department   string    `json:"department"`
	CreatedAt    time.Time `json:"createdAt"`
}

// QuestionType classifies a question for reporting.
type QuestionType string

const (
	QuestionPhishing QuestionType = "phishing"
	QuestionNormal   QuestionType = "normal"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	return t == QuestionPhishing || t == QuestionNormal
}

// Option represents a possible answer for a question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question models an MCQ question. Its options alone define correctness.
type Question struct {
	ID           string       `json:"_id"`
	Title        string       `json:"title"`
	QuestionType QuestionType `json:"questionType"`
	Description  string       `json:"description"`
	Options      []Option     `json:"options"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// PublicOption is an option stripped of its correctness flag.
type PublicOption struct {
	Text string `json:"text"`
}

// PublicQuestion is the view of a question handed to quiz takers.
type PublicQuestion struct {
	ID           string         `json:"_id"`
	Title        string         `json:"title"`
	QuestionType QuestionType   `json:"questionType"`
	Description  string         `json:"description"`
	Options      []PublicOption `json:"options"`
}

// Public hides which options are correct.
func (q Question) Public() PublicQuestion {
	opts := make([]PublicOption, 0, len(q.Options))
	for _, o := range q.Options {
		opts = append(opts, PublicOption{Text: o.Text})
	}
	return PublicQuestion{
		ID:           q.ID,
		Title:        q.Title,
		QuestionType: q.QuestionType,
		Description:  q.Description,
		Options:      opts,
	}
}

// AnswerKey is the part of a question the attempt recorder needs.
type AnswerKey struct {
	QuestionID string   `json:"questionId"`
	Options    []Option `json:"options"`
}

// Match returns the first option whose text equals answer.
func (k AnswerKey) Match(answer string) (Option, bool) {
	for _, o := range k.Options {
		if o.Text == answer {
			return o, true
		}
	}
	return Option{}, false
}

// Quiz is an ordered collection of question references.
type Quiz struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	Status      bool      `json:"status"`
	QuestionIDs []string  `json:"questionIds"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasQuestion reports whether id is assigned to the quiz.
func (q Quiz) HasQuestion(id string) bool {
	for _, qid := range q.QuestionIDs {
		if qid == id {
			return true
		}
	}
	return false
}

// Attempt is one employee's answer to one question within one quiz. Immutable once stored.
type Attempt struct {
	ID         string    `json:"_id"`
	QuizID     string    `json:"quizId"`
	EmployeeID string    `json:"employeeId"`
	QuestionID string    `json:"questionId"`
	Attempt    bool      `json:"attempt"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Result is the running scorecard of one employee on one quiz.
type Result struct {
	ID         string    `json:"_id"`
	QuizID     string    `json:"quizId"`
	EmployeeID string    `json:"employeeId"`
	Score      int       `json:"score"`
	AttemptIDs []string  `json:"attemptIds"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// HasAttempt reports whether id is already counted in the result.
func (r Result) HasAttempt(id string) bool {
	for _, aid := range r.AttemptIDs {
		if aid == id {
			return true
		}
	}
	return false
}

// AnswerSubmission models an answer sent by a quiz taker.
type AnswerSubmission struct {
	EmployeeID string
	QuizID     string
	QuestionID string
	Answer     string
}

// RecordOutcome summarizes what happened to a submission.
type RecordOutcome struct {
	Created    bool
	WasCorrect bool
	Attempt    Attempt
	Result     Result
}

// AttemptFilter narrows attempt listings; empty fields match everything.
type AttemptFilter struct {
	QuizID     string
	QuestionID string
	EmployeeID string
}

// Matches reports whether a satisfies the filter.
func (f AttemptFilter) Matches(a Attempt) bool {
	return (f.QuizID == "" || f.QuizID == a.QuizID) &&
		(f.QuestionID == "" || f.QuestionID == a.QuestionID) &&
		(f.EmployeeID == "" || f.EmployeeID == a.EmployeeID)
}

// ResultFilter narrows result listings; empty fields match everything.
type ResultFilter struct {
	QuizID     string
	EmployeeID string
}

// Matches reports whether r satisfies the filter.
func (f ResultFilter) Matches(r Result) bool {
	return (f.QuizID == "" || f.QuizID == r.QuizID) &&
		(f.EmployeeID == "" || f.EmployeeID == r.EmployeeID)
}

// PopulatedQuiz is a quiz with its questions resolved in assignment order.
type PopulatedQuiz struct {
	Quiz
	Questions []Question `json:"questions"`
}

// PublicQuiz is a populated quiz with the answer key stripped.
type PublicQuiz struct {
	Quiz
	Questions []PublicQuestion `json:"questions"`
}

func (p PopulatedQuiz) Public() PublicQuiz {
	qs := make([]PublicQuestion, 0, len(p.Questions))
	for _, q := range p.Questions {
		qs = append(qs, q.Public())
	}
	return PublicQuiz{Quiz: p.Quiz, Questions: qs}
}
