package domain

import "errors"

var (
	// ErrNotFound is the parent of every lookup miss; wrap it so callers can test with errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrUserNotFound is returned when a user ID or username does not resolve.
	ErrUserNotFound = notFound("user not found")
	// ErrQuizNotFound indicates the quiz could not be loaded.
	ErrQuizNotFound = notFound("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = notFound("question not found")
	// ErrResultNotFound is returned when no result exists for an (employee, quiz) pair.
	ErrResultNotFound = notFound("result not found")
	// ErrAttemptNotFound is returned when no attempt exists for a triple.
	ErrAttemptNotFound = notFound("attempt not found")

	// ErrConflict is the parent of every uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = conflict("user already exists")
	// ErrQuestionExists is returned when a question title is reused.
	ErrQuestionExists = conflict("question already exists")
	// ErrQuizExists is returned when a quiz name is reused.
	ErrQuizExists = conflict("quiz already exists")
	// ErrSlugTaken is returned when a quiz slug is reused.
	ErrSlugTaken = conflict("slug already exists")
	// ErrAlreadyAnswered reports a second attempt on the same (employee, quiz, question) triple.
	ErrAlreadyAnswered = conflict("already answered this question")
	// ErrInUse is returned when deleting an entity that attempts still reference.
	ErrInUse = conflict("entity is referenced by recorded attempts")

	// ErrInvalidInput marks missing or malformed request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized marks missing, bad, expired, or revoked credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks an authenticated caller acting outside its role.
	ErrForbidden = errors.New("forbidden")
)

type kindError struct {
	msg    string
	parent error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.parent }

func notFound(msg string) error { return &kindError{msg: msg, parent: ErrNotFound} }
func conflict(msg string) error { return &kindError{msg: msg, parent: ErrConflict} }
