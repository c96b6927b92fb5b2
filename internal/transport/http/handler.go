package http

import "quiz-admin-service/internal/app"

// Handler exposes the quiz use cases over HTTP.
type Handler struct {
	users     *app.UserService
	questions *app.QuestionService
	quizzes   *app.QuizService
	attempts  *app.AttemptService
	results   *app.ResultService
	stats     *app.StatsService
}

// Services groups the use cases a Handler needs.
type Services struct {
	Users     *app.UserService
	Questions *app.QuestionService
	Quizzes   *app.QuizService
	Attempts  *app.AttemptService
	Results   *app.ResultService
	Stats     *app.StatsService
}

func NewHandler(s Services) *Handler {
	return &Handler{
		users:     s.Users,
		questions: s.Questions,
		quizzes:   s.Quizzes,
		attempts:  s.Attempts,
		results:   s.Results,
		stats:     s.Stats,
	}
}
