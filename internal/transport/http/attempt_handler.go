package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-admin-service/internal/domain"
)

type attemptRequest struct {
	QuizID     string `json:"quizId" binding:"required"`
	QuestionID string `json:"questionId" binding:"required"`
	Answer     string `json:"answer"`
}

// recordAttempt scores an answer for the calling user.
// A repeated answer is reported with success 0 and status 200.
func (h *Handler) recordAttempt(c *gin.Context) {
	var req attemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	outcome, err := h.attempts.Record(c.Request.Context(), domain.AnswerSubmission{
		EmployeeID: currentUserID(c),
		QuizID:     req.QuizID,
		QuestionID: req.QuestionID,
		Answer:     req.Answer,
	})
	if err != nil {
		fail(c, err)
		return
	}
	if !outcome.Created {
		c.JSON(http.StatusOK, envelope{Success: 0, Message: "Already Answered this question"})
		return
	}
	ok(c, http.StatusCreated, nil)
}

func (h *Handler) listAttempts(c *gin.Context) {
	attempts, err := h.attempts.List(c.Request.Context(), domain.AttemptFilter{
		QuizID:     c.Query("quizId"),
		QuestionID: c.Query("questionId"),
		EmployeeID: c.Query("employeeId"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, attempts)
}
