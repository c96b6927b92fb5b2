package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-admin-service/internal/app"
	"quiz-admin-service/internal/domain"
)

type optionRequest struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

type questionRequest struct {
	Title        string              `json:"title" binding:"required"`
	QuestionType domain.QuestionType `json:"questionType" binding:"omitempty,oneof=phishing normal"`
	Description  string              `json:"description"`
	Options      []optionRequest     `json:"options" binding:"omitempty,dive"`
}

type questionUpdateRequest struct {
	QuestionType *domain.QuestionType `json:"questionType" binding:"omitempty,oneof=phishing normal"`
	Description  *string              `json:"description"`
	Options      []optionRequest      `json:"options" binding:"omitempty,dive"`
}

// toOptions keeps nil as nil so an update without options leaves them alone.
func toOptions(in []optionRequest) []domain.Option {
	if in == nil {
		return nil
	}
	out := make([]domain.Option, 0, len(in))
	for _, o := range in {
		out = append(out, domain.Option{Text: o.Text, IsCorrect: o.IsCorrect})
	}
	return out
}

func (h *Handler) createQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q, err := h.questions.Create(c.Request.Context(), app.NewQuestion{
		Title:        req.Title,
		QuestionType: req.QuestionType,
		Description:  req.Description,
		Options:      toOptions(req.Options),
	})
	if err != nil {
		fail(c, err)
		return
	}
	okMessage(c, http.StatusCreated, "question created", q)
}

func (h *Handler) listQuestions(c *gin.Context) {
	questions, err := h.questions.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, questions)
}

// getQuestion hides correct answers from employees.
func (h *Handler) getQuestion(c *gin.Context) {
	q, err := h.questions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if currentRole(c) != domain.RoleAdmin {
		ok(c, http.StatusOK, q.Public())
		return
	}
	ok(c, http.StatusOK, q)
}

func (h *Handler) questionScores(c *gin.Context) {
	scores, err := h.stats.QuestionScores(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, scores)
}

func (h *Handler) updateQuestion(c *gin.Context) {
	var req questionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q, err := h.questions.Update(c.Request.Context(), c.Param("id"), app.QuestionUpdate{
		QuestionType: req.QuestionType,
		Description:  req.Description,
		Options:      toOptions(req.Options),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, q)
}

func (h *Handler) deleteQuestion(c *gin.Context) {
	if err := h.questions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, http.StatusOK, "question deleted", nil)
}
