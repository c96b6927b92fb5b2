package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-admin-service/internal/app"
	"quiz-admin-service/internal/domain"
)

type quizRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Slug        string   `json:"slug"`
	Status      bool     `json:"status"`
	QuestionIDs []string `json:"questionIds"`
}

type quizUpdateRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1"`
	Description *string  `json:"description"`
	Status      *bool    `json:"status"`
	Type        string   `json:"type"`
	QuestionIDs []string `json:"questionIds"`
}

type statusRequest struct {
	Status *bool `json:"status" binding:"required"`
}

type slugRequest struct {
	SlugStr string `json:"slugStr" binding:"required"`
}

func (h *Handler) createQuiz(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	quiz, err := h.quizzes.Create(c.Request.Context(), app.NewQuiz{
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		Status:      req.Status,
		QuestionIDs: req.QuestionIDs,
	})
	if err != nil {
		fail(c, err)
		return
	}
	okMessage(c, http.StatusCreated, "quiz created", quiz)
}

func (h *Handler) checkSlug(c *gin.Context) {
	var req slugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.quizzes.CheckSlug(c.Request.Context(), req.SlugStr)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": 1, "slug": s})
}

func (h *Handler) quizLink(c *gin.Context) {
	questions, err := h.quizzes.QuestionsBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, questions)
}

func (h *Handler) listQuizzes(c *gin.Context) {
	quizzes, err := h.quizzes.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, quizzes)
}

func (h *Handler) getQuiz(c *gin.Context) {
	quiz, err := h.quizzes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if currentRole(c) != domain.RoleAdmin {
		ok(c, http.StatusOK, quiz.Public())
		return
	}
	ok(c, http.StatusOK, quiz)
}

func (h *Handler) quizStatusCounts(c *gin.Context) {
	counts, err := h.quizzes.StatusCounts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, counts)
}

func (h *Handler) quizDetails(c *gin.Context) {
	details, err := h.stats.QuizDetails(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": 1, "quizes": details})
}

func (h *Handler) updateQuiz(c *gin.Context) {
	var req quizUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	quiz, err := h.quizzes.Update(c.Request.Context(), c.Param("id"), app.QuizUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Mode:        app.AssignMode(req.Type),
		QuestionIDs: req.QuestionIDs,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, quiz)
}

func (h *Handler) setQuizStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.quizzes.SetStatus(c.Request.Context(), c.Param("id"), *req.Status); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, http.StatusOK, "status updated", nil)
}

func (h *Handler) deleteQuiz(c *gin.Context) {
	if err := h.quizzes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, http.StatusOK, "quiz deleted", nil)
}
