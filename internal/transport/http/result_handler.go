package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-admin-service/internal/domain"
)

func (h *Handler) listResults(c *gin.Context) {
	results, err := h.results.List(c.Request.Context(), domain.ResultFilter{
		QuizID:     c.Query("quizId"),
		EmployeeID: c.Query("employeeId"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, results)
}

func (h *Handler) employeeResults(c *gin.Context) {
	id := c.Param("id")
	if currentRole(c) != domain.RoleAdmin && id != currentUserID(c) {
		fail(c, domain.ErrForbidden)
		return
	}
	scores, err := h.results.EmployeeScores(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, scores)
}

// employeeStats returns every employee's tally to admins and only the caller's to employees.
func (h *Handler) employeeStats(c *gin.Context) {
	only := ""
	if currentRole(c) != domain.RoleAdmin {
		only = currentUserID(c)
	}
	tallies, err := h.stats.EmployeeStats(c.Request.Context(), only)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, tallies)
}

func (h *Handler) quizStats(c *gin.Context) {
	tallies, err := h.stats.QuizStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, tallies)
}

func (h *Handler) recomputeResults(c *gin.Context) {
	n, err := h.results.Recompute(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"recomputed": n})
}
