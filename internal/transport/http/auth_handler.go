package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-admin-service/internal/app"
	"quiz-admin-service/internal/domain"
)

type registerRequest struct {
	Username   string      `json:"userName" binding:"required"`
	Password   string      `json:"password" binding:"required,min=6,max=72"`
	Role       domain.Role `json:"role" binding:"required,oneof=admin employee"`
	Department string      `json:"department"`
}

type loginRequest struct {
	Username string `json:"userName" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userUpdateRequest struct {
	UserData struct {
		Username   *string      `json:"userName" binding:"omitempty,min=1"`
		Password   *string      `json:"password" binding:"omitempty,min=6,max=72"`
		Role       *domain.Role `json:"role" binding:"omitempty,oneof=admin employee"`
		Department *string      `json:"department"`
	} `json:"userData"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.Register(c.Request.Context(), app.NewUser{
		Username:   req.Username,
		Password:   req.Password,
		Role:       req.Role,
		Department: req.Department,
	})
	if err != nil {
		fail(c, err)
		return
	}
	okMessage(c, http.StatusCreated, "user created", user)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	token, user, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": 1, "token": token, "data": user})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.users.Logout(c.Request.Context(), currentClaims(c)); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, http.StatusOK, "logged out", nil)
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, users)
}

func (h *Handler) userStats(c *gin.Context) {
	counts, err := h.users.RoleCounts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, counts)
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, user)
}

func (h *Handler) updateUser(c *gin.Context) {
	var req userUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.Update(c.Request.Context(), c.Param("id"), app.UserUpdate{
		Username:   req.UserData.Username,
		Password:   req.UserData.Password,
		Role:       req.UserData.Role,
		Department: req.UserData.Department,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, user)
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, http.StatusOK, "user deleted", nil)
}
