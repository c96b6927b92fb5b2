package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"quiz-admin-service/internal/domain"
)

// RouterConfig holds the HTTP-level settings for NewRouter.
type RouterConfig struct {
	AllowedOrigins []string
}

// NewRouter wires every route under /api.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	authn := Authenticate(h.users)
	admin := RequireRoles(domain.RoleAdmin)
	anyone := RequireRoles(domain.RoleAdmin, domain.RoleEmployee)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.login)
	authGroup.POST("/logout", authn, h.logout)
	authGroup.POST("/register", authn, admin, h.register)
	authGroup.GET("/users", authn, admin, h.listUsers)
	authGroup.GET("/users/stats", authn, admin, h.userStats)
	authGroup.GET("/user/:id", authn, admin, h.getUser)
	authGroup.PUT("/user/:id", authn, admin, h.updateUser)
	authGroup.DELETE("/user/:id", authn, admin, h.deleteUser)

	question := api.Group("/question", authn)
	question.POST("", admin, h.createQuestion)
	question.GET("", admin, h.listQuestions)
	question.GET("/all/score", admin, h.questionScores)
	question.GET("/:id", anyone, h.getQuestion)
	question.PUT("/:id", admin, h.updateQuestion)
	question.DELETE("/:id", admin, h.deleteQuestion)

	// link is public so a shared quiz URL can be opened before login
	api.GET("/quiz/link/:slug", h.quizLink)
	quiz := api.Group("/quiz", authn)
	quiz.POST("", admin, h.createQuiz)
	quiz.POST("/slug", admin, h.checkSlug)
	quiz.GET("", admin, h.listQuizzes)
	quiz.GET("/all/stats", admin, h.quizStatusCounts)
	quiz.GET("/all/details", admin, h.quizDetails)
	quiz.GET("/:id", anyone, h.getQuiz)
	quiz.PUT("/status/:id", admin, h.setQuizStatus)
	quiz.PUT("/:id", admin, h.updateQuiz)
	quiz.DELETE("/:id", admin, h.deleteQuiz)

	attempt := api.Group("/attempt", authn)
	attempt.POST("", anyone, h.recordAttempt)
	attempt.GET("", admin, h.listAttempts)

	result := api.Group("/result", authn)
	result.GET("", admin, h.listResults)
	result.GET("/employee/all/stats", anyone, h.employeeStats)
	result.GET("/employee/:id", anyone, h.employeeResults)
	result.GET("/quiz/stats", admin, h.quizStats)
	result.POST("/recompute", admin, h.recomputeResults)

	return r
}
