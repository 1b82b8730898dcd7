package v1

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-tracker/internal/forms"
	"github.com/adanyl0v/go-task-tracker/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleSearchTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleAddExecutor(c *gin.Context)
	HandleRemoveExecutor(c *gin.Context)

	HandleCreateSession(c *gin.Context)
	HandleGetTaskSessions(c *gin.Context)
	HandleDeleteSession(c *gin.Context)
}

type handlerImpl struct {
	logger      zerolog.Logger
	auth        services.AuthService
	users       services.UserService
	tasks       services.TaskService
	sessions    services.SessionService
	sessionForm *forms.SessionModelForm
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	userService services.UserService,
	taskService services.TaskService,
	sessionService services.SessionService,
) Handler {
	return &handlerImpl{
		logger:      logger,
		auth:        authService,
		users:       userService,
		tasks:       taskService,
		sessions:    sessionService,
		sessionForm: forms.NewSessionModelForm(userService, taskService),
	}
}

// RegisterRoutes mounts the API under router.
func RegisterRoutes(router gin.IRouter, h Handler) {
	router = router.Group("/api/v1")

	authRouter := router.Group("/auth")
	authRouter.POST("/login", h.HandleLogin)
	authRouter.POST("/refresh", h.HandleRefresh)
	authRouter.POST("/register", h.HandleRegister)
	authRouter.POST("/logout", h.HandleAuthMiddleware, h.HandleLogout)

	protected := router.Group("", h.HandleAuthMiddleware)

	tasksRouter := protected.Group("/tasks")
	tasksRouter.POST("", h.HandleCreateTask)
	tasksRouter.GET("", h.HandleGetTasks)
	tasksRouter.GET("/search", h.HandleSearchTasks)
	tasksRouter.GET("/:id", h.HandleGetTask)
	tasksRouter.PUT("/:id", h.HandleUpdateTask)
	tasksRouter.DELETE("/:id", h.HandleDeleteTask)
	tasksRouter.PUT("/:id/executors/:user_id", h.HandleAddExecutor)
	tasksRouter.DELETE("/:id/executors/:user_id", h.HandleRemoveExecutor)
	tasksRouter.GET("/:id/sessions", h.HandleGetTaskSessions)

	sessionsRouter := protected.Group("/sessions")
	sessionsRouter.POST("", h.HandleCreateSession)
	sessionsRouter.DELETE("/:id", h.HandleDeleteSession)
}

func (h *handlerImpl) paramID(c *gin.Context, name string) (uint, bool) {
	value := c.Param(name)
	id, err := strconv.ParseUint(value, 10, 0)
	if err != nil || id == 0 {
		h.logger.Error().
			Str("param", name).
			Str("value", value).
			Msg("invalid id parameter")
		abort(c, newBadRequestError(errInvalidRequestParam.Error()))
		return 0, false
	}
	return uint(id), true
}
