package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-tracker/internal/models"
	"github.com/adanyl0v/go-task-tracker/internal/services"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    *int   `json:"priority,omitempty"`
	Estimate    *int   `json:"estimate,omitempty"`
	Executors   []uint `json:"executors,omitempty"`
}

// updateTaskRequest replaces the whole task, collections included.
type updateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Estimate    int    `json:"estimate"`
	Executors   []uint `json:"executors"`
	Sessions    []uint `json:"sessions"`
}

type pageRequest struct {
	Offset int `form:"offset" binding:"omitempty,min=0"`
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type searchRequest struct {
	pageRequest
	Query string `form:"q" binding:"required"`
}

func newFullCards(tasks []*models.Task) []models.TaskFullCard {
	cards := make([]models.TaskFullCard, len(tasks))
	for i, task := range tasks {
		cards[i] = task.FullCard()
	}
	return cards
}

func newSearchCards(tasks []*models.Task) []models.TaskSearchCard {
	cards := make([]models.TaskSearchCard, len(tasks))
	for i, task := range tasks {
		cards[i] = task.SearchCard()
	}
	return cards
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBindError(err))
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Estimate:    req.Estimate,
		ExecutorIDs: req.Executors,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		abort(c, newServiceError(err))
		return
	}

	h.logger.Info().
		Uint("task_id", task.ID).
		Msg("created task")
	c.JSON(http.StatusCreated, task.Card(models.FullCard))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	var req pageRequest
	err := c.ShouldBindQuery(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind query")
		abort(c, newBindError(err))
		return
	}

	tasks, err := h.tasks.GetTasks(c, req.Offset, req.Limit)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get tasks")
		abort(c, newServiceError(err))
		return
	}

	h.logger.Info().
		Int("count", len(tasks)).
		Msg("fetched tasks")
	c.JSON(http.StatusOK, newFullCards(tasks))
}

func (h *handlerImpl) HandleSearchTasks(c *gin.Context) {
	var req searchRequest
	err := c.ShouldBindQuery(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind query")
		abort(c, newBindError(err))
		return
	}

	tasks, err := h.tasks.SearchTasks(c, req.Query, req.Offset, req.Limit)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to search tasks")
		abort(c, newServiceError(err))
		return
	}
	c.JSON(http.StatusOK, newSearchCards(tasks))
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.GetTaskByID(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Uint("task_id", taskID).
			Msg("failed to get task")
		abort(c, newServiceError(err))
		return
	}
	c.JSON(http.StatusOK, task.Card(models.FullCard))
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBindError(err))
		return
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:          taskID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Estimate:    req.Estimate,
		ExecutorIDs: req.Executors,
		SessionIDs:  req.Sessions,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Uint("task_id", taskID).
			Msg("failed to update task")
		abort(c, newServiceError(err))
		return
	}

	h.logger.Info().
		Uint("task_id", task.ID).
		Msg("updated task")
	c.JSON(http.StatusOK, task.Card(models.FullCard))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Uint("task_id", taskID).
			Msg("failed to delete task")
		abort(c, newServiceError(err))
		return
	}

	h.logger.Info().
		Uint("task_id", taskID).
		Msg("deleted task")
	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleAddExecutor(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := h.paramID(c, "user_id")
	if !ok {
		return
	}

	task, err := h.tasks.AddExecutor(c, taskID, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Uint("task_id", taskID).
			Uint("user_id", userID).
			Msg("failed to add executor")
		abort(c, newServiceError(err))
		return
	}
	c.JSON(http.StatusOK, task.Card(models.FullCard))
}

func (h *handlerImpl) HandleRemoveExecutor(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := h.paramID(c, "user_id")
	if !ok {
		return
	}

	task, err := h.tasks.RemoveExecutor(c, taskID, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Uint("task_id", taskID).
			Uint("user_id", userID).
			Msg("failed to remove executor")
		abort(c, newServiceError(err))
		return
	}
	c.JSON(http.StatusOK, task.Card(models.FullCard))
}
