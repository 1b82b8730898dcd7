package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-tracker/internal/models"
)

func (h *handlerImpl) HandleCreateSession(c *gin.Context) {
	model, err := h.sessionForm.Bind(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind session form")
		abort(c, newFormError(err))
		return
	}

	session, err := h.sessions.CreateSession(c, model)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create session")
		abort(c, newServiceError(err))
		return
	}

	h.logger.Info().
		Uint("session_id", session.ID).
		Msg("created session")
	c.JSON(http.StatusCreated, session.Card())
}

func (h *handlerImpl) HandleGetTaskSessions(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	sessions, err := h.sessions.GetSessionsByTaskID(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Uint("task_id", taskID).
			Msg("failed to get sessions")
		abort(c, newServiceError(err))
		return
	}

	response := make([]models.SessionCard, len(sessions))
	for i, session := range sessions {
		response[i] = session.Card()
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleDeleteSession(c *gin.Context) {
	sessionID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	err := h.sessions.DeleteSession(c, sessionID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Uint("session_id", sessionID).
			Msg("failed to delete session")
		abort(c, newServiceError(err))
		return
	}

	h.logger.Info().
		Uint("session_id", sessionID).
		Msg("deleted session")
	c.Status(http.StatusNoContent)
}
