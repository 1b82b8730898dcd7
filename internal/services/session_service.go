package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adanyl0v/go-task-tracker/internal/models"
	"github.com/adanyl0v/go-task-tracker/internal/validation"
)

type sessionServiceImpl struct {
	logger zerolog.Logger
	db     *gorm.DB
}

func NewSessionService(
	logger zerolog.Logger,
	db *gorm.DB,
) SessionService {
	return &sessionServiceImpl{
		logger: logger,
		db:     db,
	}
}

func (s *sessionServiceImpl) CreateSession(ctx context.Context, model *models.SessionModel) (*models.Session, error) {
	if model.User == nil {
		return nil, validation.NewError(validation.Violation{
			Field:      "user",
			Constraint: "required",
			Message:    "This value should not be blank.",
		})
	}
	if model.Task == nil {
		return nil, validation.NewError(validation.Violation{
			Field:      "task",
			Constraint: "required",
			Message:    "This value should not be blank.",
		})
	}

	session := model.ToSession()
	err := validation.Validate(session)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("session rejected by validation")
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(session).Error
	if err != nil {
		s.logger.Error().
			Err(err).
			Uint("user_id", session.UserID).
			Uint("task_id", model.Task.ID).
			Msg("failed to insert session")
		return nil, err
	}
	s.logger.Debug().
		Uint("session_id", session.ID).
		Time("timestamp", session.Timestamp).
		Msg("inserted session")

	s.logger.Info().
		Uint("session_id", session.ID).
		Uint("user_id", session.UserID).
		Uint("task_id", model.Task.ID).
		Msg("created session")
	return session, nil
}

func (s *sessionServiceImpl) GetSessionByID(ctx context.Context, sessionID uint) (*models.Session, error) {
	session := new(models.Session)
	err := s.db.WithContext(ctx).First(session, sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().
				Uint("session_id", sessionID).
				Msg("session not found")
			return nil, ErrSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Uint("session_id", sessionID).
			Msg("failed to select session by id")
		return nil, err
	}
	s.logger.Debug().
		Uint("session_id", session.ID).
		Msg("selected session by id")
	return session, nil
}

func (s *sessionServiceImpl) GetSessionsByTaskID(ctx context.Context, taskID uint) ([]*models.Session, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", taskID).
		Count(&count).Error
	if err != nil {
		s.logger.Error().
			Err(err).
			Uint("task_id", taskID).
			Msg("failed to count tasks")
		return nil, err
	}
	if count == 0 {
		s.logger.Error().
			Uint("task_id", taskID).
			Msg("task not found")
		return nil, ErrTaskNotFound
	}

	sessions := make([]*models.Session, 0)
	err = s.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("sessions.timestamp, sessions.id").
		Find(&sessions).Error
	if err != nil {
		s.logger.Error().
			Err(err).
			Uint("task_id", taskID).
			Msg("failed to select sessions by task id")
		return nil, err
	}

	s.logger.Debug().
		Uint("task_id", taskID).
		Int("count", len(sessions)).
		Msg("selected sessions by task id")
	return sessions, nil
}

func (s *sessionServiceImpl) DeleteSession(ctx context.Context, sessionID uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Session{}, sessionID)
	if result.Error != nil {
		s.logger.Error().
			Err(result.Error).
			Uint("session_id", sessionID).
			Msg("failed to delete session")
		return result.Error
	}
	if result.RowsAffected == 0 {
		s.logger.Error().
			Uint("session_id", sessionID).
			Msg("session not found")
		return ErrSessionNotFound
	}

	s.logger.Info().
		Uint("session_id", sessionID).
		Msg("deleted session")
	return nil
}
