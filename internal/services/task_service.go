package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adanyl0v/go-task-tracker/internal/models"
	"github.com/adanyl0v/go-task-tracker/internal/validation"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	db     *gorm.DB
	users  UserService
}

func NewTaskService(
	logger zerolog.Logger,
	db *gorm.DB,
	users UserService,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		db:     db,
		users:  users,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	task := models.NewTask().
		SetTitle(params.Title).
		SetDescription(params.Description)
	if params.Priority != nil {
		task.SetPriority(*params.Priority)
	}
	if params.Estimate != nil {
		task.SetEstimate(*params.Estimate)
	}

	err := validation.Validate(task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("task rejected by validation")
		return nil, err
	}

	executors, err := s.users.GetUsersByIDs(ctx, params.ExecutorIDs)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit("Executors", "Sessions").Create(task).Error
		if err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}

		for _, executor := range executors {
			executor.AddTask(task)
			err = tx.Model(&models.User{ID: executor.ID}).
				Association("Tasks").
				Append(detachedTask(task))
			if err != nil {
				return fmt.Errorf("failed to add executor %d: %w", executor.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to create task")
		return nil, err
	}
	s.logger.Debug().
		Uint("task_id", task.ID).
		Int("executors", len(task.Executors)).
		Msg("inserted task")

	s.logger.Info().
		Uint("task_id", task.ID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTaskByID(ctx context.Context, taskID uint) (*models.Task, error) {
	task := new(models.Task)
	err := s.preloaded(s.db.WithContext(ctx)).First(task, taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().
				Uint("task_id", taskID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Uint("task_id", taskID).
			Msg("failed to select task by id")
		return nil, err
	}
	linkSessions(task)

	s.logger.Debug().
		Uint("task_id", task.ID).
		Int("executors", len(task.Executors)).
		Int("sessions", len(task.Sessions)).
		Msg("selected task by id")
	return task, nil
}

func (s *taskServiceImpl) GetTasks(ctx context.Context, offset, limit int) ([]*models.Task, error) {
	offset, limit = normalizePage(offset, limit)

	tasks := make([]*models.Task, 0, limit)
	err := s.preloaded(s.db.WithContext(ctx)).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	for _, task := range tasks {
		linkSessions(task)
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Int("offset", offset).
		Msg("selected tasks")
	return tasks, nil
}

func (s *taskServiceImpl) SearchTasks(ctx context.Context, query string, offset, limit int) ([]*models.Task, error) {
	offset, limit = normalizePage(offset, limit)
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	tasks := make([]*models.Task, 0, limit)
	err := s.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Order("priority DESC, id").
		Offset(offset).
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("query", query).
			Msg("failed to search tasks")
		return nil, err
	}

	s.logger.Info().
		Str("query", query).
		Int("count", len(tasks)).
		Msg("searched tasks")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	task, err := s.GetTaskByID(ctx, params.ID)
	if err != nil {
		return nil, err
	}

	executors, err := s.users.GetUsersByIDs(ctx, params.ExecutorIDs)
	if err != nil {
		return nil, err
	}

	sessions, err := s.getSessionsByIDs(ctx, params.SessionIDs)
	if err != nil {
		return nil, err
	}

	source := models.NewTask().
		SetTitle(params.Title).
		SetDescription(params.Description).
		SetPriority(params.Priority).
		SetEstimate(params.Estimate)
	for _, executor := range executors {
		source.AddExecutor(executor)
	}
	for _, session := range sessions {
		source.AddSession(session)
	}

	err = validation.Validate(source)
	if err != nil {
		s.logger.Error().
			Err(err).
			Uint("task_id", task.ID).
			Msg("task update rejected by validation")
		return nil, err
	}

	task.Update(source)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Task{ID: task.ID}).
			Updates(map[string]any{
				"title":       task.Title,
				"description": task.Description,
				"priority":    task.Priority,
				"estimate":    task.Estimate,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update task columns: %w", err)
		}

		stub := &models.Task{ID: task.ID}
		err = replaceAssociation(tx.Model(stub).Association("Executors"), detachedUsers(task.Executors))
		if err != nil {
			return fmt.Errorf("failed to replace executors: %w", err)
		}

		err = replaceAssociation(tx.Model(stub).Association("Sessions"), detachedSessions(task.Sessions))
		if err != nil {
			return fmt.Errorf("failed to replace sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Uint("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}
	s.logger.Debug().
		Uint("task_id", task.ID).
		Int("executors", len(task.Executors)).
		Int("sessions", len(task.Sessions)).
		Msg("updated task")

	s.logger.Info().
		Uint("task_id", task.ID).
		Msg("updated task")
	return s.GetTaskByID(ctx, task.ID)
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stub := &models.Task{ID: taskID}
		err := tx.Model(stub).Association("Executors").Clear()
		if err != nil {
			return fmt.Errorf("failed to clear executors: %w", err)
		}

		err = tx.Model(&models.Session{}).
			Where("task_id = ?", taskID).
			Update("task_id", nil).Error
		if err != nil {
			return fmt.Errorf("failed to detach sessions: %w", err)
		}

		result := tx.Delete(stub)
		if result.Error != nil {
			return fmt.Errorf("failed to delete task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			s.logger.Error().
				Uint("task_id", taskID).
				Msg("task not found")
			return ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Uint("task_id", taskID).
			Msg("failed to delete task")
		return err
	}

	s.logger.Info().
		Uint("task_id", taskID).
		Msg("deleted task")
	return nil
}

// AddExecutor persists the relation from the owning User side.
func (s *taskServiceImpl) AddExecutor(ctx context.Context, taskID, userID uint) (*models.Task, error) {
	task, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.AddTask(task)

	err = s.db.WithContext(ctx).
		Model(&models.User{ID: user.ID}).
		Association("Tasks").
		Append(detachedTask(task))
	if err != nil {
		s.logger.Error().
			Err(err).
			Uint("task_id", taskID).
			Uint("user_id", userID).
			Msg("failed to add executor")
		return nil, err
	}

	s.logger.Info().
		Uint("task_id", taskID).
		Uint("user_id", userID).
		Msg("added executor")
	return task, nil
}

func (s *taskServiceImpl) RemoveExecutor(ctx context.Context, taskID, userID uint) (*models.Task, error) {
	task, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.RemoveTask(task)

	err = s.db.WithContext(ctx).
		Model(&models.User{ID: user.ID}).
		Association("Tasks").
		Delete(&models.Task{ID: task.ID})
	if err != nil {
		s.logger.Error().
			Err(err).
			Uint("task_id", taskID).
			Uint("user_id", userID).
			Msg("failed to remove executor")
		return nil, err
	}

	s.logger.Info().
		Uint("task_id", taskID).
		Uint("user_id", userID).
		Msg("removed executor")
	return task, nil
}

func (s *taskServiceImpl) getSessionsByIDs(ctx context.Context, sessionIDs []uint) ([]*models.Session, error) {
	ids := uniqueIDs(sessionIDs)
	if len(ids) == 0 {
		return make([]*models.Session, 0), nil
	}

	var sessions []*models.Session
	err := s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("sessions.timestamp, sessions.id").
		Find(&sessions).Error
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select sessions by ids")
		return nil, err
	}

	if len(sessions) != len(ids) {
		s.logger.Error().
			Int("requested", len(ids)).
			Int("found", len(sessions)).
			Msg("some sessions not found")
		return nil, fmt.Errorf("%w: requested %d, found %d", ErrSessionNotFound, len(ids), len(sessions))
	}
	return sessions, nil
}

func (s *taskServiceImpl) preloaded(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Executors", func(db *gorm.DB) *gorm.DB {
			return db.Order("users.id")
		}).
		Preload("Sessions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sessions.timestamp, sessions.id")
		})
}

func replaceAssociation[T any](association *gorm.Association, values []T) error {
	if len(values) == 0 {
		return association.Clear()
	}
	return association.Replace(values)
}

// linkSessions restores the back references that preloading leaves nil.
func linkSessions(task *models.Task) {
	for _, session := range task.Sessions {
		session.Task = task
	}
}

// The detached* helpers strip relations off entities before they are handed
// to gorm's association mode, which would otherwise upsert the whole graph.

func detachedTask(task *models.Task) *models.Task {
	t := *task
	t.Executors = nil
	t.Sessions = nil
	return &t
}

func detachedUsers(users []*models.User) []*models.User {
	out := make([]*models.User, 0, len(users))
	for _, user := range users {
		u := *user
		u.Tasks = nil
		out = append(out, &u)
	}
	return out
}

func detachedSessions(sessions []*models.Session) []*models.Session {
	out := make([]*models.Session, 0, len(sessions))
	for _, session := range sessions {
		s := *session
		s.Task = nil
		s.User = nil
		out = append(out, &s)
	}
	return out
}
