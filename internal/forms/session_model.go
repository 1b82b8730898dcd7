package forms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-tracker/internal/models"
	"github.com/adanyl0v/go-task-tracker/internal/services"
	"github.com/adanyl0v/go-task-tracker/internal/validation"
)

const invalidChoiceMessage = "This value is not valid."

// ErrInvalidData wraps failures to decode or bind the submitted body.
var ErrInvalidData = errors.New("invalid form data")

type UserLoader interface {
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
}

type TaskLoader interface {
	GetTaskByID(ctx context.Context, taskID uint) (*models.Task, error)
}

// SessionModelData is the submitted form: entity references by ID plus
// the timestamp, RFC 3339 in both JSON and urlencoded bodies.
type SessionModelData struct {
	User      *uint     `json:"user" form:"user" binding:"required"`
	Task      *uint     `json:"task" form:"task" binding:"required"`
	Timestamp time.Time `json:"timestamp" form:"timestamp" time_format:"2006-01-02T15:04:05Z07:00" binding:"required"`
}

// SessionModelForm maps a submitted session onto a fresh SessionModel.
// References are resolved to entities and every field is assigned
// explicitly; nothing is written through to existing objects.
type SessionModelForm struct {
	users UserLoader
	tasks TaskLoader
}

func NewSessionModelForm(users UserLoader, tasks TaskLoader) *SessionModelForm {
	return &SessionModelForm{
		users: users,
		tasks: tasks,
	}
}

// Bind reads the request body with gin's binding and submits it. Binding
// failures are wrapped in ErrInvalidData.
func (f *SessionModelForm) Bind(c *gin.Context) (*models.SessionModel, error) {
	var data SessionModelData
	err := c.ShouldBind(&data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	return f.Submit(c, data)
}

// Submit resolves the references of data. Unknown users or tasks become
// field-level violations.
func (f *SessionModelForm) Submit(ctx context.Context, data SessionModelData) (*models.SessionModel, error) {
	var violations []validation.Violation

	var user *models.User
	if data.User == nil {
		violations = append(violations, blankViolation("user"))
	} else {
		var err error
		user, err = f.users.GetUserByID(ctx, *data.User)
		if err != nil {
			if !errors.Is(err, services.ErrUserNotFound) {
				return nil, err
			}
			violations = append(violations, invalidChoice("user"))
		}
	}

	var task *models.Task
	if data.Task == nil {
		violations = append(violations, blankViolation("task"))
	} else {
		var err error
		task, err = f.tasks.GetTaskByID(ctx, *data.Task)
		if err != nil {
			if !errors.Is(err, services.ErrTaskNotFound) {
				return nil, err
			}
			violations = append(violations, invalidChoice("task"))
		}
	}

	if data.Timestamp.IsZero() {
		violations = append(violations, blankViolation("timestamp"))
	}

	if len(violations) > 0 {
		return nil, validation.NewError(violations...)
	}

	model := new(models.SessionModel)
	model.User = user
	model.Task = task
	model.Timestamp = data.Timestamp
	return model, nil
}

func blankViolation(field string) validation.Violation {
	return validation.Violation{
		Field:      field,
		Constraint: "required",
		Message:    "This value should not be blank.",
	}
}

func invalidChoice(field string) validation.Violation {
	return validation.Violation{
		Field:      field,
		Constraint: "choice",
		Message:    invalidChoiceMessage,
	}
}
