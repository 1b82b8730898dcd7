package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-task-tracker/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrAuthSessionNotFound  = errors.New("auth session not found")
	ErrAuthSessionExpired   = errors.New("auth session expired")
	ErrTaskNotFound         = errors.New("task not found")
	ErrSessionNotFound      = errors.New("session not found")
)

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all auth sessions of the user, creates
	// a new one and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh rotates the refresh token of the auth session.
	//
	// It returns ErrAuthSessionNotFound if no session matches the
	// refresh token and fingerprint, or ErrAuthSessionExpired if
	// the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given email and password.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Logout invalidates all auth sessions of the user.
	Logout(ctx context.Context, userID uint) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or an error wrapping jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)

	// GetAuthSessionByID returns ErrAuthSessionNotFound for unknown IDs.
	GetAuthSessionByID(ctx context.Context, sessionID string) (*models.AuthSession, error)
}

type UserService interface {
	// GetUserByID returns ErrUserNotFound for unknown IDs.
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
	GetUsersByIDs(ctx context.Context, userIDs []uint) ([]*models.User, error)
}

type TaskService interface {
	// CreateTask validates and inserts the task. A rejected task
	// yields a *validation.Error.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// GetTaskByID loads the task with its executors and sessions.
	GetTaskByID(ctx context.Context, taskID uint) (*models.Task, error)

	GetTasks(ctx context.Context, offset, limit int) ([]*models.Task, error)

	// SearchTasks matches the query against title and description,
	// ignoring case.
	SearchTasks(ctx context.Context, query string, offset, limit int) ([]*models.Task, error)

	// UpdateTask merges the params into the stored task with
	// models.Task.Update: sessions are replaced and executors are
	// rebuilt from the given users.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	DeleteTask(ctx context.Context, taskID uint) error

	AddExecutor(ctx context.Context, taskID, userID uint) (*models.Task, error)
	RemoveExecutor(ctx context.Context, taskID, userID uint) (*models.Task, error)
}

type SessionService interface {
	// CreateSession persists the session described by the form model
	// and attaches it to the model's task.
	CreateSession(ctx context.Context, model *models.SessionModel) (*models.Session, error)

	GetSessionByID(ctx context.Context, sessionID uint) (*models.Session, error)
	GetSessionsByTaskID(ctx context.Context, taskID uint) ([]*models.Session, error)
	DeleteSession(ctx context.Context, sessionID uint) error
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type LoginResult struct {
	UserID                uint
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type CreateTaskParams struct {
	Title       string
	Description string
	// Nil values fall back to the task defaults.
	Priority    *int
	Estimate    *int
	ExecutorIDs []uint
}

type UpdateTaskParams struct {
	ID          uint
	Title       string
	Description string
	Priority    int
	Estimate    int
	ExecutorIDs []uint
	SessionIDs  []uint
}

const defaultLimit = 32

func normalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return offset, limit
}
