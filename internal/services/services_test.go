package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adanyl0v/go-task-tracker/internal/models"
	"github.com/adanyl0v/go-task-tracker/internal/storage"
	"github.com/adanyl0v/go-task-tracker/internal/validation"
)

type fixture struct {
	db       *gorm.DB
	users    UserService
	tasks    TaskService
	sessions SessionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zerolog.Nop()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "tasks.db"), logger)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := storage.Migrate(db.DB); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	users := NewUserService(logger, db.DB)
	return &fixture{
		db:       db.DB,
		users:    users,
		tasks:    NewTaskService(logger, db.DB, users),
		sessions: NewSessionService(logger, db.DB),
	}
}

func (f *fixture) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "hash"}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func (f *fixture) createTask(t *testing.T, title string, executorIDs ...uint) *models.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(context.Background(), CreateTaskParams{
		Title:       title,
		Description: title + " description",
		ExecutorIDs: executorIDs,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	return task
}

func (f *fixture) createSession(t *testing.T, user *models.User, task *models.Task, ts time.Time) *models.Session {
	t.Helper()
	session, err := f.sessions.CreateSession(context.Background(), &models.SessionModel{
		User:      user,
		Task:      task,
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return session
}

func executorIDs(task *models.Task) []uint {
	ids := make([]uint, 0, len(task.Executors))
	for _, executor := range task.Executors {
		ids = append(ids, executor.ID)
	}
	return ids
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice@example.com")
	bob := f.createUser(t, "bob@example.com")

	created := f.createTask(t, "Fix bug", alice.ID, bob.ID, alice.ID)
	if created.ID == 0 {
		t.Fatal("expected generated id")
	}

	task, err := f.tasks.GetTaskByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if task.Priority != 1 || task.Estimate != 1 {
		t.Errorf("expected default priority and estimate, got %d and %d", task.Priority, task.Estimate)
	}
	if ids := executorIDs(task); len(ids) != 2 || ids[0] != alice.ID || ids[1] != bob.ID {
		t.Errorf("expected executors [%d %d], got %v", alice.ID, bob.ID, ids)
	}
}

func TestCreateTaskRejectsInvalid(t *testing.T) {
	f := newFixture(t)
	zero := 0

	_, err := f.tasks.CreateTask(context.Background(), CreateTaskParams{
		Description: "NPE on login",
		Priority:    &zero,
	})

	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !verr.Has("title", "required") || !verr.Has("priority", "gt") {
		t.Errorf("unexpected violations %+v", verr.Violations)
	}
}

func TestCreateTaskUnknownExecutor(t *testing.T) {
	f := newFixture(t)
	_, err := f.tasks.CreateTask(context.Background(), CreateTaskParams{
		Title:       "Fix bug",
		Description: "NPE on login",
		ExecutorIDs: []uint{42},
	})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetTaskByIDNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.tasks.GetTaskByID(context.Background(), 99)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestUpdateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice@example.com")
	bob := f.createUser(t, "bob@example.com")

	target := f.createTask(t, "Target", alice.ID)
	other := f.createTask(t, "Other")
	kept := f.createSession(t, alice, target, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	moved := f.createSession(t, bob, other, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))

	updated, err := f.tasks.UpdateTask(ctx, UpdateTaskParams{
		ID:          target.ID,
		Title:       "Fix bug",
		Description: "NPE on login",
		Priority:    2,
		Estimate:    3,
		ExecutorIDs: []uint{bob.ID},
		SessionIDs:  []uint{moved.ID},
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	if updated.Title != "Fix bug" || updated.Description != "NPE on login" {
		t.Errorf("scalars not updated: %q %q", updated.Title, updated.Description)
	}
	if updated.Priority != 2 || updated.Estimate != 3 {
		t.Errorf("expected priority 2 estimate 3, got %d %d", updated.Priority, updated.Estimate)
	}
	if ids := executorIDs(updated); len(ids) != 1 || ids[0] != bob.ID {
		t.Errorf("expected executors [%d], got %v", bob.ID, ids)
	}
	if len(updated.Sessions) != 1 || updated.Sessions[0].ID != moved.ID {
		t.Fatalf("expected only the moved session, got %+v", updated.Sessions)
	}
	if updated.Sessions[0].Task != updated {
		t.Error("loaded session does not reference its task")
	}

	detached, err := f.sessions.GetSessionByID(ctx, kept.ID)
	if err != nil {
		t.Fatalf("GetSessionByID failed: %v", err)
	}
	if detached.TaskID != nil {
		t.Errorf("expected replaced session to be detached, got task %d", *detached.TaskID)
	}

	remaining, err := f.sessions.GetSessionsByTaskID(ctx, other.ID)
	if err != nil {
		t.Fatalf("GetSessionsByTaskID failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected the moved session to leave its old task, got %d", len(remaining))
	}
}

func TestUpdateTaskRejectsInvalid(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "Target")

	_, err := f.tasks.UpdateTask(context.Background(), UpdateTaskParams{
		ID:          task.ID,
		Title:       "Fix bug",
		Description: "NPE on login",
		Priority:    1,
		Estimate:    0,
	})

	var verr *validation.Error
	if !errors.As(err, &verr) || !verr.Has("estimate", "gt") {
		t.Fatalf("expected estimate violation, got %v", err)
	}

	stored, err := f.tasks.GetTaskByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if stored.Title != "Target" {
		t.Errorf("rejected update was persisted: %q", stored.Title)
	}
}

func TestUpdateTaskUnknownSession(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "Target")

	_, err := f.tasks.UpdateTask(context.Background(), UpdateTaskParams{
		ID:          task.ID,
		Title:       "Fix bug",
		Description: "NPE on login",
		Priority:    1,
		Estimate:    1,
		SessionIDs:  []uint{7},
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAddAndRemoveExecutor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice@example.com")
	task := f.createTask(t, "Fix bug")

	for i := 0; i < 2; i++ {
		updated, err := f.tasks.AddExecutor(ctx, task.ID, alice.ID)
		if err != nil {
			t.Fatalf("AddExecutor failed: %v", err)
		}
		if len(updated.Executors) != 1 {
			t.Errorf("expected 1 executor in memory, got %d", len(updated.Executors))
		}
	}

	stored, err := f.tasks.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if ids := executorIDs(stored); len(ids) != 1 || ids[0] != alice.ID {
		t.Fatalf("expected executors [%d], got %v", alice.ID, ids)
	}

	for i := 0; i < 2; i++ {
		_, err = f.tasks.RemoveExecutor(ctx, task.ID, alice.ID)
		if err != nil {
			t.Fatalf("RemoveExecutor failed: %v", err)
		}
	}

	stored, err = f.tasks.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if len(stored.Executors) != 0 {
		t.Errorf("expected no executors, got %v", executorIDs(stored))
	}

	_, err = f.tasks.AddExecutor(ctx, task.ID, 404)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice@example.com")
	task := f.createTask(t, "Fix bug", alice.ID)
	session := f.createSession(t, alice, task, time.Now().UTC())

	if err := f.tasks.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if _, err := f.tasks.GetTaskByID(ctx, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound after delete, got %v", err)
	}
	if err := f.tasks.DeleteTask(ctx, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound on second delete, got %v", err)
	}

	stored, err := f.sessions.GetSessionByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSessionByID failed: %v", err)
	}
	if stored.TaskID != nil {
		t.Error("expected session to outlive its task without a reference")
	}
}

func TestSearchTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createTask(t, "Fix login bug")
	f.createTask(t, "Write docs")

	tasks, err := f.tasks.SearchTasks(ctx, "LOGIN", 0, 0)
	if err != nil {
		t.Fatalf("SearchTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Fix login bug" {
		t.Errorf("unexpected search result %+v", tasks)
	}

	all, err := f.tasks.GetTasks(ctx, 0, 1)
	if err != nil {
		t.Fatalf("GetTasks failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected limit to apply, got %d", len(all))
	}
}

func TestSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice@example.com")
	task := f.createTask(t, "Fix bug")

	later := f.createSession(t, alice, task, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	earlier := f.createSession(t, alice, task, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if later.TaskID == nil || *later.TaskID != task.ID {
		t.Fatal("created session does not reference its task")
	}

	sessions, err := f.sessions.GetSessionsByTaskID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetSessionsByTaskID failed: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != earlier.ID {
		t.Errorf("expected sessions ordered by timestamp, got %+v", sessions)
	}

	if _, err := f.sessions.GetSessionsByTaskID(ctx, 404); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}

	if err := f.sessions.DeleteSession(ctx, later.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if err := f.sessions.DeleteSession(ctx, later.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	_, err = f.sessions.CreateSession(ctx, &models.SessionModel{User: alice, Task: task})
	var verr *validation.Error
	if !errors.As(err, &verr) || !verr.Has("timestamp", "required") {
		t.Errorf("expected timestamp violation, got %v", err)
	}
}
