package forms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/adanyl0v/go-task-tracker/internal/models"
	"github.com/adanyl0v/go-task-tracker/internal/services"
	"github.com/adanyl0v/go-task-tracker/internal/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	binding.Validator = validation.NewBindingValidator()
	os.Exit(m.Run())
}

type stubLoader struct {
	users map[uint]*models.User
	tasks map[uint]*models.Task
	err   error
}

func (s *stubLoader) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, services.ErrUserNotFound
}

func (s *stubLoader) GetTaskByID(_ context.Context, id uint) (*models.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	if task, ok := s.tasks[id]; ok {
		return task, nil
	}
	return nil, services.ErrTaskNotFound
}

func newStubLoader() *stubLoader {
	task := models.NewTask().SetTitle("Fix bug").SetDescription("NPE on login")
	task.ID = 2
	return &stubLoader{
		users: map[uint]*models.User{1: {ID: 1, Email: "alice@example.com"}},
		tasks: map[uint]*models.Task{2: task},
	}
}

func newContext(method, contentType, body string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(method, "/sessions", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", contentType)
	return c
}

func TestBindJSON(t *testing.T) {
	loader := newStubLoader()
	form := NewSessionModelForm(loader, loader)

	c := newContext(http.MethodPost, "application/json",
		`{"user": 1, "task": 2, "timestamp": "2024-03-01T09:30:00Z"}`)
	model, err := form.Bind(c)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	if model.User != loader.users[1] || model.Task != loader.tasks[2] {
		t.Errorf("references not resolved to the loaded entities: %+v", model)
	}
	want := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	if !model.Timestamp.Equal(want) {
		t.Errorf("expected %v, got %v", want, model.Timestamp)
	}
	if len(loader.tasks[2].Sessions) != 0 {
		t.Error("binding must not touch the referenced task")
	}
}

func TestBindURLEncoded(t *testing.T) {
	loader := newStubLoader()
	form := NewSessionModelForm(loader, loader)

	values := url.Values{}
	values.Set("user", "1")
	values.Set("task", "2")
	values.Set("timestamp", "2024-03-01T09:30:00+02:00")

	c := newContext(http.MethodPost, "application/x-www-form-urlencoded", values.Encode())
	model, err := form.Bind(c)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if model.User.ID != 1 || model.Task.ID != 2 {
		t.Errorf("unexpected references: %+v", model)
	}
	if model.Timestamp.UTC().Hour() != 7 {
		t.Errorf("timestamp offset lost: %v", model.Timestamp)
	}
}

func TestBindMissingFields(t *testing.T) {
	loader := newStubLoader()
	form := NewSessionModelForm(loader, loader)

	c := newContext(http.MethodPost, "application/json", `{"task": 2}`)
	_, err := form.Bind(c)

	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !verr.Has("user", "required") || !verr.Has("timestamp", "required") {
		t.Errorf("unexpected violations %+v", verr.Violations)
	}
}

func TestSubmitUnknownReferences(t *testing.T) {
	loader := newStubLoader()
	form := NewSessionModelForm(loader, loader)
	user, task := uint(9), uint(8)

	_, err := form.Submit(context.Background(), SessionModelData{
		User:      &user,
		Task:      &task,
		Timestamp: time.Now(),
	})

	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !verr.Has("user", "choice") || !verr.Has("task", "choice") {
		t.Errorf("unexpected violations %+v", verr.Violations)
	}
}

func TestSubmitLoaderFailure(t *testing.T) {
	loader := newStubLoader()
	loader.err = errors.New("connection refused")
	form := NewSessionModelForm(loader, loader)
	user, task := uint(1), uint(2)

	_, err := form.Submit(context.Background(), SessionModelData{
		User:      &user,
		Task:      &task,
		Timestamp: time.Now(),
	})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected loader error, got %v", err)
	}
}
