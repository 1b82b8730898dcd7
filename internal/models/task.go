package models

import "time"

const (
	DefaultTaskPriority = 1
	DefaultTaskEstimate = 1
)

// Task is a unit of work assigned to executors and tracked through sessions.
//
// Executors is the inverse side of the user_tasks relation: the owning side
// is User.Tasks, so executors should be added through User.AddTask when the
// relation must be persisted from the user.
type Task struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string     `gorm:"type:text;not null" json:"title" validate:"required"`
	Description string     `gorm:"type:text;not null" json:"description" validate:"required"`
	Priority    int        `gorm:"not null;default:1" json:"priority" validate:"gt=0"`
	Estimate    int        `gorm:"default:1" json:"estimate" validate:"gt=0"`
	Executors   []*User    `gorm:"many2many:user_tasks;" json:"executors" validate:"-"`
	Sessions    []*Session `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"sessions" validate:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

func NewTask() *Task {
	return &Task{
		Priority:  DefaultTaskPriority,
		Estimate:  DefaultTaskEstimate,
		Executors: make([]*User, 0),
		Sessions:  make([]*Session, 0),
	}
}

func (t *Task) String() string {
	if t.Title == "" {
		return "n/a"
	}
	return t.Title
}

func (t *Task) SetTitle(title string) *Task {
	t.Title = title
	return t
}

func (t *Task) SetDescription(description string) *Task {
	t.Description = description
	return t
}

func (t *Task) SetPriority(priority int) *Task {
	t.Priority = priority
	return t
}

func (t *Task) SetEstimate(estimate int) *Task {
	t.Estimate = estimate
	return t
}

func (t *Task) SetExecutors(executors []*User) *Task {
	t.Executors = executors
	return t
}

// AddExecutor appends the user unless it is already an executor.
func (t *Task) AddExecutor(user *User) *Task {
	if indexOfUser(t.Executors, user) < 0 {
		t.Executors = append(t.Executors, user)
	}
	return t
}

// RemoveExecutor is a no-op when the user is not an executor.
func (t *Task) RemoveExecutor(user *User) *Task {
	if i := indexOfUser(t.Executors, user); i >= 0 {
		t.Executors = append(t.Executors[:i], t.Executors[i+1:]...)
	}
	return t
}

func (t *Task) SetSessions(sessions []*Session) *Task {
	t.Sessions = sessions
	return t
}

// AddSession appends the session and points its task reference at t.
// Adding a session that is already present changes nothing.
func (t *Task) AddSession(session *Session) *Task {
	if indexOfSession(t.Sessions, session) < 0 {
		t.Sessions = append(t.Sessions, session)
		session.SetTask(t)
	}
	return t
}

// RemoveSession is a no-op when the session is not present. The session
// keeps its task reference.
func (t *Task) RemoveSession(session *Session) *Task {
	if i := indexOfSession(t.Sessions, session); i >= 0 {
		t.Sessions = append(t.Sessions[:i], t.Sessions[i+1:]...)
	}
	return t
}

// Update merges other into t. Scalars and the sessions collection are copied
// as they are; executors are cleared and rebuilt through each executor's
// AddTask, so the relation is re-derived from the owning User side.
//
// Sessions copied from other keep their own task reference.
func (t *Task) Update(other *Task) {
	t.SetTitle(other.Title).
		SetDescription(other.Description).
		SetEstimate(other.Estimate).
		SetPriority(other.Priority).
		SetSessions(append(make([]*Session, 0, len(other.Sessions)), other.Sessions...)).
		SetExecutors(make([]*User, 0, len(other.Executors)))

	for _, executor := range other.Executors {
		executor.AddTask(t)
	}
}

func indexOfUser(users []*User, user *User) int {
	for i, u := range users {
		if sameEntity(u, user, func(u *User) uint { return u.ID }) {
			return i
		}
	}
	return -1
}

func indexOfSession(sessions []*Session, session *Session) int {
	for i, s := range sessions {
		if sameEntity(s, session, func(s *Session) uint { return s.ID }) {
			return i
		}
	}
	return -1
}

func indexOfTask(tasks []*Task, task *Task) int {
	for i, t := range tasks {
		if sameEntity(t, task, func(t *Task) uint { return t.ID }) {
			return i
		}
	}
	return -1
}

// sameEntity treats two pointers as the same entity when they are identical
// or both are persisted with the same primary key.
func sameEntity[T any](a, b *T, id func(*T) uint) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return id(a) != 0 && id(a) == id(b)
}
