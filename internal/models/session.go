package models

import "time"

// Session is a piece of work logged against a task by a user.
type Session struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-" validate:"-"`
	TaskID    *uint     `gorm:"index" json:"task_id"`
	Task      *Task     `json:"-" validate:"-"`
	Timestamp time.Time `gorm:"not null" json:"timestamp" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) SetTask(task *Task) *Session {
	s.Task = task
	s.TaskID = nil
	if task != nil && task.ID != 0 {
		id := task.ID
		s.TaskID = &id
	}
	return s
}

func (s *Session) SetUser(user *User) *Session {
	s.User = user
	s.UserID = 0
	if user != nil {
		s.UserID = user.ID
	}
	return s
}

// SessionModel backs the session creation form. It is never persisted as is;
// ToSession projects it onto an entity.
type SessionModel struct {
	User      *User
	Task      *Task
	Timestamp time.Time
}

func (m *SessionModel) ToSession() *Session {
	session := &Session{Timestamp: m.Timestamp}
	session.SetUser(m.User)
	if m.Task != nil {
		m.Task.AddSession(session)
	}
	return session
}
