package models

import "time"

// User owns the user_tasks relation; Task.Executors is its inverse side.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email" validate:"required,email,max=255"`
	Password  string    `gorm:"not null" json:"-" validate:"-"`
	Tasks     []*Task   `gorm:"many2many:user_tasks;" json:"-" validate:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) String() string {
	return u.Email
}

// AddTask records the task on the owning side and mirrors the user into the
// task's executors. Both sides ignore duplicates, so the call is idempotent.
func (u *User) AddTask(task *Task) *User {
	if indexOfTask(u.Tasks, task) < 0 {
		u.Tasks = append(u.Tasks, task)
	}
	task.AddExecutor(u)
	return u
}

func (u *User) RemoveTask(task *Task) *User {
	if i := indexOfTask(u.Tasks, task); i >= 0 {
		u.Tasks = append(u.Tasks[:i], u.Tasks[i+1:]...)
	}
	task.RemoveExecutor(u)
	return u
}
