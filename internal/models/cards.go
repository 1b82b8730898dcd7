package models

import "time"

// Serialization groups of a task.
const (
	FullCard   = "full_card"
	SearchCard = "elastica"
)

type ExecutorCard struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type SessionCard struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	TaskID    *uint     `json:"task_id"`
	Timestamp time.Time `json:"timestamp"`
}

type TaskSearchCard struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Estimate    int    `json:"estimate"`
}

type TaskFullCard struct {
	TaskSearchCard
	Executors []ExecutorCard `json:"executors"`
	Sessions  []SessionCard  `json:"sessions"`
}

// Card returns the view of t exposed by the given group. Unknown groups fall
// back to the search card, which carries no relations.
func (t *Task) Card(group string) any {
	switch group {
	case FullCard:
		return t.FullCard()
	default:
		return t.SearchCard()
	}
}

func (t *Task) SearchCard() TaskSearchCard {
	return TaskSearchCard{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Estimate:    t.Estimate,
	}
}

func (t *Task) FullCard() TaskFullCard {
	card := TaskFullCard{
		TaskSearchCard: t.SearchCard(),
		Executors:      make([]ExecutorCard, 0, len(t.Executors)),
		Sessions:       make([]SessionCard, 0, len(t.Sessions)),
	}
	for _, executor := range t.Executors {
		card.Executors = append(card.Executors, ExecutorCard{
			ID:    executor.ID,
			Email: executor.Email,
		})
	}
	for _, session := range t.Sessions {
		card.Sessions = append(card.Sessions, session.Card())
	}
	return card
}

func (s *Session) Card() SessionCard {
	return SessionCard{
		ID:        s.ID,
		UserID:    s.UserID,
		TaskID:    s.TaskID,
		Timestamp: s.Timestamp,
	}
}
