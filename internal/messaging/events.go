// Package messaging publishes story lifecycle events to RabbitMQ.
package messaging

import (
	"time"

	"github.com/rtg123uk/storyai/internal/domain"
)

// EventType is also the routing key of the published message.
type EventType string

const (
	EventStoryCreated   EventType = "story.created"
	EventStoryPageAdded EventType = "story.page_added"
	EventStoryCompleted EventType = "story.completed"
)

// StoryEvent is the JSON body of a story event.
type StoryEvent struct {
	Type       EventType `json:"type"`
	StoryID    string    `json:"storyId"`
	UserID     string    `json:"userId"`
	Title      string    `json:"title"`
	PageCount  int       `json:"pageCount"`
	TotalPages int       `json:"totalPages"`
	Complete   bool      `json:"complete"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewStoryEvent describes the current state of s.
func NewStoryEvent(typ EventType, userID string, s *domain.Story, at time.Time) StoryEvent {
	return StoryEvent{
		Type:       typ,
		StoryID:    s.ID,
		UserID:     userID,
		Title:      s.Title,
		PageCount:  len(s.Pages),
		TotalPages: s.Metadata.TotalPages,
		Complete:   s.Complete(),
		OccurredAt: at.UTC(),
	}
}
