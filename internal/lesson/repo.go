package lesson

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("lesson not found")

type Store interface {
	GetLesson(ctx context.Context, id string) (Lesson, error)
	ListByTopic(ctx context.Context, topicID string) ([]Lesson, error)
	// IDsAtOrder returns the ids of every lesson in topicID with the given order, sorted.
	IDsAtOrder(ctx context.Context, topicID string, order int) ([]string, error)
	PutLesson(ctx context.Context, l Lesson) error

	UpsertTopic(ctx context.Context, name string) (Topic, error)
	// AppendLessons stores lessons after the topic's current last lesson in one
	// transaction, assigning ids and orders.
	AppendLessons(ctx context.Context, topicID string, ls []Lesson) ([]Lesson, error)

	PutSnippet(ctx context.Context, s ContentSnippet) error
	SnippetsByTags(ctx context.Context, tags []string) ([]ContentSnippet, error)
}
