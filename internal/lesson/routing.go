package lesson

import (
	"context"

	"github.com/mind-engage/mindengage-remedial/internal/logger"
)

// Resolver picks the unit that follows a passed lesson.
type Resolver struct {
	store Store
	log   *logger.Logger
}

func NewResolver(store Store, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{store: store, log: log.With("component", "lesson.Resolver")}
}

// ResolveNext returns the id of the lesson at order+1 in the same topic, or
// nil when l is the topic's last lesson. Several candidates at the same order
// resolve to the smallest id.
func (r *Resolver) ResolveNext(ctx context.Context, l Lesson) (*string, error) {
	ids, err := r.store.IDsAtOrder(ctx, l.TopicID, l.Order+1)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > 1 {
		r.log.Warn("duplicate lesson order in topic",
			"topic_id", l.TopicID,
			"order", l.Order+1,
			"lesson_ids", ids,
		)
	}
	next := ids[0]
	return &next, nil
}
