package repository

import (
	"context"
	"qdrt_backend/internal/model"
	"qdrt_backend/internal/util"
	"sync"
)

// AnswerRepository holds the partial answer record of every question.
// Every mutation is written through to the StateStore before it returns.
type AnswerRepository struct {
	mu        sync.RWMutex
	answers   model.Answers
	persister *statePersister
}

func NewAnswerRepository(ctx context.Context, store StateStore, namespace string) *AnswerRepository {
	r := &AnswerRepository{
		answers:   model.Answers{},
		persister: newStatePersister(store, util.StateKey(namespace, util.AnswerStateSuffix)),
	}
	var stored model.Answers
	if r.persister.load(ctx, &stored) && stored != nil {
		r.answers = stored
	}
	return r
}

// Get returns the stored record or an empty one. Defaults are not applied.
func (r *AnswerRepository) Get(id int) model.AnswerRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.answers[id].Clone()
}

// Set merges patch into the record of id, creating it if absent.
func (r *AnswerRepository) Set(ctx context.Context, id int, patch model.AnswerRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers[id] = r.answers[id].Merge(patch)
	r.persister.save(ctx, r.answers)
}

// Clear resets the record of id to an empty record.
func (r *AnswerRepository) Clear(ctx context.Context, id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers[id] = model.AnswerRecord{}
	r.persister.save(ctx, r.answers)
}

// All returns a copy of every stored record, without defaults.
func (r *AnswerRepository) All() model.Answers {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.answers.Clone()
}

// Replace swaps the whole answer set, as done by an import.
func (r *AnswerRepository) Replace(ctx context.Context, answers model.Answers) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = answers.Clone()
	r.persister.save(ctx, r.answers)
}

// Durable reports whether the last load or write reached the StateStore.
func (r *AnswerRepository) Durable() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.persister.durable
}
