package repository

import (
	"context"
	"qdrt_backend/internal/util"
	"sync"
)

// CorpusRepository holds the accumulated reference text used to ground generation.
type CorpusRepository struct {
	mu        sync.RWMutex
	text      string
	persister *statePersister
}

func NewCorpusRepository(ctx context.Context, store StateStore, namespace string) *CorpusRepository {
	r := &CorpusRepository{
		persister: newStatePersister(store, util.StateKey(namespace, util.CorpusStateSuffix)),
	}
	var stored string
	if r.persister.load(ctx, &stored) {
		r.text = stored
	}
	return r
}

func (r *CorpusRepository) Text() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.text
}

// Append adds text after the existing corpus, separated by a blank line, and returns the new corpus.
func (r *CorpusRepository) Append(ctx context.Context, text string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.text != "" {
		r.text += "\n\n"
	}
	r.text += text
	r.persister.save(ctx, r.text)
	return r.text
}

// Replace stores a manually edited corpus.
func (r *CorpusRepository) Replace(ctx context.Context, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text = text
	r.persister.save(ctx, r.text)
}

func (r *CorpusRepository) Durable() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.persister.durable
}
