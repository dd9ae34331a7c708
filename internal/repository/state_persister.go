package repository

import (
	"context"
	"encoding/json"
	"errors"
	"qdrt_backend/internal/util"
	"qdrt_backend/pkg/logger"

	"go.uber.org/zap"
)

// statePersister mirrors one in-memory value into a StateStore key as JSON.
// Persistence failures are logged and swallowed; the in-memory copy stays authoritative.
// When the initial read failed, writes are held back until the key is confirmed absent,
// so a session that never saw the stored value cannot overwrite it.
type statePersister struct {
	store   StateStore
	key     string
	durable bool
	unread  bool
	held    bool
}

func newStatePersister(store StateStore, key string) *statePersister {
	return &statePersister{store: store, key: key, durable: store != nil}
}

// load decodes the stored value into v. It reports false when nothing usable was stored.
func (p *statePersister) load(ctx context.Context, v interface{}) bool {
	if p.store == nil {
		return false
	}
	data, err := p.store.Load(ctx, p.key)
	if errors.Is(err, util.ErrStateNotFound) {
		return false
	}
	if err != nil {
		logger.Log.Warn("State unavailable, starting with session-only state",
			zap.String("key", p.key), zap.Error(err))
		p.durable = false
		p.unread = true
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Log.Warn("Stored state is corrupt, ignoring it",
			zap.String("key", p.key), zap.Error(err))
		return false
	}
	return true
}

// writable re-reads the key after a failed initial load. It reports true once the key is known to be absent.
func (p *statePersister) writable(ctx context.Context) bool {
	if !p.unread {
		return true
	}
	_, err := p.store.Load(ctx, p.key)
	if errors.Is(err, util.ErrStateNotFound) {
		p.unread = false
		return true
	}
	if err == nil && !p.held {
		logger.Log.Warn("Stored state was never loaded by this session, leaving it untouched",
			zap.String("key", p.key))
		p.held = true
	}
	return false
}

func (p *statePersister) save(ctx context.Context, v interface{}) {
	if p.store == nil {
		return
	}
	if !p.writable(ctx) {
		p.durable = false
		return
	}
	data, err := json.Marshal(v)
	if err == nil {
		err = p.store.Save(ctx, p.key, data)
	}
	if err != nil {
		if p.durable {
			logger.Log.Warn("Failed to persist state, continuing with session-only state",
				zap.String("key", p.key), zap.Error(err))
		}
		p.durable = false
		return
	}
	if !p.durable {
		logger.Log.Info("State persistence recovered", zap.String("key", p.key))
	}
	p.durable = true
}
