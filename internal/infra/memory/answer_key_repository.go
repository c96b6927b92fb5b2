package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-admin-service/internal/domain"
)

// AnswerKeyLoader fetches question options from a backing store.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, questionID string) (domain.AnswerKey, error)
}

// AnswerKeyRepository caches answer keys with TTL to avoid repeated DB hits.
// A non-positive TTL disables caching. Each question carries a generation that
// Invalidate bumps; a load only fills the cache if the generation is unchanged,
// so a key read before an update cannot be cached after the invalidation.
type AnswerKeyRepository struct {
	loader AnswerKeyLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedKey
	gen   map[string]uint64
}

type cachedKey struct {
	key       domain.AnswerKey
	expiresAt time.Time
}

func NewAnswerKeyRepository(loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyRepository {
	return &AnswerKeyRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedKey),
		gen:    make(map[string]uint64),
	}
}

func (r *AnswerKeyRepository) GetAnswerKey(ctx context.Context, questionID string) (domain.AnswerKey, error) {
	if key, ok := r.lookup(questionID); ok {
		return key, nil
	}

	result, err, _ := r.sf.Do(questionID, func() (interface{}, error) {
		if key, ok := r.lookup(questionID); ok {
			return key, nil
		}

		r.mu.RLock()
		gen := r.gen[questionID]
		r.mu.RUnlock()

		key, err := r.loader.LoadAnswerKey(ctx, questionID)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		if r.ttl <= 0 {
			return key, nil
		}

		r.mu.Lock()
		if r.gen[questionID] == gen {
			r.cache[questionID] = cachedKey{
				key:       key,
				expiresAt: r.clock().Add(r.ttlWithJitter()),
			}
		}
		r.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// Invalidate drops the cached key so the next read reloads it.
// Loads already in flight are detached and will not fill the cache.
func (r *AnswerKeyRepository) Invalidate(_ context.Context, questionID string) error {
	r.mu.Lock()
	delete(r.cache, questionID)
	r.gen[questionID]++
	r.mu.Unlock()
	r.sf.Forget(questionID)
	return nil
}

func (r *AnswerKeyRepository) lookup(questionID string) (domain.AnswerKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[questionID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.AnswerKey{}, false
	}
	return entry.key, true
}

func (r *AnswerKeyRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
