package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-admin-service/internal/domain"
)

// AnswerKeyLoader fetches question options from a backing store.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, questionID string) (domain.AnswerKey, error)
}

// AnswerKeyRepository caches answer keys in Redis and falls back to a loader on cache miss.
// Options are stored as an ordered JSON array so first-match scoring survives the round trip:
// SET question:{questionID}:options [{"text":..,"isCorrect":..},..]
// question:{questionID}:gen counts invalidations; a fill is dropped when it moved
// since the load began. A non-positive TTL disables caching.
type AnswerKeyRepository struct {
	client *redis.Client
	loader AnswerKeyLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewAnswerKeyRepository(client *redis.Client, loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyRepository {
	return &AnswerKeyRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *AnswerKeyRepository) GetAnswerKey(ctx context.Context, questionID string) (domain.AnswerKey, error) {
	if key, ok := r.cached(ctx, questionID); ok {
		return key, nil
	}

	result, err, _ := r.sf.Do(questionID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if key, ok := r.cached(ctx, questionID); ok {
			return key, nil
		}

		gen, err := r.generation(ctx, r.client, questionID)
		if err != nil {
			log.Printf("answer key %s: generation read failed: %v", questionID, err)
		}

		key, err := r.loader.LoadAnswerKey(ctx, questionID)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		if r.ttl <= 0 {
			return key, nil
		}

		raw, err := json.Marshal(key.Options)
		if err != nil {
			return domain.AnswerKey{}, fmt.Errorf("marshal answer key: %w", err)
		}
		if err := r.fill(ctx, questionID, gen, raw); err != nil {
			// serving from the loader is still correct
			log.Printf("answer key %s: cache fill failed: %v", questionID, err)
		}
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// Invalidate deletes the cached options of a question and bumps its generation.
func (r *AnswerKeyRepository) Invalidate(ctx context.Context, questionID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.optionsKey(questionID))
		pipe.Incr(ctx, r.genKey(questionID))
		return nil
	})
	r.sf.Forget(questionID)
	return err
}

// fill stores raw only while the generation still equals gen.
func (r *AnswerKeyRepository) fill(ctx context.Context, questionID string, gen int64, raw []byte) error {
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := r.generation(ctx, tx, questionID)
		if err != nil {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.optionsKey(questionID), raw, r.ttlWithJitter())
			return nil
		})
		return err
	}, r.genKey(questionID))
	if errors.Is(err, redis.TxFailedErr) {
		// invalidated mid-fill
		return nil
	}
	return err
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *AnswerKeyRepository) generation(ctx context.Context, c stringGetter, questionID string) (int64, error) {
	gen, err := c.Get(ctx, r.genKey(questionID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *AnswerKeyRepository) cached(ctx context.Context, questionID string) (domain.AnswerKey, bool) {
	raw, err := r.client.Get(ctx, r.optionsKey(questionID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("answer key %s: cache read failed: %v", questionID, err)
		}
		return domain.AnswerKey{}, false
	}
	var opts []domain.Option
	if err := json.Unmarshal(raw, &opts); err != nil {
		return domain.AnswerKey{}, false
	}
	return domain.AnswerKey{QuestionID: questionID, Options: opts}, true
}

func (r *AnswerKeyRepository) optionsKey(questionID string) string {
	return "question:" + questionID + ":options"
}

func (r *AnswerKeyRepository) genKey(questionID string) string {
	return "question:" + questionID + ":gen"
}

func (r *AnswerKeyRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
