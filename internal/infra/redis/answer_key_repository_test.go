package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-admin-service/internal/domain"
	"quiz-admin-service/internal/infra/memory"
)

func TestAnswerKeyRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{AnswerKeyLoader: seededStore(t)}
	repo := NewAnswerKeyRepository(client, loader, time.Minute)

	key, err := repo.GetAnswerKey(context.Background(), "q1")
	if err != nil {
		t.Fatalf("get key: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("question:q1:options") {
		t.Fatalf("expected options cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	key, _ = repo.GetAnswerKey(context.Background(), "q1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(key.Options) != 3 || key.Options[0].Text != "Paris" {
		t.Fatalf("expected option order preserved, got %+v", key.Options)
	}
	// first match wins on duplicated text
	if opt, ok := key.Match("Paris"); !ok || !opt.IsCorrect {
		t.Fatalf("expected first Paris option to be correct, got %+v", opt)
	}
}

func TestAnswerKeyRepositoryInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{AnswerKeyLoader: seededStore(t)}
	repo := NewAnswerKeyRepository(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	_, _ = repo.GetAnswerKey(ctx, "q1")
	if err := repo.Invalidate(ctx, "q1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("question:q1:options") {
		t.Fatalf("expected key removed")
	}
	_, _ = repo.GetAnswerKey(ctx, "q1")
	if loader.calls != 2 {
		t.Fatalf("expected reload, loader calls=%d", loader.calls)
	}
}

func TestAnswerKeyRepositoryZeroTTLSkipsRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{AnswerKeyLoader: seededStore(t)}
	repo := NewAnswerKeyRepository(newClient(mr), loader, 0)
	ctx := context.Background()

	_, _ = repo.GetAnswerKey(ctx, "q1")
	if mr.Exists("question:q1:options") {
		t.Fatalf("expected nothing cached with ttl 0")
	}
	_, _ = repo.GetAnswerKey(ctx, "q1")
	if loader.calls != 2 {
		t.Fatalf("expected every read to load with ttl 0, loader calls=%d", loader.calls)
	}
}

func TestAnswerKeyRepositoryInvalidateDuringLoad(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &gatedLoader{
		AnswerKeyLoader: seededStore(t),
		started:         make(chan struct{}, 1),
		release:         make(chan struct{}),
	}
	repo := NewAnswerKeyRepository(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := repo.GetAnswerKey(ctx, "q1")
		done <- err
	}()
	<-loader.started
	if err := repo.Invalidate(ctx, "q1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	close(loader.release)
	if err := <-done; err != nil {
		t.Fatalf("get key: %v", err)
	}
	if mr.Exists("question:q1:options") {
		t.Fatalf("expected load started before invalidate not to be cached")
	}

	_, _ = repo.GetAnswerKey(ctx, "q1")
	if !mr.Exists("question:q1:options") {
		t.Fatalf("expected a fresh load to fill the cache")
	}
}

// gatedLoader blocks each load until release is closed.
type gatedLoader struct {
	memory.AnswerKeyLoader
	started chan struct{}
	release chan struct{}
}

func (l *gatedLoader) LoadAnswerKey(ctx context.Context, questionID string) (domain.AnswerKey, error) {
	select {
	case l.started <- struct{}{}:
	default:
	}
	<-l.release
	return l.AnswerKeyLoader.LoadAnswerKey(ctx, questionID)
}

type countingLoader struct {
	memory.AnswerKeyLoader
	calls int
}

func (l *countingLoader) LoadAnswerKey(ctx context.Context, questionID string) (domain.AnswerKey, error) {
	l.calls++
	return l.AnswerKeyLoader.LoadAnswerKey(ctx, questionID)
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	err := store.CreateQuestion(context.Background(), domain.Question{
		ID:           "q1",
		Title:        "Capital of France?",
		QuestionType: domain.QuestionNormal,
		Options: []domain.Option{
			{Text: "Paris", IsCorrect: true},
			{Text: "London", IsCorrect: false},
			{Text: "Paris", IsCorrect: false},
		},
	})
	if err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return store
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
