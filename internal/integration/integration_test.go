package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun/migrate"

	"quiz-admin-service/internal/app"
	"quiz-admin-service/internal/auth"
	"quiz-admin-service/internal/domain"
	"quiz-admin-service/internal/infra/postgres"
	pgmigrations "quiz-admin-service/internal/infra/postgres/migrations"
	infraredis "quiz-admin-service/internal/infra/redis"
)

func TestRecordAttemptsEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := postgres.Open(pgURL)
	defer db.Close()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := postgres.NewStore(db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	keys := infraredis.NewAnswerKeyRepository(redisClient, postgres.NewAnswerKeyLoader(pool), 5*time.Minute)
	results := app.NewResultService(store)
	users := app.NewUserService(store, auth.NewTokenManager("integration", time.Hour), infraredis.NewRevocationList(redisClient))
	questions := app.NewQuestionService(store, keys)
	quizzes := app.NewQuizService(store)
	attempts := app.NewAttemptService(store, keys, results)
	stats := app.NewStatsService(store)

	alice, err := users.Register(ctx, app.NewUser{Username: "alice", Password: "secret1", Role: domain.RoleEmployee})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := users.Register(ctx, app.NewUser{Username: "alice", Password: "secret1", Role: domain.RoleEmployee}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}

	q1, err := questions.Create(ctx, app.NewQuestion{Title: "Capital of France?", Options: []domain.Option{
		{Text: "Paris", IsCorrect: true}, {Text: "London"},
	}})
	if err != nil {
		t.Fatalf("create q1: %v", err)
	}
	q2, err := questions.Create(ctx, app.NewQuestion{Title: "Suspicious link?", QuestionType: domain.QuestionPhishing, Options: []domain.Option{
		{Text: "Click it"}, {Text: "Report it", IsCorrect: true},
	}})
	if err != nil {
		t.Fatalf("create q2: %v", err)
	}
	quiz, err := quizzes.Create(ctx, app.NewQuiz{Name: "Onboarding", Status: true, QuestionIDs: []string{q1.ID, q2.ID}})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := attempts.Record(ctx, domain.AnswerSubmission{
				EmployeeID: alice.ID, QuizID: quiz.ID, QuestionID: q1.ID, Answer: "Paris",
			})
			if err != nil {
				t.Errorf("record: %v", err)
				return
			}
			if out.Created {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if created != 1 {
		t.Fatalf("expected one created attempt, got %d", created)
	}

	out, err := attempts.Record(ctx, domain.AnswerSubmission{EmployeeID: alice.ID, QuizID: quiz.ID, QuestionID: q2.ID, Answer: "Click it"})
	if err != nil || !out.Created || out.WasCorrect {
		t.Fatalf("expected wrong answer recorded, got %+v %v", out, err)
	}
	if out.Result.Score != 1 || len(out.Result.AttemptIDs) != 2 {
		t.Fatalf("unexpected result %+v", out.Result)
	}

	scores, err := results.EmployeeScores(ctx, alice.ID)
	if err != nil || len(scores) != 1 || scores[0].Percentage != 50 {
		t.Fatalf("unexpected employee scores %+v %v", scores, err)
	}

	details, err := stats.QuizDetails(ctx)
	if err != nil || len(details) != 1 || details[0].PassRate != 50 || details[0].Plays != 1 {
		t.Fatalf("unexpected quiz details %+v %v", details, err)
	}

	if n, err := results.Recompute(ctx); err != nil || n != 1 {
		t.Fatalf("recompute: %d %v", n, err)
	}
	after, err := results.List(ctx, domain.ResultFilter{EmployeeID: alice.ID})
	if err != nil || len(after) != 1 || after[0].Score != 1 || len(after[0].AttemptIDs) != 2 {
		t.Fatalf("unexpected result after recompute %+v %v", after, err)
	}

	if err := quizzes.Delete(ctx, quiz.ID); !errors.Is(err, domain.ErrInUse) {
		t.Fatalf("expected in-use rejection, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
