package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-admin-service/internal/domain"
)

// AnswerKeyLoader loads question options JSONB from Postgres.
type AnswerKeyLoader struct {
	pool *pgxpool.Pool
}

func NewAnswerKeyLoader(pool *pgxpool.Pool) *AnswerKeyLoader {
	return &AnswerKeyLoader{pool: pool}
}

func (l *AnswerKeyLoader) LoadAnswerKey(ctx context.Context, questionID string) (domain.AnswerKey, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT options FROM questions WHERE id=$1`, questionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AnswerKey{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %w", err)
	}
	var opts []domain.Option
	if err := json.Unmarshal(raw, &opts); err != nil {
		return domain.AnswerKey{}, fmt.Errorf("unmarshal answer key: %w", err)
	}
	return domain.AnswerKey{QuestionID: questionID, Options: opts}, nil
}
