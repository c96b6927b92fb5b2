package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-admin-service/internal/domain"
)

// Store implements app.Store on Postgres through bun.
// Uniqueness rules live in table constraints (see migrations), so concurrent
// writers are serialized by the database rather than by this process.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open connects bun to the Postgres DSN.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID         string    `bun:"id,pk"`
	Username   string    `bun:"username"`
	Password   string    `bun:"password"`
	Role       string    `bun:"role"`
	Department string    `bun:"department"`
	CreatedAt  time.Time `bun:"created_at"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID           string          `bun:"id,pk"`
	Title        string          `bun:"title"`
	QuestionType string          `bun:"question_type"`
	Description  string          `bun:"description"`
	Options      []domain.Option `bun:"options,type:jsonb"`
	CreatedAt    time.Time       `bun:"created_at"`
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID          string    `bun:"id,pk"`
	Name        string    `bun:"name"`
	Description string    `bun:"description"`
	Slug        string    `bun:"slug"`
	Status      bool      `bun:"status"`
	QuestionIDs []string  `bun:"question_ids,array"`
	CreatedAt   time.Time `bun:"created_at"`
}

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts"`

	ID         string    `bun:"id,pk"`
	QuizID     string    `bun:"quiz_id"`
	EmployeeID string    `bun:"employee_id"`
	QuestionID string    `bun:"question_id"`
	Attempt    bool      `bun:"attempt"`
	CreatedAt  time.Time `bun:"created_at"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:results"`

	ID         string    `bun:"id,pk"`
	QuizID     string    `bun:"quiz_id"`
	EmployeeID string    `bun:"employee_id"`
	Score      int       `bun:"score"`
	AttemptIDs []string  `bun:"attempt_ids,array"`
	CreatedAt  time.Time `bun:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at"`
}

// Users

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	row := toUserRow(user)
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return translate(err, domain.ErrUserNotFound)
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

func (s *Store) findUser(ctx context.Context, where string, arg interface{}) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where(where, arg).Limit(1).Scan(ctx)
	if err != nil {
		return domain.User{}, translate(err, domain.ErrUserNotFound)
	}
	return row.domain(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := s.db.NewSelect().Model(&rows).Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	out := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) UpdateUser(ctx context.Context, user domain.User) error {
	row := toUserRow(user)
	res, err := s.db.NewUpdate().Model(&row).
		Column("username", "password", "role", "department").
		WherePK().Exec(ctx)
	return affected(res, err, domain.ErrUserNotFound)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*userRow)(nil)).Where("id = ?", id).Exec(ctx)
	return affected(res, err, domain.ErrUserNotFound)
}

// Questions

func (s *Store) CreateQuestion(ctx context.Context, q domain.Question) error {
	row := toQuestionRow(q)
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return translate(err, domain.ErrQuestionNotFound)
}

func (s *Store) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	return s.findQuestion(ctx, "id = ?", id)
}

func (s *Store) FindQuestionByTitle(ctx context.Context, title string) (domain.Question, error) {
	return s.findQuestion(ctx, "title = ?", title)
}

func (s *Store) findQuestion(ctx context.Context, where string, arg interface{}) (domain.Question, error) {
	var row questionRow
	if err := s.db.NewSelect().Model(&row).Where(where, arg).Limit(1).Scan(ctx); err != nil {
		return domain.Question{}, translate(err, domain.ErrQuestionNotFound)
	}
	return row.domain(), nil
}

func (s *Store) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	var rows []questionRow
	if err := s.db.NewSelect().Model(&rows).Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, translate(err, domain.ErrQuestionNotFound)
	}
	out := make([]domain.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q domain.Question) error {
	row := toQuestionRow(q)
	res, err := s.db.NewUpdate().Model(&row).
		Column("question_type", "description", "options").
		WherePK().Exec(ctx)
	return affected(res, err, domain.ErrQuestionNotFound)
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*questionRow)(nil)).Where("id = ?", id).Exec(ctx)
	return affected(res, err, domain.ErrQuestionNotFound)
}

// Quizzes

func (s *Store) CreateQuiz(ctx context.Context, q domain.Quiz) error {
	row := toQuizRow(q)
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return translate(err, domain.ErrQuizNotFound)
}

func (s *Store) GetQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	return s.findQuiz(ctx, "id = ?", id)
}

func (s *Store) FindQuizByName(ctx context.Context, name string) (domain.Quiz, error) {
	return s.findQuiz(ctx, "name = ?", name)
}

func (s *Store) FindQuizBySlug(ctx context.Context, slug string) (domain.Quiz, error) {
	return s.findQuiz(ctx, "slug = ?", slug)
}

func (s *Store) findQuiz(ctx context.Context, where string, arg interface{}) (domain.Quiz, error) {
	var row quizRow
	if err := s.db.NewSelect().Model(&row).Where(where, arg).Limit(1).Scan(ctx); err != nil {
		return domain.Quiz{}, translate(err, domain.ErrQuizNotFound)
	}
	return row.domain(), nil
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var rows []quizRow
	if err := s.db.NewSelect().Model(&rows).Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, translate(err, domain.ErrQuizNotFound)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) UpdateQuiz(ctx context.Context, q domain.Quiz) error {
	row := toQuizRow(q)
	res, err := s.db.NewUpdate().Model(&row).
		Column("name", "description", "slug", "status", "question_ids").
		WherePK().Exec(ctx)
	return affected(res, err, domain.ErrQuizNotFound)
}

func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*quizRow)(nil)).Where("id = ?", id).Exec(ctx)
	return affected(res, err, domain.ErrQuizNotFound)
}

func (s *Store) RemoveQuestionFromQuizzes(ctx context.Context, questionID string) error {
	_, err := s.db.NewUpdate().Model((*quizRow)(nil)).
		Set("question_ids = array_remove(question_ids, ?)", questionID).
		Where("? = ANY(question_ids)", questionID).
		Exec(ctx)
	return translate(err, domain.ErrQuizNotFound)
}

// Attempts

func (s *Store) CreateAttempt(ctx context.Context, a domain.Attempt) error {
	row := attemptRow{
		ID:         a.ID,
		QuizID:     a.QuizID,
		EmployeeID: a.EmployeeID,
		QuestionID: a.QuestionID,
		Attempt:    a.Attempt,
		CreatedAt:  a.CreatedAt,
	}
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return translate(err, domain.ErrAttemptNotFound)
}

func (s *Store) FindAttempt(ctx context.Context, employeeID, quizID, questionID string) (domain.Attempt, error) {
	var row attemptRow
	err := s.db.NewSelect().Model(&row).
		Where("employee_id = ?", employeeID).
		Where("quiz_id = ?", quizID).
		Where("question_id = ?", questionID).
		Limit(1).Scan(ctx)
	if err != nil {
		return domain.Attempt{}, translate(err, domain.ErrAttemptNotFound)
	}
	return row.domain(), nil
}

func (s *Store) ListAttempts(ctx context.Context, filter domain.AttemptFilter) ([]domain.Attempt, error) {
	var rows []attemptRow
	q := s.db.NewSelect().Model(&rows).Order("created_at ASC", "id ASC")
	q = applyAttemptFilter(q, filter)
	if err := q.Scan(ctx); err != nil {
		return nil, translate(err, domain.ErrAttemptNotFound)
	}
	out := make([]domain.Attempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) CountAttempts(ctx context.Context, filter domain.AttemptFilter) (int, error) {
	q := applyAttemptFilter(s.db.NewSelect().Model((*attemptRow)(nil)), filter)
	n, err := q.Count(ctx)
	if err != nil {
		return 0, translate(err, domain.ErrAttemptNotFound)
	}
	return n, nil
}

func applyAttemptFilter(q *bun.SelectQuery, f domain.AttemptFilter) *bun.SelectQuery {
	if f.QuizID != "" {
		q = q.Where("quiz_id = ?", f.QuizID)
	}
	if f.QuestionID != "" {
		q = q.Where("question_id = ?", f.QuestionID)
	}
	if f.EmployeeID != "" {
		q = q.Where("employee_id = ?", f.EmployeeID)
	}
	return q
}

// Results

const applyAttemptSQL = `
INSERT INTO results (id, quiz_id, employee_id, score, attempt_ids, created_at, updated_at)
VALUES (?, ?, ?, ?, ARRAY[?]::text[], ?, ?)
ON CONFLICT (employee_id, quiz_id) DO UPDATE SET
	score = results.score + CASE WHEN ? = ANY(results.attempt_ids) THEN 0 ELSE EXCLUDED.score END,
	attempt_ids = CASE WHEN ? = ANY(results.attempt_ids)
		THEN results.attempt_ids
		ELSE array_append(results.attempt_ids, ?) END,
	updated_at = EXCLUDED.updated_at
RETURNING id, quiz_id, employee_id, score, attempt_ids, created_at, updated_at`

// ApplyAttempt is a single upsert, so concurrent attempts of one pair cannot lose increments.
func (s *Store) ApplyAttempt(ctx context.Context, employeeID, quizID, attemptID string, correct bool) (domain.Result, error) {
	score := 0
	if correct {
		score = 1
	}
	now := s.now()
	var row resultRow
	err := s.db.NewRaw(applyAttemptSQL,
		uuid.NewString(), quizID, employeeID, score, attemptID, now, now,
		attemptID, attemptID, attemptID,
	).Scan(ctx, &row)
	if err != nil {
		return domain.Result{}, fmt.Errorf("apply attempt to result: %w", translate(err, domain.ErrResultNotFound))
	}
	return row.domain(), nil
}

const ensureResultSQL = `
INSERT INTO results (id, quiz_id, employee_id, score, attempt_ids, created_at, updated_at)
VALUES (?, ?, ?, 0, '{}'::text[], ?, ?)
ON CONFLICT (employee_id, quiz_id) DO NOTHING`

const rebuildResultSQL = `
UPDATE results SET
	score = agg.score,
	attempt_ids = agg.attempt_ids,
	updated_at = ?
FROM (
	SELECT count(*) FILTER (WHERE attempt) AS score,
		coalesce(array_agg(id ORDER BY created_at, id), '{}'::text[]) AS attempt_ids
	FROM attempts
	WHERE employee_id = ? AND quiz_id = ?
) AS agg
WHERE results.employee_id = ? AND results.quiz_id = ?
RETURNING results.id, results.quiz_id, results.employee_id, results.score,
	results.attempt_ids, results.created_at, results.updated_at`

// RebuildResult locks the pair's row before counting, so an ApplyAttempt either
// committed before the count (its attempt is counted) or waits and applies after.
func (s *Store) RebuildResult(ctx context.Context, employeeID, quizID string) (domain.Result, error) {
	now := s.now()
	var row resultRow
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw(ensureResultSQL, uuid.NewString(), quizID, employeeID, now, now).Exec(ctx); err != nil {
			return err
		}
		var locked resultRow
		if err := tx.NewSelect().Model(&locked).
			Where("employee_id = ? AND quiz_id = ?", employeeID, quizID).
			For("UPDATE").
			Scan(ctx); err != nil {
			return err
		}
		return tx.NewRaw(rebuildResultSQL, now, employeeID, quizID, employeeID, quizID).Scan(ctx, &row)
	})
	if err != nil {
		return domain.Result{}, fmt.Errorf("rebuild result: %w", translate(err, domain.ErrResultNotFound))
	}
	return row.domain(), nil
}

func (s *Store) ListResults(ctx context.Context, filter domain.ResultFilter) ([]domain.Result, error) {
	var rows []resultRow
	q := s.db.NewSelect().Model(&rows).Order("created_at ASC", "id ASC")
	if filter.QuizID != "" {
		q = q.Where("quiz_id = ?", filter.QuizID)
	}
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, translate(err, domain.ErrResultNotFound)
	}
	out := make([]domain.Result, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

// constraint name -> domain error for unique violations
var uniqueViolations = map[string]error{
	"users_username_key":  domain.ErrUsernameTaken,
	"questions_title_key": domain.ErrQuestionExists,
	"quizzes_name_key":    domain.ErrQuizExists,
	"quizzes_slug_key":    domain.ErrSlugTaken,
	"attempts_triple_key": domain.ErrAlreadyAnswered,
}

// translate maps driver errors onto domain sentinels.
func translate(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case "23505":
			if mapped, ok := uniqueViolations[pgErr.Field('n')]; ok {
				return mapped
			}
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.Field('M'))
		case "23503":
			return fmt.Errorf("%w: %s", domain.ErrInUse, pgErr.Field('M'))
		}
	}
	return err
}

func affected(res sql.Result, err error, notFound error) error {
	if err != nil {
		return translate(err, notFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func toUserRow(u domain.User) userRow {
	return userRow{
		ID:         u.ID,
		Username:   u.Username,
		Password:   u.PasswordHash,
		Role:       string(u.Role),
		Department: u.Department,
		CreatedAt:  u.CreatedAt,
	}
}

func (r userRow) domain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.Password,
		Role:         domain.Role(r.Role),
		Department:   r.Department,
		CreatedAt:    r.CreatedAt,
	}
}

func toQuestionRow(q domain.Question) questionRow {
	opts := q.Options
	if opts == nil {
		opts = []domain.Option{}
	}
	return questionRow{
		ID:           q.ID,
		Title:        q.Title,
		QuestionType: string(q.QuestionType),
		Description:  q.Description,
		Options:      opts,
		CreatedAt:    q.CreatedAt,
	}
}

func (r questionRow) domain() domain.Question {
	return domain.Question{
		ID:           r.ID,
		Title:        r.Title,
		QuestionType: domain.QuestionType(r.QuestionType),
		Description:  r.Description,
		Options:      r.Options,
		CreatedAt:    r.CreatedAt,
	}
}

func toQuizRow(q domain.Quiz) quizRow {
	return quizRow{
		ID:          q.ID,
		Name:        q.Name,
		Description: q.Description,
		Slug:        q.Slug,
		Status:      q.Status,
		QuestionIDs: nonNil(q.QuestionIDs),
		CreatedAt:   q.CreatedAt,
	}
}

func (r quizRow) domain() domain.Quiz {
	return domain.Quiz{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Slug:        r.Slug,
		Status:      r.Status,
		QuestionIDs: nonNil(r.QuestionIDs),
		CreatedAt:   r.CreatedAt,
	}
}

func (r attemptRow) domain() domain.Attempt {
	return domain.Attempt{
		ID:         r.ID,
		QuizID:     r.QuizID,
		EmployeeID: r.EmployeeID,
		QuestionID: r.QuestionID,
		Attempt:    r.Attempt,
		CreatedAt:  r.CreatedAt,
	}
}

func (r resultRow) domain() domain.Result {
	return domain.Result{
		ID:         r.ID,
		QuizID:     r.QuizID,
		EmployeeID: r.EmployeeID,
		Score:      r.Score,
		AttemptIDs: nonNil(r.AttemptIDs),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
