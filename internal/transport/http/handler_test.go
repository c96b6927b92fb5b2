package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"quiz-admin-service/internal/app"
	"quiz-admin-service/internal/auth"
	"quiz-admin-service/internal/domain"
	"quiz-admin-service/internal/infra/memory"
)

type testResponse struct {
	Success int             `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	Quizes  json.RawMessage `json:"quizes"`
	Slug    string          `json:"slug"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	users  *app.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	keys := memory.NewAnswerKeyRepository(store, time.Minute)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	users := app.NewUserService(store, tokens, memory.NewRevocationList())
	results := app.NewResultService(store)

	h := NewHandler(Services{
		Users:     users,
		Questions: app.NewQuestionService(store, keys),
		Quizzes:   app.NewQuizService(store),
		Attempts:  app.NewAttemptService(store, keys, results),
		Results:   results,
		Stats:     app.NewStatsService(store),
	})
	return &testServer{t: t, router: NewRouter(h, RouterConfig{}), users: users}
}

func (s *testServer) do(method, path, token string, body any) (int, testResponse) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp testResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, resp
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	code, resp := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"userName": username, "password": password})
	if code != http.StatusOK || resp.Token == "" {
		s.t.Fatalf("login %s: status %d message %q", username, code, resp.Message)
	}
	return resp.Token
}

func (s *testServer) seedAdmin() string {
	s.t.Helper()
	_, err := s.users.Register(context.Background(), app.NewUser{Username: "root", Password: "secret1", Role: domain.RoleAdmin})
	if err != nil {
		s.t.Fatalf("seed admin: %v", err)
	}
	return s.login("root", "secret1")
}

func decode(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func TestAnswerFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.seedAdmin()

	code, resp := s.do(http.MethodPost, "/api/auth/register", adminToken, map[string]string{
		"userName": "alice", "password": "secret1", "role": "employee", "department": "IT",
	})
	if code != http.StatusCreated {
		t.Fatalf("register: status %d %q", code, resp.Message)
	}
	var alice domain.User
	decode(t, resp.Data, &alice)

	code, resp = s.do(http.MethodPost, "/api/question", adminToken, map[string]any{
		"title":        "Capital of France?",
		"questionType": "normal",
		"options": []map[string]any{
			{"text": "Paris", "isCorrect": true},
			{"text": "London", "isCorrect": false},
		},
	})
	if code != http.StatusCreated {
		t.Fatalf("create question: status %d %q", code, resp.Message)
	}
	var question domain.Question
	decode(t, resp.Data, &question)

	code, resp = s.do(http.MethodPost, "/api/quiz", adminToken, map[string]any{
		"name": "Geography", "status": true, "questionIds": []string{question.ID},
	})
	if code != http.StatusCreated {
		t.Fatalf("create quiz: status %d %q", code, resp.Message)
	}
	var quiz domain.Quiz
	decode(t, resp.Data, &quiz)
	if quiz.Slug != "geography" {
		t.Fatalf("expected derived slug, got %q", quiz.Slug)
	}

	aliceToken := s.login("alice", "secret1")
	answer := map[string]string{"quizId": quiz.ID, "questionId": question.ID, "answer": "Paris"}

	code, resp = s.do(http.MethodPost, "/api/attempt", aliceToken, answer)
	if code != http.StatusCreated || resp.Success != 1 {
		t.Fatalf("first attempt: status %d success %d %q", code, resp.Success, resp.Message)
	}
	answer["answer"] = "London"
	code, resp = s.do(http.MethodPost, "/api/attempt", aliceToken, answer)
	if code != http.StatusOK || resp.Success != 0 || !strings.Contains(resp.Message, "Already Answered") {
		t.Fatalf("duplicate attempt: status %d success %d %q", code, resp.Success, resp.Message)
	}

	code, resp = s.do(http.MethodGet, "/api/result/employee/"+alice.ID, aliceToken, nil)
	if code != http.StatusOK {
		t.Fatalf("employee results: status %d %q", code, resp.Message)
	}
	var scores []domain.EmployeeScore
	decode(t, resp.Data, &scores)
	if len(scores) != 1 || scores[0].Score != 1 || scores[0].Percentage != 100 {
		t.Fatalf("unexpected scores %+v", scores)
	}

	code, resp = s.do(http.MethodGet, "/api/question/all/score", adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("question scores: status %d", code)
	}
	var qs []domain.QuestionScore
	decode(t, resp.Data, &qs)
	if len(qs) != 1 || qs[0].PassRate != 100 || qs[0].FailRate != 0 || len(qs[0].Attempts) != 1 {
		t.Fatalf("unexpected question scores %+v", qs)
	}

	code, resp = s.do(http.MethodGet, "/api/quiz/all/details", adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("quiz details: status %d", code)
	}
	var details []domain.QuizDetails
	decode(t, resp.Quizes, &details)
	if len(details) != 1 || details[0].Plays != 1 || details[0].AvgScore != 100 {
		t.Fatalf("unexpected quiz details %+v", details)
	}

	code, resp = s.do(http.MethodGet, "/api/result/employee/all/stats", aliceToken, nil)
	if code != http.StatusOK {
		t.Fatalf("employee stats: status %d", code)
	}
	var tallies []domain.EmployeeTally
	decode(t, resp.Data, &tallies)
	if len(tallies) != 1 || tallies[0].User.ID != alice.ID || tallies[0].Pass != 1 || tallies[0].Total != 1 {
		t.Fatalf("unexpected employee stats %+v", tallies)
	}
}

func TestRolesAndAuthentication(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.seedAdmin()

	if code, _ := s.do(http.MethodGet, "/api/attempt", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code, _ := s.do(http.MethodGet, "/api/attempt", "not-a-token", nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", code)
	}

	for _, name := range []string{"alice", "bob"} {
		code, resp := s.do(http.MethodPost, "/api/auth/register", adminToken, map[string]string{
			"userName": name, "password": "secret1", "role": "employee",
		})
		if code != http.StatusCreated {
			t.Fatalf("register %s: %d %q", name, code, resp.Message)
		}
	}
	aliceToken := s.login("alice", "secret1")

	if code, _ := s.do(http.MethodGet, "/api/attempt", aliceToken, nil); code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee listing attempts, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/auth/register", aliceToken, map[string]string{
		"userName": "mallory", "password": "secret1", "role": "admin",
	}); code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee registering users, got %d", code)
	}

	bob, err := s.users.List(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	var bobID string
	for _, u := range bob {
		if u.Username == "bob" {
			bobID = u.ID
		}
	}
	if code, _ := s.do(http.MethodGet, "/api/result/employee/"+bobID, aliceToken, nil); code != http.StatusForbidden {
		t.Fatalf("expected 403 for another employee's results, got %d", code)
	}

	if code, _ := s.do(http.MethodPost, "/api/auth/logout", aliceToken, nil); code != http.StatusOK {
		t.Fatalf("logout: %d", code)
	}
	if code, _ := s.do(http.MethodGet, "/api/result/employee/all/stats", aliceToken, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.seedAdmin()

	if code, _ := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"userName": "root"}); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"userName": "root", "password": "wrong!"}); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", code)
	}
	if code, _ := s.do(http.MethodGet, "/api/quiz/missing", adminToken, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", code)
	}

	body := map[string]any{"title": "Q", "options": []map[string]any{{"text": "A", "isCorrect": true}}}
	if code, _ := s.do(http.MethodPost, "/api/question", adminToken, body); code != http.StatusCreated {
		t.Fatalf("create question: %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/question", adminToken, body); code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate title, got %d", code)
	}

	if code, _ := s.do(http.MethodPost, "/api/quiz", adminToken, map[string]any{"name": "Security Basics"}); code != http.StatusCreated {
		t.Fatalf("create quiz: %d", code)
	}
	code, resp := s.do(http.MethodPost, "/api/quiz/slug", adminToken, map[string]string{"slugStr": "Security Basics"})
	if code != http.StatusConflict {
		t.Fatalf("expected 409 for taken slug, got %d", code)
	}
	code, resp = s.do(http.MethodPost, "/api/quiz/slug", adminToken, map[string]string{"slugStr": "Phishing 101"})
	if code != http.StatusOK || resp.Slug != "phishing-101" {
		t.Fatalf("expected free slug, got %d %q", code, resp.Slug)
	}
}

func TestQuizLinkHidesCorrectness(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.seedAdmin()

	_, resp := s.do(http.MethodPost, "/api/question", adminToken, map[string]any{
		"title":   "Is this email safe?",
		"options": []map[string]any{{"text": "Yes", "isCorrect": false}, {"text": "No", "isCorrect": true}},
	})
	var q domain.Question
	decode(t, resp.Data, &q)
	s.do(http.MethodPost, "/api/quiz", adminToken, map[string]any{"name": "Phishing", "slug": "phish", "questionIds": []string{q.ID}})

	req := httptest.NewRequest(http.MethodGet, "/api/quiz/link/phish", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("quiz link: %d %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "isCorrect") {
		t.Fatalf("public quiz link leaked correctness: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Is this email safe?") {
		t.Fatalf("expected question in link body: %s", rec.Body.String())
	}
}

func TestRequestBindingRejectsMissingFields(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.seedAdmin()

	cases := []struct {
		name string
		path string
		tok  string
		body any
	}{
		{"empty attempt", "/api/attempt", adminToken, map[string]any{}},
		{"empty login", "/api/auth/login", "", map[string]any{}},
		{"register without role", "/api/auth/register", adminToken, map[string]string{"userName": "eve", "password": "secret1"}},
		{"register unknown role", "/api/auth/register", adminToken, map[string]string{"userName": "eve", "password": "secret1", "role": "owner"}},
		{"register short password", "/api/auth/register", adminToken, map[string]string{"userName": "eve", "password": "abc", "role": "employee"}},
		{"register long password", "/api/auth/register", adminToken, map[string]string{"userName": "eve", "password": strings.Repeat("p", 73), "role": "employee"}},
		{"question without title", "/api/question", adminToken, map[string]any{"description": "x"}},
		{"question blank option", "/api/question", adminToken, map[string]any{"title": "T", "options": []map[string]any{{"text": ""}}}},
		{"quiz without name", "/api/quiz", adminToken, map[string]any{"slug": "nameless"}},
		{"slug without value", "/api/quiz/slug", adminToken, map[string]any{}},
	}
	for _, tc := range cases {
		if code, resp := s.do(http.MethodPost, tc.path, tc.tok, tc.body); code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d %q", tc.name, code, resp.Message)
		}
	}

	_, resp := s.do(http.MethodPost, "/api/quiz", adminToken, map[string]any{"name": "Toggle"})
	var quiz domain.Quiz
	decode(t, resp.Data, &quiz)
	if code, _ := s.do(http.MethodPut, "/api/quiz/status/"+quiz.ID, adminToken, map[string]any{}); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for status update without status, got %d", code)
	}
	if code, _ := s.do(http.MethodPut, "/api/quiz/status/"+quiz.ID, adminToken, map[string]any{"status": false}); code != http.StatusOK {
		t.Fatalf("expected explicit false status to bind, got %d", code)
	}
}

func TestGetQuizHidesCorrectnessFromEmployees(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.seedAdmin()
	s.do(http.MethodPost, "/api/auth/register", adminToken, map[string]string{
		"userName": "alice", "password": "secret1", "role": "employee",
	})
	aliceToken := s.login("alice", "secret1")

	_, resp := s.do(http.MethodPost, "/api/question", adminToken, map[string]any{
		"title":   "Is this link safe?",
		"options": []map[string]any{{"text": "Yes", "isCorrect": false}, {"text": "No", "isCorrect": true}},
	})
	var q domain.Question
	decode(t, resp.Data, &q)
	_, resp = s.do(http.MethodPost, "/api/quiz", adminToken, map[string]any{"name": "Links", "questionIds": []string{q.ID}})
	var quiz domain.Quiz
	decode(t, resp.Data, &quiz)

	code, resp := s.do(http.MethodGet, "/api/quiz/"+quiz.ID, aliceToken, nil)
	if code != http.StatusOK {
		t.Fatalf("employee get quiz: %d %q", code, resp.Message)
	}
	if strings.Contains(string(resp.Data), "isCorrect") {
		t.Fatalf("employee quiz view leaked correctness: %s", resp.Data)
	}
	if !strings.Contains(string(resp.Data), "Is this link safe?") {
		t.Fatalf("expected question in employee view: %s", resp.Data)
	}

	code, resp = s.do(http.MethodGet, "/api/quiz/"+quiz.ID, adminToken, nil)
	if code != http.StatusOK || !strings.Contains(string(resp.Data), "isCorrect") {
		t.Fatalf("admin quiz view should carry correctness: %d %s", code, resp.Data)
	}
}
