package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	api     *API
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on",
		strings.ReplaceAll(t.Name(), "/", "_"))
	orm, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := orm.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := orm.AutoMigrate(&userModel{}, &subjectModel{}, &sessionModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	app, err := New(&Store{ORM: orm}, Config{
		SigningKey: []byte("test-signing-key"),
		RefreshKey: []byte("test-refresh-key"),
		// High limits so tests never trip the per-minute rate limiter.
		RateLimitPerMinute:     10_000,
		AuthRateLimitPerMinute: 10_000,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("init api: %v", err)
	}

	handler, err := app.Routes()
	if err != nil {
		t.Fatalf("build routes: %v", err)
	}
	return &testEnv{api: app, handler: handler}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type userEnvelope struct {
	User User `json:"user"`
}

type subjectEnvelope struct {
	Subject Subject `json:"subject"`
}

type sessionEnvelope struct {
	Session StudySession `json:"session"`
}

type fieldErrors struct {
	Errors map[string]string `json:"errors"`
}

func (e *testEnv) register(t *testing.T, username, email string) User {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username":         username,
		"email":            email,
		"password":         "correcthorse",
		"confirm_password": "correcthorse",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, rr.Code, rr.Body.String())
	}
	var created userEnvelope
	decodeInto(t, rr, &created)
	return created.User
}

func (e *testEnv) login(t *testing.T, username string) tokenResponse {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": "correcthorse",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rr.Code, rr.Body.String())
	}
	var tokens tokenResponse
	decodeInto(t, rr, &tokens)
	return tokens
}

func (e *testEnv) createSubject(t *testing.T, token, name string) Subject {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/subjects/", token, map[string]any{
		"name":             name,
		"description":      "notes on " + name,
		"total_hours_goal": 40,
		"priority_level":   "medium",
		"status":           "active",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create subject %s: status %d body %s", name, rr.Code, rr.Body.String())
	}
	var created subjectEnvelope
	decodeInto(t, rr, &created)
	return created.Subject
}

func (e *testEnv) createSession(t *testing.T, token string, subjectID uuid.UUID, start, end string) StudySession {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/sessions/", token, map[string]any{
		"subject_id": subjectID.String(),
		"start_time": start,
		"end_time":   end,
		"notes":      "reviewed chapter three",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create session: status %d body %s", rr.Code, rr.Body.String())
	}
	var created sessionEnvelope
	decodeInto(t, rr, &created)
	return created.Session
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	base := map[string]string{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         "correcthorse",
		"confirm_password": "correcthorse",
	}

	tests := []struct {
		name      string
		mutate    func(map[string]string)
		wantField string
	}{
		{name: "missing username", mutate: func(m map[string]string) { m["username"] = "" }, wantField: "username"},
		{name: "username too long", mutate: func(m map[string]string) { m["username"] = "abcdefghijklmnop" }, wantField: "username"},
		{name: "username with digits", mutate: func(m map[string]string) { m["username"] = "alice99" }, wantField: "username"},
		{name: "bad email", mutate: func(m map[string]string) { m["email"] = "not-an-address" }, wantField: "email"},
		{name: "short password", mutate: func(m map[string]string) { m["password"] = "short"; m["confirm_password"] = "short" }, wantField: "password"},
		{name: "mismatched confirmation", mutate: func(m map[string]string) { m["confirm_password"] = "differenthorse" }, wantField: "confirm_password"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := make(map[string]string, len(base))
			for k, v := range base {
				payload[k] = v
			}
			tc.mutate(payload)

			rr := env.do(t, http.MethodPost, "/auth/register", "", payload)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", rr.Code, rr.Body.String())
			}
			var resp fieldErrors
			decodeInto(t, rr, &resp)
			if _, ok := resp.Errors[tc.wantField]; !ok {
				t.Fatalf("expected error on %q, got %v", tc.wantField, resp.Errors)
			}
		})
	}
}

func TestRegisterUniqueness(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")

	rr := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username":         "alice",
		"email":            "other@example.com",
		"password":         "correcthorse",
		"confirm_password": "correcthorse",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate username: status %d", rr.Code)
	}
	var resp fieldErrors
	decodeInto(t, rr, &resp)
	if resp.Errors["username"] != "this username already exists" {
		t.Fatalf("unexpected username error: %v", resp.Errors)
	}

	rr = env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username":         "bob",
		"email":            "alice@example.com",
		"password":         "correcthorse",
		"confirm_password": "correcthorse",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate email: status %d", rr.Code)
	}
	decodeInto(t, rr, &resp)
	if resp.Errors["email"] != "this email is already in use" {
		t.Fatalf("unexpected email error: %v", resp.Errors)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")

	rr := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wronghorse",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d", rr.Code)
	}

	rr = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "nobody",
		"password": "correcthorse",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: status %d", rr.Code)
	}

	tokens := env.login(t, "alice")
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("missing tokens: %+v", tokens)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")
	tokens := env.login(t, "alice")

	rr := env.do(t, http.MethodPost, "/auth/refresh", tokens.RefreshToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: status %d body %s", rr.Code, rr.Body.String())
	}
	var refreshed tokenResponse
	decodeInto(t, rr, &refreshed)
	if refreshed.AccessToken == "" {
		t.Fatal("missing refreshed access token")
	}
	if refreshed.ExpiresIn != 900 {
		t.Fatalf("expires_in = %d, want 900", refreshed.ExpiresIn)
	}

	// An access token presented at the refresh endpoint is rejected.
	rr = env.do(t, http.MethodPost, "/auth/refresh", tokens.AccessToken, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("access token at refresh endpoint: status %d", rr.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/subjects/", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing credential: status %d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/subjects/", "not-a-token", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("garbage credential: status %d", rr.Code)
	}
}

func TestSubjectLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")
	token := env.login(t, "alice").AccessToken

	subject := env.createSubject(t, token, "Linear Algebra")
	if subject.PriorityLevel != PriorityMedium || subject.Status != StatusActive {
		t.Fatalf("unexpected subject defaults: %+v", subject)
	}

	rr := env.do(t, http.MethodGet, "/subjects/"+subject.ID.String(), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get subject: status %d", rr.Code)
	}

	rr = env.do(t, http.MethodPut, "/subjects/"+subject.ID.String(), token, map[string]any{
		"name":                  "Linear Algebra II",
		"description":           "second semester",
		"total_hours_goal":      60,
		"total_hours_completed": 12,
		"priority_level":        "high",
		"status":                "completed",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update subject: status %d body %s", rr.Code, rr.Body.String())
	}
	var updated subjectEnvelope
	decodeInto(t, rr, &updated)
	if updated.Subject.Name != "Linear Algebra II" || updated.Subject.Status != StatusCompleted {
		t.Fatalf("update not applied: %+v", updated.Subject)
	}
	if updated.Subject.TotalHoursCompleted != 12 {
		t.Fatalf("total_hours_completed = %d, want 12", updated.Subject.TotalHoursCompleted)
	}

	rr = env.do(t, http.MethodDelete, "/subjects/"+subject.ID.String(), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete subject: status %d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/subjects/"+subject.ID.String(), token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get deleted subject: status %d, want 404", rr.Code)
	}
}

func TestSubjectValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")
	token := env.login(t, "alice").AccessToken

	tests := []struct {
		name      string
		body      map[string]any
		wantField string
	}{
		{
			name:      "missing name",
			body:      map[string]any{"name": "", "priority_level": "low", "status": "active"},
			wantField: "name",
		},
		{
			name:      "name only markup",
			body:      map[string]any{"name": "<script>x()</script>", "priority_level": "low", "status": "active"},
			wantField: "name",
		},
		{
			name:      "bad priority",
			body:      map[string]any{"name": "Chemistry", "priority_level": "urgent", "status": "active"},
			wantField: "priority_level",
		},
		{
			name:      "bad status",
			body:      map[string]any{"name": "Chemistry", "priority_level": "low", "status": "paused"},
			wantField: "status",
		},
		{
			name:      "negative goal",
			body:      map[string]any{"name": "Chemistry", "priority_level": "low", "status": "active", "total_hours_goal": -1},
			wantField: "total_hours_goal",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/subjects/", token, tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", rr.Code, rr.Body.String())
			}
			var resp fieldErrors
			decodeInto(t, rr, &resp)
			if _, ok := resp.Errors[tc.wantField]; !ok {
				t.Fatalf("expected error on %q, got %v", tc.wantField, resp.Errors)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")
	token := env.login(t, "alice").AccessToken
	subject := env.createSubject(t, token, "Linear Algebra")

	session := env.createSession(t, token, subject.ID, "03:00PM", "04:00PM")
	if session.DurationMinutes != 60 {
		t.Fatalf("duration = %d, want 60", session.DurationMinutes)
	}
	if session.SubjectName != "Linear Algebra" {
		t.Fatalf("subject_name = %q", session.SubjectName)
	}

	rr := env.do(t, http.MethodGet, "/sessions/"+session.ID.String(), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get session: status %d", rr.Code)
	}

	rr = env.do(t, http.MethodPut, "/sessions/"+session.ID.String(), token, map[string]any{
		"start_time": "10:00AM",
		"end_time":   "11:30AM",
		"notes":      "rescheduled",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update session: status %d body %s", rr.Code, rr.Body.String())
	}
	var updated sessionEnvelope
	decodeInto(t, rr, &updated)
	if updated.Session.DurationMinutes != 90 {
		t.Fatalf("duration after update = %d, want 90", updated.Session.DurationMinutes)
	}
	if updated.Session.Notes != "rescheduled" {
		t.Fatalf("notes after update = %q", updated.Session.Notes)
	}

	rr = env.do(t, http.MethodDelete, "/sessions/"+session.ID.String(), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete session: status %d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/sessions/"+session.ID.String(), token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get deleted session: status %d, want 404", rr.Code)
	}
}

func TestSessionTimeValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")
	token := env.login(t, "alice").AccessToken
	subject := env.createSubject(t, token, "Linear Algebra")

	tests := []struct {
		name       string
		start, end string
		wantField  string
	}{
		{name: "inverted range", start: "04:00PM", end: "03:00PM", wantField: "end_time"},
		{name: "zero length", start: "03:00PM", end: "03:00PM", wantField: "end_time"},
		{name: "unparseable start", start: "afternoon", end: "04:00PM", wantField: "start_time"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/sessions/", token, map[string]any{
				"subject_id": subject.ID.String(),
				"start_time": tc.start,
				"end_time":   tc.end,
			})
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", rr.Code, rr.Body.String())
			}
			var resp fieldErrors
			decodeInto(t, rr, &resp)
			if _, ok := resp.Errors[tc.wantField]; !ok {
				t.Fatalf("expected error on %q, got %v", tc.wantField, resp.Errors)
			}
		})
	}
}

func TestSessionRejectsClientDuration(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")
	token := env.login(t, "alice").AccessToken
	subject := env.createSubject(t, token, "Linear Algebra")

	// duration_minutes is derived server-side and is not an accepted field.
	rr := env.do(t, http.MethodPost, "/sessions/", token, map[string]any{
		"subject_id":       subject.ID.String(),
		"start_time":       "03:00PM",
		"end_time":         "04:00PM",
		"duration_minutes": 999,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rr.Code, rr.Body.String())
	}
}

func TestSessionSubjectImmutable(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")
	token := env.login(t, "alice").AccessToken
	first := env.createSubject(t, token, "Linear Algebra")
	second := env.createSubject(t, token, "Organic Chemistry")
	session := env.createSession(t, token, first.ID, "03:00PM", "04:00PM")

	rr := env.do(t, http.MethodPut, "/sessions/"+session.ID.String(), token, map[string]any{
		"subject_id": second.ID.String(),
		"start_time": "03:00PM",
		"end_time":   "04:00PM",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rr.Code, rr.Body.String())
	}
	var resp fieldErrors
	decodeInto(t, rr, &resp)
	if _, ok := resp.Errors["subject_id"]; !ok {
		t.Fatalf("expected error on subject_id, got %v", resp.Errors)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")
	env.register(t, "bob", "bob@example.com")
	aliceToken := env.login(t, "alice").AccessToken
	bobToken := env.login(t, "bob").AccessToken

	subject := env.createSubject(t, aliceToken, "Linear Algebra")
	session := env.createSession(t, aliceToken, subject.ID, "03:00PM", "04:00PM")

	// Another user's resource is 403, never 404.
	for _, path := range []string{
		"/subjects/" + subject.ID.String(),
		"/sessions/" + session.ID.String(),
	} {
		rr := env.do(t, http.MethodGet, path, bobToken, nil)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("GET %s as bob: status %d, want 403", path, rr.Code)
		}
		rr = env.do(t, http.MethodDelete, path, bobToken, nil)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("DELETE %s as bob: status %d, want 403", path, rr.Code)
		}
	}

	// A genuinely absent id is 404, and a malformed id behaves the same.
	rr := env.do(t, http.MethodGet, "/subjects/"+uuid.NewString(), bobToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("absent subject: status %d, want 404", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/subjects/not-a-uuid", bobToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("malformed subject id: status %d, want 404", rr.Code)
	}

	// Logging a session against someone else's subject is 403.
	rr = env.do(t, http.MethodPost, "/sessions/", bobToken, map[string]any{
		"subject_id": subject.ID.String(),
		"start_time": "03:00PM",
		"end_time":   "04:00PM",
	})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("session against alice's subject: status %d, want 403", rr.Code)
	}

	// Bob's listings never include alice's rows.
	rr = env.do(t, http.MethodGet, "/sessions/", bobToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("bob list sessions: status %d", rr.Code)
	}
	var sessions sessionPage
	decodeInto(t, rr, &sessions)
	if sessions.Total != 0 || len(sessions.Sessions) != 0 {
		t.Fatalf("bob sees foreign sessions: %+v", sessions)
	}
}

func TestSubjectPagination(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")
	token := env.login(t, "alice").AccessToken

	for _, name := range []string{"Algebra", "Biology", "Chemistry"} {
		env.createSubject(t, token, name)
	}

	rr := env.do(t, http.MethodGet, "/subjects/?page=1&per_page=2", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list page 1: status %d", rr.Code)
	}
	var page1 subjectPage
	decodeInto(t, rr, &page1)
	if page1.Total != 3 || page1.Pages != 2 || len(page1.Subjects) != 2 {
		t.Fatalf("page 1 = total %d pages %d len %d", page1.Total, page1.Pages, len(page1.Subjects))
	}

	rr = env.do(t, http.MethodGet, "/subjects/?page=2&per_page=2", token, nil)
	var page2 subjectPage
	decodeInto(t, rr, &page2)
	if page2.Page != 2 || len(page2.Subjects) != 1 {
		t.Fatalf("page 2 = page %d len %d", page2.Page, len(page2.Subjects))
	}

	// An oversized per_page is clamped server-side, not rejected.
	rr = env.do(t, http.MethodGet, "/subjects/?per_page=5000", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("clamped list: status %d", rr.Code)
	}
	var clamped subjectPage
	decodeInto(t, rr, &clamped)
	if clamped.Pages != 1 || len(clamped.Subjects) != 3 {
		t.Fatalf("clamped list = pages %d len %d", clamped.Pages, len(clamped.Subjects))
	}
}

func TestListCaching(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")
	token := env.login(t, "alice").AccessToken
	env.createSubject(t, token, "Algebra")

	first := env.do(t, http.MethodGet, "/subjects/", token, nil)
	second := env.do(t, http.MethodGet, "/subjects/", token, nil)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("list statuses %d, %d", first.Code, second.Code)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Fatalf("repeated reads differ:\n%s\n%s", first.Body.String(), second.Body.String())
	}

	// A mutation invalidates the cached page before the response is written,
	// so the very next read reflects it.
	env.createSubject(t, token, "Biology")
	rr := env.do(t, http.MethodGet, "/subjects/", token, nil)
	var listing subjectPage
	decodeInto(t, rr, &listing)
	if listing.Total != 2 {
		t.Fatalf("total after create = %d, want 2", listing.Total)
	}

	rr = env.do(t, http.MethodDelete, "/subjects/"+listing.Subjects[0].ID.String(), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete subject: status %d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/subjects/", token, nil)
	decodeInto(t, rr, &listing)
	if listing.Total != 1 {
		t.Fatalf("total after delete = %d, want 1", listing.Total)
	}
}

func TestListingWithCacheDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.api.cache = nil
	env.register(t, "alice", "alice@example.com")
	token := env.login(t, "alice").AccessToken
	env.createSubject(t, token, "Algebra")
	env.createSubject(t, token, "Biology")

	// With the cache disabled every read falls through to the store and the
	// results are indistinguishable from the cached path.
	first := env.do(t, http.MethodGet, "/subjects/", token, nil)
	second := env.do(t, http.MethodGet, "/subjects/", token, nil)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("list statuses %d, %d", first.Code, second.Code)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Fatalf("uncached reads differ:\n%s\n%s", first.Body.String(), second.Body.String())
	}

	var listing subjectPage
	decodeInto(t, second, &listing)
	if listing.Total != 2 {
		t.Fatalf("total = %d, want 2", listing.Total)
	}
}

func TestSubjectDeleteCascadesSessions(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")
	token := env.login(t, "alice").AccessToken
	subject := env.createSubject(t, token, "Linear Algebra")
	keepSubject := env.createSubject(t, token, "Organic Chemistry")

	doomed := env.createSession(t, token, subject.ID, "09:00AM", "10:00AM")
	env.createSession(t, token, subject.ID, "01:00PM", "02:00PM")
	kept := env.createSession(t, token, keepSubject.ID, "03:00PM", "04:00PM")

	rr := env.do(t, http.MethodDelete, "/subjects/"+subject.ID.String(), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete subject: status %d body %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/sessions/"+doomed.ID.String(), token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("cascaded session: status %d, want 404", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/sessions/", token, nil)
	var listing sessionPage
	decodeInto(t, rr, &listing)
	if listing.Total != 1 {
		t.Fatalf("sessions after cascade = %d, want 1", listing.Total)
	}
	if listing.Sessions[0].ID != kept.ID {
		t.Fatalf("surviving session = %s, want %s", listing.Sessions[0].ID, kept.ID)
	}
}

func TestUserDeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "alice", "alice@example.com")
	token := env.login(t, "alice").AccessToken
	subject := env.createSubject(t, token, "Linear Algebra")
	env.createSession(t, token, subject.ID, "03:00PM", "04:00PM")

	// Account removal is a store-level operation; the schema's foreign keys
	// cascade through subjects down to sessions.
	if err := env.api.store.ORM.Delete(&userModel{}, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}

	var subjects, sessions int64
	if err := env.api.store.ORM.Model(&subjectModel{}).Count(&subjects).Error; err != nil {
		t.Fatalf("count subjects: %v", err)
	}
	if err := env.api.store.ORM.Model(&sessionModel{}).Count(&sessions).Error; err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if subjects != 0 || sessions != 0 {
		t.Fatalf("orphaned rows after user delete: subjects %d sessions %d", subjects, sessions)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz: status %d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/readyz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz: status %d", rr.Code)
	}
}
