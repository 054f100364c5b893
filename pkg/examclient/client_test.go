package examclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"matrix_exam_backend/internal/model"
)

func writeEnvelope(w http.ResponseWriter, status int, env map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

func TestQueryUsesCacheUntilMutation(t *testing.T) {
	var lists int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			atomic.AddInt32(&lists, 1)
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"code": 200, "message": "success",
				"data": []map[string]interface{}{{"id": 1, "subjectName": "Math", "subjectCode": "MATH"}},
			})
		case http.MethodPost:
			writeEnvelope(w, http.StatusCreated, map[string]interface{}{
				"code": 201, "message": "created",
				"data": map[string]interface{}{"id": 2, "subjectName": "Science", "subjectCode": "SCI"},
			})
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		list, err := c.Subjects().List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 1 || list[0].SubjectCode != "MATH" {
			t.Fatalf("list = %+v", list)
		}
	}
	if lists != 1 {
		t.Fatalf("server hit %d times, want 1", lists)
	}

	created, err := c.Subjects().Create(ctx, map[string]string{"subjectName": "Science", "subjectCode": "SCI"})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != 2 {
		t.Errorf("created = %+v", created)
	}
	if _, err := c.Subjects().List(ctx); err != nil {
		t.Fatal(err)
	}
	if lists != 2 {
		t.Errorf("create should invalidate the subject list, hits = %d", lists)
	}
}

func TestErrorDecoding(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   Kind
		reason string
		fields map[string]string
	}{
		{
			name:   "conflict",
			status: http.StatusConflict,
			body:   `{"code":409,"message":"student already has an exam in progress","reason":"ALREADY_ACTIVE"}`,
			kind:   KindConflict,
			reason: "ALREADY_ACTIVE",
		},
		{
			name:   "validation",
			status: http.StatusBadRequest,
			body:   `{"code":400,"message":"invalid request","reason":"VALIDATION_FAILED","errors":{"examName":"is required"}}`,
			kind:   KindValidation,
			reason: "VALIDATION_FAILED",
			fields: map[string]string{"examName": "is required"},
		},
		{
			name:   "unprocessable",
			status: http.StatusUnprocessableEntity,
			body:   `{"code":422,"message":"no questions match the selection","reason":"INVALID_SELECTION"}`,
			kind:   KindUnprocessable,
			reason: "INVALID_SELECTION",
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   `{"code":403,"message":"Forbidden","reason":"FORBIDDEN"}`,
			kind:   KindForbidden,
			reason: "FORBIDDEN",
		},
		{
			name:   "not json",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			kind:   KindServer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL, nil, nil)
			_, err := c.Exams().List(context.Background())
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := KindOf(err); got != tt.kind {
				t.Errorf("kind = %s, want %s", got, tt.kind)
			}
			if got := ReasonOf(err); got != tt.reason {
				t.Errorf("reason = %q, want %q", got, tt.reason)
			}
			apiErr := err.(*Error)
			if apiErr.Status != tt.status || apiErr.Message == "" {
				t.Errorf("error = %+v", apiErr)
			}
			for k, v := range tt.fields {
				if apiErr.Fields[k] != v {
					t.Errorf("field %s = %q, want %q", k, apiErr.Fields[k], v)
				}
			}
		})
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer expired" {
			t.Errorf("authorization header = %q", r.Header.Get("Authorization"))
		}
		writeEnvelope(w, http.StatusUnauthorized, map[string]interface{}{
			"code": 401, "message": "Unauthorized", "reason": "UNAUTHORIZED",
		})
	}))
	defer srv.Close()

	session := NewSession()
	session.Init("expired", "student@example.com", "STUDENT")
	c := New(srv.URL, session, nil)
	c.Cache.Set(Key{Resource: ResExams}, []byte(`[]`))

	_, err := c.Me(context.Background())
	if KindOf(err) != KindAuth {
		t.Fatalf("err = %v", err)
	}
	if session.Authenticated() || session.Token() != "" || session.Email() != "" {
		t.Error("session should be cleared after 401")
	}
	if c.Cache.Len() != 0 {
		t.Error("cache should be cleared after 401")
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, nil, nil)
	_, err := c.Levels().List(context.Background())
	if KindOf(err) != KindNetwork {
		t.Errorf("kind = %s, want network (%v)", KindOf(err), err)
	}
}

func TestActiveSessionAndSubmitInvalidation(t *testing.T) {
	var active int32
	var activeHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/exam-sessions/active":
			atomic.AddInt32(&activeHits, 1)
			if atomic.LoadInt32(&active) == 0 {
				writeEnvelope(w, http.StatusOK, map[string]interface{}{"code": 200, "message": "success"})
				return
			}
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"code": 200, "message": "success",
				"data": map[string]interface{}{"sessionId": 5, "status": "IN_PROGRESS", "remainingSeconds": 100},
			})
		case "/api/exam-sessions/start":
			atomic.StoreInt32(&active, 1)
			writeEnvelope(w, http.StatusCreated, map[string]interface{}{
				"code": 201, "message": "created",
				"data": map[string]interface{}{"sessionId": 5, "status": "IN_PROGRESS"},
			})
		case "/api/exam-sessions/5/submit":
			atomic.StoreInt32(&active, 0)
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"code": 200, "message": "success",
				"data": map[string]interface{}{"sessionId": 5, "score": 3, "passed": true},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	ctx := context.Background()

	none, err := c.ActiveSession(ctx)
	if err != nil || none != nil {
		t.Fatalf("active before start = %+v, %v", none, err)
	}
	if _, err := c.StartExam(ctx, StartExamRequest{ExamID: 1}); err != nil {
		t.Fatal(err)
	}
	cur, err := c.ActiveSession(ctx)
	if err != nil || cur == nil || cur.SessionID != 5 || cur.Status != model.SessionInProgress {
		t.Fatalf("active after start = %+v, %v", cur, err)
	}
	if _, err := c.ActiveSession(ctx); err != nil {
		t.Fatal(err)
	}
	if activeHits != 2 {
		t.Errorf("active hits = %d, want 2", activeHits)
	}

	result, err := c.SubmitExam(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 3 || !result.Passed {
		t.Errorf("result = %+v", result)
	}
	after, err := c.ActiveSession(ctx)
	if err != nil || after != nil {
		t.Errorf("active after submit = %+v, %v", after, err)
	}
}

func TestCacheRules(t *testing.T) {
	c := NewCache(time.Minute, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(Key{Resource: ResSessionAnswers, ID: 1}, []byte(`[1]`))
	c.Set(Key{Resource: ResSessionAnswers, ID: 2}, []byte(`[2]`))
	c.Set(Key{Resource: ResSession, ID: 1}, []byte(`{}`))
	c.Set(Key{Resource: ResMySessions}, []byte(`[]`))
	c.Set(Key{Resource: ResSubjects}, []byte(`[]`))

	if n := c.Invalidate(MutSubmitAnswer, 1); n != 1 {
		t.Errorf("answer invalidated %d entries, want 1", n)
	}
	if _, ok := c.Get(Key{Resource: ResSessionAnswers, ID: 2}); !ok {
		t.Error("answers of another session must survive")
	}
	if n := c.Invalidate(MutSubmitExam, 2); n != 2 {
		t.Errorf("submit invalidated %d entries, want 2", n)
	}
	if _, ok := c.Get(Key{Resource: ResSession, ID: 1}); !ok {
		t.Error("session 1 was not submitted")
	}
	if n := c.Invalidate("unknown.mutation", 0); n != 0 {
		t.Errorf("unknown mutation invalidated %d", n)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(Key{Resource: ResSubjects}); ok {
		t.Error("entry should expire after ttl")
	}
}

func TestSubmitExpiredCarriesResultID(t *testing.T) {
	var activeHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/exam-sessions/active":
			atomic.AddInt32(&activeHits, 1)
			writeEnvelope(w, http.StatusOK, map[string]interface{}{"code": 200, "message": "success"})
		case "/api/exam-sessions/9/submit":
			writeEnvelope(w, http.StatusConflict, map[string]interface{}{
				"code": 409, "message": "exam session time is over", "reason": "SESSION_EXPIRED",
				"data": map[string]interface{}{"sessionId": 9, "resultId": 42},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	ctx := context.Background()
	if _, err := c.ActiveSession(ctx); err != nil {
		t.Fatal(err)
	}

	_, err := c.SubmitExam(ctx, 9)
	if ReasonOf(err) != "SESSION_EXPIRED" {
		t.Fatalf("err = %v", err)
	}
	id, ok := ExpiredResultID(err)
	if !ok || id != 42 {
		t.Errorf("result id = %d, %v", id, ok)
	}
	if _, ok := ExpiredResultID(&Error{Reason: "ALREADY_SUBMITTED"}); ok {
		t.Error("only SESSION_EXPIRED carries a result id")
	}

	if _, err := c.ActiveSession(ctx); err != nil {
		t.Fatal(err)
	}
	if activeHits != 2 {
		t.Errorf("expired submit should invalidate the active session, hits = %d", activeHits)
	}
}
