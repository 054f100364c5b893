package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"matrix_exam_backend/internal/model"

	"github.com/gorilla/websocket"
)

func TestNotifyWithoutClientsDoesNotBlock(t *testing.T) {
	h := NewSessionHub(nil, 0)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.NotifyStudent(42, WSMessage{Type: MsgSessionStart})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyStudent blocked")
	}
	if h.Connected(42) {
		t.Error("no client should be registered")
	}
}

func TestSessionHubDelivers(t *testing.T) {
	h := NewSessionHub(nil, 50*time.Millisecond)
	deadline := time.Now().Add(30 * time.Minute)
	h.Lookup = func(ctx context.Context, studentID uint) (*model.ExamSessionResponse, error) {
		return &model.ExamSessionResponse{SessionID: 9, RemainingSeconds: 1800, Deadline: deadline}, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(h, w, r, 7)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	first := readMessage(t, conn)
	if first.Type != MsgTimer {
		t.Fatalf("first message = %s, want %s", first.Type, MsgTimer)
	}
	data, _ := first.Data.(map[string]interface{})
	if data["sessionId"] != float64(9) || data["remainingSeconds"] != float64(1800) {
		t.Errorf("timer payload = %v", first.Data)
	}

	h.NotifyStudent(7, WSMessage{Type: MsgSessionClosed, Data: map[string]interface{}{"sessionId": 9}})
	for {
		msg := readMessage(t, conn)
		if msg.Type == MsgSessionClosed {
			break
		}
		if msg.Type != MsgTimer {
			t.Fatalf("unexpected message %s", msg.Type)
		}
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return msg
}
