package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestSlack_OK(t *testing.T) {
	var got, user string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		got, user = payload["text"], payload["username"]
		w.WriteHeader(200)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	if s == nil {
		t.Fatal("expected slack client")
	}
	if err := s.Send(context.Background(), "Results stale", "last result 95s ago"); err != nil {
		t.Fatalf("send err: %v", err)
	}
	if !strings.HasPrefix(got, "*Results stale*\n") {
		t.Fatalf("payload not as expected: %q", got)
	}
	if user != "uptime-monitor" {
		t.Fatalf("username = %q", user)
	}
}

func TestSlack_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		_, _ = w.Write([]byte("invalid_payload\n"))
	}))
	defer ts.Close()

	err := NewSlack(ts.URL).Send(context.Background(), "X", "Y")
	if err == nil || !strings.Contains(err.Error(), "400 invalid_payload") {
		t.Fatalf("expected non-2xx error, got %v", err)
	}
}

func TestSlack_DisabledWhenNoWebhook(t *testing.T) {
	if NewSlack("") != nil {
		t.Fatalf("empty webhook should disable slack")
	}
}

type failing struct{ n int }

func (f *failing) Send(ctx context.Context, title, text string) error {
	f.n++
	return errors.New("down")
}

func TestMulti_SendsToAllAndCombinesErrors(t *testing.T) {
	a, b := &failing{}, &failing{}
	err := Multi{a, nil, Log{Logger: zap.NewNop()}, b}.Send(context.Background(), "t", "x")
	if a.n != 1 || b.n != 1 {
		t.Fatalf("every notifier should be called: a=%d b=%d", a.n, b.n)
	}
	if err == nil || strings.Count(err.Error(), "down") != 2 {
		t.Fatalf("want both failures reported, got %v", err)
	}
}
