package dispatcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/domain"
)

func TestHTTPPushSender_Success(t *testing.T) {
	var gotAuth string
	var gotPayload pushPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(pushResponse{MessageID: 7253391237465})
	}))
	defer srv.Close()

	sender := NewHTTPPushSender(srv.URL, "test-key")
	result := sender.Send(context.Background(), domain.PushMessage{
		Title: "T", Body: "B", Topic: "truth-dare-all", Image: "https://img.example/x.png",
	})

	if !result.IsSuccess() {
		t.Fatalf("send failed: status=%d err=%v", result.StatusCode, result.Error)
	}
	if result.MessageID != "7253391237465" {
		t.Errorf("message id = %q, want 7253391237465", result.MessageID)
	}
	if gotAuth != "key=test-key" {
		t.Errorf("authorization = %q, want key=test-key", gotAuth)
	}
	if gotPayload.To != "/topics/truth-dare-all" {
		t.Errorf("payload to = %q, want /topics/truth-dare-all", gotPayload.To)
	}
	if gotPayload.Notification.Title != "T" || gotPayload.Notification.Image != "https://img.example/x.png" {
		t.Errorf("payload notification = %+v", gotPayload.Notification)
	}
}

func TestHTTPPushSender_ProviderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sender := NewHTTPPushSender(srv.URL, "bad-key")
	result := sender.Send(context.Background(), domain.PushMessage{Title: "T", Body: "B", Topic: "t"})

	if result.IsSuccess() {
		t.Fatal("expected failure on 401")
	}
	if result.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", result.StatusCode)
	}
}

func TestHTTPPushSender_ErrorFieldWith200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pushResponse{Error: "TopicsMessageRateExceeded"})
	}))
	defer srv.Close()

	sender := NewHTTPPushSender(srv.URL, "test-key")
	result := sender.Send(context.Background(), domain.PushMessage{Title: "T", Body: "B", Topic: "t"})

	if result.IsSuccess() {
		t.Fatal("expected failure when the provider reports an error field")
	}
}

func TestHTTPPushSender_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	sender := NewHTTPPushSender(srv.URL, "test-key").WithTimeout(20 * time.Millisecond)
	result := sender.Send(context.Background(), domain.PushMessage{Title: "T", Body: "B", Topic: "t"})

	if result.Error == nil {
		t.Fatal("expected timeout error")
	}
}

func TestHTTPPushSender_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	sender := NewHTTPPushSender(srv.URL, "test-key")
	result := sender.Send(context.Background(), domain.PushMessage{Title: "T", Body: "B", Topic: "t"})

	if result.Error == nil {
		t.Fatal("expected connection error")
	}
}
