package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestSearchCachesResponses(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/search" || r.URL.Query().Get("q") != "jawan" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"id":1,"title":"Jawan","channelName":"Movies"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL,
		WithHTTPClient(srv.Client()),
		WithRetry(fastRetry()),
		WithSearchCache(time.Minute, 16),
	)

	for i := 0; i < 3; i++ {
		results, err := c.Search(context.Background(), "jawan")
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(results) != 1 || results[0].Title != "Jawan" {
			t.Fatalf("unexpected results: %+v", results)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected one backend hit, got %d", got)
	}
}

func TestSearchEmptyQuerySkipsBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called for an empty query")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(srv.Client()))
	results, err := c.Search(context.Background(), "   ")
	if err != nil || results != nil {
		t.Fatalf("expected empty no-op, got %v, %v", results, err)
	}
}

func TestResolveStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/stream" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"streamLinks":[{"streamUrl":"http://backend/play/1"},{"streamUrl":"http://backend/play/2"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithRetry(fastRetry()))
	streamURL, err := c.ResolveStream(context.Background(), "magnet:?xt=urn:btih:abc")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if streamURL != "http://backend/play/1" {
		t.Fatalf("expected first stream link, got %s", streamURL)
	}
}

func TestResolveStreamWithoutLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"streamLinks":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithRetry(fastRetry()))
	if _, err := c.ResolveStream(context.Background(), "magnet:?xt=x"); !errors.Is(err, ErrNoStream) {
		t.Fatalf("expected ErrNoStream, got %v", err)
	}
}

func TestTransientErrorsAreRetried(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":7,"title":"T","videoUrl":"http://backend/v/7"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithRetry(fastRetry()))
	details, err := c.Video(context.Background(), 7)
	if err != nil {
		t.Fatalf("video: %v", err)
	}
	if details.VideoURL != "http://backend/v/7" {
		t.Fatalf("unexpected details: %+v", details)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithRetry(fastRetry()))
	_, err := c.Video(context.Background(), 1)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("404 must not be retried, got %d attempts", got)
	}
}

func TestSubscriptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channel/subscriptions/user-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"subscriptions":[{"id":5,"name":"Movies","avatar":"http://x/a.png"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithRetry(fastRetry()))
	subs, err := c.Subscriptions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("subscriptions: %v", err)
	}
	if len(subs) != 1 || subs[0].Name != "Movies" {
		t.Fatalf("unexpected subscriptions: %+v", subs)
	}
}

func TestLoginMapsChannelID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/user/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "a@b.c" || body["password"] != "secret" {
			t.Errorf("unexpected login body %v", body)
		}
		_, _ = w.Write([]byte(`{"token":"tok","name":"Asha","channel":{"id":41,"name":"Asha","email":"a@b.c"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithRetry(fastRetry()))
	creds, err := c.Login(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if creds.Token != "tok" || creds.UserID != "41" {
		t.Fatalf("expected channel id as user id, got %+v", creds)
	}
	if creds.Name != "Asha" || creds.Email != "a@b.c" {
		t.Fatalf("unexpected identity fields: %+v", creds)
	}
}

func TestLoginWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithRetry(fastRetry()))
	if _, err := c.Login(context.Background(), "a@b.c", "secret"); err == nil {
		t.Fatal("a token-less login reply must be an error")
	}
}

func TestRegisterReturnsTokenOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/register" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["phone"] != "123" {
			t.Errorf("expected phone in register body, got %v", body)
		}
		_, _ = w.Write([]byte(`{"token":"tok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithRetry(fastRetry()))
	creds, err := c.Register(context.Background(), "New User", "n@b.c", "123", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if creds.Token != "tok" || creds.UserID != "" {
		t.Fatalf("register must not invent a user id: %+v", creds)
	}
}

func TestSendAndVerifyOTP(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithRetry(fastRetry()))
	if err := c.SendOTP(context.Background(), "n@b.c"); err != nil {
		t.Fatalf("send otp: %v", err)
	}
	if err := c.VerifyOTP(context.Background(), "n@b.c", "123456"); err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if len(paths) != 2 || paths[0] != "/sendOTP" || paths[1] != "/verifyOTP" {
		t.Fatalf("unexpected paths %v", paths)
	}
}

func TestSubscribeSendsNumericIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channel/subscribe" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]json.Number
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		_ = dec.Decode(&body)
		if body["userId"].String() != "41" || body["channelId"].String() != "3" {
			t.Errorf("ids must be JSON numbers, got %v", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithRetry(fastRetry()))
	if err := c.Subscribe(context.Background(), "41", 3); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
}

func TestSubscribeRejectsMalformedUserID(t *testing.T) {
	c := NewClient("http://backend")
	if err := c.Subscribe(context.Background(), "not-a-number", 3); err == nil {
		t.Fatal("expected an error for a non-numeric user id")
	}
}

func TestSearchCacheEviction(t *testing.T) {
	cache := newSearchCache(time.Minute, 2)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return base }

	cache.set("a", []SearchResult{{ID: 1}})
	cache.set("b", []SearchResult{{ID: 2}})
	cache.set("c", []SearchResult{{ID: 3}})

	if _, ok := cache.get("a"); ok {
		t.Fatal("oldest entry must be evicted at capacity")
	}
	if _, ok := cache.get("c"); !ok {
		t.Fatal("newest entry must survive")
	}

	cache.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := cache.get("c"); ok {
		t.Fatal("expired entry must not be served")
	}
}
