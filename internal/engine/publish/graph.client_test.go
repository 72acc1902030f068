package publish

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"content_factory/internal/engine/classify"
)

func testGraphClient(serverURL string) *GraphClient {
	return NewGraphClient(GraphConfig{
		BaseURL:     serverURL,
		PageID:      "page_1",
		AccessToken: "test_token",
		Timeout:     5 * time.Second,
		RetryMax:    2,
	})
}

func TestGraphClient_PublishText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, muốn POST", r.Method)
		}
		if r.URL.Path != "/page_1/feed" {
			t.Errorf("path = %s, muốn /page_1/feed", r.URL.Path)
		}
		r.ParseForm()
		if r.PostForm.Get("message") != "xin chào" {
			t.Errorf("message = %q", r.PostForm.Get("message"))
		}
		if r.PostForm.Get("access_token") != "test_token" {
			t.Error("thiếu access_token trong form")
		}
		w.Write([]byte(`{"id":"page_1_post_9"}`))
	}))
	defer server.Close()

	client := testGraphClient(server.URL)
	postID, err := client.PublishText(context.Background(), "xin chào")
	if err != nil {
		t.Fatalf("PublishText lỗi: %v", err)
	}
	if postID != "page_1_post_9" {
		t.Errorf("postID = %q", postID)
	}
}

func TestGraphClient_PublishReel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page_1/videos" {
			t.Errorf("path = %s, muốn /page_1/videos", r.URL.Path)
		}
		r.ParseForm()
		if r.PostForm.Get("file_url") != "https://cdn.example.com/v.mp4" {
			t.Errorf("file_url = %q", r.PostForm.Get("file_url"))
		}
		w.Write([]byte(`{"id":"video_77"}`))
	}))
	defer server.Close()

	client := testGraphClient(server.URL)
	postID, err := client.PublishReel(context.Background(), "https://cdn.example.com/v.mp4", "mô tả")
	if err != nil {
		t.Fatalf("PublishReel lỗi: %v", err)
	}
	if postID != "video_77" {
		t.Errorf("postID = %q", postID)
	}
}

func TestGraphClient_RateLimitNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"(#32) Page request limit reached","type":"OAuthException","code":32}}`))
	}))
	defer server.Close()

	client := testGraphClient(server.URL)
	_, err := client.PublishText(context.Background(), "bài test")
	if err == nil {
		t.Fatal("429 phải trả về lỗi")
	}

	// 429 không được đốt lượt retry
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server nhận %d request, muốn 1 (không retry 429)", got)
	}

	var apiErr *classify.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("lỗi phải là APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != 429 || apiErr.Code != 32 {
		t.Errorf("APIError = %+v", apiErr)
	}
	if classify.Classify(err) != classify.CodeRateLimit {
		t.Error("lỗi 429 phải được phân loại RATE_LIMIT")
	}
}

func TestGraphClient_ServerErrorRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":"post_after_retry"}`))
	}))
	defer server.Close()

	client := testGraphClient(server.URL)
	postID, err := client.PublishText(context.Background(), "bài test")
	if err != nil {
		t.Fatalf("PublishText sau retry lỗi: %v", err)
	}
	if postID != "post_after_retry" {
		t.Errorf("postID = %q", postID)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server nhận %d request, muốn 3 (2 lần 502 rồi thành công)", got)
	}
}

func TestGraphClient_AuthErrorParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`))
	}))
	defer server.Close()

	client := testGraphClient(server.URL)
	_, err := client.PublishText(context.Background(), "bài test")

	var apiErr *classify.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("lỗi phải là APIError, got %v", err)
	}
	if apiErr.Type != "OAuthException" || apiErr.Code != 190 {
		t.Errorf("APIError = %+v", apiErr)
	}
	if classify.Classify(err) != classify.CodeAuth {
		t.Error("lỗi token phải được phân loại AUTH")
	}
}
